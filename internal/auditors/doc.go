// Package auditors runs npm, yarn, and pnpm dependency audits and normalizes their
// reports into vulnerability findings or classified audit errors.
package auditors
