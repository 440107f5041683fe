// Package gate turns un-suppressed findings and severity thresholds into a pass/fail decision.
package gate
