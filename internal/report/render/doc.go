// Package render writes audit reports as text tables, JSON, SARIF, or JUnit XML.
package render
