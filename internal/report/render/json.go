package render

import (
	"encoding/json"
	"io"

	"github.com/temirov/auditgate/internal/report"
)

const jsonIndentConstant = "  "

// JSONRenderer writes the report record as indented JSON.
type JSONRenderer struct{}

// Render implements Renderer.
func (JSONRenderer) Render(writer io.Writer, auditReport report.Report) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", jsonIndentConstant)
	return encoder.Encode(auditReport)
}
