package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/temirov/auditgate/internal/auditors"
	"github.com/temirov/auditgate/internal/report"
)

const (
	formatTextConstant           = "text"
	formatJSONConstant           = "json"
	formatSARIFConstant          = "sarif"
	formatJUnitConstant          = "junit"
	unknownFormatTemplate        = "Invalid output format: %s. Should be one of [%s]."
	formatNamesSeparatorConstant = ", "
)

// Format names an output encoding.
type Format string

// Output formats.
const (
	FormatText  Format = Format(formatTextConstant)
	FormatJSON  Format = Format(formatJSONConstant)
	FormatSARIF Format = Format(formatSARIFConstant)
	FormatJUnit Format = Format(formatJUnitConstant)
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatSARIF, FormatJUnit}
}

// Renderer writes a report to an output medium.
type Renderer interface {
	Render(writer io.Writer, auditReport report.Report) error
}

// ParseFormat validates a configured output format.
func ParseFormat(raw string) (Format, error) {
	normalized := Format(strings.ToLower(strings.TrimSpace(raw)))
	for _, format := range Formats() {
		if normalized == format {
			return format, nil
		}
	}
	return "", auditors.ConfigurationError{Message: fmt.Sprintf(unknownFormatTemplate, raw, formatNames())}
}

// ForFormat returns the renderer for a format name.
func ForFormat(raw string) (Renderer, error) {
	format, parseError := ParseFormat(raw)
	if parseError != nil {
		return nil, parseError
	}
	switch format {
	case FormatJSON:
		return JSONRenderer{}, nil
	case FormatSARIF:
		return SARIFRenderer{}, nil
	case FormatJUnit:
		return JUnitRenderer{}, nil
	default:
		return TextRenderer{}, nil
	}
}

func formatNames() string {
	names := make([]string, 0, len(Formats()))
	for _, format := range Formats() {
		names = append(names, string(format))
	}
	return strings.Join(names, formatNamesSeparatorConstant)
}
