package render

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/temirov/auditgate/internal/vulnerability"
)

const (
	colorRedConstant      = "1"
	colorGreenConstant    = "2"
	colorYellowConstant   = "3"
	colorMagentaConstant  = "5"
	colorCyanConstant     = "6"
	noColorEnvironmentKey = "NO_COLOR"
)

// fileDescriptor is implemented by *os.File.
type fileDescriptor interface {
	Fd() uintptr
}

// IsTerminal reports whether writer is an interactive terminal.
func IsTerminal(writer io.Writer) bool {
	descriptor, ok := writer.(fileDescriptor)
	if !ok {
		return false
	}
	return isatty.IsTerminal(descriptor.Fd()) || isatty.IsCygwinTerminal(descriptor.Fd())
}

// NewOutput returns a termenv output that only emits colors when writer is a terminal and NO_COLOR is unset.
func NewOutput(writer io.Writer) *termenv.Output {
	profile := termenv.Ascii
	if _, noColor := os.LookupEnv(noColorEnvironmentKey); !noColor && IsTerminal(writer) {
		profile = termenv.ANSI
	}
	return termenv.NewOutput(writer, termenv.WithProfile(profile))
}

func severityColor(output *termenv.Output, severity vulnerability.Severity) termenv.Color {
	switch severity {
	case vulnerability.SeverityCritical:
		return output.Color(colorMagentaConstant)
	case vulnerability.SeverityHigh:
		return output.Color(colorRedConstant)
	case vulnerability.SeverityModerate:
		return output.Color(colorYellowConstant)
	default:
		return output.Color(colorCyanConstant)
	}
}

func colorize(output *termenv.Output, text string, color termenv.Color) string {
	return output.String(text).Foreground(color).String()
}
