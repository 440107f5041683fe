package ui

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/temirov/auditgate/internal/report/render"
)

const (
	warningColorConstant        = "3"
	warningLineTemplateConstant = "%s\n"
	warningLoggedMessage        = "Audit warning emitted"
	warningLogFieldConstant     = "warning"
)

// ConsoleWarningSink prints operator warnings to a writer, in yellow when the writer is a terminal.
type ConsoleWarningSink struct {
	writer io.Writer
	logger *zap.Logger
	mutex  sync.Mutex
}

// NewConsoleWarningSink builds a sink writing to writer. A nil writer keeps only the log entry.
func NewConsoleWarningSink(writer io.Writer, logger *zap.Logger) *ConsoleWarningSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleWarningSink{writer: writer, logger: logger}
}

// Warn implements retry.WarningSink.
func (sink *ConsoleWarningSink) Warn(message string) {
	if sink == nil {
		return
	}
	sink.mutex.Lock()
	defer sink.mutex.Unlock()

	sink.logger.Debug(warningLoggedMessage, zap.String(warningLogFieldConstant, message))
	if sink.writer == nil {
		return
	}

	output := render.NewOutput(sink.writer)
	coloredMessage := output.String(message).Foreground(output.Color(warningColorConstant)).String()
	if _, writeError := fmt.Fprintf(sink.writer, warningLineTemplateConstant, coloredMessage); writeError != nil {
		sink.logger.Warn(warningLoggedMessage, zap.String(warningLogFieldConstant, message), zap.Error(writeError))
	}
}
