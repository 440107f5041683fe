package cli

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// stdoutCapture redirects os.Stdout into a pipe drained on a background goroutine.
type stdoutCapture struct {
	original *os.File
	writer   *os.File
	drained  chan []byte
}

func startStdoutCapture(t *testing.T) *stdoutCapture {
	t.Helper()

	reader, writer, pipeError := os.Pipe()
	require.NoError(t, pipeError)

	capture := &stdoutCapture{original: os.Stdout, writer: writer, drained: make(chan []byte, 1)}
	go func() {
		var buffer bytes.Buffer
		_, _ = io.Copy(&buffer, reader)
		_ = reader.Close()
		capture.drained <- buffer.Bytes()
	}()

	os.Stdout = writer
	t.Cleanup(func() {
		if capture.writer != nil {
			capture.Stop(t)
		}
	})
	return capture
}

// Stop restores os.Stdout and returns everything written while capturing.
func (capture *stdoutCapture) Stop(t *testing.T) string {
	t.Helper()

	os.Stdout = capture.original
	require.NoError(t, capture.writer.Close())
	capture.writer = nil
	return string(<-capture.drained)
}
