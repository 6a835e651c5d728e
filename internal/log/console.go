package log

import (
	"io"
	"os"
)

// Console is a Sink which writes to a terminal stream. Closing it does not
// close the stream.
type Console struct {
	w io.Writer
}

// NewConsole returns a Console sink writing to w.
func NewConsole(w io.Writer) Console {
	return Console{w}
}

// Stderr returns a Console sink writing to standard error. Standard output
// is left alone since it may carry a recorded macro.
func Stderr() Console {
	return Console{os.Stderr}
}

func (c Console) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

func (c Console) Close() error {
	return nil
}
