package macro

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// Writer writes instructions to a script, one per line. After the first
// failed write, every further write returns the same error.
type Writer struct {
	w     *bufio.Writer
	err   error
	count int
}

// NewWriter creates a Writer which writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write appends a single instruction.
func (w *Writer) Write(ins Instruction) error {
	if w.err != nil {
		return w.err
	}
	if _, err := w.w.WriteString(ins.String() + "\n"); err != nil {
		w.err = errors.Wrap(err, "write instruction")
		return w.err
	}
	w.count++
	return nil
}

// Flush writes any buffered instructions to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		w.err = errors.Wrap(err, "flush instructions")
	}
	return w.err
}

// Count returns the number of instructions written.
func (w *Writer) Count() int {
	return w.count
}
