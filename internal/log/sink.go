package log

import "io"

// Sink is a destination for formatted log lines.
type Sink interface {
	io.Writer
	Close() error
}
