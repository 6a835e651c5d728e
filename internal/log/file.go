package log

import (
	"os"

	"github.com/pkg/errors"
)

// File is a Sink which writes to a log file.
type File struct {
	logFile *os.File
}

// OpenFile opens the log file in `filePath` with write-only, truncate and
// create flags and with mode 0644 (before umask).
func OpenFile(filePath string) (*File, error) {
	logFile, err := os.OpenFile(filePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "open log file")
	}
	return &File{logFile}, nil
}

func (f *File) Write(p []byte) (int, error) {
	return f.logFile.Write(p)
}

func (f *File) Close() error {
	return f.logFile.Close()
}
