package log

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Formatter is used by the Logger to format the log before print.
// It is initialized with a formatStr that can use certain internal variables:
// `ascTime` - The time of the log print in human readable form.
// `level` - The visibility level of the log.
// `message` - The log message itself. This is a compulsory format variable.
// All format variables are enclosed in '{' and '}'.
// Eg: "{ascTime}: [{level}] - {message}"
type Formatter struct {
	formatStr string
	now       func() time.Time
}

// DefaultFormatter creates a simple Formatter instance with a pre-defined `formatStr`.
func DefaultFormatter() Formatter {
	return NewFormatter("{ascTime}: [{level}] - {message}")
}

// NewFormatter creates a Formatter instance with a user-defined `formatStr`.
func NewFormatter(formatStr string) Formatter {
	return Formatter{
		formatStr: formatStr,
		now:       time.Now,
	}
}

// args returns the replacement pairs for every variable used in `formatStr`.
func (f *Formatter) args(ascTime string, level string, message string) ([]string, error) {
	if !strings.Contains(f.formatStr, "{message}") {
		return nil, errors.New("missing `message` parameter in format string")
	}
	var formatArgs []string
	if strings.Contains(f.formatStr, "{ascTime}") {
		formatArgs = append(formatArgs, "{ascTime}", ascTime)
	}
	if strings.Contains(f.formatStr, "{level}") {
		formatArgs = append(formatArgs, "{level}", level)
	}
	return append(formatArgs, "{message}", message), nil
}

// Format is used to get a fully formatted string from `formatStr`.
// It replaces all variables with their values in `formatStr`.
func (f *Formatter) Format(level string, message string) (string, error) {
	ascTime := f.now().Format(time.RFC3339)
	args, err := f.args(ascTime, level, message)
	if err != nil {
		return "", err
	}
	replacer := strings.NewReplacer(args...)
	return replacer.Replace(f.formatStr) + "\n", nil
}
