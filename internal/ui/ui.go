// Package ui prints status messages and summaries for the user. Everything is
// written to standard error, since standard output may carry a macro.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	gloss "github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

type Status int

const (
	StatusInfo Status = iota
	StatusBusy
	StatusOk
	StatusFail
)

type StatusStyle struct {
	title string
	style gloss.Style
}

var statusStyles = map[Status]StatusStyle{
	StatusInfo: {
		title: "info",
		style: gloss.NewStyle().Foreground(gloss.Color("15")),
	},
	StatusBusy: {
		title: "busy",
		style: gloss.NewStyle().Foreground(gloss.Color("11")),
	},
	StatusOk: {
		title: "ok",
		style: gloss.NewStyle().Foreground(gloss.Color("10")),
	},
	StatusFail: {
		title: "fail",
		style: gloss.NewStyle().Foreground(gloss.Color("9")),
	},
}

var cyanStyle = gloss.NewStyle().Bold(true).Foreground(gloss.Color("14"))
var grayStyle = gloss.NewStyle().Foreground(gloss.Color("#aaaaaa"))

// UI writes messages to a terminal. Styling is only applied when the output
// is a terminal.
type UI struct {
	w     io.Writer
	color bool
}

// New creates a UI writing to standard error.
func New() *UI {
	return NewWriter(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
}

// NewWriter creates a UI writing to w.
func NewWriter(w io.Writer, color bool) *UI {
	return &UI{w, color}
}

// Status prints a single status line.
func (u *UI) Status(status Status, format string, args ...any) {
	style := statusStyles[status]
	text := fmt.Sprintf(format, args...)
	fmt.Fprintln(u.w, u.render(style.style, "  "+pad(style.title, 5)+"| "+text))
}

// Hint prints a dimmed line of help text.
func (u *UI) Hint(format string, args ...any) {
	fmt.Fprintln(u.w, u.render(grayStyle, "  "+fmt.Sprintf(format, args...)))
}

// Summary prints a titled table of names and values.
func (u *UI) Summary(title string, rows [][2]string) {
	width := 0
	for _, row := range rows {
		if len(row[0]) > width {
			width = len(row[0])
		}
	}
	var b strings.Builder
	b.WriteString(u.render(cyanStyle, "  "+title) + "\n")
	for _, row := range rows {
		b.WriteString("    " + pad(row[0], width+2) + row[1] + "\n")
	}
	fmt.Fprint(u.w, b.String())
}

func (u *UI) render(style gloss.Style, str string) string {
	if !u.color {
		return str
	}
	return style.Render(str)
}

func pad(str string, length int) string {
	if toAdd := length - len(str); toAdd > 0 {
		str += strings.Repeat(" ", toAdd)
	}
	return str
}
