package ui_test

import (
	"bytes"
	"testing"

	"github.com/tesselslate/xmacro/internal/ui"
)

func TestStatus(t *testing.T) {
	var buf bytes.Buffer
	u := ui.NewWriter(&buf, false)
	u.Status(ui.StatusBusy, "Recording to %s", "out.xmacro")
	u.Status(ui.StatusOk, "Done")
	want := "  busy | Recording to out.xmacro\n  ok   | Done\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	u := ui.NewWriter(&buf, false)
	u.Summary("Recorded", [][2]string{{"written", "12"}, {"discarded", "3"}})
	want := "  Recorded\n    written    12\n    discarded  3\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
