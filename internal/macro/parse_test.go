package macro_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/tesselslate/xmacro/internal/macro"
)

func TestRoundTrip(t *testing.T) {
	lines := []string{
		"Delay 250",
		"Delay 4294967295",
		"ButtonPress 1",
		"ButtonRelease 255",
		"MotionNotify -32768 32767",
		"KeyCodePress 40",
		"KeyCodeRelease 0",
		"KeySymPress Super_L",
		"KeySymRelease d",
		"KeySym Return",
		"KeyStrPress a",
		"KeyStrRelease a",
		"KeyStr space",
		"String hello  world",
	}
	for _, line := range lines {
		ins, err := macro.ParseLine(line)
		if err != nil {
			t.Fatalf("%s: %s", line, err)
		}
		again, err := macro.ParseLine(ins.String())
		if err != nil {
			t.Fatalf("%s: reparse: %s", line, err)
		}
		if again != ins {
			t.Fatalf("%s: got %#v after round trip, want %#v", line, again, ins)
		}
	}
}

func TestParseValues(t *testing.T) {
	tests := []struct {
		line string
		want macro.Instruction
	}{
		{"Delay 250", macro.Delay{Millis: 250}},
		{"  MotionNotify   10\t-5 ", macro.MotionNotify{X: 10, Y: -5}},
		{"KeyCodeRelease 40", macro.KeyCodeRelease{Code: 40}},
		{"KeySym d", macro.KeySym{Sym: "d"}},
		{"String  two words", macro.String{Text: "two words"}},
	}
	for _, tt := range tests {
		got, err := macro.ParseLine(tt.line)
		if err != nil {
			t.Fatalf("%q: %s", tt.line, err)
		}
		if got != tt.want {
			t.Fatalf("%q: got %#v, want %#v", tt.line, got, tt.want)
		}
	}
}

func TestMalformed(t *testing.T) {
	lines := []string{
		"",
		"ButtonPress",
		"ButtonPress 1 2",
		"ButtonPress x",
		"ButtonPress 256",
		"ButtonPress -1",
		"Delay 4294967296",
		"MotionNotify 1",
		"MotionNotify 40000 1",
		"KeyCodePress 300",
		"KeySym",
		"KeySym a b",
		"String",
		"String   ",
		"Screenshot",
		"delay 5",
	}
	for _, line := range lines {
		_, err := macro.ParseLine(line)
		var malformed *macro.MalformedError
		if !errors.As(err, &malformed) {
			t.Fatalf("%q: got %v, want MalformedError", line, err)
		}
		if malformed.Line != line {
			t.Fatalf("%q: error carries line %q", line, malformed.Line)
		}
	}
}

func TestParseScript(t *testing.T) {
	script := "KeySymPress Super_L\n\nKeySymPress d\n   \nKeyCodeRelease 40\nKeySymRelease Super_L\n"
	got, err := macro.Parse(strings.NewReader(script))
	if err != nil {
		t.Fatal(err)
	}
	want := []macro.Instruction{
		macro.KeySymPress{Sym: "Super_L"},
		macro.KeySymPress{Sym: "d"},
		macro.KeyCodeRelease{Code: 40},
		macro.KeySymRelease{Sym: "Super_L"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d instructions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("instruction %d: got %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestParseStopsAtMalformed(t *testing.T) {
	script := "Delay 1\n\nButtonPress\nDelay 2\n"
	_, err := macro.Parse(strings.NewReader(script))
	var malformed *macro.MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want MalformedError", err)
	}
	if malformed.Number != 3 {
		t.Fatalf("got line %d, want 3", malformed.Number)
	}
}

func TestParseAll(t *testing.T) {
	script := "Delay 1\nBogus\nButtonPress 1\nKeySym\n"
	got, bad, err := macro.ParseAll(strings.NewReader(script))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || len(bad) != 2 {
		t.Fatalf("got %d instructions and %d errors, want 2 and 2", len(got), len(bad))
	}
	if bad[0].Number != 2 || bad[1].Number != 4 {
		t.Fatalf("got lines %d and %d, want 2 and 4", bad[0].Number, bad[1].Number)
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := macro.NewWriter(&buf)
	w.Write(macro.KeySymPress{Sym: "a"})
	w.Write(macro.Delay{Millis: 30})
	w.Write(macro.KeySymRelease{Sym: "a"})
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "KeySymPress a\nDelay 30\nKeySymRelease a\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if w.Count() != 3 {
		t.Fatalf("got count %d, want 3", w.Count())
	}
}
