package playback_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jezek/xgb/xproto"

	"github.com/tesselslate/xmacro/internal/macro"
	"github.com/tesselslate/xmacro/internal/playback"
)

type event struct {
	kind    string
	detail  int
	pressed bool
	delay   uint32
}

type fakeDisplay struct {
	codes  map[string]xproto.Keycode
	events []event
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{codes: map[string]xproto.Keycode{
		"Super_L": 133,
		"d":       40,
		"a":       38,
		"U0021":   10,
	}}
}

func (f *fakeDisplay) SynthesizeKey(code xproto.Keycode, pressed bool, delay uint32) error {
	f.events = append(f.events, event{"key", int(code), pressed, delay})
	return nil
}

func (f *fakeDisplay) SynthesizeButton(button byte, pressed bool, delay uint32) error {
	f.events = append(f.events, event{"button", int(button), pressed, delay})
	return nil
}

func (f *fakeDisplay) SynthesizeMotion(x, y int16, delay uint32) error {
	f.events = append(f.events, event{"motion", int(x)*10000 + int(y), false, delay})
	return nil
}

func (f *fakeDisplay) SymbolToCode(name string) xproto.Keycode {
	return f.codes[name]
}

func expectEvents(t *testing.T, got []event, want ...event) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d events %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func runScript(t *testing.T, engine *playback.Engine, script string) error {
	t.Helper()
	return engine.RunScript(context.Background(), strings.NewReader(script))
}

func TestKeySymTap(t *testing.T) {
	display := newFakeDisplay()
	engine := playback.Engine{Display: display}
	if err := runScript(t, &engine, "KeySym d\n"); err != nil {
		t.Fatal(err)
	}
	expectEvents(t, display.events,
		event{"key", 40, true, 0},
		event{"key", 40, false, 0},
	)
}

func TestWrongArityAborts(t *testing.T) {
	for _, script := range []string{"ButtonPress\n", "KeySym a\nButtonPress\nKeySym d\n"} {
		display := newFakeDisplay()
		engine := playback.Engine{Display: display}
		err := runScript(t, &engine, script)
		var malformed *macro.MalformedError
		if !errors.As(err, &malformed) {
			t.Fatalf("got %v, want MalformedError", err)
		}
		if len(display.events) != 0 {
			t.Fatalf("got %d events, want 0", len(display.events))
		}
	}
}

func TestSkipPolicy(t *testing.T) {
	display := newFakeDisplay()
	engine := playback.Engine{Display: display, OnInvalid: playback.Skip}
	if err := runScript(t, &engine, "KeySym a\nButtonPress\nBogus 1\nButtonPress 1\n"); err != nil {
		t.Fatal(err)
	}
	expectEvents(t, display.events,
		event{"key", 38, true, 0},
		event{"key", 38, false, 0},
		event{"button", 1, true, 0},
	)
}

func TestDelay(t *testing.T) {
	display := newFakeDisplay()
	engine := playback.Engine{Display: display}
	start := time.Now()
	if err := runScript(t, &engine, "Delay 250\n"); err != nil {
		t.Fatal(err)
	}
	elapsed := time.Since(start)
	if elapsed < 250*time.Millisecond || elapsed > 400*time.Millisecond {
		t.Fatalf("got %s, want 250ms", elapsed)
	}
	if len(display.events) != 0 {
		t.Fatalf("got %d events, want 0", len(display.events))
	}
}

func TestDelayCancelled(t *testing.T) {
	engine := playback.Engine{Display: newFakeDisplay()}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := engine.Run(ctx, []macro.Instruction{macro.Delay{Millis: 10000}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want deadline exceeded", err)
	}
}

func TestInstructionOrder(t *testing.T) {
	display := newFakeDisplay()
	engine := playback.Engine{Display: display}
	script := "KeySymPress Super_L\nKeySymPress d\nKeyCodeRelease 40\nKeySymRelease Super_L\n"
	if err := runScript(t, &engine, script); err != nil {
		t.Fatal(err)
	}
	expectEvents(t, display.events,
		event{"key", 133, true, 0},
		event{"key", 40, true, 0},
		event{"key", 40, false, 0},
		event{"key", 133, false, 0},
	)
}

func TestPointerEvents(t *testing.T) {
	display := newFakeDisplay()
	engine := playback.Engine{Display: display, EventDelay: 7}
	if err := runScript(t, &engine, "MotionNotify 12 34\nButtonPress 3\nButtonRelease 3\n"); err != nil {
		t.Fatal(err)
	}
	expectEvents(t, display.events,
		event{"motion", 120034, false, 7},
		event{"button", 3, true, 7},
		event{"button", 3, false, 7},
	)
}

func TestUnmappedSymbolSkipped(t *testing.T) {
	display := newFakeDisplay()
	engine := playback.Engine{Display: display}
	if err := runScript(t, &engine, "KeySym F13\nKeySymPress Hyper_L\nKeySym a\n"); err != nil {
		t.Fatal(err)
	}
	expectEvents(t, display.events,
		event{"key", 38, true, 0},
		event{"key", 38, false, 0},
	)
}

func TestUnsupported(t *testing.T) {
	display := newFakeDisplay()
	engine := playback.Engine{Display: display}
	if err := runScript(t, &engine, "String hello\nKeyStr hello\nKeyStrPress !\nKeyStrRelease !\nKeyStr a\n"); err != nil {
		t.Fatal(err)
	}
	expectEvents(t, display.events,
		event{"key", 10, true, 0},
		event{"key", 10, false, 0},
		event{"key", 38, true, 0},
		event{"key", 38, false, 0},
	)
}
