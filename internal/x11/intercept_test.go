package x11

import (
	"bytes"
	"testing"

	"github.com/jezek/xgb/xproto"
)

func TestDecodeDeviceEvents(t *testing.T) {
	var data bytes.Buffer
	data.Write(keyEvent(xproto.KeyPress, 40, 10, 20))
	data.Write(keyEvent(xproto.ButtonRelease, 3, -5, 7))
	data.Write(keyEvent(xproto.MotionNotify, 0, 300, 400))

	intercepts, err := decodeFrame(reply(2, byte(FromServer), data.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if len(intercepts) != 3 {
		t.Fatalf("got %d intercepts, want 3", len(intercepts))
	}
	tests := []struct {
		kind   EventKind
		detail byte
		x, y   int16
	}{
		{KeyPress, 40, 10, 20},
		{ButtonRelease, 3, -5, 7},
		{MotionNotify, 0, 300, 400},
	}
	for i, tt := range tests {
		in := intercepts[i]
		if !in.IsEvent() {
			t.Fatalf("intercept %d is not an event", i)
		}
		if in.Kind != tt.kind || in.Detail != tt.detail {
			t.Fatalf("got %s %d, want %s %d", in.Kind, in.Detail, tt.kind, tt.detail)
		}
		if in.RootX != tt.x || in.RootY != tt.y {
			t.Fatalf("got (%d, %d), want (%d, %d)", in.RootX, in.RootY, tt.x, tt.y)
		}
		if in.Time != 1234 {
			t.Fatalf("got time %d, want 1234", in.Time)
		}
		if raw := in.Raw(); len(raw) != 32 || raw[0] != byte(tt.kind) {
			t.Fatalf("got raw bytes % x", raw)
		}
	}
}

func TestDecodeMarkers(t *testing.T) {
	for _, cat := range []Category{StartOfData, EndOfData} {
		intercepts, err := decodeFrame(reply(2, byte(cat), nil))
		if err != nil {
			t.Fatal(err)
		}
		if len(intercepts) != 1 {
			t.Fatalf("got %d intercepts, want 1", len(intercepts))
		}
		if intercepts[0].Category != cat || intercepts[0].IsEvent() {
			t.Fatalf("got %s (event %t), want bare %s", intercepts[0].Category, intercepts[0].IsEvent(), cat)
		}
	}
}

func TestDecodeError(t *testing.T) {
	frame := make([]byte, 32)
	frame[1] = xproto.BadWindow
	if _, err := decodeFrame(frame); err == nil {
		t.Fatal("expected error")
	}
}

func TestReleaseTwicePanics(t *testing.T) {
	in := &Intercept{Category: StartOfData}
	in.release()
	defer func() {
		if recover() == nil {
			t.Fatal("second release did not panic")
		}
	}()
	in.release()
}
