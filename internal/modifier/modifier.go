// Package modifier tracks which modifier keys are held down, given a stream
// of raw key events.
package modifier

import (
	"github.com/jezek/xgb/xproto"
	"golang.org/x/exp/slices"
)

// Modifier is a logical modifier key.
type Modifier int

const (
	Control Modifier = iota
	Alt
	Shift
	Meta
)

// Codes holds the left and right keycodes of each modifier. A zero keycode
// means that side is not mapped.
type Codes [4][2]xproto.Keycode

// Resolver translates keysym names to keycodes.
type Resolver interface {
	SymbolToCode(name string) xproto.Keycode
}

var symbols = [4][2]string{
	Control: {"Control_L", "Control_R"},
	Alt:     {"Alt_L", "Alt_R"},
	Shift:   {"Shift_L", "Shift_R"},
	Meta:    {"Super_L", "Super_R"},
}

// CodesFor resolves the modifier keycodes for the current keyboard mapping.
func CodesFor(r Resolver) Codes {
	var codes Codes
	for mod, pair := range symbols {
		for side, name := range pair {
			codes[mod][side] = r.SymbolToCode(name)
		}
	}
	return codes
}

// Tracker records which physical modifier keys are down.
type Tracker struct {
	codes Codes
	held  []xproto.Keycode
}

// NewTracker creates a tracker with no keys held.
func NewTracker(codes Codes) *Tracker {
	return &Tracker{codes: codes}
}

// Update processes a key event. Keys which are not modifiers are ignored.
func (t *Tracker) Update(code xproto.Keycode, pressed bool) {
	if !t.isModifier(code) {
		return
	}
	idx := slices.Index(t.held, code)
	switch {
	case pressed && idx < 0:
		t.held = append(t.held, code)
	case !pressed && idx >= 0:
		t.held = slices.Delete(t.held, idx, idx+1)
	}
}

// Pressed reports whether either key of the given modifier is held.
func (t *Tracker) Pressed(m Modifier) bool {
	for _, code := range t.codes[m] {
		if code != 0 && slices.Contains(t.held, code) {
			return true
		}
	}
	return false
}

// AnyPressed reports whether any modifier key is held.
func (t *Tracker) AnyPressed() bool {
	return len(t.held) > 0
}

// Held returns the held modifier keys in the order they were pressed.
func (t *Tracker) Held() []xproto.Keycode {
	return slices.Clone(t.held)
}

func (t *Tracker) isModifier(code xproto.Keycode) bool {
	if code == 0 {
		return false
	}
	for _, pair := range t.codes {
		if pair[0] == code || pair[1] == code {
			return true
		}
	}
	return false
}
