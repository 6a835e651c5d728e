// Package macro implements the textual macro format: one instruction per
// line, a keyword followed by whitespace-separated arguments.
package macro

import (
	"fmt"

	"github.com/jezek/xgb/xproto"
)

// Instruction is a single macro instruction. Instructions are immutable,
// comparable values. String returns the instruction as a script line.
type Instruction interface {
	fmt.Stringer
	instruction()
}

// Delay pauses playback.
type Delay struct{ Millis uint32 }

// ButtonPress presses a pointer button.
type ButtonPress struct{ Button byte }

// ButtonRelease releases a pointer button.
type ButtonRelease struct{ Button byte }

// MotionNotify moves the pointer to an absolute position.
type MotionNotify struct{ X, Y int16 }

// KeyCodePress presses the key with the given server keycode.
type KeyCodePress struct{ Code xproto.Keycode }

// KeyCodeRelease releases the key with the given server keycode.
type KeyCodeRelease struct{ Code xproto.Keycode }

// KeySymPress presses the key producing the named keysym.
type KeySymPress struct{ Sym string }

// KeySymRelease releases the key producing the named keysym.
type KeySymRelease struct{ Sym string }

// KeySym presses and releases the key producing the named keysym.
type KeySym struct{ Sym string }

// KeyStrPress presses the key named by Str. Str must be a single key name.
type KeyStrPress struct{ Str string }

// KeyStrRelease releases the key named by Str.
type KeyStrRelease struct{ Str string }

// KeyStr presses and releases the key named by Str.
type KeyStr struct{ Str string }

// String types a string of text. Playback does not support it.
type String struct{ Text string }

func (Delay) instruction()          {}
func (ButtonPress) instruction()    {}
func (ButtonRelease) instruction()  {}
func (MotionNotify) instruction()   {}
func (KeyCodePress) instruction()   {}
func (KeyCodeRelease) instruction() {}
func (KeySymPress) instruction()    {}
func (KeySymRelease) instruction()  {}
func (KeySym) instruction()         {}
func (KeyStrPress) instruction()    {}
func (KeyStrRelease) instruction()  {}
func (KeyStr) instruction()         {}
func (String) instruction()         {}

func (i Delay) String() string          { return fmt.Sprintf("Delay %d", i.Millis) }
func (i ButtonPress) String() string    { return fmt.Sprintf("ButtonPress %d", i.Button) }
func (i ButtonRelease) String() string  { return fmt.Sprintf("ButtonRelease %d", i.Button) }
func (i MotionNotify) String() string   { return fmt.Sprintf("MotionNotify %d %d", i.X, i.Y) }
func (i KeyCodePress) String() string   { return fmt.Sprintf("KeyCodePress %d", i.Code) }
func (i KeyCodeRelease) String() string { return fmt.Sprintf("KeyCodeRelease %d", i.Code) }
func (i KeySymPress) String() string    { return "KeySymPress " + i.Sym }
func (i KeySymRelease) String() string  { return "KeySymRelease " + i.Sym }
func (i KeySym) String() string         { return "KeySym " + i.Sym }
func (i KeyStrPress) String() string    { return "KeyStrPress " + i.Str }
func (i KeyStrRelease) String() string  { return "KeyStrRelease " + i.Str }
func (i KeyStr) String() string         { return "KeyStr " + i.Str }
func (i String) String() string         { return "String " + i.Text }
