// Package playback runs macro scripts against an X display.
package playback

import (
	"context"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/tesselslate/xmacro/internal/keysym"
	"github.com/tesselslate/xmacro/internal/log"
	"github.com/tesselslate/xmacro/internal/macro"
)

// Display is the part of an X session used for playback.
type Display interface {
	SynthesizeKey(code xproto.Keycode, pressed bool, delay uint32) error
	SynthesizeButton(button byte, pressed bool, delay uint32) error
	SynthesizeMotion(x, y int16, delay uint32) error
	SymbolToCode(name string) xproto.Keycode
}

// Policy decides what happens to malformed script lines.
type Policy int

const (
	// Abort refuses to run a script with any malformed line.
	Abort Policy = iota
	// Skip logs and skips malformed lines.
	Skip
)

// UnsupportedError is reported for instructions which are accepted by the
// parser but cannot be played back.
type UnsupportedError struct {
	Instruction macro.Instruction
	Reason      string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%q is not supported: %s", e.Instruction.String(), e.Reason)
}

// UnmappedSymbolError is reported for key names which have no keycode in the
// current keyboard mapping.
type UnmappedSymbolError struct {
	Symbol string
}

func (e *UnmappedSymbolError) Error() string {
	return fmt.Sprintf("symbol %q is not mapped to a key", e.Symbol)
}

// Engine plays instructions on a display.
type Engine struct {
	Display    Display
	Log        *log.Logger
	EventDelay uint32 // XTEST event delay applied to every event
	OnInvalid  Policy
}

// RunScript parses a script and runs it. With the Abort policy, the whole
// script is parsed before any event is sent.
func (e *Engine) RunScript(ctx context.Context, r io.Reader) error {
	if e.OnInvalid == Skip {
		instructions, malformed, err := macro.ParseAll(r)
		if err != nil {
			return err
		}
		for _, m := range malformed {
			e.logger().Warn("Skipping %s", m)
		}
		return e.Run(ctx, instructions)
	}
	instructions, err := macro.Parse(r)
	if err != nil {
		return err
	}
	return e.Run(ctx, instructions)
}

// Run executes the instructions in order. Unsupported instructions and
// unmapped symbols are logged and skipped; any other failure stops the run.
func (e *Engine) Run(ctx context.Context, instructions []macro.Instruction) error {
	logger := e.logger()
	for _, ins := range instructions {
		logger.Verbose("Instruction: %s", ins)
		err := e.step(ctx, ins)
		var unsupported *UnsupportedError
		var unmapped *UnmappedSymbolError
		switch {
		case err == nil:
		case errors.As(err, &unsupported):
			logger.Warn("%s", unsupported)
		case errors.As(err, &unmapped):
			logger.Warn("Skipping %q: %s", ins.String(), unmapped)
		default:
			return errors.Wrapf(err, "run %q", ins.String())
		}
	}
	return nil
}

func (e *Engine) step(ctx context.Context, ins macro.Instruction) error {
	d := e.Display
	switch ins := ins.(type) {
	case macro.Delay:
		return sleep(ctx, time.Duration(ins.Millis)*time.Millisecond)
	case macro.ButtonPress:
		return d.SynthesizeButton(ins.Button, true, e.EventDelay)
	case macro.ButtonRelease:
		return d.SynthesizeButton(ins.Button, false, e.EventDelay)
	case macro.MotionNotify:
		return d.SynthesizeMotion(ins.X, ins.Y, e.EventDelay)
	case macro.KeyCodePress:
		return d.SynthesizeKey(ins.Code, true, e.EventDelay)
	case macro.KeyCodeRelease:
		return d.SynthesizeKey(ins.Code, false, e.EventDelay)
	case macro.KeySymPress:
		return e.key(ins.Sym, true)
	case macro.KeySymRelease:
		return e.key(ins.Sym, false)
	case macro.KeySym:
		return e.tap(ins.Sym)
	case macro.KeyStrPress:
		return e.keyStr(ins, ins.Str, func(name string) error { return e.key(name, true) })
	case macro.KeyStrRelease:
		return e.keyStr(ins, ins.Str, func(name string) error { return e.key(name, false) })
	case macro.KeyStr:
		return e.keyStr(ins, ins.Str, e.tap)
	case macro.String:
		return &UnsupportedError{ins, "typing text is not implemented"}
	default:
		return errors.Errorf("unknown instruction %T", ins)
	}
}

// key presses or releases the key for a keysym name.
func (e *Engine) key(name string, pressed bool) error {
	code, err := e.resolve(name)
	if err != nil {
		return err
	}
	return e.Display.SynthesizeKey(code, pressed, e.EventDelay)
}

// tap presses and releases the key for a keysym name.
func (e *Engine) tap(name string) error {
	code, err := e.resolve(name)
	if err != nil {
		return err
	}
	if err := e.Display.SynthesizeKey(code, true, e.EventDelay); err != nil {
		return err
	}
	return e.Display.SynthesizeKey(code, false, e.EventDelay)
}

// keyStr runs fn with the key name for a KeyStr payload. The payload must be
// a keysym name or a single character.
func (e *Engine) keyStr(ins macro.Instruction, str string, fn func(string) error) error {
	if _, ok := keysym.Lookup(str); ok {
		return fn(str)
	}
	if utf8.RuneCountInString(str) == 1 {
		r, _ := utf8.DecodeRuneInString(str)
		return fn(fmt.Sprintf("U%04X", r))
	}
	return &UnsupportedError{ins, "only single keys can be sent"}
}

func (e *Engine) resolve(name string) (xproto.Keycode, error) {
	code := e.Display.SymbolToCode(name)
	if code == 0 {
		return 0, &UnmappedSymbolError{name}
	}
	return code, nil
}

func (e *Engine) logger() *log.Logger {
	if e.Log == nil {
		return log.Discard()
	}
	return e.Log
}

// sleep waits for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
