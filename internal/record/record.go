// Package record captures input events from an X display and writes them as
// a macro script.
package record

import (
	"context"
	"io"
	"time"

	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/tesselslate/xmacro/internal/log"
	"github.com/tesselslate/xmacro/internal/macro"
	"github.com/tesselslate/xmacro/internal/x11"
)

// Display is the part of an X session used for recording.
type Display interface {
	GrabKeyboard() error
	UngrabKeyboard() error
	NextKeyPress() (xproto.Keycode, error)
	CreateInterceptionContext() (x11.Context, error)
	EnableInterceptionAsync(ctx x11.Context, fn x11.InterceptFunc) error
	ServicePendingEvents() (int, error)
	DisableInterception(ctx x11.Context) error
	FreeInterceptionContext(ctx x11.Context) error
	CodeToSymbol(code xproto.Keycode) string
	SymbolToCode(name string) xproto.Keycode
	Close() error
}

// State is the stage of a recording.
type State int

const (
	Idle State = iota
	CapturingStopKey
	Recording
	Draining
	Closed
)

var stateNames = []string{"Idle", "CapturingStopKey", "Recording", "Draining", "Closed"}

func (s State) String() string {
	if s < Idle || s > Closed {
		return "Unknown"
	}
	return stateNames[s]
}

// Granularity selects how recorded keys are written.
type Granularity int

const (
	// Symbols writes KeySymPress/KeySymRelease with keysym names.
	Symbols Granularity = iota
	// Codes writes KeyCodePress/KeyCodeRelease with server keycodes.
	Codes
)

// Default timings.
const (
	DefaultPollInterval = 5 * time.Millisecond
	DefaultDrainTimeout = 500 * time.Millisecond
)

var (
	ErrNoStopKey = errors.New("no stop key selected")
	ErrState     = errors.New("recording already started")
)

// Options controls what is recorded.
type Options struct {
	Keys         Granularity
	Motion       bool          // Record pointer motion
	Delays       bool          // Insert Delay instructions between events
	PollInterval time.Duration // Pause between polls when idle
	DrainTimeout time.Duration // Maximum time to wait for the end of data
}

// Stats summarizes a finished recording.
type Stats struct {
	Written   int // Instructions written
	Ignored   int // Elements which could not be recorded
	Discarded int // Events received after the stop key
}

// Engine records a single macro. The engine owns the display: it is closed
// when recording finishes or fails.
type Engine struct {
	display Display
	log     *log.Logger
	opts    Options
	state   State
	stopKey xproto.Keycode
	hasStop bool
}

// New creates an engine in the Idle state.
func New(display Display, logger *log.Logger, opts Options) *Engine {
	if logger == nil {
		logger = log.Discard()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = DefaultDrainTimeout
	}
	return &Engine{display: display, log: logger, opts: opts}
}

// State returns the current state of the engine.
func (e *Engine) State() State {
	return e.state
}

// StopKey returns the selected stop key.
func (e *Engine) StopKey() (xproto.Keycode, bool) {
	return e.stopKey, e.hasStop
}

// SetStopKey selects the stop key without capturing it from the keyboard.
func (e *Engine) SetStopKey(code xproto.Keycode) error {
	if e.state != Idle {
		return ErrState
	}
	e.stopKey, e.hasStop = code, true
	return nil
}

// SelectStopKey grabs the keyboard and waits for a key press, which becomes
// the stop key. The keyboard is always ungrabbed afterwards. On failure or
// cancellation the display is closed.
func (e *Engine) SelectStopKey(ctx context.Context) (xproto.Keycode, error) {
	if e.state != Idle {
		return 0, ErrState
	}
	if err := ctx.Err(); err != nil {
		e.close()
		return 0, err
	}
	e.state = CapturingStopKey
	if err := e.display.GrabKeyboard(); err != nil {
		e.close()
		return 0, err
	}

	type keyPress struct {
		code xproto.Keycode
		err  error
	}
	pressed := make(chan keyPress, 1)
	go func() {
		code, err := e.display.NextKeyPress()
		pressed <- keyPress{code, err}
	}()

	var press keyPress
	select {
	case press = <-pressed:
	case <-ctx.Done():
		// Closing the display unblocks NextKeyPress.
		e.display.UngrabKeyboard()
		e.close()
		<-pressed
		return 0, ctx.Err()
	}
	err := press.err
	if uerr := e.display.UngrabKeyboard(); err == nil && uerr != nil {
		err = errors.Wrap(uerr, "ungrab keyboard")
	}
	if err != nil {
		e.close()
		return 0, err
	}
	e.stopKey, e.hasStop = press.code, true
	e.log.Info("Stop key: %s (keycode %d)", e.display.CodeToSymbol(press.code), press.code)
	return press.code, nil
}

// Run selects a stop key and records until it is pressed or ctx is done.
func (e *Engine) Run(ctx context.Context, w io.Writer) (Stats, error) {
	if _, err := e.SelectStopKey(ctx); err != nil {
		return Stats{}, err
	}
	return e.Record(ctx, w)
}

// Record intercepts input events and writes them to w until the stop key is
// pressed or ctx is done. Cancellation ends the recording the same way the
// stop key does, but Record then returns the context's error. The
// interception context and display are torn down on every exit path.
func (e *Engine) Record(ctx context.Context, w io.Writer) (Stats, error) {
	if e.state != Idle && e.state != CapturingStopKey {
		return Stats{}, ErrState
	}
	if !e.hasStop {
		e.close()
		return Stats{}, ErrNoStopKey
	}
	rc, err := e.display.CreateInterceptionContext()
	if err != nil {
		e.close()
		return Stats{}, err
	}

	r := newRecorder(e.display, e.log, macro.NewWriter(w), e.opts, e.stopKey)
	if err := e.display.EnableInterceptionAsync(rc, r.handle); err != nil {
		return r.stats(), e.finish(r, rc, err)
	}
	e.state = Recording
	e.log.Info("Recording started")

	var loopErr error
	for !r.stop {
		if err := ctx.Err(); err != nil {
			e.log.Info("Recording interrupted")
			loopErr = err
			break
		}
		n, err := e.display.ServicePendingEvents()
		if err != nil {
			loopErr = errors.Wrap(err, "service events")
			break
		}
		if n == 0 && !r.stop {
			select {
			case <-ctx.Done():
			case <-time.After(e.opts.PollInterval):
			}
		}
	}
	if loopErr == nil {
		loopErr = r.err
	}
	err = e.finish(r, rc, loopErr)
	return r.stats(), err
}

// finish drains and frees the interception context, releases held modifier
// keys in the output, and closes the display.
func (e *Engine) finish(r *recorder, rc x11.Context, cause error) error {
	e.state = Draining
	r.stop = true
	errs := []error{cause}

	if err := e.display.DisableInterception(rc); err != nil {
		errs = append(errs, errors.Wrap(err, "disable interception"))
	} else {
		errs = append(errs, e.drain(r))
	}

	r.releaseModifiers()
	errs = append(errs, r.out.Flush())
	if err := e.display.FreeInterceptionContext(rc); err != nil {
		errs = append(errs, errors.Wrap(err, "free interception context"))
	}
	errs = append(errs, e.close())

	stats := r.stats()
	e.log.Info("Recording finished: %d written, %d ignored, %d discarded",
		stats.Written, stats.Ignored, stats.Discarded)
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// drain services pending events until the end of data arrives or the drain
// timeout passes.
func (e *Engine) drain(r *recorder) error {
	deadline := time.Now().Add(e.opts.DrainTimeout)
	for !r.ended {
		n, err := e.display.ServicePendingEvents()
		if err != nil {
			return errors.Wrap(err, "drain events")
		}
		if n > 0 {
			continue
		}
		if !time.Now().Before(deadline) {
			e.log.Debug("No end of data after %s", e.opts.DrainTimeout)
			return nil
		}
		time.Sleep(e.opts.PollInterval)
	}
	return nil
}

func (e *Engine) close() error {
	if e.state == Closed {
		return nil
	}
	e.state = Closed
	return errors.Wrap(e.display.Close(), "close display")
}
