package record

import (
	"github.com/jezek/xgb/xproto"

	"github.com/tesselslate/xmacro/internal/log"
	"github.com/tesselslate/xmacro/internal/macro"
	"github.com/tesselslate/xmacro/internal/modifier"
	"github.com/tesselslate/xmacro/internal/x11"
)

// recorder turns intercepted elements into instructions. Its handle method
// is the interception callback; it only runs from ServicePendingEvents.
type recorder struct {
	display Display
	log     *log.Logger
	out     *macro.Writer
	mods    *modifier.Tracker
	opts    Options
	stopKey xproto.Keycode

	stop  bool // Stop key pressed, or recording failed
	ended bool // EndOfData received
	err   error

	lastTime  xproto.Timestamp
	haveTime  bool
	ignored   int
	discarded int
}

func newRecorder(display Display, logger *log.Logger, out *macro.Writer, opts Options, stopKey xproto.Keycode) *recorder {
	return &recorder{
		display: display,
		log:     logger,
		out:     out,
		mods:    modifier.NewTracker(modifier.CodesFor(display)),
		opts:    opts,
		stopKey: stopKey,
	}
}

func (r *recorder) handle(in *x11.Intercept) {
	switch in.Category {
	case x11.FromServer:
	case x11.StartOfData:
		r.log.Debug("Start of intercepted data")
		return
	case x11.EndOfData:
		r.log.Debug("End of intercepted data")
		r.ended = true
		return
	default:
		r.log.Debug("Ignoring %s element", in.Category)
		r.dump(in)
		r.ignored++
		return
	}
	if r.stop {
		r.discarded++
		return
	}

	switch in.Kind {
	case x11.KeyPress, x11.KeyRelease:
		code := xproto.Keycode(in.Detail)
		pressed := in.Kind == x11.KeyPress
		if code == r.stopKey {
			if pressed {
				r.log.Debug("Stop key pressed")
				r.stop = true
			}
			return
		}
		r.mods.Update(code, pressed)
		r.emit(in.Time, r.key(code, pressed))
	case x11.ButtonPress:
		r.emit(in.Time, macro.ButtonPress{Button: in.Detail})
	case x11.ButtonRelease:
		r.emit(in.Time, macro.ButtonRelease{Button: in.Detail})
	case x11.MotionNotify:
		if r.opts.Motion {
			r.emit(in.Time, macro.MotionNotify{X: in.RootX, Y: in.RootY})
		}
	default:
		r.log.Debug("Ignoring %s event", in.Kind)
		r.dump(in)
		r.ignored++
	}
}

// key returns the instruction for a key event. Keycodes without a symbol are
// written as keycodes regardless of granularity.
func (r *recorder) key(code xproto.Keycode, pressed bool) macro.Instruction {
	if r.opts.Keys == Symbols {
		if name := r.display.CodeToSymbol(code); name != "" {
			if pressed {
				return macro.KeySymPress{Sym: name}
			}
			return macro.KeySymRelease{Sym: name}
		}
	}
	if pressed {
		return macro.KeyCodePress{Code: code}
	}
	return macro.KeyCodeRelease{Code: code}
}

func (r *recorder) emit(t xproto.Timestamp, ins macro.Instruction) {
	if r.opts.Delays && r.haveTime && t > r.lastTime {
		r.write(macro.Delay{Millis: uint32(t - r.lastTime)})
	}
	r.lastTime, r.haveTime = t, true
	r.write(ins)
}

func (r *recorder) write(ins macro.Instruction) {
	if r.err != nil {
		return
	}
	if err := r.out.Write(ins); err != nil {
		r.err = err
		r.stop = true
		return
	}
	r.log.Verbose("Recorded: %s", ins)
}

// releaseModifiers writes a release for every modifier key which is still
// held, so that playing the macro leaves no modifier stuck down.
func (r *recorder) releaseModifiers() {
	for _, code := range r.mods.Held() {
		r.write(r.key(code, false))
	}
}

func (r *recorder) stats() Stats {
	return Stats{
		Written:   r.out.Count(),
		Ignored:   r.ignored,
		Discarded: r.discarded,
	}
}

// dump logs the raw bytes of an element which was not recorded.
func (r *recorder) dump(in *x11.Intercept) {
	if r.log.Level() < log.VERBOSE || len(in.Raw()) == 0 {
		return
	}
	r.log.Verbose("Element bytes: % x", in.Raw())
}
