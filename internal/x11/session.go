// Package x11 provides a session with the X server for synthesizing input
// events through XTEST and intercepting input events through RECORD.
package x11

import (
	"io"
	stdlog "log"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/record"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"
	"github.com/pkg/errors"

	"github.com/tesselslate/xmacro/internal/keysym"
)

// Context identifies an interception context on the X server.
type Context uint32

// capability is the cached result of an extension query.
type capability struct {
	checked bool
	present bool
}

// Session maintains a connection with the X server. A session is not safe for
// concurrent use.
type Session struct {
	conn *xgb.Conn     // The control connection
	root xproto.Window // Root window of the default screen
	name string        // Display name
	disp display
	keys keymap

	xtest  capability
	record capability

	// Interception state. At most one context is live at a time.
	ctx      Context
	ctxLive  bool
	enabled  bool
	data     *xgb.Conn
	tap      *recordTap
	callback InterceptFunc

	closed bool
}

// SetProtocolLog redirects diagnostics printed by the X protocol library.
func SetProtocolLog(w io.Writer) {
	xgb.Logger = stdlog.New(w, "xgb: ", 0)
}

// Open connects to the given display, or to $DISPLAY if name is empty.
func Open(name string) (*Session, error) {
	name, err := resolveDisplay(name)
	if err != nil {
		return nil, err
	}
	disp, err := parseDisplay(name)
	if err != nil {
		return nil, &ConnectionError{name, err}
	}
	conn, err := xgb.NewConnDisplay(name)
	if err != nil {
		return nil, &ConnectionError{name, err}
	}
	keys, err := loadKeymap(conn)
	if err != nil {
		conn.Close()
		return nil, &ConnectionError{name, errors.Wrap(err, "get keyboard mapping")}
	}
	return &Session{
		conn: conn,
		root: xproto.Setup(conn).DefaultScreen(conn).Root,
		name: name,
		disp: disp,
		keys: keys,
	}, nil
}

// DisplayName returns the name of the display the session is connected to.
func (s *Session) DisplayName() string {
	return s.name
}

// Root returns the root window of the default screen.
func (s *Session) Root() xproto.Window {
	return s.root
}

// HasXTest reports whether the server supports synthesizing input events.
// The first successful call also makes the session impervious to server
// grabs held by other clients.
func (s *Session) HasXTest() (bool, error) {
	if s.closed {
		return false, ErrClosed
	}
	if s.xtest.checked {
		return s.xtest.present, nil
	}
	present, err := s.queryExtension("XTEST", xtest.Init)
	if err != nil {
		return false, err
	}
	if present {
		if _, err := xtest.GetVersion(s.conn, xtestMajor, xtestMinor).Reply(); err != nil {
			return false, &ConnectionError{s.name, errors.Wrap(err, "get XTEST version")}
		}
		if err := xtest.GrabControlChecked(s.conn, true).Check(); err != nil {
			return false, &ConnectionError{s.name, errors.Wrap(err, "grab XTEST control")}
		}
	}
	s.xtest = capability{true, present}
	return present, nil
}

// RequireXTest returns a CapabilityError if XTEST is unavailable.
func (s *Session) RequireXTest() error {
	present, err := s.HasXTest()
	if err != nil {
		return err
	}
	if !present {
		return &CapabilityError{Extension: "XTEST"}
	}
	return nil
}

// HasRecord reports whether the server supports intercepting input events.
func (s *Session) HasRecord() (bool, error) {
	if s.closed {
		return false, ErrClosed
	}
	if s.record.checked {
		return s.record.present, nil
	}
	present, err := s.queryExtension("RECORD", record.Init)
	if err != nil {
		return false, err
	}
	if present {
		if _, err := record.QueryVersion(s.conn, recordMajor, recordMinor).Reply(); err != nil {
			return false, &ConnectionError{s.name, errors.Wrap(err, "get RECORD version")}
		}
	}
	s.record = capability{true, present}
	return present, nil
}

// RequireRecord returns a CapabilityError if RECORD is unavailable.
func (s *Session) RequireRecord() error {
	present, err := s.HasRecord()
	if err != nil {
		return err
	}
	if !present {
		return &CapabilityError{Extension: "RECORD"}
	}
	return nil
}

// SynthesizeKey sends a fake key event. The delay is passed to the server as
// the XTEST event delay; it does not block the caller.
func (s *Session) SynthesizeKey(code xproto.Keycode, pressed bool, delay uint32) error {
	typ := byte(xproto.KeyRelease)
	if pressed {
		typ = xproto.KeyPress
	}
	return s.fakeInput(typ, byte(code), delay, 0, 0)
}

// SynthesizeButton sends a fake pointer button event.
func (s *Session) SynthesizeButton(button byte, pressed bool, delay uint32) error {
	typ := byte(xproto.ButtonRelease)
	if pressed {
		typ = xproto.ButtonPress
	}
	return s.fakeInput(typ, button, delay, 0, 0)
}

// SynthesizeMotion moves the pointer to the given absolute position on the
// root window.
func (s *Session) SynthesizeMotion(x, y int16, delay uint32) error {
	return s.fakeInput(xproto.MotionNotify, 0, delay, x, y)
}

// SymbolToCode returns the keycode which produces the named keysym, or
// NoKeycode if the name is unknown or the keysym is not mapped. After Close
// it returns NoKeycode and reports the misuse to the protocol log.
func (s *Session) SymbolToCode(name string) xproto.Keycode {
	if s.closed {
		s.usedAfterClose("SymbolToCode")
		return NoKeycode
	}
	sym, ok := keysym.Lookup(name)
	if !ok {
		return NoKeycode
	}
	return s.keys.code(sym)
}

// CodeToSymbol returns the name of the keysym produced by the given keycode,
// or an empty string if the keycode has no keysyms. After Close it returns an
// empty string and reports the misuse to the protocol log.
func (s *Session) CodeToSymbol(code xproto.Keycode) string {
	if s.closed {
		s.usedAfterClose("CodeToSymbol")
		return ""
	}
	sym := s.keys.sym(code)
	if sym == keysym.NoSymbol {
		return ""
	}
	return keysym.Name(sym)
}

// GrabKeyboard grabs the keyboard on the root window. Pointer events are
// frozen until NextKeyPress allows them.
func (s *Session) GrabKeyboard() error {
	if s.closed {
		return ErrClosed
	}
	reply, err := xproto.GrabKeyboard(
		s.conn,
		false,
		s.root,
		xproto.TimeCurrentTime,
		xproto.GrabModeSync,
		xproto.GrabModeAsync,
	).Reply()
	if err != nil {
		return &ConnectionError{s.name, errors.Wrap(err, "grab keyboard")}
	}
	if reply.Status != xproto.GrabStatusSuccess {
		return &GrabError{reply.Status}
	}
	return nil
}

// UngrabKeyboard releases the keyboard grab.
func (s *Session) UngrabKeyboard() error {
	if s.closed {
		return ErrClosed
	}
	return xproto.UngrabKeyboardChecked(s.conn, xproto.TimeCurrentTime).Check()
}

// NextKeyPress blocks until a key is pressed while the keyboard is grabbed and
// returns its keycode.
func (s *Session) NextKeyPress() (xproto.Keycode, error) {
	if s.closed {
		return NoKeycode, ErrClosed
	}
	for {
		err := xproto.AllowEventsChecked(
			s.conn,
			xproto.AllowSyncPointer,
			xproto.TimeCurrentTime,
		).Check()
		if err != nil {
			return NoKeycode, errors.Wrap(err, "allow events")
		}
		evt, xerr := s.conn.WaitForEvent()
		if evt == nil && xerr == nil {
			return NoKeycode, &ConnectionError{s.name, ErrConnectionDied}
		}
		if xerr != nil {
			return NoKeycode, xerr
		}
		if evt, ok := evt.(xproto.KeyPressEvent); ok {
			return evt.Detail, nil
		}
	}
}

// CreateInterceptionContext creates a context which intercepts key, button
// and motion events from every client.
func (s *Session) CreateInterceptionContext() (Context, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if s.ctxLive {
		return 0, ErrContextExists
	}
	if err := s.RequireRecord(); err != nil {
		return 0, err
	}
	id, err := record.NewContextId(s.conn)
	if err != nil {
		return 0, &ConnectionError{s.name, errors.Wrap(err, "allocate context id")}
	}
	ranges := []record.Range{{
		DeviceEvents: record.Range8{First: xproto.KeyPress, Last: xproto.MotionNotify},
	}}
	err = record.CreateContextChecked(
		s.conn,
		id,
		0,
		1,
		uint32(len(ranges)),
		[]record.ClientSpec{record.CsAllClients},
		ranges,
	).Check()
	if err != nil {
		return 0, errors.Wrap(err, "create context")
	}
	s.ctx = Context(id)
	s.ctxLive = true
	return s.ctx, nil
}

// EnableInterceptionAsync starts delivering intercepted events for the given
// context. It returns as soon as the request has been sent; fn is only ever
// invoked from ServicePendingEvents.
func (s *Session) EnableInterceptionAsync(ctx Context, fn InterceptFunc) error {
	if s.closed {
		return ErrClosed
	}
	if !s.ctxLive || ctx != s.ctx {
		return ErrNoContext
	}
	if s.enabled {
		return errors.New("interception already enabled")
	}
	cookie, err := loadCookie(s.disp)
	if err != nil {
		return err
	}
	raw, err := s.disp.dial()
	if err != nil {
		return &ConnectionError{s.name, errors.Wrap(err, "open data connection")}
	}
	tap := newRecordTap(raw, cookie)
	data, err := xgb.NewConnNet(tap)
	if err != nil {
		tap.Close()
		return &ConnectionError{s.name, errors.Wrap(err, "open data connection")}
	}
	if err := record.Init(data); err != nil {
		tap.Close()
		data.Close()
		return &CapabilityError{"RECORD", err}
	}
	data.ExtLock.RLock()
	opcode := data.Extensions["RECORD"]
	data.ExtLock.RUnlock()

	tap.arm(opcode)
	record.EnableContextUnchecked(data, record.Context(ctx))
	s.data, s.tap, s.callback = data, tap, fn
	s.enabled = true
	return nil
}

// ServicePendingEvents invokes the interception callback for every element
// received since the last call. It never blocks and returns the number of
// elements processed.
func (s *Session) ServicePendingEvents() (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if s.tap == nil {
		return 0, nil
	}
	frames, err := s.tap.drain()
	if err != nil {
		return 0, &ConnectionError{s.name, err}
	}
	var firstErr error
	n := 0
	for _, frame := range frames {
		intercepts, err := decodeFrame(frame)
		if err != nil {
			if firstErr == nil {
				firstErr = errors.Wrap(err, "intercept")
			}
			continue
		}
		for _, in := range intercepts {
			s.callback(in)
			in.release()
			n++
		}
	}
	return n, firstErr
}

// DisableInterception stops the delivery of intercepted events. The server
// finishes the stream with an EndOfData element. Calling it again, or for a
// context which was never enabled, does nothing.
func (s *Session) DisableInterception(ctx Context) error {
	if s.closed {
		return ErrClosed
	}
	if !s.enabled || ctx != s.ctx {
		return nil
	}
	s.enabled = false
	err := record.DisableContextChecked(s.conn, record.Context(ctx)).Check()
	return errors.Wrap(err, "disable context")
}

// FreeInterceptionContext destroys the context and closes the data
// connection. Calling it again does nothing.
func (s *Session) FreeInterceptionContext(ctx Context) error {
	if s.closed {
		return ErrClosed
	}
	if !s.ctxLive || ctx != s.ctx {
		return nil
	}
	disableErr := s.DisableInterception(ctx)
	s.ctxLive = false
	s.closeData()
	if err := record.FreeContextChecked(s.conn, record.Context(ctx)).Check(); err != nil {
		return errors.Wrap(err, "free context")
	}
	return disableErr
}

// Close tears down any live interception context and closes the connection.
// The session may not be used afterwards.
func (s *Session) Close() error {
	if s.closed {
		return ErrClosed
	}
	err := s.FreeInterceptionContext(s.ctx)
	s.closed = true
	s.conn.Close()
	return err
}

// usedAfterClose reports a call on a closed session from a method which has
// no error return.
func (s *Session) usedAfterClose(method string) {
	xgb.Logger.Printf("%s: %s", method, ErrClosed)
}

// closeData closes the data connection. The raw connection is closed first
// so that xgb does not wait on a server which may still be streaming.
func (s *Session) closeData() {
	if s.tap == nil {
		return
	}
	s.tap.Close()
	s.data.Close()
	s.tap, s.data, s.callback = nil, nil, nil
}

// fakeInput sends a single XTEST event and waits for the server to process
// it.
func (s *Session) fakeInput(typ, detail byte, delay uint32, x, y int16) error {
	if s.closed {
		return ErrClosed
	}
	if err := s.RequireXTest(); err != nil {
		return err
	}
	err := xtest.FakeInputChecked(s.conn, typ, detail, delay, s.root, x, y, 0).Check()
	if err != nil {
		return errors.Wrap(err, "fake input")
	}
	return nil
}

// queryExtension checks whether the server has the named extension and
// initializes it on the control connection.
func (s *Session) queryExtension(name string, initExt func(*xgb.Conn) error) (bool, error) {
	reply, err := xproto.QueryExtension(s.conn, uint16(len(name)), name).Reply()
	if err != nil {
		return false, &ConnectionError{s.name, errors.Wrapf(err, "query %s", name)}
	}
	if !reply.Present {
		return false, nil
	}
	if err := initExt(s.conn); err != nil {
		return false, &CapabilityError{name, err}
	}
	return true, nil
}
