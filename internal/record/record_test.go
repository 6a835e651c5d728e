package record_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jezek/xgb/xproto"

	"github.com/tesselslate/xmacro/internal/record"
	"github.com/tesselslate/xmacro/internal/x11"
)

const (
	codeEscape xproto.Keycode = 9
	codeA      xproto.Keycode = 38
	codeD      xproto.Keycode = 40
	codeShift  xproto.Keycode = 50
	codeBare   xproto.Keycode = 200
)

type fakeDisplay struct {
	engine   *record.Engine
	symbols  map[xproto.Keycode]string
	calls    []string
	fn       x11.InterceptFunc
	enabled  bool
	live     [][]*x11.Intercept
	drained  [][]*x11.Intercept
	grabErr  error
	svcErr   error
	nextKey  xproto.Keycode
	draining record.State

	// If set, NextKeyPress signals waiting and blocks until Close.
	waiting chan struct{}
	closed  chan struct{}
}

func newFakeDisplay(live, drained [][]*x11.Intercept) *fakeDisplay {
	return &fakeDisplay{
		symbols: map[xproto.Keycode]string{
			codeEscape: "Escape",
			codeA:      "a",
			codeD:      "d",
			codeShift:  "Shift_L",
		},
		live:    live,
		drained: drained,
		nextKey: codeEscape,
	}
}

func (f *fakeDisplay) GrabKeyboard() error {
	f.calls = append(f.calls, "grab")
	return f.grabErr
}

func (f *fakeDisplay) UngrabKeyboard() error {
	f.calls = append(f.calls, "ungrab")
	return nil
}

func (f *fakeDisplay) NextKeyPress() (xproto.Keycode, error) {
	f.calls = append(f.calls, "next")
	if f.waiting != nil {
		close(f.waiting)
		<-f.closed
		return 0, errors.New("connection closed")
	}
	return f.nextKey, nil
}

func (f *fakeDisplay) CreateInterceptionContext() (x11.Context, error) {
	f.calls = append(f.calls, "create")
	return 1, nil
}

func (f *fakeDisplay) EnableInterceptionAsync(ctx x11.Context, fn x11.InterceptFunc) error {
	f.calls = append(f.calls, "enable")
	f.fn, f.enabled = fn, true
	return nil
}

func (f *fakeDisplay) ServicePendingEvents() (int, error) {
	f.calls = append(f.calls, "service")
	if f.enabled && f.svcErr != nil {
		return 0, f.svcErr
	}
	queue := &f.drained
	if f.enabled {
		queue = &f.live
	}
	if len(*queue) == 0 {
		return 0, nil
	}
	batch := (*queue)[0]
	*queue = (*queue)[1:]
	for _, in := range batch {
		f.fn(in)
	}
	return len(batch), nil
}

func (f *fakeDisplay) DisableInterception(ctx x11.Context) error {
	f.calls = append(f.calls, "disable")
	f.enabled = false
	if f.engine != nil {
		f.draining = f.engine.State()
	}
	return nil
}

func (f *fakeDisplay) FreeInterceptionContext(ctx x11.Context) error {
	f.calls = append(f.calls, "free")
	return nil
}

func (f *fakeDisplay) CodeToSymbol(code xproto.Keycode) string {
	return f.symbols[code]
}

func (f *fakeDisplay) SymbolToCode(name string) xproto.Keycode {
	for code, sym := range f.symbols {
		if sym == name {
			return code
		}
	}
	return 0
}

func (f *fakeDisplay) Close() error {
	f.calls = append(f.calls, "close")
	if f.closed != nil {
		close(f.closed)
	}
	return nil
}

func key(code xproto.Keycode, pressed bool, t xproto.Timestamp) *x11.Intercept {
	kind := x11.KeyRelease
	if pressed {
		kind = x11.KeyPress
	}
	return &x11.Intercept{Category: x11.FromServer, Kind: kind, Detail: byte(code), Time: t}
}

func marker(category x11.Category) *x11.Intercept {
	return &x11.Intercept{Category: category}
}

func batch(in ...*x11.Intercept) []*x11.Intercept {
	return in
}

func runRecord(t *testing.T, f *fakeDisplay, opts record.Options) (string, record.Stats) {
	t.Helper()
	engine := record.New(f, nil, opts)
	f.engine = engine
	if err := engine.SetStopKey(codeEscape); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	stats, err := engine.Record(context.Background(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	if engine.State() != record.Closed {
		t.Fatalf("got state %s, want Closed", engine.State())
	}
	return buf.String(), stats
}

func TestStopKeyNeverEmitted(t *testing.T) {
	f := newFakeDisplay(
		[][]*x11.Intercept{
			batch(marker(x11.StartOfData), key(codeEscape, false, 1), key(codeA, true, 2), key(codeA, false, 3)),
			batch(key(codeEscape, true, 4), key(codeD, true, 5)),
		},
		[][]*x11.Intercept{
			batch(key(codeD, false, 6), key(codeEscape, false, 7), marker(x11.EndOfData)),
		},
	)
	out, stats := runRecord(t, f, record.Options{})
	if want := "KeySymPress a\nKeySymRelease a\n"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
	if stats.Written != 2 || stats.Discarded != 3 {
		t.Fatalf("got %+v, want 2 written and 3 discarded", stats)
	}
}

func TestLeavesRecordingAfterStop(t *testing.T) {
	f := newFakeDisplay(
		[][]*x11.Intercept{
			batch(key(codeA, true, 1)),
			batch(key(codeEscape, true, 2)),
			batch(key(codeD, true, 3)),
		},
		[][]*x11.Intercept{batch(marker(x11.EndOfData))},
	)
	runRecord(t, f, record.Options{})

	services := 0
	for _, call := range f.calls {
		if call == "disable" {
			break
		}
		if call == "service" {
			services++
		}
	}
	if services != 2 {
		t.Fatalf("got %d polls before disabling, want 2", services)
	}
	if f.draining != record.Draining {
		t.Fatalf("got state %s while disabling, want Draining", f.draining)
	}
}

func TestTeardownOrder(t *testing.T) {
	f := newFakeDisplay(
		[][]*x11.Intercept{batch(key(codeEscape, true, 1))},
		[][]*x11.Intercept{batch(marker(x11.EndOfData))},
	)
	runRecord(t, f, record.Options{})
	want := []string{"create", "enable", "service", "disable", "service", "free", "close"}
	if len(f.calls) != len(want) {
		t.Fatalf("got calls %v, want %v", f.calls, want)
	}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Fatalf("got calls %v, want %v", f.calls, want)
		}
	}
}

func TestTeardownOnError(t *testing.T) {
	f := newFakeDisplay(nil, nil)
	f.svcErr = errors.New("connection lost")
	engine := record.New(f, nil, record.Options{DrainTimeout: time.Millisecond})
	if err := engine.SetStopKey(codeEscape); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := engine.Record(context.Background(), &buf); !errors.Is(err, f.svcErr) {
		t.Fatalf("got %v, want %v", err, f.svcErr)
	}
	if engine.State() != record.Closed {
		t.Fatalf("got state %s, want Closed", engine.State())
	}
	n := len(f.calls)
	if n < 2 || f.calls[n-2] != "free" || f.calls[n-1] != "close" {
		t.Fatalf("got calls %v, want free and close last", f.calls)
	}
}

func TestKeycodeGranularity(t *testing.T) {
	f := newFakeDisplay(
		[][]*x11.Intercept{batch(key(codeA, true, 1), key(codeA, false, 2), key(codeEscape, true, 3))},
		[][]*x11.Intercept{batch(marker(x11.EndOfData))},
	)
	out, _ := runRecord(t, f, record.Options{Keys: record.Codes})
	if want := "KeyCodePress 38\nKeyCodeRelease 38\n"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestUnnamedKeycode(t *testing.T) {
	f := newFakeDisplay(
		[][]*x11.Intercept{batch(key(codeBare, true, 1), key(codeBare, false, 2), key(codeEscape, true, 3))},
		[][]*x11.Intercept{batch(marker(x11.EndOfData))},
	)
	out, _ := runRecord(t, f, record.Options{})
	if want := "KeyCodePress 200\nKeyCodeRelease 200\n"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestHeldModifiersReleased(t *testing.T) {
	f := newFakeDisplay(
		[][]*x11.Intercept{batch(key(codeShift, true, 1), key(codeA, true, 2), key(codeA, false, 3), key(codeEscape, true, 4))},
		[][]*x11.Intercept{batch(key(codeShift, false, 5), marker(x11.EndOfData))},
	)
	out, _ := runRecord(t, f, record.Options{})
	want := "KeySymPress Shift_L\nKeySymPress a\nKeySymRelease a\nKeySymRelease Shift_L\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestDelays(t *testing.T) {
	f := newFakeDisplay(
		[][]*x11.Intercept{batch(key(codeA, true, 100), key(codeA, false, 150), key(codeEscape, true, 400))},
		[][]*x11.Intercept{batch(marker(x11.EndOfData))},
	)
	out, _ := runRecord(t, f, record.Options{Delays: true})
	if want := "KeySymPress a\nDelay 50\nKeySymRelease a\n"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestPointerEvents(t *testing.T) {
	events := func() [][]*x11.Intercept {
		return [][]*x11.Intercept{batch(
			&x11.Intercept{Category: x11.FromServer, Kind: x11.MotionNotify, RootX: 5, RootY: 6},
			&x11.Intercept{Category: x11.FromServer, Kind: x11.ButtonPress, Detail: 1},
			&x11.Intercept{Category: x11.FromServer, Kind: x11.ButtonRelease, Detail: 1},
			key(codeEscape, true, 0),
		)}
	}
	drained := [][]*x11.Intercept{batch(marker(x11.EndOfData))}

	out, _ := runRecord(t, newFakeDisplay(events(), drained), record.Options{})
	if want := "ButtonPress 1\nButtonRelease 1\n"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
	out, _ = runRecord(t, newFakeDisplay(events(), drained), record.Options{Motion: true})
	if want := "MotionNotify 5 6\nButtonPress 1\nButtonRelease 1\n"; out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestDrainTimeout(t *testing.T) {
	f := newFakeDisplay([][]*x11.Intercept{batch(key(codeEscape, true, 1))}, nil)
	start := time.Now()
	runRecord(t, f, record.Options{DrainTimeout: 20 * time.Millisecond, PollInterval: time.Millisecond})
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond || elapsed > time.Second {
		t.Fatalf("got %s, want about 20ms", elapsed)
	}
}

func TestSelectStopKey(t *testing.T) {
	f := newFakeDisplay(nil, nil)
	f.nextKey = codeD
	engine := record.New(f, nil, record.Options{})
	code, err := engine.SelectStopKey(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if code != codeD {
		t.Fatalf("got stop key %d, want %d", code, codeD)
	}
	if engine.State() != record.CapturingStopKey {
		t.Fatalf("got state %s, want CapturingStopKey", engine.State())
	}
	want := []string{"grab", "next", "ungrab"}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Fatalf("got calls %v, want %v", f.calls, want)
		}
	}
	if _, err := engine.SelectStopKey(context.Background()); !errors.Is(err, record.ErrState) {
		t.Fatalf("got %v, want ErrState", err)
	}
}

func TestGrabFailure(t *testing.T) {
	f := newFakeDisplay(nil, nil)
	f.grabErr = &x11.GrabError{Status: xproto.GrabStatusAlreadyGrabbed}
	engine := record.New(f, nil, record.Options{})
	var buf bytes.Buffer
	_, err := engine.Run(context.Background(), &buf)
	var grabErr *x11.GrabError
	if !errors.As(err, &grabErr) {
		t.Fatalf("got %v, want GrabError", err)
	}
	if engine.State() != record.Closed {
		t.Fatalf("got state %s, want Closed", engine.State())
	}
	if len(f.calls) != 2 || f.calls[1] != "close" {
		t.Fatalf("got calls %v, want grab and close", f.calls)
	}
	if buf.Len() != 0 {
		t.Fatalf("got output %q, want none", buf.String())
	}
}

func expectCalls(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got calls %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got calls %v, want %v", got, want)
		}
	}
}

func TestRecordCancelled(t *testing.T) {
	f := newFakeDisplay(
		[][]*x11.Intercept{batch(key(codeShift, true, 1))},
		[][]*x11.Intercept{batch(marker(x11.EndOfData))},
	)
	engine := record.New(f, nil, record.Options{})
	if err := engine.SetStopKey(codeEscape); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	if _, err := engine.Record(ctx, &buf); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if engine.State() != record.Closed {
		t.Fatalf("got state %s, want Closed", engine.State())
	}
	expectCalls(t, f.calls, []string{"create", "enable", "disable", "service", "free", "close"})
}

func TestRecordCancelledWhilePolling(t *testing.T) {
	f := newFakeDisplay(
		[][]*x11.Intercept{batch(key(codeShift, true, 1))},
		[][]*x11.Intercept{batch(marker(x11.EndOfData))},
	)
	engine := record.New(f, nil, record.Options{PollInterval: time.Millisecond})
	if err := engine.SetStopKey(codeEscape); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	var buf bytes.Buffer
	if _, err := engine.Record(ctx, &buf); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want context.DeadlineExceeded", err)
	}
	if want := "KeySymPress Shift_L\nKeySymRelease Shift_L\n"; buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
	n := len(f.calls)
	if n < 4 {
		t.Fatalf("got calls %v", f.calls)
	}
	expectCalls(t, f.calls[n-4:], []string{"disable", "service", "free", "close"})
}

func TestSelectStopKeyCancelled(t *testing.T) {
	f := newFakeDisplay(nil, nil)
	f.waiting = make(chan struct{})
	f.closed = make(chan struct{})
	engine := record.New(f, nil, record.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-f.waiting
		cancel()
	}()
	if _, err := engine.SelectStopKey(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if engine.State() != record.Closed {
		t.Fatalf("got state %s, want Closed", engine.State())
	}
	expectCalls(t, f.calls, []string{"grab", "next", "ungrab", "close"})
}
