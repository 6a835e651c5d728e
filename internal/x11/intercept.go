package x11

import (
	"encoding/binary"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
)

// Intercept is a single protocol element delivered by an interception
// context. Device events carry their kind and details; the bracketing
// StartOfData and EndOfData elements carry only a category.
//
// An Intercept is only valid for the duration of the InterceptFunc it was
// passed to.
type Intercept struct {
	Category   Category
	ServerTime uint32

	// Set for device events.
	Kind   EventKind
	Detail byte
	RootX  int16
	RootY  int16
	Time   xproto.Timestamp

	raw      []byte
	released bool
}

// InterceptFunc is invoked by ServicePendingEvents for each intercepted
// protocol element.
type InterceptFunc func(*Intercept)

// IsEvent reports whether the intercept carries a device event.
func (i *Intercept) IsEvent() bool {
	return i.Category == FromServer && i.Kind != 0
}

// Raw returns the undecoded protocol bytes of the element.
func (i *Intercept) Raw() []byte {
	return i.raw
}

// release marks the intercept as consumed. Intercepts are released exactly
// once; a second release indicates a bookkeeping bug and panics.
func (i *Intercept) release() {
	if i.released {
		panic("x11: intercept released twice")
	}
	i.released = true
	i.raw = nil
}

// decodeFrame turns a frame diverted by the tap into intercepts.
func decodeFrame(frame []byte) ([]*Intercept, error) {
	if frame[0] == 0 {
		newErr, ok := xgb.NewErrorFuncs[int(frame[1])]
		if !ok {
			return nil, errors.Errorf("unknown X error %d", frame[1])
		}
		return nil, newErr(frame)
	}
	if len(frame) < 32 {
		return nil, errors.New("short reply")
	}

	category := Category(frame[1])
	serverTime := binary.LittleEndian.Uint32(frame[16:])
	data := frame[32:]
	if category != FromServer || len(data) == 0 {
		return []*Intercept{{
			Category:   category,
			ServerTime: serverTime,
			raw:        data,
		}}, nil
	}

	// Without element headers, server data is a run of 32-byte events.
	var res []*Intercept
	for len(data) >= 32 {
		res = append(res, decodeEvent(data[:32], serverTime))
		data = data[32:]
	}
	return res, nil
}

// decodeEvent decodes a single device event. Unrecognized event types
// produce an intercept with only Kind set.
func decodeEvent(buf []byte, serverTime uint32) *Intercept {
	in := &Intercept{
		Category:   FromServer,
		ServerTime: serverTime,
		Kind:       EventKind(buf[0] & 127),
		raw:        buf,
	}
	newEvent, ok := xgb.NewEventFuncs[int(in.Kind)]
	if !ok {
		return in
	}
	switch evt := newEvent(buf).(type) {
	case xproto.KeyPressEvent:
		in.Detail = byte(evt.Detail)
		in.RootX, in.RootY, in.Time = evt.RootX, evt.RootY, evt.Time
	case xproto.KeyReleaseEvent:
		in.Detail = byte(evt.Detail)
		in.RootX, in.RootY, in.Time = evt.RootX, evt.RootY, evt.Time
	case xproto.ButtonPressEvent:
		in.Detail = byte(evt.Detail)
		in.RootX, in.RootY, in.Time = evt.RootX, evt.RootY, evt.Time
	case xproto.ButtonReleaseEvent:
		in.Detail = byte(evt.Detail)
		in.RootX, in.RootY, in.Time = evt.RootX, evt.RootY, evt.Time
	case xproto.MotionNotifyEvent:
		in.Detail = evt.Detail
		in.RootX, in.RootY, in.Time = evt.RootX, evt.RootY, evt.Time
	}
	return in
}
