package x11

import (
	"github.com/jezek/xgb/xproto"
)

// NoKeycode is returned by SymbolToCode for symbols which are not present in
// the keyboard mapping.
const NoKeycode xproto.Keycode = 0

// Extension versions requested during capability negotiation.
const (
	xtestMajor  = 2
	xtestMinor  = 2
	recordMajor = 1
	recordMinor = 13
)

// Request minor opcodes for the RECORD extension.
const (
	recordEnableContext = 5
)

// Category describes the kind of protocol element delivered by an
// interception context.
type Category byte

// Interception categories, as defined by the RECORD extension.
const (
	FromServer Category = iota
	FromClient
	ClientStarted
	ClientDied
	StartOfData
	EndOfData
)

// EventKind is the core event type of an intercepted device event.
type EventKind byte

// Device event kinds which an interception context captures.
const (
	KeyPress      EventKind = xproto.KeyPress
	KeyRelease    EventKind = xproto.KeyRelease
	ButtonPress   EventKind = xproto.ButtonPress
	ButtonRelease EventKind = xproto.ButtonRelease
	MotionNotify  EventKind = xproto.MotionNotify
)

// Keyboard grab status names, indexed by status.
var keyboardGrabErrors = []string{
	"Success",
	"Already grabbed",
	"Invalid time",
	"Not viewable",
	"Frozen",
}

var categoryNames = []string{
	"FromServer",
	"FromClient",
	"ClientStarted",
	"ClientDied",
	"StartOfData",
	"EndOfData",
}

var kindNames = map[EventKind]string{
	KeyPress:      "KeyPress",
	KeyRelease:    "KeyRelease",
	ButtonPress:   "ButtonPress",
	ButtonRelease: "ButtonRelease",
	MotionNotify:  "MotionNotify",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Unknown"
}

func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}
