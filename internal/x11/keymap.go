package x11

import (
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/tesselslate/xmacro/internal/keysym"
)

// keymap is a snapshot of the server's keyboard mapping.
type keymap struct {
	min     xproto.Keycode
	max     xproto.Keycode
	perCode int
	syms    []xproto.Keysym
}

// loadKeymap requests the full keyboard mapping from the X server.
func loadKeymap(conn *xgb.Conn) (keymap, error) {
	setup := xproto.Setup(conn)
	min, max := setup.MinKeycode, setup.MaxKeycode
	reply, err := xproto.GetKeyboardMapping(conn, min, byte(max-min+1)).Reply()
	if err != nil {
		return keymap{}, err
	}
	return keymap{
		min:     min,
		max:     max,
		perCode: int(reply.KeysymsPerKeycode),
		syms:    reply.Keysyms,
	}, nil
}

// code returns the first keycode which produces sym, searching each keysym
// column across all keycodes before moving to the next column.
func (k *keymap) code(sym xproto.Keysym) xproto.Keycode {
	if sym == keysym.NoSymbol || k.perCode == 0 {
		return NoKeycode
	}
	count := len(k.syms) / k.perCode
	for col := 0; col < k.perCode; col++ {
		for i := 0; i < count; i++ {
			if k.syms[i*k.perCode+col] == sym {
				return k.min + xproto.Keycode(i)
			}
		}
	}
	return NoKeycode
}

// sym returns the first non-empty keysym bound to code.
func (k *keymap) sym(code xproto.Keycode) xproto.Keysym {
	if code < k.min || code > k.max || k.perCode == 0 {
		return keysym.NoSymbol
	}
	start := int(code-k.min) * k.perCode
	if start+k.perCode > len(k.syms) {
		return keysym.NoSymbol
	}
	for _, sym := range k.syms[start : start+k.perCode] {
		if sym != keysym.NoSymbol {
			return sym
		}
	}
	return keysym.NoSymbol
}
