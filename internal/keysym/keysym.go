// Package keysym translates between X keysym names (as used in macro scripts)
// and their numeric values. The translation is independent of any X server;
// mapping keysyms to server keycodes is done by the x11 package.
package keysym

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jezek/xgb/xproto"
)

// NoSymbol is the keysym value used for keys without a symbol.
const NoSymbol xproto.Keysym = 0

const unicodeOffset = 0x01000000

// Name -> keysym. Contains aliases.
var byName = make(map[string]xproto.Keysym)

// Keysym -> canonical name.
var byValue = make(map[xproto.Keysym]string)

// Names for the printable ASCII punctuation range.
var punctuation = map[xproto.Keysym]string{
	0x20: "space",
	0x21: "exclam",
	0x22: "quotedbl",
	0x23: "numbersign",
	0x24: "dollar",
	0x25: "percent",
	0x26: "ampersand",
	0x27: "apostrophe",
	0x28: "parenleft",
	0x29: "parenright",
	0x2a: "asterisk",
	0x2b: "plus",
	0x2c: "comma",
	0x2d: "minus",
	0x2e: "period",
	0x2f: "slash",
	0x3a: "colon",
	0x3b: "semicolon",
	0x3c: "less",
	0x3d: "equal",
	0x3e: "greater",
	0x3f: "question",
	0x40: "at",
	0x5b: "bracketleft",
	0x5c: "backslash",
	0x5d: "bracketright",
	0x5e: "asciicircum",
	0x5f: "underscore",
	0x60: "grave",
	0x7b: "braceleft",
	0x7c: "bar",
	0x7d: "braceright",
	0x7e: "asciitilde",
}

// Names for 0xa0 through 0xff, sixteen per row.
var latin1 = [96]string{
	"nobreakspace", "exclamdown", "cent", "sterling", "currency", "yen", "brokenbar", "section",
	"diaeresis", "copyright", "ordfeminine", "guillemotleft", "notsign", "hyphen", "registered", "macron",
	"degree", "plusminus", "twosuperior", "threesuperior", "acute", "mu", "paragraph", "periodcentered",
	"cedilla", "onesuperior", "masculine", "guillemotright", "onequarter", "onehalf", "threequarters", "questiondown",
	"Agrave", "Aacute", "Acircumflex", "Atilde", "Adiaeresis", "Aring", "AE", "Ccedilla",
	"Egrave", "Eacute", "Ecircumflex", "Ediaeresis", "Igrave", "Iacute", "Icircumflex", "Idiaeresis",
	"ETH", "Ntilde", "Ograve", "Oacute", "Ocircumflex", "Otilde", "Odiaeresis", "multiply",
	"Oslash", "Ugrave", "Uacute", "Ucircumflex", "Udiaeresis", "Yacute", "THORN", "ssharp",
	"agrave", "aacute", "acircumflex", "atilde", "adiaeresis", "aring", "ae", "ccedilla",
	"egrave", "eacute", "ecircumflex", "ediaeresis", "igrave", "iacute", "icircumflex", "idiaeresis",
	"eth", "ntilde", "ograve", "oacute", "ocircumflex", "otilde", "odiaeresis", "division",
	"oslash", "ugrave", "uacute", "ucircumflex", "udiaeresis", "yacute", "thorn", "ydiaeresis",
}

// Function, modifier, cursor and keypad keys.
var special = map[xproto.Keysym]string{
	0xff08: "BackSpace",
	0xff09: "Tab",
	0xff0a: "Linefeed",
	0xff0b: "Clear",
	0xff0d: "Return",
	0xff13: "Pause",
	0xff14: "Scroll_Lock",
	0xff15: "Sys_Req",
	0xff1b: "Escape",
	0xff20: "Multi_key",
	0xff50: "Home",
	0xff51: "Left",
	0xff52: "Up",
	0xff53: "Right",
	0xff54: "Down",
	0xff55: "Prior",
	0xff56: "Next",
	0xff57: "End",
	0xff58: "Begin",
	0xff60: "Select",
	0xff61: "Print",
	0xff62: "Execute",
	0xff63: "Insert",
	0xff65: "Undo",
	0xff66: "Redo",
	0xff67: "Menu",
	0xff68: "Find",
	0xff69: "Cancel",
	0xff6a: "Help",
	0xff6b: "Break",
	0xff7e: "Mode_switch",
	0xff7f: "Num_Lock",
	0xff80: "KP_Space",
	0xff89: "KP_Tab",
	0xff8d: "KP_Enter",
	0xff91: "KP_F1",
	0xff92: "KP_F2",
	0xff93: "KP_F3",
	0xff94: "KP_F4",
	0xff95: "KP_Home",
	0xff96: "KP_Left",
	0xff97: "KP_Up",
	0xff98: "KP_Right",
	0xff99: "KP_Down",
	0xff9a: "KP_Prior",
	0xff9b: "KP_Next",
	0xff9c: "KP_End",
	0xff9d: "KP_Begin",
	0xff9e: "KP_Insert",
	0xff9f: "KP_Delete",
	0xffaa: "KP_Multiply",
	0xffab: "KP_Add",
	0xffac: "KP_Separator",
	0xffad: "KP_Subtract",
	0xffae: "KP_Decimal",
	0xffaf: "KP_Divide",
	0xffbd: "KP_Equal",
	0xffe1: "Shift_L",
	0xffe2: "Shift_R",
	0xffe3: "Control_L",
	0xffe4: "Control_R",
	0xffe5: "Caps_Lock",
	0xffe6: "Shift_Lock",
	0xffe7: "Meta_L",
	0xffe8: "Meta_R",
	0xffe9: "Alt_L",
	0xffea: "Alt_R",
	0xffeb: "Super_L",
	0xffec: "Super_R",
	0xffed: "Hyper_L",
	0xffee: "Hyper_R",
	0xffff: "Delete",

	0xfe03: "ISO_Level3_Shift",
	0xfe08: "ISO_Next_Group",
	0xfe20: "ISO_Left_Tab",

	0x1008ff02: "XF86MonBrightnessUp",
	0x1008ff03: "XF86MonBrightnessDown",
	0x1008ff11: "XF86AudioLowerVolume",
	0x1008ff12: "XF86AudioMute",
	0x1008ff13: "XF86AudioRaiseVolume",
	0x1008ff14: "XF86AudioPlay",
	0x1008ff15: "XF86AudioStop",
	0x1008ff16: "XF86AudioPrev",
	0x1008ff17: "XF86AudioNext",
	0x1008ff18: "XF86HomePage",
	0x1008ff19: "XF86Mail",
	0x1008ff1b: "XF86Search",
	0x1008ff1d: "XF86Calculator",
	0x1008ff26: "XF86Back",
	0x1008ff27: "XF86Forward",
	0x1008ffb2: "XF86AudioMicMute",
}

// Alternate spellings accepted by Lookup. Name never returns these.
var aliases = map[string]xproto.Keysym{
	"Page_Up":        0xff55,
	"Page_Down":      0xff56,
	"KP_Page_Up":     0xff9a,
	"KP_Page_Down":   0xff9b,
	"Eth":            0xd0,
	"Thorn":          0xde,
	"Ooblique":       0xd8,
	"ooblique":       0xf8,
	"guillemetleft":  0xab,
	"guillemetright": 0xbb,
	"ordmasculine":   0xba,
	"script_switch":  0xff7e,
}

func init() {
	add := func(sym xproto.Keysym, name string) {
		byName[name] = sym
		byValue[sym] = name
	}
	for sym, name := range punctuation {
		add(sym, name)
	}
	for c := '0'; c <= '9'; c++ {
		add(xproto.Keysym(c), string(c))
	}
	for c := 'A'; c <= 'Z'; c++ {
		add(xproto.Keysym(c), string(c))
		add(xproto.Keysym(c+32), string(c+32))
	}
	for i, name := range latin1 {
		add(xproto.Keysym(0xa0+i), name)
	}
	for i := 1; i <= 35; i++ {
		add(xproto.Keysym(0xffbd+i), fmt.Sprintf("F%d", i))
	}
	for i := 0; i <= 9; i++ {
		add(xproto.Keysym(0xffb0+i), fmt.Sprintf("KP_%d", i))
	}
	for sym, name := range special {
		add(sym, name)
	}
	for name, sym := range aliases {
		byName[name] = sym
	}
}

// Lookup returns the keysym with the given name. Besides the names in the
// table, it accepts Unicode names ("U+20AC", "U20AC"), raw hexadecimal
// keysyms ("0x1008ff13") and, for scripts written by xmacro, decimal keysyms
// of two or more digits ("100" is d). Single digits are the digit keys.
func Lookup(name string) (xproto.Keysym, bool) {
	if sym, ok := byName[name]; ok {
		return sym, true
	}
	if len(name) > 1 && isDecimal(name) {
		val, err := strconv.ParseUint(name, 10, 32)
		if err != nil || val == 0 {
			return NoSymbol, false
		}
		return xproto.Keysym(val), true
	}
	if strings.HasPrefix(name, "0x") || strings.HasPrefix(name, "0X") {
		val, err := strconv.ParseUint(name[2:], 16, 32)
		if err != nil || val == 0 {
			return NoSymbol, false
		}
		return xproto.Keysym(val), true
	}
	if len(name) > 1 && name[0] == 'U' {
		digits := strings.TrimPrefix(name[1:], "+")
		cp, err := strconv.ParseUint(digits, 16, 32)
		if err != nil || cp > 0x10ffff || cp < 0x20 {
			return NoSymbol, false
		}
		// Latin-1 code points share their keysym value.
		if latin1CodePoint(uint32(cp)) {
			return xproto.Keysym(cp), true
		}
		return xproto.Keysym(unicodeOffset + cp), true
	}
	return NoSymbol, false
}

// Name returns the canonical name of the given keysym. Keysyms without a name
// are rendered in a form that Lookup accepts, so the result can always be
// translated back.
func Name(sym xproto.Keysym) string {
	if name, ok := byValue[sym]; ok {
		return name
	}
	// Lookup reads Latin-1 and control code points differently, so those
	// stay in hexadecimal.
	cp := uint32(sym) - unicodeOffset
	if sym&0xff000000 == unicodeOffset && cp >= 0x20 && cp <= 0x10ffff && !latin1CodePoint(cp) {
		return fmt.Sprintf("U%04X", cp)
	}
	return fmt.Sprintf("0x%x", uint32(sym))
}

func latin1CodePoint(cp uint32) bool {
	return (cp >= 0x20 && cp <= 0x7e) || (cp >= 0xa0 && cp <= 0xff)
}

func isDecimal(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
