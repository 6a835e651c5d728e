package cfg

import (
	"regexp"
	"strconv"

	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	"github.com/tesselslate/xmacro/internal/keysym"
)

// Key parsing regex
var keyRegexp = regexp.MustCompile(`^code(\d+)$`)

// Resolver translates keysym names to keycodes.
type Resolver interface {
	SymbolToCode(name string) xproto.Keycode
}

// StopKey is a key given either by keysym name or by raw keycode. The zero
// value means no key was given.
type StopKey struct {
	Code xproto.Keycode // Raw keycode (if any.)
	Sym  string         // Keysym name (if any.)
}

// ParseStopKey parses a keysym name (e.g. "Escape") or a raw keycode in the
// form "codeN". An empty string returns the zero StopKey.
func ParseStopKey(str string) (StopKey, error) {
	if str == "" {
		return StopKey{}, nil
	}
	if match := keyRegexp.FindStringSubmatch(str); match != nil {
		code, err := strconv.ParseUint(match[1], 10, 8)
		if err != nil || code == 0 {
			return StopKey{}, errors.Errorf("invalid keycode %q", str)
		}
		return StopKey{Code: xproto.Keycode(code)}, nil
	}
	if _, ok := keysym.Lookup(str); !ok {
		return StopKey{}, errors.Errorf("invalid key %q", str)
	}
	return StopKey{Sym: str}, nil
}

// IsSet reports whether a key was given.
func (k StopKey) IsSet() bool {
	return k.Code != 0 || k.Sym != ""
}

// Resolve returns the keycode of the key in the current keyboard mapping.
func (k StopKey) Resolve(r Resolver) (xproto.Keycode, error) {
	switch {
	case k.Code != 0:
		return k.Code, nil
	case k.Sym != "":
		code := r.SymbolToCode(k.Sym)
		if code == 0 {
			return 0, errors.Errorf("key %q is not mapped to a keycode", k.Sym)
		}
		return code, nil
	default:
		return 0, errors.New("no key given")
	}
}

func (k StopKey) String() string {
	switch {
	case k.Code != 0:
		return "code" + strconv.Itoa(int(k.Code))
	default:
		return k.Sym
	}
}

// UnmarshalTOML implements toml.Unmarshaler.
func (k *StopKey) UnmarshalTOML(value any) error {
	str, ok := value.(string)
	if !ok {
		return errors.New("key value was not a string")
	}
	key, err := ParseStopKey(str)
	if err != nil {
		return err
	}
	*k = key
	return nil
}
