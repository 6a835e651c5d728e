package macro

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
)

// MalformedError is returned for script lines which cannot be parsed.
type MalformedError struct {
	Line   string // The offending line
	Number int    // Line number within the script, or 0
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Number > 0 {
		return fmt.Sprintf("line %d: malformed instruction %q: %s", e.Number, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed instruction %q: %s", e.Line, e.Reason)
}

type parseFunc func(args []string) (Instruction, error)

// Keyword -> argument count and parser.
var keywords = map[string]struct {
	arity int
	parse parseFunc
}{
	"Delay": {1, func(a []string) (Instruction, error) {
		n, err := parseUint(a[0], 32)
		return Delay{uint32(n)}, err
	}},
	"ButtonPress": {1, func(a []string) (Instruction, error) {
		n, err := parseUint(a[0], 8)
		return ButtonPress{byte(n)}, err
	}},
	"ButtonRelease": {1, func(a []string) (Instruction, error) {
		n, err := parseUint(a[0], 8)
		return ButtonRelease{byte(n)}, err
	}},
	"MotionNotify": {2, func(a []string) (Instruction, error) {
		x, err := parseInt(a[0])
		if err != nil {
			return nil, err
		}
		y, err := parseInt(a[1])
		return MotionNotify{x, y}, err
	}},
	"KeyCodePress": {1, func(a []string) (Instruction, error) {
		n, err := parseUint(a[0], 8)
		return KeyCodePress{xproto.Keycode(n)}, err
	}},
	"KeyCodeRelease": {1, func(a []string) (Instruction, error) {
		n, err := parseUint(a[0], 8)
		return KeyCodeRelease{xproto.Keycode(n)}, err
	}},
	"KeySymPress":   {1, func(a []string) (Instruction, error) { return KeySymPress{a[0]}, nil }},
	"KeySymRelease": {1, func(a []string) (Instruction, error) { return KeySymRelease{a[0]}, nil }},
	"KeySym":        {1, func(a []string) (Instruction, error) { return KeySym{a[0]}, nil }},
	"KeyStrPress":   {1, func(a []string) (Instruction, error) { return KeyStrPress{a[0]}, nil }},
	"KeyStrRelease": {1, func(a []string) (Instruction, error) { return KeyStrRelease{a[0]}, nil }},
	"KeyStr":        {1, func(a []string) (Instruction, error) { return KeyStr{a[0]}, nil }},
}

// ParseLine parses a single script line.
func ParseLine(text string) (Instruction, error) {
	line := strings.TrimSpace(text)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, &MalformedError{Line: text, Reason: "empty line"}
	}
	keyword, args := fields[0], fields[1:]

	// String takes the rest of the line verbatim.
	if keyword == "String" {
		rest := strings.TrimSpace(line[len(keyword):])
		if rest == "" {
			return nil, &MalformedError{Line: text, Reason: "String requires text"}
		}
		return String{rest}, nil
	}

	kw, ok := keywords[keyword]
	if !ok {
		return nil, &MalformedError{Line: text, Reason: fmt.Sprintf("unknown keyword %q", keyword)}
	}
	if len(args) != kw.arity {
		return nil, &MalformedError{
			Line:   text,
			Reason: fmt.Sprintf("%s takes %d argument(s), got %d", keyword, kw.arity, len(args)),
		}
	}
	ins, err := kw.parse(args)
	if err != nil {
		return nil, &MalformedError{Line: text, Reason: err.Error()}
	}
	return ins, nil
}

// Parse parses an entire script, skipping blank lines. It stops at the first
// malformed line.
func Parse(r io.Reader) ([]Instruction, error) {
	var res []Instruction
	err := scan(r, func(ins Instruction, malformed *MalformedError) bool {
		if malformed != nil {
			return false
		}
		res = append(res, ins)
		return true
	})
	return res, err
}

// ParseAll parses an entire script, collecting malformed lines instead of
// stopping at them. The error is only non-nil if reading fails.
func ParseAll(r io.Reader) ([]Instruction, []*MalformedError, error) {
	var res []Instruction
	var bad []*MalformedError
	err := scan(r, func(ins Instruction, malformed *MalformedError) bool {
		if malformed != nil {
			bad = append(bad, malformed)
		} else {
			res = append(res, ins)
		}
		return true
	})
	return res, bad, err
}

// scan parses each non-blank line and passes the result to fn. Scanning stops
// when fn returns false; the malformed line is then returned as the error.
func scan(r io.Reader, fn func(Instruction, *MalformedError) bool) error {
	scanner := bufio.NewScanner(r)
	num := 0
	for scanner.Scan() {
		num++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		ins, err := ParseLine(text)
		var malformed *MalformedError
		if err != nil {
			malformed = err.(*MalformedError)
			malformed.Number = num
		}
		if !fn(ins, malformed) {
			return malformed
		}
	}
	return errors.Wrap(scanner.Err(), "read script")
}

func parseUint(s string, bits int) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return 0, numError(s, err)
	}
	return n, nil
}

func parseInt(s string) (int16, error) {
	n, err := strconv.ParseInt(s, 10, 16)
	if err != nil {
		return 0, numError(s, err)
	}
	return int16(n), nil
}

func numError(s string, err error) error {
	if errors.Is(err, strconv.ErrRange) {
		return errors.Errorf("%s is out of range", s)
	}
	return errors.Errorf("%s is not an integer", s)
}
