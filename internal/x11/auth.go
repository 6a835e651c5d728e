package x11

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const authCookieName = "MIT-MAGIC-COOKIE-1"

// Address families used in Xauthority entries (see Xauth.h).
const (
	familyLocal = 256
	familyWild  = 65535
)

// authEntry is a single record of an Xauthority file.
type authEntry struct {
	family uint16
	addr   string
	number string
	name   string
	data   []byte
}

// authorityPath returns the location of the Xauthority file.
func authorityPath() (string, error) {
	if path := os.Getenv("XAUTHORITY"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "find Xauthority")
	}
	return filepath.Join(home, ".Xauthority"), nil
}

// readAuthEntries parses every entry from an Xauthority file.
func readAuthEntries(r io.Reader) ([]authEntry, error) {
	br := bufio.NewReader(r)
	readField := func() ([]byte, error) {
		var n uint16
		if err := binary.Read(br, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}

	var entries []authEntry
	for {
		var e authEntry
		if err := binary.Read(br, binary.BigEndian, &e.family); err != nil {
			if err == io.EOF {
				return entries, nil
			}
			return nil, err
		}
		fields := make([][]byte, 4)
		for i := range fields {
			field, err := readField()
			if err != nil {
				return nil, errors.Wrap(err, "truncated Xauthority entry")
			}
			fields[i] = field
		}
		e.addr = string(fields[0])
		e.number = string(fields[1])
		e.name = string(fields[2])
		e.data = fields[3]
		entries = append(entries, e)
	}
}

// findCookie returns the MIT-MAGIC-COOKIE-1 for the given display, or nil if
// the Xauthority file has no matching entry.
func findCookie(entries []authEntry, d display) []byte {
	hostname, _ := os.Hostname()
	for _, e := range entries {
		if e.name != authCookieName || len(e.data) != 16 {
			continue
		}
		if e.number != "" && e.number != d.number {
			continue
		}
		switch e.family {
		case familyWild:
			return e.data
		case familyLocal:
			if d.local() && e.addr == hostname {
				return e.data
			}
		default:
			if !d.local() && e.addr == d.host {
				return e.data
			}
		}
	}
	return nil
}

// loadCookie reads the Xauthority file and looks up the cookie for d. A
// missing file is not an error, since many servers do not require one.
func loadCookie(d display) ([]byte, error) {
	path, err := authorityPath()
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "open Xauthority")
	}
	defer file.Close()
	entries, err := readAuthEntries(file)
	if err != nil {
		return nil, errors.Wrap(err, "read Xauthority")
	}
	return findCookie(entries, d), nil
}

// setupRequest builds an X11 connection setup request (little endian,
// protocol 11.0) carrying the given cookie.
func setupRequest(cookie []byte) []byte {
	var name string
	if cookie != nil {
		name = authCookieName
	}
	buf := make([]byte, 12+pad(len(name))+pad(len(cookie)))
	buf[0] = 'l'
	binary.LittleEndian.PutUint16(buf[2:], 11)
	binary.LittleEndian.PutUint16(buf[4:], 0)
	binary.LittleEndian.PutUint16(buf[6:], uint16(len(name)))
	binary.LittleEndian.PutUint16(buf[8:], uint16(len(cookie)))
	copy(buf[12:], name)
	copy(buf[12+pad(len(name)):], cookie)
	return buf
}

func pad(n int) int {
	return (n + 3) &^ 3
}
