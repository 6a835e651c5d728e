package x11

import (
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// display is a parsed X display string, such as ":0", "localhost:10.0" or
// "/tmp/launch-abc/org.xquartz:0".
type display struct {
	protocol string
	host     string
	socket   string
	number   string
	screen   int
}

// resolveDisplay returns the given display name, or $DISPLAY if it is empty.
func resolveDisplay(name string) (string, error) {
	if name == "" {
		name = os.Getenv("DISPLAY")
	}
	if name == "" {
		return "", ErrNoDisplay
	}
	return name, nil
}

// parseDisplay splits a display string into its components.
func parseDisplay(name string) (display, error) {
	var d display
	colon := strings.LastIndex(name, ":")
	if colon < 0 {
		return d, errors.Errorf("bad display string: %s", name)
	}
	if name[0] == '/' {
		d.socket = name[:colon]
	} else if slash := strings.LastIndex(name[:colon], "/"); slash >= 0 {
		d.protocol = name[:slash]
		d.host = name[slash+1 : colon]
	} else {
		d.host = name[:colon]
	}

	rest := name[colon+1:]
	if dot := strings.LastIndex(rest, "."); dot >= 0 {
		scr, err := strconv.Atoi(rest[dot+1:])
		if err != nil {
			return d, errors.Errorf("bad display string: %s", name)
		}
		d.screen = scr
		rest = rest[:dot]
	}
	if num, err := strconv.Atoi(rest); err != nil || num < 0 {
		return d, errors.Errorf("bad display string: %s", name)
	}
	d.number = rest
	return d, nil
}

// dial opens a raw connection to the X server described by d.
func (d display) dial() (net.Conn, error) {
	switch {
	case d.socket != "":
		return net.Dial("unix", d.socket+":"+d.number)
	case d.host != "" && d.host != "unix":
		protocol := d.protocol
		if protocol == "" {
			protocol = "tcp"
		}
		num, _ := strconv.Atoi(d.number)
		return net.Dial(protocol, net.JoinHostPort(d.host, strconv.Itoa(6000+num)))
	default:
		return net.Dial("unix", "/tmp/.X11-unix/X"+d.number)
	}
}

// local reports whether the display is reached through a local socket.
func (d display) local() bool {
	return d.host == "" || d.host == "unix" || d.host == "localhost"
}
