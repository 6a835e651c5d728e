package x11

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
)

// recordTap wraps the connection used for an interception context. xgb only
// delivers a single reply for each request, but enabling a RECORD context
// produces a stream of replies with the same sequence number. The tap watches
// outgoing requests for the EnableContext request and diverts every reply or
// error carrying its sequence number into a queue, which the session drains
// when servicing pending events. All other traffic passes through untouched.
//
// The tap also supplies authorization during connection setup, since xgb
// cannot look up the Xauthority entry for connections it did not dial.
type recordTap struct {
	net.Conn
	cookie []byte

	// Read side. Only touched by the goroutine reading from the tap.
	setupRead bool
	out       []byte

	mu         sync.Mutex
	setupSent  bool
	seq        uint16
	opcode     byte
	armed      bool
	enabled    bool
	enabledSeq uint16
	queue      [][]byte
	err        error
	closed     bool
}

func newRecordTap(conn net.Conn, cookie []byte) *recordTap {
	return &recordTap{Conn: conn, cookie: cookie}
}

// arm tells the tap to watch for an EnableContext request for the RECORD
// extension with the given major opcode.
func (t *recordTap) arm(opcode byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opcode = opcode
	t.armed = true
}

// drain returns every diverted frame received so far. The error is non-nil
// once the underlying connection has failed and the queue is empty.
func (t *recordTap) drain() ([][]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	frames := t.queue
	t.queue = nil
	if len(frames) == 0 && t.err != nil && !t.closed {
		return nil, t.err
	}
	return frames, nil
}

func (t *recordTap) Write(p []byte) (int, error) {
	t.mu.Lock()
	if !t.setupSent {
		t.setupSent = true
		t.mu.Unlock()
		if t.cookie == nil {
			return t.Conn.Write(p)
		}
		if _, err := t.Conn.Write(setupRequest(t.cookie)); err != nil {
			return 0, err
		}
		return len(p), nil
	}
	t.seq++
	if t.armed && len(p) >= 2 && p[0] == t.opcode && p[1] == recordEnableContext {
		t.enabled = true
		t.enabledSeq = t.seq
	}
	t.mu.Unlock()
	return t.Conn.Write(p)
}

func (t *recordTap) Read(p []byte) (int, error) {
	for len(t.out) == 0 {
		frame, err := t.readFrame()
		if err != nil {
			t.mu.Lock()
			t.err = err
			t.mu.Unlock()
			return 0, err
		}
		if t.divert(frame) {
			continue
		}
		t.out = frame
	}
	n := copy(p, t.out)
	t.out = t.out[n:]
	return n, nil
}

func (t *recordTap) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return t.Conn.Close()
}

// readFrame reads the next complete unit of server traffic: the setup reply,
// or a single event, error or reply.
func (t *recordTap) readFrame() ([]byte, error) {
	if !t.setupRead {
		head := make([]byte, 8)
		if _, err := io.ReadFull(t.Conn, head); err != nil {
			return nil, err
		}
		size := int(binary.LittleEndian.Uint16(head[6:])) * 4
		buf := make([]byte, 8+size)
		copy(buf, head)
		if _, err := io.ReadFull(t.Conn, buf[8:]); err != nil {
			return nil, err
		}
		t.setupRead = true
		return buf, nil
	}

	buf := make([]byte, 32)
	if _, err := io.ReadFull(t.Conn, buf); err != nil {
		return nil, err
	}
	if buf[0] != 1 {
		return buf, nil
	}
	size := binary.LittleEndian.Uint32(buf[4:])
	if size == 0 {
		return buf, nil
	}
	long := make([]byte, 32+int(size)*4)
	copy(long, buf)
	if _, err := io.ReadFull(t.Conn, long[32:]); err != nil {
		return nil, err
	}
	return long, nil
}

// divert queues the frame if it answers the EnableContext request.
func (t *recordTap) divert(frame []byte) bool {
	// Events (type >= 2) never carry a meaningful sequence for this purpose.
	if frame[0] > 1 {
		return false
	}
	seq := binary.LittleEndian.Uint16(frame[2:])
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled || seq != t.enabledSeq {
		return false
	}
	t.queue = append(t.queue, frame)
	return true
}
