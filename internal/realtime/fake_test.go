package realtime

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/go-stomp/stomp/v3/frame"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

// fakeConn is an in-memory STOMP connection. The broker side pushes frames
// through deliver; everything the channel writes is recorded.
type fakeConn struct {
	in     chan *frame.Frame
	closed chan struct{}
	once   sync.Once

	mu      sync.Mutex
	written []*frame.Frame
}

func newFakeConn() *fakeConn {
	c := &fakeConn{
		in:     make(chan *frame.Frame, 16),
		closed: make(chan struct{}),
	}
	c.in <- frame.New(frame.CONNECTED, frame.Version, "1.2", frame.HeartBeat, "0,0")
	return c
}

func (c *fakeConn) ReadFrame() (*frame.Frame, error) {
	select {
	case f := <-c.in:
		return f, nil
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *fakeConn) WriteFrame(f *frame.Frame) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	c.mu.Lock()
	c.written = append(c.written, f)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) deliver(topic, body string) {
	f := frame.New(frame.MESSAGE, frame.Destination, topic, frame.MessageId, "m")
	f.Body = []byte(body)
	c.in <- f
}

func (c *fakeConn) frames(command string) []*frame.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*frame.Frame
	for _, f := range c.written {
		if f != nil && f.Command == command {
			out = append(out, f)
		}
	}
	return out
}

// fakeDialer fails the first failures dials (all of them when negative) and
// then hands out fresh fakeConns.
type fakeDialer struct {
	failures int

	mu      sync.Mutex
	dials   int
	conns   []*fakeConn
	headers []http.Header
}

func (d *fakeDialer) Dial(_ context.Context, _ string, header http.Header) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	d.headers = append(d.headers, header)
	if d.failures < 0 || d.dials <= d.failures {
		return nil, errors.New("connection refused")
	}
	conn := newFakeConn()
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) lastConn() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

type recordingListener struct {
	mu     sync.Mutex
	events []domain.RealtimeEvent
	topics []string
}

func (r *recordingListener) OnEvent(topic string, ev domain.RealtimeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	r.topics = append(r.topics, topic)
}

func (r *recordingListener) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recordingListener) kinds() []domain.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}
