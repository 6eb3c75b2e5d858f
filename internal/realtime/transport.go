package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/gorilla/websocket"
)

// ErrMalformedFrame marks a single unreadable frame. The connection is still
// usable.
var ErrMalformedFrame = errors.New("malformed stomp frame")

// Conn carries STOMP frames. ReadFrame returns a nil frame for a heart-beat;
// WriteFrame sends a heart-beat when given nil.
type Conn interface {
	ReadFrame() (*frame.Frame, error)
	WriteFrame(f *frame.Frame) error
	Close() error
}

// readTimeouter is implemented by connections whose read deadline can be
// retuned once heart-beats are negotiated.
type readTimeouter interface {
	SetReadTimeout(d time.Duration)
}

// Dialer opens a Conn.
type Dialer interface {
	Dial(ctx context.Context, endpoint string, header http.Header) (Conn, error)
}

// WebsocketDialer dials STOMP over a websocket, one frame per text message.
type WebsocketDialer struct {
	Dialer *websocket.Dialer
	// ReadTimeout bounds the wait for the next frame until the channel
	// retunes it from the negotiated heart-beat; zero waits forever.
	ReadTimeout time.Duration
}

// Dial implements Dialer.
func (d WebsocketDialer) Dial(ctx context.Context, endpoint string, header http.Header) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: status %d: %w", endpoint, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return NewConn(ws, d.ReadTimeout), nil
}

// WSConn adapts a websocket to Conn. It is shared by the client channel and
// the development broker.
type WSConn struct {
	ws          *websocket.Conn
	readTimeout atomic.Int64

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an established websocket.
func NewConn(ws *websocket.Conn, readTimeout time.Duration) *WSConn {
	c := &WSConn{ws: ws}
	c.readTimeout.Store(int64(readTimeout))
	return c
}

// SetReadTimeout changes the per-frame read bound. Zero clears any deadline.
func (c *WSConn) SetReadTimeout(d time.Duration) {
	c.readTimeout.Store(int64(max(d, 0)))
}

// ReadFrame implements Conn.
func (c *WSConn) ReadFrame() (*frame.Frame, error) {
	if d := time.Duration(c.readTimeout.Load()); d > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(d))
	} else {
		_ = c.ws.SetReadDeadline(time.Time{})
	}
	_, r, err := c.ws.NextReader()
	if err != nil {
		return nil, err
	}
	f, err := frame.NewReader(r).Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return f, nil
}

// WriteFrame implements Conn.
func (c *WSConn) WriteFrame(f *frame.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	w, err := c.ws.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	if err := frame.NewWriter(w).Write(f); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// Close implements Conn. It is safe to call more than once.
func (c *WSConn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

// EndpointURL turns the REST base URL into the websocket endpoint.
func EndpointURL(baseURL, path string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += path
	return u.String(), nil
}
