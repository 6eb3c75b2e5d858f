// Package realtime keeps the STOMP subscription that pushes order and delivery
// events to the console.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/notify"
	"github.com/spec-kit/restaurant-backoffice/internal/observability"
)

// ErrNotConnected is returned by Send while there is no live connection.
var ErrNotConnected = errors.New("realtime channel not connected")

// State of the channel.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

const (
	defaultReconnectDelay = 5 * time.Second
	defaultMaxAttempts    = 5
	defaultHeartbeat      = 4 * time.Second
	stompVersion          = "1.2"

	// heartbeatGrace is how many server intervals may pass without a frame
	// before the connection is considered dead.
	heartbeatGrace = 3
)

// Options configures a Channel.
type Options struct {
	// Endpoint is the websocket URL, e.g. ws://localhost:8080/ws.
	Endpoint             string
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
	Heartbeat            time.Duration
	Dialer               Dialer
	Notifier             notify.Notifier
	Metrics              *observability.Metrics
}

// Channel is a single logical STOMP session with automatic, bounded
// reconnection. All dispatch for a connection happens on its reader
// goroutine, so events on one topic reach listeners in arrival order.
type Channel struct {
	opts     Options
	logger   *zap.Logger
	notifier notify.Notifier

	mu         sync.Mutex
	state      State
	generation uint64
	conn       Conn
	cancel     context.CancelFunc
	done       chan struct{}
	failures   int
	topics     []string
	subs       map[string]string
	listeners  map[string][]Listener
}

// New builds a disconnected channel.
func New(logger *zap.Logger, opts Options) *Channel {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.MaxReconnectAttempts <= 0 {
		opts.MaxReconnectAttempts = defaultMaxAttempts
	}
	if opts.Heartbeat < 0 {
		opts.Heartbeat = 0
	}
	if opts.Dialer == nil {
		opts.Dialer = WebsocketDialer{ReadTimeout: 3 * max(opts.Heartbeat, defaultHeartbeat)}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Channel{
		opts:      opts,
		logger:    logger.Named("realtime"),
		notifier:  notifier,
		listeners: make(map[string][]Listener),
	}
}

type credentials struct {
	token  string
	userID int64
	role   domain.Role
}

// Connect starts the connection in the background. It is a no-op unless the
// channel is Disconnected. Progress is observable through State and the
// notices the channel emits.
func (c *Channel) Connect(ctx context.Context, token string, userID int64, role domain.Role) {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		c.logger.Debug("connect ignored", zap.Stringer("state", c.state))
		return
	}
	c.generation++
	gen := c.generation
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.state = Connecting
	c.cancel = cancel
	c.done = done
	c.failures = 0
	c.mu.Unlock()

	go c.run(runCtx, gen, credentials{token: token, userID: userID, role: role}, done)
}

// run owns the connection lifecycle of one Connect call.
func (c *Channel) run(ctx context.Context, gen uint64, creds credentials, done chan struct{}) {
	defer close(done)
	for {
		err := c.session(ctx, gen, creds)
		if ctx.Err() != nil || !c.current(gen) {
			return
		}

		c.mu.Lock()
		c.conn = nil
		c.failures++
		attempt := c.failures
		exhausted := attempt > c.opts.MaxReconnectAttempts
		var cancel context.CancelFunc
		if exhausted {
			c.state = Disconnected
			cancel, c.cancel = c.cancel, nil
		} else {
			c.state = Reconnecting
		}
		c.mu.Unlock()

		if exhausted {
			if cancel != nil {
				cancel()
			}
			c.logger.Error("giving up on realtime connection", zap.Error(err), zap.Int("attempts", attempt))
			c.notifier.Notify(notify.Notice{Level: notify.LevelError, Title: noticeFailed, Sticky: true})
			return
		}

		c.logger.Warn("realtime connection lost", zap.Error(err), zap.Int("attempt", attempt))
		c.notifier.Notify(notify.Notice{
			Level: notify.LevelError,
			Title: fmt.Sprintf(noticeReconnectFm, attempt, c.opts.MaxReconnectAttempts),
		})

		timer := time.NewTimer(c.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session dials, performs the STOMP handshake, subscribes, and reads until
// the connection fails.
func (c *Channel) session(ctx context.Context, gen uint64, creds credentials) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+creds.token)

	conn, err := c.opts.Dialer.Dial(ctx, c.opts.Endpoint, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	hb := strconv.FormatInt(c.opts.Heartbeat.Milliseconds(), 10)
	connect := frame.New(frame.CONNECT,
		frame.AcceptVersion, stompVersion,
		frame.Host, hostOf(c.opts.Endpoint),
		frame.HeartBeat, hb+","+hb,
		"Authorization", "Bearer "+creds.token,
	)
	if err := conn.WriteFrame(connect); err != nil {
		return fmt.Errorf("write CONNECT: %w", err)
	}

	connected, err := awaitConnected(conn)
	if err != nil {
		return err
	}

	topics := TopicsFor(creds.role, creds.userID)
	subs := make(map[string]string, len(topics))
	for _, topic := range topics {
		id := uuid.NewString()
		sub := frame.New(frame.SUBSCRIBE, frame.Id, id, frame.Destination, topic, frame.Ack, "auto")
		if err := conn.WriteFrame(sub); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		subs[id] = topic
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return nil
	}
	c.conn = conn
	c.state = Connected
	c.failures = 0
	c.topics = topics
	c.subs = subs
	c.mu.Unlock()

	c.logger.Info("realtime connected",
		zap.Int64("user_id", creds.userID),
		zap.String("role", string(creds.role)),
		zap.Strings("topics", topics),
	)
	c.notifier.Notify(notify.Notice{Level: notify.LevelSuccess, Title: noticeConnected})

	outgoing, incoming := negotiateHeartbeat(c.opts.Heartbeat, connected.Header.Get(frame.HeartBeat))
	if rt, ok := conn.(readTimeouter); ok {
		rt.SetReadTimeout(heartbeatGrace * incoming)
	}
	if outgoing > 0 {
		go c.heartbeat(ctx, conn, outgoing)
	}

	return c.readLoop(gen, conn)
}

func awaitConnected(conn Conn) (*frame.Frame, error) {
	for {
		f, err := conn.ReadFrame()
		if err != nil {
			return nil, fmt.Errorf("await CONNECTED: %w", err)
		}
		if f == nil {
			continue
		}
		switch f.Command {
		case frame.CONNECTED:
			return f, nil
		case frame.ERROR:
			return nil, fmt.Errorf("broker refused connection: %s", f.Header.Get(frame.Message))
		}
	}
}

func (c *Channel) readLoop(gen uint64, conn Conn) error {
	for {
		f, err := conn.ReadFrame()
		if errors.Is(err, ErrMalformedFrame) {
			c.logger.Warn("dropping unreadable frame", zap.Error(err))
			continue
		}
		if err != nil {
			return err
		}
		if f == nil {
			continue
		}
		switch f.Command {
		case frame.MESSAGE:
			c.handleMessage(gen, f)
		case frame.ERROR:
			return fmt.Errorf("broker error: %s", f.Header.Get(frame.Message))
		}
	}
}

func (c *Channel) heartbeat(ctx context.Context, conn Conn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteFrame(nil); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes one MESSAGE frame and dispatches it. Malformed
// payloads are logged and dropped.
func (c *Channel) handleMessage(gen uint64, f *frame.Frame) {
	topic := c.topicOf(f)
	ev, err := domain.DecodeEvent(f.Body)
	if err != nil {
		c.logger.Warn("dropping malformed realtime payload", zap.String("topic", topic), zap.Error(err))
		return
	}
	if !c.current(gen) {
		return
	}

	c.opts.Metrics.RecordEvent(topic, string(ev.Kind))
	c.notifier.Notify(noticeFor(ev))

	c.mu.Lock()
	listeners := append([]Listener(nil), c.listeners[topic]...)
	c.mu.Unlock()

	for _, l := range listeners {
		if !c.current(gen) {
			return
		}
		c.invoke(l, topic, ev)
	}
}

func (c *Channel) invoke(l Listener, topic string, ev domain.RealtimeEvent) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("listener panicked", zap.String("topic", topic), zap.Any("panic", r))
		}
	}()
	l.OnEvent(topic, ev)
}

func (c *Channel) topicOf(f *frame.Frame) string {
	if dest := f.Header.Get(frame.Destination); dest != "" {
		return dest
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs[f.Header.Get(frame.Subscription)]
}

func (c *Channel) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation == gen
}

// On registers l for topic. Registering the same listener twice has no effect.
func (c *Channel) On(topic string, l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.listeners[topic] {
		if existing == l {
			return
		}
	}
	c.listeners[topic] = append(c.listeners[topic], l)
}

// Off removes l from topic.
func (c *Channel) Off(topic string, l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.listeners[topic]
	for i, existing := range current {
		if existing == l {
			c.listeners[topic] = append(current[:i:i], current[i+1:]...)
			break
		}
	}
	if len(c.listeners[topic]) == 0 {
		delete(c.listeners, topic)
	}
}

// ListenerCount reports how many listeners are registered for topic.
func (c *Channel) ListenerCount(topic string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners[topic])
}

// Send publishes body as JSON to destination. Without a live connection it
// logs a warning and returns ErrNotConnected.
func (c *Channel) Send(destination string, body any) error {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()

	if state != Connected || conn == nil {
		c.logger.Warn("send while not connected", zap.String("destination", destination))
		return ErrNotConnected
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode message for %s: %w", destination, err)
	}
	f := frame.New(frame.SEND, frame.Destination, destination, frame.ContentType, "application/json")
	f.Body = payload
	if err := conn.WriteFrame(f); err != nil {
		return fmt.Errorf("send to %s: %w", destination, err)
	}
	return nil
}

// Disconnect tears the connection down, forgets every listener and returns
// to Disconnected. Any dispatch in progress stops before its next listener.
// It is safe to call at any time, any number of times.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.generation++
	conn := c.conn
	cancel := c.cancel
	wasIdle := c.state == Disconnected && conn == nil && cancel == nil
	c.state = Disconnected
	c.conn = nil
	c.cancel = nil
	c.topics = nil
	c.subs = nil
	c.failures = 0
	c.listeners = make(map[string][]Listener)
	c.mu.Unlock()

	if wasIdle {
		return
	}
	if conn != nil {
		_ = conn.WriteFrame(frame.New(frame.DISCONNECT))
		_ = conn.Close()
	}
	if cancel != nil {
		cancel()
	}
	c.logger.Info("realtime disconnected")
}

// Wait blocks until the background goroutine of the last Connect exits or
// ctx ends.
func (c *Channel) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether the channel has a live, subscribed connection.
func (c *Channel) Connected() bool {
	return c.State() == Connected
}

// Topics returns the topics subscribed on the live connection.
func (c *Channel) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.topics...)
}

func hostOf(endpoint string) string {
	rest := endpoint
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// negotiateHeartbeat derives the client send interval and the expected
// server interval from the CONNECTED heart-beat header "sx,sy". A side is
// zero when either party disables it.
func negotiateHeartbeat(local time.Duration, serverHeader string) (outgoing, incoming time.Duration) {
	if local <= 0 || serverHeader == "" {
		return 0, 0
	}
	parts := strings.Split(serverHeader, ",")
	if len(parts) != 2 {
		return 0, 0
	}
	if sends, err := strconv.Atoi(strings.TrimSpace(parts[0])); err == nil && sends > 0 {
		incoming = max(local, time.Duration(sends)*time.Millisecond)
	}
	if wants, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil && wants > 0 {
		outgoing = max(local, time.Duration(wants)*time.Millisecond)
	}
	return outgoing, incoming
}
