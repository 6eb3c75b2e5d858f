package devapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/auth"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/observability"
	"github.com/spec-kit/restaurant-backoffice/internal/realtime"
)

const serverName = "restaurant-backoffice-devapi"

var errHandshake = errors.New("stomp handshake failed")

// Authenticator resolves the bearer credential a client presents on CONNECT.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Principal, error)
}

// BrokerOptions tunes the broker.
type BrokerOptions struct {
	// Heartbeat is the interval the broker asks clients to beat at. Zero
	// disables heart-beating.
	Heartbeat time.Duration
	Metrics   *observability.Metrics
}

// Broker is a minimal STOMP 1.2 broker over websocket. Clients authenticate
// with the REST bearer token and may subscribe only to the topics their role
// is entitled to.
type Broker struct {
	upgrader  websocket.Upgrader
	authn     Authenticator
	logger    *zap.Logger
	metrics   *observability.Metrics
	heartbeat time.Duration

	mu       sync.RWMutex
	sessions map[*stompSession]struct{}
}

type stompSession struct {
	conn      realtime.Conn
	principal *auth.Principal

	mu   sync.Mutex
	subs map[string]string // subscription id -> destination
}

func (s *stompSession) subscriptionFor(topic string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, dest := range s.subs {
		if dest == topic {
			return id, true
		}
	}
	return "", false
}

// NewBroker constructs a broker.
func NewBroker(authn Authenticator, logger *zap.Logger, opts BrokerOptions) *Broker {
	return &Broker{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		authn:     authn,
		logger:    logger,
		metrics:   opts.Metrics,
		heartbeat: opts.Heartbeat,
		sessions:  make(map[*stompSession]struct{}),
	}
}

// ServeHTTP upgrades the request and serves one STOMP session.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	// Dead clients surface as failed heart-beat or MESSAGE writes.
	conn := realtime.NewConn(ws, 0)
	defer conn.Close()

	sess, stop, err := b.handshake(r, conn)
	if err != nil {
		b.logger.Info("stomp session rejected", zap.Error(err))
		_ = conn.WriteFrame(frame.New(frame.ERROR, frame.Message, err.Error()))
		return
	}
	defer stop()

	b.mu.Lock()
	b.sessions[sess] = struct{}{}
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.sessions, sess)
		b.mu.Unlock()
	}()

	b.logger.Info("stomp session opened",
		zap.Int64("user_id", sess.principal.UserID),
		zap.String("role", string(sess.principal.Role)))
	b.serve(r.Context(), sess)
	b.logger.Info("stomp session closed", zap.Int64("user_id", sess.principal.UserID))
}

// handshake reads CONNECT, authenticates and answers CONNECTED. The returned
// stop func ends the heart-beat loop.
func (b *Broker) handshake(r *http.Request, conn realtime.Conn) (*stompSession, func(), error) {
	var connect *frame.Frame
	for connect == nil {
		f, err := conn.ReadFrame()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", errHandshake, err)
		}
		connect = f
	}
	if connect.Command != frame.CONNECT && connect.Command != frame.STOMP {
		return nil, nil, fmt.Errorf("%w: expected CONNECT, got %s", errHandshake, connect.Command)
	}

	token, ok := auth.BearerToken(connect.Header.Get("Authorization"))
	if !ok {
		token, ok = auth.BearerToken(r.Header.Get("Authorization"))
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing credentials", errHandshake)
	}
	principal, err := b.authn.Authenticate(r.Context(), token)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errHandshake, err)
	}

	send := b.outgoingHeartbeat(connect.Header.Get(frame.HeartBeat))
	hb := fmt.Sprintf("%d,%d", send.Milliseconds(), b.heartbeat.Milliseconds())
	connected := frame.New(frame.CONNECTED,
		frame.Version, "1.2",
		frame.HeartBeat, hb,
		frame.Server, serverName)
	if err := conn.WriteFrame(connected); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errHandshake, err)
	}

	stop := func() {}
	if send > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		go beat(ctx, conn, send)
		stop = cancel
	}
	return &stompSession{conn: conn, principal: principal, subs: make(map[string]string)}, stop, nil
}

// outgoingHeartbeat is how often the broker beats: only when the client asks
// for beats and the broker has heart-beating enabled.
func (b *Broker) outgoingHeartbeat(clientHeader string) time.Duration {
	if b.heartbeat <= 0 {
		return 0
	}
	parts := strings.Split(clientHeader, ",")
	if len(parts) != 2 {
		return 0
	}
	wants, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || wants <= 0 {
		return 0
	}
	return max(b.heartbeat, time.Duration(wants)*time.Millisecond)
}

func beat(ctx context.Context, conn realtime.Conn, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteFrame(nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func (b *Broker) serve(ctx context.Context, sess *stompSession) {
	entitled := realtime.TopicsFor(sess.principal.Role, sess.principal.UserID)
	for {
		f, err := sess.conn.ReadFrame()
		if err != nil {
			if errors.Is(err, realtime.ErrMalformedFrame) {
				b.logger.Debug("dropping malformed frame", zap.Error(err))
				continue
			}
			return
		}
		if f == nil {
			continue
		}

		switch f.Command {
		case frame.SUBSCRIBE:
			dest, id := f.Header.Get(frame.Destination), f.Header.Get(frame.Id)
			if !slices.Contains(entitled, dest) {
				_ = sess.conn.WriteFrame(frame.New(frame.ERROR, frame.Message, "not entitled to "+dest))
				return
			}
			sess.mu.Lock()
			sess.subs[id] = dest
			sess.mu.Unlock()
		case frame.UNSUBSCRIBE:
			sess.mu.Lock()
			delete(sess.subs, f.Header.Get(frame.Id))
			sess.mu.Unlock()
		case frame.SEND:
			b.relay(ctx, sess, f)
		case frame.DISCONNECT:
			if receipt := f.Header.Get(frame.Receipt); receipt != "" {
				_ = sess.conn.WriteFrame(frame.New(frame.RECEIPT, frame.ReceiptId, receipt))
			}
			return
		}
	}
}

// relay rebroadcasts a client SEND. Only supervisors may publish.
func (b *Broker) relay(ctx context.Context, sess *stompSession, f *frame.Frame) {
	dest := f.Header.Get(frame.Destination)
	if !sess.principal.Role.Supervisor() {
		b.logger.Warn("dropping SEND from non-supervisor",
			zap.Int64("user_id", sess.principal.UserID),
			zap.String("destination", dest))
		return
	}
	ev, err := domain.DecodeEvent(f.Body)
	if err != nil {
		b.logger.Warn("dropping malformed SEND", zap.String("destination", dest), zap.Error(err))
		return
	}
	_ = b.Publish(ctx, dest, ev)
}

// Publish delivers ev to every session subscribed to topic. A session whose
// socket fails is closed; the others still receive the event.
func (b *Broker) Publish(_ context.Context, topic string, ev domain.RealtimeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	b.metrics.RecordEvent(topic, string(ev.Kind))

	b.mu.RLock()
	targets := make([]*stompSession, 0, len(b.sessions))
	for s := range b.sessions {
		targets = append(targets, s)
	}
	b.mu.RUnlock()

	for _, s := range targets {
		subID, ok := s.subscriptionFor(topic)
		if !ok {
			continue
		}
		msg := frame.New(frame.MESSAGE,
			frame.Destination, topic,
			frame.Subscription, subID,
			frame.MessageId, uuid.NewString(),
			frame.ContentType, "application/json")
		msg.Body = body
		if err := s.conn.WriteFrame(msg); err != nil {
			b.logger.Warn("deliver failed; closing session",
				zap.Int64("user_id", s.principal.UserID),
				zap.String("topic", topic),
				zap.Error(err))
			_ = s.conn.Close()
		}
	}
	return nil
}

// Sessions reports the number of live sessions.
func (b *Broker) Sessions() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}

// Subscribed reports whether any session of userID subscribes to topic.
func (b *Broker) Subscribed(userID int64, topic string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.sessions {
		if s.principal.UserID != userID {
			continue
		}
		if _, ok := s.subscriptionFor(topic); ok {
			return true
		}
	}
	return false
}

// Close drops every session.
func (b *Broker) Close() {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.sessions {
		_ = s.conn.Close()
	}
}
