// Package client is the typed gateway to the back-office REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/api/dto"
	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/notify"
	"github.com/spec-kit/restaurant-backoffice/internal/observability"
)

const (
	apiPrefix          = "/api"
	defaultHTTPTimeout = 15 * time.Second
	maxResponseBytes   = 4 << 20

	loginPath    = "/auth/login"
	registerPath = "/auth/register"
)

// Session is the part of the session store the client needs.
type Session interface {
	Token() (string, bool)
	Clear(ctx context.Context)
}

// Observer is told about session-level failures. The composition root
// registers one to tear down the realtime channel and navigate away.
type Observer interface {
	OnAuthExpired()
	OnForbidden()
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	AuthExpired func()
	Forbidden   func()
}

// OnAuthExpired implements Observer.
func (o ObserverFuncs) OnAuthExpired() {
	if o.AuthExpired != nil {
		o.AuthExpired()
	}
}

// OnForbidden implements Observer.
func (o ObserverFuncs) OnForbidden() {
	if o.Forbidden != nil {
		o.Forbidden()
	}
}

// Options tunes a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Notifier   notify.Notifier
	Metrics    *observability.Metrics
}

// Client issues authenticated REST calls and classifies their failures.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    Session
	notifier   notify.Notifier
	metrics    *observability.Metrics
	logger     *zap.Logger

	mu        sync.Mutex
	observers map[int]Observer
	nextID    int
}

// New builds a client reading its bearer token from session.
func New(session Session, logger *zap.Logger, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		session:    session,
		notifier:   notifier,
		metrics:    opts.Metrics,
		logger:     logger.Named("client"),
		observers:  make(map[int]Observer),
	}
}

// Subscribe registers an observer and returns a function removing it.
func (c *Client) Subscribe(o Observer) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = o
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Client) snapshotObservers() []Observer {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]int, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Observer, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.observers[id])
	}
	return out
}

// ListQuery narrows a list endpoint. Zero fields are omitted.
type ListQuery struct {
	Page            int
	Size            int
	Status          string
	Role            domain.Role
	CategoryID      int64
	DeliveryStaffID int64
	Search          string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Size > 0 {
		v.Set("page", strconv.Itoa(q.Page))
		v.Set("size", strconv.Itoa(q.Size))
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Role != "" {
		v.Set("role", string(q.Role))
	}
	if q.CategoryID > 0 {
		v.Set("categoryId", strconv.FormatInt(q.CategoryID, 10))
	}
	if q.DeliveryStaffID > 0 {
		v.Set("deliveryStaffId", strconv.FormatInt(q.DeliveryStaffID, 10))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// do performs one request and returns the raw body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	endpoint := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if token, ok := c.session.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(ctx, method, path, 0, nil, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.metrics.RecordRequest(path, method, resp.StatusCode, time.Since(start))
	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("latency", time.Since(start)),
	)
	if err != nil {
		return nil, c.fail(ctx, method, path, 0, nil, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.fail(ctx, method, path, resp.StatusCode, raw, nil)
	}
	if rejected(raw) {
		return nil, c.fail(ctx, method, path, resp.StatusCode, raw, nil)
	}
	return raw, nil
}

// rejected reports a 2xx envelope whose success flag is false.
func rejected(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var eb dto.ErrorBody
	if err := json.Unmarshal(trimmed, &eb); err != nil {
		return false
	}
	return eb.Success != nil && !*eb.Success
}

func isAuthFlow(path string) bool {
	return path == loginPath || path == registerPath
}

func structuredMessage(body []byte) string {
	var eb dto.ErrorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	return eb.HumanMessage()
}

// fail classifies a failure, fires its side effects and returns the error.
//
// Order of precedence:
//  1. 401 outside login/register: observers, session cleared, one notice
//  2. 401 on login/register: returned to the caller only
//  3. 403: observers and a permission notice
//  4. a structured error body: its message
//  5. no response: connectivity
//  6. anything else: unexpected
func (c *Client) fail(ctx context.Context, method, path string, status int, body []byte, cause error) error {
	authFlow := isAuthFlow(path)
	e := &Error{Status: status, Err: cause}

	switch {
	case cause != nil && ctx.Err() != nil:
		e.Kind, e.Message = KindCanceled, "request canceled"
	case cause != nil:
		e.Kind, e.Message = KindConnectivity, msgConnectivity
	case status == http.StatusUnauthorized && !authFlow:
		e.Kind, e.Message = KindAuthExpired, msgSessionExpired
	case status == http.StatusUnauthorized:
		e.Kind, e.Message = KindUnauthorized, msgBadCredentials
		if msg := structuredMessage(body); msg != "" {
			e.Message = msg
		}
	case status == http.StatusForbidden:
		e.Kind, e.Message = KindForbidden, msgForbidden
	default:
		if msg := structuredMessage(body); msg != "" {
			e.Kind, e.Message = KindValidation, msg
		} else {
			e.Kind, e.Message = KindUnexpected, msgUnexpected
		}
	}

	c.metrics.RecordError(path, method, string(e.Kind))
	c.logger.Warn("request failed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.String("kind", string(e.Kind)),
		zap.Error(cause),
	)

	if authFlow || e.Kind == KindCanceled {
		return e
	}

	switch e.Kind {
	case KindAuthExpired:
		for _, o := range c.snapshotObservers() {
			o.OnAuthExpired()
		}
		c.session.Clear(context.WithoutCancel(ctx))
		c.notifier.Notify(notify.Notice{Level: notify.LevelError, Title: e.Message})
	case KindForbidden:
		for _, o := range c.snapshotObservers() {
			o.OnForbidden()
		}
		c.notifier.Notify(notify.Notice{Level: notify.LevelError, Title: e.Message})
	default:
		c.notifier.Notify(notify.Notice{Level: notify.LevelError, Title: e.Message})
	}
	return e
}

func (c *Client) succeeded(title string) {
	c.notifier.Notify(notify.Notice{Level: notify.LevelSuccess, Title: title})
}

func decodeFailure(path string, err error) error {
	return &Error{Kind: KindUnexpected, Message: "malformed response from " + path, Err: err}
}

func getList[T any](ctx context.Context, c *Client, path string, q ListQuery) (dto.Page[T], error) {
	raw, err := c.do(ctx, http.MethodGet, path, q.values(), nil)
	if err != nil {
		return dto.Page[T]{}, err
	}
	page, err := dto.DecodeList[T](raw)
	if err != nil {
		return dto.Page[T]{}, decodeFailure(path, err)
	}
	return page, nil
}

func call[T any](ctx context.Context, c *Client, method, path string, payload any) (T, error) {
	var zero T
	raw, err := c.do(ctx, method, path, nil, payload)
	if err != nil {
		return zero, err
	}
	out, err := dto.DecodeItem[T](raw)
	if err != nil {
		return zero, decodeFailure(path, err)
	}
	return out, nil
}

// exec runs a request whose response body is irrelevant.
func (c *Client) exec(ctx context.Context, method, path string, payload any) error {
	_, err := c.do(ctx, method, path, nil, payload)
	return err
}

func idPath(prefix string, id int64, suffix ...string) string {
	p := prefix + "/" + strconv.FormatInt(id, 10)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}
