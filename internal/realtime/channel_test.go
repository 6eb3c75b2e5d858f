package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
	"github.com/spec-kit/restaurant-backoffice/internal/notify"
	"github.com/spec-kit/restaurant-backoffice/internal/observability"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond

	orderCreated = `{"type":"ORDER_CREATED","message":"New order #42","data":{"orderId":42},"timestamp":"2024-05-01T10:00:00"}`
	statusChange = `{"type":"ORDER_STATUS_CHANGED","message":"Order #42 is READY","data":{"orderId":42,"status":"READY"}}`
)

type harness struct {
	channel *Channel
	dialer  *fakeDialer
	notices *notify.Recorder
	metrics *observability.Metrics
}

func newHarness(t *testing.T, dialer *fakeDialer, maxAttempts int) *harness {
	t.Helper()
	h := &harness{
		dialer:  dialer,
		notices: &notify.Recorder{},
		metrics: observability.NewMetrics(),
	}
	h.channel = New(zap.NewNop(), Options{
		Endpoint:             "ws://backend.test/ws",
		ReconnectDelay:       time.Millisecond,
		MaxReconnectAttempts: maxAttempts,
		Dialer:               dialer,
		Notifier:             h.notices,
		Metrics:              h.metrics,
	})
	t.Cleanup(h.channel.Disconnect)
	return h
}

func (h *harness) connect(t *testing.T, role domain.Role) *fakeConn {
	t.Helper()
	before := h.notices.Count(noticeConnected)
	h.channel.Connect(context.Background(), "tok", 7, role)
	require.Eventually(t, func() bool {
		return h.channel.Connected() && h.notices.Count(noticeConnected) > before
	}, waitFor, tick)
	return h.dialer.lastConn()
}

func destinations(frames []*frame.Frame) []string {
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Header.Get(frame.Destination))
	}
	return out
}

func TestConnectSubscribesEntitledTopics(t *testing.T) {
	h := newHarness(t, &fakeDialer{}, 5)
	conn := h.connect(t, domain.RoleManager)

	connect := conn.frames(frame.CONNECT)
	require.Len(t, connect, 1)
	assert.Equal(t, "Bearer tok", connect[0].Header.Get("Authorization"))
	assert.Equal(t, "1.2", connect[0].Header.Get(frame.AcceptVersion))
	assert.Equal(t, "Bearer tok", h.dialer.headers[0].Get("Authorization"))

	want := TopicsFor(domain.RoleManager, 7)
	assert.Equal(t, want, destinations(conn.frames(frame.SUBSCRIBE)))
	assert.Equal(t, want, h.channel.Topics())
	assert.Equal(t, 1, h.notices.Count(noticeConnected))
}

func TestConnectIsNoopWhileConnected(t *testing.T) {
	h := newHarness(t, &fakeDialer{}, 5)
	h.connect(t, domain.RoleKitchenStaff)

	h.channel.Connect(context.Background(), "tok", 7, domain.RoleKitchenStaff)
	assert.Equal(t, 1, h.dialer.dialCount())
	assert.Equal(t, Connected, h.channel.State())
}

func TestDuplicateListenerFiresOnce(t *testing.T) {
	h := newHarness(t, &fakeDialer{}, 5)
	conn := h.connect(t, domain.RoleAdmin)

	l := &recordingListener{}
	h.channel.On(TopicOrders, l)
	h.channel.On(TopicOrders, l)
	assert.Equal(t, 1, h.channel.ListenerCount(TopicOrders))

	conn.deliver(TopicOrders, orderCreated)
	require.Eventually(t, func() bool { return l.count() == 1 }, waitFor, tick)

	// a second event proves the first was not delivered twice
	conn.deliver(TopicOrders, statusChange)
	require.Eventually(t, func() bool { return l.count() == 2 }, waitFor, tick)
	assert.Equal(t, []domain.EventKind{domain.EventOrderCreated, domain.EventOrderStatusChanged}, l.kinds())
}

func TestOffStopsDelivery(t *testing.T) {
	h := newHarness(t, &fakeDialer{}, 5)
	conn := h.connect(t, domain.RoleAdmin)

	removed := &recordingListener{}
	kept := &recordingListener{}
	h.channel.On(TopicOrders, removed)
	h.channel.On(TopicOrders, kept)
	h.channel.Off(TopicOrders, removed)

	conn.deliver(TopicOrders, orderCreated)
	require.Eventually(t, func() bool { return kept.count() == 1 }, waitFor, tick)
	assert.Zero(t, removed.count())
}

func TestDispatchIsPerTopic(t *testing.T) {
	h := newHarness(t, &fakeDialer{}, 5)
	conn := h.connect(t, domain.RoleAdmin)

	orders := &recordingListener{}
	kitchen := &recordingListener{}
	h.channel.On(TopicOrders, orders)
	h.channel.On(TopicKitchen, kitchen)

	conn.deliver(TopicKitchen, `{"type":"KITCHEN_NEW_ORDER","message":"Table 4"}`)
	require.Eventually(t, func() bool { return kitchen.count() == 1 }, waitFor, tick)
	assert.Zero(t, orders.count())
	assert.Equal(t, 1, h.notices.Count("Kitchen Alert: Table 4"))
	assert.Equal(t, int64(1), h.metrics.Snapshot().Events[TopicKitchen+"|KITCHEN_NEW_ORDER"])
}

func TestMalformedPayloadIsDropped(t *testing.T) {
	h := newHarness(t, &fakeDialer{}, 5)
	conn := h.connect(t, domain.RoleAdmin)

	l := &recordingListener{}
	h.channel.On(TopicOrders, l)

	conn.deliver(TopicOrders, "{not json")
	conn.deliver(TopicOrders, `{"message":"no type"}`)
	conn.deliver(TopicOrders, orderCreated)

	require.Eventually(t, func() bool { return l.count() == 1 }, waitFor, tick)
	assert.Equal(t, Connected, h.channel.State())
	assert.Equal(t, 1, h.dialer.dialCount())
}

func TestListenerPanicDoesNotKillChannel(t *testing.T) {
	h := newHarness(t, &fakeDialer{}, 5)
	conn := h.connect(t, domain.RoleAdmin)

	h.channel.On(TopicOrders, Func(func(string, domain.RealtimeEvent) { panic("boom") }))
	after := &recordingListener{}
	h.channel.On(TopicOrders, after)

	conn.deliver(TopicOrders, orderCreated)
	require.Eventually(t, func() bool { return after.count() == 1 }, waitFor, tick)
	assert.True(t, h.channel.Connected())
}

func TestReconnectIsBounded(t *testing.T) {
	h := newHarness(t, &fakeDialer{failures: -1}, 3)

	h.channel.Connect(context.Background(), "tok", 7, domain.RoleKitchenStaff)
	require.Eventually(t, func() bool {
		return h.notices.Count(noticeFailed) == 1
	}, waitFor, tick)
	require.NoError(t, h.channel.Wait(context.Background()))

	assert.Equal(t, 4, h.dialer.dialCount())
	assert.Equal(t, Disconnected, h.channel.State())
	assert.Equal(t, 1, h.notices.Count("Connection lost. Reconnecting... (1/3)"))
	assert.Equal(t, 1, h.notices.Count("Connection lost. Reconnecting... (3/3)"))

	var sticky []notify.Notice
	for _, n := range h.notices.Notices() {
		if n.Sticky {
			sticky = append(sticky, n)
		}
	}
	require.Len(t, sticky, 1)
	assert.Equal(t, noticeFailed, sticky[0].Title)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 4, h.dialer.dialCount())
	assert.Equal(t, 1, h.notices.Count(noticeFailed))
}

func TestSuccessfulReconnectResetsCounter(t *testing.T) {
	h := newHarness(t, &fakeDialer{failures: 2}, 5)
	h.connect(t, domain.RoleDeliveryStaff)

	assert.Equal(t, 3, h.dialer.dialCount())
	assert.Equal(t, 1, h.notices.Count("Connection lost. Reconnecting... (2/5)"))

	// drop the live connection; the next failure counts from one again
	h.dialer.lastConn().Close()
	require.Eventually(t, func() bool { return h.dialer.dialCount() == 4 }, waitFor, tick)
	require.Eventually(t, func() bool { return h.notices.Count(noticeConnected) == 2 }, waitFor, tick)
	assert.True(t, h.channel.Connected())
	assert.Equal(t, 2, h.notices.Count("Connection lost. Reconnecting... (1/5)"))
}

func TestDisconnectIsIdempotent(t *testing.T) {
	h := newHarness(t, &fakeDialer{}, 5)
	h.channel.Disconnect()
	assert.Equal(t, Disconnected, h.channel.State())

	conn := h.connect(t, domain.RoleAdmin)
	h.channel.On(TopicOrders, &recordingListener{})

	h.channel.Disconnect()
	h.channel.Disconnect()

	assert.Equal(t, Disconnected, h.channel.State())
	assert.Zero(t, h.channel.ListenerCount(TopicOrders))
	assert.Empty(t, h.channel.Topics())
	assert.Len(t, conn.frames(frame.DISCONNECT), 1)
	require.NoError(t, h.channel.Wait(context.Background()))
	assert.Equal(t, 1, h.dialer.dialCount())
}

func TestDisconnectStopsDispatchInProgress(t *testing.T) {
	h := newHarness(t, &fakeDialer{}, 5)
	conn := h.connect(t, domain.RoleAdmin)

	first := &recordingListener{}
	second := &recordingListener{}
	h.channel.On(TopicOrders, first)
	h.channel.On(TopicOrders, Func(func(string, domain.RealtimeEvent) { h.channel.Disconnect() }))
	h.channel.On(TopicOrders, second)

	conn.deliver(TopicOrders, orderCreated)
	require.Eventually(t, func() bool { return h.channel.State() == Disconnected }, waitFor, tick)
	require.NoError(t, h.channel.Wait(context.Background()))

	assert.Equal(t, 1, first.count())
	assert.Zero(t, second.count())
}

func TestSend(t *testing.T) {
	h := newHarness(t, &fakeDialer{}, 5)
	require.ErrorIs(t, h.channel.Send("/app/ping", map[string]string{"a": "b"}), ErrNotConnected)

	conn := h.connect(t, domain.RoleAdmin)
	require.NoError(t, h.channel.Send("/app/ping", map[string]string{"a": "b"}))

	sent := conn.frames(frame.SEND)
	require.Len(t, sent, 1)
	assert.Equal(t, "/app/ping", sent[0].Header.Get(frame.Destination))
	assert.JSONEq(t, `{"a":"b"}`, string(sent[0].Body))
}

func TestReconnectAfterExhaustion(t *testing.T) {
	d := &fakeDialer{failures: 2}
	h := newHarness(t, d, 1)

	h.channel.Connect(context.Background(), "tok", 7, domain.RoleAdmin)
	require.Eventually(t, func() bool { return h.notices.Count(noticeFailed) == 1 }, waitFor, tick)
	require.NoError(t, h.channel.Wait(context.Background()))

	h.connect(t, domain.RoleAdmin)
	assert.Equal(t, 3, d.dialCount())
}

func TestNoticeFor(t *testing.T) {
	cases := []struct {
		body string
		want notify.Notice
	}{
		{orderCreated, notify.Notice{Level: notify.LevelInfo, Title: "New Order: New order #42", Detail: "Order #42"}},
		{statusChange, notify.Notice{Level: notify.LevelInfo, Title: "Order Status Updated: Order #42 is READY", Detail: "Status: READY"}},
		{`{"type":"ORDER_CREATED","message":"x"}`, notify.Notice{Level: notify.LevelInfo, Title: "New Order: x"}},
		{`{"type":"DELIVERY_ASSIGNED","message":"d"}`, notify.Notice{Level: notify.LevelSuccess, Title: "Delivery Assigned: d"}},
		{`{"type":"KITCHEN_NEW_ORDER","message":"k"}`, notify.Notice{Level: notify.LevelWarning, Title: "Kitchen Alert: k", Detail: "New order requires preparation"}},
		{`{"type":"DELIVERY_READY_ORDER","message":"r"}`, notify.Notice{Level: notify.LevelSuccess, Title: "Ready for Delivery: r"}},
		{`{"type":"SYSTEM_ALERT","message":"s"}`, notify.Notice{Level: notify.LevelError, Title: "System Alert: s"}},
		{`{"type":"SOMETHING_NEW","message":"plain"}`, notify.Notice{Level: notify.LevelInfo, Title: "plain"}},
	}

	for _, tc := range cases {
		ev, err := domain.DecodeEvent([]byte(tc.body))
		require.NoError(t, err)
		assert.Equal(t, tc.want, noticeFor(ev), tc.body)
	}
}

func TestNegotiateHeartbeat(t *testing.T) {
	cases := []struct {
		local    time.Duration
		header   string
		outgoing time.Duration
		incoming time.Duration
	}{
		{4 * time.Second, "0,1000", 4 * time.Second, 0},
		{4 * time.Second, "0,10000", 10 * time.Second, 0},
		{4 * time.Second, "20000,0", 0, 20 * time.Second},
		{4 * time.Second, "1000,1000", 4 * time.Second, 4 * time.Second},
		{4 * time.Second, "0,0", 0, 0},
		{0, "1000,1000", 0, 0},
		{4 * time.Second, "garbage", 0, 0},
	}
	for _, tc := range cases {
		out, in := negotiateHeartbeat(tc.local, tc.header)
		assert.Equal(t, tc.outgoing, out, tc.header)
		assert.Equal(t, tc.incoming, in, tc.header)
	}
}
