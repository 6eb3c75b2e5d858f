package devapi

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/restaurant-backoffice/internal/realtime"
)

func dialBroker(t *testing.T, ts *httptest.Server) realtime.Conn {
	t.Helper()
	endpoint, err := realtime.EndpointURL(ts.URL, "/ws")
	require.NoError(t, err)
	conn, err := realtime.WebsocketDialer{}.Dial(context.Background(), endpoint, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func nextFrame(t *testing.T, conn realtime.Conn) *frame.Frame {
	t.Helper()
	for {
		f, err := conn.ReadFrame()
		require.NoError(t, err)
		if f != nil {
			return f
		}
	}
}

func TestBrokerHandshakeAndEntitlement(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	token := login(t, srv, "kitchen", "kitchen123").Token

	conn := dialBroker(t, ts)
	require.NoError(t, conn.WriteFrame(frame.New(frame.CONNECT,
		frame.AcceptVersion, "1.2",
		frame.HeartBeat, "0,0",
		"Authorization", "Bearer "+token)))

	connected := nextFrame(t, conn)
	require.Equal(t, frame.CONNECTED, connected.Command)
	assert.Equal(t, "1.2", connected.Header.Get(frame.Version))

	require.NoError(t, conn.WriteFrame(frame.New(frame.SUBSCRIBE,
		frame.Id, "sub-0",
		frame.Destination, realtime.TopicDeliveryStaff)))

	refused := nextFrame(t, conn)
	assert.Equal(t, frame.ERROR, refused.Command)
	assert.Contains(t, refused.Header.Get(frame.Message), realtime.TopicDeliveryStaff)
}

func TestBrokerRejectsMissingCredentials(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn := dialBroker(t, ts)
	require.NoError(t, conn.WriteFrame(frame.New(frame.CONNECT, frame.AcceptVersion, "1.2")))

	f := nextFrame(t, conn)
	assert.Equal(t, frame.ERROR, f.Command)
	assert.Zero(t, srv.Broker().Sessions())
}
