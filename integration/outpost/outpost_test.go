package outpost_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/headquarters/core/command"
	"github.com/dmitrymomot/headquarters/integration/outpost"
	"github.com/dmitrymomot/headquarters/pkg/broadcast"
	"github.com/dmitrymomot/headquarters/pkg/ratelimiter"
)

func newRegistry(t *testing.T, opts ...command.Option) *command.Registry {
	t.Helper()
	r := command.New(opts...)
	t.Cleanup(func() { _ = r.Dispose() })

	require.NoError(t, r.AddCommand(command.Define("memory").
		Executor("echo", func(_ command.ContextObject, words string) string { return words },
			command.Param("words", command.Width(1), command.Optional())).
		Executor("remember {v}", func(ctx command.ContextObject, v string) string {
			ctx.Store("v", v)
			return "ok"
		}).
		Executor("recall", func(ctx command.ContextObject) (string, error) {
			return command.Retrieve[string](ctx, "v")
		}).
		Executor("transport", func(ctx command.ContextObject) string {
			return command.RetrieveOr(ctx, outpost.TransportKey, "")
		}).
		Build()))
	return r
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, frame string) map[string]any {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
	return read(t, conn)
}

func read(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestDecodeRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want outpost.Request
	}{
		{"bare text", "echo hi", outpost.Request{Text: "echo hi"}},
		{"json", `{"id":"1","session":"s","text":"echo hi"}`, outpost.Request{ID: "1", Session: "s", Text: "echo hi"}},
		{"json with padding", "  {\"text\":\"x\"}\n", outpost.Request{Text: "x"}},
		{"broken json", `{"text":`, outpost.Request{Text: `{"text":`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, outpost.DecodeRequest([]byte(tt.in)))
		})
	}
}

func TestEncodeResponse(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		data, err := outpost.EncodeResponse(outpost.NewResponse("1", command.Success, 42))
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"1","kind":"success","output":42}`, string(data))
	})

	t.Run("failure carries error text", func(t *testing.T) {
		t.Parallel()
		data, err := outpost.EncodeResponse(outpost.NewResponse("2", command.Failure, errors.New("boom")))
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"2","kind":"failure","error":"boom"}`, string(data))
	})

	t.Run("unmarshalable output falls back to text", func(t *testing.T) {
		t.Parallel()
		data, err := outpost.EncodeResponse(outpost.NewResponse("3", command.Success, make(chan int)))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"output":"0x`)
	})

	t.Run("event", func(t *testing.T) {
		t.Parallel()
		resp := outpost.NewEventResponse(command.ResultEvent{ID: "4", Kind: command.Unhandled, Input: "nope"})
		data, err := outpost.EncodeResponse(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"4","kind":"unhandled","input":"nope"}`, string(data))
	})
}

func TestWebSocket(t *testing.T) {
	t.Parallel()

	t.Run("rejects nil dispatcher", func(t *testing.T) {
		t.Parallel()
		_, err := outpost.NewWebSocket(nil)
		assert.ErrorIs(t, err, outpost.ErrNilDispatcher)
	})

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		ws, err := outpost.NewWebSocket(newRegistry(t))
		require.NoError(t, err)
		srv := httptest.NewServer(ws)
		t.Cleanup(srv.Close)

		conn := dial(t, srv)

		resp := roundTrip(t, conn, "echo hi")
		assert.Equal(t, "success", resp["kind"])
		assert.Equal(t, "hi", resp["output"])
		assert.NotEmpty(t, resp["id"])

		resp = roundTrip(t, conn, `{"id":"req-7","text":"transport"}`)
		assert.Equal(t, "req-7", resp["id"])
		assert.Equal(t, "websocket", resp["output"])

		resp = roundTrip(t, conn, "no such thing")
		assert.Equal(t, "unhandled", resp["kind"])

		assert.Eventually(t, func() bool { return ws.Stats().Sent == 3 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, int64(3), ws.Stats().Received)
		assert.Equal(t, int64(1), ws.Stats().Connections)
	})

	t.Run("rate limit per connection", func(t *testing.T) {
		t.Parallel()
		limiter, err := ratelimiter.New(ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Hour})
		require.NoError(t, err)

		ws, err := outpost.NewWebSocket(newRegistry(t), outpost.WithWSRateLimit(limiter))
		require.NoError(t, err)
		srv := httptest.NewServer(ws)
		t.Cleanup(srv.Close)

		conn := dial(t, srv)
		assert.Equal(t, "success", roundTrip(t, conn, "echo a")["kind"])
		assert.Equal(t, "success", roundTrip(t, conn, "echo b")["kind"])

		resp := roundTrip(t, conn, "echo c")
		assert.Equal(t, "failure", resp["kind"])
		assert.Equal(t, ratelimiter.ErrRateLimitExceeded.Error(), resp["error"])

		other := dial(t, srv)
		assert.Equal(t, "success", roundTrip(t, other, "echo d")["kind"])
	})

	t.Run("connection keeps its context", func(t *testing.T) {
		t.Parallel()
		ws, err := outpost.NewWebSocket(newRegistry(t))
		require.NoError(t, err)
		srv := httptest.NewServer(ws)
		t.Cleanup(srv.Close)

		first, second := dial(t, srv), dial(t, srv)

		assert.Equal(t, "ok", roundTrip(t, first, "remember blue")["output"])
		assert.Equal(t, "blue", roundTrip(t, first, "recall")["output"])

		resp := roundTrip(t, second, "recall")
		assert.Equal(t, "failure", resp["kind"])
		assert.Contains(t, resp["error"], "context key not found")
	})

	t.Run("on connect rejection closes the connection", func(t *testing.T) {
		t.Parallel()
		ws, err := outpost.NewWebSocket(newRegistry(t),
			outpost.WithWSOnConnect(func(r *http.Request, _ command.ContextObject) error {
				if r.URL.Query().Get("token") != "secret" {
					return outpost.ErrConnectRejected
				}
				return nil
			}))
		require.NoError(t, err)
		srv := httptest.NewServer(ws)
		t.Cleanup(srv.Close)

		conn := dial(t, srv)
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err = conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	})

	t.Run("disposed registry reports failure frames", func(t *testing.T) {
		t.Parallel()
		r := newRegistry(t)
		ws, err := outpost.NewWebSocket(r)
		require.NoError(t, err)
		srv := httptest.NewServer(ws)
		t.Cleanup(srv.Close)

		conn := dial(t, srv)
		require.NoError(t, r.Dispose())

		resp := roundTrip(t, conn, "echo hi")
		assert.Equal(t, "failure", resp["kind"])
		assert.Equal(t, command.ErrRegistryDisposed.Error(), resp["error"])
	})
}

func TestMonitor(t *testing.T) {
	t.Parallel()

	events := broadcast.NewMemoryBroadcaster[command.ResultEvent](16)
	t.Cleanup(func() { _ = events.Close() })

	r := newRegistry(t, command.WithResultListener(func(e command.ResultEvent) {
		_ = events.Broadcast(context.Background(), broadcast.Message[command.ResultEvent]{Data: e})
	}))

	srv := httptest.NewServer(outpost.NewMonitor(events))
	t.Cleanup(srv.Close)

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return events.Len() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, r.HandleInput("echo watched", nil, nil))

	event := read(t, conn)
	assert.Equal(t, "success", event["kind"])
	assert.Equal(t, "echo watched", event["input"])
	assert.Equal(t, "watched", event["output"])
}
