package transform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigNormalized(t *testing.T) {
	cfg := Config{}.normalized()
	assert.Equal(t, 900, cfg.Viewport.Width)
	assert.Equal(t, 520, cfg.Viewport.Height)
	assert.Equal(t, 2.0, cfg.Viewport.ScaleFactor)
	assert.Equal(t, WaitNetworkIdle, cfg.WaitUntil)

	cfg = Config{Viewport: Viewport{Width: 1200, Height: 800}, WaitUntil: "bogus", ExtraWaitMs: -5}.normalized()
	assert.Equal(t, 1200, cfg.Viewport.Width)
	assert.Equal(t, WaitNetworkIdle, cfg.WaitUntil)
	assert.Equal(t, 0, cfg.ExtraWaitMs)
}

func TestConfigJSONRoundTrip(t *testing.T) {
	raw := `{"viewport":{"width":640,"height":400,"deviceScaleFactor":1},"full_page":true,"wait_until":"load","transparent":true}`

	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(raw), &cfg))
	assert.Equal(t, 640, cfg.Viewport.Width)
	assert.True(t, cfg.FullPage)
	assert.True(t, cfg.Transparent)
	assert.Equal(t, WaitLoad, cfg.WaitUntil)
}

func TestPageSocketURL(t *testing.T) {
	got := pageSocketURL("ws://127.0.0.1:9222/devtools/browser/abc", "TARGET1")
	assert.Equal(t, "ws://127.0.0.1:9222/devtools/page/TARGET1", got)
}

// fakeCDP serves a scripted DevTools endpoint over a real websocket.
func fakeCDP(t *testing.T, handle func(req cdpRequest) *cdpResponse) string {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var req cdpRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if resp := handle(req); resp != nil {
				resp.ID = req.ID
				if err := conn.WriteJSON(resp); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestCDPCall(t *testing.T) {
	wsURL := fakeCDP(t, func(req cdpRequest) *cdpResponse {
		require.Equal(t, "Target.createTarget", req.Method)
		return &cdpResponse{Result: json.RawMessage(`{"targetId":"T1"}`)}
	})

	client, err := newCDPClient(context.Background(), wsURL)
	require.NoError(t, err)
	defer client.Close()

	var result struct {
		TargetID string `json:"targetId"`
	}
	err = client.call(context.Background(), "Target.createTarget", map[string]any{"url": "about:blank"}, &result)
	require.NoError(t, err)
	assert.Equal(t, "T1", result.TargetID)
}

func TestCDPCallProtocolError(t *testing.T) {
	wsURL := fakeCDP(t, func(req cdpRequest) *cdpResponse {
		return &cdpResponse{Error: &cdpError{Code: -32601, Message: "method not found"}}
	})

	client, err := newCDPClient(context.Background(), wsURL)
	require.NoError(t, err)
	defer client.Close()

	err = client.call(context.Background(), "Nope.nope", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method not found")
}

func TestCDPCallContextCancel(t *testing.T) {
	wsURL := fakeCDP(t, func(req cdpRequest) *cdpResponse {
		return nil // never answer
	})

	client, err := newCDPClient(context.Background(), wsURL)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = client.call(ctx, "Page.enable", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransformerMIMEs(t *testing.T) {
	tr := NewHTMLToPNG()
	assert.Equal(t, "text/html", tr.InputMIME())
	assert.Equal(t, "image/png", tr.OutputMIME())
}
