package transform

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"time"

	"github.com/harulab/cardforge/errors"
)

// Transformer converts an input artifact body into another representation
type Transformer interface {
	InputMIME() string
	OutputMIME() string
	Transform(ctx context.Context, input []byte, cfg Config) ([]byte, error)
}

// HTMLToPNG captures rendered HTML as a PNG screenshot. Each call launches a
// fresh browser so captures never share page state.
type HTMLToPNG struct{}

// NewHTMLToPNG creates the capture transformer
func NewHTMLToPNG() *HTMLToPNG {
	return &HTMLToPNG{}
}

func (t *HTMLToPNG) InputMIME() string  { return "text/html" }
func (t *HTMLToPNG) OutputMIME() string { return "image/png" }

// Transform renders the HTML and returns PNG bytes
func (t *HTMLToPNG) Transform(ctx context.Context, input []byte, cfg Config) ([]byte, error) {
	cfg = cfg.normalized()

	b, err := launchBrowser(ctx, cfg)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrTransform)
	}
	defer b.kill()

	png, err := capture(ctx, b.wsURL, input, cfg)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrTransform)
	}
	return png, nil
}

func capture(ctx context.Context, browserWS string, html []byte, cfg Config) ([]byte, error) {
	browserConn, err := newCDPClient(ctx, browserWS)
	if err != nil {
		return nil, err
	}
	defer browserConn.Close()

	var created struct {
		TargetID string `json:"targetId"`
	}
	err = browserConn.call(ctx, "Target.createTarget", map[string]any{"url": "about:blank"}, &created)
	if err != nil {
		return nil, err
	}

	page, err := newCDPClient(ctx, pageSocketURL(browserWS, created.TargetID))
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if err := page.call(ctx, "Page.enable", nil, nil); err != nil {
		return nil, err
	}
	err = page.call(ctx, "Emulation.setDeviceMetricsOverride", map[string]any{
		"width":             cfg.Viewport.Width,
		"height":            cfg.Viewport.Height,
		"deviceScaleFactor": cfg.Viewport.ScaleFactor,
		"mobile":            false,
	}, nil)
	if err != nil {
		return nil, err
	}

	if cfg.Transparent {
		err = page.call(ctx, "Emulation.setDefaultBackgroundColorOverride", map[string]any{
			"color": map[string]int{"r": 0, "g": 0, "b": 0, "a": 0},
		}, nil)
		if err != nil {
			return nil, err
		}
	}

	if err := loadContent(ctx, page, html, cfg.WaitUntil); err != nil {
		return nil, err
	}

	if cfg.ExtraWaitMs > 0 {
		select {
		case <-time.After(time.Duration(cfg.ExtraWaitMs) * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	params := map[string]any{"format": "png"}
	if cfg.FullPage {
		params["captureBeyondViewport"] = true
	}
	var shot struct {
		Data string `json:"data"`
	}
	if err := page.call(ctx, "Page.captureScreenshot", params, &shot); err != nil {
		return nil, err
	}

	png, err := base64.StdEncoding.DecodeString(shot.Data)
	if err != nil {
		return nil, errors.Wrap(err, "decoding screenshot")
	}
	return png, nil
}

// loadContent navigates the page to the HTML via a data URL and waits per
// the configured strategy
func loadContent(ctx context.Context, page *cdpClient, html []byte, waitUntil string) error {
	eventName := "Page.loadEventFired"
	switch waitUntil {
	case WaitDOMReady:
		eventName = "Page.domContentEventFired"
	case WaitNetworkIdle:
		// Lifecycle events carry the networkIdle signal.
		err := page.call(ctx, "Page.setLifecycleEventsEnabled", map[string]any{"enabled": true}, nil)
		if err != nil {
			return err
		}
		eventName = "Page.lifecycleEvent"
	}

	events, cancel := page.subscribe(eventName)
	defer cancel()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)
	if err := page.call(ctx, "Page.navigate", map[string]any{"url": dataURL}, nil); err != nil {
		return err
	}

	for {
		select {
		case raw := <-events:
			if waitUntil != WaitNetworkIdle {
				return nil
			}
			var ev struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(raw, &ev); err == nil && ev.Name == "networkIdle" {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// pageSocketURL derives the per-target socket URL from the browser-level one
func pageSocketURL(browserWS, targetID string) string {
	u, err := url.Parse(browserWS)
	if err != nil {
		return browserWS
	}
	u.Path = "/devtools/page/" + targetID
	return u.String()
}
