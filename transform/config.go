// Package transform converts rendered markup into raster images by driving a
// headless Chromium over the DevTools protocol.
package transform

// Viewport is the emulated page size for a capture
type Viewport struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	ScaleFactor float64 `json:"deviceScaleFactor"`
}

// Config controls one HTML-to-PNG capture. The zero value is not usable
// directly; DefaultConfig supplies the baseline and per-template overrides
// are merged on top.
type Config struct {
	Viewport    Viewport `json:"viewport"`
	FullPage    bool     `json:"full_page"`
	WaitUntil   string   `json:"wait_until"`
	ExtraWaitMs int      `json:"extra_wait_ms"`
	Transparent bool     `json:"transparent"`
	Headless    bool     `json:"headless"`
	BrowserPath string   `json:"browser_path"`
	BrowserArgs []string `json:"browser_args"`
}

// Wait strategies for the capture. Load waits for the load event, DOMReady
// for DOMContentLoaded, NetworkIdle additionally waits for the network to
// settle.
const (
	WaitLoad        = "load"
	WaitDOMReady    = "domcontentloaded"
	WaitNetworkIdle = "networkidle"
)

// DefaultConfig returns the baseline capture configuration
func DefaultConfig() Config {
	return Config{
		Viewport:  Viewport{Width: 900, Height: 520, ScaleFactor: 2},
		WaitUntil: WaitNetworkIdle,
		Headless:  true,
	}
}

// normalized fills unset fields from the defaults
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Viewport.Width <= 0 {
		c.Viewport.Width = def.Viewport.Width
	}
	if c.Viewport.Height <= 0 {
		c.Viewport.Height = def.Viewport.Height
	}
	if c.Viewport.ScaleFactor <= 0 {
		c.Viewport.ScaleFactor = def.Viewport.ScaleFactor
	}
	switch c.WaitUntil {
	case WaitLoad, WaitDOMReady, WaitNetworkIdle:
	default:
		c.WaitUntil = def.WaitUntil
	}
	if c.ExtraWaitMs < 0 {
		c.ExtraWaitMs = 0
	}
	return c
}
