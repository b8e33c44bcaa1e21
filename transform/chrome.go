package transform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/harulab/cardforge/errors"
	"github.com/harulab/cardforge/logger"
)

// browserCandidates are tried in order when no explicit path is configured
var browserCandidates = []string{
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
}

// browser is one launched Chromium with its DevTools endpoint
type browser struct {
	cmd         *exec.Cmd
	userDataDir string
	wsURL       string
}

func findBrowser(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	for _, name := range browserCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", errors.New("no chromium binary found, set transform.browser_path")
}

// launchBrowser starts a browser with an ephemeral DevTools port and waits
// for the endpoint to come up
func launchBrowser(ctx context.Context, cfg Config) (*browser, error) {
	path, err := findBrowser(cfg.BrowserPath)
	if err != nil {
		return nil, err
	}

	userDataDir, err := os.MkdirTemp("", "cardforge-browser-*")
	if err != nil {
		return nil, errors.Wrap(err, "creating browser profile dir")
	}

	args := []string{
		"--remote-debugging-port=0",
		"--user-data-dir=" + userDataDir,
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-gpu",
	}
	if cfg.Headless {
		args = append(args, "--headless=new")
	}
	args = append(args, cfg.BrowserArgs...)
	args = append(args, "about:blank")

	cmd := exec.CommandContext(ctx, path, args...)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(userDataDir)
		return nil, errors.Wrapf(err, "starting browser %s", path)
	}

	b := &browser{cmd: cmd, userDataDir: userDataDir}
	wsURL, err := b.waitForDevTools(ctx)
	if err != nil {
		b.kill()
		return nil, err
	}
	b.wsURL = wsURL
	logger.Debugw("browser launched", "path", path, "devtools", wsURL)
	return b, nil
}

// waitForDevTools polls the DevToolsActivePort file the browser writes into
// its profile directory
func (b *browser) waitForDevTools(ctx context.Context) (string, error) {
	portFile := filepath.Join(b.userDataDir, "DevToolsActivePort")
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	deadline := time.NewTimer(15 * time.Second)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			return "", errors.New("browser did not expose a devtools endpoint in time")
		case <-ticker.C:
		}

		raw, err := os.ReadFile(portFile)
		if err != nil {
			continue
		}
		lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
		if len(lines) < 2 {
			continue
		}
		port, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil || port == 0 {
			continue
		}
		return fmt.Sprintf("ws://127.0.0.1:%d%s", port, strings.TrimSpace(lines[1])), nil
	}
}

func (b *browser) kill() {
	if b.cmd.Process != nil {
		b.cmd.Process.Kill()
		b.cmd.Wait()
	}
	os.RemoveAll(b.userDataDir)
}
