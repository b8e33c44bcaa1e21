package cards

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harulab/cardforge/errors"
	"github.com/harulab/cardforge/render"
	"github.com/harulab/cardforge/transform"
)

type fakeTransformer struct {
	mu      sync.Mutex
	calls   int
	lastCfg transform.Config
	delay   time.Duration
	fail    error
}

func (f *fakeTransformer) InputMIME() string  { return "text/html" }
func (f *fakeTransformer) OutputMIME() string { return "image/png" }

func (f *fakeTransformer) Transform(ctx context.Context, input []byte, cfg transform.Config) ([]byte, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastCfg = cfg
	if f.fail != nil {
		return nil, f.fail
	}
	return []byte("PNG:" + string(input)), nil
}

func (f *fakeTransformer) stats() (int, transform.Config) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.lastCfg
}

type fixture struct {
	svc         *Service
	transformer *fakeTransformer
	templates   string
	cache       string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	templates := t.TempDir()
	cache := filepath.Join(t.TempDir(), "cards")

	tr := &fakeTransformer{}
	svc, err := NewService(cache, render.NewLoader(templates), tr, transform.DefaultConfig())
	require.NoError(t, err)
	return &fixture{svc: svc, transformer: tr, templates: templates, cache: cache}
}

func (f *fixture) writeTemplate(t *testing.T, kind, filename, content string) {
	t.Helper()
	dir := filepath.Join(f.templates, kind)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644))
}

func TestTextArtifactBuildAndCacheHit(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "text", "card.txt.tmpl", "名称：{{.name}}")
	ctx := context.Background()

	a, err := f.svc.Get(ctx, "card", "amiya:v1", map[string]any{"name": "阿米娅"}, nil, FormatTXT)
	require.NoError(t, err)

	text, err := a.Text()
	require.NoError(t, err)
	assert.Equal(t, "名称：阿米娅", text)

	// Cache hit: the template can disappear and the artifact still serves.
	require.NoError(t, os.Remove(filepath.Join(f.templates, "text", "card.txt.tmpl")))
	again, err := f.svc.Get(ctx, "card", "amiya:v1", nil, nil, FormatTXT)
	require.NoError(t, err)
	assert.Equal(t, a.Path, again.Path)
}

func TestNewPayloadKeyRebuilds(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "text", "card.txt.tmpl", "{{.name}}")
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "card", "amiya:v1", map[string]any{"name": "v1"}, nil, FormatTXT)
	require.NoError(t, err)

	b, err := f.svc.Get(ctx, "card", "amiya:v2", map[string]any{"name": "v2"}, nil, FormatTXT)
	require.NoError(t, err)

	text, err := b.Text()
	require.NoError(t, err)
	assert.Equal(t, "v2", text)
}

func TestPNGRequiresHTMLTemplate(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "text", "card.txt.tmpl", "text only")

	_, err := f.svc.Get(context.Background(), "card", "k1", nil, nil, FormatPNG)
	require.Error(t, err)
	assert.True(t, errors.IsTemplateMissing(err))

	calls, _ := f.transformer.stats()
	assert.Zero(t, calls, "transformer must not run without html")
}

func TestPNGProducesHTMLArtifactToo(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "html", "card.html.tmpl", "<b>{{.name}}</b>")
	ctx := context.Background()

	png, err := f.svc.Get(ctx, "card", "k1", map[string]any{"name": "Amiya"}, nil, FormatPNG)
	require.NoError(t, err)

	raw, err := png.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "PNG:<b>Amiya</b>", string(raw))

	htmlPath := filepath.Join(f.cache, "card", "k1", "artifact.html")
	assert.FileExists(t, htmlPath)
}

func TestMissingTXTTemplateDoesNotBlockHTML(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "html", "card.html.tmpl", "<i>x</i>")

	_, err := f.svc.Get(context.Background(), "card", "k1", nil, nil, FormatHTML)
	assert.NoError(t, err, "formats that were not requested must not be required")
}

func TestOptionalConfigTemplate(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "html", "card.html.tmpl", "<b>x</b>")
	f.writeTemplate(t, "json", "card.json.tmpl",
		`{"viewport": {"width": 1280}, "transparent": true}`)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "card", "k1", map[string]any{}, nil, FormatPNG)
	require.NoError(t, err)

	_, cfg := f.transformer.stats()
	assert.Equal(t, 1280, cfg.Viewport.Width)
	assert.Equal(t, 520, cfg.Viewport.Height, "unset nested fields keep defaults")
	assert.True(t, cfg.Transparent)
}

func TestMissingConfigTemplateUsesDefaults(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "html", "card.html.tmpl", "<b>x</b>")

	_, err := f.svc.Get(context.Background(), "card", "k1", nil, nil, FormatPNG)
	require.NoError(t, err)

	_, cfg := f.transformer.stats()
	assert.Equal(t, 900, cfg.Viewport.Width)
}

func TestParamsOverrideTemplateConfig(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "html", "card.html.tmpl", "<b>x</b>")
	f.writeTemplate(t, "json", "card.json.tmpl", `{"viewport": {"width": 1280}}`)

	params := map[string]any{"viewport": map[string]any{"width": 640}}
	_, err := f.svc.Get(context.Background(), "card", "k1", nil, params, FormatPNG)
	require.NoError(t, err)

	_, cfg := f.transformer.stats()
	assert.Equal(t, 640, cfg.Viewport.Width)
}

func TestConcurrentBuildsShareOneFlight(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "html", "card.html.tmpl", "<b>x</b>")
	f.transformer.delay = 50 * time.Millisecond
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Get(ctx, "card", "k1", nil, nil, FormatPNG)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	calls, _ := f.transformer.stats()
	assert.Equal(t, 1, calls, "concurrent identical requests must share one transform")
}

func TestColonsInKeyPartsDoNotCollideFlights(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "html", "t.html.tmpl", "AAA")
	f.writeTemplate(t, "html", "t:p.html.tmpl", "BBB")
	f.transformer.delay = 50 * time.Millisecond
	ctx := context.Background()

	// ("t", "p:q") and ("t:p", "q") are distinct cache keys even though a
	// naive colon join of their parts is identical.
	var wg sync.WaitGroup
	var a, b *Artifact
	var errA, errB error
	wg.Add(2)
	go func() {
		defer wg.Done()
		a, errA = f.svc.Get(ctx, "t", "p:q", nil, nil, FormatPNG)
	}()
	go func() {
		defer wg.Done()
		b, errB = f.svc.Get(ctx, "t:p", "q", nil, nil, FormatPNG)
	}()
	wg.Wait()

	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.NotEqual(t, a.Path, b.Path)

	rawA, err := a.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "PNG:AAA", string(rawA))

	rawB, err := b.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "PNG:BBB", string(rawB))

	calls, _ := f.transformer.stats()
	assert.Equal(t, 2, calls, "distinct keys must each run their own transform")
}

func TestPollerNeverSeesPartialArtifact(t *testing.T) {
	f := newFixture(t)
	body := strings.Repeat("x", 1<<16)
	f.writeTemplate(t, "html", "card.html.tmpl", body)
	f.transformer.delay = 50 * time.Millisecond

	path := filepath.Join(f.cache, "card", "k1", "artifact.png")
	want := len("PNG:") + len(body)

	done := make(chan struct{})
	var partials int64
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			if raw, err := os.ReadFile(path); err == nil && len(raw) != want {
				atomic.AddInt64(&partials, 1)
			}
		}
	}()

	a, err := f.svc.Get(context.Background(), "card", "k1", nil, nil, FormatPNG)
	close(done)
	require.NoError(t, err)

	raw, err := a.Bytes()
	require.NoError(t, err)
	assert.Len(t, raw, want)
	assert.Zero(t, atomic.LoadInt64(&partials), "a reader must only ever see the complete artifact")
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "html", "card.html.tmpl", "<b>x</b>")

	_, err := f.svc.Get(context.Background(), "card", "k1", nil, nil, FormatPNG)
	require.NoError(t, err)

	var leftovers []string
	filepath.Walk(f.cache, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && strings.Contains(info.Name(), ".tmp") {
			leftovers = append(leftovers, path)
		}
		return nil
	})
	assert.Empty(t, leftovers)
}

func TestFailedTransformWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "html", "card.html.tmpl", "<b>x</b>")
	f.transformer.fail = errors.Mark(errors.New("browser crashed"), errors.ErrTransform)

	_, err := f.svc.Get(context.Background(), "card", "k1", nil, nil, FormatPNG)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(f.cache, "card", "k1", "artifact.png"))

	// The html artifact built before the failing capture stays usable.
	assert.FileExists(t, filepath.Join(f.cache, "card", "k1", "artifact.html"))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"png": FormatPNG, ".PNG": FormatPNG, " txt ": FormatTXT, "Json": FormatJSON,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("webp")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestPathTraversalRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), "../evil", "k", nil, nil, FormatTXT)
	assert.True(t, errors.IsValidation(err))

	_, err = f.svc.Get(context.Background(), "card", "a/b", nil, nil, FormatTXT)
	assert.True(t, errors.IsValidation(err))

	_, err = f.svc.Get(context.Background(), "", "k", nil, nil, FormatTXT)
	assert.True(t, errors.IsValidation(err))
}

func TestGetManyDefaults(t *testing.T) {
	f := newFixture(t)
	f.writeTemplate(t, "html", "card.html.tmpl", "<b>x</b>")

	out, err := f.svc.GetMany(context.Background(), "card", "k1", nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, FormatPNG)
	assert.Contains(t, out, FormatHTML)
}
