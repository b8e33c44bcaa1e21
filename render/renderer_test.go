package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harulab/cardforge/errors"
)

func writeTemplate(t *testing.T, root, kind, filename, content string) {
	t.Helper()
	dir := filepath.Join(root, kind)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644))
}

func TestTextRenderer(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "text", "operator_basic.txt.tmpl", "干员：{{.Name}}（{{.Classes}}）")

	out, err := NewTextRenderer(NewLoader(root)).Render("operator_basic", map[string]string{
		"Name":    "阿米娅",
		"Classes": "术师",
	})
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", out.MIME)
	assert.Equal(t, "干员：阿米娅（术师）", string(out.Body))
}

func TestHTMLRendererEscapes(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "html", "operator_basic.html.tmpl", "<h1>{{.Title}}</h1>")

	out, err := NewHTMLRenderer(NewLoader(root)).Render("operator_basic", map[string]string{
		"Title": "<script>alert(1)</script>",
	})
	require.NoError(t, err)
	assert.NotContains(t, string(out.Body), "<script>")
}

func TestJSONRendererCanonicalizes(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "json", "operator_basic.json.tmpl",
		"{\n  \"name\": \"{{.Name}}\",\n  \"rarity\": {{.Rarity}}\n}\n")

	out, err := NewJSONRenderer(NewLoader(root)).Render("operator_basic", map[string]any{
		"Name":   "阿米娅",
		"Rarity": 5,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"阿米娅","rarity":5}`, string(out.Body))
}

func TestJSONRendererInvalidOutput(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "json", "broken.json.tmpl", `{"name": {{.Name}},}`)

	_, err := NewJSONRenderer(NewLoader(root)).Render("broken", map[string]string{"Name": "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRender))
	assert.Contains(t, err.Error(), "broken")
}

func TestMissingTemplateNamesPath(t *testing.T) {
	_, err := NewTextRenderer(NewLoader(t.TempDir())).Render("nope", nil)
	require.Error(t, err)
	assert.True(t, errors.IsTemplateMissing(err))
	assert.Contains(t, err.Error(), filepath.Join("text", "nope.txt.tmpl"))
}

func TestSnippetKeepsRuneBoundary(t *testing.T) {
	assert.Equal(t, "阿米娅", snippet([]byte("阿米娅"), 16))
	// 4 bytes lands inside 米; the cut backs up to the end of 阿.
	assert.Equal(t, "阿", snippet([]byte("阿米娅"), 4))
	assert.Equal(t, "ab", snippet([]byte("abc"), 2))
}

func TestRenderBestFallsBack(t *testing.T) {
	root := t.TempDir()
	loader := NewLoader(root)

	data := map[string]any{"name": "阿米娅"}

	// No templates at all: raw JSON marshal.
	body := RenderBest(NewJSONRenderer(loader), NewTextRenderer(loader), "operator_basic", data)
	assert.JSONEq(t, `{"name":"阿米娅"}`, string(body))

	// A text template takes over when the JSON one is missing.
	writeTemplate(t, root, "text", "operator_basic.txt.tmpl", "{{.name}}")
	body = RenderBest(NewJSONRenderer(loader), NewTextRenderer(loader), "operator_basic", data)
	assert.Equal(t, "阿米娅", string(body))

	// The JSON template wins once present.
	writeTemplate(t, root, "json", "operator_basic.json.tmpl", `{"n": "{{.name}}"}`)
	body = RenderBest(NewJSONRenderer(loader), NewTextRenderer(loader), "operator_basic", data)
	assert.JSONEq(t, `{"n":"阿米娅"}`, string(body))
}
