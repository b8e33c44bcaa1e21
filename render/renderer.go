package render

import (
	"bytes"
	"encoding/json"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"unicode/utf8"

	"github.com/harulab/cardforge/errors"
)

// Output is one rendered artifact body with its content type
type Output struct {
	MIME string
	Body []byte
}

// Renderer produces one output flavor from a template name and its data
type Renderer interface {
	Kind() string
	Render(name string, data any) (Output, error)
}

// funcs are the helpers available inside every template
var funcs = texttemplate.FuncMap{
	"json": func(v any) (string, error) {
		raw, err := json.Marshal(v)
		return string(raw), err
	},
	"nl2br": func(s string) string {
		return strings.ReplaceAll(s, "\n", "<br>")
	},
}

// TextRenderer renders plain-text templates from <root>/text
type TextRenderer struct {
	loader *Loader
}

func NewTextRenderer(loader *Loader) *TextRenderer {
	return &TextRenderer{loader: loader}
}

func (r *TextRenderer) Kind() string { return "text" }

func (r *TextRenderer) Render(name string, data any) (Output, error) {
	body, err := executeText(r.loader, "text", name, "txt", data)
	if err != nil {
		return Output{}, err
	}
	return Output{MIME: "text/plain; charset=utf-8", Body: body}, nil
}

// HTMLRenderer renders markup templates from <root>/html with contextual
// escaping
type HTMLRenderer struct {
	loader *Loader
}

func NewHTMLRenderer(loader *Loader) *HTMLRenderer {
	return &HTMLRenderer{loader: loader}
}

func (r *HTMLRenderer) Kind() string { return "html" }

func (r *HTMLRenderer) Render(name string, data any) (Output, error) {
	src, relpath, err := r.loader.Load("html", name, "html")
	if err != nil {
		return Output{}, err
	}

	tmpl, err := htmltemplate.New(relpath).Funcs(htmltemplate.FuncMap(funcs)).Parse(src)
	if err != nil {
		return Output{}, errors.Mark(errors.Wrapf(err, "parsing template %s", relpath), errors.ErrRender)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Output{}, errors.Mark(errors.Wrapf(err, "executing template %s", relpath), errors.ErrRender)
	}
	return Output{MIME: "text/html; charset=utf-8", Body: buf.Bytes()}, nil
}

// JSONRenderer renders templates from <root>/json whose output must parse as
// JSON. The parsed value is re-marshaled so callers always receive canonical
// JSON regardless of template whitespace.
type JSONRenderer struct {
	loader *Loader
}

func NewJSONRenderer(loader *Loader) *JSONRenderer {
	return &JSONRenderer{loader: loader}
}

func (r *JSONRenderer) Kind() string { return "json" }

func (r *JSONRenderer) Render(name string, data any) (Output, error) {
	body, err := executeText(r.loader, "json", name, "json", data)
	if err != nil {
		return Output{}, err
	}

	rendered := bytes.TrimSpace(body)
	var payload any
	if err := json.Unmarshal(rendered, &payload); err != nil {
		return Output{}, errors.Mark(
			errors.Wrapf(err, "template json/%s rendered invalid JSON, first bytes: %s",
				name, snippet(rendered, 500)),
			errors.ErrRender)
	}
	canonical, err := json.Marshal(payload)
	if err != nil {
		return Output{}, errors.Mark(errors.Wrap(err, "re-marshaling payload"), errors.ErrRender)
	}
	return Output{MIME: "application/json; charset=utf-8", Body: canonical}, nil
}

// RenderBest tries the JSON renderer first, then the text renderer, and
// finally falls back to marshaling the data directly. Rendering never fails
// the caller; the raw JSON form is always expressible.
func RenderBest(jsonRenderer, textRenderer Renderer, name string, data any) []byte {
	if jsonRenderer != nil {
		if out, err := jsonRenderer.Render(name, data); err == nil {
			return out.Body
		}
	}
	if textRenderer != nil {
		if out, err := textRenderer.Render(name, data); err == nil {
			return out.Body
		}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return []byte(`{"error":"render failed"}`)
	}
	return raw
}

func executeText(loader *Loader, kind, name, ext string, data any) ([]byte, error) {
	src, relpath, err := loader.Load(kind, name, ext)
	if err != nil {
		return nil, err
	}
	tmpl, err := texttemplate.New(relpath).Funcs(funcs).Parse(src)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parsing template %s", relpath), errors.ErrRender)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "executing template %s", relpath), errors.ErrRender)
	}
	return buf.Bytes(), nil
}

// snippet truncates to at most n bytes without splitting a rune
func snippet(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n])
}
