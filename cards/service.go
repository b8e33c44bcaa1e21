package cards

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/harulab/cardforge/errors"
	"github.com/harulab/cardforge/logger"
	"github.com/harulab/cardforge/render"
	"github.com/harulab/cardforge/transform"
)

// Service builds card artifacts on demand and caches them on disk at
// <root>/<template>/<payloadKey>/artifact.<format>. A present, non-empty
// file is a cache hit and is never rebuilt; invalidation happens by using a
// new payload key.
//
// PNG artifacts are always captured from the HTML artifact of the same
// template and payload key, so requesting png implies producing html.
type Service struct {
	cacheRoot string

	text renderers
	png  transform.Transformer

	pngDefaults transform.Config

	group singleflight.Group
}

type renderers struct {
	text render.Renderer
	html render.Renderer
	json render.Renderer
}

// NewService creates a service caching under cacheRoot. The cache directory
// is created up front so a misconfigured root fails at startup rather than
// on first use.
func NewService(cacheRoot string, loader *render.Loader, png transform.Transformer, pngDefaults transform.Config) (*Service, error) {
	if err := os.MkdirAll(cacheRoot, 0o755); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "creating cache root %s", cacheRoot), errors.ErrStorage)
	}
	return &Service{
		cacheRoot: cacheRoot,
		text: renderers{
			text: render.NewTextRenderer(loader),
			html: render.NewHTMLRenderer(loader),
			json: render.NewJSONRenderer(loader),
		},
		png:         png,
		pngDefaults: pngDefaults,
	}, nil
}

// Get returns the cached artifact for (template, payloadKey, format),
// building it first when absent. Concurrent requests for the same artifact
// share one build.
func (s *Service) Get(ctx context.Context, template, payloadKey string, payload any, params map[string]any, format Format) (*Artifact, error) {
	if err := validateKeyPart("template", template); err != nil {
		return nil, err
	}
	if err := validateKeyPart("payload key", payloadKey); err != nil {
		return nil, err
	}

	if format == FormatPNG {
		htmlArtifact, err := s.Get(ctx, template, payloadKey, payload, params, FormatHTML)
		if err != nil {
			return nil, errors.Wrap(err, "preparing html for png capture")
		}
		return s.buildCached(ctx, template, payloadKey, FormatPNG, func() ([]byte, error) {
			return s.capturePNG(ctx, template, payload, params, htmlArtifact)
		})
	}

	renderer, err := s.rendererFor(format)
	if err != nil {
		return nil, err
	}
	return s.buildCached(ctx, template, payloadKey, format, func() ([]byte, error) {
		out, err := renderer.Render(template, payload)
		if err != nil {
			return nil, err
		}
		return out.Body, nil
	})
}

// GetMany fetches several formats of the same card in one call. Formats
// default to png plus html. The build fails on the first erroring format.
func (s *Service) GetMany(ctx context.Context, template, payloadKey string, payload any, params map[string]any, formats ...Format) (map[Format]*Artifact, error) {
	if len(formats) == 0 {
		formats = []Format{FormatPNG, FormatHTML}
	}
	out := make(map[Format]*Artifact, len(formats))
	for _, f := range formats {
		a, err := s.Get(ctx, template, payloadKey, payload, params, f)
		if err != nil {
			return nil, errors.Wrapf(err, "building %s artifact", f)
		}
		out[f] = a
	}
	return out, nil
}

// buildCached is the shared fast-path / singleflight / double-check skeleton
// for every format
func (s *Service) buildCached(ctx context.Context, template, payloadKey string, format Format, build func() ([]byte, error)) (*Artifact, error) {
	artifact := &Artifact{
		Template:   template,
		PayloadKey: payloadKey,
		Format:     format,
		Path:       filepath.Join(s.cacheRoot, template, payloadKey, "artifact."+string(format)),
		MIME:       format.MIME(),
	}

	if artifact.Exists() {
		return artifact, nil
	}

	// Quote the parts so keys containing the separator cannot collide
	// across (template, payloadKey) boundaries.
	key := fmt.Sprintf("%q/%q/%s", template, payloadKey, format)
	ch := s.group.DoChan(key, func() (any, error) {
		// Double-check inside the flight: a concurrent builder may have
		// finished between the fast path and here.
		if artifact.Exists() {
			return artifact, nil
		}

		body, err := build()
		if err != nil {
			return nil, err
		}
		if err := atomicWrite(artifact.Path, body); err != nil {
			return nil, err
		}
		logger.Debugw("card artifact built",
			"template", template, "payload_key", payloadKey, "format", format)
		return artifact, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Artifact), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) capturePNG(ctx context.Context, template string, payload any, params map[string]any, htmlArtifact *Artifact) ([]byte, error) {
	html, err := htmlArtifact.Bytes()
	if err != nil {
		return nil, err
	}

	cfg, err := s.pngConfig(template, payload, params)
	if err != nil {
		return nil, err
	}

	png, err := s.png.Transform(ctx, html, cfg)
	if err != nil {
		return nil, err
	}
	if len(png) == 0 {
		return nil, errors.Mark(errors.New("transformer produced an empty image"), errors.ErrTransform)
	}
	return png, nil
}

func (s *Service) rendererFor(format Format) (render.Renderer, error) {
	switch format {
	case FormatTXT:
		return s.text.text, nil
	case FormatHTML:
		return s.text.html, nil
	case FormatJSON:
		return s.text.json, nil
	}
	return nil, errors.NewValidationf("unsupported format %q", format)
}

// atomicWrite writes through a temp file in the target directory and renames
// it into place, so readers never observe partial artifacts
func atomicWrite(path string, body []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Mark(errors.Wrapf(err, "creating artifact dir %s", dir), errors.ErrStorage)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Mark(errors.Wrap(err, "creating temp artifact"), errors.ErrStorage)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Mark(errors.Wrap(err, "writing temp artifact"), errors.ErrStorage)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Mark(errors.Wrap(err, "closing temp artifact"), errors.ErrStorage)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Mark(errors.Wrap(err, "publishing artifact"), errors.ErrStorage)
	}
	return nil
}

func validateKeyPart(what, v string) error {
	if v == "" {
		return errors.NewValidationf("%s cannot be empty", what)
	}
	if strings.ContainsAny(v, "/\\") || v == "." || v == ".." || strings.Contains(v, "..") {
		return errors.NewValidationf("%s %q must not contain path separators", what, v)
	}
	return nil
}
