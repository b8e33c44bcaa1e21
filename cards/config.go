package cards

import (
	"encoding/json"

	"github.com/harulab/cardforge/errors"
	"github.com/harulab/cardforge/transform"
)

// pngConfig assembles the capture configuration for one png build. The JSON
// template of the card doubles as an optional per-template config source: a
// missing template, a render failure or a non-object payload all silently
// fall back to the service defaults. Explicit call params win over both.
func (s *Service) pngConfig(template string, payload any, params map[string]any) (transform.Config, error) {
	base := map[string]any{}
	if raw, err := json.Marshal(s.pngDefaults); err == nil {
		json.Unmarshal(raw, &base)
	}

	if tmplCfg := s.optionalTemplateConfig(template, payload); tmplCfg != nil {
		base = deepMerge(base, tmplCfg)
	}
	if params != nil {
		base = deepMerge(base, params)
	}

	raw, err := json.Marshal(base)
	if err != nil {
		return transform.Config{}, errors.Wrap(err, "assembling png config")
	}
	var cfg transform.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return transform.Config{}, errors.Wrap(err, "decoding png config")
	}
	return cfg, nil
}

func (s *Service) optionalTemplateConfig(template string, payload any) map[string]any {
	out, err := s.text.json.Render(template, payload)
	if err != nil {
		return nil
	}
	var cfg map[string]any
	if err := json.Unmarshal(out.Body, &cfg); err != nil {
		return nil
	}
	return cfg
}

// deepMerge merges override into base recursively; override wins on
// conflicts, nested objects merge key by key
func deepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		ov, vIsMap := v.(map[string]any)
		bv, baseIsMap := out[k].(map[string]any)
		if vIsMap && baseIsMap {
			out[k] = deepMerge(bv, ov)
			continue
		}
		out[k] = v
	}
	return out
}
