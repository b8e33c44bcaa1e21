package catalog

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	xmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	templateRe  = regexp.MustCompile(`\{(\S+?)\}`)
	spacedashRe = regexp.MustCompile(`>-\{`)
)

// RemovePunctuation strips everything except letters, digits, underscore and
// CJK ideographs, producing the loose "index name" form of a string
func RemovePunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' ||
			(r >= 0x4e00 && r <= 0x9fff) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripTags removes markup tags such as <@ba.vup> wrappers from gamedata text
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return xmlTagRe.ReplaceAllString(s, "")
}

// ParseTemplate substitutes {key} and {key:0%} placeholders in a description
// with values from the blackboard entries, stripping markup tags along the
// way. Unknown keys are left untouched.
func ParseTemplate(blackboard []map[string]any, description string) string {
	if description == "" {
		return ""
	}

	values := make(map[string]any, len(blackboard))
	for _, item := range blackboard {
		key, _ := item["key"].(string)
		if key == "" {
			continue
		}
		if vs, ok := item["valueStr"].(string); ok && vs != "" {
			values[strings.ToLower(key)] = vs
			continue
		}
		values[strings.ToLower(key)] = item["value"]
	}

	desc := StripTags(spacedashRe.ReplaceAllString(description, ">{"))

	return templateRe.ReplaceAllStringFunc(desc, func(token string) string {
		inner := token[1 : len(token)-1]
		parts := strings.SplitN(inner, ":", 2)
		key := strings.TrimPrefix(strings.ToLower(parts[0]), "-")

		raw, ok := values[key]
		if !ok {
			return token
		}
		if len(parts) == 2 && parts[1] == "0%" {
			if f, ok := toFloat(raw); ok {
				return fmt.Sprintf("%d%%", int(math.Round(f*100)))
			}
		}
		if s, ok := raw.(string); ok {
			return s
		}
		if f, ok := toFloat(raw); ok {
			if f == math.Trunc(f) {
				return strconv.Itoa(int(f))
			}
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return fmt.Sprint(raw)
	})
}

// BuildRange renders an attack range grid as a text block. The origin tile is
// drawn as ■, covered tiles as □ and padding as full-width spaces. Empty grid
// lists yield the "no range" marker.
func BuildRange(grids []map[string]any) string {
	if len(grids) == 0 {
		return "无范围"
	}

	minRow, maxRow, minCol, maxCol := 0, 0, 0, 0
	for _, g := range grids {
		row := intField(g, "row")
		col := intField(g, "col")
		if row < minRow {
			minRow = row
		}
		if row > maxRow {
			maxRow = row
		}
		if col < minCol {
			minCol = col
		}
		if col > maxCol {
			maxCol = col
		}
	}

	const (
		empty  = "　"
		block  = "□"
		origin = "■"
	)

	height := maxRow - minRow + 1
	width := maxCol - minCol + 1
	grid := make([][]string, height)
	for i := range grid {
		grid[i] = make([]string, width)
		for j := range grid[i] {
			grid[i][j] = empty
		}
	}
	for _, g := range grids {
		grid[intField(g, "row")-minRow][intField(g, "col")-minCol] = block
	}
	grid[-minRow][-minCol] = origin

	var b strings.Builder
	for _, row := range grid {
		for _, cell := range row {
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func intField(m map[string]any, key string) int {
	n, _ := toInt(m[key])
	return n
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func floatField(m map[string]any, key string) float64 {
	f, _ := toFloat(m[key])
	return f
}
