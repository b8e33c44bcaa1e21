// Package profile assembles structured query results for card rendering:
// operator overviews and per-skill sheets, with display names resolved
// through the bundle's lookup tables.
package profile

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/harulab/cardforge/catalog"
	"github.com/harulab/cardforge/errors"
	"github.com/harulab/cardforge/glossary"
)

// QueryResult is the renderer-facing shape of one answered query
type QueryResult struct {
	Type  string         `json:"type"`
	Key   string         `json:"key"`
	Title string         `json:"title"`
	Data  map[string]any `json:"data"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// AttrRow is one display row of the attribute block
type AttrRow struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Value any    `json:"value"`
	Unit  string `json:"unit"`
}

// TalentRow is one display row of the talent block
type TalentRow struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Desc  string `json:"desc"`
}

// Basic builds the overview profile of an operator resolved by display name
func Basic(b *catalog.Bundle, name, prefix string) (*QueryResult, error) {
	queryName := prefix + name
	op, ok := b.OperatorByName(queryName)
	if !ok {
		return nil, errors.NewNotFoundf("no operator named %s", queryName)
	}

	attrsTable := b.Table("attrs")
	unitTable := b.Table("attrs_unit")
	maxAttrs := op.MaxAttributes()

	var attrs []AttrRow
	for _, key := range catalog.AttrsOrder() {
		value, ok := maxAttrs[key]
		if !ok {
			continue
		}
		attrs = append(attrs, AttrRow{
			Key:   key,
			Name:  attrsTable.DisplayString(key),
			Value: value,
			Unit:  unitTable.DisplayString(key),
		})
	}

	var talents []TalentRow
	for i, t := range op.Talents {
		if t.Name == "" {
			continue
		}
		talents = append(talents, TalentRow{Index: i + 1, Name: t.Name, Desc: t.Description})
	}

	used := glossary.MarkUsedTerms(b, op.Classes)
	used = append(used, glossary.MarkUsedTerms(b, op.ClassesSub)...)
	used = dedup(used)
	sort.Strings(used)

	return &QueryResult{
		Type:  "operator.basic",
		Key:   op.ID,
		Title: op.Name,
		Data: map[string]any{
			"operator_id":    op.ID,
			"query_name":     queryName,
			"name":           op.Name,
			"en_name":        op.EnName,
			"rarity":         op.Rarity,
			"profession":     op.Classes,
			"sub_profession": op.ClassesSub,
			"desc":           op.Trait,
			"group":          op.Group,
			"range":          op.Range,
			"max_level":      op.MaxLevel,
			"attrs":          attrs,
			"talents":        talents,
			"glossary_used":  used,
		},
	}, nil
}

// Skill builds the sheet of one skill at one level. Index is 1-based; level
// runs 1..10 with 8..10 being the mastery stages.
func Skill(b *catalog.Bundle, op *catalog.Operator, index, level int) (*QueryResult, error) {
	if index < 1 {
		return nil, errors.NewValidationf("skill index must be >= 1, got %d", index)
	}
	if level < 1 || level > 10 {
		return nil, errors.NewValidationf("skill level must be in 1..10, got %d", level)
	}
	if len(op.Skills) < index {
		return nil, errors.NewNotFoundf("%s has no skill %d", op.Name, index)
	}

	sk := op.Skills[index-1]
	var chosen *catalog.SkillLevel
	for i := range sk.Levels {
		if sk.Levels[i].Level == level {
			chosen = &sk.Levels[i]
			break
		}
	}
	if chosen == nil {
		return nil, errors.NewNotFoundf("skill %q of %s cannot reach level %d", sk.Name, op.Name, level)
	}

	spTypeTable := b.Table("sp_type")
	skillTypeTable := b.Table("skill_type")
	levelTable := b.Table("skill_level")

	levelText := strconv.Itoa(level)
	if level >= 8 {
		levelText = levelTable.DisplayString(levelText)
	}

	return &QueryResult{
		Type:  "operator.skill",
		Key:   fmt.Sprintf("%s:skill%d:lv%d", op.ID, index, level),
		Title: fmt.Sprintf("%s - %s", op.Name, sk.Name),
		Data: map[string]any{
			"operator_id":   op.ID,
			"operator_name": op.Name,
			"skill_index":   index,
			"skill_name":    sk.Name,
			"skill_icon":    sk.Icon,
		},
		Meta: map[string]any{
			"level":           level,
			"level_text":      levelText,
			"mastery":         chosen.Mastery,
			"range":           chosen.Range,
			"sp_type_text":    spTypeTable.DisplayString(chosen.SP.Type),
			"skill_type_text": skillTypeTable.DisplayString(chosen.SkillType),
			"sp_cost":         chosen.SP.Cost,
			"init_sp":         chosen.SP.InitSP,
			"duration":        chosen.Duration,
			"description":     chosen.Description,
		},
	}, nil
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
