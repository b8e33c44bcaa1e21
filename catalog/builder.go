package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// BuildBundle assembles an immutable catalog snapshot from loaded tables
func BuildBundle(l *Loader) *Bundle {
	tables := l.LoadTables()

	b := &Bundle{
		Version:   l.Version(),
		Operators: make(map[string]*Operator),
		Tokens:    make(map[string]*Token),
		NameToID:  make(map[string]string),
		IndexToID: make(map[string]string),
		Tables:    tables,
	}

	buildTokens(b)
	buildOperators(b)
	return b
}

func buildTokens(b *Bundle) {
	characterTable := b.Table("character_table")
	rangeTable := b.Table("range_table")
	tokenClasses := b.Table("token_classes")
	types := b.Table("types")

	for code, raw := range characterTable {
		data, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if !strings.HasPrefix(code, "token_") && stringField(data, "profession") != "TOKEN" {
			continue
		}

		var attrs []TokenAttr
		for evolve, ph := range mapSlice(data["phases"]) {
			attrs = append(attrs, TokenAttr{
				Evolve: evolve,
				Range:  rangeFor(rangeTable, stringField(ph, "rangeId"), "无范围"),
				Attr:   ph["attributesKeyFrames"],
			})
		}

		b.Tokens[code] = &Token{
			ID:          code,
			Name:        stringField(data, "name"),
			EnName:      stringField(data, "appellation"),
			Description: StripTags(stringField(data, "description")),
			Classes:     tokenClasses.DisplayString(stringField(data, "profession")),
			Type:        types.DisplayString(stringField(data, "position")),
			Attrs:       attrs,
		}
	}
}

func buildOperators(b *Bundle) {
	characterTable := b.Table("character_table")

	for id, raw := range characterTable {
		data, ok := raw.(map[string]any)
		if !ok || !strings.HasPrefix(id, "char_") {
			continue
		}

		op := buildOperator(b, id, data)
		b.Operators[id] = op

		if op.Name != "" {
			b.NameToID[op.Name] = id
		}
		if op.EnName != "" {
			b.NameToID[op.EnName] = id
		}
		if op.IndexName != "" {
			b.IndexToID[op.IndexName] = id
		}
	}
}

func buildOperator(b *Bundle, id string, data map[string]any) *Operator {
	classes := b.Table("classes")
	types := b.Table("types")
	teamTable := b.Table("handbook_team_table")
	rangeTable := b.Table("range_table")

	name := strings.TrimSpace(stringField(data, "name"))
	prof := stringField(data, "profession")

	op := &Operator{
		ID:          id,
		Name:        name,
		EnName:      stringField(data, "appellation"),
		IndexName:   RemovePunctuation(name),
		Number:      stringField(data, "displayNumber"),
		Rarity:      parseRarity(data["rarity"]),
		Classes:     classes.DisplayString(prof),
		ClassesCode: prof,
		ClassesSub:  subProfessionName(b, stringField(data, "subProfessionId")),
		Type:        types.DisplayString(stringField(data, "position")),
		Team:        powerName(teamTable, stringField(data, "teamId")),
		Group:       powerName(teamTable, stringField(data, "groupId")),
		Nation:      powerName(teamTable, stringField(data, "nationId")),
		Usage:       stringField(data, "itemUsage"),
		Quote:       stringField(data, "itemDesc"),
		Trait:       strings.ReplaceAll(StripTags(stringField(data, "description")), `\n`, "\n"),
	}

	op.Phases = buildPhases(data["phases"])
	if len(op.Phases) > 0 {
		last := op.Phases[len(op.Phases)-1]
		op.MaxLevel = fmt.Sprintf("%d - %d", last.Index, last.MaxLevel)
		op.Range = rangeFor(rangeTable, last.RangeID, "无范围")
	} else {
		op.Range = "无范围"
	}

	op.Tags = buildTags(b, op, data)
	op.Talents = buildTalents(data)
	op.Skills = buildSkills(b, op, data)
	return op
}

func buildPhases(raw any) []Phase {
	var phases []Phase
	for i, ph := range mapSlice(raw) {
		p := Phase{
			Index:    i,
			MaxLevel: intField(ph, "maxLevel"),
			RangeID:  stringField(ph, "rangeId"),
		}
		for _, kf := range mapSlice(ph["attributesKeyFrames"]) {
			frame := AttributeFrame{Level: intField(kf, "level")}
			if d, ok := kf["data"].(map[string]any); ok {
				frame.Data = d
			}
			p.Attributes = append(p.Attributes, frame)
		}
		phases = append(phases, p)
	}
	return phases
}

func buildTags(b *Bundle, op *Operator, data map[string]any) []string {
	var tags []string
	if list, ok := data["tagList"].([]any); ok {
		for _, t := range list {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
	}
	tags = append(tags, op.Classes, op.Type)
	rarityTags := b.Table("rarity_tags")
	if t, ok := rarityTags[strconv.Itoa(op.Rarity)].(string); ok {
		tags = append(tags, t)
	}
	return tags
}

func buildTalents(data map[string]any) []Talent {
	var talents []Talent
	for _, item := range mapSlice(data["talents"]) {
		cand := mapSlice(item["candidates"])
		if len(cand) == 0 {
			continue
		}
		best := cand[len(cand)-1]
		talents = append(talents, Talent{
			Name:        stringField(best, "name"),
			Description: StripTags(stringField(best, "description")),
		})
	}
	return talents
}

func buildSkills(b *Bundle, op *Operator, data map[string]any) []Skill {
	skillTable := b.Table("skill_table")
	rangeTable := b.Table("range_table")

	var skills []Skill
	for sidx, sk := range mapSlice(data["skills"]) {
		sid := stringField(sk, "skillId")
		if sid == "" {
			continue
		}
		detail, ok := skillTable[sid].(map[string]any)
		if !ok {
			continue
		}
		rawLevels := mapSlice(detail["levels"])
		if len(rawLevels) == 0 {
			continue
		}

		icon := stringField(detail, "iconId")
		if icon == "" {
			icon = sid
		}

		skill := Skill{
			ID:    sid,
			Index: sidx + 1,
			Icon:  icon,
			Name:  stringField(rawLevels[0], "name"),
		}

		for i, lev := range rawLevels {
			levelNo := i + 1
			mastery := 0
			if levelNo >= 8 {
				mastery = levelNo - 7
			}

			desc := stringField(lev, "description")
			if desc != "" {
				desc = ParseTemplate(mapSlice(lev["blackboard"]), desc)
			}
			desc = strings.ReplaceAll(StripTags(desc), `\n`, "\n")

			// Skill range falls back to the operator's own range unless the
			// level carries a resolvable rangeId of its own.
			skillRange := rangeFor(rangeTable, stringField(lev, "rangeId"), op.Range)

			sp := SPData{}
			if spd, ok := lev["spData"].(map[string]any); ok {
				sp = SPData{
					Type:          spTypeString(spd["spType"]),
					InitSP:        intField(spd, "initSp"),
					Cost:          intField(spd, "spCost"),
					MaxChargeTime: intField(spd, "maxChargeTime"),
					Increment:     floatField(spd, "increment"),
				}
			}

			skill.Levels = append(skill.Levels, SkillLevel{
				Level:        levelNo,
				Mastery:      mastery,
				Name:         stringField(lev, "name"),
				SkillType:    enumString(lev["skillType"]),
				Duration:     floatField(lev, "duration"),
				DurationType: enumString(lev["durationType"]),
				Range:        skillRange,
				Description:  desc,
				SP:           sp,
			})
		}

		skills = append(skills, skill)
	}
	return skills
}

// parseRarity handles both the "TIER_5" enum form and the legacy 0-based
// integer form
func parseRarity(raw any) int {
	switch v := raw.(type) {
	case string:
		parts := strings.Split(v, "_")
		if n, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			return n
		}
		return 0
	case float64:
		return int(v) + 1
	case int:
		return v + 1
	}
	return 0
}

func subProfessionName(b *Bundle, subProfID string) string {
	uniequip := b.Table("uniequip_table")
	subDict, ok := uniequip["subProfDict"].(map[string]any)
	if !ok {
		return "未知"
	}
	entry, ok := subDict[subProfID].(map[string]any)
	if !ok {
		return "未知"
	}
	if name := stringField(entry, "subProfessionName"); name != "" {
		return name
	}
	return "未知"
}

func powerName(teamTable Table, id string) string {
	if id == "" {
		return "未知"
	}
	entry, ok := teamTable[id].(map[string]any)
	if !ok {
		return "未知"
	}
	if name := stringField(entry, "powerName"); name != "" {
		return name
	}
	return "未知"
}

func rangeFor(rangeTable Table, rangeID, fallback string) string {
	if rangeID == "" {
		return fallback
	}
	entry, ok := rangeTable[rangeID].(map[string]any)
	if !ok {
		return fallback
	}
	grids := mapSlice(entry["grids"])
	if len(grids) == 0 {
		return fallback
	}
	return BuildRange(grids)
}

// spTypeString keeps numeric sp types in their canonical integer spelling so
// display-table lookups hit
func spTypeString(v any) string {
	if n, ok := toInt(v); ok {
		if _, isStr := v.(string); !isStr {
			return strconv.Itoa(n)
		}
	}
	return enumString(v)
}

func enumString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.Itoa(int(s))
	case int:
		return strconv.Itoa(s)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func mapSlice(raw any) []map[string]any {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
