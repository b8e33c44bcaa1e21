package catalog

// Built-in display tables. These carry the Chinese display names the gamedata
// itself encodes only as enum-like codes. Local override tables with the same
// name replace these defaults wholesale.

var defaultClasses = Table{
	"PIONEER": "先锋",
	"WARRIOR": "近卫",
	"TANK":    "重装",
	"SNIPER":  "狙击",
	"CASTER":  "术师",
	"MEDIC":   "医疗",
	"SUPPORT": "辅助",
	"SPECIAL": "特种",
}

var defaultTokenClasses = Table{
	"TOKEN": "召唤物",
	"TRAP":  "装置",
}

var defaultTypes = Table{
	"ALL":    "不限部署位",
	"MELEE":  "近战位",
	"RANGED": "远程位",
}

var defaultRarityTags = Table{
	"5": "资深干员",
	"6": "高级资深干员",
}

// spType appears both as legacy numeric codes and as enum strings depending
// on the gamedata vintage, so both spellings are mapped
var defaultSPType = Table{
	"1":                          "自动回复",
	"2":                          "攻击回复",
	"4":                          "受击回复",
	"8":                          "部署回复",
	"INCREASE_WITH_TIME":         "自动回复",
	"INCREASE_WHEN_ATTACK":       "攻击回复",
	"INCREASE_WHEN_TAKEN_DAMAGE": "受击回复",
	"ON_DEPLOY":                  "部署回复",
}

var defaultSkillType = Table{
	"0":       "被动",
	"1":       "手动触发",
	"2":       "自动触发",
	"PASSIVE": "被动",
	"MANUAL":  "手动触发",
	"AUTO":    "自动触发",
}

var defaultSkillLevel = Table{
	"8":  "专精一",
	"9":  "专精二",
	"10": "专精三",
}

var defaultAttrs = Table{
	"maxHp":           "生命上限",
	"atk":             "攻击",
	"def":             "防御",
	"magicResistance": "法术抗性",
	"cost":            "部署费用",
	"blockCnt":        "阻挡数",
	"baseAttackTime":  "攻击间隔",
	"respawnTime":     "再部署时间",
}

var defaultAttrsUnit = Table{
	"magicResistance": "%",
	"baseAttackTime":  "秒",
	"respawnTime":     "秒",
}

// attrsOrder fixes a display order for attribute rows; map iteration alone
// would shuffle them between renders
var attrsOrder = []string{
	"maxHp", "atk", "def", "magicResistance",
	"cost", "blockCnt", "baseAttackTime", "respawnTime",
}

func defaultTables() map[string]Table {
	return map[string]Table{
		"classes":       defaultClasses,
		"token_classes": defaultTokenClasses,
		"types":         defaultTypes,
		"rarity_tags":   defaultRarityTags,
		"sp_type":       defaultSPType,
		"skill_type":    defaultSkillType,
		"skill_level":   defaultSkillLevel,
		"attrs":         defaultAttrs,
		"attrs_unit":    defaultAttrsUnit,
	}
}

// AttrsOrder returns the canonical display order for attribute keys
func AttrsOrder() []string {
	out := make([]string, len(attrsOrder))
	copy(out, attrsOrder)
	return out
}

// DisplayString looks a code up in a display table, falling back to the code
// itself when unmapped
func (t Table) DisplayString(code string) string {
	if v, ok := t[code]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return code
}
