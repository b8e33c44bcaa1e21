// Package catalog holds the game catalog domain model and the immutable
// point-in-time bundles the rest of the system queries. A Bundle is never
// mutated after construction; the Repository swaps whole bundles atomically.
package catalog

// Table is one lookup table from the gamedata (or a local override table)
type Table map[string]any

// Operator is one playable unit in the catalog
type Operator struct {
	ID        string
	Name      string
	EnName    string
	IndexName string // name with punctuation stripped, for loose lookups
	Number    string

	Rarity      int
	Classes     string
	ClassesSub  string
	ClassesCode string
	Type        string

	Team   string
	Group  string
	Nation string

	Trait    string
	Usage    string
	Quote    string
	MaxLevel string
	Range    string

	Tags    []string
	Talents []Talent
	Skills  []Skill
	Phases  []Phase
}

// Talent is the maxed-out candidate of one talent slot
type Talent struct {
	Name        string
	Description string
}

// SPData describes the SP economy of one skill level
type SPData struct {
	Type          string
	InitSP        int
	Cost          int
	MaxChargeTime int
	Increment     float64
}

// SkillLevel is one level (1..7 regular, 8..10 mastery) of a skill
type SkillLevel struct {
	Level        int
	Mastery      int // 0 for regular levels, 1..3 for mastery
	Name         string
	SkillType    string
	Duration     float64
	DurationType string
	Range        string
	Description  string
	SP           SPData
}

// Skill is one skill slot with all its levels
type Skill struct {
	ID     string
	Index  int // 1-based slot index
	Icon   string
	Name   string
	Levels []SkillLevel
}

// Phase is one promotion stage of an operator
type Phase struct {
	Index      int
	MaxLevel   int
	RangeID    string
	Attributes []AttributeFrame
}

// AttributeFrame is one attribute keyframe inside a phase
type AttributeFrame struct {
	Level int
	Data  map[string]any
}

// Token is a summon or deployable device owned by an operator
type Token struct {
	ID          string
	Name        string
	EnName      string
	Description string
	Classes     string
	Type        string
	Attrs       []TokenAttr
}

// TokenAttr is the per-promotion attribute block of a token
type TokenAttr struct {
	Evolve int
	Range  string
	Attr   any
}

// Bundle is an immutable snapshot of the whole catalog: domain entities plus
// the lookup indices and raw tables detail rendering needs
type Bundle struct {
	Version string

	Operators map[string]*Operator
	Tokens    map[string]*Token

	NameToID  map[string]string
	IndexToID map[string]string

	Tables map[string]Table
}

// MaxAttributes returns the attribute data of the operator's final keyframe
// (last phase, last frame), or nil when no phase data exists
func (o *Operator) MaxAttributes() map[string]any {
	if len(o.Phases) == 0 {
		return nil
	}
	frames := o.Phases[len(o.Phases)-1].Attributes
	if len(frames) == 0 {
		return nil
	}
	return frames[len(frames)-1].Data
}

// OperatorByName resolves an operator through the name index
func (b *Bundle) OperatorByName(name string) (*Operator, bool) {
	id, ok := b.NameToID[name]
	if !ok {
		return nil, false
	}
	op, ok := b.Operators[id]
	return op, ok
}

// Table returns a named table, or an empty one when absent
func (b *Bundle) Table(name string) Table {
	if t, ok := b.Tables[name]; ok && t != nil {
		return t
	}
	return Table{}
}
