package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemovePunctuation(t *testing.T) {
	assert.Equal(t, "阿米娅", RemovePunctuation("阿米娅"))
	assert.Equal(t, "阿米娅近卫", RemovePunctuation("阿米娅(近卫)"))
	assert.Equal(t, "W", RemovePunctuation("W"))
	assert.Equal(t, "Chen", RemovePunctuation("Ch'en"))
	assert.Equal(t, "", RemovePunctuation(""))
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "攻击力+50%", StripTags("<@ba.vup>攻击力+50%</>"))
	assert.Equal(t, "plain", StripTags("plain"))
	assert.Equal(t, "", StripTags(""))
}

func TestParseTemplate(t *testing.T) {
	blackboard := []map[string]any{
		{"key": "atk", "value": 0.5},
		{"key": "duration", "value": 20.0},
	}

	out := ParseTemplate(blackboard, "攻击力<@ba.vup>+{atk:0%}</>，持续{duration}秒")
	assert.Equal(t, "攻击力+50%，持续20秒", out)
}

func TestParseTemplateNegativePrefixAndUnknownKey(t *testing.T) {
	blackboard := []map[string]any{
		{"key": "def", "value": 0.3},
	}

	// The ">-{" form carries a display-only minus that the gamedata bakes
	// into the value sign already, so it is dropped before substitution.
	out := ParseTemplate(blackboard, "防御力<@ba.vdown>-{def:0%}</>与{mystery}")
	assert.Equal(t, "防御力30%与{mystery}", out)
}

func TestParseTemplateValueStrWins(t *testing.T) {
	blackboard := []map[string]any{
		{"key": "cnt", "value": 3.0, "valueStr": "三"},
	}
	assert.Equal(t, "三次", ParseTemplate(blackboard, "{cnt}次"))
}

func TestBuildRangeEmpty(t *testing.T) {
	assert.Equal(t, "无范围", BuildRange(nil))
}

func TestBuildRangeGrid(t *testing.T) {
	grids := []map[string]any{
		{"row": 0.0, "col": 0.0},
		{"row": 0.0, "col": 1.0},
		{"row": 0.0, "col": 2.0},
	}
	assert.Equal(t, "■□□\n", BuildRange(grids))
}

func TestBuildRangeNegativeOffsets(t *testing.T) {
	grids := []map[string]any{
		{"row": -1.0, "col": 1.0},
		{"row": 0.0, "col": 1.0},
		{"row": 1.0, "col": 1.0},
	}
	want := "　□\n■□\n　□\n"
	assert.Equal(t, want, BuildRange(grids))
}
