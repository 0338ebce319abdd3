package tools_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/becomeliminal/nim-memory/tools"
)

func TestWithThoughtDoesNotMutate(t *testing.T) {
	base := tools.ObjectSchema(map[string]any{
		"query": tools.StringProperty("q"),
	}, "query")

	got := tools.WithThought(base, true)

	gt.Map(t, got["properties"].(map[string]any)).HasKey("thought")
	gt.A(t, got["required"].([]string)).Length(2)

	props := base["properties"].(map[string]any)
	_, leaked := props["thought"]
	gt.False(t, leaked)
	gt.A(t, base["required"].([]string)).Length(1)
}

func TestWithThoughtOptional(t *testing.T) {
	got := tools.BuildSchemaWithThought(map[string]any{}, false)
	gt.Map(t, got["properties"].(map[string]any)).HasKey("thought")
	_, ok := got["required"]
	gt.False(t, ok)
}

func TestRangeProperties(t *testing.T) {
	p := tools.IntegerRangeProperty("limit", 1, 20)
	gt.Equal(t, p["type"], any("integer"))
	gt.Equal(t, p["minimum"], any(1))
	gt.Equal(t, p["maximum"], any(20))

	e := tools.StringEnumProperty("status", "active", "done")
	gt.A(t, e["enum"].([]string)).Length(2)
}
