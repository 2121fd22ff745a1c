package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathString(t *testing.T) {
	assert.Equal(t, "root", Path(nil).String())

	p := Path{}.Child("join", "left").Child("filter", "condition")
	assert.Equal(t, "root/join.left/filter.condition", p.String())

	idx := Path{}.ChildIndex("project", "expressions", 2)
	assert.Equal(t, "root/project.expressions[2]", idx.String())
}

func TestPathChildCopies(t *testing.T) {
	base := Path{}.Child("join", "left")
	a := base.Child("filter", "condition")
	b := base.Child("sort", "input")

	assert.Equal(t, "root/join.left/filter.condition", a.String())
	assert.Equal(t, "root/join.left/sort.input", b.String(),
		"sibling extension must not clobber the first branch")
}

func TestVariantName(t *testing.T) {
	assert.Equal(t, "unset", (*Relation)(nil).VariantName())
	assert.Equal(t, "unset", (&Relation{}).VariantName())
	assert.Equal(t, "limit", New(&Limit{Limit: 1}).VariantName())
}

func TestInputsArity(t *testing.T) {
	leaf := New(&SQL{Query: "select 1"})
	assert.Empty(t, leaf.Rel.Inputs())

	join := &Join{Left: leaf, Right: leaf}
	assert.Len(t, join.Inputs(), 2)

	project := &Project{}
	assert.Empty(t, project.Inputs(), "constant-only projection has no child")

	filter := &Filter{Input: leaf}
	assert.Len(t, filter.Inputs(), 1)
}
