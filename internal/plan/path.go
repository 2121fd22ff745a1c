package plan

import (
	"fmt"
	"strings"
)

// Step is one hop of a root-to-node path: the variant of the node being
// left, the field traversed, and the index within that field for repeated
// fields (-1 otherwise).
type Step struct {
	Variant string
	Field   string
	Index   int
}

// Path addresses a node by the ordered hops from the root. An empty path is
// the root itself. Paths appear on every decode and validation error so the
// offending node can be located without re-walking the tree.
type Path []Step

// Child extends the path by one hop. It copies, never aliases, so error
// paths stay stable while a walker keeps descending.
func (p Path) Child(variant, field string) Path {
	return p.child(Step{Variant: variant, Field: field, Index: -1})
}

// ChildIndex extends the path by one hop into a repeated field.
func (p Path) ChildIndex(variant, field string, index int) Path {
	return p.child(Step{Variant: variant, Field: field, Index: index})
}

func (p Path) child(s Step) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = s
	return out
}

// String renders the path as "root" or "root/join.left/filter.condition".
func (p Path) String() string {
	if len(p) == 0 {
		return "root"
	}
	var sb strings.Builder
	sb.WriteString("root")
	for _, s := range p {
		sb.WriteByte('/')
		sb.WriteString(s.Variant)
		sb.WriteByte('.')
		sb.WriteString(s.Field)
		if s.Index >= 0 {
			fmt.Fprintf(&sb, "[%d]", s.Index)
		}
	}
	return sb.String()
}
