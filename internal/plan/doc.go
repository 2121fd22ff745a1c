// Package plan provides the relation plan tree: the top-level artifact
// exchanged between a client that builds logical plans and a remote engine
// that executes them.
//
// A Relation is the universal plan-node envelope. It carries optional
// diagnostic metadata and exactly one populated variant from a closed set.
// RelType is a sealed interface - only types in this package implement it -
// so "multiple variants set" is unrepresentable after construction and type
// switches over the variant set are exhaustive. "No variant set" remains
// representable (a nil RelType) so partially-invalid decoded plans can be
// inspected before rejection; the validator turns it into an error.
//
// Each variant declares its child arity: leaves (Read, SQL, LocalRelation,
// Range) own zero child relations, unary transforms own one, and Join and
// SetOperation own two. Project is the sole unary exception: its input may
// be absent, representing a constant-only projection with no source table.
// Every node exclusively owns its children and any expression subtrees it
// carries; the tree has no shared subnodes and no cycles.
//
// All nodes are immutable value trees once constructed. Independent trees
// may be processed concurrently with no coordination.
package plan
