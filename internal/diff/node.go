package diff

// NodeKind classifies a value-tree node once, up front, so the traversal
// never has to re-inspect shape.
type NodeKind int

const (
	// KindLeaf is a mapping that wraps a single datum ({"value": ..., ...}).
	KindLeaf NodeKind = iota
	// KindMapping is a mapping of named children.
	KindMapping
	// KindSequence is an ordered list of children.
	KindSequence
	// KindScalar is a bare string, number, boolean, or null.
	KindScalar
)

// Node is the tagged classification of one value-tree position.
type Node struct {
	Kind    NodeKind
	Mapping map[string]any
	Seq     []any
	Scalar  any
}

// Classify inspects a decoded JSON value and tags it. A mapping containing a
// "value" key is a leaf field; any other mapping is a container.
func Classify(v any) Node {
	switch t := v.(type) {
	case map[string]any:
		if _, ok := t["value"]; ok {
			return Node{Kind: KindLeaf, Mapping: t}
		}
		return Node{Kind: KindMapping, Mapping: t}
	case []any:
		return Node{Kind: KindSequence, Seq: t}
	default:
		return Node{Kind: KindScalar, Scalar: v}
	}
}

// LeafValue extracts the comparable datum at a leaf position. A wrapped leaf
// yields its "value" entry; a bare scalar stands for itself. This lets the
// differ work uniformly whether the extraction wrapped the field or not.
func LeafValue(v any) any {
	if m, ok := v.(map[string]any); ok {
		return m["value"]
	}
	return v
}
