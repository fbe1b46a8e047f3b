package query

// --------------------------------------------------------------------------
// AST Node Types
// --------------------------------------------------------------------------

// LookupFn resolves a key reference to its value set. It is bound to the
// evaluator only after the full leaf key set of the AST is known, so that all
// sets can be fetched from the cache in one batched call.
type LookupFn func(key string) []string

// Node is one node of a parsed set-algebra expression. The tree is immutable
// after parsing and evaluated post-order exactly once.
type Node interface {
	// Keys calls collect for every key reference in the subtree. A key that
	// occurs more than once is reported once per occurrence; deduplication is
	// the caller's business.
	Keys(collect func(key string))

	// Eval computes the value set of the subtree. The result preserves
	// first-seen order and contains no duplicates.
	Eval(lookup LookupFn) []string
}

// keyNode is a leaf referencing a key whose value set is resolved lazily at
// evaluation time.
type keyNode struct {
	key string
}

func (n *keyNode) Keys(collect func(string)) {
	collect(n.key)
}

func (n *keyNode) Eval(lookup LookupFn) []string {
	return dedupe(lookup(n.key))
}

// unionNode yields all elements of the left set followed by the elements of
// the right set that were not already seen.
type unionNode struct {
	left, right Node
}

func (n *unionNode) Keys(collect func(string)) {
	n.left.Keys(collect)
	n.right.Keys(collect)
}

func (n *unionNode) Eval(lookup LookupFn) []string {
	left := n.left.Eval(lookup)
	seen := asSet(left)

	result := left
	for _, v := range n.right.Eval(lookup) {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}
	return result
}

// intersectionNode yields the elements of the left set that also occur in the
// right set, in left-set order.
type intersectionNode struct {
	left, right Node
}

func (n *intersectionNode) Keys(collect func(string)) {
	n.left.Keys(collect)
	n.right.Keys(collect)
}

func (n *intersectionNode) Eval(lookup LookupFn) []string {
	right := asSet(n.right.Eval(lookup))

	result := []string{}
	for _, v := range n.left.Eval(lookup) {
		if _, ok := right[v]; ok {
			result = append(result, v)
		}
	}
	return result
}

// differenceNode yields the elements of the left set that do not occur in the
// right set, in left-set order.
type differenceNode struct {
	left, right Node
}

func (n *differenceNode) Keys(collect func(string)) {
	n.left.Keys(collect)
	n.right.Keys(collect)
}

func (n *differenceNode) Eval(lookup LookupFn) []string {
	right := asSet(n.right.Eval(lookup))

	result := []string{}
	for _, v := range n.left.Eval(lookup) {
		if _, ok := right[v]; ok {
			continue
		}
		result = append(result, v)
	}
	return result
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func asSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
