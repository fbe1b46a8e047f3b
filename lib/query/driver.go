package query

import (
	"errors"
	"strings"
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrLexical marks a query that contains characters the scanner does not
	// recognize.
	ErrLexical = errors.New("lexical error")
	// ErrSyntax marks a query that tokenizes but does not match the grammar.
	ErrSyntax = errors.New("syntax error")
	// ErrNoLookup is returned by Execute when no value-set lookup has been
	// bound for a query that references keys.
	ErrNoLookup = errors.New("no value-set lookup bound")
)

// --------------------------------------------------------------------------
// Driver
// --------------------------------------------------------------------------

// Driver mediates between the parser and the evaluator. The intended call
// sequence is a two-phase protocol:
//
//  1. Parse the query and read Keys() to learn every key the evaluator will
//     need.
//  2. Fetch all those value sets from the cache in one batched call, bind
//     the resulting lookup with SetKeyValueSetLookup and call Execute.
//
// Binding the lookup late is what keeps query evaluation at exactly one
// cache round-trip, independent of the AST shape.
type Driver struct {
	root   Node
	lookup LookupFn
}

// NewDriver creates an empty driver. A driver handles one query and is not
// safe for concurrent use.
func NewDriver() *Driver {
	return &Driver{}
}

// Parse scans and parses the query string. An empty or blank query is valid
// and leaves the driver without a root node; Execute then yields an empty
// result. Scanner failures wrap ErrLexical, grammar failures wrap ErrSyntax.
func (d *Driver) Parse(input string) error {
	d.root = nil

	if strings.TrimSpace(input) == "" {
		return nil
	}
	if err := scan(input); err != nil {
		return err
	}
	root, err := parse(input)
	if err != nil {
		return err
	}
	d.root = root
	return nil
}

// RootNode returns the root of the parsed AST, or nil for an empty query.
func (d *Driver) RootNode() Node {
	return d.root
}

// Keys returns the deduplicated set of keys referenced by the query, in
// first-seen order.
func (d *Driver) Keys() []string {
	if d.root == nil {
		return []string{}
	}

	seen := map[string]struct{}{}
	keys := []string{}
	d.root.Keys(func(key string) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	})
	return keys
}

// SetKeyValueSetLookup binds the resolver the evaluator uses for leaf keys.
func (d *Driver) SetKeyValueSetLookup(lookup LookupFn) {
	d.lookup = lookup
}

// Execute evaluates the AST post-order and returns the resulting elements in
// first-seen order. An empty query yields an empty, non-nil slice.
func (d *Driver) Execute() ([]string, error) {
	if d.root == nil {
		return []string{}, nil
	}
	if d.lookup == nil {
		return nil, ErrNoLookup
	}
	return d.root.Eval(d.lookup), nil
}
