// Package query implements the set-algebra query language of the serving
// engine: scanner, parser, AST and evaluator.
//
// A query combines key references with three set operators and parentheses:
//
//	a UNION b            a | b
//	a INTERSECTION b     a & b
//	a DIFFERENCE b       a - b
//	(a | b) & c
//
// DIFFERENCE binds tightest, then INTERSECTION, then UNION; all operators
// are left-associative. A key reference is an opaque token resolved to a
// value set at evaluation time, not at parse time. Keys containing characters
// outside [A-Za-z0-9_:./] must be double-quoted.
//
// The empty (or all-whitespace) query is valid and evaluates to the empty
// set. Unrecognized characters are lexical errors, grammar violations are
// syntax errors; both are terminal for the query with no partial result.
//
// Evaluation follows a two-phase protocol driven by the Driver:
// first the parsed AST is inspected for its full leaf key set, then the
// caller fetches all value sets in one batched cache call and binds the
// resulting lookup before executing. Results preserve first-seen order of
// the left-to-right post-order evaluation, which makes query output
// deterministic given the lexicographically ordered sets the cache returns.
package query
