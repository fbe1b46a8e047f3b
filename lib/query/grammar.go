package query

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// --------------------------------------------------------------------------
// Scanner
// --------------------------------------------------------------------------

// queryLexer tokenizes a set-algebra expression. Operator rules come before
// the key rule so that the keywords are not swallowed by it; the \b anchors
// keep keys like "UNIONIZED" intact. Keys may contain letters, digits and a
// few URL-ish characters; anything else must be double-quoted.
var queryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Union", Pattern: `UNION\b|\|`},
	{Name: "Intersect", Pattern: `INTERSECTION\b|&`},
	{Name: "Difference", Pattern: `DIFFERENCE\b|-`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Quoted", Pattern: `"[^"]*"`},
	{Name: "Key", Pattern: `[A-Za-z0-9_:./]+`},
})

// --------------------------------------------------------------------------
// Grammar (precedence: DIFFERENCE > INTERSECTION > UNION, all left-assoc)
// --------------------------------------------------------------------------

//nolint:govet // Participle struct tags are DSL, not reflect tags
type exprGrammar struct {
	Left *termGrammar `parser:"@@"`
	Rest []*unionTail `parser:"@@*"`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type unionTail struct {
	Op   string       `parser:"@Union"`
	Term *termGrammar `parser:"@@"`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type termGrammar struct {
	Left *factorGrammar   `parser:"@@"`
	Rest []*intersectTail `parser:"@@*"`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type intersectTail struct {
	Op     string         `parser:"@Intersect"`
	Factor *factorGrammar `parser:"@@"`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type factorGrammar struct {
	Left *primaryGrammar   `parser:"@@"`
	Rest []*differenceTail `parser:"@@*"`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type differenceTail struct {
	Op      string          `parser:"@Difference"`
	Primary *primaryGrammar `parser:"@@"`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type primaryGrammar struct {
	Key    *string      `parser:"@Key | @Quoted"`
	Nested *exprGrammar `parser:"| '(' @@ ')'"`
}

var queryParser = participle.MustBuild[exprGrammar](
	participle.Lexer(queryLexer),
	participle.Elide("Whitespace"),
)

// --------------------------------------------------------------------------
// Grammar -> AST Conversion
// --------------------------------------------------------------------------

func (g *exprGrammar) toNode() Node {
	node := g.Left.toNode()
	for _, tail := range g.Rest {
		node = &unionNode{left: node, right: tail.Term.toNode()}
	}
	return node
}

func (g *termGrammar) toNode() Node {
	node := g.Left.toNode()
	for _, tail := range g.Rest {
		node = &intersectionNode{left: node, right: tail.Factor.toNode()}
	}
	return node
}

func (g *factorGrammar) toNode() Node {
	node := g.Left.toNode()
	for _, tail := range g.Rest {
		node = &differenceNode{left: node, right: tail.Primary.toNode()}
	}
	return node
}

func (g *primaryGrammar) toNode() Node {
	if g.Key != nil {
		key := *g.Key
		if strings.HasPrefix(key, `"`) {
			key = strings.Trim(key, `"`)
		}
		return &keyNode{key: key}
	}
	return g.Nested.toNode()
}

// --------------------------------------------------------------------------
// Scanner / Parser Entry Points
// --------------------------------------------------------------------------

// scan runs the lexer over the full input and reports the first unrecognized
// character as a lexical error. It is a separate pass so that lexical errors
// surface distinctly from grammar errors.
func scan(input string) error {
	lx, err := queryLexer.LexString("", input)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLexical, err)
	}
	for {
		tok, err := lx.Next()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrLexical, err)
		}
		if tok.EOF() {
			return nil
		}
	}
}

// parse builds the AST for a non-empty query string.
func parse(input string) (Node, error) {
	ast, err := queryParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return ast.toNode(), nil
}
