// Package formula parses and evaluates the arithmetic rule expressions
// written by product administrators. The grammar is deliberately narrow:
// + - * /, parentheses, numeric literals, variable references, a single
// conditional form `cond ? a : b` whose condition is one comparison, and
// the whitelisted calls min, max and round. There is no assignment, no
// looping and no user-defined functions, so a rule author cannot make an
// expression that fails to terminate or touches anything outside its
// bindings. All arithmetic runs on decimals, never floats.
package formula

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// divisionScale is the number of fractional digits kept by division.
// Intermediate precision is only collapsed by the breakdown rounding.
const divisionScale = 12

// arity of the whitelisted functions
var functions = map[string]int{
	"min":   2,
	"max":   2,
	"round": 1,
}

// Parsed is a compiled formula ready for repeated evaluation.
type Parsed struct {
	source string
	root   expr
}

// Source returns the original expression text.
func (p *Parsed) Source() string {
	return p.source
}

// Variables returns the sorted set of variable codes the formula references.
func (p *Parsed) Variables() []string {
	set := make(map[string]struct{})
	p.root.collectVars(set)
	out := make([]string, 0, len(set))
	for code := range set {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Eval evaluates the formula against the given bindings.
func (p *Parsed) Eval(bindings Bindings) (decimal.Decimal, error) {
	return p.root.eval(bindings)
}

// Parse compiles an expression, or returns a *ParseError.
func Parse(input string) (*Parsed, error) {
	p := &parser{lex: newLexer(input)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, &ParseError{Pos: p.cur.pos, Reason: fmt.Sprintf("unexpected %q", p.cur.text)}
	}
	return &Parsed{source: input, root: root}, nil
}

// Evaluate parses and evaluates an expression in one step.
func Evaluate(input string, bindings Bindings) (decimal.Decimal, error) {
	parsed, err := Parse(input)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return parsed.Eval(bindings)
}

type parser struct {
	lex *lexer
	cur token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.cur.kind != kind {
		return &ParseError{Pos: p.cur.pos, Reason: fmt.Sprintf("expected %s, found %q", what, p.cur.text)}
	}
	return p.advance()
}

// parseExpr := additive [ cmpOp additive '?' parseExpr ':' parseExpr ]
func (p *parser) parseExpr() (expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	op, isCmp := comparisonOp(p.cur.kind)
	if !isCmp {
		return left, nil
	}
	cmpPos := p.cur.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	cond := &comparison{op: op, left: left, right: right}

	// A comparison is only legal as the condition of `? :`. Without the
	// conditional the formula would not evaluate to a number.
	if p.cur.kind != tokQuestion {
		return nil, &ParseError{Pos: cmpPos, Reason: "comparison must be followed by '? a : b'"}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokColon, "':'"); err != nil {
		return nil, err
	}
	other, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &condExpr{cond: cond, then: then, other: other}, nil
}

func (p *parser) parseAdditive() (expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokPlus || p.cur.kind == tokMinus {
		op := opAdd
		if p.cur.kind == tokMinus {
			op = opSub
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokStar || p.cur.kind == tokSlash {
		op := opMul
		if p.cur.kind == tokSlash {
			op = opDiv
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (expr, error) {
	if p.cur.kind == tokMinus {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &negExpr{operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (expr, error) {
	switch p.cur.kind {
	case tokNumber:
		value, err := decimal.NewFromString(p.cur.text)
		if err != nil {
			return nil, &ParseError{Pos: p.cur.pos, Reason: "malformed number"}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &numberLit{value: value}, nil

	case tokIdent:
		name := p.cur.text
		pos := p.cur.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokLParen {
			return &varRef{code: name}, nil
		}
		arity, ok := functions[name]
		if !ok {
			return nil, &ParseError{Pos: pos, Reason: fmt.Sprintf("unknown function %q", name)}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		args := make([]expr, 0, arity)
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.kind != tokComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		if len(args) != arity {
			return nil, &ParseError{Pos: pos, Reason: fmt.Sprintf("%s takes %d argument(s), got %d", name, arity, len(args))}
		}
		return &callExpr{name: name, args: args}, nil

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil

	case tokEOF:
		return nil, &ParseError{Pos: p.cur.pos, Reason: "unexpected end of expression"}
	default:
		return nil, &ParseError{Pos: p.cur.pos, Reason: fmt.Sprintf("unexpected %q", p.cur.text)}
	}
}

func comparisonOp(kind tokenKind) (compareOp, bool) {
	switch kind {
	case tokLT:
		return cmpLT, true
	case tokLE:
		return cmpLE, true
	case tokGT:
		return cmpGT, true
	case tokGE:
		return cmpGE, true
	case tokEQ:
		return cmpEQ, true
	case tokNE:
		return cmpNE, true
	default:
		return 0, false
	}
}
