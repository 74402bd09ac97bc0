package formula

import (
	"github.com/shopspring/decimal"
)

// expr is a node that evaluates to a number.
type expr interface {
	eval(b Bindings) (decimal.Decimal, error)
	collectVars(set map[string]struct{})
}

type numberLit struct {
	value decimal.Decimal
}

func (n *numberLit) eval(Bindings) (decimal.Decimal, error) {
	return n.value, nil
}

func (n *numberLit) collectVars(map[string]struct{}) {}

type varRef struct {
	code string
}

func (v *varRef) eval(b Bindings) (decimal.Decimal, error) {
	return b.number(v.code)
}

func (v *varRef) collectVars(set map[string]struct{}) {
	set[v.code] = struct{}{}
}

type binaryOp int

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
)

type binaryExpr struct {
	op          binaryOp
	left, right expr
}

func (e *binaryExpr) eval(b Bindings) (decimal.Decimal, error) {
	l, err := e.left.eval(b)
	if err != nil {
		return decimal.Decimal{}, err
	}
	r, err := e.right.eval(b)
	if err != nil {
		return decimal.Decimal{}, err
	}
	switch e.op {
	case opAdd:
		return l.Add(r), nil
	case opSub:
		return l.Sub(r), nil
	case opMul:
		return l.Mul(r), nil
	default:
		if r.IsZero() {
			return decimal.Decimal{}, &DivisionByZeroError{}
		}
		return l.DivRound(r, divisionScale), nil
	}
}

func (e *binaryExpr) collectVars(set map[string]struct{}) {
	e.left.collectVars(set)
	e.right.collectVars(set)
}

type negExpr struct {
	operand expr
}

func (e *negExpr) eval(b Bindings) (decimal.Decimal, error) {
	v, err := e.operand.eval(b)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return v.Neg(), nil
}

func (e *negExpr) collectVars(set map[string]struct{}) {
	e.operand.collectVars(set)
}

type compareOp int

const (
	cmpLT compareOp = iota
	cmpLE
	cmpGT
	cmpGE
	cmpEQ
	cmpNE
)

// comparison is only reachable as the condition of a condExpr; the
// parser rejects a bare comparison as a complete formula.
type comparison struct {
	op          compareOp
	left, right expr
}

func (c *comparison) test(b Bindings) (bool, error) {
	l, err := c.left.eval(b)
	if err != nil {
		return false, err
	}
	r, err := c.right.eval(b)
	if err != nil {
		return false, err
	}
	switch c.op {
	case cmpLT:
		return l.LessThan(r), nil
	case cmpLE:
		return l.LessThanOrEqual(r), nil
	case cmpGT:
		return l.GreaterThan(r), nil
	case cmpGE:
		return l.GreaterThanOrEqual(r), nil
	case cmpEQ:
		return l.Equal(r), nil
	default:
		return !l.Equal(r), nil
	}
}

func (c *comparison) collectVars(set map[string]struct{}) {
	c.left.collectVars(set)
	c.right.collectVars(set)
}

type condExpr struct {
	cond        *comparison
	then, other expr
}

func (e *condExpr) eval(b Bindings) (decimal.Decimal, error) {
	ok, err := e.cond.test(b)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if ok {
		return e.then.eval(b)
	}
	return e.other.eval(b)
}

func (e *condExpr) collectVars(set map[string]struct{}) {
	e.cond.collectVars(set)
	e.then.collectVars(set)
	e.other.collectVars(set)
}

type callExpr struct {
	name string
	args []expr
}

func (e *callExpr) eval(b Bindings) (decimal.Decimal, error) {
	vals := make([]decimal.Decimal, len(e.args))
	for i, arg := range e.args {
		v, err := arg.eval(b)
		if err != nil {
			return decimal.Decimal{}, err
		}
		vals[i] = v
	}
	switch e.name {
	case "min":
		return decimal.Min(vals[0], vals[1]), nil
	case "max":
		return decimal.Max(vals[0], vals[1]), nil
	default: // round, arity checked at parse time
		return vals[0].Round(0), nil
	}
}

func (e *callExpr) collectVars(set map[string]struct{}) {
	for _, arg := range e.args {
		arg.collectVars(set)
	}
}
