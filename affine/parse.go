// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package affine

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
)

// ParseSpace parses a tuple such as "S[i, j]" or "S".
func ParseSpace(src string) (Space, error) {
	expr, err := parser.ParseExpr(strings.TrimSpace(src))
	if err != nil {
		return Space{}, fmt.Errorf("%w: tuple %q: %v", ErrSyntax, src, err)
	}
	var name *ast.Ident
	var indices []ast.Expr
	switch e := expr.(type) {
	case *ast.Ident:
		name = e
	case *ast.IndexExpr:
		name, _ = e.X.(*ast.Ident)
		indices = []ast.Expr{e.Index}
	case *ast.IndexListExpr:
		name, _ = e.X.(*ast.Ident)
		indices = e.Indices
	}
	if name == nil {
		return Space{}, fmt.Errorf("%w: tuple %q is not of the form S[i, ...]", ErrSyntax, src)
	}
	space := Space{Name: name.Name}
	seen := make(map[string]bool)
	for _, idx := range indices {
		id, ok := idx.(*ast.Ident)
		if !ok {
			return Space{}, fmt.Errorf("%w: tuple %q: dimension must be a name", ErrSyntax, src)
		}
		if seen[id.Name] {
			return Space{}, fmt.Errorf("%w: tuple %q: duplicate dimension %q", ErrSyntax, src, id.Name)
		}
		seen[id.Name] = true
		space.Dims = append(space.Dims, id.Name)
	}
	return space, nil
}

// ParseAff parses a quasi-affine expression over the dimensions of space.
func ParseAff(space Space, src string) (*Aff, error) {
	expr, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("%w: expression %q: %v", ErrSyntax, src, err)
	}
	return newAffBuilder(space).build(expr)
}

// ParseBasicSet parses a conjunction of constraints over the dimensions of
// space, e.g. "0 <= i < n && j == 2*i". An empty string is the universe.
func ParseBasicSet(space Space, src string) (*BasicSet, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return Universe(space), nil
	}
	expr, err := parser.ParseExpr(src)
	if err != nil {
		return nil, fmt.Errorf("%w: constraints %q: %v", ErrSyntax, src, err)
	}
	cons, err := newAffBuilder(space).constraints(expr)
	if err != nil {
		return nil, err
	}
	return NewBasicSet(space, cons...)
}

// ParseMultiAff parses "S[i, j] -> [e0, e1]".
func ParseMultiAff(src string) (*MultiAff, error) {
	pw, err := parsePiece(src)
	if err != nil {
		return nil, err
	}
	if len(pw.pieces) != 1 || !pw.pieces[0].dom.IsUniverse() {
		return nil, fmt.Errorf("%w: %q has constraints", ErrSyntax, src)
	}
	return pw.pieces[0].val, nil
}

// ParsePwMultiAff parses pieces over a single space separated by ";".
func ParsePwMultiAff(src string) (*PwMultiAff, error) {
	u, err := ParseUnionPwMultiAff(src)
	if err != nil {
		return nil, err
	}
	if u.NumPw() != 1 {
		return nil, fmt.Errorf("%w: %q spans %d spaces", ErrSyntax, src, u.NumPw())
	}
	return u.pws[0], nil
}

// ParseUnionPwMultiAff parses "{ S[i] -> [i] : i >= 0; T[k] -> [k] }". The
// braces are optional.
func ParseUnionPwMultiAff(src string) (*UnionPwMultiAff, error) {
	body := strings.TrimSpace(src)
	if strings.HasPrefix(body, "{") {
		if !strings.HasSuffix(body, "}") {
			return nil, fmt.Errorf("%w: unbalanced braces in %q", ErrSyntax, src)
		}
		body = body[1 : len(body)-1]
	}
	u := EmptyUnionPwMultiAff()
	for _, part := range strings.Split(body, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		pw, err := parsePiece(part)
		if err != nil {
			return nil, err
		}
		if u, err = u.AddPw(pw); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// parsePiece parses "S[i] -> [e...] : constraints".
func parsePiece(src string) (*PwMultiAff, error) {
	tuple, rest, ok := strings.Cut(src, "->")
	if !ok {
		return nil, fmt.Errorf("%w: %q has no \"->\"", ErrSyntax, src)
	}
	space, err := ParseSpace(tuple)
	if err != nil {
		return nil, err
	}
	rng, cons, _ := strings.Cut(rest, ":")
	outs, err := parseRange(space, rng)
	if err != nil {
		return nil, err
	}
	ma, err := NewMultiAff(space, outs...)
	if err != nil {
		return nil, err
	}
	dom, err := ParseBasicSet(space, cons)
	if err != nil {
		return nil, err
	}
	return NewPwMultiAff(dom, ma)
}

// parseRange parses "[e0, e1, ...]".
func parseRange(space Space, src string) ([]*Aff, error) {
	src = strings.TrimSpace(src)
	if !strings.HasPrefix(src, "[") || !strings.HasSuffix(src, "]") {
		return nil, fmt.Errorf("%w: range %q must be bracketed", ErrSyntax, src)
	}
	inner := strings.TrimSpace(src[1 : len(src)-1])
	if inner == "" {
		return nil, nil
	}
	// Parse the tuple as the argument list of a call.
	expr, err := parser.ParseExpr("tuple(" + inner + ")")
	if err != nil {
		return nil, fmt.Errorf("%w: range %q: %v", ErrSyntax, src, err)
	}
	call, ok := expr.(*ast.CallExpr)
	if !ok {
		return nil, fmt.Errorf("%w: range %q", ErrSyntax, src)
	}
	b := newAffBuilder(space)
	outs := make([]*Aff, len(call.Args))
	for i, arg := range call.Args {
		if outs[i], err = b.build(arg); err != nil {
			return nil, err
		}
	}
	return outs, nil
}

// affBuilder converts Go expression ASTs into affine values.
type affBuilder struct {
	n     int
	index map[string]int
}

func newAffBuilder(space Space) *affBuilder {
	b := &affBuilder{n: space.NumDims(), index: make(map[string]int)}
	for i, d := range space.Dims {
		b.index[d] = i
	}
	return b
}

func (b *affBuilder) build(expr ast.Expr) (*Aff, error) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind != token.INT {
			return nil, fmt.Errorf("%w: literal %s is not an integer", ErrSyntax, e.Value)
		}
		v, err := strconv.ParseInt(e.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: literal %s: %v", ErrSyntax, e.Value, err)
		}
		return Const(b.n, v), nil

	case *ast.Ident:
		pos, ok := b.index[e.Name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown dimension %q", ErrSyntax, e.Name)
		}
		return Var(b.n, pos)

	case *ast.ParenExpr:
		return b.build(e.X)

	case *ast.UnaryExpr:
		x, err := b.build(e.X)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case token.SUB:
			return x.Neg()
		case token.ADD:
			return x, nil
		}
		return nil, fmt.Errorf("%w: unsupported unary operator %s", ErrSyntax, e.Op)

	case *ast.BinaryExpr:
		return b.buildBinary(e)

	case *ast.CallExpr:
		fn, ok := e.Fun.(*ast.Ident)
		if !ok || len(e.Args) != 1 {
			return nil, fmt.Errorf("%w: only floor(x) and ceil(x) calls are supported", ErrSyntax)
		}
		x, err := b.build(e.Args[0])
		if err != nil {
			return nil, err
		}
		switch fn.Name {
		case "floor":
			return x.Floor()
		case "ceil":
			return x.Ceil()
		}
		return nil, fmt.Errorf("%w: unknown function %q", ErrSyntax, fn.Name)
	}
	return nil, fmt.Errorf("%w: unsupported expression %T", ErrSyntax, expr)
}

func (b *affBuilder) buildBinary(e *ast.BinaryExpr) (*Aff, error) {
	x, err := b.build(e.X)
	if err != nil {
		return nil, err
	}
	y, err := b.build(e.Y)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.ADD:
		return x.Add(y)
	case token.SUB:
		return x.Sub(y)
	case token.MUL:
		if k, ok := x.ConstValue(); ok {
			return y.Scale(k)
		}
		if k, ok := y.ConstValue(); ok {
			return x.Scale(k)
		}
		return nil, fmt.Errorf("%w: product of two non-constant expressions", ErrSyntax)
	case token.QUO, token.REM:
		k, ok := y.ConstValue()
		if !ok {
			return nil, fmt.Errorf("%w: divisor must be an integer constant", ErrSyntax)
		}
		q, err := x.ScaleDown(k)
		if err != nil || e.Op == token.QUO {
			return q, err
		}
		// x % k == x - k*floor(x/k)
		if q, err = q.Floor(); err != nil {
			return nil, err
		}
		if q, err = q.Scale(k); err != nil {
			return nil, err
		}
		return x.Sub(q)
	}
	return nil, fmt.Errorf("%w: unsupported operator %s", ErrSyntax, e.Op)
}

// constraints converts a conjunction of (possibly chained) comparisons.
func (b *affBuilder) constraints(expr ast.Expr) ([]Constraint, error) {
	switch e := expr.(type) {
	case *ast.ParenExpr:
		return b.constraints(e.X)
	case *ast.BinaryExpr:
		if e.Op == token.LAND {
			l, err := b.constraints(e.X)
			if err != nil {
				return nil, err
			}
			r, err := b.constraints(e.Y)
			if err != nil {
				return nil, err
			}
			return append(l, r...), nil
		}
		if isComparison(e.Op) {
			return b.chain(e)
		}
	}
	return nil, fmt.Errorf("%w: expected a conjunction of comparisons", ErrSyntax)
}

func isComparison(op token.Token) bool {
	switch op {
	case token.LSS, token.LEQ, token.GTR, token.GEQ, token.EQL:
		return true
	}
	return false
}

// chain converts a <= b < c, which Go parses as (a <= b) < c, into the
// constraints a <= b and b < c.
func (b *affBuilder) chain(e *ast.BinaryExpr) ([]Constraint, error) {
	var ops []token.Token
	var operands []ast.Expr
	var cur ast.Expr = e
	for {
		be, ok := cur.(*ast.BinaryExpr)
		if !ok || !isComparison(be.Op) {
			operands = append(operands, cur)
			break
		}
		ops = append(ops, be.Op)
		operands = append(operands, be.Y)
		cur = be.X
	}
	// Collected right to left.
	var cons []Constraint
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		l, err := b.build(operands[i+1])
		if err != nil {
			return nil, err
		}
		r, err := b.build(operands[i])
		if err != nil {
			return nil, err
		}
		c, err := compare(l, op, r)
		if err != nil {
			return nil, err
		}
		cons = append(cons, c)
	}
	return cons, nil
}

func compare(l *Aff, op token.Token, r *Aff) (Constraint, error) {
	lr, err := l.Sub(r)
	if err != nil {
		return Constraint{}, err
	}
	rl, err := r.Sub(l)
	if err != nil {
		return Constraint{}, err
	}
	switch op {
	case token.LEQ:
		return NewInequality(rl)
	case token.LSS:
		return NewStrictInequality(rl)
	case token.GEQ:
		return NewInequality(lr)
	case token.GTR:
		return NewStrictInequality(lr)
	default:
		return NewEquality(lr)
	}
}
