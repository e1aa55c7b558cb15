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
	"math"
	"slices"
	"strings"
)

// Constraint is an integer constraint e >= 0, or e == 0 for an equality.
// e is always integral with the coefficients of its non-constant terms
// reduced by their gcd.
type Constraint struct {
	aff *Aff
	eq  bool
}

// integral returns den*a, an integer valued expression with the same sign.
func integral(a *Aff) (*Aff, error) {
	if a.den == 1 {
		return a, nil
	}
	r, err := a.scaleNum(1)
	if err != nil {
		return nil, err
	}
	r.den = 1
	return r, nil
}

func newConstraint(e *Aff, eq bool) (Constraint, error) {
	e, err := integral(e)
	if err != nil {
		return Constraint{}, err
	}
	g := int64(0)
	for _, c := range e.coef {
		g = gcd(g, c)
	}
	for _, d := range e.divs {
		g = gcd(g, d.coef)
	}
	if g > 1 {
		r := e.clone()
		for i := range r.coef {
			r.coef[i] /= g
		}
		for i := range r.divs {
			r.divs[i].coef /= g
		}
		switch {
		case !eq:
			r.cst = floorDiv(r.cst, g)
		case r.cst%g != 0:
			// No integer point satisfies the equality.
			return Constraint{aff: Const(e.n, -1)}, nil
		default:
			r.cst /= g
		}
		e = r
	}
	return Constraint{aff: e, eq: eq}, nil
}

// NewInequality returns the constraint e >= 0.
func NewInequality(e *Aff) (Constraint, error) {
	return newConstraint(e, false)
}

// NewStrictInequality returns the constraint e > 0.
func NewStrictInequality(e *Aff) (Constraint, error) {
	e, err := integral(e)
	if err != nil {
		return Constraint{}, err
	}
	if e, err = e.Sub(Const(e.n, 1)); err != nil {
		return Constraint{}, err
	}
	return newConstraint(e, false)
}

// NewEquality returns the constraint e == 0.
func NewEquality(e *Aff) (Constraint, error) {
	return newConstraint(e, true)
}

// Aff returns the constrained expression.
func (c Constraint) Aff() *Aff { return c.aff }

// IsEquality reports whether c is e == 0 rather than e >= 0.
func (c Constraint) IsEquality() bool { return c.eq }

// Satisfied reports whether pt satisfies c.
func (c Constraint) Satisfied(pt []int64) (bool, error) {
	v, err := c.aff.Eval(pt)
	if err != nil {
		return false, err
	}
	if c.eq {
		return v == 0, nil
	}
	return v >= 0, nil
}

// Format renders the constraint with the leading term positive, e.g.
// "i <= 9" for -i + 9 >= 0.
func (c Constraint) Format(names []string) string {
	lin := c.aff.clone()
	cst := lin.cst
	lin.cst = 0
	op := ">="
	if c.eq {
		op = "=="
	}
	if lin.IsConstant() {
		return fmt.Sprintf("%d %s 0", cst, op)
	}
	if leadingCoef(lin) < 0 {
		lin, _ = lin.Neg()
		cst = -cst
		if !c.eq {
			op = "<="
		}
	}
	return fmt.Sprintf("%s %s %d", lin.Format(names), op, -cst)
}

func leadingCoef(a *Aff) int64 {
	for _, c := range a.coef {
		if c != 0 {
			return c
		}
	}
	if len(a.divs) > 0 {
		return a.divs[0].coef
	}
	return 0
}

func (c Constraint) key() string {
	if c.eq {
		return c.aff.key() + " == 0"
	}
	return c.aff.key() + " >= 0"
}

// BasicSet is a conjunction of constraints over a space.
type BasicSet struct {
	space Space
	cons  []Constraint
}

// Universe returns the set of all points of space.
func Universe(space Space) *BasicSet {
	return &BasicSet{space: space}
}

// NewBasicSet returns the points of space satisfying all constraints.
func NewBasicSet(space Space, cons ...Constraint) (*BasicSet, error) {
	return Universe(space).AddConstraints(cons...)
}

// Space returns the space of the set.
func (b *BasicSet) Space() Space { return b.space }

// Constraints returns the constraints of the set.
func (b *BasicSet) Constraints() []Constraint { return slices.Clone(b.cons) }

// IsUniverse reports whether the set has no constraints.
func (b *BasicSet) IsUniverse() bool { return len(b.cons) == 0 }

// AddConstraints returns b restricted by cons.
func (b *BasicSet) AddConstraints(cons ...Constraint) (*BasicSet, error) {
	r := &BasicSet{space: b.space, cons: slices.Clone(b.cons)}
	for _, c := range cons {
		if c.aff == nil || c.aff.n != b.space.NumDims() {
			return nil, fmt.Errorf("constraint over %s: %w", b.space, ErrSpaceMismatch)
		}
		if !slices.ContainsFunc(r.cons, func(o Constraint) bool { return o.key() == c.key() }) {
			r.cons = append(r.cons, c)
		}
	}
	return r, nil
}

// Intersect returns the points in both b and o.
func (b *BasicSet) Intersect(o *BasicSet) (*BasicSet, error) {
	if err := b.space.check(o.space); err != nil {
		return nil, err
	}
	return b.AddConstraints(o.cons...)
}

// Contains reports whether pt lies in the set.
func (b *BasicSet) Contains(pt []int64) (bool, error) {
	if len(pt) != b.space.NumDims() {
		return false, fmt.Errorf("point of %d coordinates in %s: %w", len(pt), b.space, ErrSpaceMismatch)
	}
	for _, c := range b.cons {
		ok, err := c.Satisfied(pt)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// IsEmpty reports whether the set is trivially empty: a constant constraint
// is violated or the bounds on a single dimension contradict each other. A
// false result does not prove that the set has an integer point.
func (b *BasicSet) IsEmpty() bool {
	n := b.space.NumDims()
	lower := make([]int64, n)
	upper := make([]int64, n)
	for i := range n {
		lower[i], upper[i] = math.MinInt64, math.MaxInt64
	}
	for _, c := range b.cons {
		a := c.aff
		if a.IsConstant() {
			if (c.eq && a.cst != 0) || (!c.eq && a.cst < 0) {
				return true
			}
			continue
		}
		if len(a.divs) > 0 {
			continue
		}
		pos, coef := -1, int64(0)
		for i, k := range a.coef {
			if k == 0 {
				continue
			}
			if pos >= 0 {
				pos = -2
				break
			}
			pos, coef = i, k
		}
		if pos < 0 {
			continue
		}
		// coef*x + cst >= 0 (or == 0).
		switch {
		case c.eq:
			if a.cst%coef != 0 {
				return true
			}
			v := -a.cst / coef
			lower[pos] = max(lower[pos], v)
			upper[pos] = min(upper[pos], v)
		case coef > 0:
			lower[pos] = max(lower[pos], ceilDiv(-a.cst, coef))
		default:
			upper[pos] = min(upper[pos], floorDiv(a.cst, -coef))
		}
		if lower[pos] > upper[pos] {
			return true
		}
	}
	return false
}

// formatConstraints joins the constraints with "&&".
func (b *BasicSet) formatConstraints() string {
	parts := make([]string, len(b.cons))
	for i, c := range b.cons {
		parts[i] = c.Format(b.space.Dims)
	}
	return strings.Join(parts, " && ")
}

// String returns e.g. "S[i] : i >= 0 && i <= 9".
func (b *BasicSet) String() string {
	if b.IsUniverse() {
		return b.space.String()
	}
	return b.space.String() + " : " + b.formatConstraints()
}

// Set is a union of basic sets over one space.
type Set struct {
	space Space
	parts []*BasicSet
}

// NewSet returns the union of parts, which must share one space.
func NewSet(space Space, parts ...*BasicSet) (*Set, error) {
	s := &Set{space: space}
	for _, p := range parts {
		if err := space.check(p.space); err != nil {
			return nil, err
		}
		s.add(p)
	}
	return s, nil
}

func (s *Set) add(p *BasicSet) {
	if p.IsEmpty() {
		return
	}
	key := p.String()
	if slices.ContainsFunc(s.parts, func(o *BasicSet) bool { return o.String() == key }) {
		return
	}
	s.parts = append(s.parts, p)
}

// Space returns the space of the set.
func (s *Set) Space() Space { return s.space }

// Parts returns the basic sets whose union is s.
func (s *Set) Parts() []*BasicSet { return slices.Clone(s.parts) }

// IsEmpty reports whether every part is trivially empty.
func (s *Set) IsEmpty() bool { return len(s.parts) == 0 }

// Union returns the points in s or o.
func (s *Set) Union(o *Set) (*Set, error) {
	if err := s.space.check(o.space); err != nil {
		return nil, err
	}
	return NewSet(s.space, slices.Concat(s.parts, o.parts)...)
}

// Contains reports whether pt lies in any part.
func (s *Set) Contains(pt []int64) (bool, error) {
	for _, p := range s.parts {
		ok, err := p.Contains(pt)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// String returns the parts separated by "; ".
func (s *Set) String() string {
	parts := make([]string, len(s.parts))
	for i, p := range s.parts {
		parts[i] = p.String()
	}
	return strings.Join(parts, "; ")
}

// UnionSet is an ordered collection of sets over distinct spaces.
type UnionSet struct {
	sets []*Set
}

// NewUnionSet returns the union of sets; sets over the same space are merged.
func NewUnionSet(sets ...*Set) (*UnionSet, error) {
	u := &UnionSet{}
	for _, s := range sets {
		var err error
		if u, err = u.Add(s); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// Add returns u extended by s.
func (u *UnionSet) Add(s *Set) (*UnionSet, error) {
	r := &UnionSet{sets: slices.Clone(u.sets)}
	for i, o := range r.sets {
		if o.space.Matches(s.space) {
			merged, err := o.Union(s)
			if err != nil {
				return nil, err
			}
			r.sets[i] = merged
			return r, nil
		}
	}
	r.sets = append(r.sets, s)
	return r, nil
}

// Sets returns the per-space sets in insertion order.
func (u *UnionSet) Sets() []*Set { return slices.Clone(u.sets) }

// Find returns the set over space, if any.
func (u *UnionSet) Find(space Space) (*Set, bool) {
	for _, s := range u.sets {
		if s.space.Matches(space) {
			return s, true
		}
	}
	return nil, false
}

// String returns e.g. "{ S[i] : i >= 0; T }".
func (u *UnionSet) String() string {
	var parts []string
	for _, s := range u.sets {
		if !s.IsEmpty() {
			parts = append(parts, s.String())
		}
	}
	if len(parts) == 0 {
		return "{ }"
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}
