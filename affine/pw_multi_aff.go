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
	"slices"
	"strings"
)

// piece is one affine part of a piecewise expression.
type piece struct {
	dom *BasicSet
	val *MultiAff
}

// PwMultiAff is a piecewise multi-affine expression: a list of pieces with
// pairwise disjoint domains, all over one space and with one output arity.
type PwMultiAff struct {
	space  Space
	outDim int
	pieces []piece
}

// EmptyPwMultiAff returns the expression with no pieces.
func EmptyPwMultiAff(space Space, outDim int) *PwMultiAff {
	return &PwMultiAff{space: space, outDim: outDim}
}

// PwFromMultiAff returns ma on the universe of its space.
func PwFromMultiAff(ma *MultiAff) *PwMultiAff {
	return &PwMultiAff{
		space:  ma.space,
		outDim: ma.Dim(),
		pieces: []piece{{dom: Universe(ma.space), val: ma}},
	}
}

// NewPwMultiAff returns ma restricted to dom.
func NewPwMultiAff(dom *BasicSet, ma *MultiAff) (*PwMultiAff, error) {
	if err := dom.space.check(ma.space); err != nil {
		return nil, err
	}
	pw := EmptyPwMultiAff(ma.space, ma.Dim())
	if !dom.IsEmpty() {
		pw.pieces = []piece{{dom: dom, val: ma}}
	}
	return pw, nil
}

// PwFromDomain returns the expression without outputs defined on set.
func PwFromDomain(set *Set) *PwMultiAff {
	pw := EmptyPwMultiAff(set.space, 0)
	empty, _ := NewMultiAff(set.space)
	for _, p := range set.parts {
		pw.pieces = append(pw.pieces, piece{dom: p, val: empty})
	}
	return pw
}

// Space returns the domain space.
func (p *PwMultiAff) Space() Space { return p.space }

// OutDim returns the output arity.
func (p *PwMultiAff) OutDim() int { return p.outDim }

// NumPieces returns the number of pieces.
func (p *PwMultiAff) NumPieces() int { return len(p.pieces) }

// ForeachPiece calls fn on every piece in order and stops at the first
// error.
func (p *PwMultiAff) ForeachPiece(fn func(dom *BasicSet, ma *MultiAff) error) error {
	for _, pc := range p.pieces {
		if err := fn(pc.dom, pc.val); err != nil {
			return err
		}
	}
	return nil
}

// Union merges the pieces of p and o. The domains are assumed disjoint;
// the merge is structural and never adds values.
func (p *PwMultiAff) Union(o *PwMultiAff) (*PwMultiAff, error) {
	if err := p.space.check(o.space); err != nil {
		return nil, err
	}
	if p.outDim != o.outDim {
		return nil, fmt.Errorf("union of %d and %d outputs over %s: %w", p.outDim, o.outDim, p.space, ErrSpaceMismatch)
	}
	return &PwMultiAff{space: p.space, outDim: p.outDim, pieces: slices.Concat(p.pieces, o.pieces)}, nil
}

// FlatRangeProduct returns the expression whose outputs are those of p
// followed by those of o, defined where both are.
func (p *PwMultiAff) FlatRangeProduct(o *PwMultiAff) (*PwMultiAff, error) {
	if err := p.space.check(o.space); err != nil {
		return nil, err
	}
	r := EmptyPwMultiAff(p.space, p.outDim+o.outDim)
	for _, a := range p.pieces {
		for _, b := range o.pieces {
			dom, err := a.dom.Intersect(b.dom)
			if err != nil {
				return nil, err
			}
			if dom.IsEmpty() {
				continue
			}
			val, err := a.val.FlatRangeProduct(b.val)
			if err != nil {
				return nil, err
			}
			r.pieces = append(r.pieces, piece{dom: dom, val: val})
		}
	}
	return r, nil
}

// Domain returns the union of the piece domains.
func (p *PwMultiAff) Domain() *Set {
	s := &Set{space: p.space}
	for _, pc := range p.pieces {
		s.add(pc.dom)
	}
	return s
}

// Eval evaluates p at pt. The boolean result is false when no piece
// contains pt.
func (p *PwMultiAff) Eval(pt []int64) ([]int64, bool, error) {
	for _, pc := range p.pieces {
		ok, err := pc.dom.Contains(pt)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		vals, err := pc.val.Eval(pt)
		if err != nil {
			return nil, false, err
		}
		return vals, true, nil
	}
	return nil, false, nil
}

func (p *PwMultiAff) formatPieces() []string {
	parts := make([]string, len(p.pieces))
	for i, pc := range p.pieces {
		s := pc.val.String()
		if !pc.dom.IsUniverse() {
			s += " : " + pc.dom.formatConstraints()
		}
		parts[i] = s
	}
	return parts
}

// String returns the pieces separated by "; ".
func (p *PwMultiAff) String() string {
	return strings.Join(p.formatPieces(), "; ")
}
