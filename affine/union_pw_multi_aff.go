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

// UnionPwMultiAff collects piecewise multi-affine expressions over distinct
// spaces, such as the schedules of all statements in a band. Insertion order
// is preserved and determines the printed order.
type UnionPwMultiAff struct {
	pws []*PwMultiAff
}

// EmptyUnionPwMultiAff returns the union without any space.
func EmptyUnionPwMultiAff() *UnionPwMultiAff {
	return &UnionPwMultiAff{}
}

// UnionFromPw returns the union holding only pw.
func UnionFromPw(pw *PwMultiAff) *UnionPwMultiAff {
	return &UnionPwMultiAff{pws: []*PwMultiAff{pw}}
}

// UnionFromDomain returns the union of output-free expressions defined on
// the sets of us.
func UnionFromDomain(us *UnionSet) *UnionPwMultiAff {
	u := EmptyUnionPwMultiAff()
	for _, s := range us.sets {
		u.pws = append(u.pws, PwFromDomain(s))
	}
	return u
}

// AddPw returns u extended by pw. If u already has pw's space the pieces
// are merged with PwMultiAff.Union.
func (u *UnionPwMultiAff) AddPw(pw *PwMultiAff) (*UnionPwMultiAff, error) {
	r := &UnionPwMultiAff{pws: slices.Clone(u.pws)}
	for i, o := range r.pws {
		if !o.space.Matches(pw.space) {
			continue
		}
		merged, err := o.Union(pw)
		if err != nil {
			return nil, err
		}
		r.pws[i] = merged
		return r, nil
	}
	r.pws = append(r.pws, pw)
	return r, nil
}

// Union merges u and o. Expressions over the same space must have disjoint
// domains; the merge never adds values.
func (u *UnionPwMultiAff) Union(o *UnionPwMultiAff) (*UnionPwMultiAff, error) {
	r := u
	for _, pw := range o.pws {
		var err error
		if r, err = r.AddPw(pw); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// FlatRangeProduct concatenates, per space present in both u and o, the
// outputs of u before those of o. Spaces present in only one operand are
// dropped.
func (u *UnionPwMultiAff) FlatRangeProduct(o *UnionPwMultiAff) (*UnionPwMultiAff, error) {
	r := EmptyUnionPwMultiAff()
	for _, a := range u.pws {
		b, ok := o.Find(a.space)
		if !ok {
			continue
		}
		prod, err := a.FlatRangeProduct(b)
		if err != nil {
			return nil, err
		}
		if r, err = r.AddPw(prod); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Domain returns the per-space domains.
func (u *UnionPwMultiAff) Domain() *UnionSet {
	us := &UnionSet{}
	for _, pw := range u.pws {
		us.sets = append(us.sets, pw.Domain())
	}
	return us
}

// ForeachPw calls fn on every per-space expression and stops at the first
// error.
func (u *UnionPwMultiAff) ForeachPw(fn func(pw *PwMultiAff) error) error {
	for _, pw := range u.pws {
		if err := fn(pw); err != nil {
			return err
		}
	}
	return nil
}

// NumPw returns the number of spaces.
func (u *UnionPwMultiAff) NumPw() int { return len(u.pws) }

// Find returns the expression over space, if any.
func (u *UnionPwMultiAff) Find(space Space) (*PwMultiAff, bool) {
	for _, pw := range u.pws {
		if pw.space.Matches(space) {
			return pw, true
		}
	}
	return nil, false
}

// OutDim returns the output arity shared by all spaces, 0 for an empty
// union.
func (u *UnionPwMultiAff) OutDim() (int, error) {
	if len(u.pws) == 0 {
		return 0, nil
	}
	n := u.pws[0].outDim
	for _, pw := range u.pws[1:] {
		if pw.outDim != n {
			return 0, fmt.Errorf("%s has %d outputs, %s has %d: %w",
				u.pws[0].space, n, pw.space, pw.outDim, ErrSpaceMismatch)
		}
	}
	return n, nil
}

// Eval evaluates the expression of the statement called name at pt.
func (u *UnionPwMultiAff) Eval(name string, pt []int64) ([]int64, bool, error) {
	for _, pw := range u.pws {
		if pw.space.Name == name && pw.space.NumDims() == len(pt) {
			return pw.Eval(pt)
		}
	}
	return nil, false, nil
}

// String returns e.g. "{ S[i] -> [i] : i >= 0; T[k] -> [k] }".
func (u *UnionPwMultiAff) String() string {
	var parts []string
	for _, pw := range u.pws {
		parts = append(parts, pw.formatPieces()...)
	}
	if len(parts) == 0 {
		return "{ }"
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}
