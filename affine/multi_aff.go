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

// MultiAff maps the points of a space to a tuple of quasi-affine values.
type MultiAff struct {
	space Space
	out   []*Aff
}

// NewMultiAff returns the multi-affine expression space -> [out...].
func NewMultiAff(space Space, out ...*Aff) (*MultiAff, error) {
	for i, a := range out {
		if a == nil {
			return nil, fmt.Errorf("output %d is nil: %w", i, ErrOutOfRange)
		}
		if a.n != space.NumDims() {
			return nil, fmt.Errorf("output %d has %d dimensions, %s has %d: %w",
				i, a.n, space, space.NumDims(), ErrSpaceMismatch)
		}
	}
	return &MultiAff{space: space, out: slices.Clone(out)}, nil
}

// IdentityMultiAff returns space -> [x0, ..., xn-1].
func IdentityMultiAff(space Space) *MultiAff {
	n := space.NumDims()
	out := make([]*Aff, n)
	for i := range out {
		out[i], _ = Var(n, i)
	}
	return &MultiAff{space: space, out: out}
}

// Space returns the domain space.
func (m *MultiAff) Space() Space { return m.space }

// Dim returns the number of outputs.
func (m *MultiAff) Dim() int { return len(m.out) }

// Get returns output i.
func (m *MultiAff) Get(i int) (*Aff, error) {
	if i < 0 || i >= len(m.out) {
		return nil, fmt.Errorf("output %d of %d: %w", i, len(m.out), ErrOutOfRange)
	}
	return m.out[i], nil
}

// Set returns a copy of m with output i replaced by a.
func (m *MultiAff) Set(i int, a *Aff) (*MultiAff, error) {
	if i < 0 || i >= len(m.out) {
		return nil, fmt.Errorf("output %d of %d: %w", i, len(m.out), ErrOutOfRange)
	}
	if a.n != m.space.NumDims() {
		return nil, fmt.Errorf("output has %d dimensions, %s has %d: %w",
			a.n, m.space, m.space.NumDims(), ErrSpaceMismatch)
	}
	out := slices.Clone(m.out)
	out[i] = a
	return &MultiAff{space: m.space, out: out}, nil
}

// FlatRangeProduct concatenates the outputs of m and o, m's first.
func (m *MultiAff) FlatRangeProduct(o *MultiAff) (*MultiAff, error) {
	if err := m.space.check(o.space); err != nil {
		return nil, err
	}
	return &MultiAff{space: m.space, out: slices.Concat(m.out, o.out)}, nil
}

// DropOutputs removes n outputs starting at first.
func (m *MultiAff) DropOutputs(first, n int) (*MultiAff, error) {
	if first < 0 || n < 0 || first+n > len(m.out) {
		return nil, fmt.Errorf("drop [%d, %d) of %d outputs: %w", first, first+n, len(m.out), ErrOutOfRange)
	}
	return &MultiAff{space: m.space, out: slices.Delete(slices.Clone(m.out), first, first+n)}, nil
}

// Eval evaluates every output at pt.
func (m *MultiAff) Eval(pt []int64) ([]int64, error) {
	vals := make([]int64, len(m.out))
	for i, a := range m.out {
		v, err := a.Eval(pt)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// Equal reports whether m and o have matching spaces and equal outputs.
func (m *MultiAff) Equal(o *MultiAff) bool {
	return m.space.Matches(o.space) && slices.EqualFunc(m.out, o.out, (*Aff).Equal)
}

func (m *MultiAff) formatRange() string {
	parts := make([]string, len(m.out))
	for i, a := range m.out {
		parts[i] = a.Format(m.space.Dims)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// String returns e.g. "S[i, j] -> [floor(i/4), j]".
func (m *MultiAff) String() string {
	return m.space.String() + " -> " + m.formatRange()
}
