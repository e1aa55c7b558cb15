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

package schedule

import (
	"github.com/ajroetker/go-polyband/affine"
)

// GetPrefixSchedule returns the schedule of the ancestors of b, outermost
// first, restricted to the statements of b. For a root band it is the
// output-free expression on b's domain.
func (b *Band) GetPrefixSchedule() (*affine.UnionPwMultiAff, error) {
	const op = "get_prefix_schedule"
	if err := b.check(op); err != nil {
		return nil, err
	}
	prefix := affine.UnionFromDomain(b.pma.Domain())
	a, err := b.parentBand(op)
	for ; a != nil; a, err = a.parentBand(op) {
		if prefix, err = a.pma.FlatRangeProduct(prefix); err != nil {
			return nil, algebraError(op, err)
		}
	}
	if err != nil {
		return nil, err
	}
	return prefix, nil
}

// GetPartialSchedule returns the schedule of b's own members.
func (b *Band) GetPartialSchedule() (*affine.UnionPwMultiAff, error) {
	if err := b.check("get_partial_schedule"); err != nil {
		return nil, err
	}
	return b.pma, nil
}

// GetSuffixSchedule returns the schedule of the subtree below b. For a leaf
// it is the output-free expression on b's domain.
func (b *Band) GetSuffixSchedule() (*affine.UnionPwMultiAff, error) {
	const op = "get_suffix_schedule"
	if err := b.check(op); err != nil {
		return nil, err
	}
	if b.children == nil {
		return affine.UnionFromDomain(b.pma.Domain()), nil
	}
	return b.children.suffix(op)
}

// GetSuffixSchedule returns the schedule of the forest rooted at the bands
// of l: the union over the bands of partial x suffix.
func (l *BandList) GetSuffixSchedule() (*affine.UnionPwMultiAff, error) {
	const op = "band_list_get_suffix_schedule"
	if l == nil {
		return nil, newError(op, ErrNullInput, "list is nil")
	}
	return l.suffix(op)
}

func (l *BandList) suffix(op string) (*affine.UnionPwMultiAff, error) {
	suffix := affine.EmptyUnionPwMultiAff()
	for _, b := range l.bands {
		if err := b.check(op); err != nil {
			return nil, err
		}
		below, err := b.GetSuffixSchedule()
		if err != nil {
			return nil, err
		}
		full, err := b.pma.FlatRangeProduct(below)
		if err != nil {
			return nil, algebraError(op, err)
		}
		// Siblings schedule disjoint statement sets.
		if suffix, err = suffix.Union(full); err != nil {
			return nil, algebraError(op, err)
		}
	}
	return suffix, nil
}

// ForeachBand calls fn on every band of the forest rooted at l in
// depth-first post-order: all bands below a band are visited before the
// band itself, and siblings in list order. The band passed to fn is only
// valid during the call; use Copy to keep it. The walk stops at the first
// error, which is returned.
func (l *BandList) ForeachBand(fn func(b *Band) error) error {
	const op = "band_list_foreach_band"
	if l == nil || fn == nil {
		return newError(op, ErrNullInput, "list or callback is nil")
	}
	for i := range l.bands {
		b, err := l.Get(i)
		if err != nil {
			return err
		}
		if err := b.visit(fn); err != nil {
			b.Free()
			return err
		}
		b.Free()
	}
	return nil
}

func (b *Band) visit(fn func(b *Band) error) error {
	if b.children != nil {
		children := b.children.Dup()
		err := children.ForeachBand(fn)
		children.Free()
		if err != nil {
			return err
		}
	}
	return fn(b)
}
