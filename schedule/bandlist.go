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
	"github.com/samber/lo"
)

// BandList is an ordered sequence of sibling bands. The order is the
// execution order of the siblings.
type BandList struct {
	bands []*Band
}

// NewBandList returns an empty list with room for capacity bands.
func NewBandList(capacity int) *BandList {
	return &BandList{bands: make([]*Band, 0, max(capacity, 0))}
}

// Add appends b to the list. The list takes over the caller's reference.
func (l *BandList) Add(b *Band) error {
	if l == nil {
		b.Free()
		return newError("band_list_add", ErrNullInput, "list is nil")
	}
	if err := b.check("band_list_add"); err != nil {
		return err
	}
	l.bands = append(l.bands, b)
	return nil
}

// Len returns the number of bands in the list.
func (l *BandList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.bands)
}

// Get returns a new reference to band i, to be released with Band.Free.
func (l *BandList) Get(i int) (*Band, error) {
	const op = "band_list_get"
	if l == nil {
		return nil, newError(op, ErrNullInput, "list is nil")
	}
	if i < 0 || i >= len(l.bands) {
		return nil, newError(op, ErrOutOfBounds, "band %d of %d", i, len(l.bands))
	}
	b := l.bands[i]
	if err := b.check(op); err != nil {
		return nil, err
	}
	return b.Copy(), nil
}

// Dup returns a new list holding new references to the same bands.
func (l *BandList) Dup() *BandList {
	if l == nil {
		return nil
	}
	return &BandList{bands: lo.Map(l.bands, func(b *Band, _ int) *Band { return b.Copy() })}
}

// Free releases the list and the band references it holds.
func (l *BandList) Free() {
	if l == nil {
		return
	}
	lo.ForEach(l.bands, func(b *Band, _ int) { b.Free() })
	l.bands = nil
}

// release frees a list owned by the forest.
func (l *BandList) release() {
	lo.ForEach(l.bands, func(b *Band, _ int) { b.release() })
	l.bands = nil
}
