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
)

// Vec is an immutable integer vector, used for tile sizes.
type Vec struct {
	vals []int64
}

// NewVec returns the vector of vals.
func NewVec(vals ...int64) *Vec {
	return &Vec{vals: slices.Clone(vals)}
}

// Size returns the number of elements.
func (v *Vec) Size() int { return len(v.vals) }

// At returns element i.
func (v *Vec) At(i int) (int64, error) {
	if i < 0 || i >= len(v.vals) {
		return 0, fmt.Errorf("element %d of %d: %w", i, len(v.vals), ErrOutOfRange)
	}
	return v.vals[i], nil
}

// Values returns a copy of the elements.
func (v *Vec) Values() []int64 { return slices.Clone(v.vals) }

// String returns e.g. "[4 4]".
func (v *Vec) String() string {
	return fmt.Sprintf("%v", v.vals)
}
