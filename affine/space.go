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
	"strings"
)

// Space is a named statement tuple such as S[i, j]. The dimension names are
// only used for printing and parsing; two spaces match when their names and
// arities agree.
type Space struct {
	// Name is the statement (tuple) name.
	Name string

	// Dims names the input dimensions.
	Dims []string
}

// NewSpace returns a space with the given tuple name and dimension names.
func NewSpace(name string, dims ...string) Space {
	return Space{Name: name, Dims: dims}
}

// NumDims returns the number of input dimensions.
func (s Space) NumDims() int { return len(s.Dims) }

// Matches reports whether s and o denote the same tuple.
func (s Space) Matches(o Space) bool {
	return s.Name == o.Name && len(s.Dims) == len(o.Dims)
}

func (s Space) key() string {
	return fmt.Sprintf("%s/%d", s.Name, len(s.Dims))
}

func (s Space) check(o Space) error {
	if !s.Matches(o) {
		return fmt.Errorf("%s vs %s: %w", s, o, ErrSpaceMismatch)
	}
	return nil
}

// String returns the tuple, e.g. "S[i, j]", or just "S" without dimensions.
func (s Space) String() string {
	if len(s.Dims) == 0 {
		return s.Name
	}
	names := make([]string, len(s.Dims))
	for i := range s.Dims {
		names[i] = dimName(s.Dims, i)
	}
	return s.Name + "[" + strings.Join(names, ", ") + "]"
}
