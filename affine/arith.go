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
	"errors"
	"math"

	"modernc.org/mathutil"
)

// Sentinel errors reported by the algebra.
var (
	// ErrSpaceMismatch is returned when two operands live in different
	// spaces or have incompatible arities.
	ErrSpaceMismatch = errors.New("affine: space mismatch")

	// ErrOverflow is returned when a coefficient leaves the int64 range.
	ErrOverflow = errors.New("affine: integer overflow")

	// ErrInvalidDivisor is returned for division by a non-positive constant.
	ErrInvalidDivisor = errors.New("affine: divisor must be a positive constant")

	// ErrOutOfRange is returned for a dimension or element index outside
	// its valid range.
	ErrOutOfRange = errors.New("affine: index out of range")

	// ErrNotInteger is returned when an expression evaluates to a
	// non-integral value.
	ErrNotInteger = errors.New("affine: value is not an integer")

	// ErrSyntax is returned by the parser.
	ErrSyntax = errors.New("affine: syntax error")
)

// addInt returns a+b, reporting overflow. MinInt64 is treated as overflow so
// that every stored coefficient can be negated safely.
func addInt(a, b int64) (int64, error) {
	c := a + b
	if (a > 0 && b > 0 && c < 0) || (a < 0 && b < 0 && c >= 0) || c == math.MinInt64 {
		return 0, ErrOverflow
	}
	return c, nil
}

// mulInt returns a*b, reporting overflow.
func mulInt(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	c := a * b
	if c/b != a || c == math.MinInt64 {
		return 0, ErrOverflow
	}
	return c, nil
}

func absU(a int64) uint64 {
	if a < 0 {
		return uint64(-a)
	}
	return uint64(a)
}

// gcd returns the non-negative greatest common divisor of a and b.
func gcd(a, b int64) int64 {
	return int64(mathutil.GCDUint64(absU(a), absU(b)))
}

// floorDiv returns floor(a/b) for b > 0.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// ceilDiv returns ceil(a/b) for b > 0.
func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && a > 0 {
		q++
	}
	return q
}
