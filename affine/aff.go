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

// Aff is a quasi-affine expression over n input dimensions:
//
//	(cst + sum_i coef[i]*x_i + sum_k divs[k].coef*floor(divs[k].arg)) / den
//
// Values are kept canonical: den > 0, the gcd of all numerator coefficients
// and den is 1, div terms with equal arguments are merged and ordered by
// their printed argument, and no term has a zero coefficient.
type Aff struct {
	n    int
	cst  int64
	coef []int64
	divs []divTerm
	den  int64
}

// divTerm is coef*floor(arg). arg always has den > 1.
type divTerm struct {
	coef int64
	arg  *Aff
	key  string
}

// Zero returns the constant 0 over n dimensions.
func Zero(n int) *Aff {
	return &Aff{n: n, coef: make([]int64, n), den: 1}
}

// Const returns the constant v over n dimensions.
func Const(n int, v int64) *Aff {
	a := Zero(n)
	a.cst = v
	return a
}

// Var returns the expression x_pos over n dimensions.
func Var(n, pos int) (*Aff, error) {
	if pos < 0 || pos >= n {
		return nil, fmt.Errorf("variable %d of %d: %w", pos, n, ErrOutOfRange)
	}
	a := Zero(n)
	a.coef[pos] = 1
	return a, nil
}

// NumDims returns the number of input dimensions.
func (a *Aff) NumDims() int { return a.n }

// Denominator returns the common denominator.
func (a *Aff) Denominator() int64 { return a.den }

// IsInteger reports whether the expression is integer valued at every
// integer point.
func (a *Aff) IsInteger() bool { return a.den == 1 }

// IsConstant reports whether the expression does not depend on any
// dimension.
func (a *Aff) IsConstant() bool {
	return len(a.divs) == 0 && !slices.ContainsFunc(a.coef, func(c int64) bool { return c != 0 })
}

// ConstValue returns the value of an integer constant expression.
func (a *Aff) ConstValue() (int64, bool) {
	if !a.IsConstant() || a.den != 1 {
		return 0, false
	}
	return a.cst, true
}

func (a *Aff) clone() *Aff {
	return &Aff{
		n:    a.n,
		cst:  a.cst,
		coef: slices.Clone(a.coef),
		divs: slices.Clone(a.divs),
		den:  a.den,
	}
}

// normalize merges equal div terms, drops zero terms and divides out the
// common factor of numerator and denominator. It mutates a, which must be a
// fresh value.
func (a *Aff) normalize() (*Aff, error) {
	if len(a.divs) > 0 {
		slices.SortStableFunc(a.divs, func(x, y divTerm) int { return strings.Compare(x.key, y.key) })
		merged := a.divs[:0:0]
		for _, d := range a.divs {
			if n := len(merged); n > 0 && merged[n-1].key == d.key {
				c, err := addInt(merged[n-1].coef, d.coef)
				if err != nil {
					return nil, err
				}
				merged[n-1].coef = c
				continue
			}
			merged = append(merged, d)
		}
		a.divs = slices.DeleteFunc(merged, func(d divTerm) bool { return d.coef == 0 })
	}

	g := gcd(a.den, a.cst)
	for _, c := range a.coef {
		g = gcd(g, c)
	}
	for _, d := range a.divs {
		g = gcd(g, d.coef)
	}
	if g > 1 {
		a.den /= g
		a.cst /= g
		for i := range a.coef {
			a.coef[i] /= g
		}
		for i := range a.divs {
			a.divs[i].coef /= g
		}
	}
	return a, nil
}

// scaleNum multiplies every numerator coefficient by k, leaving den alone.
func (a *Aff) scaleNum(k int64) (*Aff, error) {
	r := a.clone()
	var err error
	if r.cst, err = mulInt(r.cst, k); err != nil {
		return nil, err
	}
	for i := range r.coef {
		if r.coef[i], err = mulInt(r.coef[i], k); err != nil {
			return nil, err
		}
	}
	for i := range r.divs {
		if r.divs[i].coef, err = mulInt(r.divs[i].coef, k); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (a *Aff) checkDims(b *Aff) error {
	if a.n != b.n {
		return fmt.Errorf("%d vs %d dimensions: %w", a.n, b.n, ErrSpaceMismatch)
	}
	return nil
}

// Add returns a + b.
func (a *Aff) Add(b *Aff) (*Aff, error) {
	if err := a.checkDims(b); err != nil {
		return nil, err
	}
	g := gcd(a.den, b.den)
	den, err := mulInt(a.den/g, b.den)
	if err != nil {
		return nil, err
	}
	x, err := a.scaleNum(den / a.den)
	if err != nil {
		return nil, err
	}
	y, err := b.scaleNum(den / b.den)
	if err != nil {
		return nil, err
	}
	if x.cst, err = addInt(x.cst, y.cst); err != nil {
		return nil, err
	}
	for i := range x.coef {
		if x.coef[i], err = addInt(x.coef[i], y.coef[i]); err != nil {
			return nil, err
		}
	}
	x.divs = append(x.divs, y.divs...)
	x.den = den
	return x.normalize()
}

// Neg returns -a.
func (a *Aff) Neg() (*Aff, error) {
	return a.Scale(-1)
}

// Sub returns a - b.
func (a *Aff) Sub(b *Aff) (*Aff, error) {
	nb, err := b.Neg()
	if err != nil {
		return nil, err
	}
	return a.Add(nb)
}

// Scale returns k*a.
func (a *Aff) Scale(k int64) (*Aff, error) {
	if k == 0 {
		return Zero(a.n), nil
	}
	r, err := a.scaleNum(k)
	if err != nil {
		return nil, err
	}
	return r.normalize()
}

// ScaleDown returns a/k for a positive k.
func (a *Aff) ScaleDown(k int64) (*Aff, error) {
	if k <= 0 {
		return nil, fmt.Errorf("scale down by %d: %w", k, ErrInvalidDivisor)
	}
	r := a.clone()
	var err error
	if r.den, err = mulInt(r.den, k); err != nil {
		return nil, err
	}
	return r.normalize()
}

// Floor returns floor(a). Integral parts of the numerator are pulled out of
// the division, so floor((4*i + j)/4) becomes i + floor(j/4).
func (a *Aff) Floor() (*Aff, error) {
	if a.den == 1 {
		return a, nil
	}
	d := a.den
	whole := Zero(a.n)
	rem := Zero(a.n)
	rem.den = d

	split := func(c int64) (int64, int64) {
		q := floorDiv(c, d)
		return q, c - q*d
	}
	whole.cst, rem.cst = split(a.cst)
	for i, c := range a.coef {
		whole.coef[i], rem.coef[i] = split(c)
	}
	for _, t := range a.divs {
		q, r := split(t.coef)
		if q != 0 {
			whole.divs = append(whole.divs, divTerm{coef: q, arg: t.arg, key: t.key})
		}
		if r != 0 {
			rem.divs = append(rem.divs, divTerm{coef: r, arg: t.arg, key: t.key})
		}
	}

	// 0 <= rem.cst < d, so a constant remainder floors to zero.
	if !rem.IsConstant() {
		arg, err := rem.normalize()
		if err != nil {
			return nil, err
		}
		whole.divs = append(whole.divs, divTerm{coef: 1, arg: arg, key: arg.key()})
	}
	return whole.normalize()
}

// Ceil returns ceil(a) = -floor(-a).
func (a *Aff) Ceil() (*Aff, error) {
	n, err := a.Neg()
	if err != nil {
		return nil, err
	}
	if n, err = n.Floor(); err != nil {
		return nil, err
	}
	return n.Neg()
}

// evalRat evaluates the expression at pt and returns the numerator; the
// value is num/a.den.
func (a *Aff) evalRat(pt []int64) (int64, error) {
	if len(pt) != a.n {
		return 0, fmt.Errorf("point of %d coordinates for %d dimensions: %w", len(pt), a.n, ErrSpaceMismatch)
	}
	sum := a.cst
	for i, c := range a.coef {
		if c == 0 {
			continue
		}
		t, err := mulInt(c, pt[i])
		if err != nil {
			return 0, err
		}
		if sum, err = addInt(sum, t); err != nil {
			return 0, err
		}
	}
	for _, d := range a.divs {
		num, err := d.arg.evalRat(pt)
		if err != nil {
			return 0, err
		}
		t, err := mulInt(d.coef, floorDiv(num, d.arg.den))
		if err != nil {
			return 0, err
		}
		if sum, err = addInt(sum, t); err != nil {
			return 0, err
		}
	}
	return sum, nil
}

// Eval evaluates the expression at an integer point.
func (a *Aff) Eval(pt []int64) (int64, error) {
	num, err := a.evalRat(pt)
	if err != nil {
		return 0, err
	}
	if num%a.den != 0 {
		return 0, fmt.Errorf("%d/%d: %w", num, a.den, ErrNotInteger)
	}
	return num / a.den, nil
}

// Equal reports whether a and b are the same canonical expression.
func (a *Aff) Equal(b *Aff) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.n == b.n && a.key() == b.key()
}

// key is the canonical text of the expression with positional names.
func (a *Aff) key() string {
	return a.Format(nil)
}

// String formats the expression with positional dimension names x0, x1, ...
func (a *Aff) String() string {
	return a.Format(nil)
}

// Format renders the expression using names for the input dimensions.
// Missing names default to x0, x1, ...
func (a *Aff) Format(names []string) string {
	num, terms := a.formatNumerator(names)
	if a.den == 1 {
		return num
	}
	if terms > 1 {
		return fmt.Sprintf("(%s)/%d", num, a.den)
	}
	return fmt.Sprintf("%s/%d", num, a.den)
}

func dimName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("x%d", i)
}

// formatNumerator renders the numerator and returns the number of terms.
func (a *Aff) formatNumerator(names []string) (string, int) {
	var sb strings.Builder
	terms := 0
	write := func(c int64, atom string) {
		switch {
		case terms == 0 && c == 1:
			sb.WriteString(atom)
		case terms == 0 && c == -1:
			sb.WriteString("-" + atom)
		case terms == 0:
			fmt.Fprintf(&sb, "%d*%s", c, atom)
		case c == 1:
			sb.WriteString(" + " + atom)
		case c == -1:
			sb.WriteString(" - " + atom)
		case c < 0:
			fmt.Fprintf(&sb, " - %d*%s", -c, atom)
		default:
			fmt.Fprintf(&sb, " + %d*%s", c, atom)
		}
		terms++
	}
	for i, c := range a.coef {
		if c != 0 {
			write(c, dimName(names, i))
		}
	}
	for _, d := range a.divs {
		write(d.coef, "floor("+d.arg.Format(names)+")")
	}
	if a.cst != 0 || terms == 0 {
		switch {
		case terms == 0:
			fmt.Fprintf(&sb, "%d", a.cst)
		case a.cst < 0:
			fmt.Fprintf(&sb, " - %d", -a.cst)
		default:
			fmt.Fprintf(&sb, " + %d", a.cst)
		}
		terms++
	}
	return sb.String(), terms
}
