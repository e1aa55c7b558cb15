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
	"log/slog"

	"github.com/ajroetker/go-polyband/affine"
)

// Tile splits b into a tile band and a point band. b keeps its identity and
// becomes the tile band: each of its first min(NumMembers, sizes.Size())
// members x is replaced by floor(x/s), or by s*floor(x/s) when tile loops
// are scaled, and any further members are kept. A new point band holding
// b's previous partial schedule becomes the only child of b and takes over
// b's previous children.
//
// Tile sizes must be positive. On error b is left unchanged.
func (b *Band) Tile(sizes *affine.Vec) error {
	const op = "tile"
	if err := b.check(op); err != nil {
		return err
	}
	if sizes == nil {
		return newError(op, ErrNullInput, "tile sizes are nil")
	}
	n := min(b.n, sizes.Size())
	for i := range n {
		if s, _ := sizes.At(i); s <= 0 {
			return newError(op, ErrInvalidOperation, "tile size %d of member %d is not positive", s, i)
		}
	}

	scale := b.sched.opts.scaleTileLoops()
	tiled, err := tileUnion(b.pma, sizes, n, scale)
	if err != nil {
		return algebraError(op, err)
	}

	point := b.dup()
	point.owned = true
	point.parent = b.id
	point.children = b.children
	if point.children != nil {
		for _, c := range point.children.bands {
			c.parent = point.id
		}
	}
	b.children = &BandList{bands: []*Band{point}}
	b.pma = tiled

	b.sched.opts.logger.Debug("tiled band",
		slog.Int("band", b.id),
		slog.Int("point", point.id),
		slog.String("sizes", sizes.String()),
		slog.Bool("scale", scale))
	return nil
}

// tileUnion rewrites the first n outputs of every piece of u.
func tileUnion(u *affine.UnionPwMultiAff, sizes *affine.Vec, n int, scale bool) (*affine.UnionPwMultiAff, error) {
	r := affine.EmptyUnionPwMultiAff()
	err := u.ForeachPw(func(pw *affine.PwMultiAff) error {
		t, err := tilePw(pw, sizes, n, scale)
		if err != nil {
			return err
		}
		r, err = r.AddPw(t)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func tilePw(pw *affine.PwMultiAff, sizes *affine.Vec, n int, scale bool) (*affine.PwMultiAff, error) {
	r := affine.EmptyPwMultiAff(pw.Space(), pw.OutDim())
	err := pw.ForeachPiece(func(dom *affine.BasicSet, ma *affine.MultiAff) error {
		for i := range n {
			s, err := sizes.At(i)
			if err != nil {
				return err
			}
			v, err := tileAff(ma, i, s, scale)
			if err != nil {
				return err
			}
			if ma, err = ma.Set(i, v); err != nil {
				return err
			}
		}
		p, err := affine.NewPwMultiAff(dom, ma)
		if err != nil {
			return err
		}
		r, err = r.Union(p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// tileAff returns floor(ma[i]/s), multiplied back by s if scale is set.
func tileAff(ma *affine.MultiAff, i int, s int64, scale bool) (*affine.Aff, error) {
	v, err := ma.Get(i)
	if err != nil {
		return nil, err
	}
	if v, err = v.ScaleDown(s); err != nil {
		return nil, err
	}
	if v, err = v.Floor(); err != nil {
		return nil, err
	}
	if scale {
		return v.Scale(s)
	}
	return v, nil
}
