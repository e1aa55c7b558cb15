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
	"slices"

	"github.com/samber/lo"

	"github.com/ajroetker/go-polyband/affine"
)

func (s *Schedule) buildForest() (*BandList, error) {
	return s.buildBandList(nil, 0, lo.Range(len(s.stmts)))
}

// buildBandList builds the bands at depth for the statements in active.
// There is one band per band id, in increasing id order, followed by a
// member-less band for every statement without a band at depth, so each
// active statement ends up in exactly one band of the list.
func (s *Schedule) buildBandList(parent *Band, depth int, active []int) (*BandList, error) {
	banded := lo.Filter(active, func(i, _ int) bool { return len(s.stmts[i].BandEnd) > depth })
	ids := lo.Uniq(lo.Map(banded, func(i, _ int) int { return s.stmts[i].BandID[depth] }))
	slices.Sort(ids)

	list := NewBandList(len(ids) + len(active) - len(banded))
	add := func(members []int) error {
		b, err := s.buildBand(parent, depth, members)
		if err != nil {
			return err
		}
		list.bands = append(list.bands, b)
		return nil
	}
	for _, id := range ids {
		members := lo.Filter(banded, func(i, _ int) bool { return s.stmts[i].BandID[depth] == id })
		if err := add(members); err != nil {
			list.release()
			return nil, err
		}
	}
	for _, i := range active {
		if len(s.stmts[i].BandEnd) > depth {
			continue
		}
		if err := add([]int{i}); err != nil {
			list.release()
			return nil, err
		}
	}
	return list, nil
}

// buildBand builds the band at depth shared by the statements in active.
func (s *Schedule) buildBand(parent *Band, depth int, active []int) (*Band, error) {
	const op = "construct_band"
	b := s.allocBand()
	b.owned = true
	if parent != nil {
		b.parent = parent.id
	}

	if lo.SomeBy(active, func(i int) bool { return len(s.stmts[i].BandEnd) > depth+1 }) {
		children, err := s.buildBandList(b, depth+1, active)
		if err != nil {
			b.release()
			return nil, err
		}
		b.children = children
	}

	first := &s.stmts[active[0]]
	start, end := first.bandRange(depth)
	b.n = end - start
	b.zero = slices.Clone(first.Zero[start:end])
	b.pma = affine.EmptyUnionPwMultiAff()
	for _, i := range active {
		st := &s.stmts[i]
		start, end := st.bandRange(depth)
		if end-start != b.n {
			b.release()
			return nil, newError(op, ErrInvalidOperation, "statement %s has %d members at depth %d, %s has %d",
				st.Schedule.Space(), end-start, depth, first.Schedule.Space(), b.n)
		}
		ma, err := st.Schedule.DropOutputs(end, st.Schedule.Dim()-end)
		if err == nil {
			ma, err = ma.DropOutputs(0, start)
		}
		var pw *affine.PwMultiAff
		if err == nil {
			pw, err = affine.NewPwMultiAff(st.Domain, ma)
		}
		if err == nil {
			b.pma, err = b.pma.AddPw(pw)
		}
		if err != nil {
			b.release()
			return nil, algebraError(op, err)
		}
	}

	s.opts.logger.Debug("constructed band",
		slog.Int("band", b.id),
		slog.Int("depth", depth),
		slog.Int("members", b.n),
		slog.Int("statements", len(active)))
	return b, nil
}
