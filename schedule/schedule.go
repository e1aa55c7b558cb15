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

	"github.com/ajroetker/go-polyband/affine"
)

// Statement is one row of the table a scheduler produces: the schedule of
// a statement and the way its schedule dimensions split into bands.
type Statement struct {
	// Schedule maps the statement instances to their schedule coordinates.
	Schedule *affine.MultiAff

	// Domain restricts the instances. Nil means all points of the space.
	Domain *affine.BasicSet

	// BandEnd[k] is the exclusive end row of the k-th band; band k covers
	// rows [BandEnd[k-1], BandEnd[k]).
	BandEnd []int

	// BandID[k] separates independent bands at depth k. Statements with
	// equal ids up to depth k share the band at depth k.
	BandID []int

	// Zero[r] reports whether row r carries only zero dependence distances.
	Zero []bool
}

// bandRange returns the rows of the band at depth. A statement without a
// band at depth gets the empty range after its last band. Statements only
// reach depth k > 0 of the forest if they have at least k bands.
func (st *Statement) bandRange(depth int) (start, end int) {
	if depth > 0 {
		start = st.BandEnd[depth-1]
	}
	end = start
	if depth < len(st.BandEnd) {
		end = st.BandEnd[depth]
	}
	return start, end
}

// Schedule anchors a band forest. It is created with one reference, held
// by the caller of New.
//
// A Schedule is not safe for concurrent use.
type Schedule struct {
	refs int
	opts options

	stmts []Statement

	// arena holds the live bands of this schedule by id.
	arena  map[int]*Band
	nextID int

	// forest is built on first use.
	forest *BandList

	released bool
}

// New returns a schedule for stmts. Every statement needs a schedule; the
// band table must describe consecutive row ranges within the schedule
// outputs, with one band id per band and one zero flag per row.
func New(stmts []Statement, opts ...Option) (*Schedule, error) {
	const op = "new"
	s := &Schedule{refs: 1, opts: newOptions(opts), arena: make(map[int]*Band)}
	for i, st := range stmts {
		if st.Schedule == nil {
			return nil, newError(op, ErrNullInput, "statement %d has no schedule", i)
		}
		space := st.Schedule.Space()
		dom := st.Domain
		if dom == nil {
			dom = affine.Universe(space)
		} else if !dom.Space().Matches(space) {
			return nil, newError(op, ErrInvalidOperation, "statement %d: domain %s does not match schedule %s", i, dom.Space(), space)
		}
		if slices.ContainsFunc(s.stmts, func(o Statement) bool { return o.Schedule.Space().Matches(space) }) {
			return nil, newError(op, ErrInvalidOperation, "statement %s appears twice", space)
		}
		rows := st.Schedule.Dim()
		if len(st.Zero) != rows {
			return nil, newError(op, ErrInvalidOperation, "statement %s: %d zero flags for %d schedule rows", space, len(st.Zero), rows)
		}
		if len(st.BandID) != len(st.BandEnd) {
			return nil, newError(op, ErrInvalidOperation, "statement %s: %d band ids for %d bands", space, len(st.BandID), len(st.BandEnd))
		}
		prev := 0
		for k, end := range st.BandEnd {
			if end < prev || end > rows {
				return nil, newError(op, ErrInvalidOperation, "statement %s: band %d ends at row %d, after row %d of %d", space, k, end, prev, rows)
			}
			if st.BandID[k] < 0 {
				return nil, newError(op, ErrInvalidOperation, "statement %s: band %d has negative id %d", space, k, st.BandID[k])
			}
			prev = end
		}
		s.stmts = append(s.stmts, Statement{
			Schedule: st.Schedule,
			Domain:   dom,
			BandEnd:  slices.Clone(st.BandEnd),
			BandID:   slices.Clone(st.BandID),
			Zero:     slices.Clone(st.Zero),
		})
	}
	s.opts.logger.Debug("created schedule", slog.Int("statements", len(s.stmts)))
	return s, nil
}

func (s *Schedule) check(op string) error {
	if s == nil {
		return newError(op, ErrNullInput, "schedule is nil")
	}
	if s.released {
		return newError(op, ErrInvalidOperation, "schedule has been released")
	}
	return nil
}

func (s *Schedule) allocBand() *Band {
	b := &Band{id: s.nextID, refs: 1, parent: -1, sched: s}
	s.nextID++
	s.arena[b.id] = b
	return b
}

func (s *Schedule) retain() {
	s.refs++
}

// release drops one reference and tears down the forest with the last.
func (s *Schedule) release() {
	s.refs--
	if s.refs > 0 {
		return
	}
	s.released = true
	if s.forest != nil {
		s.forest.release()
		s.forest = nil
	}
	s.opts.logger.Debug("released schedule", slog.Int("bands", s.nextID))
	s.arena = nil
}

// Copy returns a new reference to s.
func (s *Schedule) Copy() *Schedule {
	if s == nil || s.released {
		return nil
	}
	s.retain()
	return s
}

// Free releases a reference to s. The forest is released together with the
// last reference, including those held by bands.
func (s *Schedule) Free() {
	if s == nil || s.released {
		return
	}
	s.release()
}

// Refs returns the number of references to s, counting one for every
// outstanding band reference.
func (s *Schedule) Refs() int {
	if s == nil {
		return 0
	}
	return s.refs
}

// NumStatements returns the number of statements.
func (s *Schedule) NumStatements() int {
	if s == nil {
		return 0
	}
	return len(s.stmts)
}

// GetBandForest returns the roots of the band forest, building the forest
// on first use. The returned list holds new references to the roots and
// must be released with BandList.Free.
func (s *Schedule) GetBandForest() (*BandList, error) {
	const op = "get_band_forest"
	if err := s.check(op); err != nil {
		return nil, err
	}
	if s.forest == nil {
		forest, err := s.buildForest()
		if err != nil {
			return nil, err
		}
		s.forest = forest
	}
	return s.forest.Dup(), nil
}

// ForeachBand calls fn on every band of the forest in depth-first
// post-order. See BandList.ForeachBand.
func (s *Schedule) ForeachBand(fn func(b *Band) error) error {
	forest, err := s.GetBandForest()
	if err != nil {
		return err
	}
	defer forest.Free()
	return forest.ForeachBand(fn)
}

// GetMap returns the full schedule. Once the forest has been built it may
// have been transformed, so the map is then read back from the forest;
// before that it is the union of the statement schedules.
func (s *Schedule) GetMap() (*affine.UnionPwMultiAff, error) {
	const op = "get_map"
	if err := s.check(op); err != nil {
		return nil, err
	}
	if s.forest != nil {
		return s.forest.suffix(op)
	}
	m := affine.EmptyUnionPwMultiAff()
	for _, st := range s.stmts {
		pw, err := affine.NewPwMultiAff(st.Domain, st.Schedule)
		if err != nil {
			return nil, algebraError(op, err)
		}
		if m, err = m.AddPw(pw); err != nil {
			return nil, algebraError(op, err)
		}
	}
	return m, nil
}
