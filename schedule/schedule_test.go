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
	"errors"
	"testing"

	"github.com/ajroetker/go-polyband/affine"
)

// stmt builds a statement from its textual schedule and domain.
func stmt(t *testing.T, sched, dom string, bandEnd, bandID []int, zero []bool) Statement {
	t.Helper()
	ma, err := affine.ParseMultiAff(sched)
	if err != nil {
		t.Fatalf("ParseMultiAff(%q): %v", sched, err)
	}
	d, err := affine.ParseBasicSet(ma.Space(), dom)
	if err != nil {
		t.Fatalf("ParseBasicSet(%q): %v", dom, err)
	}
	return Statement{Schedule: ma, Domain: d, BandEnd: bandEnd, BandID: bandID, Zero: zero}
}

func mustUnion(t *testing.T, src string) *affine.UnionPwMultiAff {
	t.Helper()
	u, err := affine.ParseUnionPwMultiAff(src)
	if err != nil {
		t.Fatalf("ParseUnionPwMultiAff(%q): %v", src, err)
	}
	return u
}

// rootBand returns a reference to root i of s, to be freed by the caller.
func rootBand(t *testing.T, s *Schedule, i int) *Band {
	t.Helper()
	forest, err := s.GetBandForest()
	if err != nil {
		t.Fatalf("GetBandForest: %v", err)
	}
	defer forest.Free()
	b, err := forest.Get(i)
	if err != nil {
		t.Fatalf("Get(%d): %v", i, err)
	}
	return b
}

// childBand returns a reference to child i of b, to be freed by the caller.
func childBand(t *testing.T, b *Band, i int) *Band {
	t.Helper()
	children, err := b.GetChildren()
	if err != nil {
		t.Fatalf("GetChildren: %v", err)
	}
	defer children.Free()
	c, err := children.Get(i)
	if err != nil {
		t.Fatalf("Get(%d): %v", i, err)
	}
	return c
}

// tileExample is a single two-member band over a 10x10 domain.
func tileExample(t *testing.T, opts ...Option) *Schedule {
	t.Helper()
	s, err := New([]Statement{
		stmt(t, "S[i, j] -> [i, j]", "0 <= i < 10 && 0 <= j < 10", []int{2}, []int{0}, []bool{true, false}),
	}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNewValidation(t *testing.T) {
	good := func() Statement {
		return stmt(t, "S[i, j] -> [i, j]", "", []int{1, 2}, []int{0, 0}, []bool{false, false})
	}
	tests := []struct {
		name   string
		mutate func(st *Statement) []Statement
		want   error
	}{
		{"nil schedule", func(st *Statement) []Statement { st.Schedule = nil; return []Statement{*st} }, ErrNullInput},
		{"zero flags", func(st *Statement) []Statement { st.Zero = []bool{false}; return []Statement{*st} }, ErrInvalidOperation},
		{"band ids", func(st *Statement) []Statement { st.BandID = []int{0}; return []Statement{*st} }, ErrInvalidOperation},
		{"past last row", func(st *Statement) []Statement { st.BandEnd = []int{1, 3}; return []Statement{*st} }, ErrInvalidOperation},
		{"decreasing", func(st *Statement) []Statement { st.BandEnd = []int{2, 1}; return []Statement{*st} }, ErrInvalidOperation},
		{"negative id", func(st *Statement) []Statement { st.BandID = []int{0, -1}; return []Statement{*st} }, ErrInvalidOperation},
		{"duplicate", func(st *Statement) []Statement { return []Statement{*st, good()} }, ErrInvalidOperation},
		{"domain space", func(st *Statement) []Statement {
			st.Domain = affine.Universe(affine.NewSpace("T", "i"))
			return []Statement{*st}
		}, ErrInvalidOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := good()
			if _, err := New(tt.mutate(&st)); !errors.Is(err, tt.want) {
				t.Errorf("New = %v, want %v", err, tt.want)
			}
		})
	}

	s, err := New([]Statement{good()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Refs() != 1 || s.NumStatements() != 1 {
		t.Errorf("Refs() = %d, NumStatements() = %d, want 1 and 1", s.Refs(), s.NumStatements())
	}
}

func TestGetMapBeforeAndAfterForest(t *testing.T) {
	s, err := New([]Statement{
		stmt(t, "S[i, j] -> [i, j]", "", []int{1, 2}, []int{0, 0}, []bool{true, false}),
		stmt(t, "T[i] -> [i]", "", []int{1}, []int{0}, []bool{true}),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Free()

	const want = "{ S[i, j] -> [i, j]; T[i] -> [i] }"
	m, err := s.GetMap()
	if err != nil {
		t.Fatalf("GetMap: %v", err)
	}
	if got := m.String(); got != want {
		t.Errorf("GetMap before forest = %s, want %s", got, want)
	}

	forest, err := s.GetBandForest()
	if err != nil {
		t.Fatalf("GetBandForest: %v", err)
	}
	forest.Free()

	if m, err = s.GetMap(); err != nil {
		t.Fatalf("GetMap: %v", err)
	}
	if got := m.String(); got != want {
		t.Errorf("GetMap after forest = %s, want %s", got, want)
	}
}

func TestScheduleLifetime(t *testing.T) {
	s := tileExample(t)
	b := rootBand(t, s, 0)
	if s.Refs() != 2 {
		t.Fatalf("Refs() = %d, want 2 for the holder plus one band reference", s.Refs())
	}

	const k = 3
	aliases := make([]*Band, k)
	for i := range aliases {
		aliases[i] = b.Copy()
	}
	if s.Refs() != 2+k {
		t.Fatalf("Refs() = %d, want %d", s.Refs(), 2+k)
	}

	s.Free()
	if s.released || s.forest == nil {
		t.Fatal("schedule released while bands still reference it")
	}
	if s.Refs() != 1+k {
		t.Errorf("Refs() = %d, want %d", s.Refs(), 1+k)
	}

	for _, a := range aliases {
		a.Free()
		if s.released {
			t.Fatal("schedule released before the last band reference")
		}
		if b.NumMembers() != 2 {
			t.Errorf("NumMembers() = %d, want 2", b.NumMembers())
		}
	}
	b.Free()
	if !s.released || !b.released || s.forest != nil {
		t.Errorf("after the last reference: schedule released=%v, band released=%v, forest=%v",
			s.released, b.released, s.forest)
	}

	if _, err := s.GetBandForest(); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("GetBandForest = %v, want %v", err, ErrInvalidOperation)
	}
	if _, err := b.MemberIsZeroDistance(0); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("MemberIsZeroDistance = %v, want %v", err, ErrInvalidOperation)
	}
	if err := b.Tile(affine.NewVec(4)); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Tile = %v, want %v", err, ErrInvalidOperation)
	}
}

func TestArenaDropsReleasedBands(t *testing.T) {
	s := tileExample(t)
	defer s.Free()
	b := rootBand(t, s, 0)
	defer b.Free()
	live := len(s.arena)

	for range 100 {
		d, err := b.Dup()
		if err != nil {
			t.Fatalf("Dup: %v", err)
		}
		if err := d.Tile(affine.NewVec(2, 2)); err != nil {
			t.Fatalf("Tile: %v", err)
		}
		d.Free()

		c := b.Copy()
		r, err := c.SetMemberZeroDistance(0, false)
		if err != nil {
			t.Fatalf("SetMemberZeroDistance: %v", err)
		}
		r.Free()
	}
	if len(s.arena) != live {
		t.Errorf("arena holds %d bands, want %d", len(s.arena), live)
	}
	if s.nextID <= live {
		t.Errorf("nextID = %d, want ids past %d", s.nextID, live)
	}
}

func TestScaleTileLoopsDefault(t *testing.T) {
	prev := ScaleTileLoops()
	t.Cleanup(func() { SetScaleTileLoops(prev) })

	tile := func(s *Schedule) string {
		defer s.Free()
		b := rootBand(t, s, 0)
		defer b.Free()
		if err := b.Tile(affine.NewVec(4, 4)); err != nil {
			t.Fatalf("Tile: %v", err)
		}
		return partial(t, b)
	}
	const (
		scaled   = "{ S[i, j] -> [4*floor(i/4), 4*floor(j/4)] : i >= 0 && i <= 9 && j >= 0 && j <= 9 }"
		unscaled = "{ S[i, j] -> [floor(i/4), floor(j/4)] : i >= 0 && i <= 9 && j >= 0 && j <= 9 }"
	)
	tests := []struct {
		global bool
		opts   []Option
		want   string
	}{
		{true, nil, scaled},
		{true, []Option{WithScaleTileLoops(false)}, unscaled},
		{false, nil, unscaled},
		{false, []Option{WithScaleTileLoops(true)}, scaled},
	}
	for _, tt := range tests {
		SetScaleTileLoops(tt.global)
		if got := tile(tileExample(t, tt.opts...)); got != tt.want {
			t.Errorf("global=%v options=%d: got %s, want %s", tt.global, len(tt.opts), got, tt.want)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	s := tileExample(t)
	defer s.Free()
	b := rootBand(t, s, 0)
	defer b.Free()

	_, err := b.MemberIsZeroDistance(2)
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("MemberIsZeroDistance(2) = %v, want *Error", err)
	}
	if e.Op != "member_is_zero_distance" {
		t.Errorf("Op = %q, want member_is_zero_distance", e.Op)
	}
	if !errors.Is(err, ErrOutOfBounds) || errors.Is(err, ErrInvalidOperation) {
		t.Errorf("error %v should only match %v", err, ErrOutOfBounds)
	}
	if got, want := err.Error(), "member_is_zero_distance: index out of bounds: member 2 of 2"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var nilBand *Band
	if _, err := nilBand.GetPrefixSchedule(); !errors.Is(err, ErrNullInput) {
		t.Errorf("GetPrefixSchedule on nil = %v, want %v", err, ErrNullInput)
	}
	if err := b.Tile(nil); !errors.Is(err, ErrNullInput) {
		t.Errorf("Tile(nil) = %v, want %v", err, ErrNullInput)
	}
	var nilSchedule *Schedule
	if _, err := nilSchedule.GetMap(); !errors.Is(err, ErrNullInput) {
		t.Errorf("GetMap on nil = %v, want %v", err, ErrNullInput)
	}
}
