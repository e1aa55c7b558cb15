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
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ajroetker/go-polyband/affine"
)

const exampleDomain = " : i >= 0 && i <= 9 && j >= 0 && j <= 9 }"

func partial(t *testing.T, b *Band) string {
	t.Helper()
	p, err := b.GetPartialSchedule()
	if err != nil {
		t.Fatalf("GetPartialSchedule: %v", err)
	}
	return p.String()
}

func TestTileContract(t *testing.T) {
	s := tileExample(t, WithScaleTileLoops(false))
	defer s.Free()
	b := rootBand(t, s, 0)
	defer b.Free()

	if err := b.Tile(affine.NewVec(4, 4)); err != nil {
		t.Fatalf("Tile: %v", err)
	}
	if got, want := partial(t, b), "{ S[i, j] -> [floor(i/4), floor(j/4)]"+exampleDomain; got != want {
		t.Errorf("tile band = %s, want %s", got, want)
	}

	children, err := b.GetChildren()
	if err != nil {
		t.Fatalf("GetChildren: %v", err)
	}
	defer children.Free()
	if children.Len() != 1 {
		t.Fatalf("tile band has %d children, want 1", children.Len())
	}
	c := childBand(t, b, 0)
	defer c.Free()

	if got, want := partial(t, c), "{ S[i, j] -> [i, j]"+exampleDomain; got != want {
		t.Errorf("point band = %s, want %s", got, want)
	}
	if c.HasChildren() {
		t.Error("point band has children, want the tile band's former none")
	}
	if c.NumMembers() != b.NumMembers() {
		t.Errorf("point band has %d members, want %d", c.NumMembers(), b.NumMembers())
	}
	for pos := range c.NumMembers() {
		want, _ := b.MemberIsZeroDistance(pos)
		if got, err := c.MemberIsZeroDistance(pos); err != nil || got != want {
			t.Errorf("MemberIsZeroDistance(%d) = %v, %v, want %v", pos, got, err, want)
		}
	}

	parent := c.Parent()
	if parent != b {
		t.Errorf("Parent() = %p, want the tile band %p", parent, b)
	}
	parent.Free()

	prefix, err := c.GetPrefixSchedule()
	if err != nil {
		t.Fatalf("GetPrefixSchedule: %v", err)
	}
	if got, want := prefix.String(), "{ S[i, j] -> [floor(i/4), floor(j/4)]"+exampleDomain; got != want {
		t.Errorf("prefix of the point band = %s, want %s", got, want)
	}

	m, err := s.GetMap()
	if err != nil {
		t.Fatalf("GetMap: %v", err)
	}
	if got, want := m.String(), "{ S[i, j] -> [floor(i/4), floor(j/4), i, j]"+exampleDomain; got != want {
		t.Errorf("GetMap = %s, want %s", got, want)
	}
	got, ok, err := m.Eval("S", []int64{5, 6})
	if err != nil || !ok {
		t.Fatalf("Eval(S[5, 6]) = %v, %v", ok, err)
	}
	if diff := cmp.Diff([]int64{1, 1, 5, 6}, got); diff != "" {
		t.Errorf("tiled map at (5, 6) (-want +got):\n%s", diff)
	}
}

func TestTileSizes(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int64
		scale bool
		want  string
	}{
		{"fewer sizes", []int64{8}, false, "[floor(i/8), j]"},
		{"more sizes", []int64{2, 3, 5}, false, "[floor(i/2), floor(j/3)]"},
		{"no sizes", nil, false, "[i, j]"},
		{"unit", []int64{1, 1}, true, "[i, j]"},
		{"scaled", []int64{4, 8}, true, "[4*floor(i/4), 8*floor(j/8)]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tileExample(t, WithScaleTileLoops(tt.scale))
			defer s.Free()
			b := rootBand(t, s, 0)
			defer b.Free()
			if err := b.Tile(affine.NewVec(tt.sizes...)); err != nil {
				t.Fatalf("Tile(%v): %v", tt.sizes, err)
			}
			if got, want := partial(t, b), "{ S[i, j] -> "+tt.want+exampleDomain; got != want {
				t.Errorf("Tile(%v) = %s, want %s", tt.sizes, got, want)
			}
			if !b.HasChildren() {
				t.Error("tiled band has no point band")
			}
		})
	}
}

func TestTileReparentsChildren(t *testing.T) {
	s := nestedExample(t, WithScaleTileLoops(true))
	defer s.Free()
	a := rootBand(t, s, 0)
	defer a.Free()

	if err := a.Tile(affine.NewVec(32)); err != nil {
		t.Fatalf("Tile: %v", err)
	}
	if got, want := partial(t, a), "{ S[i, j, k] -> [32*floor(i/32)]; T[i, j] -> [32*floor(i/32)] }"; got != want {
		t.Fatalf("tile band = %s, want %s", got, want)
	}

	point := childBand(t, a, 0)
	defer point.Free()
	if got, want := partial(t, point), "{ S[i, j, k] -> [i]; T[i, j] -> [i] }"; got != want {
		t.Errorf("point band = %s, want %s", got, want)
	}

	inner, err := point.GetChildren()
	if err != nil {
		t.Fatalf("GetChildren: %v", err)
	}
	defer inner.Free()
	if inner.Len() != 2 {
		t.Fatalf("point band has %d children, want 2", inner.Len())
	}
	for i := range inner.Len() {
		c := childBand(t, point, i)
		if p := c.Parent(); p != point {
			t.Errorf("child %d: Parent() = %p, want the point band %p", i, p, point)
		} else {
			p.Free()
		}
		prefix, err := c.GetPrefixSchedule()
		if err != nil {
			t.Fatalf("GetPrefixSchedule: %v", err)
		}
		if !strings.Contains(prefix.String(), "[32*floor(i/32), i]") {
			t.Errorf("child %d: prefix %s lacks the tile and point members", i, prefix)
		}
		c.Free()
	}

	var buf strings.Builder
	if err := s.Dump(&buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	want := "" +
		"{ S[i, j, k] -> [32*floor(i/32)]; T[i, j] -> [32*floor(i/32)] }\n" +
		"    { S[i, j, k] -> [i]; T[i, j] -> [i] }\n" +
		"        { S[i, j, k] -> [j, k] }\n" +
		"        { T[i, j] -> [j] }\n" +
		"{ U[i] -> [i] }\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("Dump (-want +got):\n%s", diff)
	}
}

func TestTileFailureLeavesBandUnchanged(t *testing.T) {
	s := tileExample(t)
	defer s.Free()
	b := rootBand(t, s, 0)
	defer b.Free()
	before := partial(t, b)

	for _, sizes := range [][]int64{{0, 4}, {4, -2}} {
		if err := b.Tile(affine.NewVec(sizes...)); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("Tile(%v) = %v, want %v", sizes, err, ErrInvalidOperation)
		}
		if got := partial(t, b); got != before || b.HasChildren() {
			t.Errorf("after Tile(%v): %s with children=%v, want %s unchanged", sizes, got, b.HasChildren(), before)
		}
	}

	// Only the tiled members are checked.
	if err := b.Tile(affine.NewVec(4, 4, 0)); err != nil {
		t.Errorf("Tile with a surplus zero size: %v", err)
	}
}

func TestTileOverflowIsAllocationFailure(t *testing.T) {
	s, err := New([]Statement{
		stmt(t, "S[i] -> [i/3]", "", []int{1}, []int{0}, []bool{false}),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Free()
	b := rootBand(t, s, 0)
	defer b.Free()

	err = b.Tile(affine.NewVec(math.MaxInt64))
	if !errors.Is(err, ErrAllocation) || !errors.Is(err, affine.ErrOverflow) {
		t.Errorf("Tile(MaxInt64) = %v, want %v wrapping %v", err, ErrAllocation, affine.ErrOverflow)
	}
	if b.HasChildren() {
		t.Error("failed Tile added a point band")
	}
	if got := partial(t, b); got != "{ S[i] -> [i/3] }" {
		t.Errorf("partial schedule = %s after a failed Tile", got)
	}
}

func TestTileMemberlessBand(t *testing.T) {
	s, err := New([]Statement{
		stmt(t, "S[i] -> [i]", "", nil, nil, []bool{false}),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Free()
	b := rootBand(t, s, 0)
	defer b.Free()
	if b.NumMembers() != 0 {
		t.Fatalf("NumMembers() = %d, want 0", b.NumMembers())
	}

	if err := b.Tile(affine.NewVec(4)); err != nil {
		t.Fatalf("Tile: %v", err)
	}
	if got := partial(t, b); got != "{ S[i] -> [] }" {
		t.Errorf("partial schedule = %s, want { S[i] -> [] }", got)
	}
	if !b.HasChildren() {
		t.Error("tiled band has no point band")
	}
}

// TestTileDuplicateOwnsPointBand tiles a band outside the forest and checks
// that the point band goes with it.
func TestTileDuplicateOwnsPointBand(t *testing.T) {
	s := tileExample(t)
	defer s.Free()
	b := rootBand(t, s, 0)
	defer b.Free()
	refs := s.Refs()

	d, err := b.Dup()
	if err != nil {
		t.Fatalf("Dup: %v", err)
	}
	if err := d.Tile(affine.NewVec(4, 4)); err != nil {
		t.Fatalf("Tile: %v", err)
	}
	if b.HasChildren() {
		t.Error("tiling a duplicate changed the forest")
	}
	point := d.children.bands[0]
	if !point.owned || point.Refs() != 1 {
		t.Errorf("point band owned=%v refs=%d, want held by the duplicate only", point.owned, point.Refs())
	}

	d.Free()
	if !point.released {
		t.Error("point band outlived the duplicate that held it")
	}
	if s.Refs() != refs {
		t.Errorf("schedule refs %d, want %d", s.Refs(), refs)
	}
}
