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
	"slices"

	"github.com/ajroetker/go-polyband/affine"
)

// Band is a node of a schedule forest. It groups n consecutive schedule
// dimensions ("members") of the statements below it.
//
// A Band is not safe for concurrent use.
type Band struct {
	// id keys the band in its schedule's arena. Ids are not reused.
	id int

	// refs counts the forest's reference, if owned, and every reference
	// handed out. Only the handed out ones hold a schedule reference.
	refs  int
	owned bool

	// n is the number of members. zero has n entries and every expression
	// in pma has n outputs.
	n    int
	zero []bool
	pma  *affine.UnionPwMultiAff

	// children is nil for a leaf.
	children *BandList

	// parent is the id of the parent band, -1 for a root.
	parent int

	sched *Schedule

	released bool
}

// check reports misuse of b by the operation op.
func (b *Band) check(op string) error {
	if b == nil {
		return newError(op, ErrNullInput, "band is nil")
	}
	if b.released || b.sched.released {
		return newError(op, ErrInvalidOperation, "band has been released")
	}
	return nil
}

// dup returns a new band with b's members, flags, partial schedule and
// parent. Children are not duplicated; a child list has exactly one owner.
func (b *Band) dup() *Band {
	d := b.sched.allocBand()
	d.n = b.n
	d.zero = slices.Clone(b.zero)
	d.pma = b.pma
	d.parent = b.parent
	return d
}

// cow returns b if the caller holds its only reference and a duplicate
// outside the forest otherwise. In the latter case the caller's band
// reference is given up and its schedule reference moves to the duplicate.
func (b *Band) cow() *Band {
	if b.refs == 1 {
		return b
	}
	b.refs--
	return b.dup()
}

// Copy returns a new reference to b. The reference also keeps b's schedule
// alive and must be released with Free.
func (b *Band) Copy() *Band {
	if b == nil || b.released {
		return nil
	}
	b.refs++
	b.sched.retain()
	return b
}

// Free releases a reference obtained from Copy, Dup, BandList.Get or a
// list returned by this package.
func (b *Band) Free() {
	if b == nil || b.released {
		return
	}
	b.refs--
	if b.refs == 0 {
		b.destroy()
	}
	b.sched.release()
}

// release drops the reference held by the forest or by the child list of
// a band outside it.
func (b *Band) release() {
	if b == nil || b.released || !b.owned {
		return
	}
	b.owned = false
	b.refs--
	if b.refs == 0 {
		b.destroy()
	}
}

func (b *Band) destroy() {
	b.released = true
	b.pma = nil
	b.zero = nil
	if b.children != nil {
		b.children.release()
		b.children = nil
	}
	delete(b.sched.arena, b.id)
}

// Dup returns an independent band with the members, zero-distance flags,
// partial schedule and parent of b, but without children. The duplicate
// is not part of the forest and must be released with Free.
func (b *Band) Dup() (*Band, error) {
	if err := b.check("dup"); err != nil {
		return nil, err
	}
	d := b.dup()
	b.sched.retain()
	return d, nil
}

// Refs returns the number of references to b.
func (b *Band) Refs() int {
	if b == nil {
		return 0
	}
	return b.refs
}

// Schedule returns the schedule that owns b. It does not add a reference.
func (b *Band) Schedule() *Schedule {
	if b == nil {
		return nil
	}
	return b.sched
}

// parentBand returns the parent of b without adding a reference, or nil
// for a root. It fails if the parent has been released, which happens to
// the children of a duplicate once the duplicate is freed.
func (b *Band) parentBand(op string) (*Band, error) {
	if b.parent < 0 {
		return nil, nil
	}
	p, ok := b.sched.arena[b.parent]
	if !ok {
		return nil, newError(op, ErrInvalidOperation, "parent band has been released")
	}
	return p, nil
}

// Parent returns a new reference to the parent of b, or nil for a root
// and for a band whose parent has been released.
func (b *Band) Parent() *Band {
	if b.check("parent") != nil {
		return nil
	}
	p, err := b.parentBand("parent")
	if err != nil {
		return nil
	}
	return p.Copy()
}

// NumMembers returns the number of schedule dimensions in b.
func (b *Band) NumMembers() int {
	if b.check("n_member") != nil {
		return 0
	}
	return b.n
}

// MemberIsZeroDistance reports whether the dependence distance along
// member pos is zero for every proximity dependence.
func (b *Band) MemberIsZeroDistance(pos int) (bool, error) {
	const op = "member_is_zero_distance"
	if err := b.check(op); err != nil {
		return false, err
	}
	if pos < 0 || pos >= b.n {
		return false, newError(op, ErrOutOfBounds, "member %d of %d", pos, b.n)
	}
	return b.zero[pos], nil
}

// HasChildren reports whether b has a child list.
func (b *Band) HasChildren() bool {
	return b.check("has_children") == nil && b.children != nil
}

// GetChildren returns a duplicate of b's child list. Changing the list
// does not change the forest; the bands in it are shared and the list must
// be released with BandList.Free.
func (b *Band) GetChildren() (*BandList, error) {
	const op = "get_children"
	if err := b.check(op); err != nil {
		return nil, err
	}
	if b.children == nil {
		return nil, newError(op, ErrInvalidOperation, "band has no children")
	}
	return b.children.Dup(), nil
}

// SetPartialSchedule replaces the partial schedule of b. It takes over the
// caller's reference to b and returns the reference to use from now on:
// b itself if the caller held the only reference, otherwise a duplicate
// outside the forest, leaving the shared band unchanged. On error the reference is
// released.
func (b *Band) SetPartialSchedule(pma *affine.UnionPwMultiAff) (*Band, error) {
	const op = "set_partial_schedule"
	if err := b.check(op); err != nil {
		return nil, err
	}
	if pma == nil {
		b.Free()
		return nil, newError(op, ErrNullInput, "partial schedule is nil")
	}
	n, err := pma.OutDim()
	if err != nil {
		b.Free()
		return nil, algebraError(op, err)
	}
	if pma.NumPw() > 0 && n != b.n {
		b.Free()
		return nil, newError(op, ErrInvalidOperation, "partial schedule has %d outputs, band has %d members", n, b.n)
	}
	r := b.cow()
	r.pma = pma
	return r, nil
}

// SetMemberZeroDistance sets the zero-distance flag of member pos, with the
// same ownership rules as SetPartialSchedule.
func (b *Band) SetMemberZeroDistance(pos int, zero bool) (*Band, error) {
	const op = "set_member_zero_distance"
	if err := b.check(op); err != nil {
		return nil, err
	}
	if pos < 0 || pos >= b.n {
		b.Free()
		return nil, newError(op, ErrOutOfBounds, "member %d of %d", pos, b.n)
	}
	r := b.cow()
	r.zero[pos] = zero
	return r, nil
}
