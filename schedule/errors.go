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
	"fmt"

	"github.com/ajroetker/go-polyband/affine"
)

// Error kinds. Every error returned by this package matches exactly one of
// them with errors.Is.
var (
	// ErrNullInput is returned when a required argument is nil.
	ErrNullInput = errors.New("null input")

	// ErrOutOfBounds is returned for a member index outside [0, members).
	ErrOutOfBounds = errors.New("index out of bounds")

	// ErrInvalidOperation is returned for requests that make no sense for
	// the receiver, such as asking a leaf for its children, or when the
	// affine algebra rejects an operation.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrAllocation is returned when the affine algebra runs out of
	// coefficient range. It is never retried.
	ErrAllocation = errors.New("allocation failure")
)

// Error describes a failed operation.
type Error struct {
	// Op is the operation that failed, e.g. "tile".
	Op string

	// Kind is one of the Err* kinds above.
	Kind error

	// Msg is a short description.
	Msg string

	// Err is the underlying algebra error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	s := e.Op + ": " + e.Kind.Error()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the kind and the underlying error so that errors.Is
// matches both.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op string, kind error, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// algebraError classifies an error reported by the affine package.
func algebraError(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	kind := ErrInvalidOperation
	if errors.Is(err, affine.ErrOverflow) {
		kind = ErrAllocation
	}
	return &Error{Op: op, Kind: kind, Err: err}
}
