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

// Package affine implements the small piece of integer affine algebra that a
// band-tree schedule needs: quasi-affine expressions with floor divisions,
// multi-affine tuples over named statement spaces, conjunctive integer
// domains, and piecewise and union-piecewise multi-affine expressions.
//
// Every value is immutable. Operations return a fresh value, so sharing a
// value between two owners is always safe and "copying" one is free.
//
// A textual notation built on Go expression syntax is accepted by the Parse*
// functions and produced by the String methods:
//
//	{ S[i, j] -> [floor(i/4), j] : 0 <= i < 10 && 0 <= j < 10; T[k] -> [k] }
//
// Division by a constant is rational, as in i/4; floor(i/4) is the integer
// tile coordinate.
package affine
