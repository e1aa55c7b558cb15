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

// Package schedule represents a polyhedral loop schedule as a forest of
// bands.
//
// A band groups consecutive schedule dimensions that a scheduler placed
// together, typically because they are permutable and can be tiled. Each
// band holds a partial schedule, an affine.UnionPwMultiAff whose output
// arity is the number of band members, and a per-member flag recording
// whether the dependence distance along that member is zero. Bands nest:
// the children of a band are scheduled inside it.
//
// # Composition
//
// For a band B the full schedule of a statement below B is the flat range
// product
//
//	prefix(B) x partial(B) x suffix(B)
//
// where the prefix is the concatenation of the partial schedules of B's
// ancestors, outermost first, and the suffix is the schedule of B's subtree.
// ForeachBand visits a forest in post-order, inner bands before the bands
// that enclose them.
//
// # Ownership
//
// Bands and schedules are reference counted explicitly so that a code
// generator can hold on to individual bands while the tree evolves. Every
// band reference handed out by this package (Copy, BandList.Get, the lists
// returned by GetChildren and Schedule.GetBandForest) also holds a
// reference to the owning Schedule and must be released with Free. A
// schedule keeps its forest alive until its own reference and every band
// reference have been released.
//
// # Tiling
//
// Band.Tile splits a band into a tile band, which keeps the identity of the
// original band and iterates over blocks, and a point band holding the
// original schedule and children:
//
//	S[i, j] -> [i, j]   tiled by [4, 4] becomes
//	S[i, j] -> [floor(i/4), floor(j/4)]
//	    S[i, j] -> [i, j]
//
// When tile loops are scaled (the default) the tile band instead iterates
// over the first point of each block, 4*floor(i/4).
package schedule
