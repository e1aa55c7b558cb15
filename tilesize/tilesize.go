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

// Package tilesize picks default tile sizes for the host CPU.
//
// The sizes are conservative blocking factors per vector target, counted in
// loop iterations: the innermost band member is tiled so that a tile spans a
// few vectors of float32 lanes, the outer members so that the working set of
// a tile stays within L1/L2.
package tilesize

import (
	"errors"
	"fmt"
	"slices"

	"github.com/xyproto/env/v2"

	"github.com/ajroetker/go-polyband/affine"
)

// TargetEnv names an environment variable that, when set, forces the target
// returned by Detect, e.g. POLYBAND_TILE_TARGET=neon.
const TargetEnv = "POLYBAND_TILE_TARGET"

// ErrUnknownTarget is returned by ParamsFor for an unknown target name.
var ErrUnknownTarget = errors.New("unknown tile size target")

// Params are the tile sizes for one target.
type Params struct {
	// Name is the target, e.g. "avx2".
	Name string

	// Outer is the tile size of every member but the innermost.
	Outer int64

	// Inner is the tile size of the innermost member.
	Inner int64
}

// ParamsAVX512 returns tile sizes for 512-bit vectors (16 float32 lanes).
func ParamsAVX512() Params {
	return Params{Name: "avx512", Outer: 32, Inner: 64}
}

// ParamsAVX2 returns tile sizes for 256-bit vectors (8 float32 lanes).
func ParamsAVX2() Params {
	return Params{Name: "avx2", Outer: 32, Inner: 32}
}

// ParamsNEON returns tile sizes for 128-bit vectors (4 float32 lanes).
func ParamsNEON() Params {
	return Params{Name: "neon", Outer: 16, Inner: 32}
}

// ParamsSVE returns tile sizes for scalable vectors. The vector length is
// not known statically, so the sizes assume 256 bits.
func ParamsSVE() Params {
	return Params{Name: "sve", Outer: 32, Inner: 64}
}

// ParamsFallback returns small tile sizes that suit any hardware.
func ParamsFallback() Params {
	return Params{Name: "fallback", Outer: 16, Inner: 16}
}

var targets = []func() Params{ParamsAVX512, ParamsAVX2, ParamsNEON, ParamsSVE, ParamsFallback}

// Names returns the known target names.
func Names() []string {
	names := make([]string, len(targets))
	for i, p := range targets {
		names[i] = p().Name
	}
	return names
}

// ParamsFor returns the tile sizes of the named target.
func ParamsFor(name string) (Params, error) {
	i := slices.IndexFunc(targets, func(p func() Params) bool { return p().Name == name })
	if i < 0 {
		return Params{}, fmt.Errorf("%w %q (known: %v)", ErrUnknownTarget, name, Names())
	}
	return targets[i](), nil
}

// Detect returns the tile sizes for the host CPU, or for the target named
// by TargetEnv if it is set to a known name.
func Detect() Params {
	if name := env.Str(TargetEnv); name != "" {
		if p, err := ParamsFor(name); err == nil {
			return p
		}
	}
	return detect()
}

// Sizes returns n tile sizes: Outer for all members but the last, which
// gets Inner.
func (p Params) Sizes(n int) *affine.Vec {
	if n <= 0 {
		return affine.NewVec()
	}
	sizes := make([]int64, n)
	for i := range sizes {
		sizes[i] = p.Outer
	}
	sizes[n-1] = p.Inner
	return affine.NewVec(sizes...)
}

// Default returns n tile sizes for the host CPU.
func Default(n int) *affine.Vec {
	return Detect().Sizes(n)
}
