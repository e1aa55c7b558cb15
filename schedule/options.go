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
	"sync/atomic"

	"github.com/xyproto/env/v2"
)

// NoScaleTileLoopsEnv is the environment variable that, when set to a true
// value, disables scaling of tile loops for the whole process.
const NoScaleTileLoopsEnv = "POLYBAND_NO_SCALE_TILE_LOOPS"

var scaleTileLoops atomic.Bool

func init() {
	scaleTileLoops.Store(!env.Bool(NoScaleTileLoopsEnv))
}

// ScaleTileLoops reports whether Tile multiplies tile loops back by the
// tile size, so that they iterate over the first point of each tile rather
// than over tile numbers. It is enabled by default.
func ScaleTileLoops() bool {
	return scaleTileLoops.Load()
}

// SetScaleTileLoops sets the process-wide default returned by
// ScaleTileLoops. It affects every later Tile call on schedules created
// without WithScaleTileLoops.
func SetScaleTileLoops(on bool) {
	scaleTileLoops.Store(on)
}

// Option configures a Schedule.
type Option func(*options)

type options struct {
	// scale overrides the process-wide tile loop scaling when non-nil.
	scale *bool

	logger *slog.Logger
}

// WithScaleTileLoops fixes tile loop scaling for one schedule, overriding
// the process-wide setting.
func WithScaleTileLoops(on bool) Option {
	return func(o *options) {
		o.scale = &on
	}
}

// WithLogger sets the logger used for debug records about forest
// construction and tiling. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o *options) scaleTileLoops() bool {
	if o.scale != nil {
		return *o.scale
	}
	return ScaleTileLoops()
}
