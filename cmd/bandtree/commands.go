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

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ajroetker/go-polyband/affine"
	"github.com/ajroetker/go-polyband/internal/workerpool"
	"github.com/ajroetker/go-polyband/schedule"
	"github.com/ajroetker/go-polyband/tilesize"
)

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE",
		Short: "Print the band forest and the prefix, partial and suffix schedule of every band",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Free()
			views, err := preorderViews(s, true)
			if err != nil {
				return err
			}
			if a.format == "yaml" {
				return writeYAML(a.stdout, forestView{Bands: views})
			}
			var sb strings.Builder
			if err := s.Dump(&sb); err != nil {
				return err
			}
			sb.WriteString("\n")
			for _, v := range views {
				fmt.Fprintf(&sb, "band %s\n", v.Path)
				fmt.Fprintf(&sb, "    prefix  %s\n", v.Prefix)
				fmt.Fprintf(&sb, "    partial %s\n", v.Partial)
				fmt.Fprintf(&sb, "    suffix  %s\n", v.Suffix)
			}
			_, err = io.WriteString(a.stdout, sb.String())
			return err
		},
	}
}

func (a *app) walkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "walk FILE",
		Short: "List the bands in post-order, descendants before their ancestors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Free()

			var views []bandView
			err = s.ForeachBand(func(b *schedule.Band) error {
				v, err := describe(b, "", bandDepth(b), false)
				if err != nil {
					return err
				}
				views = append(views, v)
				return nil
			})
			if err != nil {
				return err
			}
			if a.format == "yaml" {
				return writeYAML(a.stdout, forestView{Bands: views})
			}
			rows := [][]string{{"DEPTH", "MEMBERS", "ZERO", "PARTIAL"}}
			for _, v := range views {
				rows = append(rows, []string{
					strconv.Itoa(v.Depth),
					strconv.Itoa(v.Members),
					fmt.Sprint(v.Zero),
					v.Partial,
				})
			}
			return writeTable(a.stdout, rows)
		},
	}
}

func (a *app) tileCmd() *cobra.Command {
	var bandPath, sizesFlag string
	cmd := &cobra.Command{
		Use:   "tile FILE",
		Short: "Tile one band and print the resulting forest and schedule map",
		Long: "tile splits the band at --band into a tile band and a point band.\n" +
			"--band is a slash-separated path of child indices from the roots,\n" +
			"e.g. 0 for the first root or 0/1 for its second child. --sizes is a\n" +
			"comma-separated list of tile sizes, or auto for sizes suited to the\n" +
			"host CPU.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.load(ctx, args[0])
			if err != nil {
				return err
			}
			defer s.Free()

			forest, err := s.GetBandForest()
			if err != nil {
				return err
			}
			b, err := bandAt(forest, bandPath)
			forest.Free()
			if err != nil {
				return err
			}
			defer b.Free()

			sizes, err := a.tileSizes(sizesFlag, b.NumMembers())
			if err != nil {
				return err
			}
			_, span := a.tracer.Start(ctx, "tile", trace.WithAttributes(
				attribute.String("band", bandPath),
				attribute.String("sizes", sizes.String())))
			err = b.Tile(sizes)
			if err != nil {
				spanError(span, err)
			}
			span.End()
			if err != nil {
				return fmt.Errorf("tiling band %s: %w", bandPath, err)
			}
			a.logger.Info("tiled band", slog.String("band", bandPath), slog.String("sizes", sizes.String()))

			m, err := s.GetMap()
			if err != nil {
				return err
			}
			if a.format == "yaml" {
				views, err := preorderViews(s, false)
				if err != nil {
					return err
				}
				return writeYAML(a.stdout, forestView{Bands: views, Map: m.String()})
			}
			var sb strings.Builder
			if err := s.Dump(&sb); err != nil {
				return err
			}
			fmt.Fprintf(&sb, "\n%s\n", m)
			_, err = io.WriteString(a.stdout, sb.String())
			return err
		},
	}
	cmd.Flags().StringVar(&bandPath, "band", "0", "path of the band to tile, e.g. 0/1")
	cmd.Flags().StringVar(&sizesFlag, "sizes", "auto", "comma-separated tile sizes, or auto")
	return cmd
}

func (a *app) mapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map FILE...",
		Short: "Print the full schedule map of each input",
		Long: "map prints the schedule map of every input. Inputs are loaded\n" +
			"concurrently; with more than one input each map is labelled with its file.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maps := make([]fileMap, len(args))
			pool := workerpool.New(0)
			defer pool.Close()
			err := pool.Each(cmd.Context(), len(args), func(ctx context.Context, i int) error {
				s, err := a.load(ctx, args[i])
				if err != nil {
					return err
				}
				defer s.Free()
				m, err := s.GetMap()
				if err != nil {
					return fmt.Errorf("%s: %w", args[i], err)
				}
				maps[i] = fileMap{File: args[i], Map: m.String()}
				return nil
			})
			if err != nil {
				return err
			}

			if len(maps) == 1 {
				if a.format == "yaml" {
					return writeYAML(a.stdout, forestView{Map: maps[0].Map})
				}
				_, err = fmt.Fprintln(a.stdout, maps[0].Map)
				return err
			}
			if a.format == "yaml" {
				return writeYAML(a.stdout, maps)
			}
			var sb strings.Builder
			for _, m := range maps {
				fmt.Fprintf(&sb, "%s: %s\n", m.File, m.Map)
			}
			_, err = io.WriteString(a.stdout, sb.String())
			return err
		},
	}
}

// tileSizes parses --sizes for a band with n members.
func (a *app) tileSizes(flag string, n int) (*affine.Vec, error) {
	if strings.TrimSpace(flag) == "auto" {
		params := tilesize.Detect()
		if a.cfg.TileTarget != "" {
			var err error
			if params, err = tilesize.ParamsFor(a.cfg.TileTarget); err != nil {
				return nil, err
			}
		}
		a.logger.Debug("tile sizes", slog.String("target", params.Name), slog.Int("members", n))
		return params.Sizes(n), nil
	}
	fields := lo.Map(strings.Split(flag, ","), func(f string, _ int) string { return strings.TrimSpace(f) })
	sizes := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --sizes %q: %w", flag, err)
		}
		sizes[i] = v
	}
	return affine.NewVec(sizes...), nil
}

// bandAt returns a new reference to the band at path, e.g. "0/1" for the
// second child of the first root.
func bandAt(forest *schedule.BandList, path string) (*schedule.Band, error) {
	var indices []int
	for _, f := range strings.Split(path, "/") {
		i, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || i < 0 {
			return nil, fmt.Errorf("invalid band path %q", path)
		}
		indices = append(indices, i)
	}

	var b *schedule.Band
	list := forest
	for k, i := range indices {
		next, err := list.Get(i)
		if list != forest {
			list.Free()
		}
		if b != nil {
			b.Free()
		}
		if err != nil {
			return nil, fmt.Errorf("band %s: %w", path, err)
		}
		b = next
		if k == len(indices)-1 {
			break
		}
		if list, err = b.GetChildren(); err != nil {
			b.Free()
			return nil, fmt.Errorf("band %s: %w", path, err)
		}
	}
	return b, nil
}

// bandDepth counts the ancestors of b.
func bandDepth(b *schedule.Band) int {
	depth := 0
	for p := b.Parent(); p != nil; depth++ {
		q := p.Parent()
		p.Free()
		p = q
	}
	return depth
}
