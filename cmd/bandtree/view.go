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
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/ajroetker/go-polyband/schedule"
)

// bandView is the printed form of one band.
type bandView struct {
	Path    string `yaml:"path,omitempty"`
	Depth   int    `yaml:"depth"`
	Members int    `yaml:"members"`
	Zero    []bool `yaml:"zero,flow"`
	Prefix  string `yaml:"prefix,omitempty"`
	Partial string `yaml:"partial"`
	Suffix  string `yaml:"suffix,omitempty"`
}

// forestView is the YAML document written for a single input.
type forestView struct {
	Bands []bandView `yaml:"bands,omitempty"`
	Map   string     `yaml:"map,omitempty"`
}

// fileMap is the schedule map of one input of the map command.
type fileMap struct {
	File string `yaml:"file"`
	Map  string `yaml:"map"`
}

// describe builds the view of b. Prefix and suffix schedules are only
// computed if full is set.
func describe(b *schedule.Band, path string, depth int, full bool) (bandView, error) {
	v := bandView{Path: path, Depth: depth, Members: b.NumMembers(), Zero: []bool{}}
	for pos := range v.Members {
		zero, err := b.MemberIsZeroDistance(pos)
		if err != nil {
			return v, err
		}
		v.Zero = append(v.Zero, zero)
	}
	partial, err := b.GetPartialSchedule()
	if err != nil {
		return v, err
	}
	v.Partial = partial.String()
	if !full {
		return v, nil
	}
	prefix, err := b.GetPrefixSchedule()
	if err != nil {
		return v, err
	}
	suffix, err := b.GetSuffixSchedule()
	if err != nil {
		return v, err
	}
	v.Prefix, v.Suffix = prefix.String(), suffix.String()
	return v, nil
}

// preorderViews describes the bands of s parents first, with their paths.
func preorderViews(s *schedule.Schedule, full bool) ([]bandView, error) {
	forest, err := s.GetBandForest()
	if err != nil {
		return nil, err
	}
	defer forest.Free()
	var views []bandView
	err = preorder(forest, "", 0, func(b *schedule.Band, path string, depth int) error {
		v, err := describe(b, path, depth, full)
		if err != nil {
			return err
		}
		views = append(views, v)
		return nil
	})
	return views, err
}

func preorder(l *schedule.BandList, parent string, depth int, fn func(b *schedule.Band, path string, depth int) error) error {
	for i := range l.Len() {
		path := strconv.Itoa(i)
		if parent != "" {
			path = parent + "/" + path
		}
		b, err := l.Get(i)
		if err != nil {
			return err
		}
		err = fn(b, path, depth)
		if err == nil && b.HasChildren() {
			var children *schedule.BandList
			if children, err = b.GetChildren(); err == nil {
				err = preorder(children, path, depth+1, fn)
				children.Free()
			}
		}
		b.Free()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// writeTable writes rows in columns separated by two spaces. The last
// column is not padded.
func writeTable(w io.Writer, rows [][]string) error {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	var sb strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString("  ")
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
