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
	"fmt"
	"io"
	"strings"
)

// indent is the indentation per forest depth.
const indent = 4

// Dump writes the forest of s, one band per line with its partial schedule,
// children indented below their parent.
func (s *Schedule) Dump(w io.Writer) error {
	forest, err := s.GetBandForest()
	if err != nil {
		return err
	}
	defer forest.Free()
	return forest.dump(w, 0)
}

func (l *BandList) dump(w io.Writer, depth int) error {
	for _, b := range l.bands {
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", depth*indent), b.pma); err != nil {
			return err
		}
		if b.children != nil {
			if err := b.children.dump(w, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// String returns the output of Dump.
func (s *Schedule) String() string {
	var sb strings.Builder
	if err := s.Dump(&sb); err != nil {
		return "<" + err.Error() + ">"
	}
	return sb.String()
}

// String returns "(prefix,partial,suffix)".
func (b *Band) String() string {
	prefix, err := b.GetPrefixSchedule()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	suffix, err := b.GetSuffixSchedule()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return fmt.Sprintf("(%s,%s,%s)", prefix, b.pma, suffix)
}
