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
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajroetker/go-polyband/affine"
	"github.com/ajroetker/go-polyband/schedule"
)

// Input is the statement table read by every command.
type Input struct {
	Statements []StatementInput `yaml:"statements" validate:"required,min=1,dive"`
}

// StatementInput describes one statement in the notation of the affine
// parsers.
type StatementInput struct {
	Schedule string `yaml:"schedule" validate:"required"`
	Domain   string `yaml:"domain"`
	BandEnd  []int  `yaml:"band_end" validate:"dive,gte=0"`
	BandID   []int  `yaml:"band_id" validate:"dive,gte=0"`
	Zero     []bool `yaml:"zero"`
}

func loadInput(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	var in Input
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("parsing input %s: %w", path, err)
	}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid input %s: %w", path, err)
	}
	return &in, nil
}

// statements converts the table into schedule statements.
func (in *Input) statements() ([]schedule.Statement, error) {
	stmts := make([]schedule.Statement, 0, len(in.Statements))
	for i, si := range in.Statements {
		ma, err := affine.ParseMultiAff(si.Schedule)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		st := schedule.Statement{
			Schedule: ma,
			BandEnd:  si.BandEnd,
			BandID:   si.BandID,
			Zero:     si.Zero,
		}
		if strings.TrimSpace(si.Domain) != "" {
			if st.Domain, err = affine.ParseBasicSet(ma.Space(), si.Domain); err != nil {
				return nil, fmt.Errorf("statement %s: %w", ma.Space(), err)
			}
		}
		stmts = append(stmts, st)
	}
	return stmts, nil
}
