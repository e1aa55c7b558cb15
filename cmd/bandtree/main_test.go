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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
	"gopkg.in/yaml.v3"

	"github.com/ajroetker/go-polyband/tilesize"
)

// TestGolden runs the archives in testdata. The comment of an archive holds
// the command line; its files other than "stdout" and "error" are written
// to a temporary directory and referenced by name in the command line.
// "stdout" is the expected output, "error" a substring of the expected
// error.
func TestGolden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(file)
			require.NoError(t, err)

			dir := t.TempDir()
			inputs := make(map[string]bool)
			want := make(map[string]string)
			for _, f := range ar.Files {
				switch f.Name {
				case "stdout", "error":
					want[f.Name] = string(f.Data)
				default:
					require.NoError(t, os.WriteFile(filepath.Join(dir, f.Name), f.Data, 0o644))
					inputs[f.Name] = true
				}
			}
			args := strings.Fields(string(ar.Comment))
			for i, arg := range args {
				if inputs[arg] {
					args[i] = filepath.Join(dir, arg)
				}
			}

			var stdout, stderr bytes.Buffer
			err = run(context.Background(), args, &stdout, &stderr)
			if msg, ok := want["error"]; ok {
				require.Error(t, err)
				assert.Contains(t, err.Error(), strings.TrimSpace(msg))
				return
			}
			require.NoError(t, err, "stderr:\n%s", stderr.String())
			if diff := cmp.Diff(want["stdout"], stdout.String()); diff != "" {
				t.Errorf("%s (-want +got):\n%s", ar.Comment, diff)
			}
		})
	}
}

const nestedInput = `statements:
  - schedule: "S[i, j, k] -> [i, j, k]"
    band_end: [1, 3]
    band_id: [0, 0]
    zero: [false, true, true]
  - schedule: "T[i, j] -> [i, j]"
    band_end: [1, 2]
    band_id: [0, 1]
    zero: [false, false]
  - schedule: "U[i] -> [i]"
    band_end: [1]
    band_id: [1]
    zero: [true]
`

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runYAML(t *testing.T, args ...string) forestView {
	t.Helper()
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), args, &stdout, &stderr), "stderr:\n%s", stderr.String())
	var got forestView
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &got), "stdout:\n%s", stdout.String())
	return got
}

func TestWalkYAML(t *testing.T) {
	input := writeInput(t, "input.yaml", nestedInput)
	// A buffer is not a terminal, so the default format is yaml.
	got := runYAML(t, "walk", input)
	want := []bandView{
		{Depth: 1, Members: 2, Zero: []bool{true, true}, Partial: "{ S[i, j, k] -> [j, k] }"},
		{Depth: 1, Members: 1, Zero: []bool{false}, Partial: "{ T[i, j] -> [j] }"},
		{Depth: 0, Members: 1, Zero: []bool{false}, Partial: "{ S[i, j, k] -> [i]; T[i, j] -> [i] }"},
		{Depth: 0, Members: 1, Zero: []bool{true}, Partial: "{ U[i] -> [i] }"},
	}
	if diff := cmp.Diff(want, got.Bands); diff != "" {
		t.Errorf("walk (-want +got):\n%s", diff)
	}
	assert.Empty(t, got.Map)
}

func TestShowYAML(t *testing.T) {
	input := writeInput(t, "input.yaml", nestedInput)
	got := runYAML(t, "show", "--format", "yaml", input)
	require.Len(t, got.Bands, 4)
	paths := make([]string, len(got.Bands))
	for i, b := range got.Bands {
		paths[i] = b.Path
	}
	assert.Equal(t, []string{"0", "0/0", "0/1", "1"}, paths)
	assert.Equal(t, "{ T[i, j] -> [i] }", got.Bands[2].Prefix)
	assert.Equal(t, "{ S[i, j, k] -> [j, k]; T[i, j] -> [j] }", got.Bands[0].Suffix)
}

func TestTileAutoUsesConfiguredTarget(t *testing.T) {
	input := writeInput(t, "input.yaml", nestedInput)
	config := writeInput(t, "config.yaml", "tile_target: neon\n")
	got := runYAML(t, "tile", "--config", config, "--band", "0/0", "--sizes", "auto", input)

	sizes := tilesize.ParamsNEON().Sizes(2).Values()
	require.Equal(t, []int64{16, 32}, sizes)
	require.Len(t, got.Bands, 5)
	assert.Equal(t, "0/0", got.Bands[1].Path)
	assert.Equal(t, "{ S[i, j, k] -> [16*floor(j/16), 32*floor(k/32)] }", got.Bands[1].Partial)
	assert.Equal(t, "0/0/0", got.Bands[2].Path)
	assert.Equal(t, "{ S[i, j, k] -> [j, k] }", got.Bands[2].Partial)
	assert.Equal(t, "{ S[i, j, k] -> [i, 16*floor(j/16), 32*floor(k/32), j, k]; T[i, j] -> [i, j]; U[i] -> [i] }", got.Map)
}

func TestTileRejectsNonPositiveSizes(t *testing.T) {
	input := writeInput(t, "input.yaml", nestedInput)
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"tile", "--band", "1", "--sizes", "0", input}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tiling band 1")
	assert.Empty(t, stdout.String())
}

func TestLogLevel(t *testing.T) {
	input := writeInput(t, "input.yaml", nestedInput)
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"map", "--log-level", "debug", input}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "level=DEBUG")
	assert.Contains(t, stderr.String(), "loaded schedule")

	stdout.Reset()
	stderr.Reset()
	require.NoError(t, run(context.Background(), []string{"map", input}, &stdout, &stderr))
	assert.Empty(t, stderr.String())

	err := run(context.Background(), []string{"map", "--log-level", "loud", input}, &stdout, &stderr)
	assert.ErrorContains(t, err, "invalid --log-level")
}

func TestTrace(t *testing.T) {
	input := writeInput(t, "input.yaml", nestedInput)
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"tile", "--trace", "--sizes", "4", input}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), `"Name": "load"`)
	assert.Contains(t, stderr.String(), `"Name": "tile"`)
}

func TestMapManyInputs(t *testing.T) {
	nested := writeInput(t, "nested.yaml", nestedInput)
	single := writeInput(t, "single.yaml", `statements:
  - schedule: "S[i, j] -> [j, i]"
    band_end: [1, 2]
    band_id: [0, 0]
    zero: [false, false]
`)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"map", "--format", "text", nested, single, nested}, &stdout, &stderr))
	assert.Equal(t, ""+
		nested+": { S[i, j, k] -> [i, j, k]; T[i, j] -> [i, j]; U[i] -> [i] }\n"+
		single+": { S[i, j] -> [j, i] }\n"+
		nested+": { S[i, j, k] -> [i, j, k]; T[i, j] -> [i, j]; U[i] -> [i] }\n",
		stdout.String())

	stdout.Reset()
	require.NoError(t, run(context.Background(), []string{"map", nested, single}, &stdout, &stderr))
	var got []fileMap
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, []fileMap{
		{File: nested, Map: "{ S[i, j, k] -> [i, j, k]; T[i, j] -> [i, j]; U[i] -> [i] }"},
		{File: single, Map: "{ S[i, j] -> [j, i] }"},
	}, got)

	err := run(context.Background(), []string{"map", nested, filepath.Join(t.TempDir(), "missing.yaml")}, &stdout, &stderr)
	assert.ErrorContains(t, err, "reading input")
}

func TestConfigKeys(t *testing.T) {
	input := writeInput(t, "input.yaml", nestedInput)
	var stdout, stderr bytes.Buffer

	empty := writeInput(t, "empty.yaml", "")
	require.NoError(t, run(context.Background(), []string{"map", "--config", empty, input}, &stdout, &stderr))

	typo := writeInput(t, "typo.yaml", "format: text\nlog_levle: debug\n")
	err := run(context.Background(), []string{"map", "--config", typo, input}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
	assert.Contains(t, err.Error(), "log_levle")
}
