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

// Command bandtree loads a statement table, builds its band forest and
// inspects or tiles it.
//
// Usage:
//
//	bandtree show stmts.yaml                      # forest with prefix/partial/suffix per band
//	bandtree walk stmts.yaml                      # bands in post-order
//	bandtree tile stmts.yaml --band 0/1 --sizes 32,32
//	bandtree tile stmts.yaml --band 0 --sizes auto # sizes for the host CPU
//	bandtree map stmts.yaml                       # full schedule map
//
// The input lists one entry per statement:
//
//	statements:
//	  - schedule: "S[i, j] -> [i, j]"
//	    domain: "0 <= i < 10 && 0 <= j < 10"
//	    band_end: [2]
//	    band_id: [0]
//	    zero: [true, false]
//
// band_end[k] is the exclusive end row of the statement's k-th band and
// band_id[k] separates independent bands at depth k.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
