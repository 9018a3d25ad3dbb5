/* Copyright (C) 2024 The Raptor Authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package main

/* -------------------------------------------------------------------------- */

import "os"
import "strconv"

import "github.com/pborman/getopt"

import "github.com/pbenner/raptor"

/* -------------------------------------------------------------------------- */

func runSearch(args []string) {
  options := getopt.New()

  optIndex    := options.StringLong("index", 'i', "", "index file produced by `raptor build`")
  optErrors   := options.IntLong("error", 'e', 0, "number of errors tolerated per query")
  optTau      := options.StringLong("tau", 0, "0.99", "confidence level for the threshold oracle")
  optThreads  := options.IntLong("threads", 't', 1, "number of worker threads")
  optCacheDir := options.StringLong("cache-dir", 0, "", "threshold oracle cache directory [default: disabled]")
  optOutput   := options.StringLong("output", 'o', "", "results path [default: stdout]")
  optVerbose  := options.CounterLong("verbose", 'v', "verbose level [-v or -vv]")
  optHelp     := options.BoolLong("help", 'h', "print help")

  options.SetParameters("<QUERY.fasta>")
  options.Parse(append([]string{"raptor search"}, args...))

  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if len(options.Args()) != 1 || *optIndex == "" {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }

  log := newLogger(*optVerbose)

  tau, err := strconv.ParseFloat(*optTau, 64)
  if err != nil {
    fatalf(log, err)
  }

  // LoadIndexAsync reads the small envelope header synchronously, so
  // index.Shape/index.Window are available immediately below, then keeps
  // reading the (potentially large) IBF/HIBF payload in the background;
  // joinIndex is passed straight through to SearchQueryFile, which joins
  // it right before the first query chunk needs it, overlapping the
  // payload read with that first chunk's query I/O (spec.md §4.7, §5).
  index, joinIndex, err := raptor.LoadIndexAsync(*optIndex)
  if err != nil {
    fatalf(log, err)
  }

  params := raptor.MinimiserParams{Shape: index.Shape, Window: index.Window}

  config := raptor.SearchConfig{
    Params:   params,
    Errors:   uint64(*optErrors),
    Tau:      tau,
    Threads:  *optThreads,
    CacheDir: *optCacheDir,
    Log:      log,
  }

  out := os.Stdout
  if *optOutput != "" {
    f, err := os.Create(*optOutput)
    if err != nil {
      log.Fatal(err)
    }
    defer f.Close()
    out = f
  }

  if _, err := raptor.SearchQueryFile(options.Args()[0], index, joinIndex, config, out, 0); err != nil {
    fatalf(log, err)
  }
}
