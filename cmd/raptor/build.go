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

func runBuild(args []string) {
  options := getopt.New()

  optKmerSize   := options.IntLong("kmer-size", 'k', 20, "k-mer size")
  optWindowSize := options.IntLong("window-size", 'w', 0, "window size [default: kmer-size, i.e. no windowing]")
  optShape      := options.StringLong("shape", 0, "", "gapped shape as a 01-string [default: ungapped k-mer]")
  optFPR        := options.StringLong("fpr", 0, "0.05", "target false positive rate per bin")
  optHashCount  := options.IntLong("hash-count", 0, 2, "number of Bloom hash functions")
  optHIBF       := options.BoolLong("hibf", 0, "build a hierarchical index instead of a flat one")
  optMaxBins    := options.IntLong("max-bins", 0, 64, "maximum technical bins per IBF in an HIBF")
  optThreads    := options.IntLong("threads", 't', 1, "number of worker threads")
  optOutput     := options.StringLong("output", 'o', "", "output index path")
  optVerbose    := options.CounterLong("verbose", 'v', "verbose level [-v or -vv]")
  optHelp       := options.BoolLong("help", 'h', "print help")

  options.SetParameters("<BINS-FILE>")
  options.Parse(append([]string{"raptor build"}, args...))

  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if len(options.Args()) != 1 || *optOutput == "" {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }

  log := newLogger(*optVerbose)

  params, err := parseMinimiserParams(*optKmerSize, *optWindowSize, *optShape)
  if err != nil {
    fatalf(log, err)
  }

  fpr, err := strconv.ParseFloat(*optFPR, 64)
  if err != nil {
    fatalf(log, err)
  }

  bins, err := raptor.ReadBinPaths(options.Args()[0])
  if err != nil {
    fatalf(log, err)
  }

  config := raptor.BuildConfig{
    Params:    params,
    FPR:       fpr,
    HashCount: uint64(*optHashCount),
    Threads:   *optThreads,
    HIBF:      *optHIBF,
    MaxBins:   uint64(*optMaxBins),
    Log:       log,
  }

  index, err := raptor.Build(bins, config)
  if err != nil {
    fatalf(log, err)
  }

  f, err := os.Create(*optOutput)
  if err != nil {
    log.Fatal(err)
  }
  defer f.Close()

  if err := index.WriteTo(f); err != nil {
    fatalf(log, err)
  }
  log.WithField("path", *optOutput).Info("wrote index")
}
