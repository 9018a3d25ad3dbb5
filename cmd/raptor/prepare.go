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

import "fmt"
import "os"
import "path/filepath"

import "github.com/pborman/getopt"

import "github.com/pbenner/raptor"

/* -------------------------------------------------------------------------- */

func runPrepare(args []string) {
  options := getopt.New()

  optKmerSize   := options.IntLong("kmer-size", 'k', 20, "k-mer size")
  optWindowSize := options.IntLong("window-size", 'w', 0, "window size [default: kmer-size, i.e. no windowing]")
  optShape      := options.StringLong("shape", 0, "", "gapped shape as a 01-string [default: ungapped k-mer]")
  optOutDir     := options.StringLong("output-dir", 'o', "", "directory to write <id>.minimiser/.header pairs into")
  optVerbose    := options.CounterLong("verbose", 'v', "verbose level [-v or -vv]")
  optHelp       := options.BoolLong("help", 'h', "print help")

  options.SetParameters("<BINS-FILE>")
  options.Parse(append([]string{"raptor prepare"}, args...))

  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if len(options.Args()) != 1 || *optOutDir == "" {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }

  log := newLogger(*optVerbose)

  params, err := parseMinimiserParams(*optKmerSize, *optWindowSize, *optShape)
  if err != nil {
    fatalf(log, err)
  }

  bins, err := raptor.ReadBinPaths(options.Args()[0])
  if err != nil {
    fatalf(log, err)
  }

  if err := os.MkdirAll(*optOutDir, 0o755); err != nil {
    log.Fatal(err)
  }

  for _, bin := range bins {
    var totalBytes int64
    for _, p := range bin.Paths {
      if info, err := os.Stat(p); err == nil {
        totalBytes += info.Size()
      }
    }
    prefix := filepath.Join(*optOutDir, fmt.Sprintf("%d", bin.UserBinID))
    if err := raptor.WriteMinimiserFile(prefix, bin.Paths, params, totalBytes); err != nil {
      fatalf(log, err)
    }
    log.WithField("bin", bin.UserBinID).Debug("prepared minimisers")
  }
  log.WithField("bins", len(bins)).Info("prepare complete")
}
