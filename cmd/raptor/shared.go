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

import "github.com/sirupsen/logrus"

import "github.com/pbenner/raptor"

/* -------------------------------------------------------------------------- */

// newLogger returns a logrus.Logger configured the way every raptor
// subcommand reports progress: text output on stderr, level driven by the
// -v/-vv counter each subcommand exposes.
func newLogger(verbose int) *logrus.Logger {
  log := logrus.New()
  log.SetOutput(os.Stderr)
  switch {
  case verbose >= 2:
    log.SetLevel(logrus.DebugLevel)
  case verbose == 1:
    log.SetLevel(logrus.InfoLevel)
  default:
    log.SetLevel(logrus.WarnLevel)
  }
  return log
}

/* -------------------------------------------------------------------------- */

// parseMinimiserParams builds a raptor.MinimiserParams from the flags every
// subcommand that touches minimisers shares (--kmer-size, --window-size,
// --shape).
func parseMinimiserParams(kmerSize int, windowSize int, shapeStr string) (raptor.MinimiserParams, error) {
  var shape raptor.Shape
  var err error
  if shapeStr != "" {
    shape, err = raptor.ParseShape(shapeStr)
    if err != nil {
      return raptor.MinimiserParams{}, err
    }
  } else {
    shape = raptor.NewUngappedShape(kmerSize)
  }
  window := uint64(windowSize)
  if window == 0 {
    window = uint64(shape.Size())
  }
  return raptor.MinimiserParams{Shape: shape, Window: window}, nil
}

func fatalf(log *logrus.Logger, err error) {
  log.Fatal(err)
}
