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

import "github.com/pborman/getopt"

import "github.com/pbenner/raptor"

/* -------------------------------------------------------------------------- */

func runUpgrade(args []string) {
  options := getopt.New()

  optOutput  := options.StringLong("output", 'o', "", "path to write the upgraded index to")
  optVerbose := options.CounterLong("verbose", 'v', "verbose level [-v or -vv]")
  optHelp    := options.BoolLong("help", 'h', "print help")

  options.SetParameters("<OLD-INDEX>")
  options.Parse(append([]string{"raptor upgrade"}, args...))

  if *optHelp {
    options.PrintUsage(os.Stdout)
    os.Exit(0)
  }
  if len(options.Args()) != 1 || *optOutput == "" {
    options.PrintUsage(os.Stderr)
    os.Exit(1)
  }

  log := newLogger(*optVerbose)

  in, err := os.Open(options.Args()[0])
  if err != nil {
    log.Fatal(err)
  }
  legacy, err := raptor.ReadLegacyIndexV1(in)
  in.Close()
  if err != nil {
    fatalf(log, err)
  }

  upgraded := raptor.UpgradeIndex(legacy)

  out, err := os.Create(*optOutput)
  if err != nil {
    log.Fatal(err)
  }
  defer out.Close()

  if err := upgraded.WriteTo(out); err != nil {
    fatalf(log, err)
  }
  log.WithField("path", *optOutput).Info("wrote upgraded index")
}
