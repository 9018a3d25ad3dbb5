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

/* -------------------------------------------------------------------------- */

func usage() {
  fmt.Fprintln(os.Stderr, "Usage: raptor <command> [<args>]")
  fmt.Fprintln(os.Stderr)
  fmt.Fprintln(os.Stderr, "Commands:")
  fmt.Fprintln(os.Stderr, "  build    build an IBF or HIBF index from a bins file")
  fmt.Fprintln(os.Stderr, "  search   query an index with FASTA/FASTQ reads")
  fmt.Fprintln(os.Stderr, "  prepare  precompute and cache minimiser sets for a bins file")
  fmt.Fprintln(os.Stderr, "  upgrade  rewrite a version 1 index in the current format")
}

func main() {
  if len(os.Args) < 2 {
    usage()
    os.Exit(1)
  }

  args := os.Args[2:]
  switch os.Args[1] {
  case "build":
    runBuild(args)
  case "search":
    runSearch(args)
  case "prepare":
    runPrepare(args)
  case "upgrade":
    runUpgrade(args)
  case "-h", "--help", "help":
    usage()
    os.Exit(0)
  default:
    fmt.Fprintf(os.Stderr, "raptor: unknown command %q\n\n", os.Args[1])
    usage()
    os.Exit(1)
  }
}
