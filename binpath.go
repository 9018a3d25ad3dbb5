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

package raptor

/* -------------------------------------------------------------------------- */

import "bufio"
import "os"
import "strings"

/* -------------------------------------------------------------------------- */

// BinRecord is one line of a bins file: a user bin's id (its 0-based
// position among the file's non-blank lines) and the sequence file paths that make it up. A user bin backed
// by more than one file (e.g. paired-end reads) is the multi-path case
// spec.md §3 describes.
type BinRecord struct {
  UserBinID int64
  Paths     []string
}

/* -------------------------------------------------------------------------- */

// ReadBinPaths parses a bins file: one user bin per line, whitespace (or
// tab) separated file paths. Blank lines are skipped and not counted; the
// surviving lines are numbered 0, 1, 2, ... and those numbers become the
// user-bin ids, matching the build driver's
// expectation that bin_path[i] is user bin i (spec.md §6).
func ReadBinPaths(path string) ([]BinRecord, error) {
  f, err := os.Open(path)
  if err != nil {
    return nil, wrapError(ErrIO, path, err)
  }
  defer f.Close()

  var records []BinRecord
  scanner := bufio.NewScanner(f)
  var id int64
  for scanner.Scan() {
    line := strings.TrimSpace(scanner.Text())
    if line == "" {
      continue
    }
    fields := strings.Fields(line)
    records = append(records, BinRecord{UserBinID: id, Paths: fields})
    id++
  }
  if err := scanner.Err(); err != nil {
    return nil, wrapError(ErrIO, path, err)
  }
  return records, nil
}

// FlattenBinPaths extracts each record's path list, in the
// vector<vector<string>> shape the RaptorIndex header stores (spec.md §6).
func FlattenBinPaths(records []BinRecord) [][]string {
  out := make([][]string, len(records))
  for i, r := range records {
    out[i] = r.Paths
  }
  return out
}
