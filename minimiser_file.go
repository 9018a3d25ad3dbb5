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

import "encoding/binary"
import "fmt"
import "os"
import "sort"
import "strconv"
import "strings"

/* -------------------------------------------------------------------------- */

// MinimiserFileHeader is the single-line `.header` companion the
// minimiser preparer writes next to each `.minimiser` file: `shape window
// cutoff max_count`, recording the exact parameters the minimisers were
// extracted under so a later `build` run can detect a mismatched re-issue
// (spec.md §4.5, §6, §7's ErrShapeMismatch). max_count is the highest
// occurrence count any surviving minimiser has, after cutoff filtering.
type MinimiserFileHeader struct {
  Shape    Shape
  Window   uint64
  Cutoff   uint16
  MaxCount uint16
}

/* -------------------------------------------------------------------------- */

func minimiserPath(prefix string) string { return prefix + ".minimiser" }
func headerPath(prefix string) string    { return prefix + ".header" }

/* -------------------------------------------------------------------------- */

// WriteMinimiserFile extracts and cutoff-filters the minimisers of a user
// bin's sequence files and writes them, sorted and deduplicated, to
// prefix+".minimiser" as a bare little-endian u64 stream with no in-band
// header (spec.md §6), alongside a prefix+".header" recording the
// parameters used. totalBytes is the sum of the input files' sizes, used
// to pick the occurrence cutoff via CutoffForSize.
func WriteMinimiserFile(prefix string, paths []string, params MinimiserParams, totalBytes int64) error {
  extractor := NewMinimiserExtractor(params)
  var all []uint64
  for _, p := range paths {
    if err := ReadSequenceFile(p, func(rec SequenceRecord) error {
      extractor.Each(rec.Sequence, func(h uint64) {
        all = append(all, h)
      })
      return nil
    }); err != nil {
      return err
    }
  }

  cutoff := CutoffForSize(totalBytes)

  counts := newSaturatingCounter()
  for _, v := range all {
    counts.Add(v)
  }
  seen := make(map[uint64]bool, len(all))
  var filtered []uint64
  var maxCount uint16
  for _, v := range all {
    c := counts.Count(v)
    if c > cutoff || seen[v] {
      continue
    }
    seen[v] = true
    filtered = append(filtered, v)
    if c > maxCount {
      maxCount = c
    }
  }
  sort.Slice(filtered, func(i, j int) bool { return filtered[i] < filtered[j] })

  if err := writeMinimiserValues(minimiserPath(prefix), filtered); err != nil {
    return err
  }
  return writeMinimiserHeader(headerPath(prefix), MinimiserFileHeader{
    Shape:    params.Shape,
    Window:   params.Window,
    Cutoff:   cutoff,
    MaxCount: maxCount,
  })
}

/* -------------------------------------------------------------------------- */

func writeMinimiserValues(path string, values []uint64) error {
  f, err := os.Create(path)
  if err != nil {
    return wrapError(ErrIO, path, err)
  }
  defer f.Close()

  buf := make([]byte, 8*len(values))
  for i, v := range values {
    binary.LittleEndian.PutUint64(buf[i*8:i*8+8], v)
  }
  if _, err := f.Write(buf); err != nil {
    return wrapError(ErrIO, path, err)
  }
  return nil
}

// ReadMinimiserFile loads the sorted, deduplicated minimiser set previously
// written by WriteMinimiserFile. The file carries no length header, so the
// count is derived from its size (spec.md §6).
func ReadMinimiserFile(prefix string) ([]uint64, error) {
  path := minimiserPath(prefix)
  data, err := os.ReadFile(path)
  if err != nil {
    return nil, wrapError(ErrIO, path, err)
  }
  if len(data)%8 != 0 {
    return nil, raptorErrorf(ErrFormat, path, "minimiser file size %d is not a multiple of 8", len(data))
  }
  n := len(data) / 8
  out := make([]uint64, n)
  for i := range out {
    out[i] = binary.LittleEndian.Uint64(data[i*8 : i*8+8])
  }
  return out, nil
}

/* -------------------------------------------------------------------------- */

func writeMinimiserHeader(path string, h MinimiserFileHeader) error {
  line := fmt.Sprintf("%s %d %d %d\n", h.Shape.String(), h.Window, h.Cutoff, h.MaxCount)
  if err := os.WriteFile(path, []byte(line), 0o644); err != nil {
    return wrapError(ErrIO, path, err)
  }
  return nil
}

// ReadMinimiserHeader loads the header WriteMinimiserFile wrote alongside
// a minimiser file: `shape window cutoff max_count` on a single line.
func ReadMinimiserHeader(prefix string) (MinimiserFileHeader, error) {
  path := headerPath(prefix)
  data, err := os.ReadFile(path)
  if err != nil {
    return MinimiserFileHeader{}, wrapError(ErrIO, path, err)
  }
  fields := strings.Fields(string(data))
  if len(fields) != 4 {
    return MinimiserFileHeader{}, raptorErrorf(ErrFormat, path, "expected 4 fields, found %d", len(fields))
  }
  shape, err := ParseShape(fields[0])
  if err != nil {
    return MinimiserFileHeader{}, err
  }
  window, err := strconv.ParseUint(fields[1], 10, 64)
  if err != nil {
    return MinimiserFileHeader{}, raptorErrorf(ErrFormat, path, "bad window field: %v", err)
  }
  cutoff, err := strconv.ParseUint(fields[2], 10, 16)
  if err != nil {
    return MinimiserFileHeader{}, raptorErrorf(ErrFormat, path, "bad cutoff field: %v", err)
  }
  maxCount, err := strconv.ParseUint(fields[3], 10, 16)
  if err != nil {
    return MinimiserFileHeader{}, raptorErrorf(ErrFormat, path, "bad max_count field: %v", err)
  }
  return MinimiserFileHeader{Shape: shape, Window: window, Cutoff: uint16(cutoff), MaxCount: uint16(maxCount)}, nil
}

/* -------------------------------------------------------------------------- */

// CheckHeaderCompatible reports an ErrShapeMismatch if a header previously
// written by `prepare` disagrees with the window/shape a subsequent
// `build` invocation is about to run with (spec.md §7).
func CheckHeaderCompatible(h MinimiserFileHeader, params MinimiserParams) error {
  if h.Window != params.Window || h.Shape.String() != params.Shape.String() {
    return raptorErrorf(ErrShapeMismatch, "", "prepared minimisers use window=%d shape=%s, build requested window=%d shape=%s", h.Window, h.Shape, params.Window, params.Shape)
  }
  return nil
}
