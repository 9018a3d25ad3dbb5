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

// cutoffBracket is one entry of the file-size-to-cutoff lookup table used
// by the minimiser preparer to decide, without ever counting every
// distinct minimiser exactly, how many occurrences of a minimiser within a
// single user bin are "real" content versus a repeat element that would
// otherwise blow up that bin's false positive rate. Brackets are in bytes
// of (decompressed) input sequence, ascending; the first bracket with
// MaxBytes >= the bin's size wins.
type cutoffBracket struct {
  MaxBytes int64
  Cutoff   uint16
}

// defaultCutoffTable mirrors the empirical cutoff-by-file-size table the
// reference implementation ships: small bins keep every minimiser
// (cutoff 1, i.e. no filtering), larger bins progressively raise the bar.
var defaultCutoffTable = []cutoffBracket{
  {MaxBytes: 3 * 1 << 20, Cutoff: 1},
  {MaxBytes: 20 * 1 << 20, Cutoff: 3},
  {MaxBytes: 100 * 1 << 20, Cutoff: 20},
  {MaxBytes: 500 * 1 << 20, Cutoff: 50},
  {MaxBytes: 1 << 62, Cutoff: 100},
}

// CutoffForSize returns the minimiser occurrence cutoff for a user bin
// whose (decompressed) sequence content totals sizeBytes.
func CutoffForSize(sizeBytes int64) uint16 {
  for _, b := range defaultCutoffTable {
    if sizeBytes <= b.MaxBytes {
      return b.Cutoff
    }
  }
  return defaultCutoffTable[len(defaultCutoffTable)-1].Cutoff
}

/* -------------------------------------------------------------------------- */

// saturatingCounter is a counter that never wraps: once it reaches its
// maximum value it stays there, so a minimiser that is astronomically
// repetitive doesn't corrupt other counts by overflowing back to zero.
type saturatingCounter struct {
  counts map[uint64]uint16
}

func newSaturatingCounter() *saturatingCounter {
  return &saturatingCounter{counts: make(map[uint64]uint16)}
}

// Add increments v's count, saturating at the maximum uint16.
func (c *saturatingCounter) Add(v uint64) {
  n := c.counts[v]
  if n != 65535 {
    n++
  }
  c.counts[v] = n
}

// Count returns how many times v has been Added, up to saturation.
func (c *saturatingCounter) Count(v uint64) uint16 {
  return c.counts[v]
}

// Distinct returns the number of distinct values seen.
func (c *saturatingCounter) Distinct() int {
  return len(c.counts)
}

/* -------------------------------------------------------------------------- */

// ApplyCutoff returns the subset of values whose occurrence count (per
// counts) is at most cutoff, preserving the input order but dropping
// repeated occurrences beyond the first of each surviving value, matching
// the deduplicated-minimiser-set semantics the IBF's Emplace expects
// (spec.md §4.5: "minimisers occurring more than the cutoff ... are
// dropped before the set is inserted").
func ApplyCutoff(values []uint64, cutoff uint16) []uint64 {
  counts := newSaturatingCounter()
  for _, v := range values {
    counts.Add(v)
  }
  seen := make(map[uint64]bool, len(values))
  out := make([]uint64, 0, len(values))
  for _, v := range values {
    if counts.Count(v) > cutoff {
      continue
    }
    if seen[v] {
      continue
    }
    seen[v] = true
    out = append(out, v)
  }
  return out
}
