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
import "io"

/* -------------------------------------------------------------------------- */

// UserBinIndex records, for every technical bin of every IBF in an HIBF,
// which original user bin (if any) it is a leaf for. A value of -1 means
// the technical bin is a merged bin, standing in for an entire child
// subtree rather than one user bin's content (spec.md §3).
type UserBinIndex struct {
  // binIndices[i][b] is the user-bin id stored at technical bin b of
  // ibf_vector[i], or -1 if bin b is a merged bin.
  binIndices [][]int64
}

func (u *UserBinIndex) ensure(i int) {
  for len(u.binIndices) <= i {
    u.binIndices = append(u.binIndices, nil)
  }
}

// BinIndicesOfIBF returns the per-technical-bin user-bin ids of ibf_vector[i].
func (u *UserBinIndex) BinIndicesOfIBF(i int) []int64 {
  if i >= len(u.binIndices) {
    return nil
  }
  return u.binIndices[i]
}

// SetBinIndicesOfIBF installs the per-technical-bin user-bin ids for
// ibf_vector[i], growing the backing slice as needed.
func (u *UserBinIndex) SetBinIndicesOfIBF(i int, ids []int64) {
  u.ensure(i)
  u.binIndices[i] = ids
}

/* -------------------------------------------------------------------------- */

// HIBF is a rooted tree of IBFs. ibf_vector[0] is always the root
// (spec.md §3, invariant b). For every technical bin b of ibf_vector[i],
// next_ibf_id[i][b] is either i itself (a leaf bin, storing user-bin
// content directly) or the index of a child IBF (a merged bin).
type HIBF struct {
  IBFVector  []*IBF
  NextIBFID  [][]int64
  UserBins   UserBinIndex
}

// NewHIBF returns an HIBF with no nodes yet; the build driver appends nodes
// as hierarchical_build assigns them positions (spec.md §4.3).
func NewHIBF() *HIBF {
  return &HIBF{}
}

/* -------------------------------------------------------------------------- */

// reserveNode allocates the next ibf_vector slot and returns its index.
func (h *HIBF) reserveNode() int {
  h.IBFVector = append(h.IBFVector, nil)
  h.NextIBFID = append(h.NextIBFID, nil)
  return len(h.IBFVector) - 1
}

/* -------------------------------------------------------------------------- */

// Validate checks the structural invariants spec.md §4.3 requires: every
// next_ibf_id entry is either a leaf (pointing at its own IBF) or points at
// an in-range child index, there are no cycles, and next_ibf_id/user_bins
// agree in length with their IBF's bin count (spec.md §3, invariant c).
// A violation is index corruption, not a recoverable condition.
func (h *HIBF) Validate() error {
  n := len(h.IBFVector)
  for i := 0; i < n; i++ {
    ibf := h.IBFVector[i]
    if ibf == nil {
      return raptorErrorf(ErrCorruption, "", "hibf: node %d has no IBF", i)
    }
    next := h.NextIBFID[i]
    ids := h.UserBins.BinIndicesOfIBF(i)
    if uint64(len(next)) != ibf.Bins() || uint64(len(ids)) != ibf.Bins() {
      return raptorErrorf(ErrCorruption, "", "hibf: node %d bin-count mismatch: bins=%d next=%d userBins=%d", i, ibf.Bins(), len(next), len(ids))
    }
    for _, child := range next {
      if child < 0 || child >= int64(n) {
        return raptorErrorf(ErrCorruption, "", "hibf: node %d has dangling child index %d", i, child)
      }
    }
  }
  return cycleCheck(h.NextIBFID, 0)
}

// cycleCheck walks the merged-bin edges from root with a recursion-stack
// marker, failing on any back edge (a cycle) per spec.md §4.3's failure
// clause.
func cycleCheck(next [][]int64, root int) error {
  n := len(next)
  state := make([]uint8, n) // 0 unvisited, 1 on stack, 2 done
  var visit func(i int) error
  visit = func(i int) error {
    if state[i] == 1 {
      return raptorErrorf(ErrCorruption, "", "hibf: cycle through node %d", i)
    }
    if state[i] == 2 {
      return nil
    }
    state[i] = 1
    for b, child := range next[i] {
      if int(child) == i {
        continue // leaf bin
      }
      if err := visit(int(child)); err != nil {
        return err
      }
      _ = b
    }
    state[i] = 2
    return nil
  }
  return visit(root)
}

/* -------------------------------------------------------------------------- */

// Query descends the HIBF from the root, following merged bins whose
// BulkCount meets threshold, and collects the (deduplicated) user-bin ids
// whose leaf technical bins meet threshold along the way. This is the
// fused bulk_count + membership + descent variant spec.md §4.2/§4.3
// describe.
func (h *HIBF) Query(values []uint64, threshold uint64) []int64 {
  seen := map[int64]bool{}
  out := []int64{}
  var descend func(node int)
  descend = func(node int) {
    ibf := h.IBFVector[node]
    counts := ibf.BulkCount(values)
    next := h.NextIBFID[node]
    ids := h.UserBins.BinIndicesOfIBF(node)
    for b, c := range counts {
      if c < threshold {
        continue
      }
      if next[b] == int64(node) {
        uid := ids[b]
        if uid >= 0 && !seen[uid] {
          seen[uid] = true
          out = append(out, uid)
        }
      } else {
        descend(int(next[b]))
      }
    }
  }
  descend(0)
  return out
}

/* -------------------------------------------------------------------------- */

// WriteTo serializes the HIBF: node count, then for each node the IBF
// payload, next_ibf_id vector, and user-bin-id vector, in lock-step.
func (h *HIBF) WriteTo(w io.Writer) error {
  var buf [8]byte
  binary.LittleEndian.PutUint64(buf[:], uint64(len(h.IBFVector)))
  if _, err := w.Write(buf[:]); err != nil {
    return wrapError(ErrIO, "", err)
  }
  for i, ibf := range h.IBFVector {
    if err := ibf.WriteTo(w); err != nil {
      return err
    }
    if err := writeInt64Vector(w, h.NextIBFID[i]); err != nil {
      return err
    }
    if err := writeInt64Vector(w, h.UserBins.BinIndicesOfIBF(i)); err != nil {
      return err
    }
  }
  return nil
}

// ReadHIBF deserializes an HIBF written by WriteTo.
func ReadHIBF(r io.Reader) (*HIBF, error) {
  var buf [8]byte
  if _, err := io.ReadFull(r, buf[:]); err != nil {
    return nil, wrapError(ErrFormat, "", err)
  }
  n := binary.LittleEndian.Uint64(buf[:])
  h := NewHIBF()
  for i := uint64(0); i < n; i++ {
    ibf, err := ReadIBF(r)
    if err != nil {
      return nil, err
    }
    next, err := readInt64Vector(r)
    if err != nil {
      return nil, err
    }
    ids, err := readInt64Vector(r)
    if err != nil {
      return nil, err
    }
    idx := h.reserveNode()
    h.IBFVector[idx] = ibf
    h.NextIBFID[idx] = next
    h.UserBins.SetBinIndicesOfIBF(idx, ids)
  }
  if err := h.Validate(); err != nil {
    return nil, err
  }
  return h, nil
}

/* -------------------------------------------------------------------------- */

func writeInt64Vector(w io.Writer, v []int64) error {
  var hdr [8]byte
  binary.LittleEndian.PutUint64(hdr[:], uint64(len(v)))
  if _, err := w.Write(hdr[:]); err != nil {
    return wrapError(ErrIO, "", err)
  }
  buf := make([]byte, 8*len(v))
  for i, x := range v {
    binary.LittleEndian.PutUint64(buf[i*8:i*8+8], uint64(x))
  }
  if _, err := w.Write(buf); err != nil {
    return wrapError(ErrIO, "", err)
  }
  return nil
}

func readInt64Vector(r io.Reader) ([]int64, error) {
  var hdr [8]byte
  if _, err := io.ReadFull(r, hdr[:]); err != nil {
    return nil, wrapError(ErrFormat, "", err)
  }
  n := binary.LittleEndian.Uint64(hdr[:])
  buf := make([]byte, 8*n)
  if _, err := io.ReadFull(r, buf); err != nil {
    return nil, wrapError(ErrFormat, "", err)
  }
  out := make([]int64, n)
  for i := range out {
    out[i] = int64(binary.LittleEndian.Uint64(buf[i*8 : i*8+8]))
  }
  return out, nil
}
