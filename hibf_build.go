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

import "math"

/* -------------------------------------------------------------------------- */

// LeafLoader loads the deduplicated minimiser set of one leaf record,
// either by reading a `prepare`-produced `.minimiser` file or by
// extracting directly from its sequence files. The build driver supplies
// the concrete implementation.
type LeafLoader func(LeafRecord) ([]uint64, error)

/* -------------------------------------------------------------------------- */

// computeBinBits returns the number of bits a single Bloom filter bin
// needs to hold n elements at false positive rate fpr, via the standard
// optimal-size formula m = ceil(-n*ln(p) / ln(2)^2) (spec.md §4.2, §4.4).
func computeBinBits(n uint64, fpr float64) uint64 {
  if n == 0 {
    n = 1
  }
  if fpr <= 0 || fpr >= 1 {
    fpr = 0.05
  }
  ln2 := math.Log(2)
  m := -float64(n) * math.Log(fpr) / (ln2 * ln2)
  bits := uint64(math.Ceil(m))
  if bits == 0 {
    bits = 1
  }
  return bits
}

/* -------------------------------------------------------------------------- */

// HierarchicalBuild constructs the HIBF for a layout tree, mirroring the
// reference hierarchical_build/loop_over_children/insert_into_ibf
// functions: the favourite child is built first, remaining children are
// visited next, and leaf records are inserted last, split naively across
// their requested technical bin counts. The node's IBF is sized from the
// largest of every child's value count and every leaf record's
// per-technical-bin share (plus one). Every node's returned value set
// is the union of everything inserted under it, which becomes the content
// the parent's merged bin represents (spec.md §4.3).
func HierarchicalBuild(root *LayoutNode, params MinimiserParams, fpr float64, hashCount uint64, load LeafLoader) (*HIBF, error) {
  h := NewHIBF()
  _, _, err := hierarchicalBuildNode(h, root, fpr, hashCount, load)
  if err != nil {
    return nil, err
  }
  return h, nil
}

/* -------------------------------------------------------------------------- */

func hierarchicalBuildNode(h *HIBF, node *LayoutNode, fpr float64, hashCount uint64, load LeafLoader) (int, []uint64, error) {
  bins := node.NumBins()
  if bins == 0 {
    return 0, nil, raptorErrorf(ErrInternal, "", "hierarchical_build: layout node has no bins")
  }

  idx := h.reserveNode()

  type childResult struct {
    ibfIndex int
    values   []uint64
  }
  children := make([]childResult, len(node.Children))

  maxCardinality := uint64(0)

  buildChild := func(i int) error {
    childIdx, values, err := hierarchicalBuildNode(h, node.Children[i], fpr, hashCount, load)
    if err != nil {
      return err
    }
    children[i] = childResult{ibfIndex: childIdx, values: values}
    return nil
  }

  // Favourite child first, matching loop_over_children's documented
  // visitation order; its cardinality counts toward maxCardinality like
  // every other child's.
  if node.FavouriteChild >= 0 {
    if err := buildChild(node.FavouriteChild); err != nil {
      return 0, nil, err
    }
    if n := uint64(len(children[node.FavouriteChild].values)); n > maxCardinality {
      maxCardinality = n
    }
  }
  for i := range node.Children {
    if i == node.FavouriteChild {
      continue
    }
    if err := buildChild(i); err != nil {
      return 0, nil, err
    }
    if n := uint64(len(children[i].values)); n > maxCardinality {
      maxCardinality = n
    }
  }

  leafValues := make([][]uint64, len(node.Records))
  for i, rec := range node.Records {
    values, err := load(rec)
    if err != nil {
      return 0, nil, err
    }
    leafValues[i] = values
    perBin := uint64(len(values)) / rec.TechnicalBins
    if perBin+1 > maxCardinality {
      maxCardinality = perBin + 1
    }
  }

  binBits := computeBinBits(maxCardinality, fpr)
  ibf := NewIBF(bins, binBits, hashCount)
  next := make([]int64, bins)
  ids := make([]int64, bins)

  propagated := map[uint64]bool{}
  binPos := uint64(0)

  insertChild := func(c childResult) {
    next[binPos] = int64(c.ibfIndex)
    ids[binPos] = -1
    for _, v := range c.values {
      ibf.Emplace(v, binPos)
      propagated[v] = true
    }
    binPos++
  }
  if node.FavouriteChild >= 0 {
    insertChild(children[node.FavouriteChild])
  }
  for i, c := range children {
    if i == node.FavouriteChild {
      continue
    }
    insertChild(c)
  }

  for i, rec := range node.Records {
    values := leafValues[i]
    chunks := splitIntoChunks(values, rec.TechnicalBins)
    for _, chunk := range chunks {
      next[binPos] = int64(idx)
      ids[binPos] = rec.UserBinID
      for _, v := range chunk {
        ibf.Emplace(v, binPos)
        propagated[v] = true
      }
      binPos++
    }
  }

  h.IBFVector[idx] = ibf
  h.NextIBFID[idx] = next
  h.UserBins.SetBinIndicesOfIBF(idx, ids)

  out := make([]uint64, 0, len(propagated))
  for v := range propagated {
    out = append(out, v)
  }
  return idx, out, nil
}

/* -------------------------------------------------------------------------- */

// splitIntoChunks divides values into n contiguous, roughly equal chunks,
// mirroring insert_into_ibf.cpp's naive chunking of a single user bin's
// content across several technical bins.
func splitIntoChunks(values []uint64, n uint64) [][]uint64 {
  if n == 0 {
    n = 1
  }
  out := make([][]uint64, n)
  if len(values) == 0 {
    for i := range out {
      out[i] = []uint64{}
    }
    return out
  }
  chunkSize := (uint64(len(values)) + n - 1) / n
  for i := uint64(0); i < n; i++ {
    from := i * chunkSize
    if from > uint64(len(values)) {
      from = uint64(len(values))
    }
    to := from + chunkSize
    if to > uint64(len(values)) {
      to = uint64(len(values))
    }
    out[i] = values[from:to]
  }
  return out
}
