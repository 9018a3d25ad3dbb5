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

import "github.com/cespare/xxhash/v2"

/* -------------------------------------------------------------------------- */

// defaultMinimiserSeed is the raw seed hashed with every k-mer before
// adjustment to the shape's weight.
const defaultMinimiserSeed uint64 = 0x8F3F73B5CF1C9ADE

// MinimiserParams fixes the shape, window size, and seed a hash extractor
// uses to turn a nucleotide sequence into a stream of minimisers. Window is
// measured in bases, the same unit as the shape's size: a window of Window
// bases covers Window-k+1 consecutive k-mers, so Window==k (the default) is
// "no windowing" and every k-mer is a minimiser candidate.
type MinimiserParams struct {
  Shape  Shape
  Window uint64
  Seed   uint64
}

// adjustSeed folds a shape's care-position count into the seed so that
// k-mers hashed under shapes of different weight do not collide trivially
// on the high bits of the default seed.
func adjustSeed(weight int, seed uint64) uint64 {
  shift := 64 - 2*weight
  if shift <= 0 {
    return seed
  }
  return seed >> uint(shift)
}

/* -------------------------------------------------------------------------- */

// MinimiserExtractor turns nucleotide sequences into streams of 64-bit
// minimiser hashes under a fixed set of MinimiserParams. It is stateless
// between calls to Each/Extract and safe to share across goroutines, mirroring
// spec.md §5's "components in §4.2-§4.5 are single-threaded and re-entrant".
type MinimiserExtractor struct {
  params MinimiserParams
  al     NucleotideAlphabet
  seed   uint64
}

// NewMinimiserExtractor builds an extractor for the given parameters.
func NewMinimiserExtractor(params MinimiserParams) MinimiserExtractor {
  seed := params.Seed
  if seed == 0 {
    seed = defaultMinimiserSeed
  }
  return MinimiserExtractor{
    params: params,
    al:     NucleotideAlphabet{},
    seed:   adjustSeed(params.Shape.Weight(), seed),
  }
}

/* -------------------------------------------------------------------------- */

// kmerHash hashes the canonical (forward vs. reverse-complement, whichever
// packs to the smaller integer) encoding of the k-mer selected by the
// extractor's shape, starting at position i of coded (one alphabet code per
// byte, already Code()-converted).
func (obj MinimiserExtractor) kmerHash(coded []byte, i int) uint64 {
  k := obj.params.Shape.Size()
  fwd := coded[i : i+k]

  rc := make([]byte, k)
  for j := 0; j < k; j++ {
    rc[j] = obj.al.ComplementCoded(fwd[k-1-j])
  }

  vFwd := obj.params.Shape.Apply(fwd)
  vRc := obj.params.Shape.Apply(rc)

  v := vFwd
  if vRc < vFwd {
    v = vRc
  }

  var buf [8]byte
  binary.LittleEndian.PutUint64(buf[:], v)
  return xxhash.Sum64(buf[:]) ^ obj.seed
}

/* -------------------------------------------------------------------------- */

// Each streams the deduplicated-on-equality minimiser hashes of sequence to
// emit, in order. When sequence has fewer k-mers than the window size, the
// stream is empty (not an error), per spec.md §4.1.
func (obj MinimiserExtractor) Each(sequence []byte, emit func(hash uint64)) {
  k := obj.params.Shape.Size()

  // Window is measured in bases, same unit as k (spec.md §4.4's
  // w_k = w - k + 1, mirrored by threshold.go's maxLossPerError and by
  // original_source's precompute_threshold.cpp:68 kmers_per_window).
  // window==k is the documented "no windowing" case: wk floors to 1 and
  // every k-mer becomes a minimiser candidate.
  w := int(obj.params.Window) - k + 1
  if w < 1 {
    w = 1
  }

  if len(sequence) < k {
		return
  }
  numKmers := len(sequence) - k + 1
  if numKmers < w {
    return
  }

  coded := make([]byte, len(sequence))
  for i, b := range sequence {
    coded[i] = obj.al.Code(b)
  }

  hashes := make([]uint64, numKmers)
  for i := 0; i < numKmers; i++ {
    hashes[i] = obj.kmerHash(coded, i)
  }

  // Sliding-window minimum over `hashes`, window length w, leftmost tie
  // winner. The deque holds indices with non-decreasing hash values: an
  // equal hash does not evict earlier indices, so ties are broken by
  // keeping the earlier (smaller) index at the front.
  deque := make([]int, 0, w)
  var lastEmitted uint64
  haveEmitted := false

  for i := 0; i < numKmers; i++ {
    for len(deque) > 0 && hashes[deque[len(deque)-1]] > hashes[i] {
      deque = deque[:len(deque)-1]
    }
    deque = append(deque, i)
    for deque[0] <= i-w {
      deque = deque[1:]
    }
    if i >= w-1 {
      m := hashes[deque[0]]
      if !haveEmitted || m != lastEmitted {
        emit(m)
        lastEmitted = m
        haveEmitted = true
      }
    }
  }
}

// Extract collects the minimiser stream of sequence into a slice.
func (obj MinimiserExtractor) Extract(sequence []byte) []uint64 {
  out := []uint64{}
  obj.Each(sequence, func(hash uint64) {
    out = append(out, hash)
  })
  return out
}
