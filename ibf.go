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
import "io"
import "math/bits"
import "sync/atomic"

import "github.com/cespare/xxhash/v2"

/* -------------------------------------------------------------------------- */

// IBF is an Interleaved Bloom Filter: bins many Bloom filters, each of
// binBits bits, interleaved so that all bins can be counted against a
// shared set of query hashes in one pass. Storage is row-major: row r holds
// one bit per bin, padded up to a whole number of 64-bit words so that
// bulk_count can AND h rows together a word (i.e. up to 64 bins) at a time,
// per spec.md §4.2's vectorisation rationale.
type IBF struct {
  bins       uint64
  binBits    uint64
  hashCount  uint64
  wordsPerRow uint64
  data       []uint64
}

/* -------------------------------------------------------------------------- */

// NewIBF allocates a zeroed IBF with the given bin count, bits per bin, and
// number of Bloom hash functions.
func NewIBF(bins, binBits, hashCount uint64) *IBF {
  if bins == 0 {
    panic("NewIBF(): bin count must be positive")
  }
  if binBits == 0 {
    panic("NewIBF(): bin size must be positive")
  }
  if hashCount == 0 {
    panic("NewIBF(): hash function count must be positive")
  }
  wordsPerRow := (bins + 63) / 64
  return &IBF{
    bins:        bins,
    binBits:     binBits,
    hashCount:   hashCount,
    wordsPerRow: wordsPerRow,
    data:        make([]uint64, binBits*wordsPerRow),
  }
}

/* -------------------------------------------------------------------------- */

func (ibf *IBF) Bins() uint64 {
  return ibf.bins
}

func (ibf *IBF) BinBits() uint64 {
  return ibf.binBits
}

func (ibf *IBF) HashCount() uint64 {
  return ibf.hashCount
}

/* -------------------------------------------------------------------------- */

// HashBits returns the deterministic row (in [0, binBits)) that the j-th
// hash function assigns to v.
func (ibf *IBF) HashBits(j uint64, v uint64) uint64 {
  var buf [16]byte
  binary.LittleEndian.PutUint64(buf[0:8], v)
  binary.LittleEndian.PutUint64(buf[8:16], j)
  return xxhash.Sum64(buf[:]) % ibf.binBits
}

/* -------------------------------------------------------------------------- */

// Emplace sets the hashCount bits that hash v selects, in column b. It is
// idempotent: setting an already-set bit changes nothing. b must be less
// than Bins(); passing an out-of-range bin is a programming error and
// panics, per spec.md §4.2.
func (ibf *IBF) Emplace(v uint64, b uint64) {
  if b >= ibf.bins {
    panic(fmt.Sprintf("IBF.Emplace(): bin %d out of range [0, %d)", b, ibf.bins))
  }
  wordInRow := b / 64
  bitInWord := b % 64
  mask := uint64(1) << bitInWord
  for j := uint64(0); j < ibf.hashCount; j++ {
    r := ibf.HashBits(j, v)
    idx := r*ibf.wordsPerRow + wordInRow
    atomicOrUint64(&ibf.data[idx], mask)
  }
}

// atomicOrUint64 atomically ORs mask into *addr via a compare-and-swap
// retry loop (sync/atomic has no OR primitive before the Go 1.23 typed
// atomics). Emplace only ever sets bits, so lock-free concurrent callers
// racing on the same word never lose an update, per spec.md §5.
func atomicOrUint64(addr *uint64, mask uint64) {
  for {
    old := atomic.LoadUint64(addr)
    if old&mask == mask {
      return
    }
    if atomic.CompareAndSwapUint64(addr, old, old|mask) {
      return
    }
  }
}

/* -------------------------------------------------------------------------- */

// BulkCount returns a length-Bins() vector where entry b counts how many
// values in V have all hashCount rows set at column b. Duplicate values in
// V contribute multiplicity: each is counted separately (spec.md §4.2).
func (ibf *IBF) BulkCount(values []uint64) []uint64 {
  counts := make([]uint64, ibf.bins)
  acc := make([]uint64, ibf.wordsPerRow)

  for _, v := range values {
    for w := range acc {
      acc[w] = ^uint64(0)
    }
    for j := uint64(0); j < ibf.hashCount; j++ {
      r := ibf.HashBits(j, v)
      base := r * ibf.wordsPerRow
      for w := uint64(0); w < ibf.wordsPerRow; w++ {
        acc[w] &= ibf.data[base+w]
      }
    }
    for w, word := range acc {
      for word != 0 {
        bit := bits.TrailingZeros64(word)
        b := uint64(w)*64 + uint64(bit)
        word &= word - 1
        if b < ibf.bins {
          counts[b]++
        }
      }
    }
  }
  return counts
}

// Membership returns the ascending list of bin ids whose BulkCount(V) meets
// or exceeds threshold.
func (ibf *IBF) Membership(values []uint64, threshold uint64) []uint64 {
  counts := ibf.BulkCount(values)
  out := []uint64{}
  for b, c := range counts {
    if c >= threshold {
      out = append(out, uint64(b))
    }
  }
  return out
}

/* -------------------------------------------------------------------------- */

// WriteTo serializes the IBF: bins, binBits, hashCount, then the raw data
// words, all little-endian.
func (ibf *IBF) WriteTo(w io.Writer) error {
  var header [24]byte
  binary.LittleEndian.PutUint64(header[0:8], ibf.bins)
  binary.LittleEndian.PutUint64(header[8:16], ibf.binBits)
  binary.LittleEndian.PutUint64(header[16:24], ibf.hashCount)
  if _, err := w.Write(header[:]); err != nil {
    return wrapError(ErrIO, "", err)
  }
  buf := make([]byte, 8*len(ibf.data))
  for i, word := range ibf.data {
    binary.LittleEndian.PutUint64(buf[i*8:i*8+8], word)
  }
  if _, err := w.Write(buf); err != nil {
    return wrapError(ErrIO, "", err)
  }
  return nil
}

// ReadIBF deserializes an IBF written by WriteTo. Mismatched (bins, binBits,
// hashCount) between what the caller expects and what was written is not
// checked here, nor by ReadIndex/readPayload, which accept whatever shape
// the payload declares; callers that need a specific shape must check the
// returned IBF's fields themselves.
func ReadIBF(r io.Reader) (*IBF, error) {
  var header [24]byte
  if _, err := io.ReadFull(r, header[:]); err != nil {
    return nil, wrapError(ErrFormat, "", err)
  }
  bins := binary.LittleEndian.Uint64(header[0:8])
  binBits := binary.LittleEndian.Uint64(header[8:16])
  hashCount := binary.LittleEndian.Uint64(header[16:24])
  if bins == 0 || binBits == 0 || hashCount == 0 {
    return nil, raptorErrorf(ErrFormat, "", "corrupt IBF header: bins=%d binBits=%d hashCount=%d", bins, binBits, hashCount)
  }
  wordsPerRow := (bins + 63) / 64
  n := binBits * wordsPerRow
  buf := make([]byte, 8*n)
  if _, err := io.ReadFull(r, buf); err != nil {
    return nil, wrapError(ErrFormat, "", err)
  }
  data := make([]uint64, n)
  for i := range data {
    data[i] = binary.LittleEndian.Uint64(buf[i*8 : i*8+8])
  }
  return &IBF{bins: bins, binBits: binBits, hashCount: hashCount, wordsPerRow: wordsPerRow, data: data}, nil
}

/* -------------------------------------------------------------------------- */

// Equal reports whether two IBFs have identical parameters and cell
// contents, used by the round-trip property test (spec.md §8, property 5).
func (ibf *IBF) Equal(other *IBF) bool {
  if ibf.bins != other.bins || ibf.binBits != other.binBits || ibf.hashCount != other.hashCount {
    return false
  }
  if len(ibf.data) != len(other.data) {
    return false
  }
  for i := range ibf.data {
    if ibf.data[i] != other.data[i] {
      return false
    }
  }
  return true
}
