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
import "math"

/* -------------------------------------------------------------------------- */

// IndexFormatVersion is the current on-disk envelope version this package
// writes. Version 1 predates the upgrade.go migration and lacked the
// compressed flag (spec.md §6).
const IndexFormatVersion uint32 = 2

const indexMagic uint32 = 0x52415054 // "RAPT"

/* -------------------------------------------------------------------------- */

// Variant is either a flat *IBF or a *HIBF. RaptorIndex stores exactly one,
// selected by IsHIBF (spec.md §6's "then IBF/HIBF payload").
type Variant interface {
  WriteTo(w io.Writer) error
}

/* -------------------------------------------------------------------------- */

// RaptorIndex is the versioned, self-describing envelope persisted to and
// loaded from disk by build/search/upgrade. On disk, after magic and
// version, the header holds window (u64), parts (u8), fpr (f64),
// compressed (byte), is_hibf (byte), then the shape string and the
// bin_path matrix, then the variant payload; this is not the order in
// which the struct declares the fields.
type RaptorIndex struct {
  Version    uint32
  Window     uint64
  Shape      Shape
  Parts      uint8
  Compressed bool
  BinPath    [][]string
  FPR        float64
  IsHIBF     bool

  Flat *IBF
  Hier *HIBF
}

/* -------------------------------------------------------------------------- */

// WriteTo serializes the full envelope: magic, version, scalar header
// fields, the bin path list, then the selected variant's payload.
func (idx *RaptorIndex) WriteTo(w io.Writer) error {
  var hdr [8]byte
  binary.LittleEndian.PutUint32(hdr[0:4], indexMagic)
  binary.LittleEndian.PutUint32(hdr[4:8], IndexFormatVersion)
  if _, err := w.Write(hdr[:]); err != nil {
    return wrapError(ErrIO, "", err)
  }

  // parts is a single byte on disk (spec.md §6's "u8 parts"); compressed
  // must always be false for this version (§6, §9).
  if idx.Compressed {
    return raptorErrorf(ErrInternal, "", "cannot write a version %d index with compressed=true", IndexFormatVersion)
  }

  var scalars [19]byte
  binary.LittleEndian.PutUint64(scalars[0:8], idx.Window)
  scalars[8] = idx.Parts
  binary.LittleEndian.PutUint64(scalars[9:17], math.Float64bits(idx.FPR))
  if idx.Compressed {
    scalars[17] = 1
  }
  if idx.IsHIBF {
    scalars[18] = 1
  }
  if _, err := w.Write(scalars[:]); err != nil {
    return wrapError(ErrIO, "", err)
  }

  if err := writeString(w, idx.Shape.String()); err != nil {
    return err
  }
  if err := writeStringMatrix(w, idx.BinPath); err != nil {
    return err
  }

  if idx.IsHIBF {
    return idx.Hier.WriteTo(w)
  }
  return idx.Flat.WriteTo(w)
}

/* -------------------------------------------------------------------------- */

// ReadIndex deserializes a RaptorIndex previously written by WriteTo. A
// version other than IndexFormatVersion is reported via ErrVersionMismatch
// rather than silently misparsed (spec.md §6, §7); callers that want to
// read an old envelope should go through upgrade.go first.
func ReadIndex(r io.Reader) (*RaptorIndex, error) {
  idx, err := ReadIndexHeader(r)
  if err != nil {
    return nil, err
  }
  if err := idx.readPayload(r); err != nil {
    return nil, err
  }
  return idx, nil
}

// ReadIndexHeader parses the envelope's magic, version, scalar fields,
// shape, and bin paths, without touching the (potentially large) IBF/HIBF
// payload that follows on r. Splitting header from payload lets a caller
// like SearchQueryFile learn window/shape immediately while deferring the
// expensive payload read to a background goroutine (spec.md §4.7, §5).
func ReadIndexHeader(r io.Reader) (*RaptorIndex, error) {
  var hdr [8]byte
  if _, err := io.ReadFull(r, hdr[:]); err != nil {
    return nil, wrapError(ErrFormat, "", err)
  }
  magic := binary.LittleEndian.Uint32(hdr[0:4])
  if magic != indexMagic {
    return nil, raptorErrorf(ErrFormat, "", "not a raptor index: bad magic %#x", magic)
  }
  version := binary.LittleEndian.Uint32(hdr[4:8])
  if version != IndexFormatVersion {
    return nil, raptorErrorf(ErrVersionMismatch, "", "index version %d, this build reads version %d", version, IndexFormatVersion)
  }

  var scalars [19]byte
  if _, err := io.ReadFull(r, scalars[:]); err != nil {
    return nil, wrapError(ErrFormat, "", err)
  }
  idx := &RaptorIndex{Version: version}
  idx.Window = binary.LittleEndian.Uint64(scalars[0:8])
  idx.Parts = scalars[8]
  idx.FPR = math.Float64frombits(binary.LittleEndian.Uint64(scalars[9:17]))
  idx.Compressed = scalars[17] != 0
  idx.IsHIBF = scalars[18] != 0
  if idx.Compressed {
    return nil, raptorErrorf(ErrFormat, "", "index declares compressed=true, which version %d never writes", IndexFormatVersion)
  }

  shapeStr, err := readString(r)
  if err != nil {
    return nil, err
  }
  shape, err := ParseShape(shapeStr)
  if err != nil {
    return nil, err
  }
  idx.Shape = shape

  binPath, err := readStringMatrix(r)
  if err != nil {
    return nil, err
  }
  idx.BinPath = binPath

  return idx, nil
}

// readPayload reads the variant payload (IBF or HIBF, per idx.IsHIBF) from
// r, which must be positioned right after the header ReadIndexHeader
// consumed, and installs it on idx.
func (idx *RaptorIndex) readPayload(r io.Reader) error {
  if idx.IsHIBF {
    hier, err := ReadHIBF(r)
    if err != nil {
      return err
    }
    idx.Hier = hier
  } else {
    flat, err := ReadIBF(r)
    if err != nil {
      return err
    }
    idx.Flat = flat
  }
  return nil
}

/* -------------------------------------------------------------------------- */

// Query dispatches to the flat IBF's Membership or the HIBF's Query,
// whichever variant this index holds, returning bin ids for the flat case
// and user-bin ids for the hierarchical case (spec.md §4.7).
func (idx *RaptorIndex) Query(values []uint64, threshold uint64) []int64 {
  if idx.IsHIBF {
    return idx.Hier.Query(values, threshold)
  }
  counts := idx.Flat.Membership(values, threshold)
  out := make([]int64, len(counts))
  for i, b := range counts {
    out[i] = int64(b)
  }
  return out
}

/* -------------------------------------------------------------------------- */

func writeString(w io.Writer, s string) error {
  return writeBytesVector(w, []byte(s))
}

func readString(r io.Reader) (string, error) {
  b, err := readBytesVector(r)
  if err != nil {
    return "", err
  }
  return string(b), nil
}

func writeStringVector(w io.Writer, v []string) error {
  var hdr [8]byte
  binary.LittleEndian.PutUint64(hdr[:], uint64(len(v)))
  if _, err := w.Write(hdr[:]); err != nil {
    return wrapError(ErrIO, "", err)
  }
  for _, s := range v {
    if err := writeString(w, s); err != nil {
      return err
    }
  }
  return nil
}

func writeStringMatrix(w io.Writer, v [][]string) error {
  var hdr [8]byte
  binary.LittleEndian.PutUint64(hdr[:], uint64(len(v)))
  if _, err := w.Write(hdr[:]); err != nil {
    return wrapError(ErrIO, "", err)
  }
  for _, row := range v {
    if err := writeStringVector(w, row); err != nil {
      return err
    }
  }
  return nil
}

func readStringMatrix(r io.Reader) ([][]string, error) {
  var hdr [8]byte
  if _, err := io.ReadFull(r, hdr[:]); err != nil {
    return nil, wrapError(ErrFormat, "", err)
  }
  n := binary.LittleEndian.Uint64(hdr[:])
  out := make([][]string, n)
  for i := range out {
    row, err := readStringVector(r)
    if err != nil {
      return nil, err
    }
    out[i] = row
  }
  return out, nil
}

func readStringVector(r io.Reader) ([]string, error) {
  var hdr [8]byte
  if _, err := io.ReadFull(r, hdr[:]); err != nil {
    return nil, wrapError(ErrFormat, "", err)
  }
  n := binary.LittleEndian.Uint64(hdr[:])
  out := make([]string, n)
  for i := range out {
    s, err := readString(r)
    if err != nil {
      return nil, err
    }
    out[i] = s
  }
  return out, nil
}

func writeBytesVector(w io.Writer, b []byte) error {
  var hdr [8]byte
  binary.LittleEndian.PutUint64(hdr[:], uint64(len(b)))
  if _, err := w.Write(hdr[:]); err != nil {
    return wrapError(ErrIO, "", err)
  }
  if _, err := w.Write(b); err != nil {
    return wrapError(ErrIO, "", err)
  }
  return nil
}

func readBytesVector(r io.Reader) ([]byte, error) {
  var hdr [8]byte
  if _, err := io.ReadFull(r, hdr[:]); err != nil {
    return nil, wrapError(ErrFormat, "", err)
  }
  n := binary.LittleEndian.Uint64(hdr[:])
  buf := make([]byte, n)
  if _, err := io.ReadFull(r, buf); err != nil {
    return nil, wrapError(ErrFormat, "", err)
  }
  return buf, nil
}
