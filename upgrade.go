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

// legacyIndexV1 mirrors the version 1 on-disk envelope: it lacked the
// Compressed flag entirely (every version 1 index was written
// uncompressed) and stored FPR as a 32-bit float (spec.md §6's "upgrade"
// command exists to carry old indexes forward across exactly this kind of
// header drift).
type legacyIndexV1 struct {
  Window  uint64
  Shape   Shape
  Parts   uint8
  BinPath []string
  FPR     float32
  IsHIBF  bool
  Flat    *IBF
  Hier    *HIBF
}

/* -------------------------------------------------------------------------- */

// ReadLegacyIndexV1 parses a version 1 envelope: magic, version (checked
// to be exactly 1), then 24 bytes of scalars (u64 window, u64 parts, f32
// fpr, an is_hibf byte, three unused bytes), the shape string, bin_path as
// a flat one-path-per-bin string vector, and the IBF or HIBF payload.
// Version 1 has no compressed flag.
func ReadLegacyIndexV1(r io.Reader) (*legacyIndexV1, error) {
  var hdr [8]byte
  if _, err := io.ReadFull(r, hdr[:]); err != nil {
    return nil, wrapError(ErrFormat, "", err)
  }
  magic := binary.LittleEndian.Uint32(hdr[0:4])
  if magic != indexMagic {
    return nil, raptorErrorf(ErrFormat, "", "not a raptor index: bad magic %#x", magic)
  }
  version := binary.LittleEndian.Uint32(hdr[4:8])
  if version != 1 {
    return nil, raptorErrorf(ErrVersionMismatch, "", "expected version 1 legacy index, found version %d", version)
  }

  var scalars [24]byte
  if _, err := io.ReadFull(r, scalars[:]); err != nil {
    return nil, wrapError(ErrFormat, "", err)
  }
  legacy := &legacyIndexV1{}
  legacy.Window = binary.LittleEndian.Uint64(scalars[0:8])
  legacy.Parts = uint8(binary.LittleEndian.Uint64(scalars[8:16]))
  legacy.FPR = math.Float32frombits(binary.LittleEndian.Uint32(scalars[16:20]))
  legacy.IsHIBF = scalars[20] != 0

  shapeStr, err := readString(r)
  if err != nil {
    return nil, err
  }
  shape, err := ParseShape(shapeStr)
  if err != nil {
    return nil, err
  }
  legacy.Shape = shape

  binPath, err := readStringVector(r)
  if err != nil {
    return nil, err
  }
  legacy.BinPath = binPath

  if legacy.IsHIBF {
    hier, err := ReadHIBF(r)
    if err != nil {
      return nil, err
    }
    legacy.Hier = hier
  } else {
    flat, err := ReadIBF(r)
    if err != nil {
      return nil, err
    }
    legacy.Flat = flat
  }
  return legacy, nil
}

/* -------------------------------------------------------------------------- */

// UpgradeIndex rewrites a version 1 envelope as the current version,
// setting Compressed to false (version 1 never compressed) and widening
// FPR to float64. It performs no changes to the IBF/HIBF payload itself:
// the bit layout was stable across versions 1 and 2 (spec.md §6).
func UpgradeIndex(legacy *legacyIndexV1) *RaptorIndex {
  return &RaptorIndex{
    Version:    IndexFormatVersion,
    Window:     legacy.Window,
    Shape:      legacy.Shape,
    Parts:      legacy.Parts,
    Compressed: false,
    BinPath:    wrapLegacyBinPaths(legacy.BinPath),
    FPR:        float64(legacy.FPR),
    IsHIBF:     legacy.IsHIBF,
    Flat:       legacy.Flat,
    Hier:       legacy.Hier,
  }
}

// wrapLegacyBinPaths lifts version 1's one-path-per-bin BinPath into the
// vector<vector<string>> shape version 2 stores: version 1 predated
// multi-path (e.g. paired-end) user bins, so each entry becomes a
// single-element path list.
func wrapLegacyBinPaths(paths []string) [][]string {
  out := make([][]string, len(paths))
  for i, p := range paths {
    out[i] = []string{p}
  }
  return out
}
