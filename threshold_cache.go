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
import "path/filepath"

/* -------------------------------------------------------------------------- */

// cacheFileName follows spec.md §6's literal naming convention:
// `binary_p<pattern>_w<window>_k<shape>_e<errors>_tau<tau>`.
func cacheFileName(key CacheKey) string {
  return fmt.Sprintf("binary_p%d_w%d_k%s_e%d_tau%g", key.MaxPatternSize, key.Window, key.Shape, key.Errors, key.Tau)
}

/* -------------------------------------------------------------------------- */

// LoadOrBuildThresholdOracle returns a cached ThresholdOracle for the given
// params/maxPatternSize if dir already holds one, building and caching a
// fresh one otherwise. An empty dir disables caching (spec.md §4.4:
// "cached to disk ... keyed on" the oracle's inputs; an empty cache
// directory is a valid way to opt out of caching between runs).
func LoadOrBuildThresholdOracle(dir string, params ThresholdParams, maxPatternSize uint64) (*ThresholdOracle, error) {
  if dir == "" {
    return NewThresholdOracle(params, maxPatternSize), nil
  }
  key := CacheKey{
    MaxPatternSize: maxPatternSize,
    Window:         params.Window,
    Shape:          params.Shape.String(),
    Errors:         params.Errors,
    Tau:            params.Tau,
  }
  path := filepath.Join(dir, cacheFileName(key))
  if data, err := os.ReadFile(path); err == nil {
    table, decodeErr := decodeThresholdTable(data)
    if decodeErr == nil {
      return &ThresholdOracle{params: params, table: table}, nil
    }
    // fall through to rebuild on a corrupt cache entry
  }
  oracle := NewThresholdOracle(params, maxPatternSize)
  data := encodeThresholdTable(oracle.table)
  if err := os.MkdirAll(dir, 0o755); err != nil {
    return oracle, wrapError(ErrIO, dir, err)
  }
  if err := os.WriteFile(path, data, 0o644); err != nil {
    return oracle, wrapError(ErrIO, path, err)
  }
  return oracle, nil
}

/* -------------------------------------------------------------------------- */

func encodeThresholdTable(table []uint64) []byte {
  buf := make([]byte, 8*(len(table)+1))
  binary.LittleEndian.PutUint64(buf[0:8], uint64(len(table)))
  for i, v := range table {
    binary.LittleEndian.PutUint64(buf[8+i*8:8+i*8+8], v)
  }
  return buf
}

func decodeThresholdTable(data []byte) ([]uint64, error) {
  if len(data) < 8 {
    return nil, raptorErrorf(ErrFormat, "", "threshold cache entry too short")
  }
  n := binary.LittleEndian.Uint64(data[0:8])
  want := 8 + 8*n
  if uint64(len(data)) != want {
    return nil, raptorErrorf(ErrFormat, "", "threshold cache entry size mismatch: want %d, have %d", want, len(data))
  }
  table := make([]uint64, n)
  for i := range table {
    table[i] = binary.LittleEndian.Uint64(data[8+uint64(i)*8 : 8+uint64(i)*8+8])
  }
  return table, nil
}
