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

import "github.com/pbenner/threadpool"
import "github.com/sirupsen/logrus"

/* -------------------------------------------------------------------------- */

// BuildConfig fixes everything the build driver needs beyond the bin
// records themselves: the extraction/Bloom parameters, the degree of
// parallelism, and whether to build a flat IBF or an HIBF (spec.md §4.6).
type BuildConfig struct {
  Params     MinimiserParams
  FPR        float64
  HashCount  uint64
  Threads    int
  HIBF       bool
  MaxBins    uint64 // HIBF layout fan-out; ignored when HIBF is false
  Log        *logrus.Logger
}

/* -------------------------------------------------------------------------- */

// Build runs the build driver over bins, returning a fully populated
// RaptorIndex. Each bin record's minimisers are extracted and
// deduplicated (no occurrence cutoff is applied) concurrently across
// config.Threads workers, mirroring
// gonetics' countKmers tool's RangeJob usage over one goroutine per
// logical CPU; the resulting per-bin value sets are then either emplaced
// directly into one flat IBF or handed to HierarchicalBuild.
func Build(bins []BinRecord, config BuildConfig) (*RaptorIndex, error) {
  log := config.Log
  if log == nil {
    log = logrus.StandardLogger()
  }

  minimisers := make([][]uint64, len(bins))
  metrics := NewMetrics()

  pool := threadpool.New(config.Threads, 100*config.Threads)

  var firstErr error
  pool.RangeJob(0, len(bins), func(i int, pool threadpool.ThreadPool, erf func() error) error {
    extractor := NewMinimiserExtractor(config.Params)
    var values []uint64
    err := metrics.Track(&metrics.ReadTime, func() error {
      return readBinRecordValues(bins[i], extractor, &values)
    })
    if err != nil {
      if firstErr == nil {
        firstErr = err
      }
      return err
    }
    minimisers[i] = dedupSorted(values)
    metrics.AddRecords(1, uint64(len(minimisers[i])))
    return nil
  })
  if firstErr != nil {
    return nil, firstErr
  }

  log.WithField("bins", len(bins)).Info("extracted minimisers for all bins")

  if config.HIBF {
    return buildHierarchical(bins, minimisers, config)
  }
  return buildFlat(bins, minimisers, config)
}

/* -------------------------------------------------------------------------- */

func readBinRecordValues(bin BinRecord, extractor MinimiserExtractor, out *[]uint64) error {
  for _, path := range bin.Paths {
    if err := ReadSequenceFile(path, func(rec SequenceRecord) error {
      extractor.Each(rec.Sequence, func(h uint64) {
        *out = append(*out, h)
      })
      return nil
    }); err != nil {
      return err
    }
  }
  return nil
}

func dedupSorted(values []uint64) []uint64 {
  return ApplyCutoff(values, 65535)
}

/* -------------------------------------------------------------------------- */

func buildFlat(bins []BinRecord, minimisers [][]uint64, config BuildConfig) (*RaptorIndex, error) {
  maxCardinality := uint64(0)
  for _, v := range minimisers {
    if n := uint64(len(v)); n > maxCardinality {
      maxCardinality = n
    }
  }
  binBits := computeBinBits(maxCardinality, config.FPR)
  ibf := NewIBF(uint64(len(bins)), binBits, config.HashCount)

  pool := threadpool.New(config.Threads, 100*config.Threads)
  pool.RangeJob(0, len(bins), func(i int, pool threadpool.ThreadPool, erf func() error) error {
    for _, v := range minimisers[i] {
      ibf.Emplace(v, uint64(i))
    }
    return nil
  })

  return &RaptorIndex{
    Version:    IndexFormatVersion,
    Window:     config.Params.Window,
    Shape:      config.Params.Shape,
    Parts:      1,
    Compressed: false,
    BinPath:    FlattenBinPaths(bins),
    FPR:        config.FPR,
    IsHIBF:     false,
    Flat:       ibf,
  }, nil
}

/* -------------------------------------------------------------------------- */

func buildHierarchical(bins []BinRecord, minimisers [][]uint64, config BuildConfig) (*RaptorIndex, error) {
  records := make([]LeafRecord, len(bins))
  for i, b := range bins {
    records[i] = LeafRecord{
      UserBinID:    b.UserBinID,
      Paths:        b.Paths,
      SizeEstimate: int64(len(minimisers[i])),
    }
  }
  maxBins := config.MaxBins
  if maxBins == 0 {
    maxBins = 64
  }
  layout := BuildLayout(records, maxBins)

  byID := make(map[int64][]uint64, len(bins))
  for i, b := range bins {
    byID[b.UserBinID] = minimisers[i]
  }
  load := func(rec LeafRecord) ([]uint64, error) {
    return byID[rec.UserBinID], nil
  }

  hibf, err := HierarchicalBuild(layout, config.Params, config.FPR, config.HashCount, load)
  if err != nil {
    return nil, err
  }

  return &RaptorIndex{
    Version:    IndexFormatVersion,
    Window:     config.Params.Window,
    Shape:      config.Params.Shape,
    Parts:      1,
    Compressed: false,
    BinPath:    FlattenBinPaths(bins),
    FPR:        config.FPR,
    IsHIBF:     true,
    Hier:       hibf,
  }, nil
}
