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

import "fmt"
import "io"
import "os"
import "sync"

import "github.com/pbenner/threadpool"
import "github.com/sirupsen/logrus"

/* -------------------------------------------------------------------------- */

// SearchConfig fixes the threshold-oracle inputs and concurrency for the
// search driver (spec.md §4.7).
type SearchConfig struct {
  Params    MinimiserParams
  Errors    uint64
  Tau       float64
  Threads   int
  CacheDir  string
  Log       *logrus.Logger
}

/* -------------------------------------------------------------------------- */

// DefaultQueryChunkRecords is how many query records SearchQueryFile reads
// per chunk before dispatching them, per spec.md §4.7's "queries are read
// in chunks of ~10M records".
const DefaultQueryChunkRecords = 10_000_000

// chunkSize divides n items into groups sized for threads*threads workers,
// mirroring original_source's do_parallel.hpp: splitting more finely than
// one chunk per thread keeps a single slow chunk from stalling the rest of
// the pool (spec.md §4.7, §5).
func chunkSize(n, threads int) int {
  if threads < 1 {
    threads = 1
  }
  denom := threads * threads
  size := (n + denom - 1) / denom
  if size < 1 {
    size = 1
  }
  return size
}

/* -------------------------------------------------------------------------- */

// LoadIndexAsync opens path and synchronously reads the envelope header
// (magic, version, scalars, shape, bin paths), which is small and which
// callers need immediately to configure minimiser extraction. It then
// continues reading the variant payload — the IBF/HIBF data, which for a
// large index dwarfs the header — in a background goroutine. The returned
// join function blocks until that payload read finishes and installs it on
// idx; later calls return the same result without blocking. SearchQueryFile calls it right before the first query chunk's
// worker stage needs idx.Flat/idx.Hier, so the payload read overlaps the
// first chunk's query I/O instead of serializing before it (spec.md §4.7,
// §5's "index loaded in parallel with the first chunk of query I/O").
func LoadIndexAsync(path string) (*RaptorIndex, func() error, error) {
  f, err := os.Open(path)
  if err != nil {
    return nil, nil, wrapError(ErrIO, path, err)
  }
  idx, err := ReadIndexHeader(f)
  if err != nil {
    f.Close()
    return nil, nil, err
  }
  ch := make(chan error, 1)
  go func() {
    defer f.Close()
    ch <- idx.readPayload(f)
  }()
  var once sync.Once
  var loadErr error
  join := func() error {
    once.Do(func() { loadErr = <-ch })
    return loadErr
  }
  return idx, join, nil
}

/* -------------------------------------------------------------------------- */

// Search streams query records against idx, writing one result line per
// query to w through a SyncWriter, and returns the accumulated run
// metrics. Queries are processed in chunks across config.Threads workers,
// matching do_parallel.hpp's chunked dispatch (spec.md §4.7, §5).
func Search(idx *RaptorIndex, queries []SequenceRecord, config SearchConfig, w io.Writer) (*Metrics, error) {
  metrics := NewMetrics()
  out := NewSyncWriter(w)
  if err := out.WriteLine("#QUERY_NAME\tUSER_BINS"); err != nil {
    return nil, err
  }
  if err := searchChunk(idx, queries, config, out, metrics); err != nil {
    return nil, err
  }
  if err := out.Flush(); err != nil {
    return nil, err
  }
  logSearchComplete(config.Log, len(queries), metrics)
  return metrics, nil
}

// SearchQueryFile streams queryPath in chunks of at most chunkRecords
// records (DefaultQueryChunkRecords when zero), running each chunk against
// idx and writing every chunk's results, in order, to w behind a single
// shared SyncWriter. joinIndex is called exactly once, right before the
// first chunk is processed, so a caller that obtained idx/joinIndex from
// LoadIndexAsync gets the index payload's background read and the first
// chunk's query I/O running concurrently (spec.md §4.7, §5).
func SearchQueryFile(queryPath string, idx *RaptorIndex, joinIndex func() error, config SearchConfig, w io.Writer, chunkRecords int) (*Metrics, error) {
  if chunkRecords <= 0 {
    chunkRecords = DefaultQueryChunkRecords
  }

  f, err := os.Open(queryPath)
  if err != nil {
    return nil, wrapError(ErrIO, queryPath, err)
  }
  defer f.Close()

  metrics := NewMetrics()
  out := NewSyncWriter(w)
  if err := out.WriteLine("#QUERY_NAME\tUSER_BINS"); err != nil {
    return nil, err
  }

  joined := false
  chunk := make([]SequenceRecord, 0, chunkRecords)

  flush := func() error {
    if len(chunk) == 0 {
      return nil
    }
    if !joined {
      if err := joinIndex(); err != nil {
        return err
      }
      joined = true
    }
    if err := searchChunk(idx, chunk, config, out, metrics); err != nil {
      return err
    }
    chunk = chunk[:0]
    return nil
  }

  readErr := ReadSequences(f, func(rec SequenceRecord) error {
    chunk = append(chunk, rec)
    if len(chunk) >= chunkRecords {
      return flush()
    }
    return nil
  })
  if readErr != nil {
    return nil, wrapError(ErrFormat, queryPath, unwrapRaptor(readErr))
  }
  if err := flush(); err != nil {
    return nil, err
  }
  if !joined {
    // No query records at all: still join so a payload read failure
    // surfaces as an error instead of being silently skipped.
    if err := joinIndex(); err != nil {
      return nil, err
    }
  }

  if err := out.Flush(); err != nil {
    return nil, err
  }
  snap := metrics.Snapshot()
  logSearchComplete(config.Log, int(snap.RecordsProcessed), metrics)
  return metrics, nil
}

/* -------------------------------------------------------------------------- */

func logSearchComplete(log *logrus.Logger, numQueries int, metrics *Metrics) {
  if log == nil {
    log = logrus.StandardLogger()
  }
  snap := metrics.Snapshot()
  log.WithFields(logrus.Fields{
    "queries":    numQueries,
    "minimisers": snap.MinimisersTotal,
  }).Info("search complete")
}

/* -------------------------------------------------------------------------- */

// searchChunk runs the threshold oracle and index query concurrently across
// config.Threads workers for one chunk of queries, writing results through
// out in the chunk's original order, and accumulates timings into metrics.
func searchChunk(idx *RaptorIndex, queries []SequenceRecord, config SearchConfig, out *SyncWriter, metrics *Metrics) error {
  if len(queries) == 0 {
    return nil
  }

  maxPatternSize := estimateMaxMinimisers(queries, config.Params)
  oracle, err := LoadOrBuildThresholdOracle(config.CacheDir, ThresholdParams{
    Window: config.Params.Window,
    Shape:  config.Params.Shape,
    Errors: config.Errors,
    Tau:    config.Tau,
  }, maxPatternSize)
  if err != nil {
    return err
  }

  // Results are written in query order, not completion order: each
  // worker fills its own slot of `hits`, exactly as gonetics' kmerSearch
  // tool does with its per-sequence `result` slice, and the final
  // sequential write pass below walks that slice in order.
  hits := make([][]int64, len(queries))

  cs := chunkSize(len(queries), config.Threads)
  numJobs := (len(queries) + cs - 1) / cs

  pool := threadpool.New(config.Threads, 100*config.Threads)
  var firstErr error

  pool.RangeJob(0, numJobs, func(j int, pool threadpool.ThreadPool, erf func() error) error {
    start := j * cs
    end := start + cs
    if end > len(queries) {
      end = len(queries)
    }

    extractor := NewMinimiserExtractor(config.Params)
    for i := start; i < end; i++ {
      var values []uint64
      err := metrics.Track(&metrics.MinimiserTime, func() error {
        extractor.Each(queries[i].Sequence, func(h uint64) {
          values = append(values, h)
        })
        return nil
      })
      if err != nil {
        if firstErr == nil {
          firstErr = err
        }
        return err
      }

      threshold := oracle.Threshold(uint64(len(values)))

      if err := metrics.Track(&metrics.QueryTime, func() error {
        hits[i] = idx.Query(values, threshold)
        return nil
      }); err != nil {
        if firstErr == nil {
          firstErr = err
        }
        return err
      }

      metrics.AddRecords(1, uint64(len(values)))
    }
    return nil
  })

  if firstErr != nil {
    return firstErr
  }

  for i, q := range queries {
    if err := metrics.Track(&metrics.WriteTime, func() error {
      if len(hits[i]) == 0 {
        return out.WriteLine("%s", q.Name)
      }
      return out.WriteLine("%s\t%s", q.Name, formatHits(hits[i]))
    }); err != nil {
      return err
    }
  }

  return nil
}

/* -------------------------------------------------------------------------- */

func estimateMaxMinimisers(queries []SequenceRecord, params MinimiserParams) uint64 {
  max := uint64(0)
  k := uint64(params.Shape.Size())
  for _, q := range queries {
    if uint64(len(q.Sequence)) < k {
      continue
    }
    n := uint64(len(q.Sequence)) - k + 1
    if n > max {
      max = n
    }
  }
  return max
}

func formatHits(hits []int64) string {
  if len(hits) == 0 {
    return ""
  }
  s := fmt.Sprintf("%d", hits[0])
  for _, h := range hits[1:] {
    s += fmt.Sprintf(",%d", h)
  }
  return s
}
