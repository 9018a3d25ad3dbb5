package raptor

import (
  "bufio"
  "bytes"
  "fmt"
  "os"
  "path/filepath"
  "strings"
  "testing"

  "github.com/sirupsen/logrus"
  "github.com/stretchr/testify/require"
)

func testSearchConfig(t *testing.T) SearchConfig {
  return SearchConfig{
    Params:   MinimiserParams{Shape: NewUngappedShape(8), Window: 12, Seed: 1},
    Errors:   0,
    Tau:      0.9999,
    Threads:  2,
    CacheDir: "", // disable on-disk caching for the test
    Log:      logrus.StandardLogger(),
  }
}

// parseSearchOutput splits the driver's TSV into a name->hit-line map plus
// the header, for order-independent assertions on content while a separate
// check asserts the order of the names themselves.
func parseSearchOutput(t *testing.T, out []byte) (header string, names []string, lines map[string]string) {
  t.Helper()
  lines = map[string]string{}
  scanner := bufio.NewScanner(bytes.NewReader(out))
  first := true
  for scanner.Scan() {
    line := scanner.Text()
    if first {
      header = line
      first = false
      continue
    }
    fields := strings.SplitN(line, "\t", 2)
    name := fields[0]
    names = append(names, name)
    if len(fields) == 2 {
      lines[name] = fields[1]
    } else {
      lines[name] = ""
    }
  }
  require.NoError(t, scanner.Err())
  return header, names, lines
}

func TestSearchFlatIndexEndToEnd(t *testing.T) {
  dir := t.TempDir()
  bins := fourBinRecords(t, dir)
  idx, err := Build(bins, testBuildConfig(false))
  require.NoError(t, err)

  queries := []SequenceRecord{
    {Name: "q_matches_bin0_and_bin3", Sequence: []byte("ACGTACGTACGTACGTACGTACGTACGTACGTACGT")},
    {Name: "q_matches_bin1", Sequence: []byte("TTTTGGGGCCCCAAAATTTTGGGGCCCCAAAATTTT")},
    {Name: "q_matches_nothing", Sequence: []byte("CCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC")},
  }

  var buf bytes.Buffer
  _, err = Search(idx, queries, testSearchConfig(t), &buf)
  require.NoError(t, err)

  header, names, lines := parseSearchOutput(t, buf.Bytes())
  require.Equal(t, "#QUERY_NAME\tUSER_BINS", header)
  require.Equal(t, []string{"q_matches_bin0_and_bin3", "q_matches_bin1", "q_matches_nothing"}, names)

  require.Contains(t, lines["q_matches_bin0_and_bin3"], "0")
  require.Contains(t, lines["q_matches_bin0_and_bin3"], "3")
  require.Equal(t, "1", lines["q_matches_bin1"])
}

func TestSearchHierarchicalIndexEndToEnd(t *testing.T) {
  dir := t.TempDir()
  bins := fourBinRecords(t, dir)
  idx, err := Build(bins, testBuildConfig(true))
  require.NoError(t, err)

  queries := []SequenceRecord{
    {Name: "q0", Sequence: []byte("ACGTACGTACGTACGTACGTACGTACGTACGTACGT")},
  }

  var buf bytes.Buffer
  _, err = Search(idx, queries, testSearchConfig(t), &buf)
  require.NoError(t, err)

  _, names, lines := parseSearchOutput(t, buf.Bytes())
  require.Equal(t, []string{"q0"}, names)
  require.Contains(t, lines["q0"], "0")
  require.Contains(t, lines["q0"], "3")
}

func TestSearchPreservesQueryOrderRegardlessOfHitSize(t *testing.T) {
  dir := t.TempDir()
  bins := fourBinRecords(t, dir)
  idx, err := Build(bins, testBuildConfig(false))
  require.NoError(t, err)

  // Interleave a no-hit query between two hit-producing queries; the
  // output must preserve input order rather than completion order, since
  // queries run concurrently across worker threads.
  queries := []SequenceRecord{
    {Name: "a_hit", Sequence: []byte("ACGTACGTACGTACGTACGTACGTACGTACGTACGT")},
    {Name: "b_nohit", Sequence: []byte("CCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC")},
    {Name: "c_hit", Sequence: []byte("TTTTGGGGCCCCAAAATTTTGGGGCCCCAAAATTTT")},
  }

  var buf bytes.Buffer
  _, err = Search(idx, queries, testSearchConfig(t), &buf)
  require.NoError(t, err)

  _, names, _ := parseSearchOutput(t, buf.Bytes())
  require.Equal(t, []string{"a_hit", "b_nohit", "c_hit"}, names)
}

func TestSearchEmptyHitSetHasNoTrailingTab(t *testing.T) {
  dir := t.TempDir()
  bins := fourBinRecords(t, dir)
  idx, err := Build(bins, testBuildConfig(false))
  require.NoError(t, err)

  queries := []SequenceRecord{
    {Name: "nohit", Sequence: []byte("CCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC")},
  }
  var buf bytes.Buffer
  _, err = Search(idx, queries, testSearchConfig(t), &buf)
  require.NoError(t, err)

  scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
  scanner.Scan() // header
  scanner.Scan() // the one result line
  line := scanner.Text()
  require.Equal(t, "nohit", line)
  require.NotContains(t, line, "\t")
}

func TestChunkSizeSplitsIntoThreadsSquaredGroups(t *testing.T) {
  // do_parallel.hpp's formula: ceil(n/threads^2), floored at a chunk size of 1.
  require.Equal(t, 25, chunkSize(100, 2))
  require.Equal(t, 11, chunkSize(99, 3))
  require.Equal(t, 1, chunkSize(1, 4))
  require.Equal(t, 1, chunkSize(0, 4))
  require.Equal(t, 100, chunkSize(100, 0), "threads<1 must be treated as 1 thread, not divide by zero")
}

func writeIndexFile(t *testing.T, dir string, idx *RaptorIndex) string {
  t.Helper()
  path := filepath.Join(dir, "index.raptor")
  f, err := os.Create(path)
  require.NoError(t, err)
  defer f.Close()
  require.NoError(t, idx.WriteTo(f))
  return path
}

func TestLoadIndexAsyncMatchesSynchronousRead(t *testing.T) {
  dir := t.TempDir()
  bins := fourBinRecords(t, dir)
  built, err := Build(bins, testBuildConfig(false))
  require.NoError(t, err)
  path := writeIndexFile(t, dir, built)

  idx, join, err := LoadIndexAsync(path)
  require.NoError(t, err)
  // Header fields are available immediately, before join is ever called.
  require.Equal(t, built.Window, idx.Window)
  require.Equal(t, built.Shape.String(), idx.Shape.String())
  require.Nil(t, idx.Flat)

  require.NoError(t, join())
  require.NotNil(t, idx.Flat)
  require.True(t, built.Flat.Equal(idx.Flat))

  // join is safe to call more than once and keeps returning the same result.
  require.NoError(t, join())
}

func TestLoadIndexAsyncPropagatesPayloadError(t *testing.T) {
  dir := t.TempDir()
  bins := fourBinRecords(t, dir)
  built, err := Build(bins, testBuildConfig(false))
  require.NoError(t, err)
  path := writeIndexFile(t, dir, built)

  raw, err := os.ReadFile(path)
  require.NoError(t, err)
  truncated := filepath.Join(dir, "truncated.raptor")
  require.NoError(t, os.WriteFile(truncated, raw[:len(raw)-4], 0o644))

  _, join, err := LoadIndexAsync(truncated)
  require.NoError(t, err, "header must parse even though the payload is truncated")
  require.Error(t, join())
}

func writeFastaQueryFile(t *testing.T, dir string, records []SequenceRecord) string {
  t.Helper()
  path := filepath.Join(dir, "queries.fasta")
  var buf bytes.Buffer
  for _, r := range records {
    fmt.Fprintf(&buf, ">%s\n%s\n", r.Name, string(r.Sequence))
  }
  require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
  return path
}

func TestSearchQueryFileMatchesInMemorySearch(t *testing.T) {
  dir := t.TempDir()
  bins := fourBinRecords(t, dir)
  built, err := Build(bins, testBuildConfig(false))
  require.NoError(t, err)
  indexPath := writeIndexFile(t, dir, built)

  queries := []SequenceRecord{
    {Name: "a_hit", Sequence: []byte("ACGTACGTACGTACGTACGTACGTACGTACGTACGT")},
    {Name: "b_nohit", Sequence: []byte("CCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC")},
    {Name: "c_hit", Sequence: []byte("TTTTGGGGCCCCAAAATTTTGGGGCCCCAAAATTTT")},
  }
  queryPath := writeFastaQueryFile(t, dir, queries)

  var want bytes.Buffer
  _, err = Search(built, queries, testSearchConfig(t), &want)
  require.NoError(t, err)

  idx, join, err := LoadIndexAsync(indexPath)
  require.NoError(t, err)

  var got bytes.Buffer
  // chunkRecords=1 forces three separate chunk flushes through one
  // SyncWriter, exercising the multi-chunk accumulation path even though
  // the fixture only has three records.
  _, err = SearchQueryFile(queryPath, idx, join, testSearchConfig(t), &got, 1)
  require.NoError(t, err)

  wantHeader, wantNames, wantLines := parseSearchOutput(t, want.Bytes())
  gotHeader, gotNames, gotLines := parseSearchOutput(t, got.Bytes())
  require.Equal(t, wantHeader, gotHeader)
  require.Equal(t, wantNames, gotNames)
  require.Equal(t, wantLines, gotLines)
}

func TestSearchQueryFileJoinsIndexOnEmptyQueryFile(t *testing.T) {
  dir := t.TempDir()
  bins := fourBinRecords(t, dir)
  built, err := Build(bins, testBuildConfig(false))
  require.NoError(t, err)
  indexPath := writeIndexFile(t, dir, built)
  queryPath := writeFastaQueryFile(t, dir, nil)

  idx, join, err := LoadIndexAsync(indexPath)
  require.NoError(t, err)

  joinCalled := false
  wrappedJoin := func() error {
    joinCalled = true
    return join()
  }

  var got bytes.Buffer
  _, err = SearchQueryFile(queryPath, idx, wrappedJoin, testSearchConfig(t), &got, 10)
  require.NoError(t, err)
  require.True(t, joinCalled, "an empty query file must still join the index load so payload errors surface")

  header, names, _ := parseSearchOutput(t, got.Bytes())
  require.Equal(t, "#QUERY_NAME\tUSER_BINS", header)
  require.Empty(t, names)
}
