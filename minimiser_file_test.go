package raptor

import (
  "os"
  "path/filepath"
  "testing"
)

func TestWriteAndReadMinimiserFileRoundTrip(t *testing.T) {
  dir := t.TempDir()
  fastaPath := filepath.Join(dir, "bin0.fa")
  if err := os.WriteFile(fastaPath, []byte(">seq1\nACGTACGTACGTACGTACGTACGT\n"), 0o644); err != nil {
    t.Fatal(err)
  }

  params := MinimiserParams{Shape: NewUngappedShape(4), Window: 8, Seed: 1}
  prefix := filepath.Join(dir, "bin0")
  if err := WriteMinimiserFile(prefix, []string{fastaPath}, params, 1<<20); err != nil {
    t.Fatal(err)
  }

  values, err := ReadMinimiserFile(prefix)
  if err != nil {
    t.Fatal(err)
  }
  if len(values) == 0 {
    t.Fatal("ReadMinimiserFile() returned no values")
  }
  for i := 1; i < len(values); i++ {
    if values[i-1] >= values[i] {
      t.Errorf("ReadMinimiserFile() values not strictly increasing at %d: %d >= %d", i, values[i-1], values[i])
    }
  }

  header, err := ReadMinimiserHeader(prefix)
  if err != nil {
    t.Fatal(err)
  }
  if header.Window != params.Window || header.Shape.String() != params.Shape.String() {
    t.Errorf("ReadMinimiserHeader() = %+v, window/shape mismatch", header)
  }
  if header.Cutoff != CutoffForSize(1<<20) {
    t.Errorf("ReadMinimiserHeader().Cutoff = %d, want %d", header.Cutoff, CutoffForSize(1<<20))
  }
}

func TestCheckHeaderCompatibleAcceptsMatchingParams(t *testing.T) {
  params := MinimiserParams{Shape: NewUngappedShape(19), Window: 25, Seed: 1}
  header := MinimiserFileHeader{Shape: params.Shape, Window: params.Window, Cutoff: 3, MaxCount: 10}
  if err := CheckHeaderCompatible(header, params); err != nil {
    t.Errorf("CheckHeaderCompatible() with matching params = %v, want nil", err)
  }
}

func TestCheckHeaderCompatibleRejectsWindowMismatch(t *testing.T) {
  params := MinimiserParams{Shape: NewUngappedShape(19), Window: 25, Seed: 1}
  header := MinimiserFileHeader{Shape: params.Shape, Window: 30, Cutoff: 3, MaxCount: 10}
  if err := CheckHeaderCompatible(header, params); err == nil {
    t.Error("CheckHeaderCompatible() with a mismatched window: want error, got nil")
  }
}

func TestCheckHeaderCompatibleRejectsShapeMismatch(t *testing.T) {
  params := MinimiserParams{Shape: NewUngappedShape(19), Window: 25, Seed: 1}
  header := MinimiserFileHeader{Shape: NewUngappedShape(21), Window: 25, Cutoff: 3, MaxCount: 10}
  if err := CheckHeaderCompatible(header, params); err == nil {
    t.Error("CheckHeaderCompatible() with a mismatched shape: want error, got nil")
  }
}

func TestReadMinimiserFileRejectsTruncatedFile(t *testing.T) {
  dir := t.TempDir()
  prefix := filepath.Join(dir, "broken")
  if err := os.WriteFile(minimiserPath(prefix), []byte{1, 2, 3}, 0o644); err != nil {
    t.Fatal(err)
  }
  if _, err := ReadMinimiserFile(prefix); err == nil {
    t.Error("ReadMinimiserFile() on a truncated file: want error, got nil")
  }
}

func TestReadMinimiserHeaderRejectsMalformedLine(t *testing.T) {
  dir := t.TempDir()
  prefix := filepath.Join(dir, "broken")
  if err := os.WriteFile(headerPath(prefix), []byte("19 25\n"), 0o644); err != nil {
    t.Fatal(err)
  }
  if _, err := ReadMinimiserHeader(prefix); err == nil {
    t.Error("ReadMinimiserHeader() on a malformed header line: want error, got nil")
  }
}
