package raptor

import (
  "os"
  "path/filepath"
  "testing"
)

func TestReadBinPaths(t *testing.T) {
  dir := t.TempDir()
  path := filepath.Join(dir, "bins.txt")
  content := "bin1.fa\nbin2_r1.fq bin2_r2.fq\n\nbin3.fa\n"
  if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
    t.Fatal(err)
  }

  records, err := ReadBinPaths(path)
  if err != nil {
    t.Fatal(err)
  }
  if len(records) != 3 {
    t.Fatalf("ReadBinPaths() returned %d records, want 3", len(records))
  }
  if records[0].UserBinID != 0 || len(records[0].Paths) != 1 || records[0].Paths[0] != "bin1.fa" {
    t.Errorf("records[0] = %+v", records[0])
  }
  if records[1].UserBinID != 1 || len(records[1].Paths) != 2 {
    t.Errorf("records[1] = %+v, want two paths", records[1])
  }
  if records[2].UserBinID != 2 || records[2].Paths[0] != "bin3.fa" {
    t.Errorf("records[2] = %+v", records[2])
  }
}

func TestFlattenBinPaths(t *testing.T) {
  records := []BinRecord{
    {UserBinID: 0, Paths: []string{"a.fa"}},
    {UserBinID: 1, Paths: []string{"b1.fq", "b2.fq"}},
  }
  got := FlattenBinPaths(records)
  if len(got) != 2 || len(got[0]) != 1 || len(got[1]) != 2 {
    t.Fatalf("FlattenBinPaths() = %v", got)
  }
  if got[0][0] != "a.fa" || got[1][1] != "b2.fq" {
    t.Errorf("FlattenBinPaths() = %v", got)
  }
}
