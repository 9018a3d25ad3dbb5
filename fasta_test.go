package raptor

import (
  "bytes"
  "compress/gzip"
  "os"
  "path/filepath"
  "strings"
  "testing"
)

func TestReadSequencesFasta(t *testing.T) {
  data := ">seq1 some description\nACGT\nACGT\n>seq2|accession\nTTTT\n"
  var got []SequenceRecord
  err := ReadSequences(strings.NewReader(data), func(r SequenceRecord) error {
    got = append(got, r)
    return nil
  })
  if err != nil {
    t.Fatal(err)
  }
  if len(got) != 2 {
    t.Fatalf("ReadSequences() returned %d records, want 2", len(got))
  }
  if got[0].Name != "seq1" || string(got[0].Sequence) != "ACGTACGT" {
    t.Errorf("got[0] = %+v", got[0])
  }
  if got[1].Name != "seq2" || string(got[1].Sequence) != "TTTT" {
    t.Errorf("got[1] = %+v", got[1])
  }
}

func TestReadSequencesFastq(t *testing.T) {
  data := "@read1 desc\nACGTACGT\n+\nIIIIIIII\n@read2\nGGGG\n+\nIIII\n"
  var got []SequenceRecord
  err := ReadSequences(strings.NewReader(data), func(r SequenceRecord) error {
    got = append(got, r)
    return nil
  })
  if err != nil {
    t.Fatal(err)
  }
  if len(got) != 2 {
    t.Fatalf("ReadSequences() returned %d records, want 2", len(got))
  }
  if got[0].Name != "read1" || string(got[0].Sequence) != "ACGTACGT" {
    t.Errorf("got[0] = %+v", got[0])
  }
  if got[1].Name != "read2" || string(got[1].Sequence) != "GGGG" {
    t.Errorf("got[1] = %+v", got[1])
  }
}

func TestReadSequencesEmptyReader(t *testing.T) {
  called := false
  err := ReadSequences(strings.NewReader(""), func(r SequenceRecord) error {
    called = true
    return nil
  })
  if err != nil {
    t.Fatal(err)
  }
  if called {
    t.Error("ReadSequences() on an empty reader called emit")
  }
}

func TestReadSequencesFastaWithoutHeaderIsFormatError(t *testing.T) {
  err := ReadSequences(strings.NewReader("ACGT\n"), func(r SequenceRecord) error {
    return nil
  })
  if err == nil {
    t.Error("ReadSequences() on a headerless fasta body: want error, got nil")
  }
}

func TestReadSequencesFastqTruncatedIsFormatError(t *testing.T) {
  err := ReadSequences(strings.NewReader("@read1\nACGT\n"), func(r SequenceRecord) error {
    return nil
  })
  if err == nil {
    t.Error("ReadSequences() on a truncated fastq record: want error, got nil")
  }
}

func TestReadSequenceFileGzip(t *testing.T) {
  dir := t.TempDir()
  path := filepath.Join(dir, "seqs.fa.gz")

  var buf bytes.Buffer
  gz := gzip.NewWriter(&buf)
  if _, err := gz.Write([]byte(">only\nACGTACGTACGT\n")); err != nil {
    t.Fatal(err)
  }
  if err := gz.Close(); err != nil {
    t.Fatal(err)
  }
  if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
    t.Fatal(err)
  }

  var got []SequenceRecord
  err := ReadSequenceFile(path, func(r SequenceRecord) error {
    got = append(got, r)
    return nil
  })
  if err != nil {
    t.Fatal(err)
  }
  if len(got) != 1 || got[0].Name != "only" || string(got[0].Sequence) != "ACGTACGTACGT" {
    t.Errorf("ReadSequenceFile() = %+v", got)
  }
}

func TestReadSequenceFilePlain(t *testing.T) {
  dir := t.TempDir()
  path := filepath.Join(dir, "seqs.fa")
  if err := os.WriteFile(path, []byte(">a\nACGT\n>b\nTTTT\n"), 0o644); err != nil {
    t.Fatal(err)
  }

  var names []string
  err := ReadSequenceFile(path, func(r SequenceRecord) error {
    names = append(names, r.Name)
    return nil
  })
  if err != nil {
    t.Fatal(err)
  }
  if len(names) != 2 || names[0] != "a" || names[1] != "b" {
    t.Errorf("names = %v", names)
  }
}

func TestFastaHeaderNameStripsDescriptionAndPipe(t *testing.T) {
  cases := map[string]string{
    ">seq1 description here": "seq1",
    ">seq2|pipe|fields":      "seq2",
    ">":                      "",
    ">onlyname":              "onlyname",
  }
  for line, want := range cases {
    if got := fastaHeaderName(line); got != want {
      t.Errorf("fastaHeaderName(%q) = %q, want %q", line, got, want)
    }
  }
}
