package raptor

import "testing"

func TestMinimiserExtractorEmptyOnShortSequence(t *testing.T) {
  params := MinimiserParams{Shape: NewUngappedShape(4), Window: 6}
  extractor := NewMinimiserExtractor(params)

  var got []uint64
  extractor.Each([]byte("ACG"), func(h uint64) { got = append(got, h) })
  if len(got) != 0 {
    t.Errorf("Each() on a sequence shorter than w: got %d hashes, want 0", len(got))
  }
}

func TestMinimiserExtractorDeduplicatesConsecutive(t *testing.T) {
  params := MinimiserParams{Shape: NewUngappedShape(4), Window: 2}
  extractor := NewMinimiserExtractor(params)

  hashes := extractor.Extract([]byte("ACGTACGTACGT"))
  for i := 1; i < len(hashes); i++ {
    if hashes[i] == hashes[i-1] {
      t.Errorf("Extract() has adjacent duplicate hash at index %d", i)
    }
  }
}

func TestMinimiserExtractorCanonical(t *testing.T) {
  // A k-mer and its reverse complement must hash identically, since the
  // extractor always picks the canonical (smaller-packed) encoding.
  params := MinimiserParams{Shape: NewUngappedShape(4), Window: 4}
  extractor := NewMinimiserExtractor(params)

  revComp := extractor.Extract([]byte("AACC"))
  comp := extractor.Extract([]byte("GGTT")) // reverse complement of AACC
  if len(revComp) != 1 || len(comp) != 1 || revComp[0] != comp[0] {
    t.Fatalf("canonical hash mismatch between AACC and its reverse complement GGTT: %v vs %v", revComp, comp)
  }
}

func TestMinimiserExtractorWindowOfOneIsEveryKmer(t *testing.T) {
  params := MinimiserParams{Shape: NewUngappedShape(3), Window: 1}
  extractor := NewMinimiserExtractor(params)

  seq := []byte("ACGTACGA")
  numKmers := len(seq) - 3 + 1
  hashes := extractor.Extract(seq)
  if len(hashes) > numKmers {
    t.Errorf("Extract() produced %d hashes, more than %d k-mers", len(hashes), numKmers)
  }

  coded := make([]byte, len(seq))
  for i, b := range seq {
    coded[i] = NucleotideAlphabet{}.Code(b)
  }
  var want []uint64
  for i := 0; i < numKmers; i++ {
    h := extractor.kmerHash(coded, i)
    if len(want) == 0 || want[len(want)-1] != h {
      want = append(want, h)
    }
  }
  if len(hashes) != len(want) {
    t.Fatalf("Extract() produced %d hashes, want %d (every k-mer, consecutive duplicates removed)", len(hashes), len(want))
  }
  for i := range want {
    if hashes[i] != want[i] {
      t.Errorf("Extract()[%d] = %x, want %x", i, hashes[i], want[i])
    }
  }
}

func TestAdjustSeed(t *testing.T) {
  s1 := adjustSeed(19, defaultMinimiserSeed)
  s2 := adjustSeed(20, defaultMinimiserSeed)
  if s1 == s2 {
    t.Error("adjustSeed() gave the same seed for two different shape weights")
  }
}
