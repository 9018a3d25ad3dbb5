package raptor

import (
  "bytes"
  "testing"
)

func TestIBFEmplaceAndBulkCountNoFalseNegative(t *testing.T) {
  ibf := NewIBF(8, 1024, 3)
  values := []uint64{1, 2, 3, 4, 5}
  for _, v := range values {
    ibf.Emplace(v, 2)
  }
  counts := ibf.BulkCount(values)
  if counts[2] < uint64(len(values)) {
    t.Errorf("BulkCount()[2] = %d, want >= %d (no false negatives)", counts[2], len(values))
  }
}

func TestIBFEmplaceIsIdempotent(t *testing.T) {
  ibf := NewIBF(4, 256, 2)
  ibf.Emplace(42, 1)
  before := append([]uint64(nil), ibf.data...)
  ibf.Emplace(42, 1)
  after := ibf.data
  if !uint64SlicesEqual(before, after) {
    t.Error("Emplace() of the same value twice changed the underlying storage")
  }
}

func TestIBFMonotonicity(t *testing.T) {
  ibf := NewIBF(4, 512, 2)
  values := []uint64{10, 20, 30}
  before := ibf.BulkCount(values)
  ibf.Emplace(10, 1)
  ibf.Emplace(20, 1)
  after := ibf.BulkCount(values)
  for b := range after {
    if after[b] < before[b] {
      t.Errorf("BulkCount()[%d] decreased from %d to %d after Emplace", b, before[b], after[b])
    }
  }
}

func TestIBFMembershipThreshold(t *testing.T) {
  ibf := NewIBF(4, 1024, 3)
  values := []uint64{100, 200, 300}
  for _, v := range values {
    ibf.Emplace(v, 0)
  }
  ibf.Emplace(values[0], 1)

  hits := ibf.Membership(values, uint64(len(values)))
  if len(hits) != 1 || hits[0] != 0 {
    t.Errorf("Membership() = %v, want [0]", hits)
  }

  hitsLow := ibf.Membership(values, 1)
  if len(hitsLow) != 2 {
    t.Errorf("Membership(threshold=1) = %v, want both bins", hitsLow)
  }
}

func TestIBFRoundTrip(t *testing.T) {
  ibf := NewIBF(10, 2048, 4)
  for i := uint64(0); i < 10; i++ {
    ibf.Emplace(1000+i, i)
  }

  var buf bytes.Buffer
  if err := ibf.WriteTo(&buf); err != nil {
    t.Fatal(err)
  }
  got, err := ReadIBF(&buf)
  if err != nil {
    t.Fatal(err)
  }
  if !ibf.Equal(got) {
    t.Error("ReadIBF(WriteTo(ibf)) != ibf")
  }
}

func TestIBFEmplaceOutOfRangePanics(t *testing.T) {
  defer func() {
    if recover() == nil {
      t.Error("Emplace() with an out-of-range bin: want panic, got none")
    }
  }()
  NewIBF(2, 64, 1).Emplace(1, 5)
}

func uint64SlicesEqual(a, b []uint64) bool {
  if len(a) != len(b) {
    return false
  }
  for i := range a {
    if a[i] != b[i] {
      return false
    }
  }
  return true
}
