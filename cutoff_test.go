package raptor

import "testing"

func TestCutoffForSizeBrackets(t *testing.T) {
  cases := []struct {
    size int64
    want uint16
  }{
    {1 << 10, 1},
    {3 * 1 << 20, 1},
    {3*1<<20 + 1, 3},
    {100 * 1 << 20, 20},
    {500 * 1 << 20, 50},
    {1 << 40, 100},
  }
  for _, c := range cases {
    if got := CutoffForSize(c.size); got != c.want {
      t.Errorf("CutoffForSize(%d) = %d, want %d", c.size, got, c.want)
    }
  }
}

func TestSaturatingCounterSaturatesAt16Bits(t *testing.T) {
  c := newSaturatingCounter()
  for i := 0; i < 70000; i++ {
    c.Add(1)
  }
  if got := c.Count(1); got != 65535 {
    t.Errorf("Count() after 70000 Adds = %d, want 65535 (saturated)", got)
  }
}

func TestSaturatingCounterDistinct(t *testing.T) {
  c := newSaturatingCounter()
  c.Add(1)
  c.Add(2)
  c.Add(1)
  if got := c.Distinct(); got != 2 {
    t.Errorf("Distinct() = %d, want 2", got)
  }
}

func TestApplyCutoffDropsAboveCutoffAndDeduplicates(t *testing.T) {
  // 1 occurs 3 times (above cutoff 2, dropped entirely); 2 occurs once and
  // 3 occurs twice (both at or under the cutoff, each kept exactly once).
  values := []uint64{1, 1, 1, 2, 3, 3}
  got := ApplyCutoff(values, 2)
  want := map[uint64]bool{2: true, 3: true}
  if len(got) != 2 {
    t.Fatalf("ApplyCutoff(values, 2) = %v, want 2 surviving values", got)
  }
  for _, v := range got {
    if !want[v] {
      t.Errorf("ApplyCutoff(values, 2) contains unexpected value %d", v)
    }
  }
}

func TestApplyCutoffKeepsEverythingAtMaxCutoff(t *testing.T) {
  values := []uint64{5, 5, 6}
  got := ApplyCutoff(values, 65535)
  if len(got) != 2 {
    t.Errorf("ApplyCutoff(values, 65535) = %v, want 2 distinct surviving values", got)
  }
}
