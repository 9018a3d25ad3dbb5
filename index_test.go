package raptor

import (
  "bytes"
  "errors"
  "testing"

  "github.com/stretchr/testify/require"
)

func TestRaptorIndexRoundTripFlat(t *testing.T) {
  ibf := NewIBF(4, 1024, 3)
  ibf.Emplace(1, 0)
  ibf.Emplace(2, 1)

  idx := &RaptorIndex{
    Version: IndexFormatVersion,
    Window:  25,
    Shape:   NewUngappedShape(19),
    Parts:   1,
    BinPath: [][]string{{"bin0.fa"}, {"bin1.fa"}},
    FPR:     0.05,
    IsHIBF:  false,
    Flat:    ibf,
  }

  var buf bytes.Buffer
  require.NoError(t, idx.WriteTo(&buf))

  got, err := ReadIndex(&buf)
  require.NoError(t, err)
  require.Equal(t, idx.Window, got.Window)
  require.Equal(t, idx.Parts, got.Parts)
  require.False(t, got.Compressed)
  require.False(t, got.IsHIBF)
  require.Equal(t, idx.BinPath, got.BinPath)
  require.InDelta(t, idx.FPR, got.FPR, 1e-12)
  require.True(t, ibf.Equal(got.Flat))
}

func TestRaptorIndexRoundTripHIBF(t *testing.T) {
  h := NewHIBF()
  idx0 := h.reserveNode()
  root := NewIBF(2, 512, 2)
  root.Emplace(10, 0)
  root.Emplace(20, 1)
  h.IBFVector[idx0] = root
  h.NextIBFID[idx0] = []int64{int64(idx0), int64(idx0)}
  h.UserBins.SetBinIndicesOfIBF(idx0, []int64{0, 1})

  idx := &RaptorIndex{
    Version: IndexFormatVersion,
    Window:  19,
    Shape:   NewUngappedShape(19),
    Parts:   1,
    BinPath: [][]string{{"bin0.fa"}, {"bin1.fa"}},
    FPR:     0.01,
    IsHIBF:  true,
    Hier:    h,
  }

  var buf bytes.Buffer
  require.NoError(t, idx.WriteTo(&buf))

  got, err := ReadIndex(&buf)
  require.NoError(t, err)
  require.True(t, got.IsHIBF)
  require.NotNil(t, got.Hier)

  hits := got.Query([]uint64{10}, 1)
  require.Equal(t, []int64{0}, hits)
}

func TestRaptorIndexWriteRejectsCompressed(t *testing.T) {
  idx := &RaptorIndex{
    Window:     25,
    Shape:      NewUngappedShape(19),
    Parts:      1,
    Compressed: true,
    FPR:        0.05,
    Flat:       NewIBF(1, 64, 1),
  }
  var buf bytes.Buffer
  err := idx.WriteTo(&buf)
  require.Error(t, err)
  require.True(t, errors.Is(err, ErrInternal))
}

func TestReadIndexRejectsBadMagic(t *testing.T) {
  var buf bytes.Buffer
  buf.Write([]byte{0, 0, 0, 0, 2, 0, 0, 0})
  _, err := ReadIndex(&buf)
  require.Error(t, err)
  require.True(t, errors.Is(err, ErrFormat))
}

func TestReadIndexRejectsVersionMismatch(t *testing.T) {
  idx := &RaptorIndex{Window: 25, Shape: NewUngappedShape(19), Parts: 1, FPR: 0.05, Flat: NewIBF(1, 64, 1)}
  var buf bytes.Buffer
  require.NoError(t, idx.WriteTo(&buf))

  raw := buf.Bytes()
  raw[4] = 99 // corrupt the version field in the written envelope

  _, err := ReadIndex(bytes.NewReader(raw))
  require.Error(t, err)
  require.True(t, errors.Is(err, ErrVersionMismatch))
}

func TestReadIndexHeaderStopsBeforePayload(t *testing.T) {
  idx := &RaptorIndex{
    Version: IndexFormatVersion,
    Window:  25,
    Shape:   NewUngappedShape(19),
    Parts:   1,
    BinPath: [][]string{{"bin0.fa"}},
    FPR:     0.05,
    Flat:    NewIBF(4, 1024, 3),
  }
  var buf bytes.Buffer
  require.NoError(t, idx.WriteTo(&buf))

  r := bytes.NewReader(buf.Bytes())
  hdr, err := ReadIndexHeader(r)
  require.NoError(t, err)
  require.Equal(t, idx.Window, hdr.Window)
  require.Equal(t, idx.BinPath, hdr.BinPath)
  require.Nil(t, hdr.Flat)
  require.Greater(t, r.Len(), 0, "payload bytes must remain unread after ReadIndexHeader")

  require.NoError(t, hdr.readPayload(r))
  require.NotNil(t, hdr.Flat)
  require.Equal(t, 0, r.Len())
}

func TestQueryDispatchesToFlatIBF(t *testing.T) {
  ibf := NewIBF(2, 256, 2)
  ibf.Emplace(42, 0)
  idx := &RaptorIndex{Flat: ibf, IsHIBF: false}
  hits := idx.Query([]uint64{42}, 1)
  require.Equal(t, []int64{0}, hits)
}
