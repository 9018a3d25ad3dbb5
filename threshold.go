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

import "math"

/* -------------------------------------------------------------------------- */

// ThresholdParams fixes the query-length-independent inputs to the
// threshold oracle: the minimiser extraction parameters, an error budget
// (number of substitution errors tolerated per query), and a confidence
// level (spec.md §4.4).
type ThresholdParams struct {
  Window  uint64
  Shape   Shape
  Errors  uint64
  Tau     float64
}

/* -------------------------------------------------------------------------- */

// ThresholdOracle maps a query's minimiser count n to the minimum number of
// shared minimisers required to call the query a match, precomputed for the
// full range of pattern sizes the caller asks for.
type ThresholdOracle struct {
  params ThresholdParams
  table  []uint64 // table[n] is the threshold for a query with n minimisers
}

/* -------------------------------------------------------------------------- */

// NewThresholdOracle precomputes a ThresholdOracle for pattern sizes
// 0..maxPatternSize inclusive. When window == shape.Size() every k-mer is a
// minimiser and the oracle uses the closed form in fillClosedForm
// (n - e*shape.Size(), floored at zero); otherwise it falls back to the
// probabilistic CDF-walk model (spec.md §4.4).
func NewThresholdOracle(params ThresholdParams, maxPatternSize uint64) *ThresholdOracle {
  o := &ThresholdOracle{params: params, table: make([]uint64, maxPatternSize+1)}
  if params.Window == uint64(params.Shape.Size()) {
    o.fillClosedForm()
  } else {
    o.fillProbabilisticModel()
  }
  return o
}

/* -------------------------------------------------------------------------- */

// fillClosedForm implements the window==shape.Size() case: each base
// substitution destroys at most shape.Size() consecutive k-mers/minimisers,
// so with e errors a query of n minimisers retains at least
// n - e*shape.Size() of them, floored at zero (spec.md §4.4).
func (o *ThresholdOracle) fillClosedForm() {
  k := uint64(o.params.Shape.Size())
  for n := range o.table {
    un := uint64(n)
    lost := o.params.Errors * k
    if lost >= un {
      o.table[n] = 0
    } else {
      o.table[n] = un - lost
    }
  }
}

/* -------------------------------------------------------------------------- */

// fillProbabilisticModel implements window > shape.Size(): a single
// substitution can destroy up to (window - shape.Size() + 1) consecutive
// minimisers (the k-mers of every window it participates in), but doesn't
// always destroy that many: the DP below walks, for each candidate
// threshold t, the probability that e errors leave at least t of n
// minimisers intact, picking the largest t whose survival probability
// meets tau. This is a reconstruction of the contract described in
// spec.md §4.4 from first principles (the reference implementation's
// enumerate-all-errors helper was not available to consult directly).
func (o *ThresholdOracle) fillProbabilisticModel() {
  maxLossPerError := uint64(o.params.Window) - uint64(o.params.Shape.Size()) + 1
  e := o.params.Errors

  for n := range o.table {
    un := uint64(n)
    if un == 0 {
      o.table[n] = 0
      continue
    }
    // dist[lost] = P(exactly `lost` minimisers destroyed by e errors),
    // built by convolving e independent per-error loss distributions. Each
    // error independently destroys Uniform{1..maxLossPerError} minimisers
    // (clamped to the pattern length), reflecting that an error's position
    // within the query is uniformly distributed over its minimiser span.
    dist := []float64{1.0}
    for i := uint64(0); i < e; i++ {
      dist = convolveUniformLoss(dist, maxLossPerError, un)
    }
    // Walk thresholds from n downward, accumulating P(lost <= n - t), and
    // stop at the largest t whose survival probability is >= tau.
    threshold := uint64(0)
    cumulative := 0.0
    for lost := 0; lost < len(dist); lost++ {
      cumulative += dist[lost]
      survived := un - uint64(lost)
      if survived > un {
        survived = 0
      }
      if cumulative >= o.params.Tau {
        threshold = survived
        break
      }
    }
    o.table[n] = threshold
  }
}

// convolveUniformLoss adds one more independent Uniform{1..maxLoss} loss
// term to dist (a probability mass function over total minimisers lost so
// far), clamping the running total at cap.
func convolveUniformLoss(dist []float64, maxLoss uint64, cap uint64) []float64 {
  step := 1.0 / float64(maxLoss)
  out := make([]float64, min64(uint64(len(dist))+maxLoss, cap+1))
  for lost, p := range dist {
    if p == 0 {
      continue
    }
    for add := uint64(1); add <= maxLoss; add++ {
      total := uint64(lost) + add
      if total > cap {
        total = cap
      }
      out[total] += p * step
    }
  }
  return out
}

func min64(a, b uint64) uint64 {
  if a < b {
    return a
  }
  return b
}

/* -------------------------------------------------------------------------- */

// Threshold returns the minimum number of shared minimisers a query with n
// minimisers must have against a bin to be reported as a match.
func (o *ThresholdOracle) Threshold(n uint64) uint64 {
  if n >= uint64(len(o.table)) {
    return o.table[len(o.table)-1]
  }
  return o.table[n]
}

// MaxPatternSize returns the largest n the oracle was built to answer.
func (o *ThresholdOracle) MaxPatternSize() uint64 {
  return uint64(len(o.table)) - 1
}

/* -------------------------------------------------------------------------- */

// CacheKey identifies a ThresholdOracle's inputs for disk caching: two
// oracles built from equal CacheKeys always produce identical tables
// (spec.md §4.4, "cached to disk keyed on (pattern-size ceiling, window,
// shape, errors, tau)").
type CacheKey struct {
  MaxPatternSize uint64
  Window         uint64
  Shape          string
  Errors         uint64
  Tau            float64
}

// Key derives this oracle's cache key.
func (o *ThresholdOracle) Key() CacheKey {
  return CacheKey{
    MaxPatternSize: o.MaxPatternSize(),
    Window:         o.params.Window,
    Shape:          o.params.Shape.String(),
    Errors:         o.params.Errors,
    Tau:            o.params.Tau,
  }
}

/* -------------------------------------------------------------------------- */

// roundToEven rounds x to the nearest integer, ties to even. Nothing in
// this package, tests included, calls it.
func roundToEven(x float64) float64 {
  return math.RoundToEven(x)
}
