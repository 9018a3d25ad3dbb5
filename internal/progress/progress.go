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

// Package progress renders a single-line progress bar, the way gonetics'
// tools render progress over chromosomes or windows. No other package of
// this module imports it.
package progress

/* -------------------------------------------------------------------------- */

import "fmt"
import "os"
import "strings"
import "sync/atomic"

/* -------------------------------------------------------------------------- */

const lineDel = "\033[2K\r"

// Bar tracks progress against a known total, printing an update roughly
// every total/k units (see New) rather than on every single increment so that a
// multi-million-record bin file doesn't spam the terminal.
type Bar struct {
  total     int64
  step      int64
  lineWidth int
  done      int64 // atomic
}

/* -------------------------------------------------------------------------- */

// New returns a Bar over total units, printing at most k times.
func New(total int64, k int64) *Bar {
  step := total / k
  if step < 1 {
    step = 1
  }
  return &Bar{total: total, step: step, lineWidth: 40}
}

/* -------------------------------------------------------------------------- */

// Add advances the bar by delta units. Safe for concurrent callers, so
// several worker goroutines can report progress without their own locking.
func (b *Bar) Add(delta int64) {
  atomic.AddInt64(&b.done, delta)
}

func (b *Bar) render(i int64) string {
  var out strings.Builder
  p := float64(i) / float64(b.total)
  out.WriteString(lineDel)
  out.WriteByte('|')
  for col := 1; col < b.lineWidth-1; col++ {
    if float64(col)/float64(b.lineWidth) < p {
      out.WriteByte('>')
    } else {
      out.WriteByte(' ')
    }
  }
  fmt.Fprintf(&out, "| %6.2f%%", p*100)
  if p >= 1.0 {
    out.WriteByte('\n')
  }
  return out.String()
}

/* -------------------------------------------------------------------------- */

// PrintStderr writes the current bar state to stderr if progress has
// crossed a reporting threshold since the last print, or if it just
// finished. Intended to be polled from a ticker in the CLI, not from the
// hot path of every worker.
func (b *Bar) PrintStderr() {
  i := atomic.LoadInt64(&b.done)
  if i == 0 || i >= b.total || i%b.step == 0 {
    fmt.Fprint(os.Stderr, b.render(minInt64(i, b.total)))
  }
}

func minInt64(a, b int64) int64 {
  if a < b {
    return a
  }
  return b
}
