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

import "bufio"
import "fmt"
import "io"
import "sync"

/* -------------------------------------------------------------------------- */

// SyncWriter serializes concurrent writers onto a single underlying
// io.Writer behind a mutex, buffered so that the many small per-query
// writes of the search driver's sequential output pass (run after each
// chunk's worker pool finishes) don't each pay a syscall
// (spec.md §5's "query results are written through a mutex-guarded
// synchronized writer").
type SyncWriter struct {
  mu  sync.Mutex
  buf *bufio.Writer
}

// NewSyncWriter wraps w for concurrent use.
func NewSyncWriter(w io.Writer) *SyncWriter {
  return &SyncWriter{buf: bufio.NewWriter(w)}
}

/* -------------------------------------------------------------------------- */

// WriteLine formats and atomically appends one line, terminated with '\n'.
func (s *SyncWriter) WriteLine(format string, args ...interface{}) error {
  s.mu.Lock()
  defer s.mu.Unlock()
  if _, err := fmt.Fprintf(s.buf, format, args...); err != nil {
    return wrapError(ErrIO, "", err)
  }
  if _, err := s.buf.WriteString("\n"); err != nil {
    return wrapError(ErrIO, "", err)
  }
  return nil
}

// Flush pushes any buffered output to the underlying writer. The search
// driver calls this once after its worker pool has drained, not per query.
func (s *SyncWriter) Flush() error {
  s.mu.Lock()
  defer s.mu.Unlock()
  if err := s.buf.Flush(); err != nil {
    return wrapError(ErrIO, "", err)
  }
  return nil
}
