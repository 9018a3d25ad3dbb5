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

import "errors"
import "fmt"

/* -------------------------------------------------------------------------- */

// Error kinds, per spec.md §7. Callers distinguish them with errors.Is,
// e.g. `errors.Is(err, raptor.ErrIO)`.
var (
  // ErrInvalidArgument is a bad flag/path/value combination caught before
  // any work starts.
  ErrInvalidArgument = errors.New("raptor: invalid argument")
  // ErrIO is a missing file, permission failure, or short read.
  ErrIO = errors.New("raptor: io error")
  // ErrFormat is a malformed minimiser file, header, or index envelope.
  ErrFormat = errors.New("raptor: format error")
  // ErrVersionMismatch is an unsupported serialized index version.
  ErrVersionMismatch = errors.New("raptor: version mismatch")
  // ErrCorruption is an HIBF index with out-of-range or cyclic next_ibf_id.
  ErrCorruption = errors.New("raptor: index corruption")
  // ErrInternal marks a broken invariant; always fatal.
  ErrInternal = errors.New("raptor: internal error")
  // ErrShapeMismatch is a prepare step's recorded header disagreeing with a
  // re-issued build command.
  ErrShapeMismatch = errors.New("raptor: shape mismatch")
)

/* -------------------------------------------------------------------------- */

// raptorError wraps one of the sentinel kinds above with an optional path
// and an optional underlying cause, so errors.Is(err, ErrIO) keeps working
// after the error has been formatted and passed up through driver code.
type raptorError struct {
  kind error
  path string
  err  error
}

func (e *raptorError) Error() string {
  if e.path == "" {
    return fmt.Sprintf("%s: %s", e.kind, e.err)
  }
  return fmt.Sprintf("%s: %s: %s", e.kind, e.path, e.err)
}

func (e *raptorError) Unwrap() []error {
  return []error{e.kind, e.err}
}

// raptorErrorf builds a raptorError of the given kind, optionally naming
// the offending path (per spec.md §7, "reported with the offending path").
func raptorErrorf(kind error, path string, format string, args ...interface{}) error {
  return &raptorError{kind: kind, path: path, err: fmt.Errorf(format, args...)}
}

// wrapError attaches kind/path context to an existing error without losing
// it, so errors.Is still sees both the sentinel kind and the original cause.
func wrapError(kind error, path string, err error) error {
  if err == nil {
    return nil
  }
  return &raptorError{kind: kind, path: path, err: err}
}
