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
import "compress/gzip"
import "io"
import "os"
import "strings"
import "unicode"

/* -------------------------------------------------------------------------- */

// SequenceRecord is one FASTA or FASTQ entry: a name and its raw bases.
// Quality strings (FASTQ) are read and discarded, since raptor only ever
// hashes bases (spec.md §4.1 takes "a nucleotide sequence" without regard
// to how it was scored).
type SequenceRecord struct {
  Name     string
  Sequence []byte
}

/* -------------------------------------------------------------------------- */

// ReadSequences streams every record of reader, which must be FASTA
// ('>' headers) or FASTQ ('@' headers, '+' separator, quality line), into
// emit, in file order. It is a generalisation of gonetics'
// OrderedStringSet.ReadFasta that avoids holding the whole file in memory
// at once, since build.go needs to process arbitrarily large bin files.
func ReadSequences(reader io.Reader, emit func(SequenceRecord) error) error {
  br := bufio.NewReader(reader)
  first, err := br.Peek(1)
  if err != nil {
    if err == io.EOF {
      return nil
    }
    return wrapError(ErrIO, "", err)
  }
  if first[0] == '@' {
    return readFastq(br, emit)
  }
  return readFasta(br, emit)
}

/* -------------------------------------------------------------------------- */

func readFasta(r io.Reader, emit func(SequenceRecord) error) error {
  scanner := bufio.NewScanner(r)
  scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)

  name := ""
  seq := []byte{}

  flush := func() error {
    if name == "" {
      return nil
    }
    return emit(SequenceRecord{Name: name, Sequence: seq})
  }

  for scanner.Scan() {
    line := scanner.Text()
    if len(line) == 0 {
      continue
    }
    if line[0] == '>' {
      if err := flush(); err != nil {
        return err
      }
      name = fastaHeaderName(line)
      seq = []byte{}
    } else {
      if name == "" {
        return raptorErrorf(ErrFormat, "", "fasta record without header")
      }
      seq = append(seq, line...)
    }
  }
  if err := scanner.Err(); err != nil {
    return wrapError(ErrIO, "", err)
  }
  return flush()
}

func fastaHeaderName(line string) string {
  fields := strings.FieldsFunc(line, func(c rune) bool {
    return unicode.IsSpace(c) || c == '>' || c == '|'
  })
  if len(fields) == 0 {
    return ""
  }
  return fields[0]
}

/* -------------------------------------------------------------------------- */

func readFastq(r io.Reader, emit func(SequenceRecord) error) error {
  scanner := bufio.NewScanner(r)
  scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)

  for {
    if !scanner.Scan() {
      break
    }
    header := scanner.Text()
    if len(header) == 0 || header[0] != '@' {
      return raptorErrorf(ErrFormat, "", "fastq record does not start with '@'")
    }
    name := fastaHeaderName(header[1:])

    if !scanner.Scan() {
      return raptorErrorf(ErrFormat, "", "truncated fastq record %q", name)
    }
    seq := []byte(scanner.Text())

    if !scanner.Scan() || len(scanner.Text()) == 0 || scanner.Text()[0] != '+' {
      return raptorErrorf(ErrFormat, "", "fastq record %q missing '+' separator", name)
    }
    if !scanner.Scan() {
      return raptorErrorf(ErrFormat, "", "truncated fastq record %q", name)
    }
    if err := emit(SequenceRecord{Name: name, Sequence: seq}); err != nil {
      return err
    }
  }
  if err := scanner.Err(); err != nil {
    return wrapError(ErrIO, "", err)
  }
  return nil
}

/* -------------------------------------------------------------------------- */

// OpenSequenceFile opens path, transparently decompressing it if its name
// ends in .gz, mirroring gonetics' isGzip/ExportFasta convention. The
// caller must Close the returned io.ReadCloser.
func OpenSequenceFile(path string) (io.ReadCloser, error) {
  f, err := os.Open(path)
  if err != nil {
    return nil, wrapError(ErrIO, path, err)
  }
  if !strings.HasSuffix(path, ".gz") {
    return f, nil
  }
  g, err := gzip.NewReader(f)
  if err != nil {
    f.Close()
    return nil, wrapError(ErrFormat, path, err)
  }
  return gzipReadCloser{g, f}, nil
}

type gzipReadCloser struct {
  gz *gzip.Reader
  f  *os.File
}

func (g gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }
func (g gzipReadCloser) Close() error {
  if err := g.gz.Close(); err != nil {
    g.f.Close()
    return err
  }
  return g.f.Close()
}

/* -------------------------------------------------------------------------- */

// ReadSequenceFile opens path and streams its records to emit, in one call.
func ReadSequenceFile(path string, emit func(SequenceRecord) error) error {
  f, err := OpenSequenceFile(path)
  if err != nil {
    return err
  }
  defer f.Close()
  if err := ReadSequences(f, emit); err != nil {
    return wrapError(ErrFormat, path, unwrapRaptor(err))
  }
  return nil
}

func unwrapRaptor(err error) error {
  if re, ok := err.(*raptorError); ok {
    return re.err
  }
  return err
}
