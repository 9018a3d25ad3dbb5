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

// NucleotideAlphabet is a 4-letter (A, C, G, T) two-bit rank alphabet.
// Any byte outside {A,C,G,T,a,c,g,t} (an "N-equivalent", per an ambiguity
// code or a masked/unknown base) is coded as 'A' rather than rejected, the
// same convention seqan3's dna4 rank alphabet uses: a hash extractor built
// on this alphabet never fails on real-world FASTA/FASTQ input, it just
// treats unresolved positions as a fixed base.
type NucleotideAlphabet struct {
}

/* -------------------------------------------------------------------------- */

// Code returns the two-bit rank of a nucleotide: A=0, C=1, G=2, T=3.
func (NucleotideAlphabet) Code(b byte) byte {
  switch b {
  case 'A', 'a':
    return 0
  case 'C', 'c':
    return 1
  case 'G', 'g':
    return 2
  case 'T', 't':
    return 3
  default:
    return 0
  }
}

// Decode is the inverse of Code, always returning a lower-case base.
func (NucleotideAlphabet) Decode(c byte) byte {
  switch c {
  case 0:
    return 'a'
  case 1:
    return 'c'
  case 2:
    return 'g'
  default:
    return 't'
  }
}

// ComplementCoded returns the two-bit rank of the Watson-Crick complement
// of a coded base: complementing a rank is just `3 - rank`.
func (NucleotideAlphabet) ComplementCoded(c byte) byte {
  return 3 - c
}

// IsResolved reports whether b is one of A, C, G, T (case-insensitive),
// as opposed to an ambiguity code, mask character, or gap.
func (NucleotideAlphabet) IsResolved(b byte) bool {
  switch b {
  case 'A', 'a', 'C', 'c', 'G', 'g', 'T', 't':
    return true
  default:
    return false
  }
}

func (NucleotideAlphabet) Length() int {
  return 4
}

func (NucleotideAlphabet) String() string {
  return "nucleotide alphabet"
}
