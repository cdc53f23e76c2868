// fontra-compile - a compiler for Fontra variable font sources
// Copyright (C) 2026  The fontra-compile authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package gvar encodes the "gvar" glyph variation table.
// https://docs.microsoft.com/en-us/typography/opentype/spec/gvar
package gvar

import (
	"math"

	"github.com/googlefonts/fontra-compile/varmodel"
)

// Variation is the delta set of one glyph for one master region.  The
// deltas cover all outline points of the glyph plus the four phantom
// points, x and y interleaved per point.
type Variation struct {
	Support varmodel.Support
	DeltasX []int16
	DeltasY []int16
}

// Table holds the per-glyph variations of a font, indexed like the
// glyph order.
type Table struct {
	AxisTags   []string
	Variations [][]Variation
}

const (
	embeddedPeakTuple   = 0x8000
	intermediateRegion  = 0x4000
	privatePointNumbers = 0x2000
)

// Encode encodes the table.
func (t *Table) Encode() []byte {
	perGlyph := make([][]byte, len(t.Variations))
	for i, vars := range t.Variations {
		perGlyph[i] = t.encodeGlyph(vars)
	}

	offs := make([]int, 1, len(perGlyph)+1)
	total := 0
	for _, data := range perGlyph {
		total += len(data)
		offs = append(offs, total)
	}
	longOffsets := total/2 > 0xFFFF

	headerLen := 20 + 2*(len(perGlyph)+1)
	if longOffsets {
		headerLen = 20 + 4*(len(perGlyph)+1)
	}

	buf := make([]byte, 0, headerLen+total)
	buf = appendU16(buf, 1) // majorVersion
	buf = appendU16(buf, 0) // minorVersion
	buf = appendU16(buf, uint16(len(t.AxisTags)))
	buf = appendU16(buf, 0)                  // sharedTupleCount
	buf = appendU32(buf, uint32(headerLen))  // sharedTuplesOffset (none follow)
	buf = appendU16(buf, uint16(len(perGlyph)))
	if longOffsets {
		buf = appendU16(buf, 1)
	} else {
		buf = appendU16(buf, 0)
	}
	buf = appendU32(buf, uint32(headerLen)) // glyphVariationDataArrayOffset

	for _, o := range offs {
		if longOffsets {
			buf = appendU32(buf, uint32(o))
		} else {
			buf = appendU16(buf, uint16(o/2))
		}
	}
	for _, data := range perGlyph {
		buf = append(buf, data...)
	}
	return buf
}

// encodeGlyph encodes one GlyphVariationData block.  Every tuple carries
// private point numbers covering all points, so no point-number sharing
// is needed across tuples.
func (t *Table) encodeGlyph(vars []Variation) []byte {
	if len(vars) == 0 {
		return nil
	}

	var headers []byte
	var body []byte
	for _, v := range vars {
		var data []byte
		data = append(data, 0) // all points
		data = append(data, packDeltas(v.DeltasX)...)
		data = append(data, packDeltas(v.DeltasY)...)

		tupleIndex := uint16(embeddedPeakTuple | privatePointNumbers)
		peak := t.encodeTuple(v.Support, func(r varmodel.AxisRange) float64 { return r.Peak })
		var inter []byte
		if needsIntermediate(v.Support) {
			tupleIndex |= intermediateRegion
			inter = t.encodeTuple(v.Support, func(r varmodel.AxisRange) float64 { return r.Min })
			inter = append(inter, t.encodeTuple(v.Support, func(r varmodel.AxisRange) float64 { return r.Max })...)
		}

		headers = appendU16(headers, uint16(len(data)))
		headers = appendU16(headers, tupleIndex)
		headers = append(headers, peak...)
		headers = append(headers, inter...)
		body = append(body, data...)
	}

	buf := appendU16(nil, uint16(len(vars)))
	buf = appendU16(buf, uint16(4+len(headers))) // offset to serialized data
	buf = append(buf, headers...)
	buf = append(buf, body...)
	for len(buf)%2 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

func (t *Table) encodeTuple(s varmodel.Support, get func(varmodel.AxisRange) float64) []byte {
	buf := make([]byte, 0, 2*len(t.AxisTags))
	for _, tag := range t.AxisTags {
		var v float64
		if r, ok := s[tag]; ok {
			v = get(r)
		}
		buf = appendU16(buf, uint16(f2dot14(v)))
	}
	return buf
}

// needsIntermediate reports whether the support cannot be represented by
// a peak tuple alone, i.e. some axis range differs from the implied
// [min(peak,0), max(peak,0)] span.
func needsIntermediate(s varmodel.Support) bool {
	for _, r := range s {
		if r.Min != math.Min(r.Peak, 0) || r.Max != math.Max(r.Peak, 0) {
			return true
		}
	}
	return false
}

const (
	deltasAreZero     = 0x80
	deltasAreWords    = 0x40
	deltaRunCountMask = 0x3F
)

// packDeltas encodes a delta run sequence: runs of zeros, of bytes, and
// of words, at most 64 values per run.
func packDeltas(deltas []int16) []byte {
	var buf []byte
	n := len(deltas)
	for i := 0; i < n; {
		v := deltas[i]
		if v == 0 {
			j := i + 1
			for j < n && deltas[j] == 0 && j-i < 64 {
				j++
			}
			buf = append(buf, byte(deltasAreZero|(j-i-1)))
			i = j
			continue
		}
		if v >= -128 && v <= 127 {
			j := i + 1
			for j < n && j-i < 64 &&
				deltas[j] != 0 && deltas[j] >= -128 && deltas[j] <= 127 {
				j++
			}
			buf = append(buf, byte(j-i-1))
			for _, d := range deltas[i:j] {
				buf = append(buf, byte(int8(d)))
			}
			i = j
			continue
		}
		j := i + 1
		for j < n && j-i < 64 && (deltas[j] < -128 || deltas[j] > 127) {
			j++
		}
		buf = append(buf, byte(deltasAreWords|(j-i-1)))
		for _, d := range deltas[i:j] {
			buf = appendU16(buf, uint16(d))
		}
		i = j
	}
	return buf
}

func f2dot14(v float64) int16 {
	return int16(math.Round(v * 16384))
}

func appendU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v>>8), byte(v))
}

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
