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

// Package glyf encodes the "glyf" and "loca" tables.
// https://docs.microsoft.com/en-us/typography/opentype/spec/glyf
// https://docs.microsoft.com/en-us/typography/opentype/spec/loca
package glyf

// Glyphs contains the glyphs of a font in glyph ID order.
type Glyphs []*Glyph

// Encoded holds the encoded "glyf" and "loca" tables.  The value for
// LocaFormat goes into the indexToLocFormat field of the 'head' table.
type Encoded struct {
	GlyfData   []byte
	LocaData   []byte
	LocaFormat int16
}

// Encode encodes the glyphs into a "glyf" and "loca" table.
func (gg Glyphs) Encode() *Encoded {
	offs := make([]int, 1, len(gg)+1)
	var glyfData []byte
	for _, g := range gg {
		glyfData = g.append(glyfData)
		offs = append(offs, len(glyfData))
	}

	locaData, locaFormat := encodeLoca(offs)

	return &Encoded{
		GlyfData:   glyfData,
		LocaData:   locaData,
		LocaFormat: locaFormat,
	}
}

// encodeLoca chooses the short format whenever all offsets fit.
func encodeLoca(offs []int) ([]byte, int16) {
	end := offs[len(offs)-1]
	if end/2 <= 0xFFFF {
		data := make([]byte, 0, 2*len(offs))
		for _, o := range offs {
			v := uint16(o / 2)
			data = append(data, byte(v>>8), byte(v))
		}
		return data, 0
	}
	data := make([]byte, 0, 4*len(offs))
	for _, o := range offs {
		v := uint32(o)
		data = append(data, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	return data, 1
}
