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

package opentype

import (
	"bytes"
	"encoding/binary"
)

// hmtxInfo describes the "hhea" and "hmtx" tables.
type hmtxInfo struct {
	Widths  []uint16
	LSBs    []int16
	Ascent  int16
	Descent int16 // negative
	LineGap int16
}

type binaryHhea struct {
	Version             uint32
	Ascent              int16
	Descent             int16
	LineGap             int16
	AdvanceWidthMax     uint16
	MinLeftSideBearing  int16
	MinRightSideBearing int16
	XMaxExtent          int16
	CaretSlopeRise      int16
	CaretSlopeRun       int16
	CaretOffset         int16
	Reserved            [4]int16
	MetricDataFormat    int16
	NumOfLongHorMetrics uint16
}

// Encode creates the "hhea" and "hmtx" tables.  Trailing glyphs with
// equal advance widths share one long metric.
func (info *hmtxInfo) Encode() (hheaData []byte, hmtxData []byte) {
	numGlyphs := len(info.Widths)
	lsbs := info.LSBs
	if lsbs == nil {
		lsbs = make([]int16, numGlyphs)
	}

	numLong := numGlyphs
	for numLong > 1 && info.Widths[numLong-1] == info.Widths[numLong-2] {
		numLong--
	}

	hhea := &binaryHhea{
		Version: 0x00010000,
		Ascent:  info.Ascent,
		Descent: info.Descent,
		LineGap: info.LineGap,

		CaretSlopeRise: 1,

		NumOfLongHorMetrics: uint16(numLong),
	}
	for _, w := range info.Widths {
		if w > hhea.AdvanceWidthMax {
			hhea.AdvanceWidthMax = w
		}
	}
	for i, lsb := range lsbs {
		if i == 0 || lsb < hhea.MinLeftSideBearing {
			hhea.MinLeftSideBearing = lsb
		}
	}

	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.BigEndian, hhea)
	hheaData = buf.Bytes()

	hmtx := make([]byte, 0, 4*numLong+2*(numGlyphs-numLong))
	for i := 0; i < numGlyphs; i++ {
		if i < numLong {
			hmtx = append(hmtx, byte(info.Widths[i]>>8), byte(info.Widths[i]))
		}
		hmtx = append(hmtx, byte(lsbs[i]>>8), byte(lsbs[i]))
	}
	return hheaData, hmtx
}
