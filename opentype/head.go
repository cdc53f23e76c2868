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
	"time"

	"seehuhn.de/go/postscript/funit"
)

// headInfo describes the "head" table.
// https://docs.microsoft.com/en-us/typography/opentype/spec/head
type headInfo struct {
	FontRevision   uint32 // 16.16 fixed
	UnitsPerEm     uint16
	Created        time.Time
	Modified       time.Time
	FontBBox       funit.Rect16
	LowestRecPPEM  uint16
	HasLongOffsets bool // 'loca' table uses 32 bit offsets
}

type binaryHead struct {
	Version            uint32
	FontRevision       uint32
	CheckSumAdjustment uint32
	MagicNumber        uint32
	Flags              uint16
	UnitsPerEm         uint16
	Created            int64
	Modified           int64
	XMin               int16
	YMin               int16
	XMax               int16
	YMax               int16
	MacStyle           uint16
	LowestRecPPEM      uint16
	FontDirectionHint  int16
	IndexToLocFormat   int16
	GlyphDataFormat    int16
}

// Encode returns the binary representation of the head table.
func (info *headInfo) Encode() []byte {
	var flags uint16
	flags |= 1 << 0 // baseline at y=0
	flags |= 1 << 1 // left sidebearing point at x=0

	enc := &binaryHead{
		Version:       0x00010000,
		FontRevision:  info.FontRevision,
		MagicNumber:   0x5F0F3CF5,
		Flags:         flags,
		UnitsPerEm:    info.UnitsPerEm,
		Created:       encodeTime(info.Created),
		Modified:      encodeTime(info.Modified),
		XMin:          int16(info.FontBBox.LLx),
		YMin:          int16(info.FontBBox.LLy),
		XMax:          int16(info.FontBBox.URx),
		YMax:          int16(info.FontBBox.URy),
		LowestRecPPEM: info.LowestRecPPEM,

		FontDirectionHint: 2,
	}
	if info.HasLongOffsets {
		enc.IndexToLocFormat = 1
	}

	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.BigEndian, enc)
	return buf.Bytes()
}

var ttZeroTime = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)

// encodeTime converts a time.Time to the number of seconds since
// 1904-01-01 00:00 UTC, the epoch of LONGDATETIME values.
func encodeTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return int64(t.Sub(ttZeroTime).Seconds())
}
