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

	"seehuhn.de/go/sfnt/cmap"
)

// os2Info describes the "OS/2" table.
// https://docs.microsoft.com/en-us/typography/opentype/spec/os2
type os2Info struct {
	WeightClass   uint16
	WidthClass    uint16
	Ascent        int16
	Descent       int16 // negative
	LineGap       int16
	AvgGlyphWidth int16
	CapHeight     int16
	XHeight       int16
}

type v4Data struct {
	Version             uint16
	AvgCharWidth        int16
	WeightClass         uint16
	WidthClass          uint16
	Type                uint16
	SubscriptXSize      int16
	SubscriptYSize      int16
	SubscriptXOffset    int16
	SubscriptYOffset    int16
	SuperscriptXSize    int16
	SuperscriptYSize    int16
	SuperscriptXOffset  int16
	SuperscriptYOffset  int16
	StrikeoutSize       int16
	StrikeoutPosition   int16
	FamilyClass         int16
	Panose              [10]byte
	UnicodeRange        [4]uint32
	VendID              [4]byte
	Selection           uint16
	FirstCharIndex      uint16
	LastCharIndex       uint16
	TypoAscender        int16
	TypoDescender       int16
	TypoLineGap         int16
	WinAscent           uint16
	WinDescent          uint16
	CodePageRange       [2]uint32
	XHeight             int16
	CapHeight           int16
	DefaultChar         uint16
	BreakChar           uint16
	MaxContext          uint16
}

// Encode returns the binary representation of the OS/2 table.  The
// cmap is used to determine the first and last character indices.
func (info *os2Info) Encode(cc cmap.Format4) []byte {
	firstChar := uint16(0xFFFF)
	lastChar := uint16(0)
	for code := range cc {
		if code < firstChar {
			firstChar = code
		}
		if code > lastChar {
			lastChar = code
		}
	}
	if firstChar > lastChar {
		firstChar, lastChar = 0, 0
	}

	winAscent := info.Ascent
	if winAscent < 0 {
		winAscent = 0
	}
	winDescent := -info.Descent
	if winDescent < 0 {
		winDescent = 0
	}

	enc := &v4Data{
		Version:      4,
		AvgCharWidth: info.AvgGlyphWidth,
		WeightClass:  info.WeightClass,
		WidthClass:   info.WidthClass,
		VendID:       [4]byte{'N', 'O', 'N', 'E'},

		Selection:      1 << 6, // REGULAR
		FirstCharIndex: firstChar,
		LastCharIndex:  lastChar,
		TypoAscender:   info.Ascent,
		TypoDescender:  info.Descent,
		TypoLineGap:    info.LineGap,
		WinAscent:      uint16(winAscent),
		WinDescent:     uint16(winDescent),
		XHeight:        info.XHeight,
		CapHeight:      info.CapHeight,
		BreakChar:      0x20,
	}

	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.BigEndian, enc)
	return buf.Bytes()
}
