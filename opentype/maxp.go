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

// maxpInfo describes the "maxp" table.  TTF is nil for CFF2-flavoured
// fonts, which use the short version 0.5 table.
type maxpInfo struct {
	NumGlyphs int
	TTF       *maxpTTF
}

type maxpTTF struct {
	MaxPoints             uint16
	MaxContours           uint16
	MaxCompositePoints    uint16
	MaxCompositeContours  uint16
	MaxZones              uint16
	MaxTwilightPoints     uint16
	MaxStorage            uint16
	MaxFunctionDefs       uint16
	MaxInstructionDefs    uint16
	MaxStackElements      uint16
	MaxSizeOfInstructions uint16
	MaxComponentElements  uint16
	MaxComponentDepth     uint16
}

// Encode returns the binary representation of the maxp table.
func (info *maxpInfo) Encode() []byte {
	buf := &bytes.Buffer{}
	if info.TTF == nil {
		_ = binary.Write(buf, binary.BigEndian, uint32(0x00005000))
		_ = binary.Write(buf, binary.BigEndian, uint16(info.NumGlyphs))
	} else {
		_ = binary.Write(buf, binary.BigEndian, uint32(0x00010000))
		_ = binary.Write(buf, binary.BigEndian, uint16(info.NumGlyphs))
		ttf := *info.TTF
		if ttf.MaxZones == 0 {
			ttf.MaxZones = 1
		}
		_ = binary.Write(buf, binary.BigEndian, ttf)
	}
	return buf.Bytes()
}
