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
	"sort"
	"unicode/utf16"
)

// Standard name IDs.
const (
	nameIDFamily     = 1
	nameIDSubfamily  = 2
	nameIDIdentifier = 3
	nameIDFullName   = 4
	nameIDVersion    = 5
	nameIDPostScript = 6
)

// nameBuilder collects the strings of the "name" table.  Custom strings
// (axis names) get IDs from the font-specific range starting at 256.
type nameBuilder struct {
	names  map[uint16]string
	nextID uint16
}

func newNameBuilder() *nameBuilder {
	return &nameBuilder{
		names:  make(map[uint16]string),
		nextID: 256,
	}
}

// Set assigns the string for a standard name ID.  Empty strings are
// omitted from the table.
func (nb *nameBuilder) Set(id uint16, s string) {
	if s == "" {
		return
	}
	nb.names[id] = s
}

// Add assigns a font-specific name ID to the given string.
func (nb *nameBuilder) Add(s string) uint16 {
	id := nb.nextID
	nb.nextID++
	nb.names[id] = s
	return id
}

// Encode returns the binary representation of the name table (format 0,
// Windows platform, American English).
func (nb *nameBuilder) Encode() []byte {
	ids := make([]int, 0, len(nb.names))
	for id := range nb.names {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	var storage []byte
	type rec struct {
		nameID, length, offset uint16
	}
	recs := make([]rec, len(ids))
	for i, id := range ids {
		data := utf16Encode(nb.names[uint16(id)])
		recs[i] = rec{
			nameID: uint16(id),
			length: uint16(len(data)),
			offset: uint16(len(storage)),
		}
		storage = append(storage, data...)
	}

	stringOffset := 6 + 12*len(recs)
	buf := make([]byte, 0, stringOffset+len(storage))
	buf = appendU16(buf, 0) // format
	buf = appendU16(buf, uint16(len(recs)))
	buf = appendU16(buf, uint16(stringOffset))
	for _, r := range recs {
		buf = appendU16(buf, 3)      // platform ID: Windows
		buf = appendU16(buf, 1)      // encoding ID: Unicode BMP
		buf = appendU16(buf, 0x0409) // language ID: en-US
		buf = appendU16(buf, r.nameID)
		buf = appendU16(buf, r.length)
		buf = appendU16(buf, r.offset)
	}
	return append(buf, storage...)
}

func utf16Encode(s string) []byte {
	var buf []byte
	for _, u := range utf16.Encode([]rune(s)) {
		buf = append(buf, byte(u>>8), byte(u))
	}
	return buf
}

func appendU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v>>8), byte(v))
}

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
