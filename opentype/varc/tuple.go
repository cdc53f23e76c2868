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

package varc

// Run-length packing for integer tuples ("TupleValues").  This is the
// gvar delta packing extended with a 32-bit run type: the top two bits
// of the control byte select zeros (0x80), bytes (0x00), words (0x40)
// or longs (0xC0); the low six bits hold the run length minus one.

const (
	tupleBytes = 0x00
	tupleWords = 0x40
	tupleZeros = 0x80
	tupleLongs = 0xC0

	tupleRunMax = 0x40
)

func runType(v int32) byte {
	switch {
	case v == 0:
		return tupleZeros
	case v >= -128 && v <= 127:
		return tupleBytes
	case v >= -32768 && v <= 32767:
		return tupleWords
	default:
		return tupleLongs
	}
}

// packTupleValues encodes the values as runs.
func packTupleValues(values []int32) []byte {
	var buf []byte
	n := len(values)
	for i := 0; i < n; {
		t := runType(values[i])
		j := i + 1
		for j < n && j-i < tupleRunMax && runType(values[j]) == t {
			j++
		}
		buf = append(buf, t|byte(j-i-1))
		switch t {
		case tupleZeros:
			// nothing follows
		case tupleBytes:
			for _, v := range values[i:j] {
				buf = append(buf, byte(int8(v)))
			}
		case tupleWords:
			for _, v := range values[i:j] {
				buf = append(buf, byte(v>>8), byte(v))
			}
		case tupleLongs:
			for _, v := range values[i:j] {
				buf = append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
			}
		}
		i = j
	}
	return buf
}

// appendUint32Var encodes v in the variable-length uint32 form used by
// VarComponent records: seven value bits per byte, high bit set on all
// but the final byte, most significant group first.
func appendUint32Var(buf []byte, v uint32) []byte {
	var tmp [5]byte
	i := len(tmp)
	i--
	tmp[i] = byte(v & 0x7F)
	v >>= 7
	for v != 0 {
		i--
		tmp[i] = byte(v&0x7F) | 0x80
		v >>= 7
	}
	return append(buf, tmp[i:]...)
}

// encodeIndex encodes a CFF2-style INDEX: a 32-bit item count, an
// offset size, one-based offsets, then the item data.
func encodeIndex(items [][]byte) []byte {
	if len(items) == 0 {
		return []byte{0, 0, 0, 0}
	}

	total := 0
	for _, item := range items {
		total += len(item)
	}

	offSize := 1
	switch {
	case total+1 > 0xFFFFFF:
		offSize = 4
	case total+1 > 0xFFFF:
		offSize = 3
	case total+1 > 0xFF:
		offSize = 2
	}

	n := len(items)
	buf := make([]byte, 0, 5+offSize*(n+1)+total)
	buf = append(buf, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	buf = append(buf, byte(offSize))

	writeOff := func(v int) {
		for shift := (offSize - 1) * 8; shift >= 0; shift -= 8 {
			buf = append(buf, byte(v>>shift))
		}
	}
	pos := 1
	writeOff(pos)
	for _, item := range items {
		pos += len(item)
		writeOff(pos)
	}
	for _, item := range items {
		buf = append(buf, item...)
	}
	return buf
}
