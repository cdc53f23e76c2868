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

// Package cff2 encodes the CFF2 table with variable (blended)
// charstrings.
package cff2

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/googlefonts/fontra-compile/varmodel"
)

// regionAxis is the tent of one axis of a variation region.
type regionAxis struct {
	start, peak, end float64
}

type region map[int]regionAxis

func (r region) key() string {
	axes := make([]int, 0, len(r))
	for idx := range r {
		axes = append(axes, idx)
	}
	sort.Ints(axes)
	var sb strings.Builder
	for _, idx := range axes {
		a := r[idx]
		fmt.Fprintf(&sb, "%d:%g,%g,%g;", idx, a.start, a.peak, a.end)
	}
	return sb.String()
}

// Builder collects the charstrings of a font.  Glyphs whose variation
// models share the same region tuple share one vsindex.
type Builder struct {
	axisTags    []string
	tagToIndex  map[string]int
	regions     []region
	regionIndex map[string]int
	dataSets    [][]int
	dataIndex   map[string]int
	glyphs      [][]byte
}

// NewBuilder returns a builder over the font-wide axis order.
func NewBuilder(axisTags []string) *Builder {
	tagToIndex := make(map[string]int, len(axisTags))
	for i, tag := range axisTags {
		tagToIndex[tag] = i
	}
	return &Builder{
		axisTags:    axisTags,
		tagToIndex:  tagToIndex,
		regionIndex: make(map[string]int),
		dataIndex:   make(map[string]int),
	}
}

// vsindexFor returns the variation-store data index for the region
// tuple of the model's non-default supports.
func (b *Builder) vsindexFor(m *varmodel.Model) (int, error) {
	indices := make([]int, 0, len(m.Supports)-1)
	for _, support := range m.Supports[1:] {
		idx, err := b.regionFor(support)
		if err != nil {
			return 0, err
		}
		indices = append(indices, idx)
	}
	key := fmt.Sprint(indices)
	vsindex, ok := b.dataIndex[key]
	if !ok {
		vsindex = len(b.dataSets)
		b.dataSets = append(b.dataSets, indices)
		b.dataIndex[key] = vsindex
	}
	return vsindex, nil
}

func (b *Builder) regionFor(support varmodel.Support) (int, error) {
	r := make(region, len(support))
	for tag, ar := range support {
		idx, ok := b.tagToIndex[tag]
		if !ok {
			return 0, fmt.Errorf("cff2: support axis %q not in font axes", tag)
		}
		r[idx] = regionAxis{start: ar.Min, peak: ar.Peak, end: ar.Max}
	}
	key := r.key()
	if idx, ok := b.regionIndex[key]; ok {
		return idx, nil
	}
	idx := len(b.regions)
	b.regions = append(b.regions, r)
	b.regionIndex[key] = idx
	return idx, nil
}

// Encode encodes the complete CFF2 table.  All dict offset operands
// use the fixed 5-byte integer form, so the layout is known up front.
func (b *Builder) Encode() []byte {
	charStrings := encodeIndex(b.glyphs)
	vstore := b.encodeVarStore()

	const headerLen = 5
	const topDictLen = 3*5 + 1 + 1 + 2 // three offsets, ops 17, 24, 12 36
	const globalSubrsLen = 4           // empty index

	charStringsOff := headerLen + topDictLen + globalSubrsLen
	vstoreOff := charStringsOff + len(charStrings)
	fdArrayOff := vstoreOff + len(vstore)

	// font dict: empty private dict placed at the very end of the table
	var fontDict []byte
	fontDict = appendDictInt(fontDict, 0) // private dict size
	fontDict = appendDictInt(fontDict, 0) // private dict offset, set below
	fontDict = append(fontDict, 18)       // Private
	fdArray := encodeIndex([][]byte{fontDict})
	privateOff := int32(fdArrayOff + len(fdArray))
	p := len(fdArray) - len(fontDict) + 5
	fdArray[p] = 29
	fdArray[p+1] = byte(privateOff >> 24)
	fdArray[p+2] = byte(privateOff >> 16)
	fdArray[p+3] = byte(privateOff >> 8)
	fdArray[p+4] = byte(privateOff)

	var topDict []byte
	topDict = appendDictInt(topDict, int32(charStringsOff))
	topDict = append(topDict, 17) // CharStrings
	topDict = appendDictInt(topDict, int32(vstoreOff))
	topDict = append(topDict, 24) // vstore
	topDict = appendDictInt(topDict, int32(fdArrayOff))
	topDict = append(topDict, 12, 36) // FDArray

	buf := make([]byte, 0, int(privateOff))
	buf = append(buf, 2, 0, headerLen) // major, minor, headerSize
	buf = appendU16(buf, topDictLen)
	buf = append(buf, topDict...)
	buf = append(buf, 0, 0, 0, 0) // global subrs
	buf = append(buf, charStrings...)
	buf = append(buf, vstore...)
	buf = append(buf, fdArray...)
	return buf
}

// encodeVarStore encodes the variation store: a uint16 length followed
// by an ItemVariationStore whose subtables carry regions only.
func (b *Builder) encodeVarStore() []byte {
	regionList := b.encodeRegionList()

	datas := make([][]byte, len(b.dataSets))
	for i, indices := range b.dataSets {
		d := appendU16(nil, 0) // itemCount
		d = appendU16(d, 0)    // wordDeltaCount
		d = appendU16(d, uint16(len(indices)))
		for _, idx := range indices {
			d = appendU16(d, uint16(idx))
		}
		datas[i] = d
	}
	if len(datas) == 0 {
		// a store is still required; use one empty subtable
		datas = [][]byte{{0, 0, 0, 0, 0, 0}}
	}

	headerLen := 2 + 4 + 2 + 4*len(datas)
	store := appendU16(nil, 1) // format
	store = appendU32(store, uint32(headerLen))
	store = appendU16(store, uint16(len(datas)))
	off := headerLen + len(regionList)
	for _, d := range datas {
		store = appendU32(store, uint32(off))
		off += len(d)
	}
	store = append(store, regionList...)
	for _, d := range datas {
		store = append(store, d...)
	}

	buf := appendU16(nil, uint16(len(store)))
	return append(buf, store...)
}

func (b *Builder) encodeRegionList() []byte {
	buf := appendU16(nil, uint16(len(b.axisTags)))
	buf = appendU16(buf, uint16(len(b.regions)))
	for _, r := range b.regions {
		for axis := range b.axisTags {
			a := r[axis]
			buf = appendU16(buf, uint16(f2dot14(a.start)))
			buf = appendU16(buf, uint16(f2dot14(a.peak)))
			buf = appendU16(buf, uint16(f2dot14(a.end)))
		}
	}
	return buf
}

// encodeIndex encodes a CFF2 INDEX.
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
	buf = appendU32(buf, uint32(n))
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

// appendDictInt appends a DICT integer in the fixed 5-byte form.
func appendDictInt(buf []byte, v int32) []byte {
	return append(buf, 29, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func f2dot14(v float64) int16 {
	return int16(math.Floor(v*16384 + 0.5))
}

func appendU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v>>8), byte(v))
}

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
