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

// Package hvar encodes the HVAR (horizontal metrics variations) table.
package hvar

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

type varData struct {
	regionIndices []int
	rows          [][]int32
	rowIndex      map[string]int
}

// Builder incrementally builds an item variation store of scalar
// (advance width) deltas.  Delta sets from models with the same region
// tuple share one subtable; identical rows share one entry.
type Builder struct {
	axisTags    []string
	tagToIndex  map[string]int
	regions     []region
	regionIndex map[string]int
	datas       []*varData
	dataIndex   map[string]int

	model      *varmodel.Model
	modelData  *varData
	modelOuter int
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

// SetModel selects the variation model for subsequent StoreMasters
// calls.
func (b *Builder) SetModel(m *varmodel.Model) error {
	b.model = m
	b.modelData = nil
	if m == nil {
		return nil
	}

	indices := make([]int, 0, len(m.Supports)-1)
	for _, support := range m.Supports[1:] {
		idx, err := b.regionFor(support)
		if err != nil {
			return err
		}
		indices = append(indices, idx)
	}

	key := fmt.Sprint(indices)
	outer, ok := b.dataIndex[key]
	if !ok {
		outer = len(b.datas)
		b.datas = append(b.datas, &varData{
			regionIndices: indices,
			rowIndex:      make(map[string]int),
		})
		b.dataIndex[key] = outer
	}
	b.modelData = b.datas[outer]
	b.modelOuter = outer
	return nil
}

func (b *Builder) regionFor(support varmodel.Support) (int, error) {
	r := make(region, len(support))
	for tag, ar := range support {
		idx, ok := b.tagToIndex[tag]
		if !ok {
			return 0, fmt.Errorf("hvar: support axis %q not in font axes", tag)
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

// StoreMasters solves the deltas of one per-master advance width and
// stores them, returning the variation index of the delta set.
func (b *Builder) StoreMasters(masterValues []float64) (uint32, error) {
	if b.model == nil || b.modelData == nil {
		return 0, fmt.Errorf("hvar: no model set")
	}
	vecs := make([][]float64, len(masterValues))
	for i, v := range masterValues {
		vecs[i] = []float64{v}
	}
	deltas, err := b.model.Deltas(vecs)
	if err != nil {
		return 0, err
	}

	row := make([]int32, len(deltas)-1)
	for i, d := range deltas[1:] {
		row[i] = int32(math.Floor(d[0] + 0.5))
	}

	data := b.modelData
	key := fmt.Sprint(row)
	inner, ok := data.rowIndex[key]
	if !ok {
		inner = len(data.rows)
		data.rows = append(data.rows, row)
		data.rowIndex[key] = inner
	}
	return uint32(b.modelOuter)<<16 | uint32(inner), nil
}

// StoreZero stores an empty delta set, for glyphs whose advance width
// does not vary, and returns its variation index.
func (b *Builder) StoreZero() uint32 {
	outer, ok := b.dataIndex["[]"]
	if !ok {
		outer = len(b.datas)
		b.datas = append(b.datas, &varData{rowIndex: make(map[string]int)})
		b.dataIndex["[]"] = outer
	}
	data := b.datas[outer]
	inner, ok := data.rowIndex["[]"]
	if !ok {
		inner = len(data.rows)
		data.rows = append(data.rows, nil)
		data.rowIndex["[]"] = inner
	}
	return uint32(outer)<<16 | uint32(inner)
}

// IsEmpty reports whether no nonzero delta was stored.
func (b *Builder) IsEmpty() bool {
	for _, d := range b.datas {
		for _, row := range d.rows {
			for _, v := range row {
				if v != 0 {
					return false
				}
			}
		}
	}
	return true
}

// Table is the HVAR table of a font.
type Table struct {
	Store *Builder

	// Mappings holds one variation index per glyph, in glyph ID order.
	Mappings []uint32
}

// Encode encodes the table in the binary file format.
func (t *Table) Encode() []byte {
	store := t.Store.encodeStore()
	indexMap := encodeIndexMap(t.Mappings)

	const headerLen = 4 + 4*4
	buf := make([]byte, 0, headerLen+len(store)+len(indexMap))
	buf = appendU16(buf, 1) // majorVersion
	buf = appendU16(buf, 0) // minorVersion
	buf = appendU32(buf, uint32(headerLen))
	buf = appendU32(buf, uint32(headerLen+len(store)))
	buf = appendU32(buf, 0) // no LSB mapping
	buf = appendU32(buf, 0) // no RSB mapping
	buf = append(buf, store...)
	buf = append(buf, indexMap...)
	return buf
}

// encodeStore encodes the ItemVariationStore (format 1).
func (b *Builder) encodeStore() []byte {
	regionList := b.encodeRegionList()

	datas := make([][]byte, len(b.datas))
	for i, d := range b.datas {
		datas[i] = d.encode()
	}

	headerLen := 2 + 4 + 2 + 4*len(datas)
	buf := make([]byte, 0, headerLen+len(regionList))
	buf = appendU16(buf, 1) // format
	buf = appendU32(buf, uint32(headerLen))
	buf = appendU16(buf, uint16(len(datas)))
	off := headerLen + len(regionList)
	for _, d := range datas {
		buf = appendU32(buf, uint32(off))
		off += len(d)
	}
	buf = append(buf, regionList...)
	for _, d := range datas {
		buf = append(buf, d...)
	}
	return buf
}

// encodeRegionList encodes the VariationRegionList; regions are dense
// over the font's axes, axes absent from a support get a null tent.
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

// encode encodes one ItemVariationData subtable.  Columns whose deltas
// exceed the byte range are moved to the front and stored as words.
func (d *varData) encode() []byte {
	numCols := len(d.regionIndices)
	wide := make([]bool, numCols)
	for _, row := range d.rows {
		for i, v := range row {
			if v < -128 || v > 127 {
				wide[i] = true
			}
		}
	}

	order := make([]int, 0, numCols)
	for i := 0; i < numCols; i++ {
		if wide[i] {
			order = append(order, i)
		}
	}
	wordCount := len(order)
	for i := 0; i < numCols; i++ {
		if !wide[i] {
			order = append(order, i)
		}
	}

	buf := appendU16(nil, uint16(len(d.rows)))
	buf = appendU16(buf, uint16(wordCount))
	buf = appendU16(buf, uint16(numCols))
	for _, col := range order {
		buf = appendU16(buf, uint16(d.regionIndices[col]))
	}
	for _, row := range d.rows {
		for k, col := range order {
			v := row[col]
			if k < wordCount {
				buf = appendU16(buf, uint16(int16(v)))
			} else {
				buf = append(buf, byte(int8(v)))
			}
		}
	}
	return buf
}

// encodeIndexMap encodes a format 0 DeltaSetIndexMap.  Trailing
// entries equal to the last distinct one are truncated.
func encodeIndexMap(mappings []uint32) []byte {
	n := len(mappings)
	for n > 1 && mappings[n-1] == mappings[n-2] {
		n--
	}
	mappings = mappings[:n]

	var maxInner, maxOuter uint32
	for _, m := range mappings {
		if inner := m & 0xFFFF; inner > maxInner {
			maxInner = inner
		}
		if outer := m >> 16; outer > maxOuter {
			maxOuter = outer
		}
	}
	innerBits := 1
	for maxInner>>uint(innerBits) != 0 {
		innerBits++
	}
	maxEntry := maxOuter<<uint(innerBits) | maxInner
	entrySize := 1
	for maxEntry>>uint(8*entrySize) != 0 {
		entrySize++
	}

	buf := []byte{0} // format
	buf = append(buf, byte((entrySize-1)<<4|(innerBits-1)))
	buf = appendU16(buf, uint16(len(mappings)))
	for _, m := range mappings {
		entry := m>>16<<uint(innerBits) | m&0xFFFF
		for shift := (entrySize - 1) * 8; shift >= 0; shift -= 8 {
			buf = append(buf, byte(entry>>uint(shift)))
		}
	}
	return buf
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
