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

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/googlefonts/fontra-compile/varmodel"
)

// regionAxis is one axis constraint of a sparse variation region.
type regionAxis struct {
	axisIndex        int
	start, peak, end float64
}

type region []regionAxis

func (r region) key() string {
	var sb strings.Builder
	for _, a := range r {
		fmt.Fprintf(&sb, "%d:%g,%g,%g;", a.axisIndex, a.start, a.peak, a.end)
	}
	return sb.String()
}

// varData is one MultiVarData subtable: delta-set rows over a fixed
// tuple of regions.
type varData struct {
	regionIndices []int
	rows          [][]int32
	rowIndex      map[string]int
}

// StoreBuilder incrementally builds a multi-item variation store.  It
// is seeded with one variation model at a time (one per composite
// glyph); delta sets stored under the same region tuple share one
// MultiVarData subtable, and identical rows share one entry.
type StoreBuilder struct {
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

// NewStoreBuilder returns a builder over the font-wide axis order.
func NewStoreBuilder(axisTags []string) *StoreBuilder {
	tagToIndex := make(map[string]int, len(axisTags))
	for i, tag := range axisTags {
		tagToIndex[tag] = i
	}
	return &StoreBuilder{
		axisTags:    axisTags,
		tagToIndex:  tagToIndex,
		regionIndex: make(map[string]int),
		dataIndex:   make(map[string]int),
	}
}

// SetModel selects the variation model for subsequent StoreMasters
// calls.  A nil model is allowed for glyphs with a single master; such
// glyphs must not store any delta sets.
func (b *StoreBuilder) SetModel(m *varmodel.Model) error {
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

func (b *StoreBuilder) regionFor(support varmodel.Support) (int, error) {
	r := make(region, 0, len(support))
	for tag, ar := range support {
		idx, ok := b.tagToIndex[tag]
		if !ok {
			return 0, fmt.Errorf("varc: support axis %q not in font axes", tag)
		}
		r = append(r, regionAxis{axisIndex: idx, start: ar.Min, peak: ar.Peak, end: ar.Max})
	}
	sort.Slice(r, func(i, j int) bool { return r[i].axisIndex < r[j].axisIndex })

	key := r.key()
	if idx, ok := b.regionIndex[key]; ok {
		return idx, nil
	}
	idx := len(b.regions)
	b.regions = append(b.regions, r)
	b.regionIndex[key] = idx
	return idx, nil
}

// StoreMasters solves and stores the deltas of one per-master value
// tuple (already quantized to fixed-point integers, in input master
// order).  It returns the default master's values and the variation
// index referencing the stored delta sets.
func (b *StoreBuilder) StoreMasters(masterValues [][]int32) ([]int32, uint32, error) {
	if b.model == nil || b.modelData == nil {
		return nil, 0, fmt.Errorf("varc: no model set")
	}

	floats := make([][]float64, len(masterValues))
	for i, vec := range masterValues {
		f := make([]float64, len(vec))
		for k, v := range vec {
			f[k] = float64(v)
		}
		floats[i] = f
	}
	deltas, err := b.model.Deltas(floats)
	if err != nil {
		return nil, 0, err
	}

	base := roundVec(deltas[0])
	row := make([]int32, 0, (len(deltas)-1)*len(base))
	for _, d := range deltas[1:] {
		row = append(row, roundVec(d)...)
	}

	data := b.modelData
	key := fmt.Sprint(row)
	inner, ok := data.rowIndex[key]
	if !ok {
		inner = len(data.rows)
		data.rows = append(data.rows, row)
		data.rowIndex[key] = inner
	}
	return base, uint32(b.modelOuter)<<16 | uint32(inner), nil
}

func roundVec(v []float64) []int32 {
	res := make([]int32, len(v))
	for i, f := range v {
		res[i] = int32(math.Floor(f + 0.5))
	}
	return res
}

// IsEmpty reports whether nothing was stored.
func (b *StoreBuilder) IsEmpty() bool {
	return len(b.datas) == 0
}

// Encode encodes the MultiVarStore.
func (b *StoreBuilder) Encode() []byte {
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

func (b *StoreBuilder) encodeRegionList() []byte {
	headerLen := 2 + 4*len(b.regions)
	var bodies [][]byte
	for _, r := range b.regions {
		body := appendU16(nil, uint16(len(r)))
		for _, a := range r {
			body = appendU16(body, uint16(a.axisIndex))
			body = appendU16(body, uint16(f2dot14(a.start)))
			body = appendU16(body, uint16(f2dot14(a.peak)))
			body = appendU16(body, uint16(f2dot14(a.end)))
		}
		bodies = append(bodies, body)
	}

	buf := appendU16(nil, uint16(len(b.regions)))
	off := headerLen
	for _, body := range bodies {
		buf = appendU32(buf, uint32(off))
		off += len(body)
	}
	for _, body := range bodies {
		buf = append(buf, body...)
	}
	return buf
}

func (d *varData) encode() []byte {
	buf := []byte{1} // format
	buf = appendU16(buf, uint16(len(d.regionIndices)))
	for _, idx := range d.regionIndices {
		buf = appendU16(buf, uint16(idx))
	}
	rows := make([][]byte, len(d.rows))
	for i, row := range d.rows {
		rows[i] = packTupleValues(row)
	}
	return append(buf, encodeIndex(rows)...)
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
