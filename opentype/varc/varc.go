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

// Package varc encodes the VARC (variable composite) table together
// with its MultiItemVariationStore.
package varc

import (
	"fmt"
	"sort"

	"seehuhn.de/go/sfnt/glyph"
)

// Component is one variable component record of a composite glyph.
// Axis and transform values are already quantized to their fixed-point
// representations.
type Component struct {
	Flags   ComponentFlags
	GlyphID glyph.ID

	// AxisIndices and AxisValues are parallel; present when HAVE_AXES
	// is set.  AxisValues holds F2DOT14 fixed-point numbers.
	AxisIndices []uint16
	AxisValues  []int32

	// AxisValuesVarIndex references the delta sets for the axis
	// values; valid when AXIS_VALUES_HAVE_VARIATION is set.
	AxisValuesVarIndex uint32

	// TransformVarIndex references the delta sets for the transform
	// values; valid when TRANSFORM_HAS_VARIATION is set.
	TransformVarIndex uint32

	// TransformValues holds the quantized values of the transform
	// fields whose flags are set, in flag bit order.
	TransformValues []int32
}

// Glyph is the variable composite description of a single glyph.
type Glyph struct {
	GlyphID    glyph.ID
	Components []Component
}

// Table is the VARC table of a font.
type Table struct {
	Glyphs []Glyph
	Store  *StoreBuilder
}

// Encode encodes the table in the binary file format.
func (t *Table) Encode() ([]byte, error) {
	glyphs := make([]Glyph, len(t.Glyphs))
	copy(glyphs, t.Glyphs)
	sort.Slice(glyphs, func(i, j int) bool {
		return glyphs[i].GlyphID < glyphs[j].GlyphID
	})
	for i := 1; i < len(glyphs); i++ {
		if glyphs[i].GlyphID == glyphs[i-1].GlyphID {
			return nil, fmt.Errorf("varc: duplicate glyph %d", glyphs[i].GlyphID)
		}
	}

	axisIndicesList := &axisIndicesList{index: make(map[string]int)}
	glyphRecords := make([][]byte, len(glyphs))
	for i, g := range glyphs {
		var rec []byte
		for _, comp := range g.Components {
			var err error
			rec, err = appendComponent(rec, comp, axisIndicesList)
			if err != nil {
				return nil, fmt.Errorf("glyph %d: %w", g.GlyphID, err)
			}
		}
		glyphRecords[i] = rec
	}

	coverage := encodeCoverage(glyphs)
	axisIndices := axisIndicesList.encode()
	varCompositeGlyphs := encodeIndex(glyphRecords)
	var store []byte
	if t.Store != nil && !t.Store.IsEmpty() {
		store = t.Store.Encode()
	}

	// header: version, then offsets to coverage, multiVarStore,
	// conditionList, axisIndicesList, varCompositeGlyphs
	const headerLen = 4 + 5*4
	buf := make([]byte, 0, headerLen+len(coverage)+len(store)+len(axisIndices)+len(varCompositeGlyphs))
	buf = appendU16(buf, 1) // majorVersion
	buf = appendU16(buf, 0) // minorVersion

	off := headerLen
	buf = appendU32(buf, uint32(off))
	off += len(coverage)
	if store != nil {
		buf = appendU32(buf, uint32(off))
		off += len(store)
	} else {
		buf = appendU32(buf, 0)
	}
	buf = appendU32(buf, 0) // no condition list
	buf = appendU32(buf, uint32(off))
	off += len(axisIndices)
	buf = appendU32(buf, uint32(off))

	buf = append(buf, coverage...)
	buf = append(buf, store...)
	buf = append(buf, axisIndices...)
	buf = append(buf, varCompositeGlyphs...)
	return buf, nil
}

// appendComponent serializes one VarComponent record.
func appendComponent(buf []byte, comp Component, list *axisIndicesList) ([]byte, error) {
	flags := comp.Flags
	if len(comp.AxisIndices) != len(comp.AxisValues) {
		return nil, fmt.Errorf("axis indices/values mismatch")
	}
	if len(comp.AxisIndices) > 0 {
		flags |= HaveAxes
	} else {
		flags &^= HaveAxes
	}

	buf = appendUint32Var(buf, uint32(flags))

	if flags&GidIs24Bit != 0 {
		gid := uint32(comp.GlyphID)
		buf = append(buf, byte(gid>>16), byte(gid>>8), byte(gid))
	} else {
		buf = appendU16(buf, uint16(comp.GlyphID))
	}

	if flags&HaveAxes != 0 {
		idx := list.indexOf(comp.AxisIndices)
		buf = appendUint32Var(buf, uint32(idx))
		buf = append(buf, packTupleValues(comp.AxisValues)...)
	}
	if flags&AxisValuesHaveVariation != 0 {
		buf = appendUint32Var(buf, comp.AxisValuesVarIndex)
	}
	if flags&TransformHasVariation != 0 {
		buf = appendUint32Var(buf, comp.TransformVarIndex)
	}

	numTransform := 0
	for _, field := range TransformFields {
		if flags&field.Flag != 0 {
			numTransform++
		}
	}
	if numTransform != len(comp.TransformValues) {
		return nil, fmt.Errorf("transform flags/values mismatch")
	}
	for _, v := range comp.TransformValues {
		buf = appendU16(buf, uint16(int16(v)))
	}
	return buf, nil
}

// axisIndicesList deduplicates the axis index tuples shared between
// components.
type axisIndicesList struct {
	items [][]byte
	index map[string]int
}

func (l *axisIndicesList) indexOf(indices []uint16) int {
	values := make([]int32, len(indices))
	for i, idx := range indices {
		values[i] = int32(idx)
	}
	packed := packTupleValues(values)
	key := string(packed)
	if idx, ok := l.index[key]; ok {
		return idx
	}
	idx := len(l.items)
	l.items = append(l.items, packed)
	l.index[key] = idx
	return idx
}

func (l *axisIndicesList) encode() []byte {
	return encodeIndex(l.items)
}

// encodeCoverage writes a format 1 coverage table listing the glyphs,
// which are already sorted by glyph ID.
func encodeCoverage(glyphs []Glyph) []byte {
	buf := appendU16(nil, 1)
	buf = appendU16(buf, uint16(len(glyphs)))
	for _, g := range glyphs {
		buf = appendU16(buf, uint16(g.GlyphID))
	}
	return buf
}
