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

package gvar

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/googlefonts/fontra-compile/varmodel"
)

func TestPackDeltas(t *testing.T) {
	cases := []struct {
		deltas []int16
		want   []byte
	}{
		{[]int16{0, 0, 0}, []byte{0x82}},
		{[]int16{1, 2, 3}, []byte{0x02, 0x01, 0x02, 0x03}},
		{[]int16{-1}, []byte{0x00, 0xFF}},
		{[]int16{300, -300}, []byte{0x41, 0x01, 0x2C, 0xFE, 0xD4}},
		{[]int16{0, 5, 300}, []byte{0x80, 0x00, 0x05, 0x40, 0x01, 0x2C}},
	}
	for _, c := range cases {
		if d := cmp.Diff(c.want, packDeltas(c.deltas)); d != "" {
			t.Errorf("packDeltas(%v) mismatch (-want +got):\n%s", c.deltas, d)
		}
	}
}

func TestEncodeGlyph(t *testing.T) {
	table := &Table{AxisTags: []string{"wght"}}
	vars := []Variation{{
		Support: varmodel.Support{"wght": {Min: 0, Peak: 1, Max: 1}},
		DeltasX: []int16{20, 0, 0, 0},
		DeltasY: []int16{0, 0, 0, 0},
	}}

	want := []byte{
		0x00, 0x01, // tupleVariationCount
		0x00, 0x0A, // dataOffset
		0x00, 0x05, // variationDataSize
		0xA0, 0x00, // EMBEDDED_PEAK_TUPLE | PRIVATE_POINT_NUMBERS
		0x40, 0x00, // peak 1.0
		0x00,       // all points
		0x00, 0x14, // x deltas
		0x82,       // three zero x deltas
		0x83,       // four zero y deltas
		0x00,       // padding
	}
	if d := cmp.Diff(want, table.encodeGlyph(vars)); d != "" {
		t.Errorf("encoding mismatch (-want +got):\n%s", d)
	}
}

func TestIntermediateRegion(t *testing.T) {
	table := &Table{AxisTags: []string{"wght"}}
	vars := []Variation{{
		Support: varmodel.Support{"wght": {Min: 0.5, Peak: 1, Max: 1}},
		DeltasX: []int16{10},
		DeltasY: []int16{0},
	}}

	got := table.encodeGlyph(vars)
	want := []byte{
		0x00, 0x01,
		0x00, 0x0E,
		0x00, 0x04,
		0xE0, 0x00, // ... | INTERMEDIATE_REGION
		0x40, 0x00, // peak 1.0
		0x20, 0x00, // start 0.5
		0x40, 0x00, // end 1.0
		0x00,       // all points
		0x00, 0x0A, // x deltas
		0x80,       // one zero y delta
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("encoding mismatch (-want +got):\n%s", d)
	}
}

func TestEncode(t *testing.T) {
	table := &Table{
		AxisTags: []string{"wght"},
		Variations: [][]Variation{
			nil, // static glyph
			{{
				Support: varmodel.Support{"wght": {Min: 0, Peak: 1, Max: 1}},
				DeltasX: []int16{20, 0, 0, 0},
				DeltasY: []int16{0, 0, 0, 0},
			}},
		},
	}

	got := table.Encode()
	wantHeader := []byte{
		0x00, 0x01, 0x00, 0x00, // version
		0x00, 0x01, // axisCount
		0x00, 0x00, // sharedTupleCount
		0x00, 0x00, 0x00, 0x1A, // sharedTuplesOffset
		0x00, 0x02, // glyphCount
		0x00, 0x00, // flags: short offsets
		0x00, 0x00, 0x00, 0x1A, // glyphVariationDataArrayOffset
		0x00, 0x00, // offset[0]
		0x00, 0x00, // offset[1]
		0x00, 0x08, // offset[2]
	}
	if len(got) != len(wantHeader)+16 {
		t.Fatalf("got %d bytes, want %d", len(got), len(wantHeader)+16)
	}
	if d := cmp.Diff(wantHeader, got[:len(wantHeader)]); d != "" {
		t.Errorf("header mismatch (-want +got):\n%s", d)
	}
}
