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

package hvar

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/googlefonts/fontra-compile/fontra"
	"github.com/googlefonts/fontra-compile/varmodel"
)

func TestStoreDeltas(t *testing.T) {
	b := NewBuilder([]string{"wght"})

	model, err := varmodel.New([]fontra.Location{
		{},
		{"wght": 1},
	}, []string{"wght"})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetModel(model); err != nil {
		t.Fatal(err)
	}

	idx, err := b.StoreMasters([]float64{500, 520})
	if err != nil {
		t.Fatal(err)
	}
	if idx != 0 {
		t.Errorf("got varIdx %#x, want 0", idx)
	}
	if d := cmp.Diff([]int32{20}, b.datas[0].rows[0]); d != "" {
		t.Errorf("deltas: %s", d)
	}

	// same deltas share one row
	idx2, err := b.StoreMasters([]float64{600, 620})
	if err != nil {
		t.Fatal(err)
	}
	if idx2 != idx {
		t.Errorf("got varIdx %#x, want %#x", idx2, idx)
	}

	if b.IsEmpty() {
		t.Error("store reported empty")
	}
}

func TestVarDataWideColumns(t *testing.T) {
	d := &varData{
		regionIndices: []int{0, 1},
		rows:          [][]int32{{5, 1000}},
	}
	got := d.encode()
	want := []byte{
		0, 1, // itemCount
		0, 1, // wordDeltaCount
		0, 2, // regionIndexCount
		0, 1, 0, 0, // wide column first
		0x03, 0xE8, // 1000 as word
		5, // 5 as byte
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("varData: %s", diff)
	}
}

func TestIndexMap(t *testing.T) {
	got := encodeIndexMap([]uint32{0, 1, 0x00010002, 0x00010002})
	want := []byte{
		0,    // format
		0x01, // one-byte entries, two inner bits
		0, 3, // mapCount, trailing duplicate dropped
		0,
		1,
		6, // outer 1 << 2 | inner 2
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("index map: %s", diff)
	}
}

func TestTableEncode(t *testing.T) {
	b := NewBuilder([]string{"wght"})
	model, err := varmodel.New([]fontra.Location{
		{},
		{"wght": 1},
	}, []string{"wght"})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetModel(model); err != nil {
		t.Fatal(err)
	}
	idx, err := b.StoreMasters([]float64{100, 150})
	if err != nil {
		t.Fatal(err)
	}

	table := &Table{Store: b, Mappings: []uint32{idx, idx}}
	got := table.Encode()

	if len(got) < 20 {
		t.Fatalf("table too short: %d bytes", len(got))
	}
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("bad version bytes % x", got[:4])
	}
	storeOff := uint32(got[4])<<24 | uint32(got[5])<<16 | uint32(got[6])<<8 | uint32(got[7])
	if storeOff != 20 {
		t.Errorf("got store offset %d, want 20", storeOff)
	}
	mapOff := uint32(got[8])<<24 | uint32(got[9])<<16 | uint32(got[10])<<8 | uint32(got[11])
	if int(mapOff) >= len(got) {
		t.Errorf("index map offset %d out of range", mapOff)
	}
}

func TestStoreZero(t *testing.T) {
	b := NewBuilder([]string{"wght"})

	idx := b.StoreZero()
	if idx != 0 {
		t.Errorf("got varIdx %#x, want 0", idx)
	}
	if idx2 := b.StoreZero(); idx2 != idx {
		t.Errorf("got varIdx %#x, want %#x", idx2, idx)
	}
	if !b.IsEmpty() {
		t.Error("zero-only store reported non-empty")
	}

	// zero entries coexist with real delta sets
	model, err := varmodel.New([]fontra.Location{
		{},
		{"wght": 1},
	}, []string{"wght"})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetModel(model); err != nil {
		t.Fatal(err)
	}
	real, err := b.StoreMasters([]float64{500, 520})
	if err != nil {
		t.Fatal(err)
	}
	if real == idx {
		t.Error("zero and non-zero sets share a variation index")
	}
	if b.IsEmpty() {
		t.Error("store reported empty")
	}
}
