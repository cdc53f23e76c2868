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
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/sfnt/cmap"

	"github.com/googlefonts/fontra-compile/fontra"
	"github.com/googlefonts/fontra-compile/opentype/glyf"
)

func testFont() *Font {
	stamp := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &Font{
		FamilyName:       "Test",
		UnitsPerEm:       1000,
		CreationTime:     stamp,
		ModificationTime: stamp,
		Axes: []Axis{
			{Tag: "wght", Name: "Weight", Min: 400, Default: 400, Max: 700},
		},
		CMap:    cmap.Format4{'A': 1},
		Ascent:  750,
		Descent: -250,
		Widths:  []uint16{500, 500},
		LSBs:    []int16{50, 0},
		Glyphs: glyf.Glyphs{
			{Contours: []glyf.Contour{{
				{X: 50, Y: 0, OnCurve: true},
				{X: 450, Y: 0, OnCurve: true},
				{X: 450, Y: 700, OnCurve: true},
				{X: 50, Y: 700, OnCurve: true},
			}}},
			{},
		},
	}
}

// parseDirectory returns the table records of an sfnt file, keyed by
// tag.
func parseDirectory(t *testing.T, data []byte) map[string]record {
	t.Helper()
	if len(data) < 12 {
		t.Fatal("file too short")
	}
	numTables := int(binary.BigEndian.Uint16(data[4:6]))
	res := make(map[string]record, numTables)
	for i := 0; i < numTables; i++ {
		var rec record
		base := 12 + 16*i
		copy(rec.Tag[:], data[base:base+4])
		rec.CheckSum = binary.BigEndian.Uint32(data[base+4 : base+8])
		rec.Offset = binary.BigEndian.Uint32(data[base+8 : base+12])
		rec.Length = binary.BigEndian.Uint32(data[base+12 : base+16])
		res[string(rec.Tag[:])] = rec
	}
	return res
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	n, err := testFont().Write(&buf)
	if err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	if int64(len(data)) != n {
		t.Errorf("Write returned %d, wrote %d bytes", n, len(data))
	}

	if got := binary.BigEndian.Uint32(data[:4]); got != ScalerTypeTrueType {
		t.Errorf("got scaler type %#x", got)
	}

	records := parseDirectory(t, data)
	want := []string{
		"OS/2", "cmap", "fvar", "glyf", "head",
		"hhea", "hmtx", "loca", "maxp", "name", "post",
	}
	for _, tag := range want {
		if _, ok := records[tag]; !ok {
			t.Errorf("missing table %q", tag)
		}
	}
	if len(records) != len(want) {
		t.Errorf("got %d tables, want %d", len(records), len(want))
	}

	// the whole-file checksum must come out at the magic value
	padded := data
	for len(padded)%4 != 0 {
		padded = append(padded, 0)
	}
	if sum := checksum(padded); sum != 0xB1B0AFBA {
		t.Errorf("file checksum is %#x", sum)
	}

	head := records["head"]
	if upem := binary.BigEndian.Uint16(data[head.Offset+18 : head.Offset+20]); upem != 1000 {
		t.Errorf("got %d units per em", upem)
	}

	maxp := records["maxp"]
	if numGlyphs := binary.BigEndian.Uint16(data[maxp.Offset+4 : maxp.Offset+6]); numGlyphs != 2 {
		t.Errorf("got %d glyphs", numGlyphs)
	}
}

func TestWriteCFF2(t *testing.T) {
	font := testFont()
	font.Glyphs = nil
	font.CFF2 = []byte{0x02, 0x00, 0x05, 0x00}

	var buf bytes.Buffer
	if _, err := font.Write(&buf); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	if got := binary.BigEndian.Uint32(data[:4]); got != ScalerTypeCFF {
		t.Errorf("got scaler type %#x", got)
	}
	records := parseDirectory(t, data)
	if _, ok := records["CFF2"]; !ok {
		t.Error("missing CFF2 table")
	}
	for _, tag := range []string{"glyf", "loca", "gvar"} {
		if _, ok := records[tag]; ok {
			t.Errorf("unexpected table %q", tag)
		}
	}
}

func TestMakeFvar(t *testing.T) {
	axes := []Axis{
		{Tag: "wght", Name: "Weight", Min: 400, Default: 400, Max: 700},
		{Tag: "V000", Name: "V000", Min: -1, Default: 0, Max: 1, Hidden: true},
	}
	nb := newNameBuilder()
	data := makeFvar(axes, nb)

	if got := binary.BigEndian.Uint16(data[8:10]); got != 2 {
		t.Fatalf("got %d axes", got)
	}

	rec := data[16:36]
	if got := string(rec[:4]); got != "wght" {
		t.Errorf("got tag %q", got)
	}
	if got := int32(binary.BigEndian.Uint32(rec[4:8])); got != 400<<16 {
		t.Errorf("got min %d", got)
	}
	if got := int32(binary.BigEndian.Uint32(rec[12:16])); got != 700<<16 {
		t.Errorf("got max %d", got)
	}
	if flags := binary.BigEndian.Uint16(rec[16:18]); flags != 0 {
		t.Errorf("got flags %#x", flags)
	}

	rec = data[36:56]
	if flags := binary.BigEndian.Uint16(rec[16:18]); flags != hiddenAxis {
		t.Errorf("hidden axis flags are %#x", flags)
	}
}

func TestMakeAvar(t *testing.T) {
	plain := []Axis{{Tag: "wght", Min: 400, Default: 400, Max: 700}}
	if got := makeAvar(plain); got != nil {
		t.Errorf("got %d bytes for unmapped axes", len(got))
	}

	mapped := []Axis{{
		Tag: "wght", Min: 100, Default: 400, Max: 900,
		Map: []fontra.AxisMapping{
			{In: 100, Out: 20},
			{In: 400, Out: 80},
			{In: 650, Out: 125},
			{In: 900, Out: 170},
		},
	}}
	data := makeAvar(mapped)
	if got := binary.BigEndian.Uint16(data[6:8]); got != 1 {
		t.Fatalf("got %d axes", got)
	}
	// identity corners plus the single interior breakpoint
	if got := binary.BigEndian.Uint16(data[8:10]); got != 4 {
		t.Fatalf("got %d segments", got)
	}
	want := [][2]int16{
		{-16384, -16384},
		{0, 0},
		{8192, 8192},
		{16384, 16384},
	}
	var segs [][2]int16
	for i := 0; i < 4; i++ {
		base := 10 + 4*i
		segs = append(segs, [2]int16{
			int16(binary.BigEndian.Uint16(data[base : base+2])),
			int16(binary.BigEndian.Uint16(data[base+2 : base+4])),
		})
	}
	if d := cmp.Diff(want, segs); d != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", d)
	}
}
