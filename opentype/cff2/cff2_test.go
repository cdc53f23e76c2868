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

package cff2

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/googlefonts/fontra-compile/fontra"
	"github.com/googlefonts/fontra-compile/varmodel"
)

func TestAppendNumber(t *testing.T) {
	cases := []struct {
		in  int32
		out []byte
	}{
		{0, []byte{139}},
		{107, []byte{246}},
		{-107, []byte{32}},
		{108, []byte{247, 0}},
		{1131, []byte{250, 255}},
		{-108, []byte{251, 0}},
		{-1131, []byte{254, 255}},
		{2000, []byte{28, 0x07, 0xD0}},
		{-32768, []byte{28, 0x80, 0x00}},
	}
	for _, c := range cases {
		got := appendNumber(nil, c.in)
		if d := cmp.Diff(c.out, got); d != "" {
			t.Errorf("appendNumber(%d): %s", c.in, d)
		}
	}
}

func box(x0, y0, x1, y1 float64) fontra.Path {
	return fontra.Path{Contours: []fontra.Contour{{
		Points: []fontra.Point{
			{X: x0, Y: y0, Type: fontra.OnCurve},
			{X: x1, Y: y0, Type: fontra.OnCurve},
			{X: x1, Y: y1, Type: fontra.OnCurve},
			{X: x0, Y: y1, Type: fontra.OnCurve},
		},
		Closed: true,
	}}}
}

func TestStaticCharString(t *testing.T) {
	b := NewBuilder([]string{"wght"})
	if err := b.AddGlyph(nil, []fontra.Path{box(10, 0, 20, 30)}); err != nil {
		t.Fatal(err)
	}

	want := []byte{
		139 + 10, 139, 21, // 10 0 rmoveto
		139 + 10, 139, 5, // 10 0 rlineto
		139, 139 + 30, 5, // 0 30 rlineto
		139 - 10, 139, 5, // -10 0 rlineto
	}
	if d := cmp.Diff(want, b.glyphs[0]); d != "" {
		t.Errorf("charstring: %s", d)
	}
}

func TestBlendedCharString(t *testing.T) {
	b := NewBuilder([]string{"wght"})
	model, err := varmodel.New([]fontra.Location{
		{},
		{"wght": 1},
	}, []string{"wght"})
	if err != nil {
		t.Fatal(err)
	}
	paths := []fontra.Path{
		box(10, 0, 20, 30),
		box(10, 0, 25, 30), // 5 units wider at wght=1
	}
	if err := b.AddGlyph(model, paths); err != nil {
		t.Fatal(err)
	}

	want := []byte{
		139 + 10, 139, 21, // 10 0 rmoveto, no variation
		139 + 10, 139, // base 10 0
		139 + 5, 139, // deltas +5 0
		139 + 2, 16, // 2 blend
		5,             // rlineto
		139, 139 + 30, 5, // 0 30 rlineto
		139 - 10, 139, // base -10 0
		139 - 5, 139, // deltas -5 0
		139 + 2, 16, // 2 blend
		5, // rlineto
	}
	if d := cmp.Diff(want, b.glyphs[0]); d != "" {
		t.Errorf("charstring: %s", d)
	}
}

func TestCubicContour(t *testing.T) {
	p := fontra.Path{Contours: []fontra.Contour{{
		Points: []fontra.Point{
			{X: 0, Y: 0, Type: fontra.OnCurve},
			{X: 10, Y: 0, Type: fontra.OffCurveCubic},
			{X: 20, Y: 10, Type: fontra.OffCurveCubic},
			{X: 20, Y: 20, Type: fontra.OnCurve},
			{X: 20, Y: 30, Type: fontra.OffCurveCubic},
			{X: 10, Y: 40, Type: fontra.OffCurveCubic},
			// closing curve wraps back to the first point
		},
		Closed: true,
	}}}
	ops, err := pathOps(p)
	if err != nil {
		t.Fatal(err)
	}
	want := []segOp{
		{opRMoveTo, 2},
		{opRRCurveTo, 6},
		{opRRCurveTo, 6},
	}
	if d := cmp.Diff(want, ops, cmp.AllowUnexported(segOp{})); d != "" {
		t.Errorf("ops: %s", d)
	}

	vals, err := pathOperands(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 2+6+6 {
		t.Errorf("got %d operands, want 14", len(vals))
	}
}

func TestEncodeLayout(t *testing.T) {
	b := NewBuilder([]string{"wght"})
	if err := b.AddGlyph(nil, []fontra.Path{{}}); err != nil {
		t.Fatal(err)
	}
	data := b.Encode()

	if data[0] != 2 {
		t.Errorf("major version %d, want 2", data[0])
	}
	if data[2] != 5 {
		t.Errorf("header size %d, want 5", data[2])
	}
	topDictLen := int(data[3])<<8 | int(data[4])
	if topDictLen != 19 {
		t.Errorf("top dict length %d, want 19", topDictLen)
	}
	// CharStrings offset operand points past header, dict and subrs
	if data[5] != 29 {
		t.Fatalf("expected 5-byte dict operand")
	}
	off := int(data[6])<<24 | int(data[7])<<16 | int(data[8])<<8 | int(data[9])
	if off != 5+19+4 {
		t.Errorf("charstrings offset %d, want %d", off, 5+19+4)
	}
}
