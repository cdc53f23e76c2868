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

package compiler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/matrix"

	"github.com/googlefonts/fontra-compile/fontra"
	"github.com/googlefonts/fontra-compile/internal/testfont"
	"github.com/googlefonts/fontra-compile/opentype"
	"github.com/googlefonts/fontra-compile/opentype/varc"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildSquare(t *testing.T, backend fontra.ReadableFontBackend, opts Options) (*Builder, *opentype.Font) {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	b := New(backend, opts)
	ctx := context.Background()
	if err := b.Setup(ctx); err != nil {
		t.Fatal(err)
	}
	font, err := b.Build(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return b, font
}

func TestGlyphOrder(t *testing.T) {
	b, _ := buildSquare(t, testfont.Square(), Options{})

	want := []string{".notdef", "shifted", "space", "square", "turning"}
	if d := cmp.Diff(want, b.glyphOrder); d != "" {
		t.Errorf("glyph order mismatch (-want +got):\n%s", d)
	}
}

func TestMetrics(t *testing.T) {
	_, font := buildSquare(t, testfont.Square(), Options{})

	wantWidths := []uint16{
		testfont.NotdefWidth,
		testfont.SquareWidth, // shifted
		testfont.SpaceWidth,
		testfont.SquareWidth,
		testfont.SquareWidth, // turning, default master
	}
	if d := cmp.Diff(wantWidths, font.Widths); d != "" {
		t.Errorf("widths mismatch (-want +got):\n%s", d)
	}

	wantLSBs := []int16{
		50,
		testfont.SquareLeft + 20, // shifted by the component offset
		0,
		testfont.SquareLeft,
		0, // turning has no outline of its own
	}
	if d := cmp.Diff(wantLSBs, font.LSBs); d != "" {
		t.Errorf("LSBs mismatch (-want +got):\n%s", d)
	}
}

func TestOutlineVariations(t *testing.T) {
	_, font := buildSquare(t, testfont.Square(), Options{})

	if font.Gvar == nil {
		t.Fatal("no gvar table")
	}
	vars := font.Gvar.Variations[3] // square
	if len(vars) != 1 {
		t.Fatalf("got %d variations, want 1", len(vars))
	}
	v := vars[0]
	r, ok := v.Support["wght"]
	if !ok || r.Peak != 1 || r.Min != 0 || r.Max != 1 {
		t.Errorf("unexpected support: %v", v.Support)
	}

	d := testfont.BoldDelta
	wantX := []int16{int16(-d), int16(d), int16(d), int16(-d), 0, 20, 0, 0}
	wantY := []int16{int16(-d), int16(-d), int16(d), int16(d), 0, 0, 0, 0}
	if diff := cmp.Diff(wantX, v.DeltasX); diff != "" {
		t.Errorf("x deltas mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantY, v.DeltasY); diff != "" {
		t.Errorf("y deltas mismatch (-want +got):\n%s", diff)
	}

	// the composite with a varying advance gets phantom-point deltas
	turningVars := font.Gvar.Variations[4]
	if len(turningVars) != 1 {
		t.Fatalf("got %d variations for the composite, want 1", len(turningVars))
	}
	wantX = []int16{0, 20, 0, 0}
	if diff := cmp.Diff(wantX, turningVars[0].DeltasX); diff != "" {
		t.Errorf("phantom deltas mismatch (-want +got):\n%s", diff)
	}
}

func TestClassicComposite(t *testing.T) {
	_, font := buildSquare(t, testfont.Square(), Options{})

	g := font.Glyphs[1] // shifted
	if len(g.Components) != 1 || len(g.Contours) != 0 {
		t.Fatalf("expected a classic composite, got %d components and %d contours",
			len(g.Components), len(g.Contours))
	}
	comp := g.Components[0]
	if comp.GlyphIndex != 3 {
		t.Errorf("component points at glyph %d, want 3", comp.GlyphIndex)
	}
	want := matrix.Matrix{1, 0, 0, 1, 20, 30}
	if comp.Trafo != want {
		t.Errorf("got trafo %v, want %v", comp.Trafo, want)
	}

	if font.Varc != nil {
		for _, g := range font.Varc.Glyphs {
			if g.GlyphID == 1 {
				t.Error("classic composite must not be covered by VARC")
			}
		}
	}
}

func TestVariableComposite(t *testing.T) {
	_, font := buildSquare(t, testfont.Square(), Options{})

	if font.Varc == nil {
		t.Fatal("no VARC table")
	}
	if len(font.Varc.Glyphs) != 1 {
		t.Fatalf("got %d VARC glyphs, want 1", len(font.Varc.Glyphs))
	}
	g := font.Varc.Glyphs[0]
	if g.GlyphID != 4 {
		t.Errorf("VARC covers glyph %d, want 4", g.GlyphID)
	}
	if len(g.Components) != 1 {
		t.Fatalf("got %d components, want 1", len(g.Components))
	}
	comp := g.Components[0]
	wantFlags := varc.HaveRotation | varc.TransformHasVariation
	if comp.Flags != wantFlags {
		t.Errorf("got flags %#x, want %#x", comp.Flags, wantFlags)
	}
	if comp.GlyphID != 3 {
		t.Errorf("component points at glyph %d, want 3", comp.GlyphID)
	}
	// rotation at the default master is zero
	if d := cmp.Diff([]int32{0}, comp.TransformValues); d != "" {
		t.Errorf("transform values mismatch (-want +got):\n%s", d)
	}
	if font.Varc.Store.IsEmpty() {
		t.Error("VARC store has no deltas")
	}
}

func TestAdvanceWidthVariations(t *testing.T) {
	_, font := buildSquare(t, testfont.Square(), Options{})

	if font.Hvar == nil {
		t.Fatal("no HVAR data")
	}
	if font.Hvar.Store.IsEmpty() {
		t.Fatal("HVAR store is empty")
	}
	m := font.Hvar.Mappings
	if len(m) != 5 {
		t.Fatalf("got %d mappings, want 5", len(m))
	}
	if m[3] != m[4] {
		t.Errorf("square and turning share the same delta, want one entry: %#x vs %#x", m[3], m[4])
	}
	if m[0] != m[2] || m[3] == m[0] {
		t.Errorf("unexpected mappings: %v", m)
	}
}

func TestCharacterMap(t *testing.T) {
	_, font := buildSquare(t, testfont.Square(), Options{})

	want := map[uint16]int{0x20: 2, 'A': 3, 'B': 1, 'C': 4}
	if len(font.CMap) != len(want) {
		t.Fatalf("got %d cmap entries, want %d", len(font.CMap), len(want))
	}
	for code, gid := range want {
		if int(font.CMap[code]) != gid {
			t.Errorf("cmap[%#x] = %d, want %d", code, font.CMap[code], gid)
		}
	}
}

func TestDegradation(t *testing.T) {
	backend := testfont.Square()
	// break outline compatibility of the square
	bold := backend.Glyphs["square"].Layers["bold"].Glyph
	bold.Path.Contours[0].Points = bold.Path.Contours[0].Points[:3]

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	_, font := buildSquare(t, backend, Options{Logger: log})

	if font.Widths[3] != placeholderAdvance {
		t.Errorf("degraded glyph has width %d, want %d", font.Widths[3], placeholderAdvance)
	}
	if !font.Glyphs[3].IsEmpty() {
		t.Error("degraded glyph is not empty")
	}
	if !bytes.Contains(buf.Bytes(), []byte("square")) {
		t.Error("no warning logged for the degraded glyph")
	}
	// the remaining glyphs are unaffected
	if font.Widths[0] != testfont.NotdefWidth {
		t.Errorf("unexpected .notdef width %d", font.Widths[0])
	}
}

func TestDependencyDiscovery(t *testing.T) {
	b, font := buildSquare(t, testfont.Square(), Options{
		GlyphNames: []string{"shifted"},
	})

	want := []string{".notdef", "shifted", "square"}
	if d := cmp.Diff(want, b.glyphOrder); d != "" {
		t.Errorf("glyph order mismatch (-want +got):\n%s", d)
	}
	// the discovered base keeps its code point too
	if len(font.CMap) != 2 || font.CMap['B'] != 1 || font.CMap['A'] != 2 {
		t.Errorf("unexpected cmap: %v", font.CMap)
	}
}

func TestRequestedGlyphOrder(t *testing.T) {
	// Requested names are not re-sorted; discovered bases come last.
	b, _ := buildSquare(t, testfont.Square(), Options{
		GlyphNames: []string{"turning", "space"},
	})

	want := []string{".notdef", "turning", "space", "square"}
	if d := cmp.Diff(want, b.glyphOrder); d != "" {
		t.Errorf("glyph order mismatch (-want +got):\n%s", d)
	}
}

func TestShuffledSourcesSameOutput(t *testing.T) {
	write := func(backend fontra.ReadableFontBackend) []byte {
		_, font := buildSquare(t, backend, Options{})
		stamp := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		font.CreationTime = stamp
		font.ModificationTime = stamp
		var buf bytes.Buffer
		if _, err := font.Write(&buf); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}

	a := write(testfont.Square())

	shuffled := testfont.Square()
	sources := shuffled.Glyphs["square"].Sources
	sources[0], sources[1] = sources[1], sources[0]
	b := write(shuffled)

	if !bytes.Equal(a, b) {
		t.Error("source order leaks into the output")
	}
}

func TestLocalAxes(t *testing.T) {
	backend := testfont.Square()
	backend.Glyphs["wiggle"] = &fontra.VariableGlyph{
		Name: "wiggle",
		Axes: []fontra.GlyphAxis{
			{Name: "flex", Min: 0, Default: 0, Max: 100},
		},
		Sources: []fontra.GlyphSource{
			{Name: "default", LayerName: "default"},
			{Name: "flexed", Location: fontra.Location{"flex": 100}, LayerName: "flexed"},
		},
		Layers: map[string]*fontra.Layer{
			"default": {Glyph: &fontra.StaticGlyph{
				Path:     testfont.Box(0, 0, 100, 100),
				XAdvance: 120,
			}},
			"flexed": {Glyph: &fontra.StaticGlyph{
				Path:     testfont.Box(0, 0, 100, 200),
				XAdvance: 120,
			}},
		},
	}
	backend.CodePoints["wiggle"] = []rune{'D'}

	_, font := buildSquare(t, backend, Options{})

	var tags []string
	for _, axis := range font.Axes {
		tags = append(tags, axis.Tag)
	}
	if d := cmp.Diff([]string{"wght", "V000"}, tags); d != "" {
		t.Errorf("axis tags mismatch (-want +got):\n%s", d)
	}
	if !font.Axes[1].Hidden {
		t.Error("local axis is not hidden")
	}

	// glyph order: .notdef shifted space square turning wiggle
	vars := font.Gvar.Variations[5]
	if len(vars) != 1 {
		t.Fatalf("got %d variations, want 1", len(vars))
	}
	if _, ok := vars[0].Support["V000"]; !ok {
		t.Errorf("variation support %v does not use the local axis", vars[0].Support)
	}
}

func TestCFF2Build(t *testing.T) {
	_, font := buildSquare(t, testfont.Square(), Options{CFF2: true})

	if font.CFF2 == nil {
		t.Fatal("no CFF2 table")
	}
	if font.Glyphs != nil || font.Gvar != nil {
		t.Error("glyf/gvar tables present in a CFF2 build")
	}
	if font.Varc == nil {
		t.Fatal("no VARC table")
	}
	// the static composite cannot be a classic glyf composite here
	ids := make(map[int]bool)
	for _, g := range font.Varc.Glyphs {
		ids[int(g.GlyphID)] = true
	}
	if !ids[1] || !ids[4] {
		t.Errorf("VARC coverage %v, want glyphs 1 and 4", ids)
	}
}
