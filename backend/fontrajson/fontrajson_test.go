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

package fontrajson

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/googlefonts/fontra-compile/fontra"
)

const testDoc = `{
	"unitsPerEm": 1000,
	"axes": [
		{
			"name": "Weight",
			"tag": "wght",
			"minValue": 400,
			"defaultValue": 400,
			"maxValue": 700,
			"mapping": [[400, 80], [700, 160]]
		}
	],
	"glyphs": {
		"A": {
			"codePoints": [65],
			"sources": [
				{"name": "regular", "layerName": "regular"},
				{
					"name": "bold",
					"location": {"Weight": 700},
					"layerName": "bold"
				}
			],
			"layers": {
				"regular": {
					"glyph": {
						"xAdvance": 500,
						"path": {
							"contours": [
								{
									"points": [
										{"x": 0, "y": 0},
										{"x": 250, "y": 350, "type": "quad"},
										{"x": 500, "y": 0}
									],
									"isClosed": true
								}
							]
						}
					}
				},
				"bold": {
					"glyph": {
						"xAdvance": 520,
						"components": [
							{
								"name": "B",
								"transformation": {"translateX": 10}
							},
							{"name": "C"}
						]
					}
				}
			}
		}
	}
}`

func TestRead(t *testing.T) {
	backend, err := Read(strings.NewReader(testDoc))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	upem, err := backend.GetUnitsPerEm(ctx)
	if err != nil || upem != 1000 {
		t.Errorf("got %d units per em (err %v)", upem, err)
	}

	axes, err := backend.GetAxes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	wantAxes := []fontra.Axis{{
		Name: "Weight", Tag: "wght",
		Min: 400, Default: 400, Max: 700,
		Map: []fontra.AxisMapping{{In: 400, Out: 80}, {In: 700, Out: 160}},
	}}
	if d := cmp.Diff(wantAxes, axes); d != "" {
		t.Errorf("axes mismatch (-want +got):\n%s", d)
	}

	glyphMap, err := backend.GetGlyphMap(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(map[string][]rune{"A": {'A'}}, glyphMap); d != "" {
		t.Errorf("glyph map mismatch (-want +got):\n%s", d)
	}

	g, err := backend.GetGlyph(ctx, "A")
	if err != nil {
		t.Fatal(err)
	}
	if g == nil {
		t.Fatal("glyph A not found")
	}
	if len(g.Sources) != 2 || g.Sources[1].Location["Weight"] != 700 {
		t.Errorf("unexpected sources: %+v", g.Sources)
	}

	regular := g.Layers["regular"].Glyph
	wantPath := fontra.Path{Contours: []fontra.Contour{{
		Points: []fontra.Point{
			{X: 0, Y: 0},
			{X: 250, Y: 350, Type: fontra.OffCurveQuad},
			{X: 500, Y: 0},
		},
		Closed: true,
	}}}
	if d := cmp.Diff(wantPath, regular.Path); d != "" {
		t.Errorf("path mismatch (-want +got):\n%s", d)
	}

	bold := g.Layers["bold"].Glyph
	if len(bold.Components) != 2 {
		t.Fatalf("got %d components", len(bold.Components))
	}
	if got := bold.Components[0].Transform.TranslateX; got != 10 {
		t.Errorf("got translateX %g", got)
	}
	// partial transforms keep the identity scale
	if got := bold.Components[0].Transform.ScaleX; got != 1 {
		t.Errorf("got scaleX %g", got)
	}
	// a component without a transform is placed as-is
	if bold.Components[1].Transform != fontra.IdentityTransform {
		t.Errorf("got transform %+v", bold.Components[1].Transform)
	}

	missing, err := backend.GetGlyph(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("missing glyph: got %v, %v", missing, err)
	}
}

func TestReadErrors(t *testing.T) {
	if _, err := Read(strings.NewReader("{")); err == nil {
		t.Error("truncated document accepted")
	}
	if _, err := Read(strings.NewReader(`{"glyphs": {}}`)); err == nil {
		t.Error("document without unitsPerEm accepted")
	}
}
