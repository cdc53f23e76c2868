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

package testfont

import "github.com/googlefonts/fontra-compile/fontra"

// Metrics of the square test font, in font units.
const (
	UnitsPerEm = 1000

	SquareLeft   = 100
	SquareRight  = 500
	SquareBottom = 200
	SquareTop    = 600

	// BoldDelta is how far each square edge moves at the bold master.
	BoldDelta = 20

	NotdefWidth     = 500
	SpaceWidth      = 250
	SquareWidth     = 500
	BoldSquareWidth = 520
)

// Box returns a closed rectangular contour.
func Box(left, bottom, right, top float64) fontra.Path {
	return fontra.Path{Contours: []fontra.Contour{{
		Points: []fontra.Point{
			{X: left, Y: bottom},
			{X: right, Y: bottom},
			{X: right, Y: top},
			{X: left, Y: top},
		},
		Closed: true,
	}}}
}

// SimpleGlyph returns a glyph with a single source at the default
// location.
func SimpleGlyph(name string, path fontra.Path, xAdvance float64) *fontra.VariableGlyph {
	return &fontra.VariableGlyph{
		Name: name,
		Sources: []fontra.GlyphSource{
			{Name: "default", LayerName: "default"},
		},
		Layers: map[string]*fontra.Layer{
			"default": {Glyph: &fontra.StaticGlyph{Path: path, XAdvance: xAdvance}},
		},
	}
}

// Square returns a two-master weight font: a simple square that grows
// towards the bold master, a statically placed composite, and a
// variable composite whose rotation changes with the weight.
func Square() *Backend {
	square := &fontra.VariableGlyph{
		Name: "square",
		Sources: []fontra.GlyphSource{
			{Name: "regular", LayerName: "regular"},
			{Name: "bold", Location: fontra.Location{"Weight": 700}, LayerName: "bold"},
		},
		Layers: map[string]*fontra.Layer{
			"regular": {Glyph: &fontra.StaticGlyph{
				Path:     Box(SquareLeft, SquareBottom, SquareRight, SquareTop),
				XAdvance: SquareWidth,
			}},
			"bold": {Glyph: &fontra.StaticGlyph{
				Path: Box(SquareLeft-BoldDelta, SquareBottom-BoldDelta,
					SquareRight+BoldDelta, SquareTop+BoldDelta),
				XAdvance: BoldSquareWidth,
			}},
		},
	}

	shifted := &fontra.VariableGlyph{
		Name: "shifted",
		Sources: []fontra.GlyphSource{
			{Name: "default", LayerName: "default"},
		},
		Layers: map[string]*fontra.Layer{
			"default": {Glyph: &fontra.StaticGlyph{
				Components: []fontra.Component{{
					BaseName: "square",
					Transform: fontra.Transform{
						TranslateX: 20, TranslateY: 30, ScaleX: 1, ScaleY: 1,
					},
				}},
				XAdvance: SquareWidth,
			}},
		},
	}

	turning := &fontra.VariableGlyph{
		Name: "turning",
		Sources: []fontra.GlyphSource{
			{Name: "regular", LayerName: "regular"},
			{Name: "bold", Location: fontra.Location{"Weight": 700}, LayerName: "bold"},
		},
		Layers: map[string]*fontra.Layer{
			"regular": {Glyph: &fontra.StaticGlyph{
				Components: []fontra.Component{{
					BaseName:  "square",
					Transform: fontra.IdentityTransform,
				}},
				XAdvance: SquareWidth,
			}},
			"bold": {Glyph: &fontra.StaticGlyph{
				Components: []fontra.Component{{
					BaseName: "square",
					Transform: fontra.Transform{
						Rotation: 45, ScaleX: 1, ScaleY: 1,
					},
				}},
				XAdvance: BoldSquareWidth,
			}},
		},
	}

	return &Backend{
		UPM: UnitsPerEm,
		Axes: []fontra.Axis{
			{Name: "Weight", Tag: "wght", Min: 400, Default: 400, Max: 700},
		},
		Glyphs: map[string]*fontra.VariableGlyph{
			".notdef": SimpleGlyph(".notdef", Box(50, 0, 450, 700), NotdefWidth),
			"space":   SimpleGlyph("space", fontra.Path{}, SpaceWidth),
			"square":  square,
			"shifted": shifted,
			"turning": turning,
		},
		CodePoints: map[string][]rune{
			"space":   {0x20},
			"square":  {'A'},
			"shifted": {'B'},
			"turning": {'C'},
		},
	}
}
