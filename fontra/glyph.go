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

package fontra

// VariableGlyph is the full per-glyph source: any number of
// interpolation sources referring to concrete shapes stored in layers.
type VariableGlyph struct {
	Name    string
	Axes    []GlyphAxis // local axes, declaration order
	Sources []GlyphSource
	Layers  map[string]*Layer
}

// ActiveSources returns the sources that participate in interpolation.
func (g *VariableGlyph) ActiveSources() []GlyphSource {
	var res []GlyphSource
	for _, source := range g.Sources {
		if !source.Inactive {
			res = append(res, source)
		}
	}
	return res
}

// GlyphSource is one interpolation master of a glyph.
type GlyphSource struct {
	Name      string
	Location  Location // axis name -> user value, default axes omitted
	LayerName string
	Inactive  bool
}

// Layer holds one concrete shape of a glyph.
type Layer struct {
	Glyph *StaticGlyph
}

// StaticGlyph is a single interpolation-ready shape: an outline, an
// ordered component list, and an advance width.
type StaticGlyph struct {
	Path       Path
	Components []Component
	XAdvance   float64
}

// Component is a reference to a base glyph, placed by a decomposed
// transform and optionally pinned to a sub-location of the base glyph's
// design space.
type Component struct {
	BaseName  string
	Transform Transform
	Location  Location // partial; unspecified axes stay unspecified
}

// Transform is the 9-field decomposed transformation of a component.
// Rotation and skew angles are in degrees.
type Transform struct {
	TranslateX float64
	TranslateY float64
	Rotation   float64
	ScaleX     float64
	ScaleY     float64
	SkewX      float64
	SkewY      float64
	TCenterX   float64
	TCenterY   float64
}

// IdentityTransform is the transform all fields are measured against.
var IdentityTransform = Transform{ScaleX: 1, ScaleY: 1}
