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

// Package fontra defines the variable glyph source model consumed by the
// compiler, together with the read-only backend contract that supplies it.
package fontra

import "context"

// Location is a point in the design space, keyed by axis name (or, after
// tag mapping, by axis tag).  Axes at their default value may be omitted.
type Location map[string]float64

// Copy returns an independent copy of the location.
func (loc Location) Copy() Location {
	res := make(Location, len(loc))
	for k, v := range loc {
		res[k] = v
	}
	return res
}

// AxisMapping is one breakpoint of a piecewise linear user-to-design
// axis value map.
type AxisMapping struct {
	In  float64
	Out float64
}

// Axis is one font-wide design space dimension.
type Axis struct {
	Name    string
	Tag     string
	Min     float64
	Default float64
	Max     float64
	Hidden  bool

	// Map is an optional user-to-design value mapping.  An empty map
	// means values pass through unchanged.
	Map []AxisMapping
}

// GlyphAxis is an axis local to a single glyph.  Local axes have no tag
// in the source; tags are assigned during compilation.
type GlyphAxis struct {
	Name    string
	Min     float64
	Default float64
	Max     float64
}

// ReadableFontBackend supplies a complete font source.  Implementations
// may perform I/O; all methods accept a context and are the compiler's
// only suspension points.
type ReadableFontBackend interface {
	// GetGlyphMap returns the code points assigned to each glyph.
	GetGlyphMap(ctx context.Context) (map[string][]rune, error)

	// GetAxes returns the font-wide axes in declaration order.
	GetAxes(ctx context.Context) ([]Axis, error)

	// GetGlyph returns the named glyph, or nil (with a nil error) if the
	// source does not contain it.
	GetGlyph(ctx context.Context, name string) (*VariableGlyph, error)

	// GetUnitsPerEm returns the design units per em.
	GetUnitsPerEm(ctx context.Context) (int, error)
}
