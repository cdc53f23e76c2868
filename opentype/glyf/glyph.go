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

package glyf

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/postscript/funit"
	"seehuhn.de/go/sfnt/glyph"
)

// Point is one point of a simple glyph, in font units.
type Point struct {
	X, Y    funit.Int16
	OnCurve bool
}

// Contour is a closed run of points.
type Contour []Point

// Component is one component of a classic composite glyph.
type Component struct {
	GlyphIndex glyph.ID

	// Trafo places the component: Trafo[0:4] is the 2x2 linear part,
	// Trafo[4:6] the offset in font units.
	Trafo matrix.Matrix
}

// Glyph is a single glyph.  A glyph has either contours or components,
// never both; a glyph with neither is empty and encodes to zero bytes.
type Glyph struct {
	Contours   []Contour
	Components []Component

	// BBox is the bounding box.  For simple glyphs it is computed
	// during encoding and may be left zero; composite glyphs must have
	// it filled in by the caller.
	BBox funit.Rect16
}

// IsEmpty reports whether the glyph has no outline and no components.
func (g *Glyph) IsEmpty() bool {
	return g == nil || (len(g.Contours) == 0 && len(g.Components) == 0)
}

// NumPoints returns the number of outline points of a simple glyph.
func (g *Glyph) NumPoints() int {
	n := 0
	for _, c := range g.Contours {
		n += len(c)
	}
	return n
}

func (g *Glyph) computeBounds() funit.Rect16 {
	if len(g.Contours) == 0 {
		return g.BBox
	}
	bbox := funit.Rect16{LLx: 32767, LLy: 32767, URx: -32768, URy: -32768}
	for _, c := range g.Contours {
		for _, p := range c {
			if p.X < bbox.LLx {
				bbox.LLx = p.X
			}
			if p.Y < bbox.LLy {
				bbox.LLy = p.Y
			}
			if p.X > bbox.URx {
				bbox.URx = p.X
			}
			if p.Y > bbox.URy {
				bbox.URy = p.Y
			}
		}
	}
	return bbox
}

const (
	flagOnCurve     = 0x01
	flagXShort      = 0x02
	flagYShort      = 0x04
	flagRepeat      = 0x08
	flagXSameOrPos  = 0x10
	flagYSameOrPos  = 0x20
	compArgsWords   = 0x0001
	compArgsXY      = 0x0002
	compRoundToGrid = 0x0004
	compHaveScale   = 0x0008
	compMore        = 0x0020
	compXYScale     = 0x0040
	compTwoByTwo    = 0x0080
)

func (g *Glyph) append(buf []byte) []byte {
	if g.IsEmpty() {
		return buf
	}

	if len(g.Components) > 0 {
		buf = g.appendComposite(buf)
	} else {
		buf = g.appendSimple(buf)
	}

	// keep loca offsets even
	for len(buf)%2 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

func appendU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v>>8), byte(v))
}

func (g *Glyph) appendHeader(buf []byte, numContours int16) []byte {
	bbox := g.BBox
	if len(g.Contours) > 0 {
		bbox = g.computeBounds()
	}
	buf = appendU16(buf, uint16(numContours))
	buf = appendU16(buf, uint16(bbox.LLx))
	buf = appendU16(buf, uint16(bbox.LLy))
	buf = appendU16(buf, uint16(bbox.URx))
	buf = appendU16(buf, uint16(bbox.URy))
	return buf
}

func (g *Glyph) appendSimple(buf []byte) []byte {
	buf = g.appendHeader(buf, int16(len(g.Contours)))

	end := -1
	for _, c := range g.Contours {
		end += len(c)
		buf = appendU16(buf, uint16(end))
	}
	buf = appendU16(buf, 0) // no instructions

	// per-point flags and coordinate deltas
	var flags []byte
	var xData, yData []byte
	var prevX, prevY funit.Int16
	for _, c := range g.Contours {
		for _, p := range c {
			var f byte
			if p.OnCurve {
				f |= flagOnCurve
			}
			dx := p.X - prevX
			dy := p.Y - prevY
			prevX, prevY = p.X, p.Y

			switch {
			case dx == 0:
				f |= flagXSameOrPos
			case dx >= -255 && dx <= 255:
				f |= flagXShort
				if dx > 0 {
					f |= flagXSameOrPos
				} else {
					dx = -dx
				}
				xData = append(xData, byte(dx))
			default:
				xData = appendU16(xData, uint16(dx))
			}

			switch {
			case dy == 0:
				f |= flagYSameOrPos
			case dy >= -255 && dy <= 255:
				f |= flagYShort
				if dy > 0 {
					f |= flagYSameOrPos
				} else {
					dy = -dy
				}
				yData = append(yData, byte(dy))
			default:
				yData = appendU16(yData, uint16(dy))
			}

			flags = append(flags, f)
		}
	}

	// run-length compress the flags
	for i := 0; i < len(flags); {
		j := i + 1
		for j < len(flags) && flags[j] == flags[i] && j-i < 256 {
			j++
		}
		if j-i > 1 {
			buf = append(buf, flags[i]|flagRepeat, byte(j-i-1))
		} else {
			buf = append(buf, flags[i])
		}
		i = j
	}

	buf = append(buf, xData...)
	buf = append(buf, yData...)
	return buf
}

func (g *Glyph) appendComposite(buf []byte) []byte {
	buf = g.appendHeader(buf, -1)

	for i, comp := range g.Components {
		dx := int(math.Round(comp.Trafo[4]))
		dy := int(math.Round(comp.Trafo[5]))

		flags := uint16(compArgsXY | compRoundToGrid)
		if i < len(g.Components)-1 {
			flags |= compMore
		}
		wordArgs := dx < -128 || dx > 127 || dy < -128 || dy > 127
		if wordArgs {
			flags |= compArgsWords
		}

		a, b, c, d := comp.Trafo[0], comp.Trafo[1], comp.Trafo[2], comp.Trafo[3]
		var scaleData []byte
		switch {
		case b == 0 && c == 0 && a == 1 && d == 1:
			// no scale entry
		case b == 0 && c == 0 && a == d:
			flags |= compHaveScale
			scaleData = appendU16(nil, uint16(f2dot14(a)))
		case b == 0 && c == 0:
			flags |= compXYScale
			scaleData = appendU16(nil, uint16(f2dot14(a)))
			scaleData = appendU16(scaleData, uint16(f2dot14(d)))
		default:
			flags |= compTwoByTwo
			scaleData = appendU16(nil, uint16(f2dot14(a)))
			scaleData = appendU16(scaleData, uint16(f2dot14(b)))
			scaleData = appendU16(scaleData, uint16(f2dot14(c)))
			scaleData = appendU16(scaleData, uint16(f2dot14(d)))
		}

		buf = appendU16(buf, flags)
		buf = appendU16(buf, uint16(comp.GlyphIndex))
		if wordArgs {
			buf = appendU16(buf, uint16(int16(dx)))
			buf = appendU16(buf, uint16(int16(dy)))
		} else {
			buf = append(buf, byte(int8(dx)), byte(int8(dy)))
		}
		buf = append(buf, scaleData...)
	}
	return buf
}

func f2dot14(v float64) int16 {
	return int16(math.Round(v * 16384))
}
