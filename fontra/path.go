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

// PointType classifies an outline point.
type PointType uint8

const (
	// OnCurve is a point on the outline.
	OnCurve PointType = iota
	// OffCurveQuad is a quadratic (TrueType) control point.
	OffCurveQuad
	// OffCurveCubic is a cubic (PostScript) control point.
	OffCurveCubic
)

// Point is one outline point in font units.
type Point struct {
	X, Y float64
	Type PointType
}

// Contour is an ordered run of points.
type Contour struct {
	Points []Point
	Closed bool
}

// Path is an outline: an ordered list of contours.
type Path struct {
	Contours []Contour
}

// NumPoints returns the total number of points over all contours.
func (p Path) NumPoints() int {
	n := 0
	for _, c := range p.Contours {
		n += len(c.Points)
	}
	return n
}

// Coordinates returns the point coordinates as a flat x0,y0,x1,y1,...
// slice, in contour order.
func (p Path) Coordinates() []float64 {
	coords := make([]float64, 0, 2*p.NumPoints())
	for _, c := range p.Contours {
		for _, pt := range c.Points {
			coords = append(coords, pt.X, pt.Y)
		}
	}
	return coords
}

// ContourInfo describes the topology of one contour.  Two outlines
// interpolate cleanly exactly when their ContourInfo sequences are equal.
type ContourInfo struct {
	NumPoints int
	Types     string // one byte per point: 'o'=on, 'q'=quad off, 'c'=cubic off
	Closed    bool
}

// ContourInfos returns the topology descriptor of the path.
func (p Path) ContourInfos() []ContourInfo {
	res := make([]ContourInfo, len(p.Contours))
	for i, c := range p.Contours {
		types := make([]byte, len(c.Points))
		for j, pt := range c.Points {
			switch pt.Type {
			case OnCurve:
				types[j] = 'o'
			case OffCurveQuad:
				types[j] = 'q'
			case OffCurveCubic:
				types[j] = 'c'
			}
		}
		res[i] = ContourInfo{
			NumPoints: len(c.Points),
			Types:     string(types),
			Closed:    c.Closed,
		}
	}
	return res
}

// IsCompatible reports whether p and other share identical contour
// topology (contour count, per-contour point count and point types).
func (p Path) IsCompatible(other Path) bool {
	if len(p.Contours) != len(other.Contours) {
		return false
	}
	a := p.ContourInfos()
	b := other.ContourInfos()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
