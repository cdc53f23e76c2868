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
	"fmt"
	"math"

	"github.com/googlefonts/fontra-compile/fontra"
	"github.com/googlefonts/fontra-compile/varmodel"
)

// charstring operators
const (
	opRLineTo   = 5
	opRRCurveTo = 8
	opVSIndex   = 15
	opBlend     = 16
	opRMoveTo   = 21
)

// segOp is one drawing operation shared by all masters.
type segOp struct {
	op      byte
	nCoords int
}

// AddGlyph appends the charstring for one glyph.  All paths must be
// point-compatible cubic outlines, in the master order of the model.
// For single-master glyphs the model may be nil.
func (b *Builder) AddGlyph(model *varmodel.Model, paths []fontra.Path) error {
	if len(paths) == 0 {
		b.AddEmptyGlyph()
		return nil
	}
	ops, err := pathOps(paths[0])
	if err != nil {
		return err
	}

	operands := make([][]float64, len(paths))
	for i, path := range paths {
		vals, err := pathOperands(path)
		if err != nil {
			return err
		}
		operands[i] = vals
	}
	for i := 1; i < len(operands); i++ {
		if len(operands[i]) != len(operands[0]) {
			return fmt.Errorf("cff2: incompatible outlines")
		}
	}

	var cs []byte
	if model == nil || model.NumMasters() == 1 {
		pos := 0
		for _, op := range ops {
			for k := 0; k < op.nCoords; k++ {
				cs = appendNumber(cs, round(operands[0][pos+k]))
			}
			cs = append(cs, op.op)
			pos += op.nCoords
		}
		b.glyphs = append(b.glyphs, cs)
		return nil
	}

	vsindex, err := b.vsindexFor(model)
	if err != nil {
		return err
	}
	deltas, err := model.Deltas(operands)
	if err != nil {
		return err
	}
	numRegions := len(deltas) - 1

	if vsindex != 0 {
		cs = appendNumber(cs, int32(vsindex))
		cs = append(cs, opVSIndex)
	}

	pos := 0
	for _, op := range ops {
		varying := false
		for r := 1; r <= numRegions; r++ {
			for k := 0; k < op.nCoords; k++ {
				if round(deltas[r][pos+k]) != 0 {
					varying = true
				}
			}
		}

		for k := 0; k < op.nCoords; k++ {
			cs = appendNumber(cs, round(deltas[0][pos+k]))
		}
		if varying {
			for k := 0; k < op.nCoords; k++ {
				for r := 1; r <= numRegions; r++ {
					cs = appendNumber(cs, round(deltas[r][pos+k]))
				}
			}
			cs = appendNumber(cs, int32(op.nCoords))
			cs = append(cs, opBlend)
		}
		cs = append(cs, op.op)
		pos += op.nCoords
	}
	b.glyphs = append(b.glyphs, cs)
	return nil
}

// AddEmptyGlyph appends a glyph with an empty charstring.
func (b *Builder) AddEmptyGlyph() {
	b.glyphs = append(b.glyphs, nil)
}

// pathOps derives the operator sequence from the outline topology.
func pathOps(p fontra.Path) ([]segOp, error) {
	var ops []segOp
	for _, contour := range p.Contours {
		n := len(contour.Points)
		if n == 0 {
			continue
		}
		start, err := startPoint(contour)
		if err != nil {
			return nil, err
		}
		ops = append(ops, segOp{opRMoveTo, 2})

		i := 1
		for i < n {
			pt := contour.Points[(start+i)%n]
			switch pt.Type {
			case fontra.OnCurve:
				ops = append(ops, segOp{opRLineTo, 2})
				i++
			case fontra.OffCurveCubic:
				if i+1 >= n {
					return nil, fmt.Errorf("cff2: dangling control point")
				}
				// the end point may wrap around to the start
				i += 3
				ops = append(ops, segOp{opRRCurveTo, 6})
			default:
				return nil, fmt.Errorf("cff2: quadratic point in cubic outline")
			}
		}
	}
	return ops, nil
}

// pathOperands flattens one master's outline into the relative
// coordinates consumed by the operator sequence of pathOps.
func pathOperands(p fontra.Path) ([]float64, error) {
	var vals []float64
	var curX, curY float64
	for _, contour := range p.Contours {
		n := len(contour.Points)
		if n == 0 {
			continue
		}
		start, err := startPoint(contour)
		if err != nil {
			return nil, err
		}
		at := func(i int) fontra.Point { return contour.Points[(start+i)%n] }

		emit := func(pt fontra.Point) {
			vals = append(vals, pt.X-curX, pt.Y-curY)
			curX, curY = pt.X, pt.Y
		}

		emit(at(0))
		i := 1
		for i < n {
			pt := at(i)
			switch pt.Type {
			case fontra.OnCurve:
				emit(pt)
				i++
			case fontra.OffCurveCubic:
				if i+1 >= n {
					return nil, fmt.Errorf("cff2: dangling control point")
				}
				emit(pt)
				emit(at(i + 1))
				emit(at(i + 2)) // wraps to the start for a closing curve
				i += 3
			default:
				return nil, fmt.Errorf("cff2: quadratic point in cubic outline")
			}
		}
	}
	return vals, nil
}

// startPoint returns the index of the first on-curve point of the
// contour.
func startPoint(c fontra.Contour) (int, error) {
	for i, pt := range c.Points {
		if pt.Type == fontra.OnCurve {
			return i, nil
		}
	}
	return 0, fmt.Errorf("cff2: contour without on-curve point")
}

func round(v float64) int32 {
	return int32(math.Floor(v + 0.5))
}

// appendNumber appends a charstring integer.
func appendNumber(buf []byte, v int32) []byte {
	switch {
	case v >= -107 && v <= 107:
		return append(buf, byte(v+139))
	case v >= 108 && v <= 1131:
		v -= 108
		return append(buf, byte(v/256+247), byte(v%256))
	case v >= -1131 && v <= -108:
		v = -v - 108
		return append(buf, byte(v/256+251), byte(v%256))
	case v >= -32768 && v <= 32767:
		return append(buf, 28, byte(v>>8), byte(v))
	default:
		// 16.16 fixed point
		f := v << 16
		return append(buf, 255, byte(f>>24), byte(f>>16), byte(f>>8), byte(f))
	}
}
