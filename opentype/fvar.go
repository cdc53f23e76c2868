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
	"math"

	"github.com/googlefonts/fontra-compile/designspace"
	"github.com/googlefonts/fontra-compile/fontra"
)

// Axis is one entry of the fvar table, with its user-space range and
// optional mapping to design space.
type Axis struct {
	Tag     string
	Name    string
	Min     float64
	Default float64
	Max     float64
	Hidden  bool
	Map     []fontra.AxisMapping
}

const hiddenAxis = 0x0001

// makeFvar encodes the fvar table.  Axis names are allocated in the
// name table via nb.
func makeFvar(axes []Axis, nb *nameBuilder) []byte {
	const axisSize = 20
	buf := appendU16(nil, 1) // majorVersion
	buf = appendU16(buf, 0)  // minorVersion
	buf = appendU16(buf, 16) // axesArrayOffset
	buf = appendU16(buf, 2)  // reserved
	buf = appendU16(buf, uint16(len(axes)))
	buf = appendU16(buf, axisSize)
	buf = appendU16(buf, 0) // instanceCount
	buf = appendU16(buf, uint16(4*len(axes)+4))

	for _, ax := range axes {
		name := ax.Name
		if name == "" {
			name = ax.Tag
		}
		var flags uint16
		if ax.Hidden {
			flags |= hiddenAxis
		}
		buf = append(buf, tagBytes(ax.Tag)...)
		buf = appendU32(buf, uint32(fixed(ax.Min)))
		buf = appendU32(buf, uint32(fixed(ax.Default)))
		buf = appendU32(buf, uint32(fixed(ax.Max)))
		buf = appendU16(buf, flags)
		buf = appendU16(buf, nb.Add(name))
	}
	return buf
}

// makeAvar encodes the avar table, or returns nil if no axis has a
// non-trivial mapping.
func makeAvar(axes []Axis) []byte {
	haveMap := false
	for _, ax := range axes {
		if len(ax.Map) > 0 {
			haveMap = true
			break
		}
	}
	if !haveMap {
		return nil
	}

	buf := appendU16(nil, 1) // majorVersion
	buf = appendU16(buf, 0)  // minorVersion
	buf = appendU16(buf, 0)  // reserved
	buf = appendU16(buf, uint16(len(axes)))
	for _, ax := range axes {
		segs := axisSegments(ax)
		buf = appendU16(buf, uint16(len(segs)))
		for _, seg := range segs {
			buf = appendU16(buf, uint16(f2dot14(seg[0])))
			buf = appendU16(buf, uint16(f2dot14(seg[1])))
		}
	}
	return buf
}

// axisSegments computes the normalized segment map of one axis: the
// identity corners plus every mapping breakpoint, normalized on the
// user side with the raw triple and on the design side with the mapped
// triple.
func axisSegments(ax Axis) [][2]float64 {
	if len(ax.Map) == 0 {
		return nil
	}

	userTriple := designspace.AxisTriple{Min: ax.Min, Default: ax.Default, Max: ax.Max}
	designTriple := designspace.AxisTriple{
		Min:     designspace.PiecewiseLinearMap(ax.Min, ax.Map),
		Default: designspace.PiecewiseLinearMap(ax.Default, ax.Map),
		Max:     designspace.PiecewiseLinearMap(ax.Max, ax.Map),
	}

	seen := map[float64]bool{}
	var segs [][2]float64
	add := func(from, to float64) {
		if seen[from] {
			return
		}
		seen[from] = true
		segs = append(segs, [2]float64{from, to})
	}
	add(-1, -1)
	add(0, 0)
	add(1, 1)
	for _, m := range ax.Map {
		from := designspace.NormalizeValue(m.In, userTriple)
		to := designspace.NormalizeValue(m.Out, designTriple)
		add(from, to)
	}
	sortSegments(segs)
	return segs
}

func sortSegments(segs [][2]float64) {
	for i := 1; i < len(segs); i++ {
		for j := i; j > 0 && segs[j][0] < segs[j-1][0]; j-- {
			segs[j], segs[j-1] = segs[j-1], segs[j]
		}
	}
}

func tagBytes(tag string) []byte {
	var b [4]byte
	copy(b[:], tag)
	for i := len(tag); i < 4; i++ {
		b[i] = ' '
	}
	return b[:]
}

// fixed converts to 16.16 fixed point.
func fixed(v float64) int32 {
	return int32(math.Floor(v*65536 + 0.5))
}

func f2dot14(v float64) int16 {
	return int16(math.Floor(v*16384 + 0.5))
}
