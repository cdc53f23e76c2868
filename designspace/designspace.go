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

// Package designspace resolves axis definitions: axis value maps,
// location normalization, and local axis tag assignment.
package designspace

import (
	"fmt"
	"sort"

	"github.com/googlefonts/fontra-compile/fontra"
)

// AxisTriple is the design-space extent of one axis.
type AxisTriple struct {
	Min     float64
	Default float64
	Max     float64
}

// PiecewiseLinearMap maps v through the given breakpoint table.  Values
// between breakpoints interpolate linearly; values beyond the outer
// breakpoints map to the outer output values.  An empty table passes v
// through unchanged.
func PiecewiseLinearMap(v float64, mapping []fontra.AxisMapping) float64 {
	if len(mapping) == 0 {
		return v
	}
	pts := make([]fontra.AxisMapping, len(mapping))
	copy(pts, mapping)
	sort.Slice(pts, func(i, j int) bool { return pts[i].In < pts[j].In })

	if v <= pts[0].In {
		return pts[0].Out
	}
	if v >= pts[len(pts)-1].In {
		return pts[len(pts)-1].Out
	}
	for i := 1; i < len(pts); i++ {
		if v <= pts[i].In {
			a, b := pts[i-1], pts[i]
			if a.In == b.In {
				return b.Out
			}
			return a.Out + (b.Out-a.Out)*(v-a.In)/(b.In-a.In)
		}
	}
	return pts[len(pts)-1].Out
}

// ApplyAxisMap maps the extremes of a font-wide axis through its value
// map, yielding the design-space triple the compiler works in.
func ApplyAxisMap(axis fontra.Axis) AxisTriple {
	return AxisTriple{
		Min:     PiecewiseLinearMap(axis.Min, axis.Map),
		Default: PiecewiseLinearMap(axis.Default, axis.Map),
		Max:     PiecewiseLinearMap(axis.Max, axis.Map),
	}
}

// GlyphAxisTriple returns the extent of a glyph-local axis.
func GlyphAxisTriple(axis fontra.GlyphAxis) AxisTriple {
	return AxisTriple{Min: axis.Min, Default: axis.Default, Max: axis.Max}
}

// NormalizeValue normalizes v into [-1, 1] relative to the triple, with
// 0 at the default.  Values outside [min, max] are clamped first.
func NormalizeValue(v float64, t AxisTriple) float64 {
	if v < t.Min {
		v = t.Min
	} else if v > t.Max {
		v = t.Max
	}
	switch {
	case v == t.Default:
		return 0
	case v < t.Default:
		return (v - t.Default) / (t.Default - t.Min)
	default:
		return (v - t.Default) / (t.Max - t.Default)
	}
}

// NormalizeLocation normalizes loc against the given axes.  The result
// contains a value for every axis in axes; axes missing from loc take
// their default (normalizing to 0).  Keys of loc not present in axes are
// dropped.
func NormalizeLocation(loc fontra.Location, axes map[string]AxisTriple) fontra.Location {
	res := make(fontra.Location, len(axes))
	for name, triple := range axes {
		v, ok := loc[name]
		if !ok {
			v = triple.Default
		}
		res[name] = NormalizeValue(v, triple)
	}
	return res
}

// AssignLocalTags assigns synthetic tags V000, V001, ... to the local
// axis names, in the given declaration order, skipping names that are
// already font-wide axes.  The numbering depends only on the declaration
// order, so two runs over the same source produce identical tags.
func AssignLocalTags(localNames []string, isGlobal map[string]bool) map[string]string {
	tags := make(map[string]string)
	for _, name := range localNames {
		if isGlobal[name] {
			continue
		}
		if _, ok := tags[name]; ok {
			continue
		}
		tags[name] = fmt.Sprintf("V%03d", len(tags))
	}
	return tags
}

// MapKeys rewrites the keys of a location through the given mapping.
// Keys without a mapping entry are dropped.
func MapKeys(loc fontra.Location, mapping map[string]string) fontra.Location {
	res := make(fontra.Location, len(loc))
	for k, v := range loc {
		if tag, ok := mapping[k]; ok {
			res[tag] = v
		}
	}
	return res
}
