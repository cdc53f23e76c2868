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

// Package varmodel implements the multi-master variation model: given a
// set of normalized design-space locations it computes a canonical
// master ordering, a support region per master, and delta vectors whose
// weighted sum reproduces each master exactly.
//
// The ordering, support-shrinking and back-substitution rules follow the
// model used by existing variable-font tooling bit for bit; the values
// stored in gvar, VARC and HVAR are only meaningful relative to this
// exact construction.
package varmodel

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/googlefonts/fontra-compile/fontra"
)

// AxisRange is the support of a master on one axis: influence is zero
// outside (Min, Max) and maximal at Peak.
type AxisRange struct {
	Min  float64
	Peak float64
	Max  float64
}

// Support describes where a master has non-zero influence.  Axes not
// present do not constrain the master.
type Support map[string]AxisRange

// ModelError indicates that a model could not be built from the given
// locations.
type ModelError struct {
	Reason string
}

func (err *ModelError) Error() string {
	return "variation model: " + err.Reason
}

// Model is a solved variation model over a fixed set of master
// locations.
type Model struct {
	// Locations holds the master locations in canonical order, sparse
	// (axes at 0 omitted).  Locations[0] is the all-default master.
	Locations []fontra.Location

	// Supports holds one support region per master, aligned with
	// Locations.
	Supports []Support

	// Mapping maps input indices to canonical indices.
	Mapping []int

	// ReverseMapping maps canonical indices to input indices.
	// ReverseMapping[0] is the input index of the all-default master.
	ReverseMapping []int

	axisOrder    []string
	deltaWeights [][]deltaWeight
}

type deltaWeight struct {
	index  int
	weight float64
}

// New builds a model from the given normalized locations.  Locations
// must be distinct after dropping zero-valued axes, and one of them must
// be the all-default location.
func New(locations []fontra.Location, axisOrder []string) (*Model, error) {
	sparse := make([]fontra.Location, len(locations))
	for i, loc := range locations {
		s := make(fontra.Location)
		for k, v := range loc {
			if v != 0 {
				s[k] = v
			}
		}
		sparse[i] = s
	}

	seen := make(map[string]bool, len(sparse))
	hasBase := false
	for _, loc := range sparse {
		key := locationKey(loc)
		if seen[key] {
			return nil, &ModelError{Reason: "locations are not unique"}
		}
		seen[key] = true
		if len(loc) == 0 {
			hasBase = true
		}
	}
	if !hasBase {
		return nil, &ModelError{Reason: "base master not found"}
	}

	m := &Model{axisOrder: axisOrder}

	order := make([]int, len(sparse))
	for i := range order {
		order[i] = i
	}
	keys := make([]masterSortKey, len(sparse))
	axisPoints := collectAxisPoints(sparse)
	for i, loc := range sparse {
		keys[i] = makeSortKey(loc, axisPoints, axisOrder)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return keys[order[i]].less(keys[order[j]])
	})

	m.Locations = make([]fontra.Location, len(sparse))
	m.Mapping = make([]int, len(sparse))
	m.ReverseMapping = make([]int, len(sparse))
	for sortedIdx, origIdx := range order {
		m.Locations[sortedIdx] = sparse[origIdx]
		m.Mapping[origIdx] = sortedIdx
		m.ReverseMapping[sortedIdx] = origIdx
	}

	m.computeSupports()
	m.computeDeltaWeights()

	return m, nil
}

// NumMasters returns the number of masters in the model.
func (m *Model) NumMasters() int {
	return len(m.Locations)
}

func locationKey(loc fontra.Location) string {
	axes := maps.Keys(loc)
	slices.Sort(axes)
	var sb strings.Builder
	for _, axis := range axes {
		fmt.Fprintf(&sb, "%s=%g;", axis, loc[axis])
	}
	return sb.String()
}

// axisPoints records, per axis, the values pinned by single-axis
// masters.  Masters sitting on such values sort ahead of masters that
// are off-point on the same axis.
func collectAxisPoints(locations []fontra.Location) map[string]map[float64]bool {
	points := make(map[string]map[float64]bool)
	for _, loc := range locations {
		if len(loc) != 1 {
			continue
		}
		for axis, value := range loc {
			if points[axis] == nil {
				points[axis] = map[float64]bool{0: true}
			}
			points[axis][value] = true
		}
	}
	return points
}

type masterSortKey struct {
	rank        int
	onPoint     int // negated count of on-point axes
	axisIndices []int
	axisNames   []string
	signs       []int
	magnitudes  []float64
}

func makeSortKey(loc fontra.Location, axisPoints map[string]map[float64]bool, axisOrder []string) masterSortKey {
	key := masterSortKey{rank: len(loc)}

	for axis, value := range loc {
		if axisPoints[axis] != nil && axisPoints[axis][value] {
			key.onPoint--
		}
	}

	var ordered []string
	for _, axis := range axisOrder {
		if _, ok := loc[axis]; ok {
			ordered = append(ordered, axis)
		}
	}
	rest := make([]string, 0, len(loc))
	for axis := range loc {
		if !slices.Contains(axisOrder, axis) {
			rest = append(rest, axis)
		}
	}
	slices.Sort(rest)
	ordered = append(ordered, rest...)

	for _, axis := range ordered {
		idx := slices.Index(axisOrder, axis)
		if idx < 0 {
			idx = 0x10000
		}
		key.axisIndices = append(key.axisIndices, idx)
		key.axisNames = append(key.axisNames, axis)
		v := loc[axis]
		switch {
		case v < 0:
			key.signs = append(key.signs, -1)
		case v > 0:
			key.signs = append(key.signs, 1)
		default:
			key.signs = append(key.signs, 0)
		}
		key.magnitudes = append(key.magnitudes, math.Abs(v))
	}
	return key
}

func (a masterSortKey) less(b masterSortKey) bool {
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	if a.onPoint != b.onPoint {
		return a.onPoint < b.onPoint
	}
	for i := range a.axisIndices {
		if a.axisIndices[i] != b.axisIndices[i] {
			return a.axisIndices[i] < b.axisIndices[i]
		}
	}
	for i := range a.axisNames {
		if a.axisNames[i] != b.axisNames[i] {
			return a.axisNames[i] < b.axisNames[i]
		}
	}
	for i := range a.signs {
		if a.signs[i] != b.signs[i] {
			return a.signs[i] < b.signs[i]
		}
	}
	for i := range a.magnitudes {
		if a.magnitudes[i] != b.magnitudes[i] {
			return a.magnitudes[i] < b.magnitudes[i]
		}
	}
	return false
}

// computeSupports derives the support region of each master.  The
// initial region extends from zero toward the master's value out to the
// observed axis extreme; earlier masters with the same axis set lying
// strictly inside the region narrow it, splitting along the axis (or
// axes) with the largest shrink ratio.
func (m *Model) computeSupports() {
	minV := make(map[string]float64)
	maxV := make(map[string]float64)
	for _, loc := range m.Locations {
		for axis, v := range loc {
			if cur, ok := minV[axis]; !ok || v < cur {
				minV[axis] = v
			}
			if cur, ok := maxV[axis]; !ok || v > cur {
				maxV[axis] = v
			}
		}
	}

	regions := make([]Support, len(m.Locations))
	for i, loc := range m.Locations {
		region := make(Support, len(loc))
		for axis, v := range loc {
			if v > 0 {
				region[axis] = AxisRange{Min: 0, Peak: v, Max: maxV[axis]}
			} else {
				region[axis] = AxisRange{Min: minV[axis], Peak: v, Max: 0}
			}
		}
		regions[i] = region
	}

	m.Supports = make([]Support, len(regions))
	for i, region := range regions {
		axes := maps.Keys(region)
		slices.Sort(axes)

		for _, prev := range regions[:i] {
			if !sameAxisSet(prev, region) {
				continue
			}
			relevant := true
			for axis, r := range region {
				p := prev[axis].Peak
				if !(p == r.Peak || (r.Min < p && p < r.Max)) {
					relevant = false
					break
				}
			}
			if !relevant {
				continue
			}

			// Split the region to stop just at the earlier master, in
			// whatever direction barely covers it.
			bestRatio := -1.0
			bestAxes := make(map[string]AxisRange)
			for _, axis := range axes {
				val := prev[axis].Peak
				r := region[axis]
				var ratio float64
				newRange := r
				switch {
				case val < r.Peak:
					newRange.Min = val
					ratio = (val - r.Peak) / (r.Min - r.Peak)
				case val > r.Peak:
					newRange.Max = val
					ratio = (val - r.Peak) / (r.Max - r.Peak)
				default:
					continue
				}
				if ratio > bestRatio {
					bestRatio = ratio
					bestAxes = make(map[string]AxisRange)
				}
				if ratio == bestRatio {
					bestAxes[axis] = newRange
				}
			}
			for axis, r := range bestAxes {
				region[axis] = r
			}
		}
		m.Supports[i] = region
	}
}

func sameAxisSet(a, b Support) bool {
	if len(a) != len(b) {
		return false
	}
	for axis := range a {
		if _, ok := b[axis]; !ok {
			return false
		}
	}
	return true
}

func (m *Model) computeDeltaWeights() {
	m.deltaWeights = make([][]deltaWeight, len(m.Locations))
	for i, loc := range m.Locations {
		var weights []deltaWeight
		for j, support := range m.Supports[:i] {
			scalar := SupportScalar(loc, support)
			if scalar != 0 {
				weights = append(weights, deltaWeight{index: j, weight: scalar})
			}
		}
		m.deltaWeights[i] = weights
	}
}

// SupportScalar evaluates the influence of a master with the given
// support at the query location: the product over axes of a tent
// function that is 1 at the peak and falls to 0 at the support edges.
func SupportScalar(loc fontra.Location, support Support) float64 {
	scalar := 1.0
	for axis, r := range support {
		if r.Peak == 0 {
			continue
		}
		if r.Min > r.Peak || r.Peak > r.Max {
			continue
		}
		if r.Min < 0 && r.Max > 0 {
			continue
		}
		v := loc[axis]
		if v == r.Peak {
			continue
		}
		if v <= r.Min || r.Max <= v {
			return 0
		}
		if v < r.Peak {
			scalar *= (v - r.Min) / (r.Peak - r.Min)
		} else {
			scalar *= (v - r.Max) / (r.Peak - r.Max)
		}
	}
	return scalar
}

// Deltas solves the per-master delta vectors for the given per-master
// value vectors (indexed like the locations passed to New).  The
// returned deltas are in canonical master order; deltas[0] is the
// default master's values unchanged.
func (m *Model) Deltas(masterValues [][]float64) ([][]float64, error) {
	if len(masterValues) != len(m.Locations) {
		return nil, &ModelError{Reason: fmt.Sprintf(
			"got %d master values for %d masters", len(masterValues), len(m.Locations))}
	}
	dim := len(masterValues[0])
	for _, vec := range masterValues[1:] {
		if len(vec) != dim {
			return nil, &ModelError{Reason: "master value vectors differ in length"}
		}
	}

	out := make([][]float64, 0, len(masterValues))
	for i, weights := range m.deltaWeights {
		delta := make([]float64, dim)
		copy(delta, masterValues[m.ReverseMapping[i]])
		for _, dw := range weights {
			prev := out[dw.index]
			if dw.weight == 1 {
				for k := range delta {
					delta[k] -= prev[k]
				}
			} else {
				for k := range delta {
					delta[k] -= prev[k] * dw.weight
				}
			}
		}
		out = append(out, delta)
	}
	return out, nil
}

// Scalars returns the weight of every master at the given location, in
// canonical order.
func (m *Model) Scalars(loc fontra.Location) []float64 {
	res := make([]float64, len(m.Supports))
	for i, support := range m.Supports {
		res[i] = SupportScalar(loc, support)
	}
	return res
}

// Interpolate evaluates the model at the given location from solved
// deltas: the weighted sum over all masters.
func (m *Model) Interpolate(loc fontra.Location, deltas [][]float64) []float64 {
	if len(deltas) == 0 {
		return nil
	}
	res := make([]float64, len(deltas[0]))
	for i, scalar := range m.Scalars(loc) {
		if scalar == 0 {
			continue
		}
		for k, d := range deltas[i] {
			res[k] += d * scalar
		}
	}
	return res
}
