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

package varmodel

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/googlefonts/fontra-compile/fontra"
)

func TestCanonicalOrder(t *testing.T) {
	locations := []fontra.Location{
		{"wght": 1},
		{},
		{"wght": 0.5},
	}
	m, err := New(locations, []string{"wght"})
	if err != nil {
		t.Fatal(err)
	}

	want := []fontra.Location{
		{},
		{"wght": 0.5},
		{"wght": 1},
	}
	if d := cmp.Diff(want, m.Locations); d != "" {
		t.Errorf("locations mismatch (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]int{2, 0, 1}, m.Mapping); d != "" {
		t.Errorf("mapping mismatch (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]int{1, 2, 0}, m.ReverseMapping); d != "" {
		t.Errorf("reverse mapping mismatch (-want +got):\n%s", d)
	}
}

func TestAxisOrder(t *testing.T) {
	locations := []fontra.Location{
		{},
		{"alpha": 1},
		{"beta": 1},
	}
	m, err := New(locations, []string{"beta"})
	if err != nil {
		t.Fatal(err)
	}

	// axes named in the axis order sort ahead of the rest
	want := []fontra.Location{
		{},
		{"beta": 1},
		{"alpha": 1},
	}
	if d := cmp.Diff(want, m.Locations); d != "" {
		t.Errorf("locations mismatch (-want +got):\n%s", d)
	}
}

func TestSupports(t *testing.T) {
	locations := []fontra.Location{
		{},
		{"wght": 0.5},
		{"wght": 1},
		{"wdth": 1},
		{"wght": 1, "wdth": 1},
	}
	m, err := New(locations, []string{"wght", "wdth"})
	if err != nil {
		t.Fatal(err)
	}

	want := []Support{
		{},
		{"wght": {0, 0.5, 1}},
		{"wght": {0.5, 1, 1}}, // narrowed by the intermediate master
		{"wdth": {0, 1, 1}},
		{"wght": {0, 1, 1}, "wdth": {0, 1, 1}},
	}
	if d := cmp.Diff(want, m.Supports); d != "" {
		t.Errorf("supports mismatch (-want +got):\n%s", d)
	}
}

func TestDeltas(t *testing.T) {
	// a triangle that gets wider and taller towards the bold master
	locations := []fontra.Location{
		{},
		{"wght": 1},
	}
	m, err := New(locations, []string{"wght"})
	if err != nil {
		t.Fatal(err)
	}

	masterValues := [][]float64{
		{0, 0, 100, 0, 100, 200},
		{0, 0, 120, 0, 120, 240},
	}
	deltas, err := m.Deltas(masterValues)
	if err != nil {
		t.Fatal(err)
	}

	want := [][]float64{
		{0, 0, 100, 0, 100, 200},
		{0, 0, 20, 0, 20, 40},
	}
	if d := cmp.Diff(want, deltas); d != "" {
		t.Errorf("deltas mismatch (-want +got):\n%s", d)
	}

	got := m.Interpolate(fontra.Location{"wght": 0.5}, deltas)
	wantMid := []float64{0, 0, 110, 0, 110, 220}
	if d := cmp.Diff(wantMid, got); d != "" {
		t.Errorf("midpoint mismatch (-want +got):\n%s", d)
	}
}

// TestRoundTrip checks that interpolating the solved deltas at each
// master location reproduces the master values exactly.
func TestRoundTrip(t *testing.T) {
	locations := []fontra.Location{
		{},
		{"wght": 1},
		{"wght": 0.4},
		{"wdth": 1},
		{"wght": 1, "wdth": 1},
	}
	m, err := New(locations, []string{"wght", "wdth"})
	if err != nil {
		t.Fatal(err)
	}

	masterValues := [][]float64{
		{10, -3},
		{25, 7},
		{12, 0},
		{-5, 40},
		{30, 50},
	}
	deltas, err := m.Deltas(masterValues)
	if err != nil {
		t.Fatal(err)
	}

	for i, loc := range locations {
		got := m.Interpolate(loc, deltas)
		for k, v := range masterValues[i] {
			if math.Abs(got[k]-v) > 1e-9 {
				t.Errorf("master %d (%v): got %v, want %v", i, loc, got, masterValues[i])
				break
			}
		}
	}
}

func TestSupportScalar(t *testing.T) {
	support := Support{"wght": {0, 0.5, 1}}
	cases := []struct {
		loc  fontra.Location
		want float64
	}{
		{fontra.Location{}, 0},
		{fontra.Location{"wght": 0.25}, 0.5},
		{fontra.Location{"wght": 0.5}, 1},
		{fontra.Location{"wght": 0.75}, 0.5},
		{fontra.Location{"wght": 1}, 0},
		{fontra.Location{"wght": -0.5}, 0},
	}
	for _, c := range cases {
		if got := SupportScalar(c.loc, support); math.Abs(got-c.want) > 1e-12 {
			t.Errorf("scalar at %v: got %g, want %g", c.loc, got, c.want)
		}
	}
}

func TestModelErrors(t *testing.T) {
	var modelErr *ModelError

	_, err := New([]fontra.Location{{}, {"wght": 0}}, nil)
	if !errors.As(err, &modelErr) {
		t.Errorf("duplicate locations: got %v", err)
	}

	_, err = New([]fontra.Location{{"wght": 1}}, nil)
	if !errors.As(err, &modelErr) {
		t.Errorf("missing base master: got %v", err)
	}

	m, err := New([]fontra.Location{{}, {"wght": 1}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = m.Deltas([][]float64{{1}})
	if !errors.As(err, &modelErr) {
		t.Errorf("master count mismatch: got %v", err)
	}
}
