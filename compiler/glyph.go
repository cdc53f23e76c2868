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

package compiler

import (
	"context"
	"fmt"
	"math"

	"seehuhn.de/go/postscript/funit"

	"github.com/googlefonts/fontra-compile/designspace"
	"github.com/googlefonts/fontra-compile/fontra"
	"github.com/googlefonts/fontra-compile/opentype/glyf"
	"github.com/googlefonts/fontra-compile/opentype/gvar"
	"github.com/googlefonts/fontra-compile/varmodel"
)

// buildOneGlyph compiles a single glyph: it merges global and local
// axes, normalizes the source locations, builds the variation model,
// and derives the outline deltas and component info.
func (b *Builder) buildOneGlyph(ctx context.Context, glyphName string) (*glyphInfo, error) {
	glyph, err := b.getSourceGlyph(ctx, glyphName, false)
	if err != nil {
		return nil, err
	}
	if glyph == nil {
		return nil, &MissingBaseGlyphError{Glyph: glyphName, Base: glyphName}
	}

	axisDict := make(map[string]designspace.AxisTriple, len(b.globalAxisDict)+len(glyph.Axes))
	for name, triple := range b.globalAxisDict {
		axisDict[name] = triple
	}
	defaultLocation := b.defaultLocation.Copy()
	localNames := make([]string, len(glyph.Axes))
	for i, axis := range glyph.Axes {
		triple := designspace.GlyphAxisTriple(axis)
		axisDict[axis.Name] = triple
		defaultLocation[axis.Name] = triple.Default
		localNames[i] = axis.Name
	}
	localTags := designspace.AssignLocalTags(localNames, b.isGlobalAxis)
	axisTags := make(map[string]string, len(b.globalAxisTags)+len(localTags))
	for name, tag := range b.globalAxisTags {
		axisTags[name] = tag
	}
	for name, tag := range localTags {
		axisTags[name] = tag
	}

	components, err := b.collectComponentInfo(ctx, glyph)
	if err != nil {
		return nil, err
	}

	glyphSources := glyph.ActiveSources()
	if len(glyphSources) == 0 {
		return nil, &InterpolationError{Glyph: glyphName, Reason: "no active sources"}
	}

	var locations []fontra.Location
	var sourcePaths []fontra.Path
	var masterAdvances []float64
	var defaultGlyph *fontra.StaticGlyph

	for _, source := range glyphSources {
		layer := glyph.Layers[source.LayerName]
		if layer == nil || layer.Glyph == nil {
			return nil, &InterpolationError{
				Glyph:  glyphName,
				Reason: fmt.Sprintf("missing layer %q", source.LayerName),
			}
		}
		sourceGlyph := layer.Glyph

		location := defaultLocation.Copy()
		for name, v := range source.Location {
			location[name] = v
		}
		locations = append(locations, designspace.NormalizeLocation(location, axisDict))

		if locationsEqual(location, defaultLocation) {
			defaultGlyph = sourceGlyph
		}

		if len(sourcePaths) > 0 && !sourcePaths[0].IsCompatible(sourceGlyph.Path) {
			return nil, &InterpolationError{
				Glyph:  glyphName,
				Reason: fmt.Sprintf("contours for source %q are not compatible", source.Name),
			}
		}
		sourcePaths = append(sourcePaths, sourceGlyph.Path)
		masterAdvances = append(masterAdvances, sourceGlyph.XAdvance)
	}
	if defaultGlyph == nil {
		return nil, &InterpolationError{Glyph: glyphName, Reason: "no source at the default location"}
	}

	mapped := make([]fontra.Location, len(locations))
	for i, loc := range locations {
		mapped[i] = designspace.MapKeys(loc, axisTags)
	}
	model, err := varmodel.New(mapped, nil)
	if err != nil {
		return nil, err
	}

	info := &glyphInfo{
		model:          model,
		xAdvance:       math.Max(defaultGlyph.XAdvance, 0),
		masterAdvances: masterAdvances,
		components:     components,
		localAxisTags:  make(map[string]bool, len(localTags)),
		hasContours:    len(defaultGlyph.Path.Contours) > 0,
	}
	for _, tag := range localTags {
		info.localAxisTags[tag] = true
	}

	if b.opts.CFF2 {
		info.cubicPaths = make([]fontra.Path, len(sourcePaths))
		for i, p := range sourcePaths {
			info.cubicPaths[i] = liftToCubic(p)
		}
		return info, nil
	}

	info.variations, err = b.outlineVariations(glyphName, model, sourcePaths, masterAdvances)
	if err != nil {
		return nil, err
	}
	info.outline, err = glyfOutline(glyphName, defaultGlyph.Path)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// outlineVariations solves the per-point deltas over the real outline
// points plus the four phantom points.
func (b *Builder) outlineVariations(glyphName string, model *varmodel.Model, sourcePaths []fontra.Path, masterAdvances []float64) ([]gvar.Variation, error) {
	numPoints := sourcePaths[0].NumPoints()
	sourceCoords := make([][]float64, len(sourcePaths))
	for i, p := range sourcePaths {
		coords := p.Coordinates()
		coords = append(coords, 0, 0, masterAdvances[i], 0, 0, 0, 0, 0)
		sourceCoords[i] = coords
	}

	deltas, err := model.Deltas(sourceCoords)
	if err != nil {
		return nil, err
	}

	var variations []gvar.Variation
	for i := 1; i < len(deltas); i++ {
		dx := make([]int16, numPoints+4)
		dy := make([]int16, numPoints+4)
		isZero := true
		for j := 0; j < numPoints+4; j++ {
			x := otRound(deltas[i][2*j])
			y := otRound(deltas[i][2*j+1])
			if x < -0x8000 || x > 0x7FFF || y < -0x8000 || y > 0x7FFF {
				return nil, &RangeError{Glyph: glyphName, What: "outline delta"}
			}
			if x != 0 || y != 0 {
				isZero = false
			}
			dx[j] = int16(x)
			dy[j] = int16(y)
		}
		if isZero {
			continue
		}
		variations = append(variations, gvar.Variation{
			Support: model.Supports[i],
			DeltasX: dx,
			DeltasY: dy,
		})
	}
	return variations, nil
}

// glyfOutline converts an outline to the quadratic glyf form.
func glyfOutline(glyphName string, p fontra.Path) (*glyf.Glyph, error) {
	g := &glyf.Glyph{}
	for _, c := range p.Contours {
		if len(c.Points) == 0 {
			continue
		}
		contour := make(glyf.Contour, 0, len(c.Points))
		for _, pt := range c.Points {
			if pt.Type == fontra.OffCurveCubic {
				return nil, &InterpolationError{
					Glyph:  glyphName,
					Reason: "cubic control point in truetype outline",
				}
			}
			x := otRound(pt.X)
			y := otRound(pt.Y)
			if x < -0x8000 || x > 0x7FFF || y < -0x8000 || y > 0x7FFF {
				return nil, &RangeError{Glyph: glyphName, What: "outline coordinate"}
			}
			contour = append(contour, glyf.Point{
				X:       funit.Int16(x),
				Y:       funit.Int16(y),
				OnCurve: pt.Type == fontra.OnCurve,
			})
		}
		g.Contours = append(g.Contours, contour)
	}
	return g, nil
}

// liftToCubic converts quadratic contours to cubic ones.  The result
// depends only on the point types, so compatible sources stay
// compatible.
func liftToCubic(p fontra.Path) fontra.Path {
	res := fontra.Path{Contours: make([]fontra.Contour, len(p.Contours))}
	for i, c := range p.Contours {
		res.Contours[i] = liftContour(c)
	}
	return res
}

func liftContour(c fontra.Contour) fontra.Contour {
	hasQuad := false
	for _, pt := range c.Points {
		if pt.Type == fontra.OffCurveQuad {
			hasQuad = true
			break
		}
	}
	if !hasQuad {
		return c
	}

	// materialize the implied on-curve points between adjacent
	// quadratic control points
	n := len(c.Points)
	expanded := make([]fontra.Point, 0, 2*n)
	for i, pt := range c.Points {
		expanded = append(expanded, pt)
		if pt.Type != fontra.OffCurveQuad {
			continue
		}
		if i == n-1 && !c.Closed {
			continue
		}
		next := c.Points[(i+1)%n]
		if next.Type == fontra.OffCurveQuad {
			mid := fontra.Point{
				X:    (pt.X + next.X) / 2,
				Y:    (pt.Y + next.Y) / 2,
				Type: fontra.OnCurve,
			}
			expanded = append(expanded, mid)
		}
	}

	// replace each quadratic control point by the two cubic ones
	m := len(expanded)
	out := make([]fontra.Point, 0, m+n)
	for i, pt := range expanded {
		if pt.Type != fontra.OffCurveQuad {
			out = append(out, pt)
			continue
		}
		prev := expanded[(i-1+m)%m]
		next := expanded[(i+1)%m]
		out = append(out,
			fontra.Point{
				X:    prev.X + 2*(pt.X-prev.X)/3,
				Y:    prev.Y + 2*(pt.Y-prev.Y)/3,
				Type: fontra.OffCurveCubic,
			},
			fontra.Point{
				X:    next.X + 2*(pt.X-next.X)/3,
				Y:    next.Y + 2*(pt.Y-next.Y)/3,
				Type: fontra.OffCurveCubic,
			})
	}
	return fontra.Contour{Points: out, Closed: c.Closed}
}

func locationsEqual(a, b fontra.Location) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || v != w {
			return false
		}
	}
	return true
}

func otRound(v float64) int {
	return int(math.Floor(v + 0.5))
}
