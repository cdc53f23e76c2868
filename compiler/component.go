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
	"errors"
	"fmt"
	"sort"

	"github.com/googlefonts/fontra-compile/designspace"
	"github.com/googlefonts/fontra-compile/fontra"
	"github.com/googlefonts/fontra-compile/opentype/varc"
)

// componentInfo is the analyzed form of one component, with per-source
// value arrays for the transform fields and the component location.
type componentInfo struct {
	baseName string

	// transform holds one value per active source for each of the nine
	// transform fields.
	transform [varc.NumTransformFields][]float64

	// location maps base axis names to one normalized value per active
	// source.
	location map[string][]float64

	flags varc.ComponentFlags
	base  *componentBaseInfo
}

// componentBaseInfo is the memoized axis information of a component
// base glyph.
type componentBaseInfo struct {
	localAxisNames       map[string]bool
	respondsToGlobalAxes bool
	baseAxisDict         map[string]designspace.AxisTriple
	baseAxisTags         map[string]string
}

// collectComponentInfo gathers the per-source component data of a glyph
// and derives the component flags.  Component count and base names must
// match across the active sources.
func (b *Builder) collectComponentInfo(ctx context.Context, glyph *fontra.VariableGlyph) ([]*componentInfo, error) {
	glyphSources := glyph.ActiveSources()
	if len(glyphSources) == 0 {
		return nil, &InterpolationError{Glyph: glyph.Name, Reason: "no active sources"}
	}

	sourceGlyphs := make([]*fontra.StaticGlyph, len(glyphSources))
	for i, source := range glyphSources {
		layer := glyph.Layers[source.LayerName]
		if layer == nil || layer.Glyph == nil {
			return nil, &InterpolationError{
				Glyph:  glyph.Name,
				Reason: fmt.Sprintf("missing layer %q", source.LayerName),
			}
		}
		sourceGlyphs[i] = layer.Glyph
	}

	firstSourceGlyph := sourceGlyphs[0]
	numComponents := len(firstSourceGlyph.Components)
	if numComponents == 0 {
		return nil, nil
	}
	for _, sourceGlyph := range sourceGlyphs {
		if len(sourceGlyph.Components) != numComponents {
			return nil, &InterpolationError{
				Glyph: glyph.Name,
				Reason: fmt.Sprintf("components not compatible: %d vs. %d",
					len(sourceGlyph.Components), numComponents),
			}
		}
	}

	// the union of axis names used per component, across all sources
	components := make([]*componentInfo, numComponents)
	for i, compo := range firstSourceGlyph.Components {
		axisNames := make(map[string]bool)
		for _, sourceGlyph := range sourceGlyphs {
			for axisName := range sourceGlyph.Components[i].Location {
				axisNames[axisName] = true
			}
		}
		location := make(map[string][]float64, len(axisNames))
		for axisName := range axisNames {
			location[axisName] = nil
		}

		baseInfo, err := b.getComponentBaseInfo(ctx, compo.BaseName)
		if err != nil {
			var missing *MissingBaseGlyphError
			if errors.As(err, &missing) && missing.Glyph == "" {
				missing.Glyph = glyph.Name
			}
			return nil, err
		}
		components[i] = &componentInfo{
			baseName: compo.BaseName,
			location: location,
			base:     baseInfo,
		}
	}

	for _, sourceGlyph := range sourceGlyphs {
		for i, compo := range sourceGlyph.Components {
			ci := components[i]
			if compo.BaseName != ci.baseName {
				return nil, &InterpolationError{
					Glyph: glyph.Name,
					Reason: fmt.Sprintf("components not compatible: %q vs. %q",
						compo.BaseName, ci.baseName),
				}
			}
			for f := varc.TransformFieldIndex(0); f < varc.NumTransformFields; f++ {
				ci.transform[f] = append(ci.transform[f], transformFieldValue(compo.Transform, f))
			}
			normLoc := designspace.NormalizeLocation(compo.Location, ci.base.baseAxisDict)
			for axisName, axisValue := range normLoc {
				if _, ok := ci.location[axisName]; ok {
					ci.location[axisName] = append(ci.location[axisName], axisValue)
				}
			}
		}
	}

	numSources := len(glyphSources)
	for _, ci := range components {
		isVariable := len(ci.location) > 0

		var flags varc.ComponentFlags
		if !ci.base.respondsToGlobalAxes {
			flags |= varc.ResetUnspecifiedAxes
		}
		if isVariable {
			flags |= varc.HaveAxes
		}

		for f := varc.TransformFieldIndex(0); f < varc.NumTransformFields; f++ {
			field := varc.TransformFields[f]
			values := ci.transform[f]
			present := false
			for _, v := range values {
				if v != field.Default {
					present = true
					break
				}
			}
			if !present {
				continue
			}
			flags |= field.Flag
			for _, v := range values[1:] {
				if v != values[0] {
					flags |= varc.TransformHasVariation
					break
				}
			}
		}

		// axes the component never pins stay out of the location
		for axisName, values := range ci.location {
			if len(values) == 0 {
				delete(ci.location, axisName)
			}
		}

		var axesAtDefault []string
		for axisName, values := range ci.location {
			varies := false
			for _, v := range values[1:] {
				if v != values[0] {
					varies = true
					break
				}
			}
			if varies {
				flags |= varc.AxisValuesHaveVariation
			} else if values[0] == 0 {
				axesAtDefault = append(axesAtDefault, axisName)
			}
		}

		if flags&varc.ResetUnspecifiedAxes != 0 {
			for _, axisName := range axesAtDefault {
				delete(ci.location, axisName)
			}
		} else {
			for axisName := range ci.base.localAxisNames {
				if _, ok := ci.location[axisName]; !ok {
					ci.location[axisName] = make([]float64, numSources)
				}
			}
		}

		ci.flags = flags
		b.ensureGlyphDependency(ci.baseName)
	}

	return components, nil
}

// getComponentBaseInfo returns the memoized axis information of a base
// glyph, computing it on first use.
func (b *Builder) getComponentBaseInfo(ctx context.Context, baseName string) (*componentBaseInfo, error) {
	if info, ok := b.baseInfos[baseName]; ok {
		return info, nil
	}

	baseGlyph, err := b.getSourceGlyph(ctx, baseName, true)
	if err != nil {
		return nil, err
	}
	if baseGlyph == nil {
		return nil, &MissingBaseGlyphError{Base: baseName}
	}

	responds, err := b.respondsToGlobalAxes(ctx, baseName, make(map[string]bool))
	if err != nil {
		return nil, err
	}

	localAxisNames := make(map[string]bool, len(baseGlyph.Axes))
	baseAxisDict := make(map[string]designspace.AxisTriple, len(b.globalAxisDict)+len(baseGlyph.Axes))
	for name, triple := range b.globalAxisDict {
		baseAxisDict[name] = triple
	}
	localNames := make([]string, len(baseGlyph.Axes))
	for i, axis := range baseGlyph.Axes {
		localAxisNames[axis.Name] = true
		baseAxisDict[axis.Name] = designspace.GlyphAxisTriple(axis)
		localNames[i] = axis.Name
	}
	baseAxisTags := make(map[string]string, len(baseAxisDict))
	for name, tag := range b.globalAxisTags {
		baseAxisTags[name] = tag
	}
	for name, tag := range designspace.AssignLocalTags(localNames, b.isGlobalAxis) {
		baseAxisTags[name] = tag
	}

	info := &componentBaseInfo{
		localAxisNames:       localAxisNames,
		respondsToGlobalAxes: responds,
		baseAxisDict:         baseAxisDict,
		baseAxisTags:         baseAxisTags,
	}
	b.baseInfos[baseName] = info
	return info, nil
}

// respondsToGlobalAxes reports whether the glyph, or any glyph in its
// component tree, varies along a font-wide axis.  The visited set stops
// the walk when the component graph contains a cycle.
func (b *Builder) respondsToGlobalAxes(ctx context.Context, name string, visited map[string]bool) (bool, error) {
	if info, ok := b.baseInfos[name]; ok {
		return info.respondsToGlobalAxes, nil
	}
	if visited[name] {
		return false, nil
	}
	visited[name] = true

	glyph, err := b.getSourceGlyph(ctx, name, true)
	if err != nil {
		return false, err
	}
	if glyph == nil {
		return false, &MissingBaseGlyphError{Base: name}
	}

	local := make(map[string]bool, len(glyph.Axes))
	for _, axis := range glyph.Axes {
		local[axis.Name] = true
	}
	for _, source := range glyph.Sources {
		for axisName := range source.Location {
			if !local[axisName] {
				return true, nil
			}
		}
	}

	for _, nested := range componentBaseNames(glyph) {
		responds, err := b.respondsToGlobalAxes(ctx, nested, visited)
		if err != nil {
			return false, err
		}
		if responds {
			return true, nil
		}
	}
	return false, nil
}

// componentBaseNames returns the distinct base names of the first
// active source, in sorted order.
func componentBaseNames(glyph *fontra.VariableGlyph) []string {
	sources := glyph.ActiveSources()
	if len(sources) == 0 {
		return nil
	}
	layer := glyph.Layers[sources[0].LayerName]
	if layer == nil || layer.Glyph == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, compo := range layer.Glyph.Components {
		if !seen[compo.BaseName] {
			seen[compo.BaseName] = true
			names = append(names, compo.BaseName)
		}
	}
	sort.Strings(names)
	return names
}

func transformFieldValue(t fontra.Transform, f varc.TransformFieldIndex) float64 {
	switch f {
	case varc.FieldTranslateX:
		return t.TranslateX
	case varc.FieldTranslateY:
		return t.TranslateY
	case varc.FieldRotation:
		return t.Rotation
	case varc.FieldScaleX:
		return t.ScaleX
	case varc.FieldScaleY:
		return t.ScaleY
	case varc.FieldTCenterX:
		return t.TCenterX
	case varc.FieldTCenterY:
		return t.TCenterY
	case varc.FieldSkewX:
		return t.SkewX
	case varc.FieldSkewY:
		return t.SkewY
	default:
		return 0
	}
}
