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
	"log/slog"
	"math"
	"sort"
	"time"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/postscript/funit"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyph"

	"github.com/googlefonts/fontra-compile/opentype"
	"github.com/googlefonts/fontra-compile/opentype/cff2"
	"github.com/googlefonts/fontra-compile/opentype/glyf"
	"github.com/googlefonts/fontra-compile/opentype/gvar"
	"github.com/googlefonts/fontra-compile/opentype/hvar"
	"github.com/googlefonts/fontra-compile/opentype/varc"
)

// Build compiles every glyph in the work queue and assembles the font.
// Setup must have been called first.
func (b *Builder) Build(ctx context.Context) (*opentype.Font, error) {
	if err := b.buildGlyphs(ctx); err != nil {
		return nil, err
	}
	return b.assemble()
}

func (b *Builder) assemble() (*opentype.Font, error) {
	gids := make(map[string]glyph.ID, len(b.glyphOrder))
	for i, name := range b.glyphOrder {
		gids[name] = glyph.ID(i)
	}

	localTagSet := make(map[string]bool)
	for _, info := range b.glyphInfos {
		for tag := range info.localAxisTags {
			localTagSet[tag] = true
		}
	}
	localTags := make([]string, 0, len(localTagSet))
	for tag := range localTagSet {
		localTags = append(localTags, tag)
	}
	sort.Strings(localTags)

	var axes []opentype.Axis
	var axisTags []string
	for _, axis := range b.globalAxes {
		axes = append(axes, opentype.Axis{
			Tag:     axis.Tag,
			Name:    axis.Name,
			Min:     axis.Min,
			Default: axis.Default,
			Max:     axis.Max,
			Hidden:  axis.Hidden,
			Map:     axis.Map,
		})
		axisTags = append(axisTags, axis.Tag)
	}
	for _, tag := range localTags {
		axes = append(axes, opentype.Axis{
			Tag:     tag,
			Name:    tag,
			Min:     -1,
			Default: 0,
			Max:     1,
			Hidden:  true,
		})
		axisTags = append(axisTags, tag)
	}

	now := time.Now()
	font := &opentype.Font{
		UnitsPerEm:       uint16(b.unitsPerEm),
		CreationTime:     now,
		ModificationTime: now,
		Axes:             axes,
		Ascent:           int16(otRound(0.75 * float64(b.unitsPerEm))),
		Descent:          int16(-otRound(0.25 * float64(b.unitsPerEm))),
	}

	font.CMap = make(cmap.Format4)
	for codePoint, name := range b.cmap {
		if codePoint > 0xFFFF {
			b.log.Debug("code point outside the basic multilingual plane ignored",
				slog.Int("codePoint", int(codePoint)),
				slog.String("glyph", name))
			continue
		}
		font.CMap[uint16(codePoint)] = gids[name]
	}

	font.Widths = make([]uint16, len(b.glyphOrder))
	font.LSBs = make([]int16, len(b.glyphOrder))

	if b.opts.CFF2 {
		if err := b.assembleCFF2(font, axisTags); err != nil {
			return nil, err
		}
	} else {
		if err := b.assembleGlyf(font, axisTags, gids); err != nil {
			return nil, err
		}
	}

	if err := b.assembleVARC(font, axisTags, gids); err != nil {
		return nil, err
	}
	b.assembleHVAR(font, axisTags)

	for i, name := range b.glyphOrder {
		font.Widths[i] = clampWidth(b.glyphInfos[name].xAdvance)
	}

	return font, nil
}

func clampWidth(w float64) uint16 {
	v := otRound(w)
	if v < 0 {
		v = 0
	} else if v > 0xFFFF {
		v = 0xFFFF
	}
	return uint16(v)
}

// assembleGlyf fills in the glyf outlines, classic composites, gvar
// variations and left side bearings.
func (b *Builder) assembleGlyf(font *opentype.Font, axisTags []string, gids map[string]glyph.ID) error {
	glyphs := make(glyf.Glyphs, len(b.glyphOrder))
	for i, name := range b.glyphOrder {
		info := b.glyphInfos[name]
		if b.isClassicComposite(info) {
			g := &glyf.Glyph{}
			for _, ci := range info.components {
				g.Components = append(g.Components, glyf.Component{
					GlyphIndex: gids[ci.baseName],
					Trafo:      componentMatrix(&ci.transform),
				})
			}
			glyphs[i] = g
		} else {
			glyphs[i] = info.outline
		}
	}

	// composite bounding boxes need the bounds of their bases
	bboxes := make(map[glyph.ID]funit.Rect16)
	var computeBBox func(gid glyph.ID, visited map[glyph.ID]bool) funit.Rect16
	computeBBox = func(gid glyph.ID, visited map[glyph.ID]bool) funit.Rect16 {
		if bbox, ok := bboxes[gid]; ok {
			return bbox
		}
		if visited[gid] {
			return funit.Rect16{}
		}
		visited[gid] = true

		g := glyphs[gid]
		var bbox funit.Rect16
		switch {
		case g.IsEmpty():
		case len(g.Components) > 0:
			for _, comp := range g.Components {
				base := computeBBox(comp.GlyphIndex, visited)
				if base.IsZero() {
					continue
				}
				corners := [4][2]float64{
					{float64(base.LLx), float64(base.LLy)},
					{float64(base.URx), float64(base.LLy)},
					{float64(base.LLx), float64(base.URy)},
					{float64(base.URx), float64(base.URy)},
				}
				for _, c := range corners {
					m := comp.Trafo
					x := funit.Int16(otRound(m[0]*c[0] + m[2]*c[1] + m[4]))
					y := funit.Int16(otRound(m[1]*c[0] + m[3]*c[1] + m[5]))
					bbox.Extend(funit.Rect16{LLx: x, LLy: y, URx: x, URy: y})
				}
			}
		default:
			for _, contour := range g.Contours {
				for _, pt := range contour {
					bbox.Extend(funit.Rect16{LLx: pt.X, LLy: pt.Y, URx: pt.X, URy: pt.Y})
				}
			}
		}
		bboxes[gid] = bbox
		return bbox
	}

	for i := range b.glyphOrder {
		gid := glyph.ID(i)
		bbox := computeBBox(gid, make(map[glyph.ID]bool))
		if len(glyphs[gid].Components) > 0 {
			glyphs[gid].BBox = bbox
		}
		if !glyphs[gid].IsEmpty() {
			font.LSBs[i] = int16(bbox.LLx)
		}
	}
	font.Glyphs = glyphs

	variations := make([][]gvar.Variation, len(b.glyphOrder))
	haveVariations := false
	for i, name := range b.glyphOrder {
		variations[i] = b.glyphInfos[name].variations
		if len(variations[i]) > 0 {
			haveVariations = true
		}
	}
	if haveVariations {
		font.Gvar = &gvar.Table{AxisTags: axisTags, Variations: variations}
	}
	return nil
}

// assembleCFF2 builds the CFF2 table from the per-source cubic paths.
// Glyphs whose charstring cannot be merged degrade to an empty one.
func (b *Builder) assembleCFF2(font *opentype.Font, axisTags []string) error {
	cb := cff2.NewBuilder(axisTags)
	for i, name := range b.glyphOrder {
		info := b.glyphInfos[name]
		if info.cubicPaths == nil {
			cb.AddEmptyGlyph()
			continue
		}
		if err := cb.AddGlyph(info.model, info.cubicPaths); err != nil {
			b.log.Warn("cannot build charstring, using empty placeholder",
				slog.String("glyph", name),
				slog.Any("error", err))
			cb.AddEmptyGlyph()
			continue
		}

		defaultPath := info.cubicPaths[info.model.ReverseMapping[0]]
		lsb := math.Inf(1)
		for _, contour := range defaultPath.Contours {
			for _, pt := range contour.Points {
				lsb = math.Min(lsb, pt.X)
			}
		}
		if !math.IsInf(lsb, 1) {
			font.LSBs[i] = int16(otRound(lsb))
		}
	}
	font.CFF2 = cb.Encode()
	return nil
}

// isClassicComposite reports whether a glyph can be encoded as a
// classic glyf composite: components only, all of them static and
// without a pinned location.
func (b *Builder) isClassicComposite(info *glyphInfo) bool {
	if b.opts.CFF2 || len(info.components) == 0 || info.hasContours {
		return false
	}
	for _, ci := range info.components {
		if len(ci.location) > 0 {
			return false
		}
		if ci.flags&(varc.HaveAxes|varc.AxisValuesHaveVariation|varc.TransformHasVariation) != 0 {
			return false
		}
	}
	return true
}

// componentMatrix converts the static decomposed transform of a
// component into the matrix of a classic composite.
func componentMatrix(t *[varc.NumTransformFields][]float64) matrix.Matrix {
	get := func(f varc.TransformFieldIndex) float64 {
		if len(t[f]) == 0 {
			return varc.TransformFields[f].Default
		}
		return t[f][0]
	}
	const deg = math.Pi / 180
	tx, ty := get(varc.FieldTranslateX), get(varc.FieldTranslateY)
	tcx, tcy := get(varc.FieldTCenterX), get(varc.FieldTCenterY)

	m := matrix.Translate(-tcx, -tcy)
	m = m.Mul(matrix.Matrix{
		1, math.Tan(get(varc.FieldSkewY) * deg),
		math.Tan(-get(varc.FieldSkewX) * deg), 1,
		0, 0,
	})
	m = m.Mul(matrix.Scale(get(varc.FieldScaleX), get(varc.FieldScaleY)))
	m = m.Mul(matrix.RotateDeg(get(varc.FieldRotation)))
	m = m.Mul(matrix.Translate(tx+tcx, ty+tcy))
	return m
}

// assembleVARC builds the VARC table from the glyphs with variable
// components.
func (b *Builder) assembleVARC(font *opentype.Font, axisTags []string, gids map[string]glyph.ID) error {
	table := &varc.Table{Store: varc.NewStoreBuilder(axisTags)}

	tagIndex := make(map[string]int, len(axisTags))
	for i, tag := range axisTags {
		tagIndex[tag] = i
	}

	for _, name := range b.glyphOrder {
		info := b.glyphInfos[name]
		if len(info.components) == 0 || b.isClassicComposite(info) {
			continue
		}

		if err := table.Store.SetModel(info.model); err != nil {
			return err
		}

		var components []varc.Component
		for _, ci := range info.components {
			comp := varc.Component{
				Flags:   ci.flags,
				GlyphID: gids[ci.baseName],
			}

			if err := b.componentTransform(&comp, ci, table.Store); err != nil {
				return err
			}
			if err := b.componentAxes(&comp, ci, table.Store, tagIndex); err != nil {
				return fmt.Errorf("glyph %q: %w", name, err)
			}
			components = append(components, comp)
		}

		if info.hasContours {
			components = append(components, varc.Component{GlyphID: gids[name]})
		}

		table.Glyphs = append(table.Glyphs, varc.Glyph{
			GlyphID:    gids[name],
			Components: components,
		})
	}

	if len(table.Glyphs) > 0 {
		font.Varc = table
	}
	return nil
}

// componentTransform quantizes the flagged transform fields and, when
// they vary, stores their master values.
func (b *Builder) componentTransform(comp *varc.Component, ci *componentInfo, store *varc.StoreBuilder) error {
	var fields []varc.TransformFieldIndex
	for f := varc.TransformFieldIndex(0); f < varc.NumTransformFields; f++ {
		if ci.flags&varc.TransformFields[f].Flag != 0 {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return nil
	}

	numSources := len(ci.transform[fields[0]])
	masterValues := make([][]int32, numSources)
	for i := 0; i < numSources; i++ {
		row := make([]int32, len(fields))
		for k, f := range fields {
			field := varc.TransformFields[f]
			row[k] = fl2fi(ci.transform[f][i]/field.Scale, field.FractionalBits)
		}
		masterValues[i] = row
	}

	if ci.flags&varc.TransformHasVariation != 0 {
		base, varIdx, err := store.StoreMasters(masterValues)
		if err != nil {
			return err
		}
		comp.TransformValues = base
		comp.TransformVarIndex = varIdx
	} else {
		comp.TransformValues = masterValues[0]
	}
	return nil
}

// componentAxes maps the component location to font axis indices,
// quantizes the values, and stores their variation when present.
func (b *Builder) componentAxes(comp *varc.Component, ci *componentInfo, store *varc.StoreBuilder, tagIndex map[string]int) error {
	if len(ci.location) == 0 {
		return nil
	}

	tags := make([]string, 0, len(ci.location))
	byTag := make(map[string][]float64, len(ci.location))
	for axisName, values := range ci.location {
		tag, ok := ci.base.baseAxisTags[axisName]
		if !ok {
			return fmt.Errorf("no tag for component axis %q", axisName)
		}
		tags = append(tags, tag)
		byTag[tag] = values
	}
	sort.Strings(tags)

	numSources := 0
	comp.AxisIndices = make([]uint16, len(tags))
	for i, tag := range tags {
		idx, ok := tagIndex[tag]
		if !ok {
			return fmt.Errorf("component axis %q not in font axes", tag)
		}
		comp.AxisIndices[i] = uint16(idx)
		numSources = len(byTag[tag])
	}

	masterValues := make([][]int32, numSources)
	for i := 0; i < numSources; i++ {
		row := make([]int32, len(tags))
		for k, tag := range tags {
			row[k] = fl2fi(byTag[tag][i], varc.AxisValueFractionalBits)
		}
		masterValues[i] = row
	}

	if ci.flags&varc.AxisValuesHaveVariation != 0 {
		base, varIdx, err := store.StoreMasters(masterValues)
		if err != nil {
			return err
		}
		comp.AxisValues = base
		comp.AxisValuesVarIndex = varIdx
	} else {
		comp.AxisValues = masterValues[0]
	}
	return nil
}

// assembleHVAR routes the per-master advance widths through each
// glyph's model into a shared item variation store.
func (b *Builder) assembleHVAR(font *opentype.Font, axisTags []string) {
	store := hvar.NewBuilder(axisTags)
	mappings := make([]uint32, len(b.glyphOrder))
	for i, name := range b.glyphOrder {
		info := b.glyphInfos[name]
		if info.model == nil || info.model.NumMasters() < 2 {
			mappings[i] = store.StoreZero()
			continue
		}
		if err := store.SetModel(info.model); err != nil {
			mappings[i] = store.StoreZero()
			continue
		}
		varIdx, err := store.StoreMasters(info.masterAdvances)
		if err != nil {
			mappings[i] = store.StoreZero()
			continue
		}
		mappings[i] = varIdx
	}
	font.Hvar = &hvar.Table{Store: store, Mappings: mappings}
}

// fl2fi converts a float to fixed point with the given number of
// fraction bits.
func fl2fi(v float64, bits int) int32 {
	return int32(math.Floor(v*float64(int64(1)<<uint(bits)) + 0.5))
}
