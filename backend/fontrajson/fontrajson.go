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

// Package fontrajson reads a font source from a single JSON document.
//
// The document holds the units per em, the font-wide axes, and the
// glyphs with their sources, layers, outlines and components.  All data
// is read up front; the backend methods only hand out the converted
// structures.
package fontrajson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/googlefonts/fontra-compile/fontra"
)

type document struct {
	UnitsPerEm int                       `json:"unitsPerEm"`
	Axes       []axis                    `json:"axes"`
	Glyphs     map[string]*variableGlyph `json:"glyphs"`
}

type axis struct {
	Name         string       `json:"name"`
	Tag          string       `json:"tag"`
	MinValue     float64      `json:"minValue"`
	DefaultValue float64      `json:"defaultValue"`
	MaxValue     float64      `json:"maxValue"`
	Hidden       bool         `json:"hidden"`
	Mapping      [][2]float64 `json:"mapping"`
}

type variableGlyph struct {
	CodePoints []int32           `json:"codePoints"`
	Axes       []glyphAxis       `json:"axes"`
	Sources    []source          `json:"sources"`
	Layers     map[string]*layer `json:"layers"`
}

type glyphAxis struct {
	Name         string  `json:"name"`
	MinValue     float64 `json:"minValue"`
	DefaultValue float64 `json:"defaultValue"`
	MaxValue     float64 `json:"maxValue"`
}

type source struct {
	Name      string             `json:"name"`
	Location  map[string]float64 `json:"location"`
	LayerName string             `json:"layerName"`
	Inactive  bool               `json:"inactive"`
}

type layer struct {
	Glyph staticGlyph `json:"glyph"`
}

type staticGlyph struct {
	Path       path        `json:"path"`
	Components []component `json:"components"`
	XAdvance   float64     `json:"xAdvance"`
}

type path struct {
	Contours []contour `json:"contours"`
}

type contour struct {
	Points   []point `json:"points"`
	IsClosed bool    `json:"isClosed"`
}

type point struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Type string  `json:"type"` // "", "quad" or "cubic"
}

type component struct {
	Name           string             `json:"name"`
	Transformation *transformation    `json:"transformation"`
	Location       map[string]float64 `json:"location"`
}

type transformation struct {
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
	Rotation   float64 `json:"rotation"`
	ScaleX     float64 `json:"scaleX"`
	ScaleY     float64 `json:"scaleY"`
	SkewX      float64 `json:"skewX"`
	SkewY      float64 `json:"skewY"`
	TCenterX   float64 `json:"tCenterX"`
	TCenterY   float64 `json:"tCenterY"`
}

// Fields left out of the document keep their identity value.
func (t *transformation) UnmarshalJSON(data []byte) error {
	type raw transformation
	v := raw{ScaleX: 1, ScaleY: 1}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = transformation(v)
	return nil
}

// Backend is a fontra.ReadableFontBackend backed by a JSON document.
type Backend struct {
	unitsPerEm int
	axes       []fontra.Axis
	glyphs     map[string]*fontra.VariableGlyph
	glyphMap   map[string][]rune
}

// Load reads the JSON document at the given path.
func Load(fname string) (*Backend, error) {
	fd, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	b, err := Read(fd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return b, nil
}

// Read reads a JSON document from r.
func Read(r io.Reader) (*Backend, error) {
	dec := json.NewDecoder(r)
	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc.UnitsPerEm == 0 {
		return nil, fmt.Errorf("unitsPerEm missing or zero")
	}

	b := &Backend{
		unitsPerEm: doc.UnitsPerEm,
		glyphs:     make(map[string]*fontra.VariableGlyph, len(doc.Glyphs)),
		glyphMap:   make(map[string][]rune, len(doc.Glyphs)),
	}
	for _, ax := range doc.Axes {
		b.axes = append(b.axes, convertAxis(ax))
	}
	for name, g := range doc.Glyphs {
		b.glyphs[name] = convertGlyph(name, g)
		var runes []rune
		for _, cp := range g.CodePoints {
			runes = append(runes, rune(cp))
		}
		b.glyphMap[name] = runes
	}
	return b, nil
}

func (b *Backend) GetGlyphMap(ctx context.Context) (map[string][]rune, error) {
	return b.glyphMap, nil
}

func (b *Backend) GetAxes(ctx context.Context) ([]fontra.Axis, error) {
	return b.axes, nil
}

func (b *Backend) GetGlyph(ctx context.Context, name string) (*fontra.VariableGlyph, error) {
	return b.glyphs[name], nil
}

func (b *Backend) GetUnitsPerEm(ctx context.Context) (int, error) {
	return b.unitsPerEm, nil
}

func convertAxis(ax axis) fontra.Axis {
	res := fontra.Axis{
		Name:    ax.Name,
		Tag:     ax.Tag,
		Min:     ax.MinValue,
		Default: ax.DefaultValue,
		Max:     ax.MaxValue,
		Hidden:  ax.Hidden,
	}
	for _, m := range ax.Mapping {
		res.Map = append(res.Map, fontra.AxisMapping{In: m[0], Out: m[1]})
	}
	return res
}

func convertGlyph(name string, g *variableGlyph) *fontra.VariableGlyph {
	res := &fontra.VariableGlyph{
		Name:   name,
		Layers: make(map[string]*fontra.Layer, len(g.Layers)),
	}
	for _, ax := range g.Axes {
		res.Axes = append(res.Axes, fontra.GlyphAxis{
			Name:    ax.Name,
			Min:     ax.MinValue,
			Default: ax.DefaultValue,
			Max:     ax.MaxValue,
		})
	}
	for _, s := range g.Sources {
		res.Sources = append(res.Sources, fontra.GlyphSource{
			Name:      s.Name,
			Location:  fontra.Location(s.Location),
			LayerName: s.LayerName,
			Inactive:  s.Inactive,
		})
	}
	for layerName, l := range g.Layers {
		res.Layers[layerName] = &fontra.Layer{Glyph: convertStatic(l.Glyph)}
	}
	return res
}

func convertStatic(g staticGlyph) *fontra.StaticGlyph {
	res := &fontra.StaticGlyph{XAdvance: g.XAdvance}
	for _, c := range g.Path.Contours {
		contour := fontra.Contour{Closed: c.IsClosed}
		for _, p := range c.Points {
			var pointType fontra.PointType
			switch p.Type {
			case "quad":
				pointType = fontra.OffCurveQuad
			case "cubic":
				pointType = fontra.OffCurveCubic
			}
			contour.Points = append(contour.Points, fontra.Point{
				X: p.X, Y: p.Y, Type: pointType,
			})
		}
		res.Path.Contours = append(res.Path.Contours, contour)
	}
	for _, c := range g.Components {
		t := c.Transformation
		if t == nil {
			t = &transformation{ScaleX: 1, ScaleY: 1}
		}
		res.Components = append(res.Components, fontra.Component{
			BaseName: c.Name,
			Transform: fontra.Transform{
				TranslateX: t.TranslateX,
				TranslateY: t.TranslateY,
				Rotation:   t.Rotation,
				ScaleX:     t.ScaleX,
				ScaleY:     t.ScaleY,
				SkewX:      t.SkewX,
				SkewY:      t.SkewY,
				TCenterX:   t.TCenterX,
				TCenterY:   t.TCenterY,
			},
			Location: fontra.Location(c.Location),
		})
	}
	return res
}
