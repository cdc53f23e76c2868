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

// Package opentype assembles compiled font tables into a binary
// OpenType font file.
package opentype

import (
	"io"
	"time"

	"seehuhn.de/go/postscript/funit"
	"seehuhn.de/go/sfnt/cmap"

	"github.com/googlefonts/fontra-compile/opentype/glyf"
	"github.com/googlefonts/fontra-compile/opentype/gvar"
	"github.com/googlefonts/fontra-compile/opentype/hvar"
	"github.com/googlefonts/fontra-compile/opentype/varc"
)

// Font holds the compiled tables of a variable font, ready to be
// written as an sfnt file.  Exactly one of Glyphs (TrueType flavour)
// and CFF2 (CFF2 flavour) must be set.
type Font struct {
	FamilyName string
	Version    string

	UnitsPerEm       uint16
	CreationTime     time.Time
	ModificationTime time.Time

	Axes []Axis
	CMap cmap.Format4

	Ascent  int16
	Descent int16 // negative
	LineGap int16

	Widths []uint16
	LSBs   []int16

	Glyphs glyf.Glyphs
	Gvar   *gvar.Table

	CFF2 []byte

	Varc *varc.Table
	Hvar *hvar.Table
}

// Write writes the binary form of the font.
func (f *Font) Write(w io.Writer) (int64, error) {
	tables := make(map[string][]byte)

	nb := newNameBuilder()

	var scalerType uint32
	var locaFormat int16
	var bbox funit.Rect16
	var maxpTtf *maxpTTF
	if f.CFF2 != nil {
		scalerType = ScalerTypeCFF
		tables["CFF2"] = f.CFF2
	} else {
		scalerType = ScalerTypeTrueType
		enc := f.Glyphs.Encode()
		tables["glyf"] = enc.GlyfData
		tables["loca"] = enc.LocaData
		locaFormat = enc.LocaFormat
		bbox = f.glyphBBox()
		maxpTtf = f.maxpStats()
		if f.Gvar != nil {
			tables["gvar"] = f.Gvar.Encode()
		}
	}

	if f.Varc != nil && len(f.Varc.Glyphs) > 0 {
		varcData, err := f.Varc.Encode()
		if err != nil {
			return 0, err
		}
		tables["VARC"] = varcData
	}
	if f.Hvar != nil && !f.Hvar.Store.IsEmpty() {
		tables["HVAR"] = f.Hvar.Encode()
	}

	if f.CMap != nil {
		subtable := f.CMap.Encode(0)
		ss := cmap.Table{
			{PlatformID: 0, EncodingID: 3}: subtable,
			{PlatformID: 3, EncodingID: 1}: subtable,
		}
		tables["cmap"] = ss.Encode()
	}

	hmtxInfo := &hmtxInfo{
		Widths:  f.Widths,
		LSBs:    f.LSBs,
		Ascent:  f.Ascent,
		Descent: f.Descent,
		LineGap: f.LineGap,
	}
	tables["hhea"], tables["hmtx"] = hmtxInfo.Encode()

	maxpInfo := &maxpInfo{
		NumGlyphs: len(f.Widths),
		TTF:       maxpTtf,
	}
	tables["maxp"] = maxpInfo.Encode()

	os2Info := &os2Info{
		WeightClass:   400,
		WidthClass:    5,
		Ascent:        f.Ascent,
		Descent:       f.Descent,
		LineGap:       f.LineGap,
		AvgGlyphWidth: f.avgGlyphWidth(),
	}
	tables["OS/2"] = os2Info.Encode(f.CMap)

	if len(f.Axes) > 0 {
		tables["fvar"] = makeFvar(f.Axes, nb)
		tables["avar"] = makeAvar(f.Axes)
	}

	version := f.Version
	if version == "" {
		version = "1.0"
	}
	family := f.FamilyName
	if family == "" {
		family = "Untitled"
	}
	nb.Set(nameIDFamily, family)
	nb.Set(nameIDSubfamily, "Regular")
	nb.Set(nameIDIdentifier, family+" Regular; "+version)
	nb.Set(nameIDFullName, family+" Regular")
	nb.Set(nameIDVersion, "Version "+version)
	nb.Set(nameIDPostScript, postscriptName(family)+"-Regular")
	tables["name"] = nb.Encode()

	tables["post"] = (&postInfo{}).Encode()

	headInfo := &headInfo{
		FontRevision:   0x00010000,
		UnitsPerEm:     f.UnitsPerEm,
		Created:        f.CreationTime,
		Modified:       f.ModificationTime,
		FontBBox:       bbox,
		LowestRecPPEM:  7,
		HasLongOffsets: locaFormat != 0,
	}
	tables["head"] = headInfo.Encode()

	return WriteTables(w, scalerType, tables)
}

func (f *Font) glyphBBox() funit.Rect16 {
	var bbox funit.Rect16
	for _, g := range f.Glyphs {
		if g == nil || g.IsEmpty() {
			continue
		}
		bbox.Extend(g.BBox)
	}
	return bbox
}

func (f *Font) avgGlyphWidth() int16 {
	total := 0
	count := 0
	for _, w := range f.Widths {
		if w > 0 {
			total += int(w)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return int16((total + count/2) / count)
}

// maxpStats computes the version 1.0 maxp fields from the glyf
// outlines.
func (f *Font) maxpStats() *maxpTTF {
	ttf := &maxpTTF{}
	for _, g := range f.Glyphs {
		if g == nil {
			continue
		}
		if len(g.Components) > 0 {
			if n := len(g.Components); int(ttf.MaxComponentElements) < n {
				ttf.MaxComponentElements = uint16(n)
			}
			if d := f.componentDepth(g, 0); int(ttf.MaxComponentDepth) < d {
				ttf.MaxComponentDepth = uint16(d)
			}
			continue
		}
		if n := g.NumPoints(); int(ttf.MaxPoints) < n {
			ttf.MaxPoints = uint16(n)
		}
		if n := len(g.Contours); int(ttf.MaxContours) < n {
			ttf.MaxContours = uint16(n)
		}
	}
	return ttf
}

func (f *Font) componentDepth(g *glyf.Glyph, depth int) int {
	if depth > 8 || len(g.Components) == 0 {
		return depth
	}
	maxDepth := depth + 1
	for _, comp := range g.Components {
		if int(comp.GlyphIndex) >= len(f.Glyphs) {
			continue
		}
		child := f.Glyphs[comp.GlyphIndex]
		if child == nil {
			continue
		}
		if d := f.componentDepth(child, depth+1); d > maxDepth {
			maxDepth = d
		}
	}
	return maxDepth
}

// postscriptName strips the characters not allowed in PostScript names.
func postscriptName(s string) string {
	var out []byte
	for _, c := range []byte(s) {
		if c > '!' && c < 127 && c != '[' && c != ']' && c != '(' && c != ')' &&
			c != '{' && c != '}' && c != '<' && c != '>' && c != '/' && c != '%' {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return "Untitled"
	}
	return string(out)
}
