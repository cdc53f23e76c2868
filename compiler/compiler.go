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

// Package compiler turns a Fontra variable glyph source into a binary
// variable font.
package compiler

import (
	"context"
	"log/slog"
	"sort"

	"github.com/googlefonts/fontra-compile/designspace"
	"github.com/googlefonts/fontra-compile/fontra"
	"github.com/googlefonts/fontra-compile/opentype/glyf"
	"github.com/googlefonts/fontra-compile/opentype/gvar"
	"github.com/googlefonts/fontra-compile/varmodel"
)

// placeholderAdvance is the advance width of glyphs that could not be
// built.
const placeholderAdvance = 500

// Options control a build.
type Options struct {
	// GlyphNames restricts the build to the named glyphs, plus the
	// glyphs they use as component bases.  Empty means all glyphs.
	GlyphNames []string

	// CFF2 selects CFF2 outlines instead of glyf/gvar.
	CFF2 bool

	// Subroutinize is carried through to the output stage; charstring
	// subroutinization is performed by external tooling.
	Subroutinize bool

	// Logger receives per-glyph warnings.  If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

// Builder compiles a font from a backend.
type Builder struct {
	backend fontra.ReadableFontBackend
	opts    Options
	log     *slog.Logger

	unitsPerEm int
	glyphMap   map[string][]rune

	globalAxes      []fontra.Axis
	globalAxisDict  map[string]designspace.AxisTriple
	globalAxisTags  map[string]string
	isGlobalAxis    map[string]bool
	defaultLocation fontra.Location

	// glyphOrder is the work queue; compiling a glyph may append the
	// bases of its components.
	glyphOrder []string
	inOrder    map[string]bool

	glyphCache map[string]*fontra.VariableGlyph
	baseInfos  map[string]*componentBaseInfo

	glyphInfos map[string]*glyphInfo
	cmap       map[rune]string
}

// glyphInfo is the compiled form of one glyph.
type glyphInfo struct {
	// outline is the default source outline (glyf mode).
	outline *glyf.Glyph

	// cubicPaths holds the per-source cubic outlines (CFF2 mode), in
	// active source order.
	cubicPaths []fontra.Path

	model          *varmodel.Model
	xAdvance       float64
	masterAdvances []float64
	variations     []gvar.Variation
	components     []*componentInfo
	localAxisTags  map[string]bool
	hasContours    bool
}

// New returns a builder reading from the given backend.
func New(backend fontra.ReadableFontBackend, opts Options) *Builder {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Builder{
		backend:    backend,
		opts:       opts,
		log:        log,
		glyphCache: make(map[string]*fontra.VariableGlyph),
		baseInfos:  make(map[string]*componentBaseInfo),
		glyphInfos: make(map[string]*glyphInfo),
		cmap:       make(map[rune]string),
		inOrder:    make(map[string]bool),
	}
}

// Setup fetches the font-wide information from the backend and computes
// the initial glyph order.  It must be called before Build.
func (b *Builder) Setup(ctx context.Context) error {
	glyphMap, err := b.backend.GetGlyphMap(ctx)
	if err != nil {
		return err
	}
	b.glyphMap = glyphMap

	var glyphOrder []string
	if len(b.opts.GlyphNames) > 0 {
		// Requested names keep their order in the final font.
		glyphOrder = append(glyphOrder, b.opts.GlyphNames...)
	} else {
		glyphOrder = make([]string, 0, len(glyphMap))
		for name := range glyphMap {
			glyphOrder = append(glyphOrder, name)
		}
		sort.Strings(glyphOrder)
	}
	hasNotdef := false
	for _, name := range glyphOrder {
		if name == ".notdef" {
			hasNotdef = true
			break
		}
	}
	if !hasNotdef {
		glyphOrder = append([]string{".notdef"}, glyphOrder...)
	}
	b.glyphOrder = glyphOrder
	for _, name := range glyphOrder {
		b.inOrder[name] = true
	}

	axes, err := b.backend.GetAxes(ctx)
	if err != nil {
		return err
	}
	b.globalAxes = axes
	b.globalAxisDict = make(map[string]designspace.AxisTriple, len(axes))
	b.globalAxisTags = make(map[string]string, len(axes))
	b.isGlobalAxis = make(map[string]bool, len(axes))
	b.defaultLocation = make(fontra.Location, len(axes))
	for _, axis := range axes {
		triple := designspace.ApplyAxisMap(axis)
		b.globalAxisDict[axis.Name] = triple
		b.globalAxisTags[axis.Name] = axis.Tag
		b.isGlobalAxis[axis.Name] = true
		b.defaultLocation[axis.Name] = triple.Default
	}

	b.unitsPerEm, err = b.backend.GetUnitsPerEm(ctx)
	return err
}

// getSourceGlyph fetches a glyph, optionally keeping it in the cache
// for repeated component-base lookups.
func (b *Builder) getSourceGlyph(ctx context.Context, name string, storeInCache bool) (*fontra.VariableGlyph, error) {
	if glyph, ok := b.glyphCache[name]; ok {
		return glyph, nil
	}
	glyph, err := b.backend.GetGlyph(ctx, name)
	if err != nil {
		return nil, err
	}
	if storeInCache && glyph != nil {
		b.glyphCache[name] = glyph
	}
	return glyph, nil
}

// ensureGlyphDependency schedules a component base for compilation.
func (b *Builder) ensureGlyphDependency(name string) {
	if b.inOrder[name] {
		return
	}
	b.glyphOrder = append(b.glyphOrder, name)
	b.inOrder[name] = true
}

// buildGlyphs compiles every glyph in the work queue.  The queue grows
// while it is being walked, as component bases are discovered.
func (b *Builder) buildGlyphs(ctx context.Context) error {
	for i := 0; i < len(b.glyphOrder); i++ {
		name := b.glyphOrder[i]
		codePoints, known := b.glyphMap[name]

		var info *glyphInfo
		if known {
			for _, codePoint := range codePoints {
				b.cmap[codePoint] = name
			}
			var err error
			info, err = b.buildOneGlyph(ctx, name)
			if err != nil {
				if !recoverable(err) {
					return err
				}
				b.log.Warn("cannot build glyph, using empty placeholder",
					slog.String("glyph", name),
					slog.Any("error", err))
				info = nil
			}
		}

		if info == nil {
			info = &glyphInfo{
				outline:  &glyf.Glyph{},
				xAdvance: placeholderAdvance,
			}
		}
		b.glyphInfos[name] = info
	}
	return nil
}
