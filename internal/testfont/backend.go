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

// Package testfont provides in-memory font sources for tests.
package testfont

import (
	"context"

	"github.com/googlefonts/fontra-compile/fontra"
)

// Backend is an in-memory implementation of
// fontra.ReadableFontBackend.
type Backend struct {
	UPM        int
	Axes       []fontra.Axis
	Glyphs     map[string]*fontra.VariableGlyph
	CodePoints map[string][]rune
}

func (b *Backend) GetGlyphMap(ctx context.Context) (map[string][]rune, error) {
	res := make(map[string][]rune, len(b.Glyphs))
	for name := range b.Glyphs {
		res[name] = b.CodePoints[name]
	}
	return res, nil
}

func (b *Backend) GetAxes(ctx context.Context) ([]fontra.Axis, error) {
	return b.Axes, nil
}

func (b *Backend) GetGlyph(ctx context.Context, name string) (*fontra.VariableGlyph, error) {
	return b.Glyphs[name], nil
}

func (b *Backend) GetUnitsPerEm(ctx context.Context) (int, error) {
	return b.UPM, nil
}
