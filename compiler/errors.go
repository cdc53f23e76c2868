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
	"errors"
	"fmt"

	"github.com/googlefonts/fontra-compile/varmodel"
)

// InterpolationError indicates that the sources of a glyph cannot be
// interpolated, for example because their outlines or component lists
// are not compatible.
type InterpolationError struct {
	Glyph  string
	Reason string
}

func (err *InterpolationError) Error() string {
	return fmt.Sprintf("glyph %q: %s", err.Glyph, err.Reason)
}

// MissingBaseGlyphError indicates that a component references a glyph
// the backend does not have.
type MissingBaseGlyphError struct {
	Glyph string
	Base  string
}

func (err *MissingBaseGlyphError) Error() string {
	return fmt.Sprintf("glyph %q: missing base glyph %q", err.Glyph, err.Base)
}

// RangeError indicates that a computed value does not fit its binary
// representation.
type RangeError struct {
	Glyph string
	What  string
}

func (err *RangeError) Error() string {
	return fmt.Sprintf("glyph %q: %s out of range", err.Glyph, err.What)
}

// recoverable reports whether a per-glyph error degrades the glyph to
// an empty placeholder instead of aborting the build.
func recoverable(err error) bool {
	var interpErr *InterpolationError
	var missingErr *MissingBaseGlyphError
	var rangeErr *RangeError
	var modelErr *varmodel.ModelError
	return errors.As(err, &interpErr) ||
		errors.As(err, &missingErr) ||
		errors.As(err, &rangeErr) ||
		errors.As(err, &modelErr)
}
