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

// Fontra-compile compiles a Fontra font source into a variable font.
//
// Usage:
//
//	fontra-compile [options] <source.json> <output.ttf|output.otf>
//
// The output format follows the file extension: ".otf" produces CFF2
// outlines, everything else TrueType outlines.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/speedata/optionparser"

	"github.com/googlefonts/fontra-compile/backend/fontrajson"
	"github.com/googlefonts/fontra-compile/compiler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fontra-compile:", err)
		os.Exit(1)
	}
}

func run() error {
	var glyphNames string
	var noSubroutinize, verbose bool

	op := optionparser.NewOptionParser()
	op.Banner = "Usage: fontra-compile [options] <source> <output>"
	op.On("--glyph-names NAMES", "compile only the named glyphs (comma or space separated)", &glyphNames)
	op.On("--no-subroutinize", "keep charstrings unsubroutinized", &noSubroutinize)
	op.On("-v", "--verbose", "log per-glyph detail", &verbose)
	if err := op.Parse(); err != nil {
		return err
	}
	if len(op.Extra) != 2 {
		op.Help()
		os.Exit(2)
	}
	sourceName := op.Extra[0]
	outputName := op.Extra[1]

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	backend, err := fontrajson.Load(sourceName)
	if err != nil {
		return err
	}

	b := compiler.New(backend, compiler.Options{
		GlyphNames:   splitNames(glyphNames),
		CFF2:         strings.EqualFold(filepath.Ext(outputName), ".otf"),
		Subroutinize: !noSubroutinize,
		Logger:       logger,
	})

	ctx := context.Background()
	if err := b.Setup(ctx); err != nil {
		return err
	}
	font, err := b.Build(ctx)
	if err != nil {
		return err
	}

	fd, err := os.Create(outputName)
	if err != nil {
		return err
	}
	if _, err := font.Write(fd); err != nil {
		fd.Close()
		os.Remove(outputName)
		return err
	}
	return fd.Close()
}

func splitNames(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
