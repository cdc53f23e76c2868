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

package varc

// ComponentFlags is the per-component flag word of a VARC variable
// component.
type ComponentFlags uint32

const (
	ResetUnspecifiedAxes ComponentFlags = 1 << 0
	HaveAxes             ComponentFlags = 1 << 1
	AxisValuesHaveVariation ComponentFlags = 1 << 2
	TransformHasVariation   ComponentFlags = 1 << 3
	HaveTranslateX       ComponentFlags = 1 << 4
	HaveTranslateY       ComponentFlags = 1 << 5
	HaveRotation         ComponentFlags = 1 << 6
	HaveCondition        ComponentFlags = 1 << 7
	HaveScaleX           ComponentFlags = 1 << 8
	HaveScaleY           ComponentFlags = 1 << 9
	HaveTCenterX         ComponentFlags = 1 << 10
	HaveTCenterY         ComponentFlags = 1 << 11
	GidIs24Bit           ComponentFlags = 1 << 12
	HaveSkewX            ComponentFlags = 1 << 13
	HaveSkewY            ComponentFlags = 1 << 14
)

// TransformFieldIndex identifies one of the nine decomposed transform
// fields, in serialization order.
type TransformFieldIndex int

const (
	FieldTranslateX TransformFieldIndex = iota
	FieldTranslateY
	FieldRotation
	FieldScaleX
	FieldScaleY
	FieldTCenterX
	FieldTCenterY
	FieldSkewX
	FieldSkewY
	NumTransformFields
)

// TransformField describes how one transform field is flagged, scaled
// and quantized.  Values are divided by Scale and stored as fixed-point
// numbers with FractionalBits fraction bits.
type TransformField struct {
	Name           string
	Flag           ComponentFlags
	Default        float64
	Scale          float64
	FractionalBits int
}

// TransformFields lists the nine transform fields in the order their
// values appear in a VarComponent record (flag bit order).
var TransformFields = [NumTransformFields]TransformField{
	FieldTranslateX: {Name: "translateX", Flag: HaveTranslateX, Default: 0, Scale: 1, FractionalBits: 0},
	FieldTranslateY: {Name: "translateY", Flag: HaveTranslateY, Default: 0, Scale: 1, FractionalBits: 0},
	FieldRotation:   {Name: "rotation", Flag: HaveRotation, Default: 0, Scale: 180, FractionalBits: 12},
	FieldScaleX:     {Name: "scaleX", Flag: HaveScaleX, Default: 1, Scale: 1, FractionalBits: 10},
	FieldScaleY:     {Name: "scaleY", Flag: HaveScaleY, Default: 1, Scale: 1, FractionalBits: 10},
	FieldTCenterX:   {Name: "tCenterX", Flag: HaveTCenterX, Default: 0, Scale: 1, FractionalBits: 0},
	FieldTCenterY:   {Name: "tCenterY", Flag: HaveTCenterY, Default: 0, Scale: 1, FractionalBits: 0},
	FieldSkewX:      {Name: "skewX", Flag: HaveSkewX, Default: 0, Scale: -180, FractionalBits: 12},
	FieldSkewY:      {Name: "skewY", Flag: HaveSkewY, Default: 0, Scale: 180, FractionalBits: 12},
}

// VariableIfVarying lists the fields whose cross-source variation has no
// classic (static outline) equivalent: a component varying in one of
// these must be compiled as a variable component even without axis
// variation.
var VariableIfVarying = map[TransformFieldIndex]bool{
	FieldRotation: true,
	FieldScaleX:   true,
	FieldScaleY:   true,
	FieldSkewX:    true,
	FieldSkewY:    true,
	FieldTCenterX: true,
	FieldTCenterY: true,
}

// AxisValueFractionalBits is the quantization of component axis values.
const AxisValueFractionalBits = 14
