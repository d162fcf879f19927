/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package shape

// Kind identifies the geometric variant of a shape. The integer values are
// part of the persisted document format and must not be renumbered.
type Kind int

const (
	KindNone      Kind = 0
	KindPoint     Kind = 1
	KindRectangle Kind = 2
	KindEllipse   Kind = 3
	KindPolygon   Kind = 4
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindRectangle:
		return "rectangle"
	case KindEllipse:
		return "ellipse"
	case KindPolygon:
		return "polygon"
	default:
		return "none"
	}
}

// Color is the annotation pen color. Values are persisted.
type Color int

const (
	ColorNone   Color = 0
	ColorRed    Color = 1
	ColorGreen  Color = 2
	ColorYellow Color = 3
	ColorBlue   Color = 4
	ColorPurple Color = 5
	ColorOrange Color = 6
	ColorBlack  Color = 7
	ColorWhite  Color = 8
)

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorGreen:
		return "green"
	case ColorYellow:
		return "yellow"
	case ColorBlue:
		return "blue"
	case ColorPurple:
		return "purple"
	case ColorOrange:
		return "orange"
	case ColorBlack:
		return "black"
	case ColorWhite:
		return "white"
	default:
		return "none"
	}
}

// RGBA returns the display color as 8-bit channels.
func (c Color) RGBA() (r, g, b, a uint8) {
	switch c {
	case ColorRed:
		return 255, 0, 0, 255
	case ColorGreen:
		return 0, 255, 0, 255
	case ColorYellow:
		return 255, 255, 0, 255
	case ColorBlue:
		return 0, 0, 255, 255
	case ColorPurple:
		return 128, 0, 128, 255
	case ColorOrange:
		return 255, 165, 0, 255
	case ColorWhite:
		return 255, 255, 255, 255
	default:
		return 0, 0, 0, 255
	}
}

// PenWidth is the stroke width class. Values are persisted.
type PenWidth int

const (
	PenNone       PenWidth = 0
	PenThin       PenWidth = 1
	PenMedium     PenWidth = 2
	PenThick      PenWidth = 3
	PenUltraThin  PenWidth = 4
	PenUltraThick PenWidth = 5
)

func (w PenWidth) String() string {
	switch w {
	case PenThin:
		return "thin"
	case PenMedium:
		return "medium"
	case PenThick:
		return "thick"
	case PenUltraThin:
		return "ultra-thin"
	case PenUltraThick:
		return "ultra-thick"
	default:
		return "none"
	}
}

// Px returns the on-screen stroke width in pixels.
func (w PenWidth) Px() float64 {
	switch w {
	case PenUltraThin:
		return 0.5
	case PenThin:
		return 1
	case PenMedium:
		return 2
	case PenThick:
		return 4
	case PenUltraThick:
		return 8
	default:
		return 1
	}
}

// ControlPointType classifies grab handles.
type ControlPointType int

const (
	ControlCenter ControlPointType = 0
	ControlCorner ControlPointType = 1
	ControlEdge   ControlPointType = 2
	ControlVertex ControlPointType = 3
	ControlCustom ControlPointType = 4
)

func (t ControlPointType) String() string {
	switch t {
	case ControlCenter:
		return "center"
	case ControlCorner:
		return "corner"
	case ControlEdge:
		return "edge"
	case ControlVertex:
		return "vertex"
	default:
		return "custom"
	}
}
