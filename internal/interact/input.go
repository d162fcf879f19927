/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package interact

import (
	"annocanvas/internal/geometry"
)

// Button identifies a pointer button.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
)

// Modifier is a keyboard modifier bitmask.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
)

// PointerEvent is a pointer sample in world coordinates. WorldPerPixel is
// the current view scale; the machine needs it to convert pixel tolerances.
type PointerEvent struct {
	Pos           geometry.Pt
	Button        Button
	Modifiers     Modifier
	WorldPerPixel float64
}

// Adapter normalizes raw pointer input into machine calls. It tracks button
// state so that a drag is defined as "left button seen pressed and not yet
// released", independent of what the windowing layer reports.
type Adapter struct {
	machine *Machine

	leftDown      bool
	dragging      bool
	modifiers     Modifier
	worldPerPixel float64
	lastPos       geometry.Pt
}

// NewAdapter wires an adapter to the machine.
func NewAdapter(m *Machine) *Adapter {
	return &Adapter{machine: m, worldPerPixel: defaultWorldPerPixel}
}

const defaultWorldPerPixel = 0.01

// SetWorldPerPixel updates the view scale carried on subsequent events.
func (a *Adapter) SetWorldPerPixel(wpp float64) {
	if wpp > 0 {
		a.worldPerPixel = wpp
	}
}

// WorldPerPixel returns the current view scale.
func (a *Adapter) WorldPerPixel() float64 { return a.worldPerPixel }

// Dragging reports whether a left-button drag is in progress.
func (a *Adapter) Dragging() bool { return a.dragging }

// Modifiers returns the currently held modifier set.
func (a *Adapter) Modifiers() Modifier { return a.modifiers }

// SetModifiers records the modifier set reported by the windowing layer.
func (a *Adapter) SetModifiers(m Modifier) { a.modifiers = m }

// Press forwards a button press.
func (a *Adapter) Press(pos geometry.Pt, b Button) {
	a.lastPos = pos
	if b == ButtonLeft {
		a.leftDown = true
	}
	a.machine.Press(PointerEvent{Pos: pos, Button: b, Modifiers: a.modifiers, WorldPerPixel: a.worldPerPixel})
}

// Move forwards pointer motion. The first move with the left button held
// marks the start of a drag.
func (a *Adapter) Move(pos geometry.Pt) {
	a.lastPos = pos
	if a.leftDown {
		a.dragging = true
	}
	a.machine.Move(PointerEvent{Pos: pos, Modifiers: a.modifiers, WorldPerPixel: a.worldPerPixel})
}

// Release forwards a button release and ends any drag.
func (a *Adapter) Release(pos geometry.Pt, b Button) {
	a.lastPos = pos
	if b == ButtonLeft {
		a.leftDown = false
		a.dragging = false
	}
	a.machine.Release(PointerEvent{Pos: pos, Button: b, Modifiers: a.modifiers, WorldPerPixel: a.worldPerPixel})
}

// Escape forwards the cancel key.
func (a *Adapter) Escape() { a.machine.Escape() }
