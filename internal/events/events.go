/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package events provides the synchronous publish/subscribe bus that wires
// the store, the interaction state machine and the render synchronizer
// together. Dispatch is deterministic: subscribers run in subscription order
// on the publishing goroutine.
package events

// Kind identifies an event category.
type Kind int

const (
	KindUnknown Kind = iota

	// shape lifecycle
	ShapeAdded
	ShapeRemoved
	ShapeUpdated
	ShapeSelected
	ShapeDeselected
	ShapeHovered
	ShapeUnhovered

	// tool state
	ToolChanged
	ColorChanged
	PenWidthChanged

	// interaction
	StateChanged
	ConfirmCancelPolygon
	CancelPolygonConfirmed
	StatusTextChanged

	// rendering
	DisplayUpdateRequested

	// history
	HistoryChanged

	// document
	DocumentLoaded
	DocumentSaved
)

func (k Kind) String() string {
	switch k {
	case ShapeAdded:
		return "shape_added"
	case ShapeRemoved:
		return "shape_removed"
	case ShapeUpdated:
		return "shape_updated"
	case ShapeSelected:
		return "shape_selected"
	case ShapeDeselected:
		return "shape_deselected"
	case ShapeHovered:
		return "shape_hovered"
	case ShapeUnhovered:
		return "shape_unhovered"
	case ToolChanged:
		return "tool_changed"
	case ColorChanged:
		return "color_changed"
	case PenWidthChanged:
		return "pen_width_changed"
	case StateChanged:
		return "state_changed"
	case ConfirmCancelPolygon:
		return "confirm_cancel_polygon"
	case CancelPolygonConfirmed:
		return "cancel_polygon_confirmed"
	case StatusTextChanged:
		return "status_text_changed"
	case DisplayUpdateRequested:
		return "display_update_requested"
	case HistoryChanged:
		return "history_changed"
	case DocumentLoaded:
		return "document_loaded"
	case DocumentSaved:
		return "document_saved"
	default:
		return "unknown"
	}
}

// Event is a published notification. Data carries kind-specific payloads;
// keys used across the codebase:
//
//	"shape"         the affected shape
//	"shape_id"      its id
//	"control_point" the affected handle
//	"clear_temp"    bool, display update should drop the temp primitive
//	"force_cleanup" bool, display update should reconcile primitive maps
//	"text"          status text
//	"state"         interaction state name
//	"confirmed"     bool, the answer carried by a cancel confirmation
type Event struct {
	Kind Kind
	Data map[string]any
}

// NewEvent builds an event with the given payload entries.
func NewEvent(k Kind, kv ...any) Event {
	e := Event{Kind: k, Data: map[string]any{}}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e.Data[key] = kv[i+1]
	}
	return e
}

// Bool reads a boolean payload entry, defaulting to false.
func (e Event) Bool(key string) bool {
	v, _ := e.Data[key].(bool)
	return v
}

// Str reads a string payload entry, defaulting to "".
func (e Event) Str(key string) string {
	v, _ := e.Data[key].(string)
	return v
}
