/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package shape

import (
	"encoding/json"
	"fmt"

	"annocanvas/internal/geometry"
)

// New creates a shape of the given kind anchored at pos.
// Rectangles and ellipses start collapsed; the creation gesture widens them
// via SetEndPoint. Polygons start with a single vertex.
func New(k Kind, pos geometry.Pt, c Color, w PenWidth) (Shape, error) {
	switch k {
	case KindPoint:
		return NewPoint(pos, c, w), nil
	case KindRectangle:
		return NewRectangle(pos, c, w), nil
	case KindEllipse:
		return NewEllipse(pos, c, w), nil
	case KindPolygon:
		return NewPolygon([]geometry.Pt{pos}, c, w), nil
	default:
		return nil, fmt.Errorf("unknown shape kind %d", k)
	}
}

// FlexPt decodes a point from either the compact [x, y] array form or the
// {"x":..,"y":..} object form. It always encodes as the object form.
type FlexPt geometry.Pt

func (f FlexPt) MarshalJSON() ([]byte, error) {
	return json.Marshal(geometry.Pt(f))
}

func (f *FlexPt) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) != 2 {
			return fmt.Errorf("point array must have 2 elements, got %d", len(arr))
		}
		f.X, f.Y = arr[0], arr[1]
		return nil
	}
	var obj geometry.Pt
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("point is neither [x,y] nor {x,y}: %w", err)
	}
	*f = FlexPt(obj)
	return nil
}

// Record is the persisted JSON form of one shape.
type Record struct {
	ID       string         `json:"id,omitempty"`
	Type     Kind           `json:"shape_type"`
	Color    Color          `json:"color"`
	PenWidth PenWidth       `json:"pen_width"`
	ZOrder   int            `json:"z_order"`
	Visible  bool           `json:"visible"`
	Selected bool           `json:"selected"`
	Metadata map[string]any `json:"metadata,omitempty"`

	Position *FlexPt  `json:"position,omitempty"`    // point
	Start    *FlexPt  `json:"start_point,omitempty"` // rectangle, ellipse
	End      *FlexPt  `json:"end_point,omitempty"`   // rectangle, ellipse
	Vertices []FlexPt `json:"vertices,omitempty"`    // polygon
}

// Encode converts a shape to its persisted record.
func Encode(s Shape) Record {
	a := s.Attrs()
	rec := Record{
		ID:       s.ID(),
		Type:     s.Kind(),
		Color:    a.Color,
		PenWidth: a.PenWidth,
		ZOrder:   a.ZOrder(),
		Visible:  a.Visible,
		Selected: a.Selected,
		Metadata: a.Metadata,
	}
	switch v := s.(type) {
	case *Point:
		p := FlexPt(v.Pos)
		rec.Position = &p
	case *Rectangle:
		st, en := FlexPt(v.Start), FlexPt(v.End)
		rec.Start, rec.End = &st, &en
	case *Ellipse:
		st, en := FlexPt(v.Start), FlexPt(v.End)
		rec.Start, rec.End = &st, &en
	case *Polygon:
		rec.Vertices = make([]FlexPt, len(v.Vertices))
		for i, vt := range v.Vertices {
			rec.Vertices[i] = FlexPt(vt)
		}
	}
	return rec
}

// Decode rebuilds a shape from its persisted record.
func Decode(rec Record) (Shape, error) {
	var s Shape
	switch rec.Type {
	case KindPoint:
		if rec.Position == nil {
			return nil, fmt.Errorf("point record missing position")
		}
		s = NewPoint(geometry.Pt(*rec.Position), rec.Color, rec.PenWidth)
	case KindRectangle:
		if rec.Start == nil || rec.End == nil {
			return nil, fmt.Errorf("rectangle record missing corners")
		}
		r := NewRectangle(geometry.Pt(*rec.Start), rec.Color, rec.PenWidth)
		r.SetEndPoint(geometry.Pt(*rec.End))
		s = r
	case KindEllipse:
		if rec.Start == nil || rec.End == nil {
			return nil, fmt.Errorf("ellipse record missing corners")
		}
		e := NewEllipse(geometry.Pt(*rec.Start), rec.Color, rec.PenWidth)
		e.SetEndPoint(geometry.Pt(*rec.End))
		s = e
	case KindPolygon:
		if len(rec.Vertices) == 0 {
			return nil, fmt.Errorf("polygon record missing vertices")
		}
		vs := make([]geometry.Pt, len(rec.Vertices))
		for i, v := range rec.Vertices {
			vs[i] = geometry.Pt(v)
		}
		s = NewPolygon(vs, rec.Color, rec.PenWidth)
	default:
		return nil, fmt.Errorf("unknown shape kind %d in record", rec.Type)
	}
	a := s.Attrs()
	a.SetZOrder(rec.ZOrder)
	a.Visible = rec.Visible
	a.Selected = rec.Selected
	if rec.Metadata != nil {
		a.Metadata = rec.Metadata
	}
	if b, ok := s.(interface{ setID(string) }); ok {
		b.setID(rec.ID)
	}
	return s, nil
}
