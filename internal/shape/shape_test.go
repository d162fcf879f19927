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
	"strings"
	"testing"

	"annocanvas/internal/geometry"
)

func TestZOrderClamped(t *testing.T) {
	p := NewPoint(geometry.Pt{}, ColorRed, PenThin)
	p.Attrs().SetZOrder(99999)
	if got := p.Attrs().ZOrder(); got != ZOrderMax {
		t.Fatalf("z-order not clamped high: %d", got)
	}
	p.Attrs().SetZOrder(-99999)
	if got := p.Attrs().ZOrder(); got != ZOrderMin {
		t.Fatalf("z-order not clamped low: %d", got)
	}
	p.Attrs().SetZOrder(42)
	if got := p.Attrs().ZOrder(); got != 42 {
		t.Fatalf("in-range z-order altered: %d", got)
	}
}

func TestPointHitAndMove(t *testing.T) {
	p := NewPoint(geometry.Pt{X: 100, Y: 100}, ColorBlack, PenMedium)
	if !p.Contains(geometry.Pt{X: 103, Y: 101}, 0) {
		t.Fatalf("point marker should cover its fixed square")
	}
	if p.Contains(geometry.Pt{X: 110, Y: 100}, 0) {
		t.Fatalf("point marker too large")
	}
	p.MoveBy(geometry.Pt{X: 10, Y: -5})
	if p.Pos != (geometry.Pt{X: 110, Y: 95}) {
		t.Fatalf("move result %+v", p.Pos)
	}
	if p.ControlPoints()[0].Pos != p.Pos {
		t.Fatalf("control point did not follow the marker")
	}
}

func TestPointScaleIsMove(t *testing.T) {
	p := NewPoint(geometry.Pt{X: 1, Y: 1}, ColorBlack, PenThin)
	cp := p.ControlPoints()[0]
	p.ScaleByControlPoint(cp, geometry.Pt{X: 8, Y: 9})
	if p.Pos != (geometry.Pt{X: 8, Y: 9}) {
		t.Fatalf("scaling a point must reposition it, got %+v", p.Pos)
	}
}

func TestRectangleBoundaryVsInterior(t *testing.T) {
	r := NewRectangle(geometry.Pt{X: 0, Y: 0}, ColorBlue, PenThin)
	r.SetEndPoint(geometry.Pt{X: 20, Y: 10})
	if !r.ContainsOnBoundary(geometry.Pt{X: 10, Y: 0.5}, 1) {
		t.Fatalf("near the top edge should hit the boundary")
	}
	if r.ContainsOnBoundary(geometry.Pt{X: 10, Y: 5}, 1) {
		t.Fatalf("deep interior must not hit the boundary")
	}
	if !r.Contains(geometry.Pt{X: 10, Y: 5}, 0) {
		t.Fatalf("interior point should be contained")
	}
}

func TestRectangleScaleByCorner(t *testing.T) {
	r := NewRectangle(geometry.Pt{X: 0, Y: 0}, ColorBlue, PenThin)
	r.SetEndPoint(geometry.Pt{X: 10, Y: 10})
	cps := r.ControlPoints()
	r.ScaleByControlPoint(cps[1], geometry.Pt{X: 30, Y: 20})
	if r.End != (geometry.Pt{X: 30, Y: 20}) {
		t.Fatalf("end corner not moved: %+v", r.End)
	}
	r.ScaleByControlPoint(cps[0], geometry.Pt{X: -5, Y: -5})
	if r.Start != (geometry.Pt{X: -5, Y: -5}) {
		t.Fatalf("start corner not moved: %+v", r.Start)
	}
	b := r.Bounds()
	if b.W != 35 || b.H != 25 {
		t.Fatalf("bounds after scaling: %+v", b)
	}
}

// Semi-axes 10 and 5 centered at the origin: the origin is interior but not
// boundary, (10,0) sits exactly on the outline, (100,100) is neither.
func TestEllipseInteriorAndBoundary(t *testing.T) {
	e := NewEllipse(geometry.Pt{X: -10, Y: -5}, ColorGreen, PenThin)
	e.SetEndPoint(geometry.Pt{X: 10, Y: 5})

	tol := 1.0
	origin := geometry.Pt{}
	if !e.Contains(origin, tol) {
		t.Fatalf("center must be interior")
	}
	if e.ContainsOnBoundary(origin, tol) {
		t.Fatalf("center must not be boundary")
	}

	onOutline := geometry.Pt{X: 10, Y: 0}
	if !e.ContainsOnBoundary(onOutline, tol) {
		t.Fatalf("(10,0) must be on the outline")
	}
	if !e.Contains(onOutline, tol) {
		t.Fatalf("outline counts as contained")
	}

	far := geometry.Pt{X: 100, Y: 100}
	if e.Contains(far, tol) || e.ContainsOnBoundary(far, tol) {
		t.Fatalf("far point must miss entirely")
	}
}

func TestEllipseDegenerateFallsBackToRect(t *testing.T) {
	e := NewEllipse(geometry.Pt{X: 0, Y: 0}, ColorGreen, PenThin)
	e.SetEndPoint(geometry.Pt{X: 10, Y: 0}) // zero height
	if !e.Contains(geometry.Pt{X: 5, Y: 0.5}, 1) {
		t.Fatalf("degenerate ellipse should use the expanded rect test")
	}
	if e.Contains(geometry.Pt{X: 5, Y: 3}, 1) {
		t.Fatalf("point outside the expanded rect reported inside")
	}
}

func TestPolygonClosure(t *testing.T) {
	p := NewPolygon([]geometry.Pt{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, ColorRed, PenThin)
	if p.Closed() {
		t.Fatalf("open triangle reported closed")
	}
	p.Close()
	if !p.Closed() {
		t.Fatalf("Close did not close the ring")
	}
	if n := len(p.Vertices); n != 4 {
		t.Fatalf("closing should append the first vertex, have %d", n)
	}
	// closing twice is a no-op
	p.Close()
	if n := len(p.Vertices); n != 4 {
		t.Fatalf("double close appended again: %d vertices", n)
	}
	// near-coincident endpoints count as closed
	q := NewPolygon([]geometry.Pt{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 1e-7, Y: -1e-7}}, ColorRed, PenThin)
	if !q.Closed() {
		t.Fatalf("endpoints within epsilon should close the ring")
	}
}

// The ring is implicit: three distinct vertices already have an interior and
// a wraparound closing edge, without a duplicated first vertex.
func TestPolygonInteriorAtMinVertices(t *testing.T) {
	tri := NewPolygon([]geometry.Pt{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, ColorRed, PenThin)
	if !tri.Contains(geometry.Pt{X: 8, Y: 2}, 0) {
		t.Fatalf("3-vertex polygon should contain an interior point")
	}
	if tri.Contains(geometry.Pt{X: 2, Y: 8}, 0) {
		t.Fatalf("point outside the triangle reported inside")
	}
	if !tri.ContainsOnBoundary(geometry.Pt{X: 5, Y: 0.5}, 1) {
		t.Fatalf("point near an edge should hit the boundary")
	}
	if !tri.ContainsOnBoundary(geometry.Pt{X: 5, Y: 5.5}, 1) {
		t.Fatalf("closing edge must participate in boundary tests")
	}

	seg := NewPolygon([]geometry.Pt{{X: 0, Y: 0}, {X: 10, Y: 0}}, ColorRed, PenThin)
	if seg.Contains(geometry.Pt{X: 5, Y: 0}, 1) {
		t.Fatalf("polygon under the minimum vertex count has no interior")
	}

	// a creation preview stays an open polyline
	preview := NewPolygon([]geometry.Pt{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, ColorRed, PenThin)
	preview.SetForceOpen(true)
	if preview.ContainsOnBoundary(geometry.Pt{X: 5, Y: 5.5}, 1) {
		t.Fatalf("open preview must not grow a wraparound edge")
	}
}

func TestPolygonVertexScaleKeepsRing(t *testing.T) {
	p := NewPolygon([]geometry.Pt{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, ColorRed, PenThin)
	p.Close()
	cp := p.ControlPoints()[0]
	p.ScaleByControlPoint(cp, geometry.Pt{X: -2, Y: -2})
	if p.Vertices[0] != (geometry.Pt{X: -2, Y: -2}) {
		t.Fatalf("vertex 0 not moved")
	}
	if p.Vertices[len(p.Vertices)-1] != p.Vertices[0] {
		t.Fatalf("closing duplicate must follow vertex 0")
	}
	if !p.Closed() {
		t.Fatalf("polygon must stay closed after vertex scale")
	}
}

func TestFactoryAndUnknownKind(t *testing.T) {
	for _, k := range []Kind{KindPoint, KindRectangle, KindEllipse, KindPolygon} {
		s, err := New(k, geometry.Pt{X: 1, Y: 2}, ColorBlack, PenMedium)
		if err != nil {
			t.Fatalf("New(%v): %v", k, err)
		}
		if s.Kind() != k {
			t.Fatalf("kind mismatch: %v != %v", s.Kind(), k)
		}
		if s.ID() == "" {
			t.Fatalf("shape must get a generated id")
		}
	}
	if _, err := New(KindNone, geometry.Pt{}, ColorBlack, PenThin); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestDecodeToleratesBothPointEncodings(t *testing.T) {
	arrForm := []byte(`{"shape_type":4,"color":1,"pen_width":2,"visible":true,"vertices":[[0,0],[10,0],[10,10],[0,0]]}`)
	objForm := []byte(`{"shape_type":4,"color":1,"pen_width":2,"visible":true,"vertices":[{"x":0,"y":0},{"x":10,"y":0},{"x":10,"y":10},{"x":0,"y":0}]}`)
	for _, data := range [][]byte{arrForm, objForm} {
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			t.Fatalf("unmarshal record: %v", err)
		}
		s, err := Decode(rec)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		poly, ok := s.(*Polygon)
		if !ok {
			t.Fatalf("expected polygon, got %T", s)
		}
		if !poly.Closed() {
			t.Fatalf("decoded polygon should be closed")
		}
	}
}

// Persisted enum values are frozen; documents written by older builds decode
// with the same colors and widths.
func TestEnumValuesStable(t *testing.T) {
	colors := map[Color]int{
		ColorNone: 0, ColorRed: 1, ColorGreen: 2, ColorYellow: 3,
		ColorBlue: 4, ColorPurple: 5, ColorOrange: 6, ColorBlack: 7, ColorWhite: 8,
	}
	for c, want := range colors {
		if int(c) != want {
			t.Fatalf("color %s has value %d, want %d", c, int(c), want)
		}
	}
	kinds := map[Kind]int{KindNone: 0, KindPoint: 1, KindRectangle: 2, KindEllipse: 3, KindPolygon: 4}
	for k, want := range kinds {
		if int(k) != want {
			t.Fatalf("kind %s has value %d, want %d", k, int(k), want)
		}
	}
	widths := map[PenWidth]int{PenNone: 0, PenThin: 1, PenMedium: 2, PenThick: 3, PenUltraThin: 4, PenUltraThick: 5}
	for w, want := range widths {
		if int(w) != want {
			t.Fatalf("pen width %s has value %d, want %d", w, int(w), want)
		}
	}
}

// Corner fields persist as start_point/end_point and the selected flag is
// always written, matching documents from previous versions.
func TestRecordFieldNames(t *testing.T) {
	r := NewRectangle(geometry.Pt{X: 0, Y: 0}, ColorYellow, PenThin)
	r.SetEndPoint(geometry.Pt{X: 10, Y: 10})
	r.Attrs().Selected = true
	data, err := json.Marshal(Encode(r))
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	for _, key := range []string{`"start_point"`, `"end_point"`, `"selected":true`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("encoded record missing %s: %s", key, data)
		}
	}
	for _, key := range []string{`"start":`, `"end":`} {
		if strings.Contains(string(data), key) {
			t.Fatalf("encoded record still carries the old key %s: %s", key, data)
		}
	}

	legacy := []byte(`{"shape_type":2,"color":3,"pen_width":1,"z_order":0,"visible":true,"selected":true,` +
		`"start_point":[1,2],"end_point":[3,4]}`)
	var rec Record
	if err := json.Unmarshal(legacy, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s, err := Decode(rec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rb, ok := s.(*Rectangle)
	if !ok {
		t.Fatalf("expected rectangle, got %T", s)
	}
	if rb.Start != (geometry.Pt{X: 1, Y: 2}) || rb.End != (geometry.Pt{X: 3, Y: 4}) {
		t.Fatalf("corners not decoded: %+v %+v", rb.Start, rb.End)
	}
	if !rb.Attrs().Selected {
		t.Fatalf("selected flag not decoded")
	}
	if rb.Attrs().Color != ColorYellow {
		t.Fatalf("color 3 must decode as yellow, got %s", rb.Attrs().Color)
	}
}

func TestEncodeDecodeKeepsIdentity(t *testing.T) {
	r := NewRectangle(geometry.Pt{X: 1, Y: 2}, ColorPurple, PenThick)
	r.SetEndPoint(geometry.Pt{X: 11, Y: 22})
	r.Attrs().SetZOrder(5)
	rec := Encode(r)
	back, err := Decode(rec)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.ID() != r.ID() {
		t.Fatalf("identity lost across encode/decode")
	}
	if back.Attrs().ZOrder() != 5 {
		t.Fatalf("z-order lost: %d", back.Attrs().ZOrder())
	}
	rb, ok := back.(*Rectangle)
	if !ok || rb.Start != r.Start || rb.End != r.End {
		t.Fatalf("geometry lost: %+v", back)
	}
}
