/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"annocanvas/internal/shape"
	"annocanvas/internal/storage"
)

// SVGOptions controls SVG export behavior.
// - DPI defines the physical pixel size; width/height attributes use pixels derived from DPI.
// - The coordinate system matches the model (world units). A viewBox is provided to scale.
type SVGOptions struct {
	Padding    float64
	DPI        int
	Background bool
}

// ExportDocumentSVG writes the document's shapes as a single SVG file at
// outPath. Relative paths land under the document's exports folder.
func ExportDocumentSVG(dh *storage.DocHandle, outPath string, opt SVGOptions) error {
	if dh == nil {
		return fmt.Errorf("document handle is nil")
	}
	shapes, err := decodeShapes(dh.Snapshot)
	if err != nil {
		return err
	}
	bounds := contentBounds(shapes, opt.Padding)
	w := bounds.W
	h := bounds.H

	dpi := opt.DPI
	if dpi <= 0 {
		dpi = 96
	}
	scale := float64(dpi) / 96.0
	pxW := int(math.Round(w * scale))
	pxH := int(math.Round(h * scale))

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%dpx\" height=\"%dpx\" viewBox=\"%g %g %g %g\">\n",
		pxW, pxH, bounds.X, bounds.Y, w, h)
	if opt.Background {
		wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n", bounds.X, bounds.Y, w, h)
	}

	for _, s := range shapes {
		col := svgColor(s.Attrs().Color)
		sw := s.Attrs().PenWidth.Px()
		switch v := s.(type) {
		case *shape.Point:
			wf("  <circle cx=\"%g\" cy=\"%g\" r=\"%g\" fill=\"%s\"/>\n", v.Pos.X, v.Pos.Y, shape.PointMarkerSize/2, col)
		case *shape.Rectangle:
			b := v.Bounds()
			wf("  <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				b.X, b.Y, b.W, b.H, col, sw)
		case *shape.Ellipse:
			b := v.Bounds()
			c := b.Center()
			wf("  <ellipse cx=\"%g\" cy=\"%g\" rx=\"%g\" ry=\"%g\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
				c.X, c.Y, b.W/2, b.H/2, col, sw)
		case *shape.Polygon:
			pts := ""
			for i, p := range v.Vertices {
				if i > 0 {
					pts += " "
				}
				pts += fmt.Sprintf("%g,%g", p.X, p.Y)
			}
			if !v.ForceOpen() && len(v.Vertices) >= shape.PolygonMinVertices {
				wf("  <polygon points=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n", pts, col, sw)
			} else {
				wf("  <polyline points=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n", pts, col, sw)
			}
		}
	}
	wf("</svg>\n")

	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}

	outPath, err = resolveOutPath(dh, outPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func svgColor(c shape.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
