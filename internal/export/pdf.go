/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"annocanvas/internal/shape"
	"annocanvas/internal/storage"
)

// PDFOptions controls PDF export behavior.
// Units are points (pt); one world unit maps to one point.
//
// Coordinates:
// - Page origin is top-left, matching the model.
// - The page is sized to the content bounds plus padding, and shapes are
//   shifted so the padded bounds start at the page origin.
type PDFOptions struct {
	Padding float64
	Title   string
}

// ExportDocumentPDF exports the document to a single-page vector PDF at
// outPath. Relative paths land under the document's exports folder.
func ExportDocumentPDF(dh *storage.DocHandle, outPath string, opt PDFOptions) error {
	if dh == nil {
		return fmt.Errorf("document handle is nil")
	}
	shapes, err := decodeShapes(dh.Snapshot)
	if err != nil {
		return err
	}
	bounds := contentBounds(shapes, opt.Padding)
	pageW := bounds.W
	pageH := bounds.H

	// Use points for 1:1 mapping from model to PDF
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pageW, Ht: pageH},
		OrientationStr: "",
	})
	title := opt.Title
	if title == "" {
		title = "Annotation export"
	}
	pdf.SetTitle(title, false)
	pdf.SetAuthor("AnnoCanvas", false)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: pageW, Ht: pageH})

	tx := func(x float64) float64 { return x - bounds.X }
	ty := func(y float64) float64 { return y - bounds.Y }

	for _, s := range shapes {
		setDrawColor(pdf, s.Attrs().Color)
		setFillColor(pdf, s.Attrs().Color)
		pdf.SetLineWidth(s.Attrs().PenWidth.Px())
		switch v := s.(type) {
		case *shape.Point:
			pdf.Circle(tx(v.Pos.X), ty(v.Pos.Y), shape.PointMarkerSize/2, "F")
		case *shape.Rectangle:
			b := v.Bounds()
			pdf.Rect(tx(b.X), ty(b.Y), b.W, b.H, "D")
		case *shape.Ellipse:
			b := v.Bounds()
			c := b.Center()
			pdf.Ellipse(tx(c.X), ty(c.Y), b.W/2, b.H/2, 0, "D")
		case *shape.Polygon:
			if len(v.Vertices) < 2 {
				continue
			}
			if !v.ForceOpen() && len(v.Vertices) >= shape.PolygonMinVertices {
				pts := make([]gofpdf.PointType, 0, len(v.Vertices))
				for _, p := range v.Vertices {
					pts = append(pts, gofpdf.PointType{X: tx(p.X), Y: ty(p.Y)})
				}
				pdf.Polygon(pts, "D")
			} else {
				pdf.MoveTo(tx(v.Vertices[0].X), ty(v.Vertices[0].Y))
				for _, p := range v.Vertices[1:] {
					pdf.LineTo(tx(p.X), ty(p.Y))
				}
				pdf.DrawPath("D")
			}
		}
	}

	outPath, err = resolveOutPath(dh, outPath)
	if err != nil {
		return err
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func setDrawColor(pdf *gofpdf.Fpdf, c shape.Color) {
	r, g, b, _ := c.RGBA()
	pdf.SetDrawColor(int(r), int(g), int(b))
}

func setFillColor(pdf *gofpdf.Fpdf, c shape.Color) {
	r, g, b, _ := c.RGBA()
	pdf.SetFillColor(int(r), int(g), int(b))
}
