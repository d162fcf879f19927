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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"annocanvas/internal/geometry"
	"annocanvas/internal/shape"
	"annocanvas/internal/storage"
)

// PNGOptions controls PNG export behavior. Scale maps world units to pixels;
// 1.0 renders one pixel per world unit.
type PNGOptions struct {
	Padding float64
	Scale   float64
}

// ExportDocumentPNG rasterizes the document to a PNG file at outPath.
// Relative paths land under the document's exports folder.
func ExportDocumentPNG(dh *storage.DocHandle, outPath string, opt PNGOptions) error {
	if dh == nil {
		return fmt.Errorf("document handle is nil")
	}
	shapes, err := decodeShapes(dh.Snapshot)
	if err != nil {
		return err
	}
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}
	bounds := contentBounds(shapes, opt.Padding)
	pixW := int(math.Round(bounds.W * scale))
	pixH := int(math.Round(bounds.H * scale))
	if pixW < 1 {
		pixW = 1
	}
	if pixH < 1 {
		pixH = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	// Background white
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	px := func(p geometry.Pt) (int, int) {
		return int(math.Round((p.X - bounds.X) * scale)), int(math.Round((p.Y - bounds.Y) * scale))
	}

	for _, s := range shapes {
		col := toRGBA(s.Attrs().Color)
		switch v := s.(type) {
		case *shape.Point:
			x, y := px(v.Pos)
			r := int(math.Round(shape.PointMarkerSize / 2 * scale))
			fillRect(img, x-r, y-r, x+r, y+r, col)
		case *shape.Rectangle:
			b := v.Bounds()
			x0, y0 := px(b.Min())
			x1, y1 := px(b.Max())
			strokeRect(img, x0, y0, x1, y1, col)
		case *shape.Ellipse:
			strokeEllipse(img, v, px, col)
		case *shape.Polygon:
			vs := v.Vertices
			for i := 0; i+1 < len(vs); i++ {
				x0, y0 := px(vs[i])
				x1, y1 := px(vs[i+1])
				drawLine(img, x0, y0, x1, y1, col)
			}
			if !v.ForceOpen() && len(vs) >= shape.PolygonMinVertices && vs[0] != vs[len(vs)-1] {
				x0, y0 := px(vs[len(vs)-1])
				x1, y1 := px(vs[0])
				drawLine(img, x0, y0, x1, y1, col)
			}
		}
	}

	outPath, err = resolveOutPath(dh, outPath)
	if err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

func toRGBA(c shape.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: r, G: g, B: b, A: a}
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

// drawLine paints a 1px segment by dense parametric sampling. Good enough
// for annotation strokes at export resolution.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := float64(x1 - x0)
	dy := float64(y1 - y0)
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		img.SetRGBA(x0, y0, col)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		img.SetRGBA(x0+int(math.Round(dx*t)), y0+int(math.Round(dy*t)), col)
	}
}

// strokeEllipse samples the outline parametrically, one step per outline
// pixel or so.
func strokeEllipse(img *image.RGBA, e *shape.Ellipse, px func(geometry.Pt) (int, int), col color.RGBA) {
	b := e.Bounds()
	c := b.Center()
	rx := b.W / 2
	ry := b.H / 2
	steps := int(math.Max(16, 4*(rx+ry)))
	for i := 0; i <= steps; i++ {
		t := 2 * math.Pi * float64(i) / float64(steps)
		x, y := px(geometry.Pt{X: c.X + rx*math.Cos(t), Y: c.Y + ry*math.Sin(t)})
		img.SetRGBA(x, y, col)
	}
}
