/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders annotation documents to SVG, PDF and PNG files.
// Exporters draw the shape list in stacking order and place relative output
// paths under the document's exports folder.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"annocanvas/internal/geometry"
	"annocanvas/internal/shape"
	"annocanvas/internal/storage"
	"annocanvas/internal/store"
)

// DefaultPadding is the margin in world units added around the content
// bounds when no padding is requested.
const DefaultPadding = 20.0

// decodeShapes turns snapshot records back into shapes, dropping invisible
// ones and ordering the rest back-to-front for painting.
func decodeShapes(snap store.Snapshot) ([]shape.Shape, error) {
	out := make([]shape.Shape, 0, len(snap.Shapes))
	for i, rec := range snap.Shapes {
		s, err := shape.Decode(rec)
		if err != nil {
			return nil, fmt.Errorf("decode shape %d: %w", i, err)
		}
		if !s.Attrs().Visible {
			continue
		}
		out = append(out, s)
	}
	// Stable keeps insertion order for equal z.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Attrs().ZOrder() < out[j].Attrs().ZOrder()
	})
	return out, nil
}

// contentBounds returns the union of all shape bounds expanded by padding.
// An empty document yields a small default canvas so exporters always
// produce a valid file.
func contentBounds(shapes []shape.Shape, padding float64) geometry.Rect {
	if padding <= 0 {
		padding = DefaultPadding
	}
	if len(shapes) == 0 {
		return geometry.Rect{X: 0, Y: 0, W: 100, H: 100}
	}
	b := shapes[0].Bounds()
	for _, s := range shapes[1:] {
		b = b.Union(s.Bounds())
	}
	return b.Expand(padding)
}

// resolveOutPath places relative paths under the document's exports folder
// and ensures the parent directory exists.
func resolveOutPath(dh *storage.DocHandle, outPath string) (string, error) {
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(dh.Root, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	return outPath, nil
}
