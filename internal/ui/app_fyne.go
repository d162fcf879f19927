//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"database/sql"
	"fmt"
	"image/color"
	"log/slog"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"annocanvas/internal/config"
	"annocanvas/internal/crash"
	"annocanvas/internal/events"
	"annocanvas/internal/export"
	"annocanvas/internal/geometry"
	"annocanvas/internal/interact"
	applog "annocanvas/internal/log"
	"annocanvas/internal/ops"
	"annocanvas/internal/render"
	"annocanvas/internal/shape"
	"annocanvas/internal/storage"
	"annocanvas/internal/store"
	"annocanvas/internal/telemetry"
)

// Run starts the Fyne-based desktop UI with the annotation canvas editor.
func Run(docDir string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	cfg, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}
	if cfg.General.TelemetryOptIn {
		telemetry.InitDefault()
	}

	var dh *storage.DocHandle
	defer func() { crash.Recover(dh) }()

	bus := events.NewBus()
	st := store.New(bus, cfg.Interaction)
	stack := ops.NewStack(bus, cfg.History.MaxSize)
	creation := interact.NewCreationService(bus, st, stack)
	machine := interact.NewMachine(bus, st, stack, creation, cfg.Interaction)
	defer machine.Close()
	adapter := interact.NewAdapter(machine)
	adapter.SetWorldPerPixel(1)

	fyneApp := app.NewWithID("annocanvas")
	w := fyneApp.NewWindow("AnnoCanvas")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	cw := NewCanvasWidget(adapter)
	cw.OnStatus = func(text string) { status.SetText(text) }
	sync := render.NewSynchronizer(bus, st, cw)
	defer sync.Close()

	// Recent-documents index is best effort; the editor works without it.
	recentDB := openRecentIndex(l)

	touchRecent := func() {
		if recentDB == nil || dh == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		entry := storage.RecentEntry{
			Root:       dh.Root,
			Title:      filepath.Base(dh.Root),
			ShapeCount: len(st.Shapes()),
		}
		if err := storage.TouchRecent(ctx, recentDB, entry); err != nil {
			l.Warn("recent index update failed", slog.Any("err", err))
		}
	}

	openDocument := func(dir string) error {
		h, err := storage.Open(dir)
		if err != nil {
			return err
		}
		if err := st.Import(h.Snapshot); err != nil {
			return err
		}
		dh = h
		stack.Clear()
		_ = bus.Publish(events.NewEvent(events.DocumentLoaded, "root", dir))
		_ = bus.Publish(events.NewEvent(events.DisplayUpdateRequested, "clear_temp", true, "force_cleanup", true))
		status.SetText(fmt.Sprintf("Opened %s (%d shapes)", dir, len(st.Shapes())))
		touchRecent()
		telemetry.Event("document_opened", map[string]any{"shapes": len(st.Shapes())})
		return nil
	}

	saveDocument := func() {
		if dh == nil {
			dialog.ShowInformation("Save", "No document open. Use File > Save As.", w)
			return
		}
		dh.Snapshot = st.Export()
		if err := storage.Save(dh); err != nil {
			dialog.ShowError(err, w)
			return
		}
		_ = bus.Publish(events.NewEvent(events.DocumentSaved, "root", dh.Root))
		status.SetText("Saved " + dh.DocumentPath)
		touchRecent()
	}

	// Tool palette
	toolNames := []string{"Select", "Point", "Rectangle", "Ellipse", "Polygon"}
	toolKinds := []shape.Kind{shape.KindNone, shape.KindPoint, shape.KindRectangle, shape.KindEllipse, shape.KindPolygon}
	toolSelect := widget.NewSelect(toolNames, func(name string) {
		for i, n := range toolNames {
			if n == name {
				st.SetCurrentTool(toolKinds[i])
				return
			}
		}
	})
	toolSelect.SetSelected("Select")

	colorNames := []string{"red", "green", "yellow", "blue", "purple", "orange", "black", "white"}
	colorVals := []shape.Color{shape.ColorRed, shape.ColorGreen, shape.ColorYellow, shape.ColorBlue, shape.ColorPurple, shape.ColorOrange, shape.ColorBlack, shape.ColorWhite}
	colorSelect := widget.NewSelect(colorNames, func(name string) {
		for i, n := range colorNames {
			if n == name {
				st.SetCurrentColor(colorVals[i])
				return
			}
		}
	})
	colorSelect.SetSelected("red")

	widthNames := []string{"ultra thin", "thin", "medium", "thick", "ultra thick"}
	widthVals := []shape.PenWidth{shape.PenUltraThin, shape.PenThin, shape.PenMedium, shape.PenThick, shape.PenUltraThick}
	widthSelect := widget.NewSelect(widthNames, func(name string) {
		for i, n := range widthNames {
			if n == name {
				st.SetCurrentPenWidth(widthVals[i])
				return
			}
		}
	})
	widthSelect.SetSelected("medium")

	undoBtn := widget.NewButton("Undo", func() {
		if err := stack.Undo(); err != nil {
			status.SetText(err.Error())
		}
	})
	redoBtn := widget.NewButton("Redo", func() {
		if err := stack.Redo(); err != nil {
			status.SetText(err.Error())
		}
	})
	deleteBtn := widget.NewButton("Delete", func() {
		if err := creation.DeleteSelected(); err != nil {
			status.SetText(err.Error())
		}
	})
	clearBtn := widget.NewButton("Clear", func() {
		dialog.ShowConfirm("Clear canvas", "Remove all shapes?", func(ok bool) {
			if !ok {
				return
			}
			if err := creation.ClearAll(); err != nil {
				status.SetText(err.Error())
			}
		}, w)
	})

	refreshHistoryButtons := func() {
		if stack.CanUndo() {
			undoBtn.Enable()
		} else {
			undoBtn.Disable()
		}
		if stack.CanRedo() {
			redoBtn.Enable()
		} else {
			redoBtn.Disable()
		}
	}
	refreshHistoryButtons()
	histSub := bus.Subscribe(events.HistoryChanged, "ui.history", func(events.Event) error {
		refreshHistoryButtons()
		return nil
	})
	defer histSub.Cancel()

	// The machine asks before discarding a polygon with real progress.
	confirmSub := bus.Subscribe(events.ConfirmCancelPolygon, "ui.cancelPolygon", func(events.Event) error {
		dialog.ShowConfirm("Cancel polygon",
			"Discard the polygon in progress?",
			func(ok bool) {
				_ = bus.Publish(events.NewEvent(events.CancelPolygonConfirmed, "confirmed", ok))
			}, w)
		return nil
	})
	defer confirmSub.Cancel()

	exportDialog := func(kind string) {
		if dh == nil {
			dialog.ShowInformation("Export", "Save the document before exporting.", w)
			return
		}
		dh.Snapshot = st.Export()
		name := "export-" + time.Now().Format("20060102-150405") + "." + kind
		var err error
		switch kind {
		case "svg":
			err = export.ExportDocumentSVG(dh, name, export.SVGOptions{Background: true})
		case "pdf":
			err = export.ExportDocumentPDF(dh, name, export.PDFOptions{Title: filepath.Base(dh.Root)})
		case "png":
			err = export.ExportDocumentPNG(dh, name, export.PNGOptions{Scale: 2})
		}
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Exported " + filepath.Join(dh.Root, "exports", name))
		telemetry.Event("document_exported", map[string]any{"format": kind})
	}

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open...", func() {
			dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
				if err != nil || uri == nil {
					return
				}
				if oerr := openDocument(uri.Path()); oerr != nil {
					dialog.ShowError(oerr, w)
				}
			}, w)
		}),
		fyne.NewMenuItem("Save", saveDocument),
		fyne.NewMenuItem("Save As...", func() {
			dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
				if err != nil || uri == nil {
					return
				}
				snap := st.Export()
				h, ierr := storage.InitDocument(uri.Path(), snap)
				if ierr != nil {
					dialog.ShowError(ierr, w)
					return
				}
				dh = h
				status.SetText("Saved " + dh.DocumentPath)
				touchRecent()
			}, w)
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export SVG", func() { exportDialog("svg") }),
		fyne.NewMenuItem("Export PDF", func() { exportDialog("pdf") }),
		fyne.NewMenuItem("Export PNG", func() { exportDialog("png") }),
	)
	w.SetMainMenu(fyne.NewMainMenu(fileMenu))

	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyEscape:
			adapter.Escape()
		case fyne.KeyDelete, fyne.KeyBackspace:
			if err := creation.DeleteSelected(); err != nil {
				status.SetText(err.Error())
			}
		}
	})

	toolbar := container.NewHBox(
		widget.NewLabel("Tool"), toolSelect,
		widget.NewLabel("Color"), colorSelect,
		widget.NewLabel("Width"), widthSelect,
		widget.NewSeparator(),
		undoBtn, redoBtn, deleteBtn, clearBtn,
	)
	w.SetContent(container.NewBorder(toolbar, status, nil, nil, cw))

	if docDir != "" {
		if err := openDocument(docDir); err != nil {
			l.Error("open document failed", slog.Any("err", err), slog.String("dir", docDir))
			status.SetText("Open failed: " + err.Error())
		}
	}

	w.SetOnClosed(func() {
		prefs.SetInt("window.width", int(w.Canvas().Size().Width))
		prefs.SetInt("window.height", int(w.Canvas().Size().Height))
		if recentDB != nil {
			_ = recentDB.Close()
		}
	})

	w.ShowAndRun()
	return nil
}

func openRecentIndex(l *slog.Logger) *sql.DB {
	path, err := config.ConfigPath()
	if err != nil {
		l.Warn("config path unavailable, recent index disabled", slog.Any("err", err))
		return nil
	}
	db, err := storage.OpenRecentIndex(filepath.Dir(path))
	if err != nil {
		l.Warn("recent index unavailable", slog.Any("err", err))
		return nil
	}
	return db
}

// CanvasWidget is the drawing surface. It implements render.Renderer so the
// synchronizer can mirror the store into canvas primitives, and it feeds raw
// pointer input to the interaction adapter. World coordinates map 1:1 to
// widget pixels.
type CanvasWidget struct {
	widget.BaseWidget

	adapter *interact.Adapter
	content *fyne.Container

	shapeObjs  map[string][]fyne.CanvasObject
	handleObjs map[string]fyne.CanvasObject
	tempObjs   []fyne.CanvasObject

	OnStatus func(string)
}

var _ render.Renderer = (*CanvasWidget)(nil)
var _ desktop.Mouseable = (*CanvasWidget)(nil)
var _ desktop.Hoverable = (*CanvasWidget)(nil)
var _ fyne.Draggable = (*CanvasWidget)(nil)

// NewCanvasWidget creates the canvas bound to an input adapter.
func NewCanvasWidget(adapter *interact.Adapter) *CanvasWidget {
	cw := &CanvasWidget{
		adapter:    adapter,
		content:    container.NewWithoutLayout(),
		shapeObjs:  map[string][]fyne.CanvasObject{},
		handleObjs: map[string]fyne.CanvasObject{},
	}
	bg := canvas.NewRectangle(color.NRGBA{R: 250, G: 250, B: 250, A: 255})
	bg.Resize(fyne.NewSize(4000, 4000))
	cw.content.Add(bg)
	cw.ExtendBaseWidget(cw)
	return cw
}

func (cw *CanvasWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(cw.content)
}

func (cw *CanvasWidget) MinSize() fyne.Size { return fyne.NewSize(800, 600) }

// render.Renderer implementation

func (cw *CanvasWidget) UpsertShape(s shape.Shape) {
	cw.removeObjs(cw.shapeObjs[s.ID()])
	objs := shapeObjects(s)
	cw.shapeObjs[s.ID()] = objs
	cw.addObjs(objs)
	cw.content.Refresh()
}

func (cw *CanvasWidget) RemoveShape(id string) {
	cw.removeObjs(cw.shapeObjs[id])
	delete(cw.shapeObjs, id)
	cw.content.Refresh()
}

func (cw *CanvasWidget) UpsertControlPoint(_ shape.Shape, cp *shape.ControlPoint) {
	if old, ok := cw.handleObjs[cp.ID]; ok {
		cw.content.Remove(old)
	}
	h := canvas.NewRectangle(color.NRGBA{R: 30, G: 120, B: 255, A: 255})
	size := float32(shape.ControlPointSize)
	h.Resize(fyne.NewSize(size, size))
	h.Move(fyne.NewPos(float32(cp.Pos.X)-size/2, float32(cp.Pos.Y)-size/2))
	cw.handleObjs[cp.ID] = h
	cw.content.Add(h)
	cw.content.Refresh()
}

func (cw *CanvasWidget) RemoveControlPoint(id string) {
	if obj, ok := cw.handleObjs[id]; ok {
		cw.content.Remove(obj)
		delete(cw.handleObjs, id)
		cw.content.Refresh()
	}
}

func (cw *CanvasWidget) SetTemp(s shape.Shape) {
	cw.removeObjs(cw.tempObjs)
	cw.tempObjs = nil
	if s != nil {
		cw.tempObjs = shapeObjects(s)
		cw.addObjs(cw.tempObjs)
	}
	cw.content.Refresh()
}

func (cw *CanvasWidget) SetStatus(text string) {
	if cw.OnStatus != nil {
		cw.OnStatus(text)
	}
}

func (cw *CanvasWidget) addObjs(objs []fyne.CanvasObject) {
	for _, o := range objs {
		cw.content.Add(o)
	}
}

func (cw *CanvasWidget) removeObjs(objs []fyne.CanvasObject) {
	for _, o := range objs {
		cw.content.Remove(o)
	}
}

// pointer input

func mapButton(b desktop.MouseButton) interact.Button {
	switch b {
	case desktop.MouseButtonPrimary:
		return interact.ButtonLeft
	case desktop.MouseButtonSecondary:
		return interact.ButtonRight
	case desktop.MouseButtonTertiary:
		return interact.ButtonMiddle
	default:
		return interact.ButtonNone
	}
}

func toWorld(p fyne.Position) geometry.Pt {
	return geometry.Pt{X: float64(p.X), Y: float64(p.Y)}
}

func (cw *CanvasWidget) MouseDown(ev *desktop.MouseEvent) {
	cw.adapter.Press(toWorld(ev.Position), mapButton(ev.Button))
}

func (cw *CanvasWidget) MouseUp(ev *desktop.MouseEvent) {
	cw.adapter.Release(toWorld(ev.Position), mapButton(ev.Button))
}

func (cw *CanvasWidget) MouseIn(*desktop.MouseEvent) {}

func (cw *CanvasWidget) MouseMoved(ev *desktop.MouseEvent) {
	cw.adapter.Move(toWorld(ev.Position))
}

func (cw *CanvasWidget) MouseOut() {}

func (cw *CanvasWidget) Dragged(ev *fyne.DragEvent) {
	cw.adapter.Move(toWorld(ev.Position))
}

func (cw *CanvasWidget) DragEnd() {}

// shapeObjects builds the canvas primitives for one shape.
func shapeObjects(s shape.Shape) []fyne.CanvasObject {
	col := shapeColor(s.Attrs().Color)
	sw := float32(s.Attrs().PenWidth.Px())
	switch v := s.(type) {
	case *shape.Point:
		c := canvas.NewCircle(col)
		size := float32(shape.PointMarkerSize)
		c.Resize(fyne.NewSize(size, size))
		c.Move(fyne.NewPos(float32(v.Pos.X)-size/2, float32(v.Pos.Y)-size/2))
		return []fyne.CanvasObject{c}
	case *shape.Rectangle:
		b := v.Bounds()
		r := canvas.NewRectangle(color.Transparent)
		r.StrokeColor = col
		r.StrokeWidth = sw
		r.Move(fyne.NewPos(float32(b.X), float32(b.Y)))
		r.Resize(fyne.NewSize(float32(b.W), float32(b.H)))
		return []fyne.CanvasObject{r}
	case *shape.Ellipse:
		b := v.Bounds()
		c := canvas.NewCircle(color.Transparent)
		c.StrokeColor = col
		c.StrokeWidth = sw
		c.Move(fyne.NewPos(float32(b.X), float32(b.Y)))
		c.Resize(fyne.NewSize(float32(b.W), float32(b.H)))
		return []fyne.CanvasObject{c}
	case *shape.Polygon:
		vs := v.Vertices
		objs := make([]fyne.CanvasObject, 0, len(vs))
		for i := 0; i+1 < len(vs); i++ {
			ln := canvas.NewLine(col)
			ln.StrokeWidth = sw
			ln.Position1 = fyne.NewPos(float32(vs[i].X), float32(vs[i].Y))
			ln.Position2 = fyne.NewPos(float32(vs[i+1].X), float32(vs[i+1].Y))
			objs = append(objs, ln)
		}
		if !v.ForceOpen() && len(vs) >= shape.PolygonMinVertices && vs[0] != vs[len(vs)-1] {
			ln := canvas.NewLine(col)
			ln.StrokeWidth = sw
			ln.Position1 = fyne.NewPos(float32(vs[len(vs)-1].X), float32(vs[len(vs)-1].Y))
			ln.Position2 = fyne.NewPos(float32(vs[0].X), float32(vs[0].Y))
			objs = append(objs, ln)
		}
		return objs
	default:
		return nil
	}
}

func shapeColor(c shape.Color) color.Color {
	r, g, b, a := c.RGBA()
	return color.NRGBA{R: r, G: g, B: b, A: a}
}
