/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"annocanvas/internal/config"
	"annocanvas/internal/crash"
	"annocanvas/internal/events"
	"annocanvas/internal/export"
	applog "annocanvas/internal/log"
	"annocanvas/internal/storage"
	"annocanvas/internal/store"
	"annocanvas/internal/ui"
	"annocanvas/internal/version"
)

func usage() {
	fmt.Println("AnnoCanvas — interactive annotation canvas")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  annocanvas version|-v|--version             Show version")
	fmt.Println("  annocanvas init <dir>                        Create a new empty document at <dir>")
	fmt.Println("  annocanvas open <dir>                        Open document at <dir> and print summary")
	fmt.Println("  annocanvas validate <dir>                    Validate document at <dir> against the schema")
	fmt.Println("  annocanvas export <dir> <svg|pdf|png> [out]  Export document at <dir>")
	fmt.Println("  annocanvas recent                            List recently opened documents")
	fmt.Println("  annocanvas ui [<dir>]                        Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var dh *storage.DocHandle
	defer func() { crash.Recover(dh) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("AnnoCanvas — interactive annotation canvas")
			fmt.Println(version.String())
			return
		case "init":
			if len(args) < 3 {
				fmt.Println("init requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("init document", slog.String("root", abs))
			cfg, err := config.Load()
			if err != nil {
				cfg = config.Defaults()
			}
			st := store.New(events.NewBus(), cfg.Interaction)
			h, err := storage.InitDocument(abs, st.Export())
			if err != nil {
				l.Error("init failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			dh = h
			touchRecent(l, dh, 0)
			fmt.Println("Created document at", abs)
			return
		case "open":
			if len(args) < 3 {
				fmt.Println("open requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("open document", slog.String("root", abs))
			h, err := storage.Open(abs)
			if err != nil {
				l.Error("open failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			dh = h
			touchRecent(l, dh, len(h.Snapshot.Shapes))
			fmt.Println("Opened document at", h.Root)
			fmt.Printf("Shapes: %d\n", len(h.Snapshot.Shapes))
			fmt.Printf("Modified: %s\n", h.Snapshot.Metadata.ModifiedTime)
			return
		case "validate":
			if len(args) < 3 {
				fmt.Println("validate requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			path := filepath.Join(abs, storage.DocumentFileName)
			if err := storage.ValidateDocumentFile(path); err != nil {
				l.Error("validation failed", slog.Any("err", err))
				fmt.Println("Invalid:", err)
				os.Exit(1)
			}
			fmt.Println("Valid:", path)
			return
		case "export":
			if len(args) < 4 {
				fmt.Println("export requires <dir> and a format (svg, pdf or png)")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			format := args[3]
			out := fmt.Sprintf("export-%s.%s", time.Now().Format("20060102-150405"), format)
			if len(args) >= 5 {
				out = args[4]
			}
			h, err := storage.Open(abs)
			if err != nil {
				l.Error("open before export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			dh = h
			switch format {
			case "svg":
				err = export.ExportDocumentSVG(h, out, export.SVGOptions{Background: true})
			case "pdf":
				err = export.ExportDocumentPDF(h, out, export.PDFOptions{Title: filepath.Base(h.Root)})
			case "png":
				err = export.ExportDocumentPNG(h, out, export.PNGOptions{Scale: 2})
			default:
				fmt.Println("unknown export format:", format)
				usage()
				os.Exit(2)
			}
			if err != nil {
				l.Error("export failed", slog.Any("err", err), slog.String("format", format))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if !filepath.IsAbs(out) {
				out = filepath.Join(h.Root, "exports", out)
			}
			fmt.Println("Exported", out)
			return
		case "recent":
			listRecent(l)
			return
		case "ui":
			var dir string
			if len(args) >= 3 {
				dir = args[2]
			}
			if err := ui.Run(dir); err != nil {
				l.Error("ui failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "help", "--help", "-h":
			usage()
			return
		default:
			fmt.Println("unknown command:", args[1])
			usage()
			os.Exit(2)
		}
	}
	usage()
}

// touchRecent records the document in the recent-documents index. Failures
// only log; the CLI keeps working without the index.
func touchRecent(l *slog.Logger, dh *storage.DocHandle, shapeCount int) {
	path, err := config.ConfigPath()
	if err != nil {
		l.Debug("config path unavailable", slog.Any("err", err))
		return
	}
	db, err := storage.OpenRecentIndex(filepath.Dir(path))
	if err != nil {
		l.Debug("recent index unavailable", slog.Any("err", err))
		return
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	entry := storage.RecentEntry{
		Root:       dh.Root,
		Title:      filepath.Base(dh.Root),
		ShapeCount: shapeCount,
	}
	if err := storage.TouchRecent(ctx, db, entry); err != nil {
		l.Debug("recent index update failed", slog.Any("err", err))
	}
}

func listRecent(l *slog.Logger) {
	path, err := config.ConfigPath()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	db, err := storage.OpenRecentIndex(filepath.Dir(path))
	if err != nil {
		l.Error("recent index unavailable", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	entries, err := storage.RecentDocuments(ctx, db, 10)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("No recent documents.")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  %s (%d shapes)\n", e.OpenedAt.Local().Format("2006-01-02 15:04"), e.Root, e.ShapeCount)
	}
}
