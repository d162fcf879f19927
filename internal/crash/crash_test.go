/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"annocanvas/internal/config"
	"annocanvas/internal/events"
	"annocanvas/internal/storage"
	"annocanvas/internal/store"
)

func TestRecoverWritesReportAndAutosave(t *testing.T) {
	st := store.New(events.NewBus(), config.Defaults().Interaction)
	dh, err := storage.InitDocument(t.TempDir(), st.Export())
	if err != nil {
		t.Fatalf("InitDocument error: %v", err)
	}

	exitCode := -1
	exitFn = func(code int) { exitCode = code }
	defer func() { exitFn = os.Exit }()

	func() {
		defer Recover(dh)
		panic("boom")
	}()

	if exitCode != 2 {
		t.Fatalf("expected exit code 2, got %d", exitCode)
	}

	bdir := filepath.Join(dh.Root, storage.BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		t.Fatalf("read backups dir: %v", err)
	}
	var haveReport, haveAutosave bool
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, "crash-") && strings.HasSuffix(name, ".log") {
			haveReport = true
			b, err := os.ReadFile(filepath.Join(bdir, name))
			if err != nil {
				t.Fatalf("read report: %v", err)
			}
			if !strings.Contains(string(b), "Panic: boom") {
				t.Fatalf("report missing panic value")
			}
		}
		if strings.Contains(name, ".autosave-") {
			haveAutosave = true
		}
	}
	if !haveReport {
		t.Fatalf("no crash report written")
	}
	if !haveAutosave {
		t.Fatalf("no autosave snapshot written")
	}
}

func TestRecoverWithoutDocumentWritesToTemp(t *testing.T) {
	exitCode := -1
	exitFn = func(code int) { exitCode = code }
	defer func() { exitFn = os.Exit }()

	func() {
		defer Recover(nil)
		panic("no document")
	}()

	if exitCode != 2 {
		t.Fatalf("expected exit code 2, got %d", exitCode)
	}
}

func TestRecoverNoopWithoutPanic(t *testing.T) {
	called := false
	exitFn = func(int) { called = true }
	defer func() { exitFn = os.Exit }()

	func() {
		defer Recover(nil)
	}()

	if called {
		t.Fatalf("Recover must not exit without a panic")
	}
}
