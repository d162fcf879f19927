/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"
)

func openTestIndex(t *testing.T) (*sql.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := OpenRecentIndex(dir)
	if err != nil {
		t.Fatalf("OpenRecentIndex error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, dir
}

func TestOpenRecentIndexCreatesFile(t *testing.T) {
	_, dir := openTestIndex(t)
	if _, err := os.Stat(IndexPath(dir)); err != nil {
		t.Fatalf("index file missing: %v", err)
	}
}

func TestOpenRecentIndexRequiresDir(t *testing.T) {
	if _, err := OpenRecentIndex("  "); err == nil {
		t.Fatalf("expected error for blank state dir")
	}
}

func TestTouchAndListOrdering(t *testing.T) {
	db, _ := openTestIndex(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []RecentEntry{
		{Root: "/docs/a", Title: "a", ShapeCount: 1, OpenedAt: base},
		{Root: "/docs/b", Title: "b", ShapeCount: 2, OpenedAt: base.Add(time.Minute)},
		{Root: "/docs/c", Title: "c", ShapeCount: 3, OpenedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := TouchRecent(ctx, db, e); err != nil {
			t.Fatalf("TouchRecent(%s): %v", e.Root, err)
		}
	}

	got, err := RecentDocuments(ctx, db, 0)
	if err != nil {
		t.Fatalf("RecentDocuments error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].Root != "/docs/c" || got[2].Root != "/docs/a" {
		t.Fatalf("wrong ordering: %v, %v, %v", got[0].Root, got[1].Root, got[2].Root)
	}

	// Re-opening a stays a single row and moves it to the front.
	if err := TouchRecent(ctx, db, RecentEntry{Root: "/docs/a", Title: "a2", ShapeCount: 5, OpenedAt: base.Add(time.Hour)}); err != nil {
		t.Fatalf("TouchRecent update: %v", err)
	}
	got, err = RecentDocuments(ctx, db, 2)
	if err != nil {
		t.Fatalf("RecentDocuments error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("limit not applied, got %d entries", len(got))
	}
	if got[0].Root != "/docs/a" || got[0].Title != "a2" || got[0].ShapeCount != 5 {
		t.Fatalf("updated entry not first: %+v", got[0])
	}
}

func TestTouchRecentRequiresRoot(t *testing.T) {
	db, _ := openTestIndex(t)
	if err := TouchRecent(context.Background(), db, RecentEntry{Title: "no root"}); err == nil {
		t.Fatalf("expected error for blank root")
	}
}

func TestRemoveRecent(t *testing.T) {
	db, _ := openTestIndex(t)
	ctx := context.Background()
	if err := TouchRecent(ctx, db, RecentEntry{Root: "/docs/a", Title: "a"}); err != nil {
		t.Fatalf("TouchRecent: %v", err)
	}
	if err := RemoveRecent(ctx, db, "/docs/a"); err != nil {
		t.Fatalf("RemoveRecent: %v", err)
	}
	got, err := RecentDocuments(ctx, db, 0)
	if err != nil {
		t.Fatalf("RecentDocuments error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
	// Unknown root is a no-op.
	if err := RemoveRecent(ctx, db, "/docs/missing"); err != nil {
		t.Fatalf("RemoveRecent unknown root: %v", err)
	}
}

func TestReopenIndexKeepsSchemaVersion(t *testing.T) {
	db, dir := openTestIndex(t)
	_ = db.Close()

	db2, err := OpenRecentIndex(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db2.Close()

	var cur int
	if err := db2.QueryRow(`SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if cur != schemaVersion {
		t.Fatalf("schema version %d, want %d", cur, schemaVersion)
	}
}
