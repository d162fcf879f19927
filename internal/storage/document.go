/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"annocanvas/internal/store"
)

const (
	DocumentFileName = "canvas.json"
	BackupsDirName   = "backups"
)

// Standard subfolders created next to the document file.
var standardSubDirs = []string{
	"exports",
	BackupsDirName,
}

// DocHandle keeps track of a document loaded from or saved to disk.
// Root is the document directory containing canvas.json and subfolders.
// Snapshot holds the in-memory representation of the document.
type DocHandle struct {
	Root         string
	DocumentPath string
	Snapshot     store.Snapshot
}

// InitDocument creates a new document directory at root (creating it if it
// doesn't exist), scaffolds the standard subfolders, and writes the given
// snapshot transactionally.
func InitDocument(root string, snap store.Snapshot) (*DocHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create document root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}

	dh := &DocHandle{
		Root:         root,
		DocumentPath: filepath.Join(root, DocumentFileName),
		Snapshot:     snap,
	}
	if err := Save(dh); err != nil {
		return nil, err
	}
	return dh, nil
}

// Open loads an existing document from the given root directory.
// If the current document cannot be read or parsed, it will attempt the
// latest backup.
func Open(root string) (*DocHandle, error) {
	dpath := filepath.Join(root, DocumentFileName)
	b, err := os.ReadFile(dpath)
	if err != nil {
		snap, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open document: %w; backup attempt: %v", err, berr)
		}
		return &DocHandle{Root: root, DocumentPath: dpath, Snapshot: *snap}, nil
	}
	var snap store.Snapshot
	if uerr := json.Unmarshal(b, &snap); uerr != nil {
		bsnap, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("parse document: %w; backup attempt: %v", uerr, berr)
		}
		return &DocHandle{Root: root, DocumentPath: dpath, Snapshot: *bsnap}, nil
	}
	// A parseable but non-conforming document is treated like corruption.
	if verr := ValidateDocument(b); verr != nil {
		bsnap, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("validate document: %w; backup attempt: %v", verr, berr)
		}
		return &DocHandle{Root: root, DocumentPath: dpath, Snapshot: *bsnap}, nil
	}
	return &DocHandle{Root: root, DocumentPath: dpath, Snapshot: snap}, nil
}

// Save writes the current DocHandle.Snapshot to disk with transactional
// semantics and a timestamped backup of the previous document (if present).
func Save(dh *DocHandle) error {
	if dh == nil {
		return errors.New("nil DocHandle")
	}
	if dh.Root == "" || dh.DocumentPath == "" {
		return errors.New("invalid DocHandle: missing paths")
	}
	// Marshal in human-readable form
	data, err := json.MarshalIndent(dh.Snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(dh.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	// If a current document exists, copy it to a timestamped backup before replacing
	if _, statErr := os.Stat(dh.DocumentPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bname := fmt.Sprintf("%s.%s.bak", DocumentFileName, stamp)
		bpath := filepath.Join(bdir, bname)
		if cerr := copyFile(dh.DocumentPath, bpath); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
	}

	// Transactional write: to temp file in same directory, then rename over target
	dir := filepath.Dir(dh.DocumentPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", DocumentFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp document: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(dh.DocumentPath); err == nil {
		_ = os.Remove(dh.DocumentPath)
	}
	if rerr := os.Rename(temp, dh.DocumentPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", rerr)
	}
	return nil
}

// SaveAs writes the document to a new root folder, scaffolding structure if
// needed, and updates the handle.
func SaveAs(dh *DocHandle, newRoot string) error {
	if dh == nil {
		return errors.New("nil DocHandle")
	}
	if newRoot == "" {
		return errors.New("new root is empty")
	}
	if err := os.MkdirAll(newRoot, 0o755); err != nil {
		return fmt.Errorf("create new root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(newRoot, d), 0o755); err != nil {
			return fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	dh.Root = newRoot
	dh.DocumentPath = filepath.Join(newRoot, DocumentFileName)
	return Save(dh)
}

// AutosaveCrashSnapshot writes the in-memory snapshot to a timestamped
// autosave file under the backups folder, bypassing the normal save path.
// Used by the crash handler, so it must not touch the current document.
func AutosaveCrashSnapshot(dh *DocHandle) (string, error) {
	if dh == nil {
		return "", errors.New("nil DocHandle")
	}
	if dh.Root == "" {
		return "", errors.New("invalid DocHandle: missing root")
	}
	data, err := json.MarshalIndent(dh.Snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(dh.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("%s.autosave-%s.json", DocumentFileName, stamp))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write autosave: %w", err)
	}
	return path, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	if err := df.Sync(); err != nil {
		return err
	}
	return nil
}

// openFromLatestBackup tries to open the latest timestamped backup.
func openFromLatestBackup(root string) (*store.Snapshot, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, DocumentFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	var snap store.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	return &snap, nil
}
