/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ops implements undoable document operations and the linear
// command stack that owns them.
package ops

import "errors"

// Operation is one undoable document mutation. Execute runs it the first
// time, Undo reverts it, Redo applies it again after an undo. All three are
// expected to be deterministic.
type Operation interface {
	Name() string
	Execute() error
	Undo() error
	Redo() error
}

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)
