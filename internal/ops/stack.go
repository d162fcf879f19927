/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ops

import (
	"fmt"
	"log/slog"
	"sync"

	"annocanvas/internal/events"
	applog "annocanvas/internal/log"
)

// Stack is the linear undo history. index points at the last executed
// operation, -1 when nothing is undoable. Executing while undone operations
// remain discards the redo tail.
type Stack struct {
	mu      sync.Mutex
	bus     *events.Bus
	log     *slog.Logger
	history []Operation
	index   int
	maxSize int
}

// NewStack creates a stack with a bounded history. maxSize <= 0 means
// unbounded.
func NewStack(bus *events.Bus, maxSize int) *Stack {
	return &Stack{
		bus:     bus,
		log:     applog.WithComponent("ops"),
		index:   -1,
		maxSize: maxSize,
	}
}

// Execute runs op and records it. The redo tail above the current index is
// truncated before the append. A failing operation is not recorded.
func (s *Stack) Execute(op Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := op.Execute(); err != nil {
		return fmt.Errorf("execute %s: %w", op.Name(), err)
	}
	s.history = append(s.history[:s.index+1], op)
	s.index++
	if s.maxSize > 0 && len(s.history) > s.maxSize {
		drop := len(s.history) - s.maxSize
		s.history = append([]Operation(nil), s.history[drop:]...)
		s.index -= drop
	}
	s.log.Debug("executed", slog.String("op", op.Name()), slog.Int("index", s.index))
	s.notify()
	return nil
}

// Undo reverts the operation at the index. The index moves only when the
// operation's Undo succeeds.
func (s *Stack) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.canUndo() {
		return ErrNothingToUndo
	}
	op := s.history[s.index]
	if err := op.Undo(); err != nil {
		return fmt.Errorf("undo %s: %w", op.Name(), err)
	}
	s.index--
	s.log.Debug("undone", slog.String("op", op.Name()), slog.Int("index", s.index))
	s.notify()
	return nil
}

// Redo re-applies the operation above the index. The index moves only when
// the operation's Redo succeeds.
func (s *Stack) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.canRedo() {
		return ErrNothingToRedo
	}
	op := s.history[s.index+1]
	if err := op.Redo(); err != nil {
		return fmt.Errorf("redo %s: %w", op.Name(), err)
	}
	s.index++
	s.log.Debug("redone", slog.String("op", op.Name()), slog.Int("index", s.index))
	s.notify()
	return nil
}

func (s *Stack) canUndo() bool { return s.index >= 0 && s.index < len(s.history) }
func (s *Stack) canRedo() bool { return s.index+1 < len(s.history) }

// CanUndo reports whether Undo would act.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canUndo()
}

// CanRedo reports whether Redo would act.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canRedo()
}

// Len returns the number of recorded operations.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Clear drops the whole history.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.index = -1
	s.notify()
}

func (s *Stack) notify() {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(events.NewEvent(events.HistoryChanged,
		"can_undo", s.canUndo(), "can_redo", s.canRedo()))
	_ = s.bus.Publish(events.NewEvent(events.DisplayUpdateRequested))
}
