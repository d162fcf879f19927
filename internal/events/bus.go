/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package events

import (
	"fmt"
	"log/slog"
	"sync"

	applog "annocanvas/internal/log"
)

// Handler processes one event. A non-nil error aborts the dispatch.
type Handler func(Event) error

// Subscription is the scoped handle returned by Subscribe. Cancel removes
// the handler; canceling twice is a no-op.
type Subscription struct {
	bus      *Bus
	kind     Kind
	id       uint64
	once     sync.Once
	canceled bool
}

// Cancel unsubscribes the handler.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.canceled = true
		s.bus.unsubscribe(s.kind, s.id)
	})
}

type entry struct {
	id      uint64
	name    string
	handler Handler
}

// Bus dispatches events synchronously to subscribers in subscription order.
// Publish snapshots the subscriber list first, so handlers may subscribe or
// cancel during dispatch without affecting the current fan-out.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Kind][]entry
	log    *slog.Logger
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[Kind][]entry),
		log:  applog.WithComponent("events"),
	}
}

// Subscribe registers a named handler for the given kind. The name appears
// in error wrapping and logs when the handler fails.
func (b *Bus) Subscribe(k Kind, name string, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[k] = append(b.subs[k], entry{id: id, name: name, handler: h})
	return &Subscription{bus: b, kind: k, id: id}
}

func (b *Bus) unsubscribe(k Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	es := b.subs[k]
	for i, e := range es {
		if e.id == id {
			b.subs[k] = append(es[:i:i], es[i+1:]...)
			return
		}
	}
}

// Publish dispatches ev to all subscribers of its kind, in subscription
// order. The first handler error stops the dispatch and is returned wrapped
// with the handler name and event kind.
func (b *Bus) Publish(ev Event) error {
	b.mu.Lock()
	snapshot := append([]entry(nil), b.subs[ev.Kind]...)
	b.mu.Unlock()

	for _, e := range snapshot {
		if err := e.handler(ev); err != nil {
			wrapped := fmt.Errorf("handler %q failed on %s: %w", e.name, ev.Kind, err)
			b.log.Error("event handler failed",
				slog.String("handler", e.name),
				slog.String("event", ev.Kind.String()),
				slog.Any("err", err))
			return wrapped
		}
	}
	return nil
}

// SubscriberCount reports how many handlers listen for k.
func (b *Bus) SubscriberCount(k Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[k])
}
