/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package events

import (
	"errors"
	"strings"
	"testing"
)

func TestDispatchOrderIsSubscriptionOrder(t *testing.T) {
	b := NewBus()
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		n := name
		b.Subscribe(ShapeAdded, n, func(Event) error {
			order = append(order, n)
			return nil
		})
	}
	if err := b.Publish(NewEvent(ShapeAdded)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("dispatch order %v", order)
	}
}

func TestHandlerErrorAbortsAndWraps(t *testing.T) {
	b := NewBus()
	boom := errors.New("boom")
	var thirdRan bool
	b.Subscribe(ShapeRemoved, "ok", func(Event) error { return nil })
	b.Subscribe(ShapeRemoved, "failing", func(Event) error { return boom })
	b.Subscribe(ShapeRemoved, "late", func(Event) error {
		thirdRan = true
		return nil
	})

	err := b.Publish(NewEvent(ShapeRemoved))
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("error should wrap the handler error: %v", err)
	}
	if !strings.Contains(err.Error(), "failing") || !strings.Contains(err.Error(), "shape_removed") {
		t.Fatalf("error should name the handler and the event: %v", err)
	}
	if thirdRan {
		t.Fatalf("dispatch must stop at the first failing handler")
	}
}

func TestPublishUsesSnapshotOfSubscribers(t *testing.T) {
	b := NewBus()
	var lateRan bool
	b.Subscribe(ToolChanged, "adder", func(Event) error {
		// subscribing during dispatch must not affect the current fan-out
		b.Subscribe(ToolChanged, "late", func(Event) error {
			lateRan = true
			return nil
		})
		return nil
	})
	if err := b.Publish(NewEvent(ToolChanged)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if lateRan {
		t.Fatalf("handler added during dispatch must not run in the same dispatch")
	}
	if got := b.SubscriberCount(ToolChanged); got != 2 {
		t.Fatalf("late subscriber should be registered for the next publish, have %d", got)
	}
}

func TestSubscriptionCancel(t *testing.T) {
	b := NewBus()
	var calls int
	sub := b.Subscribe(ColorChanged, "counter", func(Event) error {
		calls++
		return nil
	})
	if err := b.Publish(NewEvent(ColorChanged)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	sub.Cancel()
	sub.Cancel() // second cancel is a no-op
	if err := b.Publish(NewEvent(ColorChanged)); err != nil {
		t.Fatalf("publish after cancel: %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if got := b.SubscriberCount(ColorChanged); got != 0 {
		t.Fatalf("subscriber list should be empty, have %d", got)
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	b := NewBus()
	if err := b.Publish(NewEvent(StatusTextChanged, "text", "ready")); err != nil {
		t.Fatalf("publish to nobody should succeed: %v", err)
	}
}

func TestEventPayloadHelpers(t *testing.T) {
	ev := NewEvent(DisplayUpdateRequested, "clear_temp", true, "text", "hi")
	if !ev.Bool("clear_temp") {
		t.Fatalf("bool payload lost")
	}
	if ev.Bool("force_cleanup") {
		t.Fatalf("missing bool should default to false")
	}
	if ev.Str("text") != "hi" {
		t.Fatalf("string payload lost")
	}
}
