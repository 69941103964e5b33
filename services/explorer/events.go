// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package explorer

import (
	"sync"
)

// progressBufferSize is the per-subscriber channel depth. Slow
// subscribers drop events rather than stall the build.
const progressBufferSize = 64

// ProgressBroker fans build progress events out to websocket
// subscribers. Publishing never blocks.
//
// Thread Safety: safe for concurrent use.
type ProgressBroker struct {
	mu     sync.RWMutex
	subs   map[chan ProgressEvent]struct{}
	closed bool
}

// NewProgressBroker creates an empty broker.
func NewProgressBroker() *ProgressBroker {
	return &ProgressBroker{subs: make(map[chan ProgressEvent]struct{})}
}

// Subscribe registers a new subscriber. The returned cancel func must
// be called exactly once when the subscriber goes away.
func (b *ProgressBroker) Subscribe() (<-chan ProgressEvent, func()) {
	ch := make(chan ProgressEvent, progressBufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber with room in its
// buffer.
func (b *ProgressBroker) Publish(event ProgressEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Subscriber buffer full; drop rather than block a build.
		}
	}
}

// Close shuts the broker down and closes every subscriber channel.
func (b *ProgressBroker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
