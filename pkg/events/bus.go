// Copyright 2025 Gameday Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package events

import (
	"sync"

	"go.uber.org/zap"

	"github.com/gamedaylabs/gameday-core/pkg/logger"
)

// Each subscriber buffers this many events before the bus starts dropping
// for it. Subscribers are SSE handlers and the ledger fanout, both of which
// drain quickly, so a slow one losing events is preferable to a publisher
// stalling the state machine.
const subscriberBuffer = 100

// Bus fans session events out to any number of subscribers. Publish never
// blocks: a subscriber that has fallen subscriberBuffer events behind misses
// the event. A closed Bus accepts Publish calls and discards them, so
// shutdown order between publishers and the bus does not matter.
type Bus struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
	log    *zap.SugaredLogger
}

// NewBus returns an empty bus ready for subscribers.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[chan Event]struct{}),
		log:  logger.For(logger.ComponentEventBus),
	}
}

// Subscribe registers a new subscriber and returns its receive channel.
// On a closed bus the returned channel is already closed, so callers
// ranging over it terminate immediately.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes ch from the bus and closes it. Unknown channels,
// including ones already removed by Close, are ignored.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// The receive-only parameter cannot key the map directly, so match by
	// identity. Subscriber counts are small enough that the scan is fine.
	for sub := range b.subs {
		if sub == ch {
			delete(b.subs, sub)
			close(sub)
			return
		}
	}
}

// Publish delivers event to every subscriber that has buffer room and
// drops it for the rest. Publishing to a closed bus is a no-op.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			b.log.Debugf("Dropped %s event for a slow subscriber", event.Type)
		}
	}
}

// SubscriberCount reports how many subscribers are currently registered.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close shuts the bus down, closing every subscriber channel. Further
// Close calls are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		close(sub)
		delete(b.subs, sub)
	}
}
