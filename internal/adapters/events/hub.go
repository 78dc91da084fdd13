package events

import (
	"sort"
	"sync"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/ports"
)

const DefaultBuffer = 256

var _ ports.EventSink = (*Hub)(nil)

// Hub fans events out to subscribers and keeps the latest session event of
// every account. Publish never blocks: a subscriber whose buffer is full
// misses the event.
type Hub struct {
	mu      sync.RWMutex
	subs    map[int]chan domain.Event
	nextID  int
	latest  map[string]domain.Event
	buffer  int
	dropped int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   map[int]chan domain.Event{},
		latest: map[string]domain.Event{},
		buffer: buffer,
	}
}

func (h *Hub) Publish(event domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if event.Kind == domain.EventSession && event.Account != "" {
		h.latest[event.Account] = event
	}

	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
			h.dropped++
		}
	}
}

// Subscribe returns a channel of future events and a function that closes it.
func (h *Hub) Subscribe() (<-chan domain.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan domain.Event, h.buffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

// Latest returns the most recent session event of account.
func (h *Hub) Latest(account string) (domain.Event, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event, ok := h.latest[account]
	return event, ok
}

// Snapshot returns the latest session event of every account, ordered by
// account label.
func (h *Hub) Snapshot() []domain.Event {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]domain.Event, 0, len(h.latest))
	for _, event := range h.latest {
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool {
		return domain.LabelLess(out[i].Account, out[j].Account)
	})
	return out
}

// Dropped counts events lost to full subscriber buffers.
func (h *Hub) Dropped() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}
