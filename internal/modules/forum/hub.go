package forum

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

const feedChannel = "forum:feed"

// Hub fans feed snapshots out to local subscribers. Snapshots travel through
// Redis pub/sub so every process (and its SSE clients) sees writes made by
// any other process. Subscribers that fall behind get latest-wins delivery;
// a slow consumer never blocks the publisher.
type Hub struct {
	rdb    *redis.Client
	pubsub *redis.PubSub

	mu     sync.Mutex
	nextID int
	subs   map[int]chan Snapshot
	closed bool
}

func NewHub(rdb *redis.Client) *Hub {
	h := &Hub{
		rdb:  rdb,
		subs: make(map[int]chan Snapshot),
	}
	h.pubsub = rdb.Subscribe(context.Background(), feedChannel)
	go h.receiveLoop()
	return h
}

func (h *Hub) receiveLoop() {
	ch := h.pubsub.Channel()
	for msg := range ch {
		var snap Snapshot
		if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
			slog.Error("feed snapshot decode failed", "error", err)
			continue
		}
		h.fanOut(snap)
	}
}

func (h *Hub) fanOut(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- snap:
		default:
			// Replace the stale pending snapshot with the latest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Subscribe registers a feed listener. The returned cancel func releases the
// subscription; it is safe to call more than once. Snapshots published after
// cancellation are never delivered to the channel.
func (h *Hub) Subscribe() (<-chan Snapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish broadcasts a snapshot to every process listening on the feed
// channel, including this one. Failures are non-fatal: subscribers keep
// whatever they last received.
func (h *Hub) Publish(ctx context.Context, snap Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		slog.Error("feed snapshot encode failed", "error", err)
		return
	}
	if err := h.rdb.Publish(ctx, feedChannel, payload).Err(); err != nil {
		slog.Error("feed snapshot publish failed", "error", err)
	}
}

// SubscriberCount reports active local subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.mu.Unlock()
	_ = h.pubsub.Close()
}
