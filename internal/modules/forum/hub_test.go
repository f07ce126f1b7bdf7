package forum

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestHub(t *testing.T) (*Hub, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	hub := NewHub(rdb)
	t.Cleanup(hub.Close)
	return hub, rdb
}

func waitForSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatal("subscription channel closed")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot{}
}

func TestHubPublishReachesSubscriber(t *testing.T) {
	hub, _ := newTestHub(t)

	ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Publish(context.Background(), Snapshot{GeneratedAt: 42})

	snap := waitForSnapshot(t, ch)
	if snap.GeneratedAt != 42 {
		t.Errorf("GeneratedAt = %d, want 42", snap.GeneratedAt)
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub, _ := newTestHub(t)

	ch, cancel := hub.Subscribe()
	cancel()

	// The channel is closed on cancel and must never deliver afterwards.
	hub.fanOut(Snapshot{GeneratedAt: 1})

	if snap, ok := <-ch; ok {
		t.Errorf("received snapshot %d after cancel", snap.GeneratedAt)
	}

	// A second cancel is a no-op.
	cancel()
}

func TestHubLatestWins(t *testing.T) {
	hub, _ := newTestHub(t)

	ch, cancel := hub.Subscribe()
	defer cancel()

	// The subscriber is not reading; the buffered slot must end up holding
	// the newest snapshot.
	hub.fanOut(Snapshot{GeneratedAt: 1})
	hub.fanOut(Snapshot{GeneratedAt: 2})
	hub.fanOut(Snapshot{GeneratedAt: 3})

	snap := waitForSnapshot(t, ch)
	if snap.GeneratedAt != 3 {
		t.Errorf("GeneratedAt = %d, want latest (3)", snap.GeneratedAt)
	}
}

func TestHubSubscriberCount(t *testing.T) {
	hub, _ := newTestHub(t)

	if n := hub.SubscriberCount(); n != 0 {
		t.Fatalf("initial count = %d, want 0", n)
	}
	_, cancel1 := hub.Subscribe()
	_, cancel2 := hub.Subscribe()
	if n := hub.SubscriberCount(); n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	cancel1()
	cancel2()
	if n := hub.SubscriberCount(); n != 0 {
		t.Fatalf("count after cancel = %d, want 0", n)
	}
}

func TestHubSubscribeAfterClose(t *testing.T) {
	hub, _ := newTestHub(t)
	hub.Close()

	ch, cancel := hub.Subscribe()
	defer cancel()
	if _, ok := <-ch; ok {
		t.Error("expected closed channel after hub close")
	}
}
