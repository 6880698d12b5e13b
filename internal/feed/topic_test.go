package feed

import (
	"testing"
	"time"

	"quotefeed/internal/model"
)

func batchOf(ids ...string) model.Batch {
	b := make(model.Batch, len(ids))
	for i, id := range ids {
		b[i] = model.Quote{ID: id, Symbol: id, Name: id, Price: 1}
	}
	return b
}

func recvBatch(t *testing.T, ch <-chan model.Batch) model.Batch {
	t.Helper()
	select {
	case b, ok := <-ch:
		if !ok {
			t.Fatal("feed channel closed unexpectedly")
		}
		return b
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for batch")
	}
	return nil
}

func expectNoBatch(t *testing.T, ch <-chan model.Batch) {
	t.Helper()
	select {
	case b, ok := <-ch:
		if ok {
			t.Fatalf("unexpected batch delivered: %v", b.IDs())
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTopic_BroadcastsToAll(t *testing.T) {
	topic := NewTopic(10)
	f1 := topic.Attach()
	f2 := topic.Attach()

	topic.Publish(batchOf("a"))

	for i, f := range []*Feed{f1, f2} {
		b := recvBatch(t, f.C())
		if len(b) != 1 || b[0].ID != "a" {
			t.Errorf("feed %d: got %v, want [a]", i+1, b.IDs())
		}
	}
}

func TestTopic_PerSubscriberFIFO(t *testing.T) {
	topic := NewTopic(10)
	f := topic.Attach()

	topic.Publish(batchOf("a"))
	topic.Publish(batchOf("b"))
	topic.Publish(batchOf("c"))

	for _, want := range []string{"a", "b", "c"} {
		b := recvBatch(t, f.C())
		if b[0].ID != want {
			t.Errorf("got %q, want %q", b[0].ID, want)
		}
	}
}

func TestTopic_DropOldestOnOverflow(t *testing.T) {
	topic := NewTopic(2)
	var drops []uint64
	topic.OnDrop = func(id uint64) { drops = append(drops, id) }

	f := topic.Attach()

	topic.Publish(batchOf("a"))
	topic.Publish(batchOf("b"))
	topic.Publish(batchOf("c")) // evicts "a"

	b := recvBatch(t, f.C())
	if b[0].ID != "b" {
		t.Errorf("first delivery: got %q, want b (oldest dropped)", b[0].ID)
	}
	b = recvBatch(t, f.C())
	if b[0].ID != "c" {
		t.Errorf("second delivery: got %q, want c", b[0].ID)
	}

	if len(drops) != 1 || drops[0] != f.ID() {
		t.Errorf("drops = %v, want one drop for feed %d", drops, f.ID())
	}
}

func TestTopic_SlowSubscriberDoesNotAffectOthers(t *testing.T) {
	topic := NewTopic(1)
	slow := topic.Attach()
	fast := topic.Attach()

	topic.Publish(batchOf("a"))
	topic.Publish(batchOf("b")) // slow's queue overflows, fast drains below

	b := recvBatch(t, fast.C())
	if b[0].ID != "a" {
		t.Errorf("fast feed: got %q, want a", b[0].ID)
	}
	_ = slow
	b = recvBatch(t, fast.C())
	if b[0].ID != "b" {
		t.Errorf("fast feed: got %q, want b", b[0].ID)
	}
}

func TestTopic_DetachIdempotent(t *testing.T) {
	topic := NewTopic(4)
	f := topic.Attach()

	topic.Detach(f)
	topic.Detach(f) // no-op, must not panic

	if n := topic.FeedCount(); n != 0 {
		t.Errorf("feed count after detach: got %d, want 0", n)
	}

	// Channel is closed after detach
	select {
	case _, ok := <-f.C():
		if ok {
			t.Error("expected closed channel after detach")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}

	// Publishing after detach reaches no one and must not panic
	topic.Publish(batchOf("a"))
}

func TestTopic_NoReplayOnAttach(t *testing.T) {
	topic := NewTopic(4)
	topic.Publish(batchOf("a"))

	f := topic.Attach()
	expectNoBatch(t, f.C())
}

func TestTopic_EmptyBatchIgnored(t *testing.T) {
	topic := NewTopic(4)
	f := topic.Attach()

	topic.Publish(model.Batch{})
	expectNoBatch(t, f.C())
}

func TestTopic_Close(t *testing.T) {
	topic := NewTopic(4)
	f1 := topic.Attach()
	f2 := topic.Attach()

	topic.Close()

	for i, f := range []*Feed{f1, f2} {
		select {
		case _, ok := <-f.C():
			if ok {
				t.Errorf("feed %d: expected closed channel", i+1)
			}
		case <-time.After(time.Second):
			t.Fatalf("feed %d: timed out waiting for close", i+1)
		}
	}
	if n := topic.FeedCount(); n != 0 {
		t.Errorf("feed count after close: got %d, want 0", n)
	}
}
