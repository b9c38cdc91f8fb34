package notify

import (
	"fmt"
	"testing"

	"github.com/agencyrpg/backend/internal/infrastructure/persist"
)

func TestPushBound(t *testing.T) {
	q := NewQueue(persist.NewMemoryStore(), nil)

	for i := 0; i < 8; i++ {
		q.Push(fmt.Sprintf("title %d", i), "body", "")
	}

	items := q.List()
	if len(items) != 5 {
		t.Fatalf("expected 5 notifications, got %d", len(items))
	}
	for i, n := range items {
		want := fmt.Sprintf("title %d", i+3)
		if n.Title != want {
			t.Errorf("slot %d: expected %q, got %q", i, want, n.Title)
		}
	}
}

func TestRemove(t *testing.T) {
	q := NewQueue(persist.NewMemoryStore(), nil)

	n := q.Push("a", "b", "")
	q.Push("c", "d", "")
	q.Remove(n.ID)

	items := q.List()
	if len(items) != 1 || items[0].Title != "c" {
		t.Errorf("unexpected queue after remove: %+v", items)
	}

	q.Remove("ntf_nope") // no-op
	if len(q.List()) != 1 {
		t.Error("removing unknown id changed the queue")
	}
}

func TestRestore(t *testing.T) {
	store := persist.NewMemoryStore()
	q := NewQueue(store, nil)
	q.Push("survives", "restart", "")

	q2 := NewQueue(store, nil)
	items := q2.List()
	if len(items) != 1 || items[0].Title != "survives" {
		t.Errorf("expected persisted toast after restart, got %+v", items)
	}
}
