package containers

import (
	"errors"
	"testing"
)

func TestRingQueue_FIFOAcrossGrowth(t *testing.T) {
	q := NewRingQueue[int](2)
	q.Enqueue(1)
	q.Enqueue(2)
	if v, _ := q.Dequeue(); v != 1 {
		t.Fatalf("got %d", v)
	}
	// Wrap the write index before growing.
	for i := 3; i <= 10; i++ {
		q.Enqueue(i)
	}
	if q.Len() != 9 {
		t.Fatalf("len: got %d", q.Len())
	}
	if v, _ := q.Peek(); v != 2 {
		t.Errorf("peek: got %d", v)
	}
	for want := 2; want <= 10; want++ {
		v, err := q.Dequeue()
		if err != nil || v != want {
			t.Fatalf("got %d, %v; want %d", v, err, want)
		}
	}
	if !q.IsEmpty() {
		t.Error("queue must be empty")
	}
	if _, err := q.Dequeue(); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("got %v", err)
	}
	if _, err := q.Peek(); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("got %v", err)
	}
}

func TestRingQueue_ZeroSize(t *testing.T) {
	q := NewRingQueue[string](0)
	q.Enqueue("a")
	q.Enqueue("b")
	if v, _ := q.Dequeue(); v != "a" {
		t.Errorf("got %q", v)
	}
}
