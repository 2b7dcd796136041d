package ntripserver

import (
	"bytes"
	"testing"
)

func TestSendQueuePushAndPop(t *testing.T) {
	q := NewSendQueue(3)
	q.Push([]byte("a"))
	q.Push([]byte("b"))

	data, ok := q.Pop()
	if !ok || !bytes.Equal(data, []byte("a")) {
		t.Fatalf("Pop() = %q, %v, want a, true", data, ok)
	}
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}
}

func TestSendQueueDropsOldestWhenFull(t *testing.T) {
	q := NewSendQueue(2)
	q.Push([]byte("1"))
	q.Push([]byte("2"))
	q.Push([]byte("3"))

	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
	first, _ := q.Pop()
	second, _ := q.Pop()
	if !bytes.Equal(first, []byte("2")) || !bytes.Equal(second, []byte("3")) {
		t.Fatalf("got %q, %q, want 2, 3", first, second)
	}
	if q.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", q.Dropped())
	}
}

func TestSendQueuePushFrontPutsFrameBackFirst(t *testing.T) {
	q := NewSendQueue(3)
	q.Push([]byte("2"))
	q.Push([]byte("3"))
	q.PushFront([]byte("1"))

	for _, want := range []string{"1", "2", "3"} {
		got, ok := q.Pop()
		if !ok || string(got) != want {
			t.Fatalf("Pop() = %q, want %q", got, want)
		}
	}
}

func TestSendQueuePopEmpty(t *testing.T) {
	q := NewSendQueue(1)
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected Pop on empty queue to return ok=false")
	}
}
