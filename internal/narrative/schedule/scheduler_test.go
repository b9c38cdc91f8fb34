package schedule

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestAfterFires(t *testing.T) {
	s := New()
	done := make(chan struct{})

	s.After(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("effect never fired")
	}

	if s.Pending() != 0 {
		t.Errorf("expected 0 pending after fire, got %d", s.Pending())
	}
}

func TestCancelPreventsFire(t *testing.T) {
	s := New()
	var fired atomic.Bool

	id := s.After(20*time.Millisecond, func() { fired.Store(true) })
	s.Cancel(id)

	time.Sleep(60 * time.Millisecond)
	if fired.Load() {
		t.Error("cancelled effect fired")
	}
}

func TestCancelAllDrains(t *testing.T) {
	s := New()
	var count atomic.Int32

	for i := 0; i < 10; i++ {
		s.After(20*time.Millisecond, func() { count.Add(1) })
	}
	if s.Pending() != 10 {
		t.Fatalf("expected 10 pending, got %d", s.Pending())
	}

	s.CancelAll()

	time.Sleep(60 * time.Millisecond)
	if got := count.Load(); got != 0 {
		t.Errorf("expected no effects after CancelAll, %d fired", got)
	}
	if s.Pending() != 0 {
		t.Errorf("expected 0 pending, got %d", s.Pending())
	}
}

func TestSequence(t *testing.T) {
	s := New()
	var count atomic.Int32

	s.Sequence([]Task{
		{Delay: time.Millisecond, Effect: func() { count.Add(1) }},
		{Delay: 2 * time.Millisecond, Effect: func() { count.Add(1) }},
		{Delay: 3 * time.Millisecond, Effect: func() { count.Add(1) }},
	})

	deadline := time.Now().Add(time.Second)
	for count.Load() != 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 effects, got %d", count.Load())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStopRejectsNewTasks(t *testing.T) {
	s := New()
	s.Stop()

	var fired atomic.Bool
	id := s.After(time.Millisecond, func() { fired.Store(true) })
	if id != 0 {
		t.Error("stopped scheduler should reject tasks")
	}

	time.Sleep(20 * time.Millisecond)
	if fired.Load() {
		t.Error("stopped scheduler fired an effect")
	}
}

func TestCancelUnknownIsNoOp(t *testing.T) {
	s := New()
	s.Cancel(42) // must not panic
}
