// timer/timer_test.go
package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerManager_OneShot(t *testing.T) {
	manager := NewTimerManager()
	defer manager.Stop()

	var fired int32
	manager.AddTimer(50*time.Millisecond, 0, func() {
		atomic.AddInt32(&fired, 1)
	})

	time.Sleep(300 * time.Millisecond)

	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Errorf("Expected one-shot timer to fire once, got %d", got)
	}
	if pending := manager.Pending(); pending != 0 {
		t.Errorf("Expected no pending tasks after firing, got %d", pending)
	}
}

func TestTimerManager_Repeating(t *testing.T) {
	manager := NewTimerManager()
	defer manager.Stop()

	var fired int32
	id := manager.AddTimer(50*time.Millisecond, 100*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})

	time.Sleep(500 * time.Millisecond)
	manager.RemoveTimer(id)

	got := atomic.LoadInt32(&fired)
	if got < 2 {
		t.Errorf("Expected repeating timer to fire at least twice, got %d", got)
	}

	time.Sleep(300 * time.Millisecond)
	if after := atomic.LoadInt32(&fired); after > got+1 {
		t.Errorf("Expected removed timer to stop firing, got %d more runs", after-got)
	}
}

func TestTimerManager_Remove(t *testing.T) {
	manager := NewTimerManager()
	defer manager.Stop()

	var fired int32
	id := manager.AddTimer(200*time.Millisecond, 0, func() {
		atomic.AddInt32(&fired, 1)
	})

	if pending := manager.Pending(); pending != 1 {
		t.Fatalf("Expected 1 pending task, got %d", pending)
	}

	manager.RemoveTimer(id)

	if pending := manager.Pending(); pending != 0 {
		t.Errorf("Expected 0 pending tasks after removal, got %d", pending)
	}

	time.Sleep(400 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Errorf("Expected removed timer never to fire, got %d", got)
	}
}

func TestTimerManager_RemoveUnknownID(t *testing.T) {
	manager := NewTimerManager()
	defer manager.Stop()

	// Must not panic or disturb other tasks.
	manager.RemoveTimer(9999)

	var fired int32
	manager.AddTimer(50*time.Millisecond, 0, func() {
		atomic.AddInt32(&fired, 1)
	})
	manager.RemoveTimer(9999)

	time.Sleep(300 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Errorf("Expected surviving timer to fire once, got %d", got)
	}
}

func TestTimerManager_Stop(t *testing.T) {
	manager := NewTimerManager()

	var fired int32
	manager.AddTimer(200*time.Millisecond, 0, func() {
		atomic.AddInt32(&fired, 1)
	})

	manager.Stop()
	manager.Stop() // idempotent

	time.Sleep(400 * time.Millisecond)
	if got := atomic.LoadInt32(&fired); got != 0 {
		t.Errorf("Expected no task to fire after Stop, got %d", got)
	}
}
