package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManager_AddTimer(t *testing.T) {
	manager := NewManager()
	defer manager.Stop()

	var fired atomic.Int32
	manager.AddTimer(10*time.Millisecond, 0, func() {
		fired.Add(1)
	})

	deadline := time.Now().Add(time.Second)
	for fired.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Timer never fired")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// A one-shot task must not repeat.
	time.Sleep(150 * time.Millisecond)
	if fired.Load() != 1 {
		t.Errorf("Expected a one-shot timer to fire once, got %d", fired.Load())
	}
}

func TestManager_PeriodicTimer(t *testing.T) {
	manager := NewManager()
	defer manager.Stop()

	var fired atomic.Int32
	manager.AddTimer(10*time.Millisecond, 60*time.Millisecond, func() {
		fired.Add(1)
	})

	deadline := time.Now().Add(2 * time.Second)
	for fired.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("Periodic timer fired only %d times", fired.Load())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestManager_RemoveTimer(t *testing.T) {
	manager := NewManager()
	defer manager.Stop()

	var fired atomic.Int32
	id := manager.AddTimer(200*time.Millisecond, 0, func() {
		fired.Add(1)
	})
	manager.RemoveTimer(id)

	time.Sleep(400 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("A removed timer must not fire")
	}
}
