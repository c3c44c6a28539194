package cli

import (
	"context"
	"testing"
	"time"
)

func TestSpinnerStartStop(t *testing.T) {
	s := newSpinner("Testing...")
	s.Start()
	s.Start() // second start is ignored
	time.Sleep(100 * time.Millisecond)

	// Stop multiple times should not panic or block
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	done := make(chan struct{})
	go func() {
		newSpinner("never started").Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a spinner that never started")
	}
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := newSpinnerWithContext(ctx, "Testing with timeout...")
	s.Start()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context timeout")
	}
	s.Stop()
}

func TestSpinnerProgress(t *testing.T) {
	s := newSpinner("")

	s.Init("Add Mirror Bleed")
	s.mu.Lock()
	if got := s.status(); got != "Add Mirror Bleed..." {
		t.Errorf("status = %q, want %q", got, "Add Mirror Bleed...")
	}
	s.mu.Unlock()

	s.Update(0.5)
	s.mu.Lock()
	if got := s.status(); got != "Add Mirror Bleed...  50%" {
		t.Errorf("status = %q, want %q", got, "Add Mirror Bleed...  50%")
	}
	s.mu.Unlock()

	s.End()
	s.End()
}

func TestSpinnerStopWithMessage(t *testing.T) {
	s := newSpinner("Testing success...")
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.StopWithSuccess("Done!")

	s = newSpinner("Testing error...")
	s.Start()
	s.StopWithError("Failed!")
}
