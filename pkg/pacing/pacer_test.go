package pacing

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFixedDelay(t *testing.T) {
	p := NewFixedDelay(50 * time.Millisecond)

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Expected to wait at least 50ms, waited %v", elapsed)
	}

	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.Waits() != 2 {
		t.Errorf("Expected 2 waits, got %d", p.Waits())
	}
	if p.Total() != 100*time.Millisecond {
		t.Errorf("Expected total of 100ms, got %v", p.Total())
	}
}

func TestFixedDelayNonPositive(t *testing.T) {
	p := NewFixedDelay(-time.Second)
	if p.Delay() != 0 {
		t.Errorf("Expected negative delay to clamp to 0, got %v", p.Delay())
	}

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Expected no pause, waited %v", elapsed)
	}
}

func TestFixedDelayCancelled(t *testing.T) {
	p := NewFixedDelay(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := p.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected Wait to return promptly, took %v", elapsed)
	}
	if p.Waits() != 0 {
		t.Errorf("Expected an interrupted wait not to be counted")
	}
}

func TestNoDelay(t *testing.T) {
	var p NoDelay

	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	if p.Waits() != 3 {
		t.Errorf("Expected 3 waits, got %d", p.Waits())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context canceled, got %v", err)
	}
}

func TestPacerInterface(t *testing.T) {
	var _ Pacer = NewFixedDelay(time.Second)
	var _ Pacer = &NoDelay{}
}
