package lockmgr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	lock := NewLockManager()

	owner, err := lock.AcquireLock(context.Background())
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if len(owner) != 16 {
		t.Errorf("Expected owner ID of length 16, got %d", len(owner))
	}

	if lock.ReleaseLock([]byte("someone else")) {
		t.Errorf("Release with a foreign owner ID should fail")
	}
	if !lock.ReleaseLock(owner) {
		t.Errorf("Release by the owner should succeed")
	}
	if lock.ReleaseLock(owner) {
		t.Errorf("Second release should fail")
	}

	// lock is free again
	owner2, err := lock.AcquireLock(context.Background())
	if err != nil {
		t.Fatalf("AcquireLock after release failed: %v", err)
	}
	lock.ReleaseLock(owner2)
}

func TestAcquireCancelled(t *testing.T) {
	lock := NewLockManager()

	owner, err := lock.AcquireLock(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = lock.AcquireLock(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}
	if lock.Waiting() != 0 {
		t.Errorf("Expected no waiters after cancellation, got %d", lock.Waiting())
	}

	// the abandoned attempt must not have taken the lock
	if !lock.ReleaseLock(owner) {
		t.Errorf("Original owner should still hold the lock")
	}
}

func TestMutualExclusion(t *testing.T) {
	lock := NewLockManager()

	const workers = 16
	const rounds = 200

	var (
		wg      sync.WaitGroup
		inside  int
		counter int
	)

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				owner, err := lock.AcquireLock(context.Background())
				if err != nil {
					t.Error(err)
					return
				}
				inside++
				if inside != 1 {
					t.Errorf("Expected exactly one holder, got %d", inside)
				}
				counter++
				inside--
				lock.ReleaseLock(owner)
			}
		}()
	}
	wg.Wait()

	if counter != workers*rounds {
		t.Errorf("Expected %d increments, got %d", workers*rounds, counter)
	}
}

func TestWaitingCounter(t *testing.T) {
	lock := NewLockManager()
	owner, _ := lock.AcquireLock(context.Background())

	acquired := make(chan []byte)
	go func() {
		o, err := lock.AcquireLock(context.Background())
		if err != nil {
			t.Error(err)
		}
		acquired <- o
	}()

	deadline := time.Now().Add(time.Second)
	for lock.Waiting() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Waiter was never registered")
		}
		time.Sleep(time.Millisecond)
	}

	lock.ReleaseLock(owner)
	lock.ReleaseLock(<-acquired)

	if lock.Waiting() != 0 {
		t.Errorf("Expected no waiters, got %d", lock.Waiting())
	}
}
