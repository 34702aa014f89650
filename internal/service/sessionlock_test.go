package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionLocks_SerializesSameSession(t *testing.T) {
	locks := newSessionLocks()

	const goroutines = 32
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.Acquire("user-1")
			defer release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines, counter)
}

func TestSessionLocks_DifferentSessionsDoNotBlock(t *testing.T) {
	locks := newSessionLocks()

	releaseA := locks.Acquire("user-a")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		release := locks.Acquire("user-b")
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("user-b blocked behind user-a's lock")
	}
}

func TestSessionLocks_ReleaseAllowsReacquire(t *testing.T) {
	locks := newSessionLocks()

	release := locks.Acquire("user-1")
	release()

	reacquired := make(chan struct{})
	go func() {
		release := locks.Acquire("user-1")
		release()
		close(reacquired)
	}()

	select {
	case <-reacquired:
	case <-time.After(2 * time.Second):
		t.Fatal("released lock could not be reacquired")
	}
}
