package services

import (
	"sync"
	"testing"
	"time"
)

func TestMatchLocksMutualExclusion(t *testing.T) {
	locks := NewMatchLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(1)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("Expected counter 50 under mutual exclusion, got %d", counter)
	}
}

func TestMatchLocksIndependentMatches(t *testing.T) {
	locks := NewMatchLocks()

	// 持有比赛1的锁不应阻塞比赛2
	unlock1 := locks.Lock(1)
	defer unlock1()

	done := make(chan struct{})
	go func() {
		unlock2 := locks.Lock(2)
		unlock2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Lock on match 2 blocked by lock on match 1")
	}
}

func TestMatchLocksReentry(t *testing.T) {
	locks := NewMatchLocks()

	unlock := locks.Lock(7)
	unlock()

	// 释放后可再次获取
	done := make(chan struct{})
	go func() {
		unlock := locks.Lock(7)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Lock was not released")
	}
}
