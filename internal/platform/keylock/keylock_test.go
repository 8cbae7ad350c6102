package keylock

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLockSerializesSameKey(t *testing.T) {
	l := New()
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Do(context.Background(), "plant:1", func() error {
				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
				return nil
			})
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("lost updates: counter=%d", counter)
	}
	if n := l.size(); n != 0 {
		t.Fatalf("expected lock map drained, got %d entries", n)
	}
}

func TestTryLockAndContextCancel(t *testing.T) {
	l := New()
	unlock, ok := l.TryLock("sweep:decay")
	if !ok {
		t.Fatalf("first TryLock should succeed")
	}
	if _, ok := l.TryLock("sweep:decay"); ok {
		t.Fatalf("second TryLock should fail while held")
	}
	if _, ok := l.TryLock("sweep:harvest"); !ok {
		t.Fatalf("other keys must not be blocked")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "sweep:decay"); err == nil {
		t.Fatalf("Lock should give up when ctx expires")
	}

	unlock()
	unlock()
	if _, ok := l.TryLock("sweep:decay"); !ok {
		t.Fatalf("key should be free after unlock")
	}
}
