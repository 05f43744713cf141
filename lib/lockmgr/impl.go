package lockmgr

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

type lockMgrImpl struct {
	sem     chan struct{} // holds one token while the lock is taken
	mu      sync.Mutex    // guards owner
	owner   []byte
	waiting atomic.Int64
}

// NewLockManager creates an unlocked lock.
func NewLockManager() ILockManager {
	return &lockMgrImpl{
		sem: make(chan struct{}, 1),
	}
}

func (lm *lockMgrImpl) AcquireLock(ctx context.Context) ([]byte, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	ownerID := id[:]

	// fast path, do not count uncontended acquisitions as waiting
	select {
	case lm.sem <- struct{}{}:
	default:
		lm.waiting.Add(1)
		defer lm.waiting.Add(-1)

		select {
		case lm.sem <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	lm.mu.Lock()
	lm.owner = ownerID
	lm.mu.Unlock()
	return ownerID, nil
}

func (lm *lockMgrImpl) ReleaseLock(ownerID []byte) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lm.owner == nil || !bytes.Equal(lm.owner, ownerID) {
		return false
	}
	lm.owner = nil
	<-lm.sem
	return true
}

func (lm *lockMgrImpl) Waiting() int64 {
	return lm.waiting.Load()
}
