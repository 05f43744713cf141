package lockmgr

import "context"

// ILockManager guards one resource with an exclusive lock.
type ILockManager interface {
	// AcquireLock blocks until the lock is free or ctx is done.
	// It returns the owner ID needed to release the lock, or ctx.Err().
	AcquireLock(ctx context.Context) (ownerID []byte, err error)

	// ReleaseLock releases the lock held by ownerID.
	// It returns false if the lock is not held or held by another owner.
	ReleaseLock(ownerID []byte) (ok bool)

	// Waiting returns the number of callers blocked in AcquireLock.
	Waiting() (n int64)
}
