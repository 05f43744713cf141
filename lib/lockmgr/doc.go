// Package lockmgr implements the exclusive lock that serializes all requests
// against one store.
//
// Core Functionality:
//   - Lock acquisition that can be abandoned through a context
//   - Owner IDs, so a lock is only released by the caller that holds it
//   - A waiting counter for monitoring contention
//
// Implementation Approach:
//
//	The lock is a buffered channel with capacity one. Acquiring sends a token,
//	releasing receives it. A caller blocked in AcquireLock selects on the send
//	and on ctx.Done(), so giving up while waiting never leaves the lock taken.
//	Once acquired, the lock is held until ReleaseLock, cancellation of the
//	context no longer matters.
//
//	Every acquisition generates a random (uuid v4) owner ID. ReleaseLock compares it
//	with the current holder, a stale or duplicate release returns false and
//	leaves the lock untouched.
//
// Fairness:
//
//	Blocked callers are woken in no particular order. The Go runtime wakes
//	channel senders in FIFO order in practice, but this is not relied upon.
//
// Example:
//
//	lock := lockmgr.NewLockManager()
//	owner, err := lock.AcquireLock(ctx)
//	if err != nil {
//		return err // ctx expired while waiting
//	}
//	defer lock.ReleaseLock(owner)
package lockmgr
