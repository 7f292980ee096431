package objects

import "sync/atomic"

// RefCount is a plain non-negative reference counter. Callers are
// responsible for decrementing it while holding whatever table lock
// indexes the owning object, so that the 1->0 transition and the
// object's detach from that table are atomic with respect to any
// concurrent lookup (spec §8: "a transition r=1 -> r=0 is immediately
// followed by detach before any other thread can lookup the object").
type RefCount struct {
	n int32
}

// Init sets the initial count (normally 1, for the creator's reference).
func (r *RefCount) Init(n int32) { atomic.StoreInt32(&r.n, n) }

// Get increments the count and returns the new value.
func (r *RefCount) Get() int32 { return atomic.AddInt32(&r.n, 1) }

// Put decrements the count and returns the new value. The caller must
// treat a returned value of 0 as "I own the only reference that just
// dropped to zero" and perform detach+cleanup while still holding the
// lock that was held across the Put call.
func (r *RefCount) Put() int32 { return atomic.AddInt32(&r.n, -1) }

// Load returns the current count without mutating it.
func (r *RefCount) Load() int32 { return atomic.LoadInt32(&r.n) }

// Reset sets the count directly — used by the put-queue to grant an
// ALLOCATED flow a second, single-reference lease during its
// post-deallocation grace period (spec §4.3).
func (r *RefCount) Reset(n int32) { atomic.StoreInt32(&r.n, n) }
