package dm

import (
	"sort"
	"sync"
	"time"

	"github.com/rinacore/rinacore/internal/objects"
)

// putQueue holds flows awaiting their post-deallocation grace period
// (spec §4.3). Entries are kept sorted by expiry so a single *time.Timer,
// re-armed to the new head whenever the queue changes, is enough —
// there is no per-flow timer.
type putQueue struct {
	mu      sync.Mutex
	entries []putEntry
	timer   *time.Timer
	onFire  func(*objects.Flow)
}

type putEntry struct {
	flow    *objects.Flow
	expires int64 // UnixNano
}

func newPutQueue(onFire func(*objects.Flow)) putQueue {
	return putQueue{onFire: onFire}
}

// insert enrolls flow to fire after wait elapses.
func (q *putQueue) insert(flow *objects.Flow, wait time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	expires := now() + wait.Nanoseconds()
	flow.Expires = expires
	q.entries = append(q.entries, putEntry{flow: flow, expires: expires})
	sort.Slice(q.entries, func(i, j int) bool { return q.entries[i].expires < q.entries[j].expires })
	q.rearm()
}

// remove cancels a pending entry, e.g. if the flow is re-bound before
// its grace period elapses.
func (q *putQueue) remove(flow *objects.Flow) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.flow == flow {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	q.rearm()
}

// rearm must be called with mu held. It (re)starts the single timer to
// fire when the current head expires.
func (q *putQueue) rearm() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	if len(q.entries) == 0 {
		return
	}
	d := time.Duration(q.entries[0].expires-now()) * time.Nanosecond
	if d < 0 {
		d = 0
	}
	q.timer = time.AfterFunc(d, q.fire)
}

// fire pops every entry whose expiry has passed (normally just the
// head) and invokes onFire for each, then rearms for the new head.
func (q *putQueue) fire() {
	q.mu.Lock()
	var due []*objects.Flow
	t := now()
	i := 0
	for i < len(q.entries) && q.entries[i].expires <= t {
		due = append(due, q.entries[i].flow)
		i++
	}
	q.entries = q.entries[i:]
	q.rearm()
	q.mu.Unlock()

	for _, f := range due {
		q.onFire(f)
	}
}

// forceFire runs fire synchronously, bypassing the timer. Used by test
// harnesses so put-queue expiry tests don't need a real sleep.
func (q *putQueue) forceFire() {
	q.fire()
}

func (q *putQueue) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}
