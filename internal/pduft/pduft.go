// Package pduft implements the per-IPCP PDU Forwarding Table (spec §2,
// §6 PDUFT): a non-owning address -> flow map consulted on every PDU
// forward. Grounded on the teacher's straightforward RWMutex-guarded
// map idiom (there is no third-party concurrent-map library anywhere
// in the retrieved pack).
package pduft

import (
	"sync"

	"github.com/rinacore/rinacore/internal/errs"
	"github.com/rinacore/rinacore/internal/objects"
)

// Table maps a destination address to the next-hop flow to forward a
// PDU on. It holds no reference of its own on the flow (the flow's
// normal refcount, held by the flow table, is what keeps it alive);
// Table entries are invalidated explicitly when a flow is deallocated.
type Table struct {
	mu      sync.RWMutex
	byAddr  map[uint64]*objects.Flow
	ipcp    *objects.IPCP
}

// New constructs an empty table bound to ipcp, used to reject updates
// once the IPCP becomes a zombie (spec §3, §8).
func New(ipcp *objects.IPCP) *Table {
	return &Table{byAddr: make(map[uint64]*objects.Flow), ipcp: ipcp}
}

// Set installs (or replaces) the next-hop flow for addr. The requesting
// IPCP must be flow's bound upper IPCP (spec §4.7) — a flow can only be
// used as a next hop by the IPCP it was allocated for.
func (t *Table) Set(addr uint64, flow *objects.Flow) error {
	if t.ipcp.Zombie() {
		return errs.NotFound
	}
	upper, _ := flow.Upper()
	if upper != t.ipcp {
		return errs.InvalidArg
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byAddr[addr] = flow
	return nil
}

// Del removes the entry for addr, if any.
func (t *Table) Del(addr uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byAddr, addr)
}

// Lookup is the hot forwarding-path read: resolve addr to a flow.
// Soft-irq-safe — never sleeps.
func (t *Table) Lookup(addr uint64) (*objects.Flow, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	f, ok := t.byAddr[addr]
	return f, ok
}

// Flush clears every entry (spec §6 PDUFT_FLUSH).
func (t *Table) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byAddr = make(map[uint64]*objects.Flow)
}

// FlushByFlow removes every entry pointing at flow, used when a flow is
// deallocated so the table never forwards onto a dead flow.
func (t *Table) FlushByFlow(flow *objects.Flow) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for addr, f := range t.byAddr {
		if f == flow {
			delete(t.byAddr, addr)
		}
	}
}

// Len reports the number of installed entries, used for stats.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byAddr)
}
