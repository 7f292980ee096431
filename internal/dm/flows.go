package dm

import (
	"time"

	"github.com/rinacore/rinacore/internal/errs"
	"github.com/rinacore/rinacore/internal/objects"
)

// AllocatePort draws a fresh port-id and CEP-id pair and constructs a
// PENDING Flow bound to lowerIPCP, per spec §4.2's "port-ids and
// cep-ids are drawn from their bitmaps under flowMu, flow constructed,
// then indexed in the same critical section."
func (dm *DataModel) AllocatePort(lowerIPCP *objects.IPCP) (*objects.Flow, error) {
	if lowerIPCP.Zombie() {
		return nil, errs.NotFound
	}

	dm.flowMu.Lock()
	defer dm.flowMu.Unlock()

	portID, err := dm.portIDs.Alloc()
	if err != nil {
		return nil, errs.NoSpace
	}
	cepID, err := dm.cepIDs.Alloc()
	if err != nil {
		dm.portIDs.Release(portID)
		return nil, errs.NoSpace
	}

	uid := dm.uidCounter.Next()
	f := objects.NewFlow(uint32(portID), lowerIPCP, uid)
	f.LocalCEPID = uint16(cepID)

	dm.flowByPort[f.LocalPortID] = f
	dm.flowByCEP[f.LocalCEPID] = f
	return f, nil
}

// LookupFlowByPort resolves a port-id to its Flow under the reader
// side of flowMu. This is the hot receive-path lookup (spec §4.6) and
// must never sleep.
func (dm *DataModel) LookupFlowByPort(portID uint32) (*objects.Flow, bool) {
	dm.flowMu.RLock()
	defer dm.flowMu.RUnlock()
	f, ok := dm.flowByPort[portID]
	return f, ok
}

func (dm *DataModel) LookupFlowByCEP(cepID uint16) (*objects.Flow, bool) {
	dm.flowMu.RLock()
	defer dm.flowMu.RUnlock()
	f, ok := dm.flowByCEP[cepID]
	return f, ok
}

// AllFlows returns a snapshot, used by FETCH handlers.
func (dm *DataModel) AllFlows() []*objects.Flow {
	dm.flowMu.RLock()
	defer dm.flowMu.RUnlock()
	out := make([]*objects.Flow, 0, len(dm.flowByPort))
	for _, f := range dm.flowByPort {
		out = append(out, f)
	}
	return out
}

// detachFlow removes a flow from both tables and releases its id bits.
// Callers must hold flowMu for writing.
func (dm *DataModel) detachFlow(f *objects.Flow) {
	delete(dm.flowByPort, f.LocalPortID)
	delete(dm.flowByCEP, f.LocalCEPID)
	dm.portIDs.Release(int(f.LocalPortID))
	dm.cepIDs.Release(int(f.LocalCEPID))
}

// PutFlow drops the caller's reference. On a 1->0 transition the flow
// is detached from both tables atomically with the refcount drop, per
// spec §8. Returns true if this call performed the detach.
func (dm *DataModel) PutFlow(f *objects.Flow) bool {
	dm.flowMu.Lock()
	defer dm.flowMu.Unlock()
	if f.Put() == 0 {
		dm.detachFlow(f)
		return true
	}
	return false
}

// DeferRemoval enrolls an ALLOCATED flow in the grace-period put-queue
// instead of releasing it immediately (spec §4.3): dealloc marks the
// flow DEALLOCATED, grants it a fresh single-reference lease, and
// arms a timer so any in-flight reader sees a live (if doomed) object
// rather than a detach race.
func (dm *DataModel) DeferRemoval(f *objects.Flow, wait time.Duration) {
	f.SetFlag(objects.FlagDeallocated)
	f.ResetLease()
	dm.putQueue.insert(f, wait)
}

// expirePutQueueHead is the put-queue timer callback. It hands the flow
// to the flow-removal worker, which closes the flow's DTP engine and
// drops the table's reference, rather than tearing it down inline on
// time.AfterFunc's own goroutine.
func (dm *DataModel) expirePutQueueHead(f *objects.Flow) {
	if ip := f.LowerIPCP; ip != nil {
		ip.DecShortcutFlows()
	}
	dm.flowrm.enqueue(f)
}
