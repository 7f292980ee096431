// Package dm implements the per-namespace DataModel (spec §2 "Data
// Model", §4.1): the object-registry hash tables, id allocators, the
// three first-class locks, and the deferred-removal workers that keep
// zero-refcount teardown off of any hot receive path.
package dm

import (
	"context"
	"sync"
	"time"

	"github.com/rinacore/rinacore/internal/constants"
	"github.com/rinacore/rinacore/internal/errs"
	"github.com/rinacore/rinacore/internal/idalloc"
	"github.com/rinacore/rinacore/internal/logging"
	"github.com/rinacore/rinacore/internal/objects"
	"github.com/rinacore/rinacore/internal/wire"
)

// DataModel owns one namespace's object graph: every IPCP, DIF, Flow and
// RegisteredAppl, plus the id allocators that name them (spec §2, §4.1).
//
// Three first-class locks guard it, matching spec §4.1's "the locking
// discipline has exactly three first-class locks":
//   - ipcpMu:  the IPCP table and DIF list (process-context or soft-irq,
//     held briefly — never across a blocking call).
//   - flowMu:  the flow-by-port and flow-by-cep tables, and the put-queue.
//     Soft-irq-safe: never sleeps while held.
//   - regMu:   the IPCP-update subscriber list (control devices
//     subscribed to SUBSCRIBE_IPCPS).
type DataModel struct {
	log *logging.Logger

	ipcpMu     sync.Mutex
	ipcpIDs    *idalloc.Bitmap
	ipcpByID   map[uint16]*objects.IPCP
	difsByName map[string]*objects.DIF

	flowMu     sync.RWMutex
	portIDs    *idalloc.Bitmap
	cepIDs     *idalloc.Bitmap
	flowByPort map[uint32]*objects.Flow
	flowByCEP  map[uint16]*objects.Flow
	uidCounter idalloc.UIDCounter
	putQueue   putQueue

	regMu       sync.Mutex
	subscribers map[objects.UpqueueSink]struct{}

	apprm  *applRemovalWorker
	flowrm *flowRemovalWorker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a DataModel and starts its deferred-removal workers.
// Callers must call Close to stop them.
func New() *DataModel {
	ctx, cancel := context.WithCancel(context.Background())
	dm := &DataModel{
		log:         logging.Default().With("component", "dm"),
		ipcpIDs:     idalloc.NewBitmap(constants.MaxIPCPs),
		ipcpByID:    make(map[uint16]*objects.IPCP),
		difsByName:  make(map[string]*objects.DIF),
		portIDs:     idalloc.NewBitmap(constants.MaxPortIDs),
		cepIDs:      idalloc.NewBitmap(constants.MaxCEPIDs),
		flowByPort:  make(map[uint32]*objects.Flow),
		flowByCEP:   make(map[uint16]*objects.Flow),
		subscribers: make(map[objects.UpqueueSink]struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
	dm.putQueue = newPutQueue(dm.expirePutQueueHead)
	dm.apprm = newApplRemovalWorker(dm)
	dm.flowrm = newFlowRemovalWorker(dm)

	dm.wg.Add(2)
	go func() { defer dm.wg.Done(); dm.apprm.run(ctx) }()
	go func() { defer dm.wg.Done(); dm.flowrm.run(ctx) }()
	return dm
}

// Close stops the deferred-removal workers and the put-queue timer.
// It does not release any remaining object — it is the caller's
// responsibility to have torn down every IPCP first.
func (dm *DataModel) Close() {
	dm.cancel()
	dm.putQueue.stop()
	dm.wg.Wait()
}

// ForceExpirePutQueue synchronously runs the put-queue's expiry sweep,
// bypassing its timer. Test harnesses combine this with SetClock to
// exercise put-queue expiry deterministically, without a real sleep.
func (dm *DataModel) ForceExpirePutQueue() {
	dm.putQueue.forceFire()
}

// --- DIF management -------------------------------------------------

// CreateDIF registers a new DIF, or returns errs.Busy if the name is
// already taken.
func (dm *DataModel) CreateDIF(name, difType string, maxPDUSize, maxPDULife uint32) (*objects.DIF, error) {
	dm.ipcpMu.Lock()
	defer dm.ipcpMu.Unlock()
	if _, exists := dm.difsByName[name]; exists {
		return nil, errs.Busy
	}
	d := objects.NewDIF(name, difType, maxPDUSize, maxPDULife)
	dm.difsByName[name] = d
	return d, nil
}

// LookupDIF returns an existing DIF by name, creating one is the
// caller's job via CreateDIF — lookups never implicitly create.
func (dm *DataModel) LookupDIF(name string) (*objects.DIF, bool) {
	dm.ipcpMu.Lock()
	defer dm.ipcpMu.Unlock()
	d, ok := dm.difsByName[name]
	return d, ok
}

// PutDIF drops the caller's reference, removing the DIF from the
// namespace on a 1->0 transition (spec §8 zero-transition detach).
func (dm *DataModel) PutDIF(d *objects.DIF) {
	dm.ipcpMu.Lock()
	defer dm.ipcpMu.Unlock()
	if d.Put() == 0 {
		delete(dm.difsByName, d.Name)
	}
}

// --- IPCP table -------------------------------------------------------

// CreateIPCP allocates an id, constructs an IPCP bound to dif, and
// indexes it. dif's refcount is bumped by one (the new IPCP's share).
func (dm *DataModel) CreateIPCP(name string, dif *objects.DIF, ops objects.IPCPOps, factory *objects.Factory) (*objects.IPCP, error) {
	dm.ipcpMu.Lock()
	defer dm.ipcpMu.Unlock()

	for _, existing := range dm.ipcpByID {
		if existing.Name == name {
			return nil, errs.Busy
		}
	}

	id, err := dm.ipcpIDs.Alloc()
	if err != nil {
		return nil, errs.NoSpace
	}
	dif.Get()
	ip := objects.NewIPCP(uint16(id), name, dif, ops, factory)
	dm.ipcpByID[uint16(id)] = ip
	return ip, nil
}

// LookupIPCP resolves an id to a strong pointer. Returns ok=false if
// unknown; the caller must still check Zombie() before issuing new
// work against it.
func (dm *DataModel) LookupIPCP(id uint16) (*objects.IPCP, bool) {
	dm.ipcpMu.Lock()
	defer dm.ipcpMu.Unlock()
	ip, ok := dm.ipcpByID[id]
	return ip, ok
}

// LookupIPCPByName resolves a DIF-unique name to its IPCP.
func (dm *DataModel) LookupIPCPByName(name string) (*objects.IPCP, bool) {
	dm.ipcpMu.Lock()
	defer dm.ipcpMu.Unlock()
	for _, ip := range dm.ipcpByID {
		if ip.Name == name {
			return ip, true
		}
	}
	return nil, false
}

// ResolveShortcut re-validates an IPCP's weak shortcut pointer under
// the IPCP table lock, returning the live *IPCP or ok=false if it no
// longer resolves (spec §9 "Cyclic references").
func (dm *DataModel) ResolveShortcut(ip *objects.IPCP) (*objects.IPCP, bool) {
	id, valid := ip.Shortcut()
	if !valid {
		return nil, false
	}
	dm.ipcpMu.Lock()
	defer dm.ipcpMu.Unlock()
	upper, ok := dm.ipcpByID[id]
	return upper, ok
}

// DestroyIPCP marks ip a zombie, removes it from the table and id
// bitmap, and releases its DIF share. It does not itself drive
// Ops.Destroy or steal applications/flows — the dispatch layer
// orchestrates that sequence (spec §4.1 ipcp-destroy).
func (dm *DataModel) DestroyIPCP(ip *objects.IPCP) {
	dm.ipcpMu.Lock()
	delete(dm.ipcpByID, ip.ID)
	dm.ipcpIDs.Release(int(ip.ID))
	dm.ipcpMu.Unlock()
	dm.PutDIF(ip.DIF)
}

// AllIPCPs returns a snapshot slice, used by FETCH handlers.
func (dm *DataModel) AllIPCPs() []*objects.IPCP {
	dm.ipcpMu.Lock()
	defer dm.ipcpMu.Unlock()
	out := make([]*objects.IPCP, 0, len(dm.ipcpByID))
	for _, ip := range dm.ipcpByID {
		out = append(out, ip)
	}
	return out
}

// --- IPCP-update subscription (control devices with SUBSCRIBE_IPCPS) --

// Subscribe registers sink as an IPCP-update listener and immediately
// replays one UpdateAdd per already-existing IPCP (spec §4.4: "on first
// subscription, the subscriber receives an ADD event for every IPCP
// that already exists"), so a late subscriber's view converges to the
// same state an early subscriber would have accumulated from events
// alone.
func (dm *DataModel) Subscribe(sink objects.UpqueueSink) {
	dm.regMu.Lock()
	dm.subscribers[sink] = struct{}{}
	dm.regMu.Unlock()

	for _, ip := range dm.AllIPCPs() {
		msg := &wire.IpcpUpdate{Kind: wire.UpdateAdd, IpcpID: ip.ID, DIFName: ip.DIF.Name, DIFType: ip.DIF.Type}
		_ = sink.Append(wire.Encode(0, msg), false)
	}
}

func (dm *DataModel) Unsubscribe(sink objects.UpqueueSink) {
	dm.regMu.Lock()
	defer dm.regMu.Unlock()
	delete(dm.subscribers, sink)
}

// Broadcast delivers data to every subscriber. Per spec §4.1's ordering
// guarantee, the dispatch layer calls this immediately after the
// DataModel call that changed IPCP existence returns, with no
// intervening yield, so a subscriber never observes a stale view;
// DataModel itself does not enforce that ordering.
func (dm *DataModel) Broadcast(data []byte) {
	dm.regMu.Lock()
	subs := make([]objects.UpqueueSink, 0, len(dm.subscribers))
	for s := range dm.subscribers {
		subs = append(subs, s)
	}
	dm.regMu.Unlock()
	for _, s := range subs {
		if err := s.Append(data, false); err != nil {
			dm.log.Debug("ipcp-update broadcast dropped", "error", err)
		}
	}
}

// now is overridable in tests; production code uses wall-clock ticks
// expressed as UnixNano.
var now = func() int64 { return time.Now().UnixNano() }

// SetClock overrides the clock used for put-queue expiry timestamps,
// restored by calling the returned func. Used by test harnesses that
// need deterministic put-queue expiry without real sleeps.
func SetClock(f func() int64) (restore func()) {
	prev := now
	now = f
	return func() { now = prev }
}
