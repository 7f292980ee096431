package dm

import (
	"context"

	"github.com/rinacore/rinacore/internal/logging"
	"github.com/rinacore/rinacore/internal/objects"
)

// applRemovalWorker tears down RegisteredAppl objects off the hot path:
// UnregisterAppl only enqueues an application here, so the
// control-device syscall that requested it never blocks on whatever
// Ops.ApplRegister(..., false) needs to do (spec §4.1, modeled on the
// teacher's ioLoop: a buffered work channel drained by one goroutine
// that exits on context cancellation).
type applRemovalWorker struct {
	dm   *DataModel
	work chan *objects.RegisteredAppl
	log  *logging.Logger
}

func newApplRemovalWorker(dm *DataModel) *applRemovalWorker {
	return &applRemovalWorker{
		dm:   dm,
		work: make(chan *objects.RegisteredAppl, 256),
		log:  logging.Default().With("component", "dm.apprm"),
	}
}

// enqueue schedules an application for deferred teardown. Never blocks:
// if the channel is full the caller's table lock would otherwise stall,
// so an overflow is logged and dropped — spec §4.1 treats this as a
// saturation condition the caller must already have checked for via
// MaxIPCPs et al., not a routine occurrence.
func (w *applRemovalWorker) enqueue(a *objects.RegisteredAppl) {
	select {
	case w.work <- a:
	default:
		w.log.Warn("appl removal queue full, dropping", "appl", a.Name)
	}
}

func (w *applRemovalWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-w.work:
			w.teardown(a)
		}
	}
}

func (w *applRemovalWorker) teardown(a *objects.RegisteredAppl) {
	ipcp := a.IPCP
	if ipcp != nil {
		ipcp.RemoveApp(a.Name)
		if ipcp.Ops != nil {
			if err := ipcp.Ops.ApplRegister(ipcp, a, false); err != nil {
				w.log.Debug("ApplRegister(unregister) failed", "appl", a.Name, "error", err)
			}
		}
	}
}

// flowRemovalWorker performs the process-context half of flow
// deallocation: once a flow's grace period (the put-queue) elapses,
// this worker closes its DTP engine and drops the table's reference,
// off of the timer goroutine that observed the grace period end (a
// timer callback must never sleep, and PutFlow's detach is cheap but
// DTP.Close and any future teardown work here is not guaranteed to be).
// Ops.FlowDeallocated has already been invoked synchronously by the
// handler that enrolled this flow in the put-queue (spec §6's plug-in
// hook fires once, at deallocation request time, not at detach time).
type flowRemovalWorker struct {
	dm   *DataModel
	work chan *objects.Flow
	log  *logging.Logger
}

func newFlowRemovalWorker(dm *DataModel) *flowRemovalWorker {
	return &flowRemovalWorker{
		dm:   dm,
		work: make(chan *objects.Flow, 256),
		log:  logging.Default().With("component", "dm.flowrm"),
	}
}

func (w *flowRemovalWorker) enqueue(f *objects.Flow) {
	select {
	case w.work <- f:
	default:
		w.log.Warn("flow removal queue full, dropping", "port", f.LocalPortID)
	}
}

func (w *flowRemovalWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-w.work:
			w.teardown(f)
		}
	}
}

func (w *flowRemovalWorker) teardown(f *objects.Flow) {
	if f.DTP != nil {
		f.DTP.Close()
	}
	w.dm.PutFlow(f)
}
