// Package rina provides the main API for embedding the recursive-IPC
// core: a Namespace wires together one DataModel, its IPCP/flow
// plug-in registry, and the control-device request dispatcher that
// applications talk to it through.
package rina

import (
	"sync/atomic"

	"github.com/rinacore/rinacore/internal/ctrldev"
	"github.com/rinacore/rinacore/internal/dispatch"
	"github.com/rinacore/rinacore/internal/dm"
	"github.com/rinacore/rinacore/internal/objects"
)

// Namespace is the demo/embedding-level facade over one DataModel: its
// factory registry, its request dispatcher, and a counter handing out
// control-device ids. A process normally owns a handful of these (spec
// §2's "DataModel is per-namespace"; the factory registry underneath
// is process-wide and shared across every Namespace that points at the
// same *objects.Registry).
type Namespace struct {
	DM        *dm.DataModel
	Factories *objects.Registry
	Dispatch  *dispatch.Dispatcher
	Metrics   *Metrics

	nextDevID atomic.Uint32
}

// NewNamespace constructs a Namespace with its own DataModel over the
// given factory registry. Pass NewTestRegistry() or a shared
// process-wide *objects.Registry with the plug-ins the caller wants
// available. Callers must call Close when done.
func NewNamespace(factories *objects.Registry) *Namespace {
	dataModel := dm.New()
	return &Namespace{
		DM:        dataModel,
		Factories: factories,
		Dispatch:  dispatch.New(dataModel, factories),
		Metrics:   NewMetrics(),
	}
}

// OpenControlDevice opens a fresh control device bound to this
// namespace's dispatcher, with a freshly allocated device id (spec
// §4.4's "each open() gets a private id used to tag upqueue
// subscriptions and event replies").
func (ns *Namespace) OpenControlDevice() *ctrldev.ControlDevice {
	id := ns.nextDevID.Add(1)
	return ctrldev.New(id, ns.Dispatch)
}

// OpenPrivilegedControlDevice opens a control device that additionally
// holds the administrative capability (spec §4.4) needed for IPCP
// create/destroy, flow dealloc, and PDUFT administration. Callers
// embedding this core decide which opens get this escalation; it is
// never granted implicitly.
func (ns *Namespace) OpenPrivilegedControlDevice() *ctrldev.ControlDevice {
	dev := ns.OpenControlDevice()
	dev.SetPrivileged(true)
	return dev
}

// CreateDIF registers a new DIF of difType within this namespace.
// Metrics has no DIF counter, so nothing is recorded there.
func (ns *Namespace) CreateDIF(name, difType string, maxPDUSize, maxPDULife uint32) (*objects.DIF, error) {
	return ns.DM.CreateDIF(name, difType, maxPDUSize, maxPDULife)
}

// CreateIPCP instantiates difType's plug-in against dif and joins it to
// this namespace, recording the lifecycle event in Metrics.
func (ns *Namespace) CreateIPCP(name string, dif *objects.DIF, difType string) (*objects.IPCP, objects.IPCPOps, error) {
	factory := ns.Factories.Lookup(difType)
	if factory == nil {
		return nil, nil, NewError("ipcp-create", KindNotFound, "no factory registered for dif type "+difType)
	}
	ops := factory.New()
	ip, err := ns.DM.CreateIPCP(name, dif, ops, factory)
	if err != nil {
		return nil, nil, WrapError("ipcp-create", err)
	}
	if err := ops.Create(ip, nil); err != nil {
		ns.DM.DestroyIPCP(ip)
		return nil, nil, WrapError("ipcp-create", err)
	}
	ns.Metrics.RecordIPCPCreate()
	return ip, ops, nil
}

// DestroyIPCP tears ip down via its plug-in's Destroy and removes it
// from the namespace, recording the lifecycle event in Metrics.
func (ns *Namespace) DestroyIPCP(ip *objects.IPCP) error {
	if ip.Ops != nil {
		if err := ip.Ops.Destroy(ip); err != nil {
			return WrapError("ipcp-destroy", err)
		}
	}
	ns.DM.DestroyIPCP(ip)
	ns.Metrics.RecordIPCPDestroy()
	return nil
}

// Close stops this namespace's DataModel workers and marks Metrics
// stopped. It does not tear down any remaining IPCP.
func (ns *Namespace) Close() {
	ns.DM.Close()
	ns.Metrics.Stop()
}
