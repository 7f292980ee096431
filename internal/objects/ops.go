package objects

import (
	"io"
	"sync"
)

// IPCPOps is the DIF-type plug-in vtable (spec §6, "IPCP plug-in
// interface"). Concrete plug-ins (a "normal" IPCP, a test-only
// loopback shim, or — out of scope here — shim-udp4/tcp4/eth)
// implement this. Embedding BaseOps gives a plug-in no-op defaults for
// every method spec.md marks optional (flow_init, qos_supported,
// sched_config), so a minimal plug-in only needs to override what it
// actually uses.
type IPCPOps interface {
	Create(ipcp *IPCP, cfg map[string]string) error
	Destroy(ipcp *IPCP) error
	SDUWrite(ipcp *IPCP, flow *Flow, sdu []byte) error
	SDURx(ipcp *IPCP, sdu []byte) error
	FlowInit(ipcp *IPCP, flow *Flow) error
	FlowAllocateReq(ipcp *IPCP, flow *Flow, difName, local, remote string) error
	FlowAllocateResp(ipcp *IPCP, flow *Flow, accept bool) error
	FlowDeallocated(ipcp *IPCP, flow *Flow) error
	FlowCfgUpdate(ipcp *IPCP, flow *Flow, maxCWQ, maxRTXQ uint32) error
	ApplRegister(ipcp *IPCP, appl *RegisteredAppl, register bool) error
	Config(ipcp *IPCP, key, value string) error
	ConfigGet(ipcp *IPCP, key string) (string, error)
	QosSupported(ipcp *IPCP) []uint8
	PduftSet(ipcp *IPCP, addr uint64, flow *Flow) error
	PduftDel(ipcp *IPCP, addr uint64) error
	PduftFlush(ipcp *IPCP) error
	PduftFlushByFlow(ipcp *IPCP, flow *Flow) error
	SchedConfig(ipcp *IPCP, wrrWeights []uint8) error
}

// BaseOps supplies no-op defaults for the spec's optional plug-in
// methods. Embed it in a concrete IPCPOps implementation.
type BaseOps struct{}

func (BaseOps) FlowInit(*IPCP, *Flow) error                      { return nil }
func (BaseOps) FlowCfgUpdate(*IPCP, *Flow, uint32, uint32) error { return nil }
func (BaseOps) QosSupported(*IPCP) []uint8                       { return []uint8{0} }
func (BaseOps) SchedConfig(*IPCP, []uint8) error                 { return nil }

// Factory supplies a constructor + ops vtable for one DIF type
// ("normal", "shim-loopback", and — out of scope — shim-udp4/tcp4/eth).
// Owner is a reference held for the lifetime of every IPCP this
// factory creates; it is released strictly after Ops.Destroy returns
// (spec §4.1: "never release the module before its code has finished
// running").
type Factory struct {
	DIFType string
	New     func() IPCPOps
	Owner   io.Closer
}

// Registry is the process-wide factory registry (spec §2.7, §4.1). A
// single instance normally backs an entire process; tests may
// construct their own to stay isolated.
type Registry struct {
	mu        sync.Mutex
	factories map[string]*Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]*Factory)}
}

// Register adds a factory for difType, replacing any prior one.
func (r *Registry) Register(f *Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[f.DIFType] = f
}

// Lookup returns the factory for difType, or nil if none is registered.
func (r *Registry) Lookup(difType string) *Factory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.factories[difType]
}

// Unregister removes a factory, e.g. at module unload in tests.
func (r *Registry) Unregister(difType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, difType)
}
