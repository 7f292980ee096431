// Package shimloopback is a minimal, test/demo-only IPCPOps
// implementation (spec §6 "plug-in registry") that loops PDUs directly
// between two flows bound within the same process — no real network,
// no remote peer. It exists to exercise the flow-allocation and DTP
// engines end to end without the out-of-scope shim-udp4/tcp4/eth
// plug-ins. Grounded on the teacher's backend/mem.go in-memory backend,
// which plays the same "a real implementation minus the real I/O"
// role one layer down the stack.
package shimloopback

import (
	"sync"

	"github.com/rinacore/rinacore/internal/errs"
	"github.com/rinacore/rinacore/internal/objects"
	"github.com/rinacore/rinacore/internal/wire"
)

// pduReceiver is the minimal surface of *dtp.State this plug-in needs
// to hand a PCI-framed PDU to a flow's DTP engine, kept as a local
// interface so this package never needs to import internal/dtp.
type pduReceiver interface {
	Receive(pci wire.PCI, sdu []byte) error
}

// Ops implements objects.IPCPOps by pairing up flows in FIFO order:
// the first flow allocated against one IPCP instance is wired to the
// second, the third to the fourth, and so on. Each pair exchanges
// SDUWrite calls directly, with no PDUFT lookup; SDUWrite hands the
// data to the peer's DTP engine when it has one, else straight to the
// peer's upper binding.
type Ops struct {
	objects.BaseOps

	mu      sync.Mutex
	pending *objects.Flow
	peerOf  map[*objects.Flow]*objects.Flow
}

func New() *Ops {
	return &Ops{peerOf: make(map[*objects.Flow]*objects.Flow)}
}

func (o *Ops) Create(ipcp *objects.IPCP, cfg map[string]string) error {
	return nil
}

func (o *Ops) Destroy(ipcp *objects.IPCP) error {
	return nil
}

func (o *Ops) FlowAllocateReq(ipcp *objects.IPCP, flow *objects.Flow, difName, local, remote string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending == nil {
		o.pending = flow
		return nil
	}
	o.peerOf[o.pending] = flow
	o.peerOf[flow] = o.pending
	o.pending = nil
	return nil
}

func (o *Ops) FlowAllocateResp(ipcp *objects.IPCP, flow *objects.Flow, accept bool) error {
	return nil
}

func (o *Ops) FlowDeallocated(ipcp *objects.IPCP, flow *objects.Flow) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if peer, ok := o.peerOf[flow]; ok {
		delete(o.peerOf, flow)
		delete(o.peerOf, peer)
	}
	if o.pending == flow {
		o.pending = nil
	}
	return nil
}

// SDUWrite loops sdu straight to flow's paired peer, in-process. If the
// peer carries a DTP engine, sdu is treated as a PCI-framed PDU (spec
// §4.6/§6) and handed to the peer's DTP.Receive, which itself performs
// delivery to the peer's upper binding; otherwise sdu is delivered to
// the peer's upper binding directly, unframed.
func (o *Ops) SDUWrite(ipcp *objects.IPCP, flow *objects.Flow, sdu []byte) error {
	o.mu.Lock()
	peer, ok := o.peerOf[flow]
	o.mu.Unlock()
	if !ok {
		return errs.NotFound
	}

	if peer.DTP != nil {
		if rcv, ok := peer.DTP.(pduReceiver); ok {
			if len(sdu) < wire.PCISize {
				return wire.ErrShortBuffer
			}
			pci, err := wire.UnmarshalPCI(sdu)
			if err != nil {
				return err
			}
			return rcv.Receive(pci, sdu[wire.PCISize:])
		}
	}

	upperIPCP, dev := peer.Upper()
	if upperIPCP != nil && upperIPCP.Ops != nil {
		return upperIPCP.Ops.SDURx(upperIPCP, sdu)
	}
	if dev != nil {
		return dev.Append(sdu, true)
	}
	return errs.NotFound
}

func (o *Ops) SDURx(ipcp *objects.IPCP, sdu []byte) error {
	return nil
}

// ApplRegister is a no-op: this plug-in has no per-application state to
// track beyond what the object graph already holds.
func (o *Ops) ApplRegister(ipcp *objects.IPCP, appl *objects.RegisteredAppl, register bool) error {
	return nil
}

func (o *Ops) Config(ipcp *objects.IPCP, key, value string) error { return nil }

func (o *Ops) ConfigGet(ipcp *objects.IPCP, key string) (string, error) {
	return "", errs.NotFound
}

// PduftSet, PduftDel, PduftFlush and PduftFlushByFlow are no-ops: this
// plug-in loops flows directly by peer pairing and never consults a
// forwarding table.
func (o *Ops) PduftSet(ipcp *objects.IPCP, addr uint64, flow *objects.Flow) error { return nil }
func (o *Ops) PduftDel(ipcp *objects.IPCP, addr uint64) error                     { return nil }
func (o *Ops) PduftFlush(ipcp *objects.IPCP) error                                { return nil }
func (o *Ops) PduftFlushByFlow(ipcp *objects.IPCP, flow *objects.Flow) error      { return nil }
