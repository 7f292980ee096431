package dispatch

import (
	"github.com/rinacore/rinacore/internal/dtp"
	"github.com/rinacore/rinacore/internal/errs"
	"github.com/rinacore/rinacore/internal/objects"
	"github.com/rinacore/rinacore/internal/wire"
)

// flowBridge adapts one Flow to dtp.Sender and dtp.Deliverer: its
// transmit side hands a PCI-framed PDU to the flow's own lower IPCP,
// its deliver side hands a reassembled SDU to the flow's own upper
// binding. Defined here rather than in internal/dtp so dtp stays free
// of an internal/objects import.
type flowBridge struct {
	flow *objects.Flow
}

func (b *flowBridge) SendPDU(pci wire.PCI, sdu []byte) error {
	ip := b.flow.LowerIPCP
	if ip == nil || ip.Ops == nil {
		return errs.NotFound
	}
	pdu := append(pci.Marshal(), sdu...)
	return ip.Ops.SDUWrite(ip, b.flow, pdu)
}

func (b *flowBridge) DeliverSDU(sdu []byte) error {
	upperIPCP, dev := b.flow.Upper()
	if upperIPCP != nil && upperIPCP.Ops != nil {
		return upperIPCP.Ops.SDURx(upperIPCP, sdu)
	}
	if dev != nil {
		return dev.Append(sdu, true)
	}
	return errs.NotFound
}

// attachDTP gives each side of a newly-ALLOCATED flow pair its own DTP
// engine (spec §4.6), each addressed at the other's CEP-ID and bridged
// back to its own lower IPCP and upper binding via flowBridge.
func (d *Dispatcher) attachDTP(ip *objects.IPCP, a, b *objects.Flow) {
	if ip == nil {
		return
	}
	a.DTP = dtp.New(dtp.Config{
		DstAddr: ip.Address,
		SrcAddr: ip.Address,
		DstCEP:  b.LocalCEPID,
		SrcCEP:  a.LocalCEPID,
		QosID:   a.QosID,
	}, &flowBridge{flow: a}, &flowBridge{flow: a})

	b.DTP = dtp.New(dtp.Config{
		DstAddr: ip.Address,
		SrcAddr: ip.Address,
		DstCEP:  a.LocalCEPID,
		SrcCEP:  b.LocalCEPID,
		QosID:   b.QosID,
	}, &flowBridge{flow: b}, &flowBridge{flow: b})
}
