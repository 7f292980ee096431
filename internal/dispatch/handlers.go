package dispatch

import (
	"github.com/rinacore/rinacore/internal/constants"
	"github.com/rinacore/rinacore/internal/ctrldev"
	"github.com/rinacore/rinacore/internal/errs"
	"github.com/rinacore/rinacore/internal/objects"
	"github.com/rinacore/rinacore/internal/wire"
)

func (d *Dispatcher) handleIpcpCreate(m *wire.IpcpCreate) (wire.Message, error) {
	factory := d.Factories.Lookup(m.DIFType)
	if factory == nil {
		return nil, errs.NotFound
	}

	dif, err := d.DM.CreateDIF(m.DIFName, m.DIFType, constants.DefaultMaxPDUSize, constants.DefaultMaxPDULife)
	if err != nil {
		// A DIF of this name may already exist with a member IPCP;
		// join it rather than failing.
		var ok bool
		dif, ok = d.DM.LookupDIF(m.DIFName)
		if !ok {
			return nil, err
		}
		dif.Get()
	}

	ops := factory.New()
	ip, err := d.DM.CreateIPCP(m.Name, dif, ops, factory)
	if err != nil {
		d.DM.PutDIF(dif)
		return nil, err
	}
	if err := ops.Create(ip, nil); err != nil {
		d.DM.DestroyIPCP(ip)
		return nil, err
	}

	d.broadcastIPCPUpdate(wire.UpdateAdd, ip)
	return &wire.IpcpCreateResp{IpcpID: ip.ID}, nil
}

func (d *Dispatcher) handleIpcpDestroy(m *wire.IpcpDestroy) error {
	ip, ok := d.DM.LookupIPCP(m.IpcpID)
	if !ok {
		return errs.NotFound
	}
	ip.MarkZombie()

	for _, appl := range ip.StealApps() {
		d.DM.UnregisterAppl(appl)
	}

	if ip.Ops != nil {
		if err := ip.Ops.Destroy(ip); err != nil {
			d.log.Debug("Ops.Destroy failed", "ipcp", ip.ID, "error", err)
		}
	}

	d.mu.Lock()
	delete(d.pduft, ip.ID)
	d.mu.Unlock()

	d.broadcastIPCPUpdate(wire.UpdateDel, ip)
	d.DM.DestroyIPCP(ip)
	return nil
}

func (d *Dispatcher) handleIpcpConfig(m *wire.IpcpConfig) error {
	ip, ok := d.DM.LookupIPCP(m.IpcpID)
	if !ok {
		return errs.NotFound
	}
	if m.Address != 0 {
		ip.Address = m.Address
	}
	if m.MaxSDU != 0 {
		ip.MaxSDU = m.MaxSDU
	}
	if m.Key != "" {
		ip.SetConfig(m.Key, m.Value)
		if ip.Ops != nil {
			return ip.Ops.Config(ip, m.Key, m.Value)
		}
	}
	return nil
}

func (d *Dispatcher) handleIpcpConfigGet(m *wire.IpcpConfigGet) (wire.Message, error) {
	ip, ok := d.DM.LookupIPCP(m.IpcpID)
	if !ok {
		return nil, errs.NotFound
	}
	if ip.Ops != nil {
		if v, err := ip.Ops.ConfigGet(ip, m.Key); err == nil {
			return &wire.IpcpConfigGetResp{Value: v}, nil
		}
	}
	v, ok := ip.GetConfig(m.Key)
	if !ok {
		return nil, errs.NotFound
	}
	return &wire.IpcpConfigGetResp{Value: v}, nil
}

func (d *Dispatcher) handleApplRegister(dev *ctrldev.ControlDevice, m *wire.ApplRegister, eventID uint32) (wire.Message, error) {
	ip, ok := d.lookupIPCPByDIFName(m.DIFName)
	if !ok {
		return &wire.ApplRegisterResp{Response: wire.RespReject}, nil
	}

	if !m.Register {
		appl, err := d.DM.LookupAppl(ip, m.ApplName)
		if err != nil {
			return &wire.ApplRegisterResp{Response: wire.RespReject}, nil
		}
		d.DM.UnregisterAppl(appl)
		return &wire.ApplRegisterResp{Response: wire.RespSuccess}, nil
	}

	if _, err := d.DM.RegisterAppl(ip, m.ApplName, dev, eventID); err != nil {
		return &wire.ApplRegisterResp{Response: wire.RespReject}, nil
	}
	return &wire.ApplRegisterResp{Response: wire.RespSuccess}, nil
}

func (d *Dispatcher) handleFlowDealloc(m *wire.FlowDealloc) (wire.Message, error) {
	f, ok := d.DM.LookupFlowByPort(m.PortID)
	if !ok {
		return nil, errs.NotFound
	}
	if f.UID != m.UID || f.HasFlag(objects.FlagDeallocated) {
		// A uid mismatch means the port-id was reused by a newer flow
		// since the caller last saw it (spec §4.5 "Port-id reuse race");
		// a stale dealloc must never tear down the new occupant. A flow
		// already flagged FlagDeallocated (e.g. still in its put-queue
		// grace period) is not torn down a second time, so a repeated
		// dealloc of the same flow also returns NotFound.
		return nil, errs.NotFound
	}

	f.SetFlag(objects.FlagDeallocated)
	if ip := f.LowerIPCP; ip != nil && ip.Ops != nil {
		_ = ip.Ops.FlowDeallocated(ip, f)
	}
	if t := d.pduftFor(f.LowerIPCP); t != nil {
		t.FlushByFlow(f)
	}

	if f.HasFlag(objects.FlagAllocated) && (f.DTP != nil) {
		d.DM.DeferRemoval(f, constants.DefaultFlowDelWait)
	} else {
		d.DM.PutFlow(f)
	}
	return &wire.FlowDeallocResp{Response: wire.RespSuccess}, nil
}

func (d *Dispatcher) handleFlowStatsReq(m *wire.FlowStatsReq) (wire.Message, error) {
	f, ok := d.DM.LookupFlowByPort(m.PortID)
	if !ok {
		return nil, errs.NotFound
	}
	resp := &wire.FlowStatsResp{PortID: m.PortID}
	if dtpState, ok := f.DTP.(interface{ Snapshot() (uint64, uint64) }); ok {
		next, rcvLWE := dtpState.Snapshot()
		resp.NextSeqSend = next
		resp.RcvLWE = rcvLWE
	}
	if q, ok := f.DTP.(interface{ CWQLen() int }); ok {
		resp.CWQLen = uint32(q.CWQLen())
	}
	return resp, nil
}

func (d *Dispatcher) handlePduftSet(m *wire.PduftSet) error {
	ip, ok := d.DM.LookupIPCP(m.IpcpID)
	if !ok {
		return errs.NotFound
	}
	f, ok := d.DM.LookupFlowByPort(m.PortID)
	if !ok {
		return errs.NotFound
	}
	t := d.pduftFor(ip)
	if err := t.Set(m.Addr, f); err != nil {
		return err
	}
	if ip.Ops != nil {
		return ip.Ops.PduftSet(ip, m.Addr, f)
	}
	return nil
}

func (d *Dispatcher) handlePduftDel(m *wire.PduftDel) error {
	ip, ok := d.DM.LookupIPCP(m.IpcpID)
	if !ok {
		return errs.NotFound
	}
	d.pduftFor(ip).Del(m.Addr)
	if ip.Ops != nil {
		return ip.Ops.PduftDel(ip, m.Addr)
	}
	return nil
}

func (d *Dispatcher) handlePduftFlush(m *wire.PduftFlush) error {
	ip, ok := d.DM.LookupIPCP(m.IpcpID)
	if !ok {
		return errs.NotFound
	}
	d.pduftFor(ip).Flush()
	if ip.Ops != nil {
		return ip.Ops.PduftFlush(ip)
	}
	return nil
}

func (d *Dispatcher) handleFlowFetch(dev *ctrldev.ControlDevice, m *wire.FlowFetch) (wire.Message, error) {
	flows := d.DM.AllFlows()
	cursor := dev.FlowCursor()
	if int(cursor) >= len(flows) {
		dev.ResetFlowCursor()
		return &wire.FlowFetchResp{End: true}, nil
	}
	f := flows[cursor]
	dev.AdvanceFlowCursor()
	return &wire.FlowFetchResp{LocalPort: f.LocalPortID, RemotePort: f.RemotePortID, RemoteAddr: f.RemoteAddr}, nil
}

func (d *Dispatcher) handleRegFetch(dev *ctrldev.ControlDevice, m *wire.RegFetch) (wire.Message, error) {
	ip, ok := d.DM.LookupIPCP(m.IpcpID)
	if !ok {
		return &wire.RegFetchResp{End: true}, nil
	}
	names := ip.AppNames()
	cursor := dev.RegCursor()
	if int(cursor) >= len(names) {
		dev.ResetRegCursor()
		return &wire.RegFetchResp{End: true}, nil
	}
	name := names[cursor]
	dev.AdvanceRegCursor()
	appl, _ := ip.LookupApp(name)
	return &wire.RegFetchResp{ApplName: name, Pending: appl.State == objects.ApplPending}, nil
}

// handleFaReq implements step 1 of the four-step flow-allocation
// handshake (spec §4.5): allocate the requester's flow, find the
// target application on the named DIF's member IPCP, allocate the
// arrival-side flow, pair the two at the IPCP-plug-in level, and
// notify the target application with fa_req_arrived.
//
// This core ships only loopback-style plug-ins (internal/shimloopback);
// a request and its arrival therefore always resolve to the same IPCP.
func (d *Dispatcher) handleFaReq(dev *ctrldev.ControlDevice, eventID uint32, m *wire.FaReq) error {
	ip, ok := d.lookupIPCPByDIFName(m.DIFName)
	if !ok {
		return errs.NotFound
	}
	if ip.Zombie() {
		return errs.NotFound
	}
	target, err := d.DM.LookupAppl(ip, m.Remote)
	if err != nil {
		return errs.NotFound
	}

	reqFlow, err := d.DM.AllocatePort(ip)
	if err != nil {
		return err
	}
	reqFlow.QosID = m.QosID
	if err := reqFlow.BindDevice(dev); err != nil {
		d.DM.PutFlow(reqFlow)
		return err
	}

	arrFlow, err := d.DM.AllocatePort(ip)
	if err != nil {
		d.DM.PutFlow(reqFlow)
		return err
	}
	arrFlow.QosID = m.QosID
	if err := arrFlow.BindDevice(target.OwningDevice); err != nil {
		d.DM.PutFlow(reqFlow)
		d.DM.PutFlow(arrFlow)
		return err
	}

	if ip.Ops != nil {
		if err := ip.Ops.FlowAllocateReq(ip, reqFlow, m.DIFName, m.Local, m.Remote); err != nil {
			d.DM.PutFlow(reqFlow)
			d.DM.PutFlow(arrFlow)
			return err
		}
		if err := ip.Ops.FlowAllocateReq(ip, arrFlow, m.DIFName, m.Remote, m.Local); err != nil {
			d.DM.PutFlow(reqFlow)
			d.DM.PutFlow(arrFlow)
			return err
		}
	}

	d.mu.Lock()
	d.faWait[arrFlow.LocalPortID] = &pendingAllocation{
		requesterFlow:  reqFlow,
		requesterDev:   dev,
		requesterEvent: eventID,
	}
	d.mu.Unlock()

	arrived := &wire.FaReqArrived{PortID: arrFlow.LocalPortID, ApplName: m.Remote, DIFName: m.DIFName}
	return target.OwningDevice.Append(wire.Encode(target.EventID, arrived), true)
}

// handleFaResp implements step 3: the arrival-side application has
// answered fa_req_arrived. On accept, both flows are marked ALLOCATED
// and the original requester is woken with fa_resp_arrived (step 4).
// On reject, both flows are torn down.
func (d *Dispatcher) handleFaResp(m *wire.FaResp) error {
	arrFlow, ok := d.DM.LookupFlowByPort(m.PortID)
	if !ok {
		return errs.NotFound
	}

	d.mu.Lock()
	pending, ok := d.faWait[m.PortID]
	if ok {
		delete(d.faWait, m.PortID)
	}
	d.mu.Unlock()
	if !ok {
		return errs.NotFound
	}

	reqFlow := pending.requesterFlow
	ip := arrFlow.LowerIPCP

	if m.Response != wire.RespSuccess {
		reqFlow.SetFlag(objects.FlagDeallocated)
		arrFlow.SetFlag(objects.FlagDeallocated)
		if ip != nil && ip.Ops != nil {
			_ = ip.Ops.FlowDeallocated(ip, reqFlow)
			_ = ip.Ops.FlowDeallocated(ip, arrFlow)
		}
		d.DM.PutFlow(reqFlow)
		d.DM.PutFlow(arrFlow)
		respArrived := &wire.FaRespArrived{PortID: reqFlow.LocalPortID, Response: wire.RespReject}
		return pending.requesterDev.Append(wire.Encode(pending.requesterEvent, respArrived), true)
	}

	reqFlow.ClearFlag(objects.FlagPending)
	reqFlow.SetFlag(objects.FlagAllocated)
	reqFlow.RemotePortID = arrFlow.LocalPortID
	arrFlow.ClearFlag(objects.FlagPending)
	arrFlow.SetFlag(objects.FlagAllocated)
	arrFlow.RemotePortID = reqFlow.LocalPortID

	if ip != nil && ip.Ops != nil {
		_ = ip.Ops.FlowAllocateResp(ip, reqFlow, true)
		_ = ip.Ops.FlowAllocateResp(ip, arrFlow, true)
	}

	d.attachDTP(ip, reqFlow, arrFlow)

	respArrived := &wire.FaRespArrived{
		PortID:     reqFlow.LocalPortID,
		Response:   wire.RespSuccess,
		RemotePort: arrFlow.LocalPortID,
		RemoteAddr: arrFlow.RemoteAddr,
	}
	return pending.requesterDev.Append(wire.Encode(pending.requesterEvent, respArrived), true)
}
