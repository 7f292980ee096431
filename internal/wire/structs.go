package wire

// This file defines the body of every control-device message named in
// spec §6, plus the on-wire PCI header for normal-IPCP PDUs. Field
// order here is the wire order consumed by each type's Marshal/
// Unmarshal methods below.

// --- IPCP lifecycle ---

type IpcpCreate struct {
	Name    string
	DIFName string
	DIFType string
}

func (m *IpcpCreate) Type() MsgType { return MsgIpcpCreate }
func (m *IpcpCreate) Marshal() []byte {
	buf := putString(nil, m.Name)
	buf = putString(buf, m.DIFName)
	buf = putString(buf, m.DIFType)
	return buf
}
func (m *IpcpCreate) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.Name, off, err = readString(data, off); err != nil {
		return err
	}
	if m.DIFName, off, err = readString(data, off); err != nil {
		return err
	}
	if m.DIFType, _, err = readString(data, off); err != nil {
		return err
	}
	return nil
}

type IpcpCreateResp struct {
	IpcpID uint16
}

func (m *IpcpCreateResp) Type() MsgType   { return MsgIpcpCreateResp }
func (m *IpcpCreateResp) Marshal() []byte { return putU16(nil, m.IpcpID) }
func (m *IpcpCreateResp) Unmarshal(data []byte) error {
	v, _, err := readU16(data, 0)
	m.IpcpID = v
	return err
}

type IpcpDestroy struct {
	IpcpID uint16
}

func (m *IpcpDestroy) Type() MsgType   { return MsgIpcpDestroy }
func (m *IpcpDestroy) Marshal() []byte { return putU16(nil, m.IpcpID) }
func (m *IpcpDestroy) Unmarshal(data []byte) error {
	v, _, err := readU16(data, 0)
	m.IpcpID = v
	return err
}

type IpcpConfig struct {
	IpcpID  uint16
	Address uint64
	MaxSDU  uint32
	Key     string
	Value   string
}

func (m *IpcpConfig) Type() MsgType { return MsgIpcpConfig }
func (m *IpcpConfig) Marshal() []byte {
	buf := putU16(nil, m.IpcpID)
	buf = putU64(buf, m.Address)
	buf = putU32(buf, m.MaxSDU)
	buf = putString(buf, m.Key)
	buf = putString(buf, m.Value)
	return buf
}
func (m *IpcpConfig) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.IpcpID, off, err = readU16(data, off); err != nil {
		return err
	}
	if m.Address, off, err = readU64(data, off); err != nil {
		return err
	}
	if m.MaxSDU, off, err = readU32(data, off); err != nil {
		return err
	}
	if m.Key, off, err = readString(data, off); err != nil {
		return err
	}
	m.Value, _, err = readString(data, off)
	return err
}

type IpcpConfigGet struct {
	IpcpID uint16
	Key    string
}

func (m *IpcpConfigGet) Type() MsgType { return MsgIpcpConfigGet }
func (m *IpcpConfigGet) Marshal() []byte {
	buf := putU16(nil, m.IpcpID)
	return putString(buf, m.Key)
}
func (m *IpcpConfigGet) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.IpcpID, off, err = readU16(data, off); err != nil {
		return err
	}
	m.Key, _, err = readString(data, off)
	return err
}

type IpcpConfigGetResp struct {
	Value string
}

func (m *IpcpConfigGetResp) Type() MsgType   { return MsgIpcpConfigGetResp }
func (m *IpcpConfigGetResp) Marshal() []byte { return putString(nil, m.Value) }
func (m *IpcpConfigGetResp) Unmarshal(data []byte) error {
	v, _, err := readString(data, 0)
	m.Value = v
	return err
}

type UipcpSet struct {
	IpcpID uint16
}

func (m *UipcpSet) Type() MsgType   { return MsgUipcpSet }
func (m *UipcpSet) Marshal() []byte { return putU16(nil, m.IpcpID) }
func (m *UipcpSet) Unmarshal(data []byte) error {
	v, _, err := readU16(data, 0)
	m.IpcpID = v
	return err
}

type UipcpWait struct {
	IpcpID uint16
}

func (m *UipcpWait) Type() MsgType   { return MsgUipcpWait }
func (m *UipcpWait) Marshal() []byte { return putU16(nil, m.IpcpID) }
func (m *UipcpWait) Unmarshal(data []byte) error {
	v, _, err := readU16(data, 0)
	m.IpcpID = v
	return err
}

type UipcpWaitResp struct {
	Attached bool
}

func (m *UipcpWaitResp) Type() MsgType { return MsgUipcpWaitResp }
func (m *UipcpWaitResp) Marshal() []byte {
	var b uint8
	if m.Attached {
		b = 1
	}
	return putU8(nil, b)
}
func (m *UipcpWaitResp) Unmarshal(data []byte) error {
	v, _, err := readU8(data, 0)
	m.Attached = v != 0
	return err
}

type Stats struct {
	IpcpID uint16
}

func (m *Stats) Type() MsgType   { return MsgStats }
func (m *Stats) Marshal() []byte { return putU16(nil, m.IpcpID) }
func (m *Stats) Unmarshal(data []byte) error {
	v, _, err := readU16(data, 0)
	m.IpcpID = v
	return err
}

type StatsResp struct {
	FlowsAllocated uint32
	BytesTx        uint64
	BytesRx        uint64
}

func (m *StatsResp) Type() MsgType { return MsgStatsResp }
func (m *StatsResp) Marshal() []byte {
	buf := putU32(nil, m.FlowsAllocated)
	buf = putU64(buf, m.BytesTx)
	return putU64(buf, m.BytesRx)
}
func (m *StatsResp) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.FlowsAllocated, off, err = readU32(data, off); err != nil {
		return err
	}
	if m.BytesTx, off, err = readU64(data, off); err != nil {
		return err
	}
	m.BytesRx, _, err = readU64(data, off)
	return err
}

// --- application registration ---

type ApplRegister struct {
	DIFName    string
	ApplName   string
	Register   bool // true = register, false = unregister
}

func (m *ApplRegister) Type() MsgType { return MsgApplRegister }
func (m *ApplRegister) Marshal() []byte {
	buf := putString(nil, m.DIFName)
	buf = putString(buf, m.ApplName)
	var b uint8
	if m.Register {
		b = 1
	}
	return putU8(buf, b)
}
func (m *ApplRegister) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.DIFName, off, err = readString(data, off); err != nil {
		return err
	}
	if m.ApplName, off, err = readString(data, off); err != nil {
		return err
	}
	b, _, err := readU8(data, off)
	m.Register = b != 0
	return err
}

type ApplRegisterResp struct {
	Response RespCode
}

func (m *ApplRegisterResp) Type() MsgType   { return MsgApplRegisterResp }
func (m *ApplRegisterResp) Marshal() []byte { return putU32(nil, uint32(m.Response)) }
func (m *ApplRegisterResp) Unmarshal(data []byte) error {
	v, _, err := readU32(data, 0)
	m.Response = RespCode(int32(v))
	return err
}

type ApplMove struct {
	ApplName  string
	OldIpcpID uint16
	NewIpcpID uint16
}

func (m *ApplMove) Type() MsgType { return MsgApplMove }
func (m *ApplMove) Marshal() []byte {
	buf := putString(nil, m.ApplName)
	buf = putU16(buf, m.OldIpcpID)
	return putU16(buf, m.NewIpcpID)
}
func (m *ApplMove) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.ApplName, off, err = readString(data, off); err != nil {
		return err
	}
	if m.OldIpcpID, off, err = readU16(data, off); err != nil {
		return err
	}
	m.NewIpcpID, _, err = readU16(data, off)
	return err
}

// --- flow allocation (spec §4.5) ---

type FaReq struct {
	DIFName  string
	Local    string
	Remote   string
	QosID    uint8
}

func (m *FaReq) Type() MsgType { return MsgFaReq }
func (m *FaReq) Marshal() []byte {
	buf := putString(nil, m.DIFName)
	buf = putString(buf, m.Local)
	buf = putString(buf, m.Remote)
	return putU8(buf, m.QosID)
}
func (m *FaReq) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.DIFName, off, err = readString(data, off); err != nil {
		return err
	}
	if m.Local, off, err = readString(data, off); err != nil {
		return err
	}
	if m.Remote, off, err = readString(data, off); err != nil {
		return err
	}
	m.QosID, _, err = readU8(data, off)
	return err
}

type FaReqArrived struct {
	PortID   uint32
	ApplName string
	DIFName  string
}

func (m *FaReqArrived) Type() MsgType { return MsgFaReqArrived }
func (m *FaReqArrived) Marshal() []byte {
	buf := putU32(nil, m.PortID)
	buf = putString(buf, m.ApplName)
	return putString(buf, m.DIFName)
}
func (m *FaReqArrived) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.PortID, off, err = readU32(data, off); err != nil {
		return err
	}
	if m.ApplName, off, err = readString(data, off); err != nil {
		return err
	}
	m.DIFName, _, err = readString(data, off)
	return err
}

type FaResp struct {
	PortID   uint32
	EventID  uint32
	Response RespCode
}

func (m *FaResp) Type() MsgType { return MsgFaResp }
func (m *FaResp) Marshal() []byte {
	buf := putU32(nil, m.PortID)
	buf = putU32(buf, m.EventID)
	return putU32(buf, uint32(m.Response))
}
func (m *FaResp) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.PortID, off, err = readU32(data, off); err != nil {
		return err
	}
	if m.EventID, off, err = readU32(data, off); err != nil {
		return err
	}
	v, _, err := readU32(data, off)
	m.Response = RespCode(int32(v))
	return err
}

type FaRespArrived struct {
	PortID     uint32
	Response   RespCode
	RemotePort uint32
	RemoteAddr uint64
}

func (m *FaRespArrived) Type() MsgType { return MsgFaRespArrived }
func (m *FaRespArrived) Marshal() []byte {
	buf := putU32(nil, m.PortID)
	buf = putU32(buf, uint32(m.Response))
	buf = putU32(buf, m.RemotePort)
	return putU64(buf, m.RemoteAddr)
}
func (m *FaRespArrived) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.PortID, off, err = readU32(data, off); err != nil {
		return err
	}
	var v uint32
	if v, off, err = readU32(data, off); err != nil {
		return err
	}
	m.Response = RespCode(int32(v))
	if m.RemotePort, off, err = readU32(data, off); err != nil {
		return err
	}
	m.RemoteAddr, _, err = readU64(data, off)
	return err
}

// UipcpFaRespArrived is the message a uipcp reflects back to the kernel
// on behalf of the remote peer (spec §4.5 step 4, split-responsibility case).
type UipcpFaRespArrived struct {
	Response   RespCode
	LocalPort  uint32
	RemotePort uint32
	RemoteAddr uint64
}

func (m *UipcpFaRespArrived) Type() MsgType { return MsgFaRespArrived }
func (m *UipcpFaRespArrived) Marshal() []byte {
	buf := putU32(nil, uint32(m.Response))
	buf = putU32(buf, m.LocalPort)
	buf = putU32(buf, m.RemotePort)
	return putU64(buf, m.RemoteAddr)
}
func (m *UipcpFaRespArrived) Unmarshal(data []byte) error {
	var off int
	var err error
	var v uint32
	if v, off, err = readU32(data, off); err != nil {
		return err
	}
	m.Response = RespCode(int32(v))
	if m.LocalPort, off, err = readU32(data, off); err != nil {
		return err
	}
	if m.RemotePort, off, err = readU32(data, off); err != nil {
		return err
	}
	m.RemoteAddr, _, err = readU64(data, off)
	return err
}

type FlowDealloc struct {
	PortID uint32
	UID    uint64
}

func (m *FlowDealloc) Type() MsgType { return MsgFlowDealloc }
func (m *FlowDealloc) Marshal() []byte {
	buf := putU32(nil, m.PortID)
	return putU64(buf, m.UID)
}
func (m *FlowDealloc) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.PortID, off, err = readU32(data, off); err != nil {
		return err
	}
	m.UID, _, err = readU64(data, off)
	return err
}

type FlowDeallocResp struct {
	Response RespCode
}

func (m *FlowDeallocResp) Type() MsgType   { return MsgFlowDeallocResp }
func (m *FlowDeallocResp) Marshal() []byte { return putU32(nil, uint32(m.Response)) }
func (m *FlowDeallocResp) Unmarshal(data []byte) error {
	v, _, err := readU32(data, 0)
	m.Response = RespCode(int32(v))
	return err
}

type FlowStatsReq struct {
	PortID uint32
}

func (m *FlowStatsReq) Type() MsgType   { return MsgFlowStatsReq }
func (m *FlowStatsReq) Marshal() []byte { return putU32(nil, m.PortID) }
func (m *FlowStatsReq) Unmarshal(data []byte) error {
	v, _, err := readU32(data, 0)
	m.PortID = v
	return err
}

type FlowStatsResp struct {
	PortID      uint32
	NextSeqSend uint64
	RcvLWE      uint64
	CWQLen      uint32
	RTXQLen     uint32
}

func (m *FlowStatsResp) Type() MsgType { return MsgFlowStatsResp }
func (m *FlowStatsResp) Marshal() []byte {
	buf := putU32(nil, m.PortID)
	buf = putU64(buf, m.NextSeqSend)
	buf = putU64(buf, m.RcvLWE)
	buf = putU32(buf, m.CWQLen)
	return putU32(buf, m.RTXQLen)
}
func (m *FlowStatsResp) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.PortID, off, err = readU32(data, off); err != nil {
		return err
	}
	if m.NextSeqSend, off, err = readU64(data, off); err != nil {
		return err
	}
	if m.RcvLWE, off, err = readU64(data, off); err != nil {
		return err
	}
	if m.CWQLen, off, err = readU32(data, off); err != nil {
		return err
	}
	m.RTXQLen, _, err = readU32(data, off)
	return err
}

type FlowCfgUpdate struct {
	PortID     uint32
	MaxCWQLen  uint32
	MaxRTXQLen uint32
}

func (m *FlowCfgUpdate) Type() MsgType { return MsgFlowCfgUpdate }
func (m *FlowCfgUpdate) Marshal() []byte {
	buf := putU32(nil, m.PortID)
	buf = putU32(buf, m.MaxCWQLen)
	return putU32(buf, m.MaxRTXQLen)
}
func (m *FlowCfgUpdate) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.PortID, off, err = readU32(data, off); err != nil {
		return err
	}
	if m.MaxCWQLen, off, err = readU32(data, off); err != nil {
		return err
	}
	m.MaxRTXQLen, _, err = readU32(data, off)
	return err
}

// --- PDUFT (spec §4.7) ---

type PduftSet struct {
	IpcpID  uint16
	Addr    uint64
	PortID  uint32 // identifies the outgoing (lower) flow
}

func (m *PduftSet) Type() MsgType { return MsgPduftSet }
func (m *PduftSet) Marshal() []byte {
	buf := putU16(nil, m.IpcpID)
	buf = putU64(buf, m.Addr)
	return putU32(buf, m.PortID)
}
func (m *PduftSet) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.IpcpID, off, err = readU16(data, off); err != nil {
		return err
	}
	if m.Addr, off, err = readU64(data, off); err != nil {
		return err
	}
	m.PortID, _, err = readU32(data, off)
	return err
}

type PduftDel struct {
	IpcpID uint16
	Addr   uint64
}

func (m *PduftDel) Type() MsgType { return MsgPduftDel }
func (m *PduftDel) Marshal() []byte {
	buf := putU16(nil, m.IpcpID)
	return putU64(buf, m.Addr)
}
func (m *PduftDel) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.IpcpID, off, err = readU16(data, off); err != nil {
		return err
	}
	m.Addr, _, err = readU64(data, off)
	return err
}

type PduftFlush struct {
	IpcpID uint16
}

func (m *PduftFlush) Type() MsgType   { return MsgPduftFlush }
func (m *PduftFlush) Marshal() []byte { return putU16(nil, m.IpcpID) }
func (m *PduftFlush) Unmarshal(data []byte) error {
	v, _, err := readU16(data, 0)
	m.IpcpID = v
	return err
}

// --- paginated enumeration ---

type FlowFetch struct {
	IpcpID uint16
}

func (m *FlowFetch) Type() MsgType   { return MsgFlowFetch }
func (m *FlowFetch) Marshal() []byte { return putU16(nil, m.IpcpID) }
func (m *FlowFetch) Unmarshal(data []byte) error {
	v, _, err := readU16(data, 0)
	m.IpcpID = v
	return err
}

type FlowFetchResp struct {
	End        bool
	LocalPort  uint32
	RemotePort uint32
	RemoteAddr uint64
}

func (m *FlowFetchResp) Type() MsgType { return MsgFlowFetchResp }
func (m *FlowFetchResp) Marshal() []byte {
	var e uint8
	if m.End {
		e = 1
	}
	buf := putU8(nil, e)
	buf = putU32(buf, m.LocalPort)
	buf = putU32(buf, m.RemotePort)
	return putU64(buf, m.RemoteAddr)
}
func (m *FlowFetchResp) Unmarshal(data []byte) error {
	var off int
	var err error
	e, off, err := readU8(data, off)
	if err != nil {
		return err
	}
	m.End = e != 0
	if m.LocalPort, off, err = readU32(data, off); err != nil {
		return err
	}
	if m.RemotePort, off, err = readU32(data, off); err != nil {
		return err
	}
	m.RemoteAddr, _, err = readU64(data, off)
	return err
}

type RegFetch struct {
	IpcpID uint16
}

func (m *RegFetch) Type() MsgType   { return MsgRegFetch }
func (m *RegFetch) Marshal() []byte { return putU16(nil, m.IpcpID) }
func (m *RegFetch) Unmarshal(data []byte) error {
	v, _, err := readU16(data, 0)
	m.IpcpID = v
	return err
}

type RegFetchResp struct {
	End      bool
	ApplName string
	Pending  bool
}

func (m *RegFetchResp) Type() MsgType { return MsgRegFetchResp }
func (m *RegFetchResp) Marshal() []byte {
	var e, p uint8
	if m.End {
		e = 1
	}
	if m.Pending {
		p = 1
	}
	buf := putU8(nil, e)
	buf = putString(buf, m.ApplName)
	return putU8(buf, p)
}
func (m *RegFetchResp) Unmarshal(data []byte) error {
	e, off, err := readU8(data, 0)
	if err != nil {
		return err
	}
	m.End = e != 0
	if m.ApplName, off, err = readString(data, off); err != nil {
		return err
	}
	p, _, err := readU8(data, off)
	m.Pending = p != 0
	return err
}

// --- IPCP-update broadcast (spec §4.4) ---

type IpcpUpdate struct {
	Kind    UpdateKind
	IpcpID  uint16
	DIFName string
	DIFType string
}

func (m *IpcpUpdate) Type() MsgType { return MsgIpcpUpdate }
func (m *IpcpUpdate) Marshal() []byte {
	buf := putU8(nil, uint8(m.Kind))
	buf = putU16(buf, m.IpcpID)
	buf = putString(buf, m.DIFName)
	return putString(buf, m.DIFType)
}
func (m *IpcpUpdate) Unmarshal(data []byte) error {
	k, off, err := readU8(data, 0)
	if err != nil {
		return err
	}
	m.Kind = UpdateKind(k)
	if m.IpcpID, off, err = readU16(data, off); err != nil {
		return err
	}
	if m.DIFName, off, err = readString(data, off); err != nil {
		return err
	}
	m.DIFType, _, err = readString(data, off)
	return err
}

// --- QoS / scheduler ---

type QosSupported struct {
	IpcpID uint16
}

func (m *QosSupported) Type() MsgType   { return MsgQosSupported }
func (m *QosSupported) Marshal() []byte { return putU16(nil, m.IpcpID) }
func (m *QosSupported) Unmarshal(data []byte) error {
	v, _, err := readU16(data, 0)
	m.IpcpID = v
	return err
}

type QosSupportedResp struct {
	QosIDs []uint8
}

func (m *QosSupportedResp) Type() MsgType { return MsgQosSupportedResp }
func (m *QosSupportedResp) Marshal() []byte {
	buf := putU16(nil, uint16(len(m.QosIDs)))
	buf = append(buf, m.QosIDs...)
	return buf
}
func (m *QosSupportedResp) Unmarshal(data []byte) error {
	n, off, err := readU16(data, 0)
	if err != nil {
		return err
	}
	if off+int(n) > len(data) {
		return ErrShortBuffer
	}
	m.QosIDs = append([]uint8{}, data[off:off+int(n)]...)
	return nil
}

type SchedWrr struct {
	IpcpID  uint16
	Weights []uint8
}

func (m *SchedWrr) Type() MsgType { return MsgSchedWrr }
func (m *SchedWrr) Marshal() []byte {
	buf := putU16(nil, m.IpcpID)
	buf = putU16(buf, uint16(len(m.Weights)))
	buf = append(buf, m.Weights...)
	return buf
}
func (m *SchedWrr) Unmarshal(data []byte) error {
	var off int
	var err error
	if m.IpcpID, off, err = readU16(data, off); err != nil {
		return err
	}
	n, off, err := readU16(data, off)
	if err != nil {
		return err
	}
	if off+int(n) > len(data) {
		return ErrShortBuffer
	}
	m.Weights = append([]uint8{}, data[off:off+int(n)]...)
	return nil
}

type SchedPfifo struct {
	IpcpID uint16
}

func (m *SchedPfifo) Type() MsgType   { return MsgSchedPfifo }
func (m *SchedPfifo) Marshal() []byte { return putU16(nil, m.IpcpID) }
func (m *SchedPfifo) Unmarshal(data []byte) error {
	v, _, err := readU16(data, 0)
	m.IpcpID = v
	return err
}

// --- on-wire PCI (spec §6) ---

// PCISize is the marshaled size of PCI in bytes: 8+8+1+2+2+1+1+8.
const PCISize = 31

type PCI struct {
	DstAddr uint64
	SrcAddr uint64
	QosID   uint8
	DstCEP  uint16
	SrcCEP  uint16
	PduType uint8
	Flags   uint8
	SeqNum  uint64
}

func (p *PCI) DRF() bool { return p.Flags&FlagDRF != 0 }

func (p *PCI) Marshal() []byte {
	buf := make([]byte, 0, PCISize)
	buf = putU64(buf, p.DstAddr)
	buf = putU64(buf, p.SrcAddr)
	buf = putU8(buf, p.QosID)
	buf = putU16(buf, p.DstCEP)
	buf = putU16(buf, p.SrcCEP)
	buf = putU8(buf, p.PduType)
	buf = putU8(buf, p.Flags)
	buf = putU64(buf, p.SeqNum)
	return buf
}

func UnmarshalPCI(data []byte) (PCI, error) {
	var p PCI
	if len(data) < PCISize {
		return p, ErrShortBuffer
	}
	var off int
	var err error
	if p.DstAddr, off, err = readU64(data, off); err != nil {
		return p, err
	}
	if p.SrcAddr, off, err = readU64(data, off); err != nil {
		return p, err
	}
	if p.QosID, off, err = readU8(data, off); err != nil {
		return p, err
	}
	if p.DstCEP, off, err = readU16(data, off); err != nil {
		return p, err
	}
	if p.SrcCEP, off, err = readU16(data, off); err != nil {
		return p, err
	}
	if p.PduType, off, err = readU8(data, off); err != nil {
		return p, err
	}
	if p.Flags, off, err = readU8(data, off); err != nil {
		return p, err
	}
	p.SeqNum, _, err = readU64(data, off)
	return p, err
}

// FCPduSize is the marshaled size of FCPdu in bytes: 5*8.
const FCPduSize = 40

// FCPdu is the body of a control-only PduTypeFC PDU (spec §4.6: "if RX
// flow control is enabled without retransmission control, after a
// delivery emit a control-only PDU carrying {last_ctrl_seq_num_rcvd,
// new_rwe, new_lwe, my_rwe, my_lwe}").
type FCPdu struct {
	LastCtrlSeqNumRcvd uint64
	NewRWE             uint64
	NewLWE             uint64
	MyRWE              uint64
	MyLWE              uint64
}

func (m *FCPdu) Marshal() []byte {
	buf := make([]byte, 0, FCPduSize)
	buf = putU64(buf, m.LastCtrlSeqNumRcvd)
	buf = putU64(buf, m.NewRWE)
	buf = putU64(buf, m.NewLWE)
	buf = putU64(buf, m.MyRWE)
	buf = putU64(buf, m.MyLWE)
	return buf
}

func UnmarshalFCPdu(data []byte) (FCPdu, error) {
	var m FCPdu
	if len(data) < FCPduSize {
		return m, ErrShortBuffer
	}
	var off int
	var err error
	if m.LastCtrlSeqNumRcvd, off, err = readU64(data, off); err != nil {
		return m, err
	}
	if m.NewRWE, off, err = readU64(data, off); err != nil {
		return m, err
	}
	if m.NewLWE, off, err = readU64(data, off); err != nil {
		return m, err
	}
	if m.MyRWE, off, err = readU64(data, off); err != nil {
		return m, err
	}
	m.MyLWE, _, err = readU64(data, off)
	return m, err
}
