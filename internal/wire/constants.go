package wire

// MsgType identifies the control-device message types named in spec §6.
type MsgType uint16

const (
	MsgIpcpCreate MsgType = iota + 1
	MsgIpcpCreateResp
	MsgIpcpDestroy
	MsgIpcpConfig
	MsgIpcpConfigGet
	MsgIpcpConfigGetResp
	MsgUipcpSet
	MsgUipcpWait
	MsgUipcpWaitResp
	MsgStats
	MsgStatsResp

	MsgApplRegister
	MsgApplRegisterResp
	MsgApplMove

	MsgFaReq
	MsgFaResp
	MsgFaReqArrived
	MsgFaRespArrived
	MsgFlowDealloc
	MsgFlowDeallocResp
	MsgFlowStatsReq
	MsgFlowStatsResp
	MsgFlowCfgUpdate

	MsgPduftSet
	MsgPduftDel
	MsgPduftFlush

	MsgFlowFetch
	MsgFlowFetchResp
	MsgRegFetch
	MsgRegFetchResp

	MsgIpcpUpdate

	MsgQosSupported
	MsgQosSupportedResp

	MsgSchedWrr
	MsgSchedPfifo
)

// PDU types for the normal-IPCP PCI (spec §6, "On-wire PCI"). PCI.PduType
// is a single byte, so each class needs a distinct value here even
// though the 16-bit values below pack DT and FC into the same low byte.
const (
	PduTypeDT   uint8 = 0x01 // low byte of 0x8001
	PduTypeMGMT uint8 = 0x40 // low byte of 0xC040
	PduTypeFC   uint8 = 0x02 // distinct from PduTypeDT; carries an FCPdu body
)

// PduType16 returns the full 16-bit wire values named in spec §6.
const (
	PduType16DT   uint16 = 0x8001
	PduType16MGMT uint16 = 0xC040
	PduType16FC   uint16 = 0xC001
)

// DRF is the Data Run Flag bit within PduFlags.
const FlagDRF uint8 = 0x01

// IpcpUpdate event kinds.
type UpdateKind uint8

const (
	UpdateAdd UpdateKind = iota
	UpdateDel
	UpdateChange
	UpdateUipcpDetached
)

// ApplRegisterResp / FaResp / FaRespArrived response codes.
type RespCode int32

const (
	RespSuccess RespCode = 0
	RespReject  RespCode = -1
)

// HeaderSize is the fixed size of the message header that precedes
// every type-specific body (spec §4.4: "header, type, event-id, then
// a type-specific body").
const HeaderSize = 12
