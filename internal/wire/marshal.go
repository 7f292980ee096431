// Package wire defines the on-the-wire control-device messages and the
// normal-IPCP PCI header, plus their binary marshal/unmarshal. Wire
// layout is explicit (hand-written encoding/binary, not reflection),
// the same idiom the teacher repo uses for its uapi structs.
package wire

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when a buffer is too small to hold the
// structure being decoded.
var ErrShortBuffer = errors.New("wire: short buffer")

// Header precedes every control-device message body.
type Header struct {
	Len     uint32 // total length of header+body
	MsgType MsgType
	Pad     uint16
	EventID uint32
}

func (h *Header) Marshal() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Len)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(h.MsgType))
	binary.LittleEndian.PutUint16(buf[6:8], h.Pad)
	binary.LittleEndian.PutUint32(buf[8:12], h.EventID)
	return buf
}

func UnmarshalHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < HeaderSize {
		return h, ErrShortBuffer
	}
	h.Len = binary.LittleEndian.Uint32(data[0:4])
	h.MsgType = MsgType(binary.LittleEndian.Uint16(data[4:6]))
	h.Pad = binary.LittleEndian.Uint16(data[6:8])
	h.EventID = binary.LittleEndian.Uint32(data[8:12])
	return h, nil
}

// Message is implemented by every message body type.
type Message interface {
	Type() MsgType
	Marshal() []byte
	Unmarshal(data []byte) error
}

// Encode wraps a message body with its header, filling in Len and MsgType.
func Encode(eventID uint32, m Message) []byte {
	body := m.Marshal()
	h := Header{
		Len:     uint32(HeaderSize + len(body)),
		MsgType: m.Type(),
		EventID: eventID,
	}
	buf := make([]byte, 0, h.Len)
	buf = append(buf, h.Marshal()...)
	buf = append(buf, body...)
	return buf
}

// Decode reads a header and dispatches to NewMessage to decode the body.
func Decode(data []byte) (Header, Message, error) {
	h, err := UnmarshalHeader(data)
	if err != nil {
		return h, nil, err
	}
	if int(h.Len) > len(data) {
		return h, nil, ErrShortBuffer
	}
	msg, err := NewMessage(h.MsgType)
	if err != nil {
		return h, nil, err
	}
	if err := msg.Unmarshal(data[HeaderSize:h.Len]); err != nil {
		return h, nil, err
	}
	return h, msg, nil
}

// NewMessage allocates a zero-valued body for the given message type.
func NewMessage(t MsgType) (Message, error) {
	switch t {
	case MsgIpcpCreate:
		return &IpcpCreate{}, nil
	case MsgIpcpCreateResp:
		return &IpcpCreateResp{}, nil
	case MsgIpcpDestroy:
		return &IpcpDestroy{}, nil
	case MsgIpcpConfig:
		return &IpcpConfig{}, nil
	case MsgIpcpConfigGet:
		return &IpcpConfigGet{}, nil
	case MsgIpcpConfigGetResp:
		return &IpcpConfigGetResp{}, nil
	case MsgUipcpSet:
		return &UipcpSet{}, nil
	case MsgUipcpWait:
		return &UipcpWait{}, nil
	case MsgUipcpWaitResp:
		return &UipcpWaitResp{}, nil
	case MsgStats:
		return &Stats{}, nil
	case MsgStatsResp:
		return &StatsResp{}, nil
	case MsgApplRegister:
		return &ApplRegister{}, nil
	case MsgApplRegisterResp:
		return &ApplRegisterResp{}, nil
	case MsgApplMove:
		return &ApplMove{}, nil
	case MsgFaReq:
		return &FaReq{}, nil
	case MsgFaResp:
		return &FaResp{}, nil
	case MsgFaReqArrived:
		return &FaReqArrived{}, nil
	case MsgFaRespArrived:
		return &FaRespArrived{}, nil
	case MsgFlowDealloc:
		return &FlowDealloc{}, nil
	case MsgFlowDeallocResp:
		return &FlowDeallocResp{}, nil
	case MsgFlowStatsReq:
		return &FlowStatsReq{}, nil
	case MsgFlowStatsResp:
		return &FlowStatsResp{}, nil
	case MsgFlowCfgUpdate:
		return &FlowCfgUpdate{}, nil
	case MsgPduftSet:
		return &PduftSet{}, nil
	case MsgPduftDel:
		return &PduftDel{}, nil
	case MsgPduftFlush:
		return &PduftFlush{}, nil
	case MsgFlowFetch:
		return &FlowFetch{}, nil
	case MsgFlowFetchResp:
		return &FlowFetchResp{}, nil
	case MsgRegFetch:
		return &RegFetch{}, nil
	case MsgRegFetchResp:
		return &RegFetchResp{}, nil
	case MsgIpcpUpdate:
		return &IpcpUpdate{}, nil
	case MsgQosSupported:
		return &QosSupported{}, nil
	case MsgQosSupportedResp:
		return &QosSupportedResp{}, nil
	case MsgSchedWrr:
		return &SchedWrr{}, nil
	case MsgSchedPfifo:
		return &SchedPfifo{}, nil
	default:
		return nil, errors.New("wire: unknown message type")
	}
}

// --- variable-length string helpers (length-prefixed, uint16 length) ---

func putString(buf []byte, s string) []byte {
	lb := make([]byte, 2)
	binary.LittleEndian.PutUint16(lb, uint16(len(s)))
	buf = append(buf, lb...)
	buf = append(buf, s...)
	return buf
}

func readString(data []byte, off int) (string, int, error) {
	if off+2 > len(data) {
		return "", off, ErrShortBuffer
	}
	n := int(binary.LittleEndian.Uint16(data[off : off+2]))
	off += 2
	if off+n > len(data) {
		return "", off, ErrShortBuffer
	}
	return string(data[off : off+n]), off + n, nil
}

func putU32(buf []byte, v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return append(buf, b...)
}

func putU16(buf []byte, v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return append(buf, b...)
}

func putU64(buf []byte, v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return append(buf, b...)
}

func putU8(buf []byte, v uint8) []byte {
	return append(buf, v)
}

func readU32(data []byte, off int) (uint32, int, error) {
	if off+4 > len(data) {
		return 0, off, ErrShortBuffer
	}
	return binary.LittleEndian.Uint32(data[off : off+4]), off + 4, nil
}

func readU16(data []byte, off int) (uint16, int, error) {
	if off+2 > len(data) {
		return 0, off, ErrShortBuffer
	}
	return binary.LittleEndian.Uint16(data[off : off+2]), off + 2, nil
}

func readU64(data []byte, off int) (uint64, int, error) {
	if off+8 > len(data) {
		return 0, off, ErrShortBuffer
	}
	return binary.LittleEndian.Uint64(data[off : off+8]), off + 8, nil
}

func readU8(data []byte, off int) (uint8, int, error) {
	if off+1 > len(data) {
		return 0, off, ErrShortBuffer
	}
	return data[off], off + 1, nil
}
