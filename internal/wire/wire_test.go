package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// roundTrip asserts Marshal->Unmarshal->Marshal produces identical bytes,
// the canonical "Serialize then Deserialize" idempotence property (spec §8).
func roundTrip(t *testing.T, m Message, fresh func() Message) {
	t.Helper()
	b1 := m.Marshal()
	m2 := fresh()
	require.NoError(t, m2.Unmarshal(b1))
	b2 := m2.Marshal()
	require.Equal(t, b1, b2)
}

func TestRoundTripAllMessages(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
		new  func() Message
	}{
		{"IpcpCreate", &IpcpCreate{Name: "nx", DIFName: "d1", DIFType: "normal"}, func() Message { return &IpcpCreate{} }},
		{"IpcpCreateResp", &IpcpCreateResp{IpcpID: 7}, func() Message { return &IpcpCreateResp{} }},
		{"IpcpDestroy", &IpcpDestroy{IpcpID: 3}, func() Message { return &IpcpDestroy{} }},
		{"IpcpConfig", &IpcpConfig{IpcpID: 1, Address: 42, MaxSDU: 1500, Key: "k", Value: "v"}, func() Message { return &IpcpConfig{} }},
		{"ApplRegister", &ApplRegister{DIFName: "d1", ApplName: "alice", Register: true}, func() Message { return &ApplRegister{} }},
		{"ApplRegisterResp", &ApplRegisterResp{Response: RespSuccess}, func() Message { return &ApplRegisterResp{} }},
		{"FaReq", &FaReq{DIFName: "d1", Local: "alice", Remote: "bob", QosID: 0}, func() Message { return &FaReq{} }},
		{"FaReqArrived", &FaReqArrived{PortID: 5, ApplName: "bob", DIFName: "d1"}, func() Message { return &FaReqArrived{} }},
		{"FaResp", &FaResp{PortID: 5, EventID: 9, Response: RespSuccess}, func() Message { return &FaResp{} }},
		{"FaRespArrived", &FaRespArrived{PortID: 5, Response: RespSuccess, RemotePort: 6, RemoteAddr: 42}, func() Message { return &FaRespArrived{} }},
		{"FlowDealloc", &FlowDealloc{PortID: 5, UID: 99}, func() Message { return &FlowDealloc{} }},
		{"PduftSet", &PduftSet{IpcpID: 1, Addr: 42, PortID: 7}, func() Message { return &PduftSet{} }},
		{"PduftDel", &PduftDel{IpcpID: 1, Addr: 42}, func() Message { return &PduftDel{} }},
		{"FlowFetchResp", &FlowFetchResp{LocalPort: 1, RemotePort: 2, RemoteAddr: 42}, func() Message { return &FlowFetchResp{} }},
		{"RegFetchResp", &RegFetchResp{ApplName: "alice", Pending: false}, func() Message { return &RegFetchResp{} }},
		{"IpcpUpdate", &IpcpUpdate{Kind: UpdateAdd, IpcpID: 0, DIFName: "d1", DIFType: "normal"}, func() Message { return &IpcpUpdate{} }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			roundTrip(t, c.msg, c.new)
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	msg := &IpcpCreate{Name: "nx", DIFName: "d1", DIFType: "normal"}
	buf := Encode(42, msg)

	h, decoded, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, uint32(42), h.EventID)
	require.Equal(t, MsgIpcpCreate, h.MsgType)

	got, ok := decoded.(*IpcpCreate)
	require.True(t, ok)
	require.Equal(t, msg, got)
}

func TestDecodeShortBuffer(t *testing.T) {
	_, _, err := Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestPCIRoundTrip(t *testing.T) {
	p := PCI{
		DstAddr: 1, SrcAddr: 2, QosID: 0,
		DstCEP: 10, SrcCEP: 20,
		PduType: PduTypeDT, Flags: FlagDRF, SeqNum: 123,
	}
	buf := p.Marshal()
	got, err := UnmarshalPCI(buf)
	require.NoError(t, err)
	require.Equal(t, p, got)
	require.True(t, got.DRF())
}

func TestFCPduRoundTrip(t *testing.T) {
	fc := FCPdu{
		LastCtrlSeqNumRcvd: 7,
		NewRWE:             256,
		NewLWE:             100,
		MyRWE:              512,
		MyLWE:              200,
	}
	buf := fc.Marshal()
	require.Len(t, buf, FCPduSize)
	got, err := UnmarshalFCPdu(buf)
	require.NoError(t, err)
	require.Equal(t, fc, got)
}
