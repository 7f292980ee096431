package dtp

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rinacore/rinacore/internal/wire"
)

type recordingSender struct {
	mu   sync.Mutex
	pdus []wire.PCI
	sdus [][]byte
}

func (r *recordingSender) SendPDU(pci wire.PCI, sdu []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pdus = append(r.pdus, pci)
	cp := make([]byte, len(sdu))
	copy(cp, sdu)
	r.sdus = append(r.sdus, cp)
	return nil
}

type recordingDeliverer struct {
	mu    sync.Mutex
	delivered [][]byte
}

func (r *recordingDeliverer) DeliverSDU(sdu []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]byte, len(sdu))
	copy(cp, sdu)
	r.delivered = append(r.delivered, cp)
	return nil
}

func newTestState() (*State, *recordingSender, *recordingDeliverer) {
	snd := &recordingSender{}
	del := &recordingDeliverer{}
	st := New(Config{DstAddr: 2, SrcAddr: 1, DstCEP: 20, SrcCEP: 10}, snd, del)
	return st, snd, del
}

func TestSendFirstPDUSetsDRF(t *testing.T) {
	st, snd, _ := newTestState()
	require.NoError(t, st.Send([]byte("hello")))
	require.Len(t, snd.pdus, 1)
	require.True(t, snd.pdus[0].DRF())
	require.Equal(t, uint64(0), snd.pdus[0].SeqNum)

	require.NoError(t, st.Send([]byte("world")))
	require.False(t, snd.pdus[1].DRF())
	require.Equal(t, uint64(1), snd.pdus[1].SeqNum)
}

func TestReceiveDRFResetsReceiver(t *testing.T) {
	st, _, del := newTestState()
	pci := wire.PCI{SeqNum: 5, Flags: wire.FlagDRF}
	require.NoError(t, st.Receive(pci, []byte("a")))
	next, rcvLWE := st.Snapshot()
	_ = next
	require.Equal(t, uint64(6), rcvLWE)
	require.Len(t, del.delivered, 1)
}

func TestReceiveDuplicateDropped(t *testing.T) {
	st, _, del := newTestState()
	require.NoError(t, st.Receive(wire.PCI{SeqNum: 5, Flags: wire.FlagDRF}, []byte("a")))
	require.NoError(t, st.Receive(wire.PCI{SeqNum: 5}, []byte("dup")))
	require.Len(t, del.delivered, 1)
}

func TestReceiveInOrderAdvancesMaxSeqNumRcvd(t *testing.T) {
	st, _, del := newTestState()
	require.NoError(t, st.Receive(wire.PCI{SeqNum: 5, Flags: wire.FlagDRF}, []byte("a")))
	require.NoError(t, st.Receive(wire.PCI{SeqNum: 6}, []byte("b")))
	require.Len(t, del.delivered, 2)
	require.Equal(t, uint64(6), st.maxSeqNumRcvd)
}

func TestSendWindowedQueuesOnCWQWhenClosed(t *testing.T) {
	snd := &recordingSender{}
	del := &recordingDeliverer{}
	st := New(Config{Windowed: true}, snd, del)
	st.sndRWE = 0 // window admits only seqnum 0

	require.NoError(t, st.Send([]byte("first"))) // seqnum 0, admitted
	require.NoError(t, st.Send([]byte("blocked"))) // seqnum 1, window closed
	require.Equal(t, 1, st.CWQLen())
	require.Len(t, snd.pdus, 1)

	require.NoError(t, st.OpenWindow(5))
	require.Equal(t, 0, st.CWQLen())
	require.Len(t, snd.pdus, 2)
}

func TestCloseReleasesQueuedBuffers(t *testing.T) {
	st, _, _ := newTestState()
	st.cfg.Windowed = true
	st.sndRWE = 0
	require.NoError(t, st.Send([]byte("admitted")))
	require.NoError(t, st.Send([]byte("x")))
	require.Equal(t, 1, st.CWQLen())
	st.Close()
	require.Equal(t, 0, st.CWQLen())
}

func TestReceiveEmitsFCPduWhenRxFlowControlEnabled(t *testing.T) {
	snd := &recordingSender{}
	del := &recordingDeliverer{}
	st := New(Config{RxFlowControl: true}, snd, del)

	require.NoError(t, st.Receive(wire.PCI{SeqNum: 0, Flags: wire.FlagDRF}, []byte("a")))
	require.Len(t, del.delivered, 1)
	require.Len(t, snd.pdus, 1)
	require.Equal(t, wire.PduTypeFC, snd.pdus[0].PduType)
	require.Equal(t, uint64(1), snd.pdus[0].SeqNum)

	fc, err := wire.UnmarshalFCPdu(snd.sdus[0])
	require.NoError(t, err)
	require.Equal(t, st.rcvLWE, fc.NewLWE)
	require.Equal(t, st.rcvRWE, fc.NewRWE)
}

func TestReceiveDoesNotEmitFCPduWithRetransmissionControl(t *testing.T) {
	snd := &recordingSender{}
	del := &recordingDeliverer{}
	st := New(Config{RxFlowControl: true, RetransmissionControl: true}, snd, del)

	require.NoError(t, st.Receive(wire.PCI{SeqNum: 0, Flags: wire.FlagDRF}, []byte("a")))
	require.Len(t, snd.pdus, 0)
}

func TestReceiveFCPduOpensSendWindow(t *testing.T) {
	snd := &recordingSender{}
	del := &recordingDeliverer{}
	st := New(Config{Windowed: true}, snd, del)
	st.sndRWE = 0

	require.NoError(t, st.Send([]byte("admitted")))
	require.NoError(t, st.Send([]byte("blocked")))
	require.Equal(t, 1, st.CWQLen())

	fc := wire.FCPdu{NewRWE: 5, NewLWE: 0}
	require.NoError(t, st.Receive(wire.PCI{PduType: wire.PduTypeFC, SeqNum: 9}, fc.Marshal()))

	require.Equal(t, 0, st.CWQLen())
	require.Equal(t, uint64(9), st.lastCtrlSeqNumRcvd)
}
