package shimloopback

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rinacore/rinacore/internal/objects"
)

type captureSink struct {
	got []byte
}

func (c *captureSink) Append(data []byte, maysleep bool) error {
	c.got = append(c.got[:0], data...)
	return nil
}

func TestFlowAllocateReqPairsFlowsFIFO(t *testing.T) {
	ops := New()
	dif := objects.NewDIF("shim.DIF", "shim-loopback", 2048, 1000)
	ipcp := objects.NewIPCP(1, "shim0", dif, ops, nil)

	f1 := objects.NewFlow(1, ipcp, 1)
	f2 := objects.NewFlow(2, ipcp, 2)

	sinkA := &captureSink{}
	require.NoError(t, f1.BindDevice(sinkA))

	require.NoError(t, ops.FlowAllocateReq(ipcp, f1, "shim.DIF", "a", "b"))
	require.NoError(t, ops.FlowAllocateReq(ipcp, f2, "shim.DIF", "b", "a"))

	require.NoError(t, ops.SDUWrite(ipcp, f2, []byte("payload")))
	require.Equal(t, "payload", string(sinkA.got))
}

func TestFlowDeallocatedUnpairs(t *testing.T) {
	ops := New()
	dif := objects.NewDIF("shim.DIF", "shim-loopback", 2048, 1000)
	ipcp := objects.NewIPCP(1, "shim0", dif, ops, nil)
	f1 := objects.NewFlow(1, ipcp, 1)
	f2 := objects.NewFlow(2, ipcp, 2)

	require.NoError(t, ops.FlowAllocateReq(ipcp, f1, "shim.DIF", "a", "b"))
	require.NoError(t, ops.FlowAllocateReq(ipcp, f2, "shim.DIF", "b", "a"))
	require.NoError(t, ops.FlowDeallocated(ipcp, f1))

	err := ops.SDUWrite(ipcp, f2, []byte("x"))
	require.Error(t, err)
}
