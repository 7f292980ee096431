package rina

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rinacore/rinacore/internal/wire"
)

func TestNamespaceCreateIPCPAndFlowAllocation(t *testing.T) {
	ns := NewNamespace(NewTestRegistry())
	t.Cleanup(ns.Close)

	dif, err := ns.CreateDIF("test.DIF", "shim-loopback", 2048, 1000)
	require.NoError(t, err)

	_, _, err = ns.CreateIPCP("shim0", dif, "shim-loopback")
	require.NoError(t, err)

	serverDev := ns.OpenControlDevice()
	clientDev := ns.OpenControlDevice()

	regEvent := serverDev.NextEventID()
	require.NoError(t, serverDev.Write(context.Background(), wire.Encode(regEvent, &wire.ApplRegister{
		DIFName: "test.DIF", ApplName: "server", Register: true,
	})))

	buf := make([]byte, 4096)
	n, err := serverDev.Read(buf)
	require.NoError(t, err)
	_, regMsg, err := wire.Decode(buf[:n])
	require.NoError(t, err)
	require.Equal(t, wire.RespSuccess, regMsg.(*wire.ApplRegisterResp).Response)

	faEvent := clientDev.NextEventID()
	require.NoError(t, clientDev.Write(context.Background(), wire.Encode(faEvent, &wire.FaReq{
		DIFName: "test.DIF", Local: "client", Remote: "server",
	})))

	n, err = serverDev.Read(buf)
	require.NoError(t, err)
	_, arrivedMsg, err := wire.Decode(buf[:n])
	require.NoError(t, err)
	arrived := arrivedMsg.(*wire.FaReqArrived)

	respEvent := serverDev.NextEventID()
	require.NoError(t, serverDev.Write(context.Background(), wire.Encode(respEvent, &wire.FaResp{
		PortID: arrived.PortID, EventID: respEvent, Response: wire.RespSuccess,
	})))

	n, err = clientDev.Read(buf)
	require.NoError(t, err)
	_, respMsg, err := wire.Decode(buf[:n])
	require.NoError(t, err)
	require.Equal(t, wire.RespSuccess, respMsg.(*wire.FaRespArrived).Response)
}

func TestNamespaceCreateIPCPUnknownDIFType(t *testing.T) {
	ns := NewNamespace(NewTestRegistry())
	t.Cleanup(ns.Close)

	dif, err := ns.CreateDIF("test.DIF", "bogus", 2048, 1000)
	require.NoError(t, err)

	_, _, err = ns.CreateIPCP("shim0", dif, "bogus")
	require.Error(t, err)
	require.True(t, IsCode(err, KindNotFound))
}

func TestNamespaceMetricsTrackIPCPLifecycle(t *testing.T) {
	ns := NewNamespace(NewTestRegistry())
	t.Cleanup(ns.Close)

	dif, err := ns.CreateDIF("test.DIF", "shim-loopback", 2048, 1000)
	require.NoError(t, err)

	ip, _, err := ns.CreateIPCP("shim0", dif, "shim-loopback")
	require.NoError(t, err)

	snap := ns.Metrics.Snapshot()
	require.Equal(t, uint64(1), snap.IPCPCreates)

	require.NoError(t, ns.DestroyIPCP(ip))

	snap = ns.Metrics.Snapshot()
	require.Equal(t, uint64(1), snap.IPCPDestroys)
}
