package pduft

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rinacore/rinacore/internal/objects"
)

func TestSetLookupDel(t *testing.T) {
	dif := objects.NewDIF("n.DIF", "normal", 8192, 60000)
	ipcp := objects.NewIPCP(1, "ipcp1", dif, nil, nil)
	tbl := New(ipcp)

	flow := objects.NewFlow(1, ipcp, 1)
	require.NoError(t, flow.BindUpperIPCP(ipcp))
	require.NoError(t, tbl.Set(0xABCD, flow))

	got, ok := tbl.Lookup(0xABCD)
	require.True(t, ok)
	require.Same(t, flow, got)

	tbl.Del(0xABCD)
	_, ok = tbl.Lookup(0xABCD)
	require.False(t, ok)
}

func TestSetRejectedOnZombieIPCP(t *testing.T) {
	dif := objects.NewDIF("n.DIF", "normal", 8192, 60000)
	ipcp := objects.NewIPCP(1, "ipcp1", dif, nil, nil)
	tbl := New(ipcp)
	ipcp.MarkZombie()

	flow := objects.NewFlow(1, ipcp, 1)
	require.Error(t, tbl.Set(1, flow))
}

func TestSetRejectedOnMismatchedUpperIPCP(t *testing.T) {
	dif := objects.NewDIF("n.DIF", "normal", 8192, 60000)
	ipcp := objects.NewIPCP(1, "ipcp1", dif, nil, nil)
	other := objects.NewIPCP(2, "ipcp2", dif, nil, nil)
	tbl := New(ipcp)

	flow := objects.NewFlow(1, ipcp, 1)
	require.NoError(t, flow.BindUpperIPCP(other))
	require.Error(t, tbl.Set(1, flow))
}

func TestFlushByFlowOnlyRemovesMatchingEntries(t *testing.T) {
	dif := objects.NewDIF("n.DIF", "normal", 8192, 60000)
	ipcp := objects.NewIPCP(1, "ipcp1", dif, nil, nil)
	tbl := New(ipcp)

	f1 := objects.NewFlow(1, ipcp, 1)
	f2 := objects.NewFlow(2, ipcp, 2)
	require.NoError(t, f1.BindUpperIPCP(ipcp))
	require.NoError(t, f2.BindUpperIPCP(ipcp))
	require.NoError(t, tbl.Set(1, f1))
	require.NoError(t, tbl.Set(2, f2))

	tbl.FlushByFlow(f1)
	_, ok := tbl.Lookup(1)
	require.False(t, ok)
	_, ok = tbl.Lookup(2)
	require.True(t, ok)
}
