package rina

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rinacore/rinacore/internal/objects"
)

func TestNewTestDataModelAndIPCP(t *testing.T) {
	dataModel, dif := NewTestDataModel()
	t.Cleanup(dataModel.Close)

	ip, ops, err := NewTestIPCP(dataModel, dif, "ipcp0")
	require.NoError(t, err)
	require.NotNil(t, ops)
	require.Equal(t, "ipcp0", ip.Name)
	require.Same(t, dif, ip.DIF)
}

func TestNewTestRegistryHasShimLoopback(t *testing.T) {
	reg := NewTestRegistry()
	f := reg.Lookup("shim-loopback")
	require.NotNil(t, f)
	require.NotNil(t, f.New())
}

func TestFakeClockPutQueueExpiry(t *testing.T) {
	dataModel, dif := NewTestDataModel()
	t.Cleanup(dataModel.Close)

	ip, _, err := NewTestIPCP(dataModel, dif, "ipcp0")
	require.NoError(t, err)

	clock := NewFakeClock(time.Now().UnixNano())
	restore := clock.Install()
	defer restore()

	flow, err := dataModel.AllocatePort(ip)
	require.NoError(t, err)
	flow.SetFlag(objects.FlagAllocated)

	dataModel.DeferRemoval(flow, 4*time.Second)

	_, ok := dataModel.LookupFlowByPort(flow.LocalPortID)
	require.True(t, ok, "flow should still be resolvable during its grace period")

	clock.Advance((4 * time.Second).Nanoseconds())
	dataModel.ForceExpirePutQueue()

	require.Eventually(t, func() bool {
		_, ok := dataModel.LookupFlowByPort(flow.LocalPortID)
		return !ok
	}, time.Second, time.Millisecond, "flow should be detached once its grace period elapses")
}
