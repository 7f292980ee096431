package objects

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIPCPShortcutWeakPointer(t *testing.T) {
	dif := NewDIF("n.DIF", "normal", 8192, 60000)
	ip := NewIPCP(1, "test-ipcp", dif, nil, nil)

	_, ok := ip.Shortcut()
	require.False(t, ok)

	ip.SetShortcut(7, true)
	id, ok := ip.Shortcut()
	require.True(t, ok)
	require.Equal(t, uint16(7), id)

	ip.SetShortcut(0, false)
	_, ok = ip.Shortcut()
	require.False(t, ok)
}

func TestIPCPZombieBlocksButDoesNotPanic(t *testing.T) {
	dif := NewDIF("n.DIF", "normal", 8192, 60000)
	ip := NewIPCP(1, "test-ipcp", dif, nil, nil)
	require.False(t, ip.Zombie())
	ip.MarkZombie()
	require.True(t, ip.Zombie())
}

func TestIPCPAppRegistrationRejectsDuplicate(t *testing.T) {
	dif := NewDIF("n.DIF", "normal", 8192, 60000)
	ip := NewIPCP(1, "test-ipcp", dif, nil, nil)

	a := NewRegisteredAppl("app1", ip, nil, 0)
	require.NoError(t, ip.AddApp(a))
	require.Error(t, ip.AddApp(a))

	got, ok := ip.LookupApp("app1")
	require.True(t, ok)
	require.Same(t, a, got)

	stolen := ip.StealApps()
	require.Len(t, stolen, 1)
	_, ok = ip.LookupApp("app1")
	require.False(t, ok)
}

func TestFlowUpperBindingMutualExclusion(t *testing.T) {
	dif := NewDIF("n.DIF", "normal", 8192, 60000)
	ip := NewIPCP(1, "lower-ipcp", dif, nil, nil)
	f := NewFlow(100, ip, 1)

	require.True(t, f.HasFlag(FlagPending))

	upper := NewIPCP(2, "upper-ipcp", dif, nil, nil)
	require.NoError(t, f.BindUpperIPCP(upper))
	require.Error(t, f.BindDevice(nil))

	gotIPCP, gotDev := f.Upper()
	require.Same(t, upper, gotIPCP)
	require.Nil(t, gotDev)

	f.Unbind()
	gotIPCP, gotDev = f.Upper()
	require.Nil(t, gotIPCP)
	require.Nil(t, gotDev)
}

func TestRefCountZeroTransition(t *testing.T) {
	var rc RefCount
	rc.Init(1)
	require.Equal(t, int32(2), rc.Get())
	require.Equal(t, int32(1), rc.Put())
	require.Equal(t, int32(0), rc.Put())
	rc.Reset(1)
	require.Equal(t, int32(1), rc.Load())
}

func TestFactoryRegistry(t *testing.T) {
	reg := NewRegistry()
	require.Nil(t, reg.Lookup("normal"))

	reg.Register(&Factory{DIFType: "normal", New: func() IPCPOps { return nil }})
	f := reg.Lookup("normal")
	require.NotNil(t, f)
	require.Equal(t, "normal", f.DIFType)

	reg.Unregister("normal")
	require.Nil(t, reg.Lookup("normal"))
}
