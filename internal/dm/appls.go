package dm

import (
	"github.com/rinacore/rinacore/internal/errs"
	"github.com/rinacore/rinacore/internal/objects"
)

// RegisterAppl registers an application at ipcp, driving Ops.ApplRegister
// synchronously: the registering syscall is expected to wait for the
// result (spec §6 REGISTER_APPL), unlike unregistration which is
// deferred.
func (dm *DataModel) RegisterAppl(ipcp *objects.IPCP, name string, dev objects.UpqueueSink, eventID uint32) (*objects.RegisteredAppl, error) {
	a := objects.NewRegisteredAppl(name, ipcp, dev, eventID)
	if err := ipcp.AddApp(a); err != nil {
		return nil, err
	}
	if ipcp.Ops != nil {
		if err := ipcp.Ops.ApplRegister(ipcp, a, true); err != nil {
			ipcp.RemoveApp(name)
			return nil, err
		}
	}
	a.State = objects.ApplComplete
	return a, nil
}

// UnregisterAppl enqueues a for deferred teardown on the application
// removal worker, so the caller's syscall returns immediately (spec
// §4.1).
func (dm *DataModel) UnregisterAppl(a *objects.RegisteredAppl) {
	dm.apprm.enqueue(a)
}

// LookupAppl finds a registered application by IPCP and name.
func (dm *DataModel) LookupAppl(ipcp *objects.IPCP, name string) (*objects.RegisteredAppl, error) {
	a, ok := ipcp.LookupApp(name)
	if !ok {
		return nil, errs.NotFound
	}
	return a, nil
}
