package rina

import (
	"sync"

	"github.com/rinacore/rinacore/internal/dm"
	"github.com/rinacore/rinacore/internal/objects"
	"github.com/rinacore/rinacore/internal/shimloopback"
)

// FakeClock is a manually-advanced clock for deterministic put-queue
// tests, used in place of wall-clock time.Now(). Now and Advance are
// safe for concurrent use; Install replaces the dm package's single
// process-wide clock, so tests that install a FakeClock must not run
// in parallel with each other.
type FakeClock struct {
	mu  sync.Mutex
	now int64 // UnixNano
}

// NewFakeClock creates a FakeClock starting at the given UnixNano time.
func NewFakeClock(startNano int64) *FakeClock {
	return &FakeClock{now: startNano}
}

// Now returns the current fake time, in UnixNano, satisfying the shape
// dm.SetClock expects.
func (c *FakeClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the fake clock forward by d nanoseconds.
func (c *FakeClock) Advance(d int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}

// Install overrides the DataModel package's clock with this FakeClock
// and returns a func restoring the real wall clock.
func (c *FakeClock) Install() (restore func()) {
	return dm.SetClock(c.Now)
}

// NewTestDataModel constructs a fresh in-memory DataModel with a
// "test.DIF" DIF already created over a shim-loopback plug-in, ready
// for app registration and flow allocation in tests. Callers must call
// the returned DataModel's Close when done.
func NewTestDataModel() (*dm.DataModel, *objects.DIF) {
	dataModel := dm.New()
	dif, err := dataModel.CreateDIF("test.DIF", "shim-loopback", 2048, 1000)
	if err != nil {
		panic(err) // test-setup invariant: a fresh DataModel always has room for one DIF
	}
	return dataModel, dif
}

// NewTestIPCP creates and starts a shim-loopback-backed IPCP named
// name joined to dif, ready to register apps and allocate flows.
func NewTestIPCP(dataModel *dm.DataModel, dif *objects.DIF, name string) (*objects.IPCP, *shimloopback.Ops, error) {
	ops := shimloopback.New()
	ip, err := dataModel.CreateIPCP(name, dif, ops, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := ops.Create(ip, nil); err != nil {
		return nil, nil, err
	}
	return ip, ops, nil
}

// NewTestRegistry builds an objects.Registry with the shim-loopback
// factory registered under "shim-loopback", the only IPCPOps
// implementation this core ships for tests and demos.
func NewTestRegistry() *objects.Registry {
	reg := objects.NewRegistry()
	reg.Register(&objects.Factory{
		DIFType: "shim-loopback",
		New:     func() objects.IPCPOps { return shimloopback.New() },
	})
	return reg
}
