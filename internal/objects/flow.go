package objects

import (
	"sync"

	"github.com/rinacore/rinacore/internal/errs"
)

// DTPState is the minimal surface of internal/dtp.State that the object
// graph needs to hold a pointer to it. Kept as an interface, for the
// same reason as UpqueueSink: internal/dtp will need *Flow, so *Flow
// cannot import internal/dtp.
type DTPState interface {
	Close()
}

// upperBinding is a Flow's upper binding: exactly one of an upper IPCP
// (a Flow one layer down in a recursive stack) or a control-device
// application (spec §3: "upper binding is a tagged union, an upper
// IPCP XOR a control-device application; never both").
type upperBinding struct {
	upperIPCP *IPCP
	device    UpqueueSink
}

// Flow is one instance of communication between two application
// processes, or between two IPCPs in an N-1 DIF (spec §3 Flow).
type Flow struct {
	LocalPortID  uint32
	LocalCEPID   uint16
	RemotePortID uint32
	RemoteCEPID  uint16
	RemoteAddr   uint64

	// LowerIPCP is the IPCP this flow belongs to (txrx.ipcp in spec
	// terms): a strong reference, since a Flow cannot outlive its IPCP.
	LowerIPCP *IPCP

	QosID      uint8
	FlowSpec   map[string]string
	MaxCWQLen  uint32
	MaxRTXQLen uint32

	DTP DTPState

	UID     uint64
	Expires int64 // tick at which the grace period elapses; 0 = none

	mu      sync.Mutex
	flags   FlowFlag
	upper   upperBinding

	refcount RefCount
}

// NewFlow constructs a Flow with an initial refcount of 1 and
// FlagPending set (spec §3: a Flow starts PENDING until the four-step
// allocation handshake completes).
func NewFlow(localPort uint32, lowerIPCP *IPCP, uid uint64) *Flow {
	f := &Flow{
		LocalPortID: localPort,
		LowerIPCP:   lowerIPCP,
		UID:         uid,
		FlowSpec:    make(map[string]string),
		flags:       FlagPending,
	}
	f.refcount.Init(1)
	return f
}

func (f *Flow) Get() int32  { return f.refcount.Get() }
func (f *Flow) Put() int32  { return f.refcount.Put() }
func (f *Flow) Refs() int32 { return f.refcount.Load() }

// ResetLease re-arms the refcount to 1 for the post-deallocation grace
// period the put-queue grants an ALLOCATED flow (spec §4.3).
func (f *Flow) ResetLease() { f.refcount.Reset(1) }

func (f *Flow) Flags() FlowFlag {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flags
}

func (f *Flow) SetFlag(bit FlowFlag) {
	f.mu.Lock()
	f.flags |= bit
	f.mu.Unlock()
}

func (f *Flow) ClearFlag(bit FlowFlag) {
	f.mu.Lock()
	f.flags &^= bit
	f.mu.Unlock()
}

func (f *Flow) HasFlag(bit FlowFlag) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flags&bit != 0
}

// BindUpperIPCP sets the upper binding to another IPCP. Returns
// errs.Busy if a device binding is already present (the two are
// mutually exclusive).
func (f *Flow) BindUpperIPCP(ipcp *IPCP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upper.device != nil {
		return errs.Busy
	}
	f.upper.upperIPCP = ipcp
	return nil
}

// BindDevice sets the upper binding to a control-device application.
func (f *Flow) BindDevice(dev UpqueueSink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upper.upperIPCP != nil {
		return errs.Busy
	}
	f.upper.device = dev
	return nil
}

// Upper returns the current upper binding: exactly one of the two
// return values is non-nil, unless the flow has never been bound
// (FlagNeverBound), in which case both are nil.
func (f *Flow) Upper() (ipcp *IPCP, dev UpqueueSink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upper.upperIPCP, f.upper.device
}

// Unbind clears whichever upper binding is set, e.g. when the bound
// application or upper IPCP is going away.
func (f *Flow) Unbind() {
	f.mu.Lock()
	f.upper = upperBinding{}
	f.mu.Unlock()
}
