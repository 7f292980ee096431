package objects

import (
	"sync"

	"github.com/rinacore/rinacore/internal/errs"
)

// IPCP is one member of one DIF (spec §3 IPCP).
type IPCP struct {
	ID      uint16
	Name    string
	DIF     *DIF
	Ops     IPCPOps
	Factory *Factory

	// mu guards every field below, per spec §5's "their mutable fields
	// (uipcp, shortcut, shortcut_flows, config parameters) are guarded
	// by the per-IPCP mutex."
	mu sync.Mutex

	Address      uint64
	HeadRoom     uint32
	TailRoom     uint32
	MaxSDU       uint32
	Config       map[string]string
	registeredApps map[string]*RegisteredAppl

	// Uipcp is the control device acting as this IPCP's user-space peer.
	Uipcp UpqueueSink

	// shortcutID/shortcutValid hold a *weak* reference to the single
	// upper IPCP bound to this one (spec §9: "IPCP's shortcut is a weak
	// pointer (lookup via id, re-validated under the per-IPCP mutex)").
	// ShortcutFlows counts bound upper flows, not ownership.
	shortcutID    uint16
	shortcutValid bool
	ShortcutFlows int

	zombie bool

	refcount RefCount
}

// NewIPCP constructs an IPCP with an initial refcount of 1.
func NewIPCP(id uint16, name string, dif *DIF, ops IPCPOps, factory *Factory) *IPCP {
	ip := &IPCP{
		ID:             id,
		Name:           name,
		DIF:            dif,
		Ops:            ops,
		Factory:        factory,
		Config:         make(map[string]string),
		registeredApps: make(map[string]*RegisteredAppl),
	}
	ip.refcount.Init(1)
	return ip
}

func (ip *IPCP) Get() int32 { return ip.refcount.Get() }
func (ip *IPCP) Put() int32 { return ip.refcount.Put() }
func (ip *IPCP) Refs() int32 { return ip.refcount.Load() }

// Zombie reports whether this IPCP is being torn down: it must refuse
// new flows and new PDUFT entries (spec §3, §8).
func (ip *IPCP) Zombie() bool {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	return ip.zombie
}

// MarkZombie flips the zombie flag. Called exactly once, at the start
// of ipcp-destroy, before applications are stolen and I/O flows shut
// down (spec §3 IPCP lifecycle).
func (ip *IPCP) MarkZombie() {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.zombie = true
}

// SetUipcp attaches (or detaches, with nil) the user-space peer.
func (ip *IPCP) SetUipcp(dev UpqueueSink) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.Uipcp = dev
}

func (ip *IPCP) GetUipcp() UpqueueSink {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	return ip.Uipcp
}

// SetShortcut records the weak back-pointer to the single upper IPCP
// bound on top of this one. Passing ok=false invalidates it (spec §9:
// "invalidated as soon as a second upper appears").
func (ip *IPCP) SetShortcut(upperID uint16, ok bool) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.shortcutValid = ok
	if ok {
		ip.shortcutID = upperID
	}
}

// Shortcut returns the weak upper-IPCP id and whether it is currently valid.
// The caller must re-resolve this id through the IPCP table before use —
// this method never returns a strong pointer.
func (ip *IPCP) Shortcut() (id uint16, ok bool) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	return ip.shortcutID, ip.shortcutValid
}

func (ip *IPCP) IncShortcutFlows() {
	ip.mu.Lock()
	ip.ShortcutFlows++
	ip.mu.Unlock()
}

func (ip *IPCP) DecShortcutFlows() {
	ip.mu.Lock()
	if ip.ShortcutFlows > 0 {
		ip.ShortcutFlows--
	}
	ip.mu.Unlock()
}

// SetConfig stores one config key/value (spec §6 ipcp config).
func (ip *IPCP) SetConfig(key, value string) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	ip.Config[key] = value
}

func (ip *IPCP) GetConfig(key string) (string, bool) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	v, ok := ip.Config[key]
	return v, ok
}

// AddApp registers an application under its name. Returns errs.Busy if
// already registered.
func (ip *IPCP) AddApp(a *RegisteredAppl) error {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	if _, exists := ip.registeredApps[a.Name]; exists {
		return errs.Busy
	}
	ip.registeredApps[a.Name] = a
	return nil
}

func (ip *IPCP) RemoveApp(name string) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	delete(ip.registeredApps, name)
}

// AppNames returns a snapshot of every currently registered application
// name, used by the RegFetch enumeration handler.
func (ip *IPCP) AppNames() []string {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	out := make([]string, 0, len(ip.registeredApps))
	for name := range ip.registeredApps {
		out = append(out, name)
	}
	return out
}

func (ip *IPCP) LookupApp(name string) (*RegisteredAppl, bool) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	a, ok := ip.registeredApps[name]
	return a, ok
}

// StealApps empties the registered-application list and returns it,
// used during ipcp-destroy ("its applications stolen and torn down").
func (ip *IPCP) StealApps() []*RegisteredAppl {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	out := make([]*RegisteredAppl, 0, len(ip.registeredApps))
	for _, a := range ip.registeredApps {
		out = append(out, a)
	}
	ip.registeredApps = make(map[string]*RegisteredAppl)
	return out
}
