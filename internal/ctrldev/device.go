// Package ctrldev implements the control device (spec §4.4): the
// open/close/read/write/poll/ioctl surface applications use to talk to
// the RINA core, backed by a byte-budgeted upqueue and a small staging
// buffer for write-path deserialization. It is grounded in the
// teacher's /dev/ublk-control file-descriptor abstraction
// (internal/ctrl.Controller), generalized from a single ioctl-driven
// control plane to a bidirectional message queue.
package ctrldev

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/rinacore/rinacore/internal/constants"
	"github.com/rinacore/rinacore/internal/errs"
	"github.com/rinacore/rinacore/internal/logging"
	"github.com/rinacore/rinacore/internal/objects"
	"github.com/rinacore/rinacore/internal/wire"
)

// RequestHandler processes one decoded request and returns the
// response message to enqueue on the caller's upqueue, or nil if no
// synchronous response is produced (e.g. the four-step flow-allocation
// handshake, which replies asynchronously).
type RequestHandler interface {
	Handle(ctx context.Context, dev *ControlDevice, eventID uint32, msg wire.Message) (wire.Message, error)
}

// ControlDevice is one open file descriptor onto the RINA core.
// Concurrency model, per spec §4.4: Append (the upqueue producer side)
// is called from arbitrary contexts, including soft-irq-equivalent
// receive paths, so it never sleeps more than UpqueueAppendTimeout.
// Read/Write/Poll/Ioctl are process-context only.
type ControlDevice struct {
	id      uint32
	handler RequestHandler
	log     *logging.Logger

	mu     sync.Mutex
	notify chan struct{} // closed and replaced on every state change
	closed bool
	budget int // bytes currently queued
	queue  [][]byte

	staging []byte // write-path partial-message buffer

	eventCounter uint32

	flowCursor uint16
	regCursor  uint16

	privileged bool
}

// New constructs a ControlDevice bound to handler. id is a caller-chosen
// identifier used only for logging.
func New(id uint32, handler RequestHandler) *ControlDevice {
	d := &ControlDevice{
		id:      id,
		handler: handler,
		log:     logging.Default().WithDevice(id),
		staging: make([]byte, 0, constants.StagingBufferSize),
		notify:  make(chan struct{}),
	}
	return d
}

// SetPrivileged grants or revokes this device's administrative
// capability (spec §4.4: privileged operations like IPCP create/
// destroy, flow dealloc, and PDUFT administration require it). A
// freshly opened device starts unprivileged; the embedder decides
// whether the caller that opened it should be granted the capability.
func (d *ControlDevice) SetPrivileged(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.privileged = v
}

// Privileged reports whether this device holds the administrative
// capability.
func (d *ControlDevice) Privileged() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.privileged
}

// wake must be called with mu held; it releases every goroutine
// currently blocked in waitLocked and arms a fresh channel for the
// next wait.
func (d *ControlDevice) wake() {
	close(d.notify)
	d.notify = make(chan struct{})
}

// waitLocked blocks until the next wake() or until deadline elapses
// (a zero deadline means wait forever). Must be called with mu held;
// it releases mu while waiting and re-acquires it before returning.
func (d *ControlDevice) waitLocked(deadline time.Time) {
	ch := d.notify
	d.mu.Unlock()
	if deadline.IsZero() {
		<-ch
	} else {
		select {
		case <-ch:
		case <-time.After(time.Until(deadline)):
		}
	}
	d.mu.Lock()
}

// Append enqueues a serialized message onto the upqueue (spec §4.4:
// "bounded to UpqueueByteBudget; a producer that would exceed the
// budget blocks for up to UpqueueAppendTimeout, then drops"). maysleep
// lets soft-irq-equivalent callers opt out of blocking entirely.
func (d *ControlDevice) Append(data []byte, maysleep bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return errs.BadFd
	}

	if d.budget+len(data) > constants.UpqueueByteBudget {
		if !maysleep {
			return errs.NoSpace
		}
		deadline := time.Now().Add(constants.UpqueueAppendTimeout)
		for d.budget+len(data) > constants.UpqueueByteBudget && !d.closed && time.Now().Before(deadline) {
			d.waitLocked(deadline)
		}
		if d.closed {
			return errs.BadFd
		}
		if d.budget+len(data) > constants.UpqueueByteBudget {
			return errs.NoSpace
		}
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	d.queue = append(d.queue, buf)
	d.budget += len(buf)
	d.wake()
	return nil
}

// Read pops and returns the oldest queued message. If buf is too small
// to hold it, the message is retained at the head of the queue and
// errs.NoSpace is returned (the caller is expected to retry with a
// larger buffer, matching a stream-socket MSG_PEEK-free short-read
// convention).
func (d *ControlDevice) Read(buf []byte) (int, error) {
	return d.read(buf, time.Time{})
}

// ReadTimeout is Read bounded by a deadline, used by Poll-driven
// callers that don't want to block forever.
func (d *ControlDevice) ReadTimeout(buf []byte, timeout time.Duration) (int, error) {
	return d.read(buf, time.Now().Add(timeout))
}

func (d *ControlDevice) read(buf []byte, deadline time.Time) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for len(d.queue) == 0 && !d.closed {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return 0, errs.Interrupted
		}
		d.waitLocked(deadline)
	}
	if d.closed && len(d.queue) == 0 {
		return 0, errs.BadFd
	}
	if len(d.queue) == 0 {
		return 0, errs.Interrupted
	}

	msg := d.queue[0]
	if len(msg) > len(buf) {
		return 0, errs.NoSpace
	}
	d.queue = d.queue[1:]
	d.budget -= len(msg)
	d.wake()
	return copy(buf, msg), nil
}

// Write deserializes one framed request from data (which may include
// a partially-received tail carried over in the staging buffer),
// dispatches it to the handler, and appends any synchronous response
// to the upqueue under the caller's eventID.
func (d *ControlDevice) Write(ctx context.Context, data []byte) error {
	d.mu.Lock()
	d.staging = append(d.staging, data...)
	if len(d.staging) > constants.StagingBufferSize {
		d.staging = d.staging[:0]
		d.mu.Unlock()
		return errs.InvalidArg
	}
	buf := d.staging
	d.mu.Unlock()

	hdr, msg, err := wire.Decode(buf)
	if err != nil {
		return errs.InvalidArg
	}

	d.mu.Lock()
	d.staging = d.staging[:0]
	d.mu.Unlock()

	resp, err := d.handler.Handle(ctx, d, hdr.EventID, msg)
	if err != nil {
		return err
	}
	if resp != nil {
		return d.Append(wire.Encode(hdr.EventID, resp), true)
	}
	return nil
}

// PollMask bits, matching unix.POLLIN / unix.POLLOUT.
const (
	PollIn  = unix.POLLIN
	PollOut = unix.POLLOUT
)

// Poll reports readiness: POLLIN when the upqueue is non-empty,
// POLLOUT always. Back-pressure is not reported here: it is applied
// inside Append, so a Write whose reply does not fit the upqueue can
// still wait and then fail with NoSpace.
func (d *ControlDevice) Poll() int16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	var mask int16 = PollOut
	if len(d.queue) > 0 {
		mask |= PollIn
	}
	return mask
}

// ChangeFlags is the Ioctl command for SUBSCRIBE_IPCPS (spec §4.4).
type ChangeFlags struct {
	Subscribe bool
}

// Subscriptions is the slice of DataModel that Ioctl needs: a place to
// register or deregister this device as an IPCP-update listener.
type Subscriptions interface {
	Subscribe(sink objects.UpqueueSink)
	Unsubscribe(sink objects.UpqueueSink)
}

// Ioctl applies a device-level configuration change: today, only
// IPCP-update subscription toggling (spec §4.4 SUBSCRIBE_IPCPS).
func (d *ControlDevice) Ioctl(cmd ChangeFlags, subs Subscriptions) {
	if cmd.Subscribe {
		subs.Subscribe(d)
	} else {
		subs.Unsubscribe(d)
	}
}

// NextEventID returns a monotonically increasing event id this device
// can tag an outbound request with, so its response can be matched up
// on Read.
func (d *ControlDevice) NextEventID() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.eventCounter++
	return d.eventCounter
}

// Close marks the device closed and wakes any blocked Read/Append.
func (d *ControlDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.wake()
	return nil
}

// ID returns the device's caller-assigned identifier.
func (d *ControlDevice) ID() uint32 { return d.id }

// FlowCursor/RegCursor track per-device pagination state for the
// FETCH_FLOW / FETCH_REG_APPL enumeration handlers (spec §6), which
// page through the DataModel's tables one entry per call.
func (d *ControlDevice) FlowCursor() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flowCursor
}

func (d *ControlDevice) AdvanceFlowCursor() {
	d.mu.Lock()
	d.flowCursor++
	d.mu.Unlock()
}

func (d *ControlDevice) ResetFlowCursor() {
	d.mu.Lock()
	d.flowCursor = 0
	d.mu.Unlock()
}

func (d *ControlDevice) RegCursor() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regCursor
}

func (d *ControlDevice) AdvanceRegCursor() {
	d.mu.Lock()
	d.regCursor++
	d.mu.Unlock()
}

func (d *ControlDevice) ResetRegCursor() {
	d.mu.Lock()
	d.regCursor = 0
	d.mu.Unlock()
}
