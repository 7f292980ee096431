package rina

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the flow-allocation latency histogram buckets
// in nanoseconds. Buckets cover from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks operational statistics for one namespace's DataModel
// (spec §7: "operational state is observable through counters, not
// just through FETCH enumeration").
type Metrics struct {
	// IPCP/DIF lifecycle counters.
	IPCPCreates  atomic.Uint64
	IPCPDestroys atomic.Uint64

	// Flow-allocation-handshake counters (spec §4.5).
	FlowAllocations      atomic.Uint64 // completed fa_resp (accept or reject)
	FlowAllocationErrors atomic.Uint64
	FlowDeallocations    atomic.Uint64

	// Control-device upqueue counters (spec §4.4).
	UpqueueAppends atomic.Uint64
	UpqueueDrops   atomic.Uint64 // NoSpace after UpqueueAppendTimeout

	// PDUFT lookup counters (spec §3 PDUFT).
	PduftHits   atomic.Uint64
	PduftMisses atomic.Uint64

	// DTP retransmission-queue depth statistics (spec §4.6).
	RTXQDepthTotal atomic.Uint64
	RTXQDepthCount atomic.Uint64
	MaxRTXQDepth   atomic.Uint32

	// Flow-allocation latency tracking.
	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	// Latency histogram buckets (cumulative counts): bucket[i] holds
	// the count of allocations with latency <= LatencyBuckets[i].
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64 // UnixNano
	StopTime  atomic.Int64 // UnixNano, 0 while running
}

// NewMetrics creates a new metrics instance with its clock started.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordIPCPCreate/RecordIPCPDestroy track IPCP lifecycle events.
func (m *Metrics) RecordIPCPCreate()  { m.IPCPCreates.Add(1) }
func (m *Metrics) RecordIPCPDestroy() { m.IPCPDestroys.Add(1) }

// RecordFlowAllocation records the outcome and handshake latency of
// one fa_req/fa_resp round-trip.
func (m *Metrics) RecordFlowAllocation(latencyNs uint64, success bool) {
	m.FlowAllocations.Add(1)
	if !success {
		m.FlowAllocationErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

// RecordFlowDeallocation records a completed flow teardown (put-queue
// expiry or immediate dealloc).
func (m *Metrics) RecordFlowDeallocation() { m.FlowDeallocations.Add(1) }

// RecordUpqueueAppend records one control-device Append call.
func (m *Metrics) RecordUpqueueAppend(dropped bool) {
	m.UpqueueAppends.Add(1)
	if dropped {
		m.UpqueueDrops.Add(1)
	}
}

// RecordPduftLookup records one PDUFT.Lookup call outcome.
func (m *Metrics) RecordPduftLookup(hit bool) {
	if hit {
		m.PduftHits.Add(1)
	} else {
		m.PduftMisses.Add(1)
	}
}

// RecordRTXQDepth samples one flow's retransmission-queue depth.
func (m *Metrics) RecordRTXQDepth(depth uint32) {
	m.RTXQDepthTotal.Add(uint64(depth))
	m.RTXQDepthCount.Add(1)
	for {
		current := m.MaxRTXQDepth.Load()
		if depth <= current {
			break
		}
		if m.MaxRTXQDepth.CompareAndSwap(current, depth) {
			break
		}
	}
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the metrics instance as stopped (its DataModel closed).
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time copy of Metrics with derived
// statistics computed.
type MetricsSnapshot struct {
	IPCPCreates  uint64
	IPCPDestroys uint64

	FlowAllocations      uint64
	FlowAllocationErrors uint64
	FlowDeallocations    uint64

	UpqueueAppends uint64
	UpqueueDrops   uint64

	PduftHits   uint64
	PduftMisses uint64

	AvgRTXQDepth float64
	MaxRTXQDepth uint32

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	FlowAllocationRate float64 // allocations per second
	ErrorRate          float64 // percentage of failed allocations
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		IPCPCreates:          m.IPCPCreates.Load(),
		IPCPDestroys:         m.IPCPDestroys.Load(),
		FlowAllocations:      m.FlowAllocations.Load(),
		FlowAllocationErrors: m.FlowAllocationErrors.Load(),
		FlowDeallocations:    m.FlowDeallocations.Load(),
		UpqueueAppends:       m.UpqueueAppends.Load(),
		UpqueueDrops:         m.UpqueueDrops.Load(),
		PduftHits:            m.PduftHits.Load(),
		PduftMisses:          m.PduftMisses.Load(),
		MaxRTXQDepth:         m.MaxRTXQDepth.Load(),
	}

	rtxqTotal := m.RTXQDepthTotal.Load()
	rtxqCount := m.RTXQDepthCount.Load()
	if rtxqCount > 0 {
		snap.AvgRTXQDepth = float64(rtxqTotal) / float64(rtxqCount)
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.FlowAllocationRate = float64(snap.FlowAllocations) / uptimeSeconds
	}

	if snap.FlowAllocations > 0 {
		snap.ErrorRate = float64(snap.FlowAllocationErrors) / float64(snap.FlowAllocations) * 100.0
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile (0.0-1.0)
// using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset resets all metrics counters (useful for testing).
func (m *Metrics) Reset() {
	m.IPCPCreates.Store(0)
	m.IPCPDestroys.Store(0)
	m.FlowAllocations.Store(0)
	m.FlowAllocationErrors.Store(0)
	m.FlowDeallocations.Store(0)
	m.UpqueueAppends.Store(0)
	m.UpqueueDrops.Store(0)
	m.PduftHits.Store(0)
	m.PduftMisses.Store(0)
	m.RTXQDepthTotal.Store(0)
	m.RTXQDepthCount.Store(0)
	m.MaxRTXQDepth.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection, e.g. to bridge into an
// external monitoring system instead of (or alongside) Metrics.
type Observer interface {
	ObserveIPCPCreate()
	ObserveIPCPDestroy()
	ObserveFlowAllocation(latencyNs uint64, success bool)
	ObserveFlowDeallocation()
	ObserveUpqueueAppend(dropped bool)
	ObservePduftLookup(hit bool)
	ObserveRTXQDepth(depth uint32)
}

// NoOpObserver is a no-op implementation of Observer.
type NoOpObserver struct{}

func (NoOpObserver) ObserveIPCPCreate()                 {}
func (NoOpObserver) ObserveIPCPDestroy()                {}
func (NoOpObserver) ObserveFlowAllocation(uint64, bool) {}
func (NoOpObserver) ObserveFlowDeallocation()           {}
func (NoOpObserver) ObserveUpqueueAppend(bool)          {}
func (NoOpObserver) ObservePduftLookup(bool)            {}
func (NoOpObserver) ObserveRTXQDepth(uint32)            {}

// MetricsObserver implements Observer using a Metrics instance.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveIPCPCreate()  { o.metrics.RecordIPCPCreate() }
func (o *MetricsObserver) ObserveIPCPDestroy() { o.metrics.RecordIPCPDestroy() }

func (o *MetricsObserver) ObserveFlowAllocation(latencyNs uint64, success bool) {
	o.metrics.RecordFlowAllocation(latencyNs, success)
}

func (o *MetricsObserver) ObserveFlowDeallocation() { o.metrics.RecordFlowDeallocation() }

func (o *MetricsObserver) ObserveUpqueueAppend(dropped bool) {
	o.metrics.RecordUpqueueAppend(dropped)
}

func (o *MetricsObserver) ObservePduftLookup(hit bool) { o.metrics.RecordPduftLookup(hit) }

func (o *MetricsObserver) ObserveRTXQDepth(depth uint32) { o.metrics.RecordRTXQDepth(depth) }

// Compile-time interface checks.
var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
