package rina

import (
	"testing"
	"time"
)

func TestMetricsLifecycleCounters(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	if snap.IPCPCreates != 0 {
		t.Errorf("expected 0 initial IPCP creates, got %d", snap.IPCPCreates)
	}

	m.RecordIPCPCreate()
	m.RecordIPCPCreate()
	m.RecordIPCPDestroy()

	snap = m.Snapshot()
	if snap.IPCPCreates != 2 {
		t.Errorf("expected 2 IPCP creates, got %d", snap.IPCPCreates)
	}
	if snap.IPCPDestroys != 1 {
		t.Errorf("expected 1 IPCP destroy, got %d", snap.IPCPDestroys)
	}
}

func TestMetricsFlowAllocation(t *testing.T) {
	m := NewMetrics()

	m.RecordFlowAllocation(1_000_000, true)  // 1ms, success
	m.RecordFlowAllocation(2_000_000, true)  // 2ms, success
	m.RecordFlowAllocation(500_000, false)   // 0.5ms, rejected
	m.RecordFlowDeallocation()

	snap := m.Snapshot()
	if snap.FlowAllocations != 3 {
		t.Errorf("expected 3 flow allocations, got %d", snap.FlowAllocations)
	}
	if snap.FlowAllocationErrors != 1 {
		t.Errorf("expected 1 flow allocation error, got %d", snap.FlowAllocationErrors)
	}
	if snap.FlowDeallocations != 1 {
		t.Errorf("expected 1 flow deallocation, got %d", snap.FlowDeallocations)
	}

	expectedErrorRate := float64(1) / float64(3) * 100.0
	if snap.ErrorRate < expectedErrorRate-0.1 || snap.ErrorRate > expectedErrorRate+0.1 {
		t.Errorf("expected error rate ~%.1f%%, got %.1f%%", expectedErrorRate, snap.ErrorRate)
	}
}

func TestMetricsUpqueueAndPduft(t *testing.T) {
	m := NewMetrics()

	m.RecordUpqueueAppend(false)
	m.RecordUpqueueAppend(false)
	m.RecordUpqueueAppend(true) // dropped

	m.RecordPduftLookup(true)
	m.RecordPduftLookup(true)
	m.RecordPduftLookup(false)

	snap := m.Snapshot()
	if snap.UpqueueAppends != 3 {
		t.Errorf("expected 3 upqueue appends, got %d", snap.UpqueueAppends)
	}
	if snap.UpqueueDrops != 1 {
		t.Errorf("expected 1 upqueue drop, got %d", snap.UpqueueDrops)
	}
	if snap.PduftHits != 2 {
		t.Errorf("expected 2 PDUFT hits, got %d", snap.PduftHits)
	}
	if snap.PduftMisses != 1 {
		t.Errorf("expected 1 PDUFT miss, got %d", snap.PduftMisses)
	}
}

func TestMetricsRTXQDepth(t *testing.T) {
	m := NewMetrics()

	m.RecordRTXQDepth(10)
	m.RecordRTXQDepth(20)
	m.RecordRTXQDepth(15)

	snap := m.Snapshot()
	if snap.MaxRTXQDepth != 20 {
		t.Errorf("expected max RTXQ depth 20, got %d", snap.MaxRTXQDepth)
	}

	expectedAvg := float64(10+20+15) / 3.0
	if snap.AvgRTXQDepth < expectedAvg-0.1 || snap.AvgRTXQDepth > expectedAvg+0.1 {
		t.Errorf("expected avg RTXQ depth %.1f, got %.1f", expectedAvg, snap.AvgRTXQDepth)
	}
}

func TestMetricsLatency(t *testing.T) {
	m := NewMetrics()

	m.RecordFlowAllocation(1_000_000, true) // 1ms
	m.RecordFlowAllocation(2_000_000, true) // 2ms

	snap := m.Snapshot()

	expectedAvgNs := uint64(1_500_000)
	if snap.AvgLatencyNs != expectedAvgNs {
		t.Errorf("expected avg latency %d ns, got %d ns", expectedAvgNs, snap.AvgLatencyNs)
	}
}

func TestMetricsUptime(t *testing.T) {
	m := NewMetrics()

	time.Sleep(10 * time.Millisecond)

	snap := m.Snapshot()
	if snap.UptimeNs < 10*1_000_000 {
		t.Errorf("expected uptime >= 10ms, got %d ns", snap.UptimeNs)
	}

	m.Stop()
	time.Sleep(5 * time.Millisecond)

	snap2 := m.Snapshot()
	if snap2.UptimeNs > snap.UptimeNs+2*1_000_000 {
		t.Errorf("uptime increased too much after stop: %d -> %d", snap.UptimeNs, snap2.UptimeNs)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()

	m.RecordFlowAllocation(1_000_000, true)
	m.RecordUpqueueAppend(false)
	m.RecordRTXQDepth(10)

	snap := m.Snapshot()
	if snap.FlowAllocations == 0 {
		t.Error("expected some flow allocations before reset")
	}

	m.Reset()

	snap = m.Snapshot()
	if snap.FlowAllocations != 0 {
		t.Errorf("expected 0 flow allocations after reset, got %d", snap.FlowAllocations)
	}
	if snap.UpqueueAppends != 0 {
		t.Errorf("expected 0 upqueue appends after reset, got %d", snap.UpqueueAppends)
	}
	if snap.MaxRTXQDepth != 0 {
		t.Errorf("expected 0 max RTXQ depth after reset, got %d", snap.MaxRTXQDepth)
	}
}

func TestObserver(t *testing.T) {
	observer := &NoOpObserver{}
	observer.ObserveIPCPCreate()
	observer.ObserveFlowAllocation(1_000_000, true)
	observer.ObserveFlowDeallocation()
	observer.ObserveUpqueueAppend(false)
	observer.ObservePduftLookup(true)
	observer.ObserveRTXQDepth(5)

	m := NewMetrics()
	metricsObserver := NewMetricsObserver(m)

	metricsObserver.ObserveFlowAllocation(1_000_000, true)
	metricsObserver.ObserveFlowAllocation(2_000_000, false)
	metricsObserver.ObserveUpqueueAppend(true)

	snap := m.Snapshot()
	if snap.FlowAllocations != 2 {
		t.Errorf("expected 2 flow allocations from observer, got %d", snap.FlowAllocations)
	}
	if snap.FlowAllocationErrors != 1 {
		t.Errorf("expected 1 flow allocation error from observer, got %d", snap.FlowAllocationErrors)
	}
	if snap.UpqueueDrops != 1 {
		t.Errorf("expected 1 upqueue drop from observer, got %d", snap.UpqueueDrops)
	}
}

func TestMetricsRates(t *testing.T) {
	m := NewMetrics()

	startTime := time.Now()
	m.StartTime.Store(startTime.UnixNano())

	m.RecordFlowAllocation(1_000_000, true)

	stopTime := startTime.Add(1 * time.Second)
	m.StopTime.Store(stopTime.UnixNano())

	snap := m.Snapshot()
	if snap.FlowAllocationRate < 0.9 || snap.FlowAllocationRate > 1.1 {
		t.Errorf("expected FlowAllocationRate ~1.0, got %.2f", snap.FlowAllocationRate)
	}
}

func TestMetricsHistogram(t *testing.T) {
	m := NewMetrics()

	for i := 0; i < 50; i++ {
		m.RecordFlowAllocation(500_000, true) // 500us
	}
	for i := 0; i < 49; i++ {
		m.RecordFlowAllocation(5_000_000, true) // 5ms
	}
	m.RecordFlowAllocation(50_000_000, true) // 50ms, the single slowest

	snap := m.Snapshot()

	if snap.FlowAllocations != 100 {
		t.Errorf("expected 100 flow allocations, got %d", snap.FlowAllocations)
	}

	if snap.LatencyP50Ns < 100_000 || snap.LatencyP50Ns > 1_000_000 {
		t.Errorf("expected P50 in 100us-1ms range, got %d ns", snap.LatencyP50Ns)
	}

	if snap.LatencyP99Ns < 5_000_000 || snap.LatencyP99Ns > 100_000_000 {
		t.Errorf("expected P99 in 5ms-100ms range, got %d ns", snap.LatencyP99Ns)
	}

	totalInBuckets := uint64(0)
	for i := 0; i < len(snap.LatencyHistogram); i++ {
		totalInBuckets += snap.LatencyHistogram[i]
	}
	if totalInBuckets == 0 {
		t.Error("expected histogram buckets to be populated")
	}
}
