package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"Epoch/internal/domain/models"
)

type countingProc struct {
	mu   sync.Mutex
	n    int
	fail bool
}

func (p *countingProc) Process(_ context.Context, _ *models.Bar) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return fmt.Errorf("downstream unavailable")
	}
	p.n++
	return nil
}

func (p *countingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{errors: make(map[string]int)}
}

func (m *countingMetrics) RecordAnalysis(string, int)      {}
func (m *countingMetrics) RecordLastPrice(string, float64) {}
func (m *countingMetrics) RecordLatency(string, float64)   {}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *countingMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func validTestBar() *models.Bar {
	return &models.Bar{
		Bucket: time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC),
		Ticker: "SPY",
		Open:   100, High: 101, Low: 99, Close: 100.5,
		Volume: 1000,
	}
}

func TestPipelineForwardsValidBar(t *testing.T) {
	proc := &countingProc{}
	p := NewBarPipeline(proc, newCountingMetrics())
	if err := p.Process(context.Background(), validTestBar()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("downstream calls = %d, want 1", proc.count())
	}
}

func TestPipelineRejectsInvalidBars(t *testing.T) {
	p := NewBarPipeline(&countingProc{}, newCountingMetrics())
	ctx := context.Background()

	cases := []*models.Bar{
		nil,
		{Ticker: "", Bucket: time.Now(), High: 1, Low: 0.5},
		{Ticker: "SPY"}, // zero bucket
		{Ticker: "SPY", Bucket: time.Now(), Open: -1, High: 1, Low: 0.5},
		{Ticker: "SPY", Bucket: time.Now(), High: 1, Low: 2}, // high below low
	}
	for i, b := range cases {
		if err := p.Process(ctx, b); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestPipelineThrottlesPerTicker(t *testing.T) {
	proc := &countingProc{}
	m := newCountingMetrics()
	p := NewBarPipeline(proc, m, WithMaxRPS(1))
	ctx := context.Background()

	if err := p.Process(ctx, validTestBar()); err != nil {
		t.Fatalf("first bar: %v", err)
	}
	// immediate second bar for the same ticker is throttled, not an error
	if err := p.Process(ctx, validTestBar()); err != nil {
		t.Fatalf("throttled bar returned error: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("downstream calls = %d, want 1", proc.count())
	}
	if m.errCount("pipeline_throttle") != 1 {
		t.Fatalf("throttle not recorded")
	}

	// a different ticker is not affected
	other := validTestBar()
	other.Ticker = "QQQ"
	if err := p.Process(ctx, other); err != nil {
		t.Fatalf("other ticker: %v", err)
	}
	if proc.count() != 2 {
		t.Fatalf("downstream calls = %d, want 2", proc.count())
	}
}

func TestPipelineBuffersOnDownstreamFailure(t *testing.T) {
	proc := &countingProc{fail: true}
	m := newCountingMetrics()
	p := NewBarPipeline(proc, m, WithBufferSize(4))

	if err := p.Process(context.Background(), validTestBar()); err == nil {
		t.Fatalf("expected downstream error")
	}
	if m.errCount("pipeline_process") != 1 {
		t.Fatalf("downstream failure not recorded")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("buffer depth = %d, want 1", len(p.bufCh))
	}
}

func TestPipelineFlushesBufferWhenDownstreamRecovers(t *testing.T) {
	proc := &countingProc{fail: true}
	p := NewBarPipeline(proc, newCountingMetrics(), WithBufferSize(4))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = p.Process(ctx, validTestBar())

	proc.mu.Lock()
	proc.fail = false
	proc.mu.Unlock()

	p.Start(ctx)
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for proc.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("buffered bar never flushed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
