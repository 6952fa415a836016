package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
	applogger "Epoch/pkg/logger"
)

func newTestLogger() *applogger.Logger {
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stdout"})
	if err != nil {
		panic(err)
	}
	return l
}

type fakeMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: make(map[string]int)}
}

func (m *fakeMetrics) RecordAnalysis(string, int)     {}
func (m *fakeMetrics) RecordLastPrice(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)   {}
func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type fakeBarStore struct {
	mu      sync.Mutex
	bars    map[drepo.Timeframe][]models.Bar
	stored  map[drepo.Timeframe][]models.Bar
	failPut bool
	failGet bool
}

func newFakeBarStore() *fakeBarStore {
	return &fakeBarStore{
		bars:   make(map[drepo.Timeframe][]models.Bar),
		stored: make(map[drepo.Timeframe][]models.Bar),
	}
}

func (s *fakeBarStore) StoreBars(_ context.Context, tf drepo.Timeframe, bars []models.Bar) error {
	if s.failPut {
		return fmt.Errorf("store unavailable")
	}
	s.mu.Lock()
	s.stored[tf] = append(s.stored[tf], bars...)
	s.mu.Unlock()
	return nil
}

func (s *fakeBarStore) GetBars(_ context.Context, ticker string, tf drepo.Timeframe, from, to time.Time) ([]models.Bar, error) {
	if s.failGet {
		return nil, fmt.Errorf("warehouse down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Bar
	for _, b := range s.bars[tf] {
		if b.Ticker == ticker && !b.Bucket.Before(from) && !b.Bucket.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeBarStore) GetLatestNBars(_ context.Context, ticker string, n int, tf drepo.Timeframe) ([]models.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.bars[tf]
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (s *fakeBarStore) Health(context.Context) error { return nil }
func (s *fakeBarStore) Close() error                 { return nil }

func (s *fakeBarStore) storedCount(tf drepo.Timeframe) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stored[tf])
}

type fakeZoneStore struct {
	mu        sync.Mutex
	analyses  []models.ZoneAnalysis
	outcomes  []models.ZoneOutcome
	grades    []models.GradeResult
	recent    map[models.Tier][]models.ZoneOutcome
	zoneList  []models.FilteredZone
	setupList []models.TradeSetup
}

func newFakeZoneStore() *fakeZoneStore {
	return &fakeZoneStore{recent: make(map[models.Tier][]models.ZoneOutcome)}
}

func (s *fakeZoneStore) StoreAnalysis(_ context.Context, a models.ZoneAnalysis) error {
	s.mu.Lock()
	s.analyses = append(s.analyses, a)
	s.mu.Unlock()
	return nil
}

func (s *fakeZoneStore) StoreOutcomes(_ context.Context, outcomes []models.ZoneOutcome) error {
	s.mu.Lock()
	s.outcomes = append(s.outcomes, outcomes...)
	s.mu.Unlock()
	return nil
}

func (s *fakeZoneStore) StoreGrades(_ context.Context, grades []models.GradeResult) error {
	s.mu.Lock()
	s.grades = append(s.grades, grades...)
	s.mu.Unlock()
	return nil
}

func (s *fakeZoneStore) LatestZones(_ context.Context, _ string, limit int) ([]models.FilteredZone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.zoneList
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeZoneStore) LatestSetups(context.Context, string) ([]models.TradeSetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setupList, nil
}

func (s *fakeZoneStore) RecentOutcomes(_ context.Context, _ string, tier models.Tier, window int) ([]models.ZoneOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.recent[tier]
	if len(out) > window {
		out = out[:window]
	}
	return out, nil
}

func (s *fakeZoneStore) Health(context.Context) error { return nil }
func (s *fakeZoneStore) Close() error                 { return nil }

type fakeMarketData struct {
	mu      sync.Mutex
	bars    map[drepo.Timeframe][]models.Bar
	strikes []float64
	calls   int
	failTF  drepo.Timeframe
}

func newFakeMarketData() *fakeMarketData {
	return &fakeMarketData{bars: make(map[drepo.Timeframe][]models.Bar)}
}

func (d *fakeMarketData) FetchBars(_ context.Context, _ string, tf drepo.Timeframe, _, _ time.Time) ([]models.Bar, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if tf == d.failTF && tf != "" {
		return nil, fmt.Errorf("rate limited")
	}
	return d.bars[tf], nil
}

func (d *fakeMarketData) FetchOptionStrikes(context.Context, string, float64, int) ([]float64, error) {
	return d.strikes, nil
}

func (d *fakeMarketData) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type fakePublisher struct {
	mu        sync.Mutex
	published []models.ZoneAnalysis
	err       error
}

func (p *fakePublisher) PublishAnalysis(_ context.Context, a models.ZoneAnalysis) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	p.published = append(p.published, a)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeBarCache struct {
	mu      sync.Mutex
	entries map[drepo.BarCacheKey][]models.Bar
}

func newFakeBarCache() *fakeBarCache {
	return &fakeBarCache{entries: make(map[drepo.BarCacheKey][]models.Bar)}
}

func (c *fakeBarCache) Get(_ context.Context, key drepo.BarCacheKey) ([]models.Bar, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bars, ok := c.entries[key]
	return bars, ok
}

func (c *fakeBarCache) Put(_ context.Context, key drepo.BarCacheKey, bars []models.Bar, _ time.Duration) {
	c.mu.Lock()
	c.entries[key] = bars
	c.mu.Unlock()
}
