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

// defaultHorizonBars bounds how many 15m bars an outcome may take to
// resolve before it is left open (roughly one trading week).
const defaultHorizonBars = 130

// EvaluateSetup replays one setup against the bars that followed its
// analysis date and returns how it resolved.
//
// A bar that crosses both stop and target counts as a loss; bar order
// inside the period is unknown, so the conservative read wins.
func EvaluateSetup(setup models.TradeSetup, date time.Time, bars []models.Bar, horizon int) models.ZoneOutcome {
	if horizon <= 0 {
		horizon = defaultHorizonBars
	}
	out := models.ZoneOutcome{
		Ticker:    setup.Ticker,
		Date:      date,
		POCID:     setup.Entry.POCID,
		Tier:      setup.Entry.Tier,
		Rank:      setup.Entry.Rank,
		Direction: setup.Direction,
		State:     models.OutcomeNoTouch,
	}

	long := setup.Direction == models.DirectionLong
	entered := false
	n := 0
	for _, b := range bars {
		if !b.Bucket.After(date) {
			continue
		}
		n++
		if n > horizon {
			break
		}
		if !entered {
			touched := (long && b.Low <= setup.EntryPrice) || (!long && b.High >= setup.EntryPrice)
			if !touched {
				continue
			}
			entered = true
			out.State = models.OutcomeOpen
			out.EntryAt = b.Bucket
			out.BarsToEntry = n
		}
		stopped := (long && b.Low <= setup.StopPrice) || (!long && b.High >= setup.StopPrice)
		targeted := (long && b.High >= setup.TargetPrice) || (!long && b.Low <= setup.TargetPrice)
		switch {
		case stopped:
			out.State = models.OutcomeLoss
			out.RMultiple = -1
		case targeted:
			out.State = models.OutcomeWin
			out.RMultiple = setup.RiskReward
		default:
			continue
		}
		out.ResolvedAt = b.Bucket
		out.BarsToResolve = n - out.BarsToEntry
		return out
	}
	return out
}

// Backtester resolves stored setups against subsequent 15m bars and
// writes the outcomes back to the warehouse. Analyses arrive via Submit
// and are held until enough bars have accrued to judge them.
type Backtester struct {
	zones   drepo.ZoneStore
	bars    drepo.BarStore
	metrics drepo.Metrics
	l       *applogger.Logger
	horizon int

	mu      sync.Mutex
	pending []pendingBacktest
}

type pendingBacktest struct {
	analysis models.ZoneAnalysis
	dueAt    time.Time
}

func NewBacktester(zones drepo.ZoneStore, bars drepo.BarStore, metrics drepo.Metrics, l *applogger.Logger) *Backtester {
	return &Backtester{zones: zones, bars: bars, metrics: metrics, l: l, horizon: defaultHorizonBars}
}

// Submit queues an analysis for evaluation once its horizon has elapsed.
// Pending entries do not survive a restart; the next analysis cycle
// repopulates them.
func (b *Backtester) Submit(a models.ZoneAnalysis) {
	if len(a.Setups) == 0 {
		return
	}
	due := a.Date.Add(time.Duration(b.horizon) * 15 * time.Minute * 3)
	b.mu.Lock()
	b.pending = append(b.pending, pendingBacktest{analysis: a, dueAt: due})
	b.mu.Unlock()
}

// Start drains due submissions on a fixed cadence until ctx is done.
func (b *Backtester) Start(ctx context.Context) {
	go func() {
		t := time.NewTicker(15 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				b.processDue(ctx)
			}
		}
	}()
}

func (b *Backtester) processDue(ctx context.Context) {
	now := time.Now().UTC()
	b.mu.Lock()
	var due []models.ZoneAnalysis
	rest := b.pending[:0]
	for _, p := range b.pending {
		if p.dueAt.Before(now) {
			due = append(due, p.analysis)
		} else {
			rest = append(rest, p)
		}
	}
	b.pending = rest
	b.mu.Unlock()

	for _, a := range due {
		if _, err := b.BacktestAnalysis(ctx, a); err != nil {
			b.l.Error("deferred backtest failed",
				applogger.String("ticker", a.Ticker),
				applogger.Error(err),
			)
		}
	}
}

// BacktestAnalysis evaluates every setup of one analysis and persists the
// outcomes. Returns the outcomes for callers that want them inline.
func (b *Backtester) BacktestAnalysis(ctx context.Context, a models.ZoneAnalysis) ([]models.ZoneOutcome, error) {
	if len(a.Setups) == 0 {
		return nil, nil
	}

	// horizon 15m bars plus slack for overnight gaps
	to := a.Date.Add(time.Duration(b.horizon) * 15 * time.Minute * 3)
	bars, err := b.bars.GetBars(ctx, a.Ticker, drepo.TF15m, a.Date, to)
	if err != nil {
		b.metrics.RecordError("backtest_bars")
		return nil, fmt.Errorf("backtest bars %s: %w", a.Ticker, err)
	}

	outcomes := make([]models.ZoneOutcome, 0, len(a.Setups))
	for _, s := range a.Setups {
		outcomes = append(outcomes, EvaluateSetup(s, a.Date, bars, b.horizon))
	}
	if err := b.zones.StoreOutcomes(ctx, outcomes); err != nil {
		b.metrics.RecordError("store_outcomes")
		return nil, fmt.Errorf("store outcomes %s: %w", a.Ticker, err)
	}
	b.l.Info("backtest complete",
		applogger.String("ticker", a.Ticker),
		applogger.Int("outcomes", len(outcomes)),
	)
	return outcomes, nil
}
