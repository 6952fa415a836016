package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"Epoch/internal/domain/models"
	domrepo "Epoch/internal/domain/repository"
	pkgch "Epoch/pkg/clickhouse"
	applogger "Epoch/pkg/logger"
)

const (
	zonesTable    = "epoch.zone_analyses"
	setupsTable   = "epoch.trade_setups"
	outcomesTable = "epoch.zone_outcomes"
	gradesTable   = "epoch.setup_grades"
)

// CHZoneStore implements ZoneStore backed by ClickHouse. Analyses are
// flattened to one row per surviving zone; setups, outcomes and grades
// get their own tables.
type CHZoneStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHZoneStore(ch *pkgch.Client) *CHZoneStore {
	return &CHZoneStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHZoneStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHZoneStore) StoreAnalysis(ctx context.Context, a models.ZoneAnalysis) error {
	if len(a.Zones) > 0 {
		values := make([]string, 0, len(a.Zones))
		args := make([]interface{}, 0, len(a.Zones)*18)
		for _, z := range a.Zones {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				a.Date, a.Ticker, a.Price, string(a.Bias),
				z.POCID, z.POCRank, z.POCPrice, z.ZoneLow, z.ZoneHigh,
				z.BaseScore, z.OverlapCount, z.TotalScore,
				string(z.Rank), string(z.Tier),
				z.ATRDistance, z.ProximityGroup,
				boolToUInt8(z.IsBullPOC), boolToUInt8(z.IsBearPOC),
			)
		}
		q := fmt.Sprintf(`INSERT INTO %s
            (date, ticker, price, bias, poc_id, poc_rank, poc_price, zone_low, zone_high,
             base_score, overlap_count, total_score, rank, tier,
             atr_distance, proximity_group, is_bull_poc, is_bear_poc)
            VALUES %s`, zonesTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store_analysis zones error",
					applogger.String("ticker", a.Ticker),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store zones: %w", err)
		}
	}

	if len(a.Setups) > 0 {
		values := make([]string, 0, len(a.Setups))
		args := make([]interface{}, 0, len(a.Setups)*13)
		for _, st := range a.Setups {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				a.Date, a.Ticker, string(st.Kind), string(st.Direction),
				st.Entry.POCID, st.Target.POCID,
				st.EntryPrice, st.StopPrice, st.TargetPrice, st.RiskReward,
				string(st.Entry.Rank), string(st.Entry.Tier),
				strings.Join(st.Entry.OverlappingLevels, ","),
			)
		}
		q := fmt.Sprintf(`INSERT INTO %s
            (date, ticker, kind, direction, entry_poc, target_poc,
             entry_price, stop_price, target_price, risk_reward,
             entry_rank, entry_tier, confluence)
            VALUES %s`, setupsTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store_analysis setups error",
					applogger.String("ticker", a.Ticker),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store setups: %w", err)
		}
	}
	return nil
}

func (s *CHZoneStore) StoreOutcomes(ctx context.Context, outcomes []models.ZoneOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	values := make([]string, 0, len(outcomes))
	args := make([]interface{}, 0, len(outcomes)*11)
	for _, o := range outcomes {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			o.Date, o.Ticker, o.POCID, string(o.Tier), string(o.Rank),
			string(o.Direction), string(o.State),
			o.EntryAt, o.ResolvedAt, o.BarsToResolve, o.RMultiple,
		)
	}
	q := fmt.Sprintf(`INSERT INTO %s
        (date, ticker, poc_id, tier, rank, direction, state,
         entry_at, resolved_at, bars_to_resolve, r_multiple)
        VALUES %s`, outcomesTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("store outcomes: %w", err)
	}
	return nil
}

func (s *CHZoneStore) StoreGrades(ctx context.Context, grades []models.GradeResult) error {
	if len(grades) == 0 {
		return nil
	}
	values := make([]string, 0, len(grades))
	args := make([]interface{}, 0, len(grades)*9)
	for _, g := range grades {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			g.Date, g.Ticker, g.POCID, string(g.Kind),
			g.Grade, g.Confidence, g.Commentary, g.Model, g.GradedAt,
		)
	}
	q := fmt.Sprintf(`INSERT INTO %s
        (date, ticker, poc_id, kind, grade, confidence, commentary, model, graded_at)
        VALUES %s`, gradesTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("store grades: %w", err)
	}
	return nil
}

// LatestZones returns the zones of the most recent analysis for ticker,
// near group first, strongest first within a group.
func (s *CHZoneStore) LatestZones(ctx context.Context, ticker string, limit int) ([]models.FilteredZone, error) {
	start := time.Now()
	const qtpl = `
        SELECT poc_id, poc_rank, poc_price, zone_low, zone_high,
               base_score, overlap_count, total_score, rank, tier,
               atr_distance, proximity_group, is_bull_poc, is_bear_poc
        FROM %s
        WHERE ticker = ? AND date = (SELECT max(date) FROM %s WHERE ticker = ?)
        ORDER BY proximity_group ASC, total_score DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, zonesTable, zonesTable)
	rows, err := s.db.QueryContext(ctx, q, ticker, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("latest zones: %w", err)
	}
	defer rows.Close()

	out := make([]models.FilteredZone, 0, limit)
	for rows.Next() {
		var z models.FilteredZone
		var rank, tier string
		var bull, bear uint8
		if err := rows.Scan(
			&z.POCID, &z.POCRank, &z.POCPrice, &z.ZoneLow, &z.ZoneHigh,
			&z.BaseScore, &z.OverlapCount, &z.TotalScore, &rank, &tier,
			&z.ATRDistance, &z.ProximityGroup, &bull, &bear,
		); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		z.Rank = models.Rank(rank)
		z.Tier = models.Tier(tier)
		z.IsBullPOC = bull != 0
		z.IsBearPOC = bear != 0
		out = append(out, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse latest_zones ok",
			applogger.String("ticker", ticker),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// LatestSetups returns the setups of the most recent analysis for ticker,
// primary first.
func (s *CHZoneStore) LatestSetups(ctx context.Context, ticker string) ([]models.TradeSetup, error) {
	const qtpl = `
        SELECT kind, direction, entry_poc, target_poc,
               entry_price, stop_price, target_price, risk_reward,
               entry_rank, entry_tier, confluence
        FROM %s
        WHERE ticker = ? AND date = (SELECT max(date) FROM %s WHERE ticker = ?)
        ORDER BY kind = 'Primary' DESC
    `
	q := fmt.Sprintf(qtpl, setupsTable, setupsTable)
	rows, err := s.db.QueryContext(ctx, q, ticker, ticker)
	if err != nil {
		return nil, fmt.Errorf("latest setups: %w", err)
	}
	defer rows.Close()

	var out []models.TradeSetup
	for rows.Next() {
		var st models.TradeSetup
		var kind, dir, entryRank, entryTier, confluence string
		if err := rows.Scan(
			&kind, &dir, &st.Entry.POCID, &st.Target.POCID,
			&st.EntryPrice, &st.StopPrice, &st.TargetPrice, &st.RiskReward,
			&entryRank, &entryTier, &confluence,
		); err != nil {
			return nil, fmt.Errorf("scan setup: %w", err)
		}
		st.Ticker = ticker
		st.Kind = models.SetupKind(kind)
		st.Direction = models.Direction(dir)
		st.Entry.Rank = models.Rank(entryRank)
		st.Entry.Tier = models.Tier(entryTier)
		if confluence != "" {
			st.Entry.OverlappingLevels = strings.Split(confluence, ",")
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// RecentOutcomes returns up to window most recent outcomes for ticker and
// tier, newest first.
func (s *CHZoneStore) RecentOutcomes(ctx context.Context, ticker string, tier models.Tier, window int) ([]models.ZoneOutcome, error) {
	const qtpl = `
        SELECT date, ticker, poc_id, tier, rank, direction, state,
               entry_at, resolved_at, bars_to_resolve, r_multiple
        FROM %s
        WHERE ticker = ? AND tier = ?
        ORDER BY date DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, outcomesTable)
	rows, err := s.db.QueryContext(ctx, q, ticker, string(tier), window)
	if err != nil {
		return nil, fmt.Errorf("recent outcomes: %w", err)
	}
	defer rows.Close()

	out := make([]models.ZoneOutcome, 0, window)
	for rows.Next() {
		var o models.ZoneOutcome
		var tierS, rankS, dirS, stateS string
		if err := rows.Scan(
			&o.Date, &o.Ticker, &o.POCID, &tierS, &rankS, &dirS, &stateS,
			&o.EntryAt, &o.ResolvedAt, &o.BarsToResolve, &o.RMultiple,
		); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Tier = models.Tier(tierS)
		o.Rank = models.Rank(rankS)
		o.Direction = models.Direction(dirS)
		o.State = models.OutcomeState(stateS)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *CHZoneStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHZoneStore) Close() error {
	return nil // pool managed by pkg client
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

var _ domrepo.ZoneStore = (*CHZoneStore)(nil)
