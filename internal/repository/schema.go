package repository

// SchemaStatements returns the idempotent DDL for the warehouse. Fed to
// the ClickHouse client's InitSchema at startup.
func SchemaStatements() []string {
	barTable := func(name string) string {
		return `CREATE TABLE IF NOT EXISTS ` + name + ` (
            bucket DateTime('UTC'),
            ticker LowCardinality(String),
            open Float64,
            high Float64,
            low Float64,
            close Float64,
            vol Float64
        ) ENGINE = ReplacingMergeTree
        PARTITION BY toYYYYMM(bucket)
        ORDER BY (ticker, bucket)`
	}

	return []string{
		`CREATE DATABASE IF NOT EXISTS epoch`,
		barTable("epoch.bars_5m"),
		barTable("epoch.bars_15m"),
		barTable("epoch.bars_1h"),
		barTable("epoch.bars_4h"),
		barTable("epoch.bars_1d"),
		barTable("epoch.bars_1w"),
		barTable("epoch.bars_1mo"),
		`CREATE TABLE IF NOT EXISTS epoch.zone_analyses (
            date DateTime('UTC'),
            ticker LowCardinality(String),
            price Float64,
            bias LowCardinality(String),
            poc_id LowCardinality(String),
            poc_rank UInt8,
            poc_price Float64,
            zone_low Float64,
            zone_high Float64,
            base_score Float64,
            overlap_count UInt16,
            total_score Float64,
            rank LowCardinality(String),
            tier LowCardinality(String),
            atr_distance Float64,
            proximity_group UInt8,
            is_bull_poc UInt8,
            is_bear_poc UInt8
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(date)
        ORDER BY (ticker, date, poc_id)`,
		`CREATE TABLE IF NOT EXISTS epoch.trade_setups (
            date DateTime('UTC'),
            ticker LowCardinality(String),
            kind LowCardinality(String),
            direction LowCardinality(String),
            entry_poc LowCardinality(String),
            target_poc LowCardinality(String),
            entry_price Float64,
            stop_price Float64,
            target_price Float64,
            risk_reward Float64,
            entry_rank LowCardinality(String),
            entry_tier LowCardinality(String),
            confluence String
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(date)
        ORDER BY (ticker, date, kind)`,
		`CREATE TABLE IF NOT EXISTS epoch.zone_outcomes (
            date DateTime('UTC'),
            ticker LowCardinality(String),
            poc_id LowCardinality(String),
            tier LowCardinality(String),
            rank LowCardinality(String),
            direction LowCardinality(String),
            state LowCardinality(String),
            entry_at DateTime('UTC'),
            resolved_at DateTime('UTC'),
            bars_to_resolve UInt32,
            r_multiple Float64
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(date)
        ORDER BY (ticker, tier, date)`,
		`CREATE TABLE IF NOT EXISTS epoch.setup_grades (
            date DateTime('UTC'),
            ticker LowCardinality(String),
            poc_id LowCardinality(String),
            kind LowCardinality(String),
            grade LowCardinality(String),
            confidence Float64,
            commentary String,
            model LowCardinality(String),
            graded_at DateTime('UTC')
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(date)
        ORDER BY (ticker, date, poc_id)`,
	}
}
