package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"SwingScore/internal/model"
	"SwingScore/internal/strategy"
)

// SQLiteRecorder persists runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the HTTP server read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			symbol      TEXT NOT NULL,
			profile     TEXT NOT NULL,
			source      TEXT,
			started_at  INTEGER NOT NULL,
			duration_ms INTEGER,
			bars        INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol_ts ON runs(symbol, started_at)`,

		`CREATE TABLE IF NOT EXISTS scores (
			run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			bar_time  INTEGER NOT NULL,
			open      REAL,
			high      REAL,
			low       REAL,
			close     REAL,
			volume    REAL,
			buy       REAL,
			sell      REAL,
			buy_tier  TEXT,
			sell_tier TEXT,
			PRIMARY KEY (run_id, bar_time)
		)`,

		`CREATE TABLE IF NOT EXISTS factor_scores (
			run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			bar_time   INTEGER NOT NULL,
			side       TEXT NOT NULL,
			factor     TEXT NOT NULL,
			raw        REAL,
			cap        REAL,
			score      REAL,
			divergence INTEGER,
			commentary TEXT,
			PRIMARY KEY (run_id, bar_time, side, factor)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps undefined values to SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: model.Defined(v)}
}

func tierLabel(side model.Side, score float64) string {
	if side == model.SideSell {
		return strategy.SellTier(score).Label
	}
	return strategy.BuyTier(score).Label
}

// RecordRun stores run and its points in one transaction.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs
		(id, symbol, profile, source, started_at, duration_ms, bars)
		VALUES (?,?,?,?,?,?,?)`,
		run.ID, run.Symbol, run.Profile, run.Source,
		run.StartedAt.Unix(), run.Duration.Milliseconds(), len(run.Points),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	scoreStmt, err := tx.PrepareContext(ctx, `INSERT INTO scores
		(run_id, bar_time, open, high, low, close, volume, buy, sell, buy_tier, sell_tier)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare scores: %w", err)
	}
	defer scoreStmt.Close()

	factorStmt, err := tx.PrepareContext(ctx, `INSERT INTO factor_scores
		(run_id, bar_time, side, factor, raw, cap, score, divergence, commentary)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare factor scores: %w", err)
	}
	defer factorStmt.Close()

	for _, p := range run.Points {
		ts := p.Bar.Time.Unix()
		if _, err := scoreStmt.ExecContext(ctx,
			run.ID, ts, p.Bar.Open, p.Bar.High, p.Bar.Low, p.Bar.Close, p.Bar.Volume,
			p.Score.Buy, p.Score.Sell, tierLabel(model.SideBuy, p.Score.Buy), tierLabel(model.SideSell, p.Score.Sell),
		); err != nil {
			return fmt.Errorf("insert score %s: %w", p.Bar.Time.Format("2006-01-02"), err)
		}
		for _, side := range []model.Side{model.SideBuy, model.SideSell} {
			for _, f := range p.Score.Factors(side) {
				if _, err := factorStmt.ExecContext(ctx,
					run.ID, ts, string(side), f.Name, nullable(f.Raw), f.Cap, f.Score, f.Divergence, f.Commentary,
				); err != nil {
					return fmt.Errorf("insert factor %s/%s: %w", side, f.Name, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// RecentRuns returns the latest runs of symbol, or of every symbol when
// symbol is empty.
func (r *SQLiteRecorder) RecentRuns(ctx context.Context, symbol string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT r.id, r.symbol, r.profile, r.source, r.started_at, r.bars,
			COALESCE(s.bar_time, 0), COALESCE(s.buy, 0), COALESCE(s.sell, 0)
		FROM runs r
		LEFT JOIN scores s ON s.run_id = r.id
			AND s.bar_time = (SELECT MAX(bar_time) FROM scores WHERE run_id = r.id)
		WHERE ? = '' OR r.symbol = ?
		ORDER BY r.started_at DESC, r.rowid DESC
		LIMIT ?`, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var started, last int64
		var source sql.NullString
		if err := rows.Scan(&s.ID, &s.Symbol, &s.Profile, &source, &started, &s.Bars, &last, &s.LastBuy, &s.LastSell); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.Source = source.String
		s.StartedAt = time.Unix(started, 0)
		if last != 0 {
			s.LastBar = time.Unix(last, 0).UTC()
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
