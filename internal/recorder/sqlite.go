package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists forecast snapshots to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_snapshots (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp         INTEGER NOT NULL,
			symbol            TEXT NOT NULL,
			days              INTEGER,
			current_price     REAL,
			predicted_price   REAL,
			change_percent    REAL,
			consistency       TEXT,
			volatility_change REAL,
			volatility_kind   TEXT,
			momentum_shift    REAL,
			momentum_kind     TEXT,
			ma50_state        TEXT,
			ma100_state       TEXT,
			ma200_state       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_forecast_symbol_ts ON forecast_snapshots(symbol, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordForecast(snap *ForecastSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := snap.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO forecast_snapshots
		(timestamp, symbol, days, current_price, predicted_price, change_percent,
		 consistency, volatility_change, volatility_kind, momentum_shift, momentum_kind,
		 ma50_state, ma100_state, ma200_state)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ts.Unix(), snap.Symbol, snap.Days, snap.CurrentPrice, snap.PredictedPrice, snap.ChangePercent,
		snap.Consistency, snap.VolatilityChange, snap.VolatilityKind, snap.MomentumShift, snap.MomentumKind,
		snap.MA50State, snap.MA100State, snap.MA200State,
	)
	if err != nil {
		return fmt.Errorf("insert forecast snapshot: %w", err)
	}
	return nil
}

// Recent returns the latest snapshots for symbol, newest first.
func (r *SQLiteRecorder) Recent(symbol string, limit int) ([]ForecastSnapshot, error) {
	rows, err := r.db.Query(`SELECT timestamp, symbol, days, current_price, predicted_price, change_percent,
		consistency, volatility_change, volatility_kind, momentum_shift, momentum_kind,
		ma50_state, ma100_state, ma200_state
		FROM forecast_snapshots WHERE symbol = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []ForecastSnapshot
	for rows.Next() {
		var s ForecastSnapshot
		var ts int64
		if err := rows.Scan(&ts, &s.Symbol, &s.Days, &s.CurrentPrice, &s.PredictedPrice, &s.ChangePercent,
			&s.Consistency, &s.VolatilityChange, &s.VolatilityKind, &s.MomentumShift, &s.MomentumKind,
			&s.MA50State, &s.MA100State, &s.MA200State); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.CreatedAt = time.Unix(ts, 0).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
