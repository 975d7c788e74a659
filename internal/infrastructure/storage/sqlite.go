package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/perp_leverage_bot/internal/domain"
)

// SQLiteStore mirrors committed trade records for the web surface and ad-hoc
// queries. The JSON journal stays the source of truth for session restarts.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS trade_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			type TEXT NOT NULL,
			price REAL NOT NULL,
			amount REAL NOT NULL,
			realized_pnl REAL NOT NULL,
			unrealized_pnl REAL NOT NULL,
			fee REAL NOT NULL,
			net_worth REAL NOT NULL,
			leverage REAL NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trade_records_symbol ON trade_records(symbol);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveTradeRecord(ctx context.Context, symbol string, rec *domain.TradeRecord) error {
	query := `INSERT INTO trade_records (symbol, type, price, amount, realized_pnl, unrealized_pnl, fee, net_worth, leverage, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		symbol, string(rec.Type), rec.Price, rec.Amount, rec.RealizedPnL,
		rec.UnrealizedPnL, rec.Fee, rec.NetWorth, rec.Leverage, rec.Timestamp)
	return err
}

func (s *SQLiteStore) ListTradeRecords(ctx context.Context, symbol string, limit int) ([]*domain.TradeRecord, error) {
	query := `SELECT type, price, amount, realized_pnl, unrealized_pnl, fee, net_worth, leverage, created_at
			  FROM trade_records WHERE symbol = ? ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.TradeRecord
	for rows.Next() {
		var rec domain.TradeRecord
		var recType string
		if err := rows.Scan(&recType, &rec.Price, &rec.Amount, &rec.RealizedPnL,
			&rec.UnrealizedPnL, &rec.Fee, &rec.NetWorth, &rec.Leverage, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.Type = domain.PositionType(recType)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
