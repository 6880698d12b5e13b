// Package catalog provides the seed set of tracked quotes. The catalog is
// fixed at startup: it defines the ID universe for the life of the process.
package catalog

import (
	"database/sql"
	"fmt"
	"log"

	"quotefeed/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Default returns the built-in catalog used when no SQLite catalog is
// configured.
func Default() []model.Quote {
	return []model.Quote{
		{ID: "token:ethereum:native", Symbol: "ETH", Name: "Ethereum", Price: 2250.50, ChangePercent: 2.5},
		{ID: "token:bitcoin:native", Symbol: "BTC", Name: "Bitcoin", Price: 43500.00, ChangePercent: 1.8},
		{ID: "token:solana:native", Symbol: "SOL", Name: "Solana", Price: 98.75, ChangePercent: -0.5},
	}
}

// LoadSQLite reads the catalog from a SQLite database. The quotes table
// carries one row per instrument: id, symbol, name, price, change_pct.
// Row order (rowid) becomes the store's stable iteration order.
func LoadSQLite(dbPath string) ([]model.Quote, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("catalog open: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	rows, err := db.Query(`
		SELECT id, symbol, name, price, change_pct
		FROM quotes
		ORDER BY rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("catalog query quotes: %w", err)
	}
	defer rows.Close()

	var out []model.Quote
	for rows.Next() {
		var q model.Quote
		if err := rows.Scan(&q.ID, &q.Symbol, &q.Name, &q.Price, &q.ChangePercent); err != nil {
			return nil, fmt.Errorf("catalog scan quotes: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("catalog %s: quotes table is empty", dbPath)
	}
	log.Printf("[catalog] loaded %d quotes from %s", len(out), dbPath)
	return out, nil
}
