package market

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// PriceObservation is one historical market price record
type PriceObservation struct {
	Crop   string    `json:"crop"`
	Region string    `json:"region"`
	Price  float64   `json:"price"`
	Unit   string    `json:"unit"`
	Date   time.Time `json:"date"`
	Source string    `json:"source"`
}

// Store is the append-only price history database. Appends are
// committed before returning, so a subsequent read always observes
// them. The lock serializes appends against concurrent reads.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenStore opens (or creates) the price history database
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open price store %s: %w", path, err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS market_prices (
		id     INTEGER PRIMARY KEY AUTOINCREMENT,
		crop   TEXT NOT NULL,
		region TEXT NOT NULL,
		price  REAL NOT NULL,
		unit   TEXT NOT NULL,
		date   TEXT NOT NULL,
		source TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create price table: %w", err)
	}

	return &Store{db: db}, nil
}

// Append persists a new price observation
func (s *Store) Append(obs PriceObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO market_prices (crop, region, price, unit, date, source) VALUES (?, ?, ?, ?, ?, ?)",
		obs.Crop, obs.Region, obs.Price, obs.Unit, obs.Date.UTC().Format(time.RFC3339), obs.Source,
	)
	if err != nil {
		return fmt.Errorf("append price observation: %w", err)
	}
	return nil
}

// History returns all observations for a crop/region pair dated
// strictly before the cutoff, ordered by date ascending.
func (s *Store) History(crop, region string, before time.Time) ([]PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT crop, region, price, unit, date, source FROM market_prices WHERE crop = ? AND region = ? AND date < ? ORDER BY date ASC",
		crop, region, before.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// Recent returns observations dated within (since, now], optionally
// filtered by crop and region. Empty filter values match everything.
func (s *Store) Recent(since time.Time, crop, region string) ([]PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT crop, region, price, unit, date, source FROM market_prices WHERE date > ?"
	args := []interface{}{since.UTC().Format(time.RFC3339)}
	if crop != "" {
		query += " AND crop = ?"
		args = append(args, crop)
	}
	if region != "" {
		query += " AND region = ?"
		args = append(args, region)
	}
	query += " ORDER BY date ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent prices: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// scanObservations reads result rows into observations
func scanObservations(rows *sql.Rows) ([]PriceObservation, error) {
	var out []PriceObservation
	for rows.Next() {
		var obs PriceObservation
		var date string
		if err := rows.Scan(&obs.Crop, &obs.Region, &obs.Price, &obs.Unit, &date, &obs.Source); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, date)
		if err != nil {
			return nil, fmt.Errorf("parse price date %q: %w", date, err)
		}
		obs.Date = parsed
		out = append(out, obs)
	}
	return out, rows.Err()
}

// Close closes the underlying database
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
