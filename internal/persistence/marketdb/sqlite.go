// Package marketdb mirrors the market board into sqlite so a node restart
// rehydrates listings, account balances and the applied balance-delta
// ledger. Writes go through a single writer goroutine; reads only happen at
// boot.
package marketdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"gridhangar/internal/protocol"
)

type DB struct {
	db *sql.DB

	ch chan req
	wg sync.WaitGroup

	// mu orders submits against Close: the channel is only closed while no
	// send can be in flight.
	mu     sync.Mutex
	closed bool
}

type reqKind int

const (
	reqUpsertListing reqKind = iota + 1
	reqDeleteListing
	reqUpsertAccount
	reqRecordSeq
)

type req struct {
	kind reqKind

	listing   protocol.Listing
	listingID string

	platformID uint64
	name       string
	balance    int64
	seq        uint64
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	d := &DB{
		db: db,
		ch: make(chan req, 4096),
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()
	return d, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-heavy replication traffic.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS listings (
			listing_id TEXT PRIMARY KEY,
			data BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS accounts (
			platform_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			balance INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS applied_seqs (
			platform_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			PRIMARY KEY (platform_id, seq)
		);`,
	}
	for _, s := range schema {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

func (d *DB) loop() {
	for r := range d.ch {
		var err error
		switch r.kind {
		case reqUpsertListing:
			var b []byte
			b, err = json.Marshal(r.listing)
			if err == nil {
				_, err = d.db.Exec(
					`INSERT INTO listings (listing_id, data) VALUES (?, ?)
					 ON CONFLICT(listing_id) DO UPDATE SET data=excluded.data`,
					r.listing.ListingID, b)
			}
		case reqDeleteListing:
			_, err = d.db.Exec(`DELETE FROM listings WHERE listing_id = ?`, r.listingID)
		case reqUpsertAccount:
			_, err = d.db.Exec(
				`INSERT INTO accounts (platform_id, name, balance) VALUES (?, ?, ?)
				 ON CONFLICT(platform_id) DO UPDATE SET name=excluded.name, balance=excluded.balance`,
				r.platformID, r.name, r.balance)
		case reqRecordSeq:
			_, err = d.db.Exec(
				`INSERT OR IGNORE INTO applied_seqs (platform_id, seq) VALUES (?, ?)`,
				r.platformID, r.seq)
		}
		if err != nil {
			// The board stays authoritative in memory; a lost mirror write
			// is recoverable on the next full sync.
			fmt.Fprintf(os.Stderr, "marketdb: write: %v\n", err)
		}
	}
}

func (d *DB) submit(r req) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.ch <- r
}

func (d *DB) UpsertListing(l protocol.Listing) {
	d.submit(req{kind: reqUpsertListing, listing: l})
}

func (d *DB) DeleteListing(listingID string) {
	d.submit(req{kind: reqDeleteListing, listingID: listingID})
}

func (d *DB) UpsertAccount(platformID uint64, name string, balance int64) {
	d.submit(req{kind: reqUpsertAccount, platformID: platformID, name: name, balance: balance})
}

func (d *DB) RecordSeq(platformID uint64, seq uint64) {
	d.submit(req{kind: reqRecordSeq, platformID: platformID, seq: seq})
}

// Listings reads every stored listing. Boot-time only.
func (d *DB) Listings() ([]protocol.Listing, error) {
	rows, err := d.db.Query(`SELECT data FROM listings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []protocol.Listing
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		var l protocol.Listing
		if err := json.Unmarshal(b, &l); err != nil {
			return nil, fmt.Errorf("listing decode: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Accounts reads every stored account balance. Boot-time only.
func (d *DB) Accounts() (map[uint64]AccountRow, error) {
	rows, err := d.db.Query(`SELECT platform_id, name, balance FROM accounts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[uint64]AccountRow{}
	for rows.Next() {
		var a AccountRow
		if err := rows.Scan(&a.PlatformID, &a.Name, &a.Balance); err != nil {
			return nil, err
		}
		out[a.PlatformID] = a
	}
	return out, rows.Err()
}

// AppliedSeqs reads the balance-delta dedupe ledger. Boot-time only.
func (d *DB) AppliedSeqs() (map[uint64]map[uint64]bool, error) {
	rows, err := d.db.Query(`SELECT platform_id, seq FROM applied_seqs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[uint64]map[uint64]bool{}
	for rows.Next() {
		var pid, seq uint64
		if err := rows.Scan(&pid, &seq); err != nil {
			return nil, err
		}
		if out[pid] == nil {
			out[pid] = map[uint64]bool{}
		}
		out[pid][seq] = true
	}
	return out, rows.Err()
}

type AccountRow struct {
	PlatformID uint64
	Name       string
	Balance    int64
}

func (d *DB) Close() error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
	return d.db.Close()
}
