// Package sqlitecas stores envelopes in a single SQLite database file.
package sqlitecas

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ipfs/go-cid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"xdao.co/sealkit/cidutil"
	"xdao.co/sealkit/storage"
)

// migrations is an ordered list of idempotent statements applied on open.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS objects (
		cid       TEXT PRIMARY KEY,
		data      BLOB NOT NULL,
		size      INTEGER NOT NULL,
		stored_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS objects_stored_at ON objects (stored_at)`,
}

// CAS implements storage.CAS on SQLite.
type CAS struct {
	db  *sql.DB
	now func() time.Time
}

var _ storage.CAS = (*CAS)(nil)

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*CAS, error) {
	if path == "" {
		return nil, errors.New("sqlitecas: database path is required")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite handles one writer at a time.

	c := &CAS{db: db, now: time.Now}
	if err := c.migrate(); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return c, nil
}

func (c *CAS) migrate() error {
	for _, stmt := range migrations {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration: %w", err)
		}
	}
	return nil
}

func (c *CAS) Close() error { return c.db.Close() }

func (c *CAS) Put(ctx context.Context, b []byte) (cid.Cid, error) {
	id, err := cidutil.Sum(b)
	if err != nil {
		return cid.Undef, err
	}
	res, err := c.db.ExecContext(ctx,
		`INSERT INTO objects (cid, data, size, stored_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(cid) DO NOTHING`,
		id.String(), b, len(b), c.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return cid.Undef, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return id, nil
	}

	existing, err := c.Get(ctx, id)
	if err != nil || !bytes.Equal(existing, b) {
		return cid.Undef, storage.ErrImmutable
	}
	return id, nil
}

func (c *CAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	var b []byte
	err := c.db.QueryRowContext(ctx, `SELECT data FROM objects WHERE cid = ?`, id.String()).Scan(&b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if err := cidutil.Verify(id, b); err != nil {
		return nil, storage.ErrCIDMismatch
	}
	return b, nil
}

func (c *CAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if !id.Defined() {
		return false, nil
	}
	var one int
	err := c.db.QueryRowContext(ctx, `SELECT 1 FROM objects WHERE cid = ?`, id.String()).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Entry is one row of List.
type Entry struct {
	CID      cid.Cid
	Size     int
	StoredAt time.Time
}

// List returns every stored object, oldest first.
func (c *CAS) List(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT cid, size, stored_at FROM objects ORDER BY stored_at, cid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []Entry
	for rows.Next() {
		var s, stored string
		var e Entry
		if err := rows.Scan(&s, &e.Size, &stored); err != nil {
			return nil, err
		}
		if e.CID, err = cid.Decode(s); err != nil {
			return nil, fmt.Errorf("sqlitecas: bad cid %q: %w", s, err)
		}
		e.StoredAt, _ = time.Parse(time.RFC3339Nano, stored)
		out = append(out, e)
	}
	return out, rows.Err()
}
