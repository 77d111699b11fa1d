package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"boomtrees.dev/internal/sim/world/audit"
	"boomtrees.dev/internal/sim/world/terrain/features"
)

// Reader runs queries against an index database.
type Reader struct {
	db    *sql.DB
	owned bool
}

// OpenReader opens an existing index for queries only.
func OpenReader(path string) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Reader{db: db, owned: true}, nil
}

// Close releases a Reader from OpenReader. Readers borrowed from an open
// SQLiteIndex leave the connection alone.
func (r *Reader) Close() error {
	if !r.owned {
		return nil
	}
	return r.db.Close()
}

const auditCols = `tick, actor, action, x, y, z, from_block, to_block, COALESCE(reason, '')`

func scanAudits(rows *sql.Rows) ([]audit.Entry, error) {
	defer rows.Close()
	var out []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var tick int64
		if err := rows.Scan(&tick, &e.Actor, &e.Action, &e.Pos[0], &e.Pos[1], &e.Pos[2], &e.From, &e.To, &e.Reason); err != nil {
			return nil, err
		}
		e.Tick = uint64(tick)
		out = append(out, e)
	}
	return out, rows.Err()
}

// AuditsAt returns the transitions recorded at pos, oldest first.
func (r *Reader) AuditsAt(ctx context.Context, pos [3]int, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auditCols+` FROM audits WHERE x = ? AND z = ? AND y = ? ORDER BY tick, seq LIMIT ?`,
		pos[0], pos[2], pos[1], limit)
	if err != nil {
		return nil, err
	}
	return scanAudits(rows)
}

func (r *Reader) AuditsByActor(ctx context.Context, actor string, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auditCols+` FROM audits WHERE actor = ? ORDER BY tick, seq LIMIT ?`, actor, limit)
	if err != nil {
		return nil, err
	}
	return scanAudits(rows)
}

func (r *Reader) CountByAction(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT action, COUNT(*) FROM audits GROUP BY action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, err
		}
		out[action] = n
	}
	return out, rows.Err()
}

func (r *Reader) Reports(ctx context.Context) ([]features.Report, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT biome, replaced, appended FROM worldgen ORDER BY biome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []features.Report
	for rows.Next() {
		var rep features.Report
		var replaced, appended string
		if err := rows.Scan(&rep.Biome, &replaced, &appended); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(replaced), &rep.Replaced); err != nil {
			return nil, fmt.Errorf("worldgen %s: %w", rep.Biome, err)
		}
		if err := json.Unmarshal([]byte(appended), &rep.Appended); err != nil {
			return nil, fmt.Errorf("worldgen %s: %w", rep.Biome, err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// CatalogDigest returns the stored digest of a catalog row, or "" when the
// row is missing.
func (r *Reader) CatalogDigest(ctx context.Context, name string) (string, error) {
	var digest string
	err := r.db.QueryRowContext(ctx, `SELECT digest FROM catalogs WHERE name = ?`, name).Scan(&digest)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return digest, err
}
