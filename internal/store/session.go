package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// WriteSession is the lower-level persistence API: records are staged in
// memory, made durable by Flush, and dropped from tracking by Release. One
// session serves one logical call; it is not safe for concurrent use.
type WriteSession struct {
	db       *sql.DB
	postgres bool
	staged   []*Record
}

// NewWriteSession opens a write session against the store's connection pool.
func NewWriteSession(store *Store) *WriteSession {
	return &WriteSession{
		db:       store.GetRawDB(),
		postgres: store.postgres,
	}
}

// Stage marks a record for write-back without touching the database.
func (ws *WriteSession) Stage(rec *Record) {
	ws.staged = append(ws.staged, rec)
}

// StagedCount returns the number of records staged and not yet released.
func (ws *WriteSession) StagedCount() int {
	return len(ws.staged)
}

// Flush writes all staged records in one transaction and assigns their
// store-generated IDs. A no-op when nothing is staged. On failure the staged
// set is kept, so no record is silently dropped.
func (ws *WriteSession) Flush(ctx context.Context) error {
	if len(ws.staged) == 0 {
		return nil
	}

	query, args := ws.buildInsert()

	tx, err := ws.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapStoreErr("begin flush", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		_ = tx.Rollback()
		return wrapStoreErr("flush", err)
	}

	// RETURNING yields one ID per staged record, in insertion order.
	idx := 0
	for rows.Next() {
		if idx >= len(ws.staged) {
			break
		}
		if err := rows.Scan(&ws.staged[idx].ID); err != nil {
			rows.Close()
			_ = tx.Rollback()
			return wrapStoreErr("scan flushed id", err)
		}
		idx++
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		_ = tx.Rollback()
		return wrapStoreErr("read flushed ids", err)
	}
	rows.Close()

	if err := tx.Commit(); err != nil {
		return wrapStoreErr("commit flush", err)
	}
	return nil
}

// Release drops in-memory tracking of staged records so peak memory is
// bounded by the flush cadence, not the input size.
func (ws *WriteSession) Release() {
	ws.staged = nil
}

// buildInsert builds a multi-row INSERT ... RETURNING id for the staged set.
func (ws *WriteSession) buildInsert() (string, []any) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO records (number_value, name) VALUES ")

	args := make([]any, 0, len(ws.staged)*2)
	for i, rec := range ws.staged {
		if i > 0 {
			sb.WriteString(", ")
		}
		if ws.postgres {
			fmt.Fprintf(&sb, "($%d, $%d)", 2*i+1, 2*i+2)
		} else {
			sb.WriteString("(?, ?)")
		}
		args = append(args, rec.Number, rec.Name)
	}
	sb.WriteString(" RETURNING id")

	return sb.String(), args
}

// QueryAll returns every record via explicit SQL, the session-side counterpart
// of RecordStore.FindAll.
func (ws *WriteSession) QueryAll(ctx context.Context) ([]Record, error) {
	rows, err := ws.db.QueryContext(ctx, "SELECT id, number_value, name FROM records")
	if err != nil {
		return nil, wrapStoreErr("query all", err)
	}
	return scanRecords(rows)
}

// QueryByName returns all records whose name contains fragment as a
// case-insensitive substring, via a single parameterized query.
func (ws *WriteSession) QueryByName(ctx context.Context, fragment string) ([]Record, error) {
	query := `SELECT id, number_value, name FROM records WHERE LOWER(name) LIKE LOWER(` + ws.placeholder(1) + `) ESCAPE '\'`
	rows, err := ws.db.QueryContext(ctx, query, likePattern(fragment))
	if err != nil {
		return nil, wrapStoreErr("query by name", err)
	}
	return scanRecords(rows)
}

// placeholder returns the dialect's positional parameter marker.
func (ws *WriteSession) placeholder(n int) string {
	if ws.postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// scanRecords drains rows into a record slice, always closing rows.
func scanRecords(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Number, &rec.Name); err != nil {
			return nil, wrapStoreErr("scan record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("read records", err)
	}
	return records, nil
}
