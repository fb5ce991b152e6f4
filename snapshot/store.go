// Package snapshot persists discovered symbol tables in SQLite so that
// declarations can be regenerated from the exact same input later, without
// the host or discovery command being available.
package snapshot

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/declgen/db"
	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/logger"
	"github.com/teranos/declgen/symbol"
)

const (
	roleProperty = "property"
	roleParam    = "param"
)

// createdLayout is fixed width so created_at sorts chronologically as text.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Snapshot describes one stored symbol table.
type Snapshot struct {
	ID        string
	Source    string
	Note      string
	Count     int
	CreatedAt time.Time
}

// Store reads and writes snapshots. It is safe for concurrent use to the
// extent *sql.DB is.
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewStore wraps a migrated database.
func NewStore(database *sql.DB, l *zap.SugaredLogger) *Store {
	return &Store{
		db:     database,
		logger: logger.OrNop(l),
		now:    time.Now,
	}
}

// Open opens (creating and migrating if needed) the snapshot database at path.
func Open(path string, l *zap.SugaredLogger) (*Store, error) {
	database, err := db.OpenWithMigrations(path, l)
	if err != nil {
		return nil, err
	}
	return NewStore(database, l), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores symbols in order and returns the new snapshot.
func (s *Store) Save(ctx context.Context, source, note string, symbols []symbol.Descriptor) (*Snapshot, error) {
	snap := &Snapshot{
		ID:        uuid.New().String(),
		Source:    source,
		Note:      note,
		Count:     len(symbols),
		CreatedAt: s.now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapDB(err, "begin snapshot transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, source, note, symbol_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.Source, snap.Note, snap.Count, snap.CreatedAt.Format(createdLayout),
	)
	if err != nil {
		return nil, wrapDB(err, "insert snapshot")
	}

	symStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO symbols (snapshot_id, position, kind, name, int_value, str_value, return_type) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, wrapDB(err, "prepare symbol insert")
	}
	defer symStmt.Close()

	partStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO symbol_parts (snapshot_id, position, role, part_index, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, wrapDB(err, "prepare symbol part insert")
	}
	defer partStmt.Close()

	for pos, sym := range symbols {
		var intVal, strVal, retVal any
		switch sym.Kind {
		case symbol.IntegerConstant:
			intVal = sym.Int
		case symbol.StringConstant:
			strVal = sym.Str
		case symbol.Callable:
			retVal = sym.Return
		}

		if _, err := symStmt.ExecContext(ctx, snap.ID, pos, sym.Kind.String(), sym.Name, intVal, strVal, retVal); err != nil {
			return nil, wrapDB(err, "insert symbol %s", sym.Name)
		}

		parts := map[string][]string{roleProperty: sym.Properties, roleParam: sym.Params}
		for _, role := range []string{roleProperty, roleParam} {
			for i, v := range parts[role] {
				if _, err := partStmt.ExecContext(ctx, snap.ID, pos, role, i, v); err != nil {
					return nil, wrapDB(err, "insert %s of %s", role, sym.Name)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapDB(err, "commit snapshot")
	}

	s.logger.Infow("Saved snapshot",
		logger.FieldSnapshotID, snap.ID,
		logger.FieldSource, source,
		logger.FieldCount, snap.Count,
	)
	return snap, nil
}

// Get returns the snapshot whose id is, or uniquely starts with, idOrPrefix.
func (s *Store) Get(ctx context.Context, idOrPrefix string) (*Snapshot, error) {
	if idOrPrefix == "" {
		return nil, errors.NewInvalidRequestError("snapshot id is empty")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, note, symbol_count, created_at FROM snapshots
		 WHERE substr(id, 1, length(?)) = ?
		 ORDER BY created_at DESC, rowid DESC`,
		idOrPrefix, idOrPrefix,
	)
	if err != nil {
		return nil, wrapDB(err, "query snapshot %s", idOrPrefix)
	}
	snaps, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}

	for i := range snaps {
		if snaps[i].ID == idOrPrefix {
			return &snaps[i], nil
		}
	}
	if len(snaps) == 0 {
		return nil, errors.WithHint(
			errors.NewNotFoundError("snapshot %s", idOrPrefix),
			"list stored snapshots with: declgen snapshot ls",
		)
	}
	if len(snaps) > 1 {
		return nil, errors.NewInvalidRequestError("snapshot prefix %s matches %d snapshots", idOrPrefix, len(snaps))
	}
	return &snaps[0], nil
}

// Latest returns the most recently saved snapshot.
func (s *Store) Latest(ctx context.Context) (*Snapshot, error) {
	snaps, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, errors.WithHint(
			errors.NewNotFoundError("no snapshots stored"),
			"save one with: declgen snapshot save",
		)
	}
	return &snaps[0], nil
}

// List returns snapshots newest first. limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, note, symbol_count, created_at FROM snapshots
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, wrapDB(err, "list snapshots")
	}
	return scanSnapshots(rows)
}

// Load returns the symbols of a snapshot in their saved order. An empty id
// loads the latest snapshot.
func (s *Store) Load(ctx context.Context, id string) ([]symbol.Descriptor, error) {
	var snap *Snapshot
	var err error
	if id == "" {
		snap, err = s.Latest(ctx)
	} else {
		snap, err = s.Get(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT position, kind, name, int_value, str_value, return_type FROM symbols
		 WHERE snapshot_id = ? ORDER BY position`, snap.ID)
	if err != nil {
		return nil, wrapDB(err, "query symbols of %s", snap.ID)
	}
	defer rows.Close()

	symbols := make([]symbol.Descriptor, 0, snap.Count)
	for rows.Next() {
		var (
			pos    int
			kind   string
			d      symbol.Descriptor
			intVal sql.NullInt64
			strVal sql.NullString
			retVal sql.NullString
		)
		if err := rows.Scan(&pos, &kind, &d.Name, &intVal, &strVal, &retVal); err != nil {
			return nil, wrapDB(err, "scan symbol")
		}
		if d.Kind, err = symbol.ParseKind(kind); err != nil {
			return nil, errors.Wrapf(err, "snapshot %s position %d", snap.ID, pos)
		}
		d.Int = intVal.Int64
		d.Str = strVal.String
		d.Return = retVal.String
		symbols = append(symbols, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDB(err, "iterate symbols")
	}

	if err := s.loadParts(ctx, snap.ID, symbols); err != nil {
		return nil, err
	}

	s.logger.Debugw("Loaded snapshot",
		logger.FieldSnapshotID, snap.ID,
		logger.FieldCount, len(symbols),
	)
	return symbols, nil
}

func (s *Store) loadParts(ctx context.Context, id string, symbols []symbol.Descriptor) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, role, value FROM symbol_parts
		 WHERE snapshot_id = ? ORDER BY position, role, part_index`, id)
	if err != nil {
		return wrapDB(err, "query symbol parts of %s", id)
	}
	defer rows.Close()

	for rows.Next() {
		var pos int
		var role, value string
		if err := rows.Scan(&pos, &role, &value); err != nil {
			return wrapDB(err, "scan symbol part")
		}
		if pos < 0 || pos >= len(symbols) {
			return errors.Newf("snapshot %s has a part for missing position %d", id, pos)
		}
		switch role {
		case roleProperty:
			symbols[pos].Properties = append(symbols[pos].Properties, value)
		case roleParam:
			symbols[pos].Params = append(symbols[pos].Params, value)
		}
	}
	return wrapDB(rows.Err(), "iterate symbol parts")
}

// Delete removes a snapshot and its symbols.
func (s *Store) Delete(ctx context.Context, idOrPrefix string) error {
	snap, err := s.Get(ctx, idOrPrefix)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, snap.ID); err != nil {
		return wrapDB(err, "delete snapshot %s", snap.ID)
	}
	s.logger.Infow("Deleted snapshot", logger.FieldSnapshotID, snap.ID)
	return nil
}

func scanSnapshots(rows *sql.Rows) ([]Snapshot, error) {
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var created string
		if err := rows.Scan(&snap.ID, &snap.Source, &snap.Note, &snap.Count, &created); err != nil {
			return nil, wrapDB(err, "scan snapshot")
		}
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, errors.Wrapf(err, "snapshot %s has invalid created_at %q", snap.ID, created)
		}
		snap.CreatedAt = t
		out = append(out, snap)
	}
	return out, wrapDB(rows.Err(), "iterate snapshots")
}

// wrapDB wraps err with context, normalising closed-database errors so
// callers can test for db.ErrDatabaseClosed. nil stays nil.
func wrapDB(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if db.IsDatabaseClosed(err) {
		return errors.Wrapf(db.ErrDatabaseClosed, format, args...)
	}
	return errors.Wrapf(err, format, args...)
}
