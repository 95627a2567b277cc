// Package saves keeps whole-store snapshots in a SQLite database, grouped
// into named slots.
package saves

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/plus3/flatecs/ecs"
	"github.com/rotisserie/eris"
)

//go:embed schema.sql
var schemaSQL string

// ErrNoSave is returned when no save matches an id or slot.
var ErrNoSave = eris.New("save not found")

// Save describes one stored snapshot.
type Save struct {
	ID           uuid.UUID
	Slot         string
	Config       ecs.Config
	LiveEntities int
	Size         int
	CreatedAt    time.Time
}

// Store provides durable storage for snapshots.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens a SQLite database at the given path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, eris.Wrap(err, "open saves database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, eris.Wrapf(err, "connect to saves database %s", path)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		schemaSQL,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "prepare saves database %s", path)
		}
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put snapshots storage into a new save under slot.
func (s *Store) Put(ctx context.Context, slot string, storage *ecs.Storage) (Save, error) {
	var buf bytes.Buffer
	buf.Grow(storage.SnapshotSize())
	if err := storage.Save(&buf); err != nil {
		return Save{}, err
	}
	return s.insert(ctx, slot, storage.Config(), storage.Len(), buf.Bytes())
}

// PutBlob stores a snapshot produced elsewhere, such as a file written by
// SaveFile. The blob must load cleanly into a store built with cfg.
func (s *Store) PutBlob(ctx context.Context, slot string, cfg ecs.Config, blob []byte) (Save, error) {
	scratch, err := ecs.NewStorage(cfg)
	if err != nil {
		return Save{}, err
	}
	if err := scratch.Load(bytes.NewReader(blob)); err != nil {
		return Save{}, eris.Wrapf(err, "import into slot %q", slot)
	}
	return s.insert(ctx, slot, cfg, scratch.Len(), blob)
}

func (s *Store) insert(ctx context.Context, slot string, cfg ecs.Config, live int, blob []byte) (Save, error) {
	save := Save{
		ID:           uuid.New(),
		Slot:         slot,
		Config:       cfg,
		LiveEntities: live,
		Size:         len(blob),
		CreatedAt:    s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saves (id, slot, max_entities, max_component_kinds, max_component_size, live_entities, snapshot, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		save.ID.String(), slot, cfg.MaxEntities, cfg.MaxComponentKinds, cfg.MaxComponentSize,
		live, blob, save.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Save{}, eris.Wrapf(err, "insert save into slot %q", slot)
	}
	return save, nil
}

const selectColumns = `id, slot, max_entities, max_component_kinds, max_component_size, live_entities, length(snapshot), created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSave(row scanner, extra ...any) (Save, error) {
	var (
		save    Save
		id      string
		created int64
	)
	dest := append([]any{
		&id, &save.Slot,
		&save.Config.MaxEntities, &save.Config.MaxComponentKinds, &save.Config.MaxComponentSize,
		&save.LiveEntities, &save.Size, &created,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Save{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return Save{}, eris.Wrapf(err, "save id %q", id)
	}
	save.ID = parsed
	save.CreatedAt = time.Unix(0, created).UTC()
	return save, nil
}

// Get returns the save with the given id and its snapshot blob.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Save, []byte, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+`, snapshot FROM saves WHERE id = ?`, id.String())
	return s.scanOne(row, "save "+id.String())
}

// Latest returns the most recent save in slot.
func (s *Store) Latest(ctx context.Context, slot string) (Save, []byte, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+`, snapshot FROM saves WHERE slot = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, slot)
	return s.scanOne(row, "slot "+slot)
}

func (s *Store) scanOne(row *sql.Row, what string) (Save, []byte, error) {
	var blob []byte
	save, err := scanSave(row, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return Save{}, nil, eris.Wrap(ErrNoSave, what)
	}
	if err != nil {
		return Save{}, nil, eris.Wrapf(err, "read %s", what)
	}
	return save, blob, nil
}

// Restore loads the save with the given id into storage. The storage must
// have been built with the capacities the save was taken with.
func (s *Store) Restore(ctx context.Context, id uuid.UUID, storage *ecs.Storage) error {
	save, blob, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if save.Config != storage.Config() {
		return eris.Wrapf(ecs.ErrFormatMismatch, "restore %s: saved with %+v, storage has %+v", id, save.Config, storage.Config())
	}
	return storage.Load(bytes.NewReader(blob))
}

// List returns every save, newest first, without snapshot data.
func (s *Store) List(ctx context.Context) ([]Save, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM saves ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "list saves")
	}
	defer rows.Close()

	var out []Save
	for rows.Next() {
		save, err := scanSave(rows)
		if err != nil {
			return nil, eris.Wrap(err, "list saves")
		}
		out = append(out, save)
	}
	return out, eris.Wrap(rows.Err(), "list saves")
}

// Delete removes a save.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE id = ?`, id.String())
	if err != nil {
		return eris.Wrapf(err, "delete save %s", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return eris.Wrapf(ErrNoSave, "delete save %s", id)
	}
	return nil
}
