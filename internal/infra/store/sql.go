package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	zlog "github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/knowledge"
	"github.com/KuotenoAshiato/spotify-jukebox/internal/domain/room"
)

// globalRowID is the single row of the global_knowledge table.
const globalRowID = 1

var schema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id         TEXT PRIMARY KEY,
		state      TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS global_knowledge (
		id         INTEGER PRIMARY KEY,
		state      TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
}

// SQLStore stores snapshots as JSON documents in a SQL database.
type SQLStore struct {
	db *sqlx.DB
}

type stateRow struct {
	ID    string `db:"id"`
	State string `db:"state"`
}

// OpenSQLite opens or creates a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite database")
	}
	// A single connection avoids SQLITE_BUSY between concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to configure sqlite database")
	}
	return newSQLStore(ctx, db)
}

// OpenPostgres connects to a PostgreSQL database.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres database")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}
	return newSQLStore(ctx, db)
}

func newSQLStore(ctx context.Context, db *sqlx.DB) (*SQLStore, error) {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "failed to create tables")
		}
	}
	return &SQLStore{db: db}, nil
}

// LoadSnapshot reads all rooms and the global knowledge. Rows that cannot be
// decoded are skipped.
func (s *SQLStore) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	snap := emptySnapshot()

	var rows []stateRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, state FROM rooms`); err != nil {
		return Snapshot{}, errors.Wrap(err, "failed to load rooms")
	}
	for _, row := range rows {
		var r room.Room
		if err := json.Unmarshal([]byte(row.State), &r); err != nil {
			zlog.Warn().Msgf("skipping undecodable room: room_id=%s error=%v", row.ID, err)
			continue
		}
		r.ID = row.ID
		r.Normalize()
		snap.Rooms[r.ID] = &r
	}

	var state string
	err := s.db.GetContext(ctx, &state,
		s.db.Rebind(`SELECT state FROM global_knowledge WHERE id = ?`), globalRowID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Snapshot{}, errors.Wrap(err, "failed to load global knowledge")
	default:
		var g knowledge.Global
		if err := json.Unmarshal([]byte(state), &g); err != nil {
			return Snapshot{}, errors.Wrap(err, "failed to decode global knowledge")
		}
		g.Normalize()
		if g.Conflicts == nil {
			g.Conflicts = []knowledge.Conflict{}
		}
		snap.Global = g
	}

	return snap, nil
}

// SaveRoomStates upserts the rooms in one transaction.
func (s *SQLStore) SaveRoomStates(ctx context.Context, rooms []*room.Room) error {
	if len(rooms) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	query := tx.Rebind(`INSERT INTO rooms (id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`)
	now := time.Now().UnixMilli()
	for _, r := range rooms {
		data, err := json.Marshal(r)
		if err != nil {
			return errors.Wrapf(err, "failed to encode room %s", r.ID)
		}
		if _, err := tx.ExecContext(ctx, query, r.ID, string(data), now); err != nil {
			return errors.Wrapf(err, "failed to save room %s", r.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit rooms")
	}
	return nil
}

// SaveGlobalKnowledge upserts the global knowledge row.
func (s *SQLStore) SaveGlobalKnowledge(ctx context.Context, g knowledge.Global) error {
	data, err := json.Marshal(g)
	if err != nil {
		return errors.Wrap(err, "failed to encode global knowledge")
	}
	_, err = s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO global_knowledge (id, state, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`),
		globalRowID, string(data), time.Now().UnixMilli())
	if err != nil {
		return errors.Wrap(err, "failed to save global knowledge")
	}
	return nil
}

// DeleteRoom removes a room. Deleting an unknown room is not an error.
func (s *SQLStore) DeleteRoom(ctx context.Context, roomID string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM rooms WHERE id = ?`), roomID); err != nil {
		return errors.Wrapf(err, "failed to delete room %s", roomID)
	}
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
