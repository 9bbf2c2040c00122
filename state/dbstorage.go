package state

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ts4z/clicktunes/dbnotify"
	"github.com/ts4z/clicktunes/dbutil"
	"github.com/ts4z/clicktunes/soundmodel"
)

const createSoundsTable = `CREATE TABLE IF NOT EXISTS sounds (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	sound_path TEXT NOT NULL
);`

// DBStorage keeps sounds in PostgreSQL, for deployments that run more
// than one server.  Writes are announced on dbnotify.Channel, tagged with
// origin so the writer can ignore its own events.
type DBStorage struct {
	db     *sql.DB
	origin string
}

var _ SoundStorage = (*DBStorage)(nil)

// NewDBStorage takes ownership of db, checks that it answers, and creates
// the sounds table if it isn't there yet.
func NewDBStorage(ctx context.Context, db *sql.DB, origin string) (*DBStorage, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, unavailable("ping database", err)
	}
	if _, err := db.ExecContext(ctx, createSoundsTable); err != nil {
		db.Close()
		return nil, unavailable("create sounds table", err)
	}
	return &DBStorage{db: db, origin: origin}, nil
}

func (s *DBStorage) Close() {
	s.db.Close()
}

// DB is the pool, for listening to other servers' writes.
func (s *DBStorage) DB() *sql.DB {
	return s.db
}

func (s *DBStorage) Origin() string {
	return s.origin
}

// AddSound implements SoundStorage.
func (s *DBStorage) AddSound(ctx context.Context, sr *soundmodel.SoundRecord) (int64, error) {
	var id int64
	err := dbutil.InTx(ctx, s.db, func(tx *dbutil.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO sounds (name, sound_path) VALUES ($1, $2) RETURNING id;`,
			sr.Name, sr.SoundPath).Scan(&id)
		if err != nil {
			return err
		}
		return dbnotify.Publish(ctx, tx, &dbnotify.Event{Op: dbnotify.OpAdded, ID: id, Origin: s.origin})
	})
	if err != nil {
		return 0, writeError("add sound", err)
	}
	zap.S().Infof("wrote sound %d (%q)", id, sr.Name)
	return id, nil
}

// RemoveSound implements SoundStorage.
func (s *DBStorage) RemoveSound(ctx context.Context, id int64) error {
	err := dbutil.InTx(ctx, s.db, func(tx *dbutil.Tx) error {
		res, err := tx.Exec(ctx, `DELETE FROM sounds WHERE id=$1;`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		return dbnotify.Publish(ctx, tx, &dbnotify.Event{Op: dbnotify.OpRemoved, ID: id, Origin: s.origin})
	})
	if err != nil {
		return writeError("remove sound", err)
	}
	return nil
}

// ListSounds implements SoundStorage.
func (s *DBStorage) ListSounds(ctx context.Context) ([]*soundmodel.SoundRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, sound_path FROM sounds ORDER BY id;`)
	if err != nil {
		return nil, readError("list sounds", err)
	}
	defer rows.Close()

	sounds := []*soundmodel.SoundRecord{}
	for rows.Next() {
		sr := &soundmodel.SoundRecord{}
		if err := rows.Scan(&sr.ID, &sr.Name, &sr.SoundPath); err != nil {
			zap.S().Warnf("row scan failed: %v", err)
			continue
		}
		sounds = append(sounds, sr)
	}
	if rows.Err() != nil {
		return nil, readError("list sounds", rows.Err())
	}
	return sounds, nil
}

// FetchSound implements SoundStorage.
func (s *DBStorage) FetchSound(ctx context.Context, id int64) (*soundmodel.SoundRecord, error) {
	sr := &soundmodel.SoundRecord{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, sound_path FROM sounds WHERE id=$1;`, id).Scan(&sr.ID, &sr.Name, &sr.SoundPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, soundNotFound(id)
	}
	if err != nil {
		return nil, readError("fetch sound", err)
	}
	return sr, nil
}
