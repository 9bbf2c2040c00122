package state

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/ts4z/clicktunes/soundmodel"
)

const (
	boltOpenTimeout = 2 * time.Second
)

var soundsBucket = []byte("Sounds")

var errNoBucket = errors.New("bucket Sounds missing")

// BoltStorage keeps sounds in a single bbolt file with one bucket keyed by
// big-endian id, so cursor order is id order.
type BoltStorage struct {
	db *bolt.DB
}

var _ SoundStorage = (*BoltStorage)(nil)

// OpenBoltStorage opens the database at path, creating the file and the
// Sounds bucket on first use.
func OpenBoltStorage(path string) (*BoltStorage, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, unavailable("open "+path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(soundsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, unavailable("initialize "+path, err)
	}
	zap.S().Infof("opened sound store %s", path)
	return &BoltStorage{db: db}, nil
}

func (s *BoltStorage) Close() {
	if err := s.db.Close(); err != nil {
		zap.S().Warnf("closing sound store: %v", err)
	}
}

func idKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func bucket(tx *bolt.Tx) (*bolt.Bucket, error) {
	b := tx.Bucket(soundsBucket)
	if b == nil {
		return nil, errNoBucket
	}
	return b, nil
}

// AddSound implements SoundStorage.
func (s *BoltStorage) AddSound(ctx context.Context, sr *soundmodel.SoundRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, writeError("add sound", err)
	}
	var id int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		id = int64(seq)
		row := soundmodel.SoundRecord{ID: id, Name: sr.Name, SoundPath: sr.SoundPath}
		bytes, err := json.Marshal(&row)
		if err != nil {
			return err
		}
		return b.Put(idKey(id), bytes)
	})
	if err != nil {
		return 0, writeError("add sound", err)
	}
	return id, nil
}

// RemoveSound implements SoundStorage.
func (s *BoltStorage) RemoveSound(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return writeError("remove sound", err)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		// Delete of a missing key is a no-op in bolt.
		return b.Delete(idKey(id))
	})
	if err != nil {
		return writeError("remove sound", err)
	}
	return nil
}

// ListSounds implements SoundStorage.
func (s *BoltStorage) ListSounds(ctx context.Context) ([]*soundmodel.SoundRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, readError("list sounds", err)
	}
	sounds := []*soundmodel.SoundRecord{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			sr := &soundmodel.SoundRecord{}
			if err := json.Unmarshal(v, sr); err != nil {
				zap.S().Warnf("skipping unreadable sound %x: %v", k, err)
				return nil
			}
			sounds = append(sounds, sr)
			return nil
		})
	})
	if err != nil {
		return nil, readError("list sounds", err)
	}
	return sounds, nil
}

// FetchSound implements SoundStorage.
func (s *BoltStorage) FetchSound(ctx context.Context, id int64) (*soundmodel.SoundRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, readError("fetch sound", err)
	}
	var sr *soundmodel.SoundRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := bucket(tx)
		if err != nil {
			return err
		}
		v := b.Get(idKey(id))
		if v == nil {
			return nil
		}
		sr = &soundmodel.SoundRecord{}
		return json.Unmarshal(v, sr)
	})
	if err != nil {
		return nil, readError("fetch sound", err)
	}
	if sr == nil {
		return nil, soundNotFound(id)
	}
	return sr, nil
}
