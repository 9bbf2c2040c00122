package dbcache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ts4z/clicktunes/soundmodel"
)

type countingStorage struct {
	sounds    map[int64]*soundmodel.SoundRecord
	fetches   int
	removeErr error
	closed    bool

	// onFetch runs after a fetch has read its record.
	onFetch func()
}

func (cs *countingStorage) Close() { cs.closed = true }

func (cs *countingStorage) AddSound(ctx context.Context, sr *soundmodel.SoundRecord) (int64, error) {
	id := int64(len(cs.sounds) + 1)
	cs.sounds[id] = &soundmodel.SoundRecord{ID: id, Name: sr.Name, SoundPath: sr.SoundPath}
	return id, nil
}

func (cs *countingStorage) RemoveSound(ctx context.Context, id int64) error {
	if cs.removeErr != nil {
		return cs.removeErr
	}
	delete(cs.sounds, id)
	return nil
}

func (cs *countingStorage) ListSounds(ctx context.Context) ([]*soundmodel.SoundRecord, error) {
	out := []*soundmodel.SoundRecord{}
	for _, sr := range cs.sounds {
		out = append(out, sr)
	}
	return out, nil
}

func (cs *countingStorage) FetchSound(ctx context.Context, id int64) (*soundmodel.SoundRecord, error) {
	cs.fetches++
	if sr, ok := cs.sounds[id]; ok {
		if cs.onFetch != nil {
			cs.onFetch()
		}
		return sr, nil
	}
	return nil, errors.New("not found")
}

func TestFetchIsCached(t *testing.T) {
	ctx := context.Background()
	next := &countingStorage{sounds: map[int64]*soundmodel.SoundRecord{}}
	s := NewSoundStorage(2, next)

	id, err := s.AddSound(ctx, &soundmodel.SoundRecord{Name: "Boo", SoundPath: "boo.mp3"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		sr, err := s.FetchSound(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Boo", sr.Name)
	}
	assert.Equal(t, 1, next.fetches)

	// Callers get copies; scribbling on one doesn't poison the cache.
	sr, _ := s.FetchSound(ctx, id)
	sr.Name = "scribbled"
	sr, _ = s.FetchSound(ctx, id)
	assert.Equal(t, "Boo", sr.Name)
}

func TestRemoveInvalidates(t *testing.T) {
	ctx := context.Background()
	next := &countingStorage{sounds: map[int64]*soundmodel.SoundRecord{}}
	s := NewSoundStorage(0, next)

	id, _ := s.AddSound(ctx, &soundmodel.SoundRecord{Name: "Boo", SoundPath: "boo.mp3"})
	_, err := s.FetchSound(ctx, id)
	require.NoError(t, err)

	require.NoError(t, s.RemoveSound(ctx, id))
	_, err = s.FetchSound(ctx, id)
	require.Error(t, err)
	assert.Equal(t, 2, next.fetches)
}

func TestRemoveFailureStillInvalidates(t *testing.T) {
	ctx := context.Background()
	next := &countingStorage{sounds: map[int64]*soundmodel.SoundRecord{}}
	s := NewSoundStorage(4, next)

	id, _ := s.AddSound(ctx, &soundmodel.SoundRecord{Name: "Boo", SoundPath: "boo.mp3"})
	_, _ = s.FetchSound(ctx, id)

	next.removeErr = errors.New("disk on fire")
	require.Error(t, s.RemoveSound(ctx, id))
	_, err := s.FetchSound(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, next.fetches, "failed remove forces a re-read")

	s.Close()
	assert.True(t, next.closed)
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	next := &countingStorage{sounds: map[int64]*soundmodel.SoundRecord{}}
	s := NewSoundStorage(4, next)

	id, _ := s.AddSound(ctx, &soundmodel.SoundRecord{Name: "Boo", SoundPath: "boo.mp3"})
	_, _ = s.FetchSound(ctx, id)

	// Another server removed it.
	delete(next.sounds, id)
	_, err := s.FetchSound(ctx, id)
	require.NoError(t, err, "still cached")

	s.Forget(id)
	_, err = s.FetchSound(ctx, id)
	require.Error(t, err)
}

func TestRemoveDuringFetchIsNotCached(t *testing.T) {
	ctx := context.Background()
	next := &countingStorage{sounds: map[int64]*soundmodel.SoundRecord{}}
	s := NewSoundStorage(2, next)
	id, err := s.AddSound(ctx, &soundmodel.SoundRecord{Name: "Boo", SoundPath: "boo.mp3"})
	require.NoError(t, err)

	next.onFetch = func() {
		next.onFetch = nil
		require.NoError(t, s.RemoveSound(ctx, id))
	}
	sr, err := s.FetchSound(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Boo", sr.Name, "the fetch read the record before it went")

	_, err = s.FetchSound(ctx, id)
	assert.Error(t, err, "the removed record must not come back from the cache")
	assert.Equal(t, 2, next.fetches)
}

func TestForgetDuringFetchIsNotCached(t *testing.T) {
	ctx := context.Background()
	next := &countingStorage{sounds: map[int64]*soundmodel.SoundRecord{}}
	s := NewSoundStorage(2, next)
	id, err := s.AddSound(ctx, &soundmodel.SoundRecord{Name: "Boo", SoundPath: "boo.mp3"})
	require.NoError(t, err)

	next.onFetch = func() {
		next.onFetch = nil
		s.Forget(id)
	}
	_, err = s.FetchSound(ctx, id)
	require.NoError(t, err)
	_, err = s.FetchSound(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, next.fetches, "second fetch went to the store")
}
