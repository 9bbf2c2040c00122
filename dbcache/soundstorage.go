package dbcache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/ts4z/clicktunes/soundmodel"
	"github.com/ts4z/clicktunes/state"
	"github.com/ts4z/clicktunes/varz"
)

const (
	DefaultSoundCacheSize = 64
)

var (
	soundCacheHits   = varz.NewInt("soundCacheHits")
	soundCacheMisses = varz.NewInt("soundCacheMisses")
)

// SoundStorage keeps recently played payloads in memory.  Records are
// immutable, so the only invalidation needed is on remove.  Removes made
// by other servers arrive through Forget.
type SoundStorage struct {
	cache *lru.Cache[int64, *soundmodel.SoundRecord]
	next  state.SoundStorage

	// gen counts removes, so a fetch that overlapped one doesn't cache what
	// it read.
	mu  sync.Mutex
	gen uint64
}

var _ state.SoundStorage = (*SoundStorage)(nil)

func NewSoundStorage(size int, nx state.SoundStorage) *SoundStorage {
	if size <= 0 {
		size = DefaultSoundCacheSize
	}
	cache, err := lru.New[int64, *soundmodel.SoundRecord](size)
	if err != nil {
		// Only happens for size <= 0.
		zap.S().Fatalf("can't create sound cache: %v", err)
	}
	return &SoundStorage{
		cache: cache,
		next:  nx,
	}
}

func (s *SoundStorage) Close() {
	s.cache.Purge()
	s.next.Close()
}

// AddSound implements state.SoundStorage.
func (s *SoundStorage) AddSound(ctx context.Context, sr *soundmodel.SoundRecord) (int64, error) {
	return s.next.AddSound(ctx, sr)
}

// RemoveSound implements state.SoundStorage.
func (s *SoundStorage) RemoveSound(ctx context.Context, id int64) error {
	err := s.next.RemoveSound(ctx, id)
	// Drop it even on failure; we don't know what made it to disk.
	s.Forget(id)
	return err
}

// Forget drops id from the cache without touching the store.
func (s *SoundStorage) Forget(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.cache.Remove(id)
}

// ListSounds implements state.SoundStorage.
func (s *SoundStorage) ListSounds(ctx context.Context) ([]*soundmodel.SoundRecord, error) {
	return s.next.ListSounds(ctx)
}

// FetchSound implements state.SoundStorage.
func (s *SoundStorage) FetchSound(ctx context.Context, id int64) (*soundmodel.SoundRecord, error) {
	if sr, ok := s.cache.Get(id); ok {
		soundCacheHits.Add(1)
		return sr.Clone(), nil
	}
	soundCacheMisses.Add(1)
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	sr, err := s.next.FetchSound(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.cache.Add(id, sr.Clone())
	}
	return sr, nil
}
