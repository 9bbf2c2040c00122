package gossip

import (
	"context"
	"sync"

	"github.com/ts4z/clicktunes/soundmodel"
	"github.com/ts4z/clicktunes/state"
)

// Gossiper fans store writes out to listeners.
type Gossiper struct {
	mu        sync.RWMutex
	listeners []Listener
}

func NewGossiper() *Gossiper {
	return &Gossiper{}
}

func (g *Gossiper) Subscribe(l Listener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, l)
}

func (g *Gossiper) snapshot() []Listener {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Listener(nil), g.listeners...)
}

func (g *Gossiper) NotifyAdded(sr *soundmodel.SoundRecord) {
	for _, l := range g.snapshot() {
		l.SoundAdded(sr)
	}
}

func (g *Gossiper) NotifyRemoved(id int64) {
	for _, l := range g.snapshot() {
		l.SoundRemoved(id)
	}
}

// SoundStorage intercepts writes and notifies listeners once they have
// succeeded.  Reads pass straight through.
type SoundStorage struct {
	gossiper *Gossiper
	next     state.SoundStorage
}

var _ state.SoundStorage = (*SoundStorage)(nil)

func NewSoundStorage(next state.SoundStorage, g *Gossiper) *SoundStorage {
	return &SoundStorage{next: next, gossiper: g}
}

func (s *SoundStorage) Close() {
	s.next.Close()
}

func (s *SoundStorage) AddSound(ctx context.Context, sr *soundmodel.SoundRecord) (int64, error) {
	id, err := s.next.AddSound(ctx, sr)
	if err != nil {
		return 0, err
	}
	added := sr.Clone()
	added.ID = id
	s.gossiper.NotifyAdded(added)
	return id, nil
}

// RemoveSound notifies even when nothing was there to remove; listeners
// treat an unknown id as a no-op.
func (s *SoundStorage) RemoveSound(ctx context.Context, id int64) error {
	if err := s.next.RemoveSound(ctx, id); err != nil {
		return err
	}
	s.gossiper.NotifyRemoved(id)
	return nil
}

func (s *SoundStorage) ListSounds(ctx context.Context) ([]*soundmodel.SoundRecord, error) {
	return s.next.ListSounds(ctx)
}

func (s *SoundStorage) FetchSound(ctx context.Context, id int64) (*soundmodel.SoundRecord, error) {
	return s.next.FetchSound(ctx, id)
}
