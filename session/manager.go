package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/ts4z/clicktunes/board"
	"github.com/ts4z/clicktunes/dep"
	"github.com/ts4z/clicktunes/soundmodel"
	"github.com/ts4z/clicktunes/varz"
)

const DefaultCacheSize = 1024

var (
	sessionsMinted = varz.NewInt("sessionsMinted")
	boardsBuilt    = varz.NewInt("boardsBuilt")
)

// BoardBuilder makes the board a new session starts with.
type BoardBuilder func(ctx context.Context) *board.Board

type Manager struct {
	bakery   *Bakery
	newBoard BoardBuilder

	// mu makes get-or-create atomic, and holds notifications off while a
	// board is built from a store listing.  The cache has its own lock.
	mu     sync.Mutex
	boards *lru.Cache[uuid.UUID, *board.Board]
}

func NewManager(bakery *Bakery, size int, newBoard BoardBuilder) (*Manager, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	boards, err := lru.NewWithEvict(size, func(_ uuid.UUID, b *board.Board) {
		b.Close()
	})
	if err != nil {
		return nil, err
	}
	return &Manager{
		bakery:   dep.Required(bakery),
		newBoard: dep.Required(newBoard),
		boards:   boards,
	}, nil
}

// Board returns the caller's board, minting a session cookie if the
// request didn't carry a usable one.
func (m *Manager) Board(w http.ResponseWriter, r *http.Request) (*board.Board, error) {
	id, err := m.bakery.ReadCookie(r)
	if err != nil {
		id = uuid.New()
		if err := m.bakery.BakeCookie(w, id); err != nil {
			return nil, err
		}
		sessionsMinted.Add(1)
		zap.S().Debugf("new session %s (%v)", id, err)
	}
	return m.BoardFor(r.Context(), id), nil
}

// Lookup returns the board for the request's session without creating
// anything.
func (m *Manager) Lookup(r *http.Request) (*board.Board, bool) {
	id, err := m.bakery.ReadCookie(r)
	if err != nil {
		return nil, false
	}
	return m.boards.Get(id)
}

func (m *Manager) BoardFor(ctx context.Context, id uuid.UUID) *board.Board {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.boards.Get(id); ok {
		return b
	}
	b := m.newBoard(ctx)
	boardsBuilt.Add(1)
	m.boards.Add(id, b)
	return b
}

func (m *Manager) Len() int {
	return m.boards.Len()
}

// SoundAdded shows a new sound on every live board.  A board being built
// gets it once it's in the cache, so a listing taken just before the write
// can't lose it.
func (m *Manager) SoundAdded(sr *soundmodel.SoundRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.boards.Values() {
		b.AddRecord(sr)
	}
}

// SoundRemoved drops a deleted sound from every live board.
func (m *Manager) SoundRemoved(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.boards.Values() {
		b.RemoveRecord(id)
	}
}
