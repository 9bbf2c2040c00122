package session

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ts4z/clicktunes/board"
	"github.com/ts4z/clicktunes/manifest"
	"github.com/ts4z/clicktunes/soundmodel"
)

type SoundLister interface {
	ListSounds(ctx context.Context) ([]*soundmodel.SoundRecord, error)
	RemoveSound(ctx context.Context, id int64) error
}

// Builder makes boards from the manifest and whatever is in the store.
type Builder struct {
	Store    SoundLister
	Manifest *manifest.Result
	Clock    clockwork.Clock
	Debounce time.Duration
}

// Build lists the store for a new board.  If listing fails, the board gets
// the manifest buttons alone.
func (bb *Builder) Build(ctx context.Context) *board.Board {
	sounds, err := bb.Store.ListSounds(ctx)
	if err != nil {
		zap.S().Errorf("can't list sounds for new board: %v", err)
		sounds = nil
	}
	var entries []manifest.Entry
	if bb.Manifest != nil {
		entries = bb.Manifest.Entries
	}
	return board.New(board.Config{
		Remover:  bb.Store,
		Clock:    bb.Clock,
		Debounce: bb.Debounce,
		Entries:  entries,
		Sounds:   sounds,
	})
}
