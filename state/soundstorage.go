package state

import (
	"context"
	"fmt"

	"github.com/ts4z/clicktunes/he"
	"github.com/ts4z/clicktunes/soundmodel"
)

// SoundStorage persists user-added sounds.  Every call is its own
// transaction; implementations are safe for concurrent use.
type SoundStorage interface {
	Closer

	// AddSound stores name and sound path and returns the new id.  The
	// id on the argument is ignored.
	AddSound(ctx context.Context, sr *soundmodel.SoundRecord) (int64, error)
	// RemoveSound deletes a sound.  Removing an id that isn't there is
	// not an error.
	RemoveSound(ctx context.Context, id int64) error
	// ListSounds returns every stored sound in ascending id order.
	ListSounds(ctx context.Context) ([]*soundmodel.SoundRecord, error)
	FetchSound(ctx context.Context, id int64) (*soundmodel.SoundRecord, error)
}

func soundNotFound(id int64) error {
	return he.New(404, fmt.Errorf("%w: id %d", ErrSoundNotFound, id))
}
