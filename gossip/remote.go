package gossip

import (
	"context"

	"go.uber.org/zap"

	"github.com/ts4z/clicktunes/dbnotify"
	"github.com/ts4z/clicktunes/soundmodel"
)

type SoundFetcher interface {
	FetchSound(ctx context.Context, id int64) (*soundmodel.SoundRecord, error)
}

type Forgetter interface {
	Forget(id int64)
}

// Relay passes another server's writes to local listeners, as though they
// had been made here.
type Relay struct {
	Fetcher  SoundFetcher
	Cache    Forgetter
	Gossiper *Gossiper
}

var _ dbnotify.Consumer = (*Relay)(nil)

func (r *Relay) Consume(ctx context.Context, ev *dbnotify.Event) {
	switch ev.Op {
	case dbnotify.OpAdded:
		sr, err := r.Fetcher.FetchSound(ctx, ev.ID)
		if err != nil {
			zap.S().Warnf("drop notification: can't fetch sound %d: %v", ev.ID, err)
			return
		}
		r.Gossiper.NotifyAdded(sr)
	case dbnotify.OpRemoved:
		if r.Cache != nil {
			r.Cache.Forget(ev.ID)
		}
		r.Gossiper.NotifyRemoved(ev.ID)
	}
}
