package state

import (
	"context"
	"fmt"

	"github.com/ts4z/clicktunes/dbutil"
)

const (
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
)

// OpenOptions picks and locates a sound store backend.
type OpenOptions struct {
	Backend   string
	BoltPath  string
	Connector string
	DBURL     string
	// Origin tags this server's change notifications on postgres.
	Origin string
}

// Open returns the configured backend.  Either kind fails with
// ErrStorageUnavailable when it can't be reached.
func Open(ctx context.Context, opts OpenOptions) (SoundStorage, error) {
	switch opts.Backend {
	case BackendBolt, "":
		return OpenBoltStorage(opts.BoltPath)
	case BackendPostgres:
		db, err := dbutil.Connect(ctx, opts.Connector, opts.DBURL)
		if err != nil {
			return nil, unavailable("connect", err)
		}
		return NewDBStorage(ctx, db, opts.Origin)
	default:
		return nil, fmt.Errorf("unknown store %q", opts.Backend)
	}
}
