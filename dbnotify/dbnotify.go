/*
package dbnotify carries sound changes between servers that share one
postgres store.  Writers publish on a channel inside their transaction, so
the notification goes out only if the write commits; every server LISTENs
and hands events from other servers to a Consumer.
*/

package dbnotify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ts4z/clicktunes/dbutil"
	"github.com/ts4z/clicktunes/varz"
)

const (
	Channel          = "sounds_changes"
	sleepOnErrorTime = 5 * time.Second
)

const (
	OpAdded   = "added"
	OpRemoved = "removed"
)

var (
	eventsPublished = varz.NewInt("eventsPublished")
	eventsReceived  = varz.NewInt("eventsReceived")
	eventsDropped   = varz.NewInt("eventsDropped")
)

type Event struct {
	Op     string `json:"op"`
	ID     int64  `json:"id"`
	Origin string `json:"origin"`
}

// Publish queues ev for delivery when tx commits.
func Publish(ctx context.Context, tx *dbutil.Tx, ev *Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2);`, Channel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", Channel, err)
	}
	eventsPublished.Add(1)
	return nil
}

type Consumer interface {
	Consume(ctx context.Context, ev *Event)
}

type Listener struct {
	db       *sql.DB
	origin   string
	consumer Consumer
}

// NewListener makes a listener that ignores events published with origin,
// since the local gossiper has already handled those.
func NewListener(db *sql.DB, origin string, consumer Consumer) *Listener {
	return &Listener{db: db, origin: origin, consumer: consumer}
}

// dispatch decodes one payload and passes it on.  It reports whether the
// event reached the consumer.
func (l *Listener) dispatch(ctx context.Context, payload string) bool {
	ev := &Event{}
	if err := json.Unmarshal([]byte(payload), ev); err != nil {
		zap.S().Warnf("can't unmarshal notification payload %q: %v", payload, err)
		eventsDropped.Add(1)
		return false
	}
	if ev.Origin == l.origin {
		return false
	}
	switch ev.Op {
	case OpAdded, OpRemoved:
	default:
		zap.S().Warnf("unknown notification op %q", ev.Op)
		eventsDropped.Add(1)
		return false
	}
	eventsReceived.Add(1)
	l.consumer.Consume(ctx, ev)
	return true
}

// Listen holds one connection and delivers notifications until ctx is done
// or the connection fails.
func (l *Listener) Listen(ctx context.Context) error {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	var pgxConn *stdlib.Conn
	err = conn.Raw(func(driverConn any) error {
		var ok bool
		pgxConn, ok = driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("not a pgx connection: %T", driverConn)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to get pgx connection: %w", err)
	}

	if _, err := pgxConn.Conn().Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("failed to listen on channel %s: %w", Channel, err)
	}

	for {
		var notification *pgconn.Notification
		if nf, err := pgxConn.Conn().WaitForNotification(ctx); err == nil {
			notification = nf
		} else {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("error waiting for notification: %w", err)
		}
		zap.S().Debugf("received db notification %d %s", notification.PID, notification.Payload)
		l.dispatch(ctx, notification.Payload)
	}
}

// Run calls Listen until ctx is done, pausing after each failure.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.Listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		zap.S().Errorf("db notification listener: %v", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(sleepOnErrorTime):
		}
	}
}
