// Package dbutil opens the PostgreSQL connection used by the postgres
// sound store, either directly or through the Cloud SQL connector.
package dbutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const (
	ConnectorPgx      = "pgx"
	ConnectorCloudSQL = "connector"
)

type cloudEnvSettings struct {
	dbUser,
	dbPwd,
	dbName,
	instanceConnectionName,
	usePrivate string
}

func (s *cloudEnvSettings) getenv() error {
	unset := []string{}
	getenv := func(k string) string {
		v := os.Getenv(k)
		if v == "" {
			unset = append(unset, k)
		}
		return v
	}

	s.dbUser = getenv("DB_USER")                                  // e.g. 'clicktunes'
	s.dbPwd = getenv("DB_PASS")                                   // e.g. 'hunter2'
	s.dbName = getenv("DB_NAME")                                  // e.g. 'clicktunes'
	s.instanceConnectionName = getenv("INSTANCE_CONNECTION_NAME") // e.g. 'project:region:instance'
	s.usePrivate = os.Getenv("PRIVATE_IP")

	if len(unset) != 0 {
		return fmt.Errorf("cloudsqlconn: unset variables: %+v", unset)
	}
	return nil
}

func connectWithConnector(ctx context.Context, _ string) (*sql.DB, error) {
	env := &cloudEnvSettings{}
	if err := env.getenv(); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("user=%s password=%s database=%s", env.dbUser, env.dbPwd, env.dbName)
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	var opts []cloudsqlconn.Option
	if env.usePrivate != "" {
		opts = append(opts, cloudsqlconn.WithDefaultDialOptions(cloudsqlconn.WithPrivateIP()))
	}
	// Refresh certificates on demand; background refresh gets throttled
	// on serverless hosts.
	opts = append(opts, cloudsqlconn.WithLazyRefresh())
	d, err := cloudsqlconn.NewDialer(ctx, opts...)
	if err != nil {
		return nil, err
	}
	config.DialFunc = func(ctx context.Context, network, instance string) (net.Conn, error) {
		return d.Dial(ctx, env.instanceConnectionName)
	}
	dbURI := stdlib.RegisterConnConfig(config)
	dbPool, err := sql.Open("pgx", dbURI)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	return dbPool, nil
}

func connectWithPgx(_ context.Context, url string) (*sql.DB, error) {
	if url == "" {
		return nil, errors.New("database URL is empty")
	}
	zap.S().Infof("connecting to database at %s", url)
	return sql.Open("pgx", url)
}

// Connect opens a database handle with the named connector.  The handle
// is lazy; callers should ping it.
func Connect(ctx context.Context, connector, url string) (*sql.DB, error) {
	factories := map[string]func(context.Context, string) (*sql.DB, error){
		ConnectorCloudSQL: connectWithConnector,
		ConnectorPgx:      connectWithPgx,
	}
	factory, ok := factories[connector]
	if !ok {
		return nil, fmt.Errorf("unknown sql connector %q", connector)
	}
	return factory(ctx, url)
}
