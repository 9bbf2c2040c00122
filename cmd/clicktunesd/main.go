package main

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ts4z/clicktunes/assets"
	"github.com/ts4z/clicktunes/config"
	"github.com/ts4z/clicktunes/dbcache"
	"github.com/ts4z/clicktunes/dbnotify"
	"github.com/ts4z/clicktunes/form"
	"github.com/ts4z/clicktunes/gossip"
	"github.com/ts4z/clicktunes/manifest"
	"github.com/ts4z/clicktunes/session"
	"github.com/ts4z/clicktunes/state"
	"github.com/ts4z/clicktunes/ts"
	"github.com/ts4z/clicktunes/webapp"
)

func newLogger() *zap.Logger {
	var logger *zap.Logger
	var err error
	if config.LogDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config.Init()
	logger := newLogger()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	clock := ts.NewRealClock()
	subFS, err := fs.Sub(assets.FS, "fs")
	if err != nil {
		zap.S().Fatalf("fs.Sub: %v", err)
	}

	backend, err := state.Open(ctx, state.OpenOptions{
		Backend:   config.Store(),
		BoltPath:  config.BoltPath(),
		Connector: config.SQLConnector(),
		DBURL:     config.DBURL(),
		Origin:    uuid.NewString(),
	})
	if err != nil {
		zap.S().Fatalf("can't open sound store: %v", err)
	}
	defer backend.Close()

	gossiper := gossip.NewGossiper()
	cache := dbcache.NewSoundStorage(config.SoundCacheSize(), backend)
	soundStorage := gossip.NewSoundStorage(cache, gossiper)

	manifestCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	mr := manifest.LoadResult(manifestCtx, &http.Client{Timeout: 10 * time.Second}, config.Manifest())
	cancel()

	bakery, err := session.NewBakery(clock.RealClock(), config.CookieHashKey(), config.CookieBlockKey(), config.SecureCookies())
	if err != nil {
		zap.S().Fatalf("can't create bakery: %v", err)
	}
	builder := &session.Builder{
		Store:    soundStorage,
		Manifest: mr,
		Clock:    clock.RealClock(),
		Debounce: config.FilterDebounce(),
	}
	sessions, err := session.NewManager(bakery, config.SessionCacheSize(), builder.Build)
	if err != nil {
		zap.S().Fatalf("can't create session manager: %v", err)
	}

	hub := gossip.NewHub()
	gossiper.Subscribe(sessions)
	gossiper.Subscribe(hub)

	app, err := webapp.New(&webapp.Config{
		SoundStorage:   soundStorage,
		Sessions:       sessions,
		Hub:            hub,
		FormProcessor:  form.NewProcessor(soundStorage, config.UploadLimit(), config.ProbeUploads()),
		Manifest:       mr,
		SubFS:          subFS,
		Clock:          clock,
		SoundsDir:      config.SoundsDir(),
		StaticMaxAge:   config.StaticMaxAge(),
		AddRate:        config.AddRate(),
		AddBurst:       config.AddBurst(),
		AllowedOrigins: config.AllowedOrigins(),
	})
	if err != nil {
		zap.S().Fatalf("can't create app: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Serve(gctx, config.ListenAddress())
	})
	// Other servers sharing a postgres store announce their writes.
	if dbs, ok := backend.(*state.DBStorage); ok {
		relay := &gossip.Relay{Fetcher: cache, Cache: cache, Gossiper: gossiper}
		listener := dbnotify.NewListener(dbs.DB(), dbs.Origin(), relay)
		g.Go(func() error {
			return listener.Run(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		zap.S().Fatalf("can't serve: %v", err)
	}
	zap.S().Infof("shut down")
}
