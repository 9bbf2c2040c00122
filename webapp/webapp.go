package webapp

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ts4z/clicktunes/app/handlers"
	"github.com/ts4z/clicktunes/assets"
	"github.com/ts4z/clicktunes/board"
	"github.com/ts4z/clicktunes/dep"
	"github.com/ts4z/clicktunes/form"
	"github.com/ts4z/clicktunes/gossip"
	"github.com/ts4z/clicktunes/he"
	"github.com/ts4z/clicktunes/manifest"
	"github.com/ts4z/clicktunes/middleware"
	"github.com/ts4z/clicktunes/protocol"
	"github.com/ts4z/clicktunes/session"
	"github.com/ts4z/clicktunes/soundmodel"
	"github.com/ts4z/clicktunes/state"
	"github.com/ts4z/clicktunes/varz"
)

var (
	pagesServed    = varz.NewInt("pagesServed")
	audioServed    = varz.NewInt("audioServed")
	badJSONRequest = varz.NewInt("badJSONRequest")
)

// Config holds the configuration for creating a new App.
type Config struct {
	SoundStorage  state.SoundStorage
	Sessions      *session.Manager
	Hub           *gossip.Hub
	FormProcessor *form.Processor
	Manifest      *manifest.Result
	SubFS         fs.FS
	Clock         middleware.Clock

	// SoundsDir, if set, is served under /sounds/ for manifest clips.
	SoundsDir string

	StaticMaxAge   time.Duration
	AddRate        float64
	AddBurst       int
	AllowedOrigins []string
}

// App is the main web application.
type App struct {
	templates *template.Template
	subFS     fs.FS
	soundsDir string
	maxAge    time.Duration

	// dependencies
	soundStorage  state.SoundStorage
	sessions      *session.Manager
	hub           *gossip.Hub
	formProcessor *form.Processor
	manifest      *manifest.Result
	clock         middleware.Clock

	// internals
	router  chi.Router
	limiter *middleware.RateLimiter
	handler http.Handler
}

// New creates a new App with the given configuration.
func New(config *Config) (*App, error) {
	app := &App{
		soundStorage:  dep.Required(config.SoundStorage),
		sessions:      dep.Required(config.Sessions),
		hub:           dep.Required(config.Hub),
		formProcessor: dep.Required(config.FormProcessor),
		manifest:      dep.Required(config.Manifest),
		subFS:         dep.Required(config.SubFS),
		clock:         dep.Required(config.Clock),
		soundsDir:     config.SoundsDir,
		maxAge:        config.StaticMaxAge,
		router:        chi.NewRouter(),
	}
	app.limiter = middleware.NewRateLimiter(&middleware.RateLimiterConfig{
		PerSecond: config.AddRate,
		Burst:     config.AddBurst,
	})

	if err := app.loadTemplates(); err != nil {
		return nil, err
	}
	app.InstallHandlers()

	// Stack the handlers together.  Only the routes that add or remove
	// sounds are rate limited; see InstallHandlers.
	logger := middleware.NewRequestLogger(app.router, app.clock)
	corsMW := cors.New(cors.Options{
		AllowedOrigins:   config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	})
	app.handler = corsMW.Handler(logger)

	return app, nil
}

// Handler returns the configured HTTP handler.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) loadTemplates() error {
	var err error
	if app.templates, err = template.New("root").ParseFS(assets.Templates, "templates/*.tmpl"); err != nil {
		return fmt.Errorf("error loading embedded templates: %w", err)
	}
	for _, tmpl := range app.templates.Templates() {
		zap.S().Debugf("loaded template %q", tmpl.Name())
	}
	return nil
}

func (app *App) cached(next http.Handler) http.Handler {
	return middleware.NewCacheHeaderAdder(&middleware.CacheHeaderAdderConfig{
		Next:   next,
		MaxAge: app.maxAge,
		Maybe: func(r *http.Request) bool {
			return r.Method == http.MethodGet || r.Method == http.MethodHead
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Infof("can't write json response: %v", err)
	}
}

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10))
	if err := dec.Decode(v); err != nil {
		badJSONRequest.Add(1)
		return he.HTTPCodedErrorf(http.StatusBadRequest, "can't decode request: %v", err)
	}
	return nil
}

// boardHandleFunc resolves the caller's board before calling handler.
func (app *App) boardHandleFunc(handler func(context.Context, *board.Board, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := app.sessions.Board(w, r)
		if err != nil {
			he.SendJSONError(w, "find board", err)
			return
		}
		handler(r.Context(), b, w, r)
	}
}

type indexArgs struct {
	Banner      string
	Buttons     template.HTML
	Filter      string
	Volume      int
	SliderFill  float64
	RemoveLabel string
	Accept      string
	MinName     int
	MaxName     int

	ProtocolVersion int
}

func (app *App) handleIndex(_ context.Context, b *board.Board, w http.ResponseWriter, _ *http.Request) {
	var sb strings.Builder
	if err := b.Render(&sb); err != nil {
		he.SendErrorToHTTPClient(w, "render board", err)
		return
	}
	st := b.State()
	args := &indexArgs{
		Buttons:     template.HTML(sb.String()),
		Filter:      st.Filter,
		Volume:      st.Volume,
		SliderFill:  st.SliderFill,
		RemoveLabel: st.RemoveLabel,
		Accept:      strings.Join(soundmodel.AllowedMIMETypes(), ","),
		MinName:     soundmodel.MinNameLength,
		MaxName:     soundmodel.MaxNameLength,

		ProtocolVersion: protocol.Version,
	}
	if app.manifest.Failed() {
		args.Banner = manifest.Banner
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := app.templates.ExecuteTemplate(w, "soundboard.html.tmpl", args); err != nil {
		zap.S().Errorf("can't render template: %v", err)
		return
	}
	pagesServed.Add(1)
}

func (app *App) handleManifest(w http.ResponseWriter, _ *http.Request) {
	if app.manifest.Failed() {
		he.SendJSONError(w, "load manifest", app.manifest.Err)
		return
	}
	writeJSON(w, app.manifest.Entries)
}

func (app *App) handleListSounds(w http.ResponseWriter, r *http.Request) {
	sounds, err := app.soundStorage.ListSounds(r.Context())
	if err != nil {
		he.SendJSONError(w, "list sounds", err)
		return
	}
	slugs := make([]*soundmodel.SoundSlug, 0, len(sounds))
	for _, sr := range sounds {
		slugs = append(slugs, sr.Slug())
	}
	writeJSON(w, slugs)
}

func (app *App) handleAddSound(w http.ResponseWriter, r *http.Request) {
	u, err := app.formProcessor.ReadUpload(w, r)
	if err != nil {
		he.SendJSONError(w, "read upload", err)
		return
	}
	res, err := app.formProcessor.AddSound(r.Context(), u)
	if err != nil {
		he.SendJSONError(w, "add sound", err)
		return
	}
	w.Header().Set("Location", board.AudioURL(res.ID))
	writeJSONStatus(w, http.StatusCreated, res)
}

func (app *App) serve(ctx context.Context, listenAddress string) error {
	server := &http.Server{
		Addr:        listenAddress,
		Handler:     app.handler,
		BaseContext: func(net.Listener) context.Context { return ctx },
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.S().Infof("listening on %s", listenAddress)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Serve runs the HTTP server until ctx is cancelled or the listener fails.
func (app *App) Serve(ctx context.Context, listenAddress string) error {
	if err := app.serve(ctx, listenAddress); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

// InstallHandlers sets up the routes.
func (app *App) InstallHandlers() {
	r := app.router

	r.Get("/", app.boardHandleFunc(app.handleIndex))
	r.Get("/buttons.json", app.handleManifest)
	r.Get("/robots.txt", handlers.HandleRobotsTXT)
	r.Method(http.MethodGet, "/debug/vars", expvar.Handler())

	// anything in fs is a file trivially shared
	r.Handle("/fs/*", app.cached(http.StripPrefix("/fs/", http.FileServer(http.FS(app.subFS)))))
	if app.soundsDir != "" {
		r.Handle("/sounds/*", app.cached(http.StripPrefix("/sounds/", http.FileServer(http.Dir(app.soundsDir)))))
	}

	r.Get("/ws", app.boardHandleFunc(func(_ context.Context, b *board.Board, w http.ResponseWriter, r *http.Request) {
		app.hub.Serve(w, r, b)
	}))

	r.Route("/api/board", app.installBoardHandlers)
	r.Route("/api/sounds", func(r chi.Router) {
		r.Get("/", app.handleListSounds)
		r.With(app.limiter.Wrap).Post("/", app.handleAddSound)
		r.With(app.limiter.Wrap).Delete("/{id}", app.handleRemoveSound)
		r.Get("/{id}/audio", app.handleAudio)
	})
}
