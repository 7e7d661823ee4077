package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/userdesk/internal/client/client"
	"github.com/dmitrijs2005/userdesk/internal/client/collection"
	"github.com/dmitrijs2005/userdesk/internal/client/config"
	"github.com/dmitrijs2005/userdesk/internal/client/health"
	"github.com/dmitrijs2005/userdesk/internal/client/router"
	"github.com/dmitrijs2005/userdesk/internal/client/session"
	"github.com/dmitrijs2005/userdesk/internal/client/storage"
	"github.com/dmitrijs2005/userdesk/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Pinger reports whether the server is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config  *config.Config
	log     logging.Logger
	api     client.Client
	session *session.Session
	users   *collection.Users
	router  *router.Router
	meta    storage.MetadataRepository
	pinger  Pinger

	reader *bufio.Reader
	out    io.Writer

	closers []func() error

	mu   sync.Mutex
	mode Mode
}

// NewApp opens the state database and wires the session, the users
// collection and the router around an HTTP client for cfg.APIBaseURL.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	db, err := storage.Open(ctx, cfg.StateDBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	app, err := newApp(ctx, cfg, log, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, cfg *config.Config, log logging.Logger, db *sql.DB) (*App, error) {
	meta := storage.NewSQLiteMetadataRepository(db)

	var sess *session.Session
	api, err := client.NewHTTPClient(cfg.APIBaseURL, client.TokenFunc(func() string { return sess.Token() }), cfg.RequestTimeout)
	if err != nil {
		return nil, err
	}

	sess, err = session.New(ctx, storage.NewTokenStore(meta), api, log.With("component", "session"))
	if err != nil {
		return nil, err
	}

	probe, err := health.NewProbe(cfg.HealthAddr)
	if err != nil {
		return nil, err
	}

	app := assemble(cfg, log, api, sess, collection.NewUsers(api, log), meta, probe, bufio.NewReader(os.Stdin), os.Stdout)
	app.closers = append(app.closers, probe.Close, db.Close)
	return app, nil
}

// assemble connects already-built parts. Tests use it directly.
func assemble(cfg *config.Config, log logging.Logger, api client.Client, sess *session.Session, users *collection.Users,
	meta storage.MetadataRepository, pinger Pinger, reader *bufio.Reader, out io.Writer) *App {
	a := &App{
		config:  cfg,
		log:     log,
		api:     api,
		session: sess,
		users:   users,
		meta:    meta,
		pinger:  pinger,
		reader:  reader,
		out:     out,
		mode:    ModeOffline,
	}

	a.router = router.New(sess, router.DefaultRoutes())
	a.router.OnEnter(router.UsersRoute, a.enterUsers)
	a.router.OnEnter(router.LoginRoute, a.enterLogin)
	sess.SetNavigator(a.router)

	users.Subscribe(newLoadingIndicator(out).observe)
	return a
}

// Close releases the health connection and the state database.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(ctx, "connectivity changed", "mode", string(mode))
	}
}

// Run starts the watcher, shows the initial view and runs the REPL until
// the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to userdesk (type 'help' for commands)")

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	if err := a.router.Navigate(ctx, session.HomePath); err != nil {
		return err
	}

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

func (a *App) view() string {
	return a.router.Current().Name
}

func (a *App) getStatus() string {
	return fmt.Sprintf("(%s %s)", a.view(), a.Mode())
}

// StartOnlineStatusWatcher probes the server every interval and flips the
// mode between online and offline until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.pinger.Ping(pctx)
	cancel()

	if err != nil {
		a.log.Debug(ctx, "health probe failed", "error", err)
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}
