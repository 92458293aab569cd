package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/earnclock/internal/broadcast"
	"github.com/alexanderramin/earnclock/internal/config"
	"github.com/alexanderramin/earnclock/internal/db"
	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/logging"
	"github.com/alexanderramin/earnclock/internal/reconcile"
	"github.com/alexanderramin/earnclock/internal/service"
)

// App holds the configuration and services used by CLI commands. Services
// left nil are wired from the loaded configuration before a command runs;
// tests pre-populate them.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Clock     domain.Clock
	Bus       broadcast.Bus
	Sessions  service.SessionService
	Analytics service.AnalyticsService
	Catalog   service.CatalogService

	// Reconciler holds the summary cache. Sessions and Catalog publish
	// through it so their writes invalidate the cache before returning.
	Reconciler *reconcile.Reconciler

	// UserID is the account commands act as: --user, else user.default.
	UserID string
	JSON   bool

	// IsInteractive reports whether prompts and the styled renderer can be
	// used. Defaults to a TTY check on stdin and stdout.
	IsInteractive func() bool

	configPath string
	db         *sql.DB
}

func (a *App) setup(cmd *cobra.Command) error {
	if a.Config == nil {
		cfg, err := config.Load(a.configPath, cmd.Flags())
		if err != nil {
			return err
		}
		a.Config = cfg
		a.Logger = logging.New(cfg.Logging)
	}
	if a.Clock == nil {
		a.Clock = domain.SystemClock{}
	}
	if a.IsInteractive == nil {
		a.IsInteractive = func() bool {
			return isTerminal(os.Stdin) && isTerminal(os.Stdout)
		}
	}

	a.UserID = a.Config.User.Default
	if f := cmd.Flags().Lookup("user"); f != nil && f.Changed {
		a.UserID = f.Value.String()
	}
	if a.UserID == "" {
		return domain.ValidationError("setup", "no user: pass --user or set user.default")
	}

	if a.Sessions != nil {
		return nil
	}
	return a.wire()
}

// wire opens storage and the change bus and builds the services.
func (a *App) wire() error {
	cfg := a.Config
	loc, err := cfg.Calendar.Location()
	if err != nil {
		return err
	}
	weekStart, err := cfg.Calendar.Weekday()
	if err != nil {
		return err
	}

	database, err := db.OpenDB(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.db = database

	bus, err := broadcast.Open(cfg.Broadcast.Backend, broadcast.RedisConfig{
		Addr:          cfg.Broadcast.Redis.Addr,
		Password:      cfg.Broadcast.Redis.Password,
		DB:            cfg.Broadcast.Redis.DB,
		ChannelPrefix: cfg.Broadcast.Redis.ChannelPrefix,
	}, a.Logger)
	if err != nil {
		return err
	}
	a.Bus = bus

	opts := []service.Option{
		service.WithClock(a.Clock),
		service.WithLocation(loc),
		service.WithWeekStart(weekStart),
		service.WithMaxSessionDuration(cfg.Sessions.MaxDuration),
		service.WithLogger(a.Logger),
		service.WithObserver(service.ChainObservers(
			service.NewLogUseCaseObserver(a.Logger),
			service.NewMetricsUseCaseObserver(),
		)),
	}
	uow := db.NewSQLiteUnitOfWork(database)
	a.Analytics = service.NewAnalyticsService(uow, opts...)

	rec, err := reconcile.New(a.Analytics, bus, cfg.Cache.SummarySize, a.Clock, a.Logger)
	if err != nil {
		return err
	}
	a.Reconciler = rec

	opts = append(opts, service.WithPublisher(rec))
	a.Sessions = service.NewSessionService(uow, opts...)
	a.Catalog = service.NewCatalogService(uow, a.UserID, opts...)

	a.Logger.Debug().
		Str("db", cfg.Storage.Path).
		Str("broadcast", cfg.Broadcast.Backend).
		Str("timezone", loc.String()).
		Msg("Services wired")
	return nil
}

// Close releases what setup opened.
func (a *App) Close() error {
	var errs []error
	if a.Reconciler != nil {
		errs = append(errs, a.Reconciler.Close())
	}
	if a.Bus != nil {
		errs = append(errs, a.Bus.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func (a *App) interactive() bool {
	return !a.JSON && a.IsInteractive != nil && a.IsInteractive()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
