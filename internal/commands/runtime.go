package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nhle/habit-calendar/internal/credential"
	"github.com/nhle/habit-calendar/internal/engine"
	"github.com/nhle/habit-calendar/internal/holiday"
	"github.com/nhle/habit-calendar/internal/kv"
	"github.com/nhle/habit-calendar/internal/model"
	"github.com/nhle/habit-calendar/internal/session"
	"github.com/nhle/habit-calendar/internal/store"
)

// runtime is everything a command needs, built from the config.
type runtime struct {
	cfg     *model.AppConfig
	logger  *zap.Logger
	store   store.Store
	session session.Provider
	engine  *engine.Engine
	closers []func() error
}

// open builds the runtime. Close must be called when done.
func open(ctx context.Context, ro *RootOptions) (*runtime, error) {
	cfg := ro.Config()
	logger, err := newLogger(cfg.Log.Path, ro.Debug)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger}
	rt.closers = append(rt.closers, func() error { _ = logger.Sync(); return nil })

	st, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.store = st
	rt.closers = append(rt.closers, st.Close)

	sp, err := openSession(cfg.Session)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.session = sp

	holidays, err := rt.openHolidays(cfg.Holidays)
	if err != nil {
		rt.Close()
		return nil, err
	}

	if cfg.Log.MetricsAddr != "" {
		rt.serveMetrics(cfg.Log.MetricsAddr)
	}

	rt.engine = engine.New(st, sp, holidays, engine.Options{
		Capacity: cfg.Display.Capacity,
		Columns:  cfg.Display.Columns,
		Logger:   logger.Named("engine"),
	})
	logger.Info("Started",
		zap.String("store", cfg.Store.Driver),
		zap.String("holidays", cfg.Holidays.Source),
		zap.String("holiday_kv", cfg.Holidays.KV))
	return rt, nil
}

// Close releases resources in reverse order of acquisition.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil && rt.logger != nil {
			rt.logger.Warn("Close failed", zap.Error(err))
		}
	}
	rt.closers = nil
}

// newLogger writes JSON logs to path; the terminal belongs to the UI.
func newLogger(path string, debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

func openStore(ctx context.Context, cfg model.StoreConfig, logger *zap.Logger) (store.Store, error) {
	switch cfg.Driver {
	case model.DriverPostgres:
		if cfg.DSN == "" {
			return nil, errors.New("store.dsn is required for the postgres driver")
		}
		return store.NewPostgresStore(ctx, cfg.DSN, logger.Named("postgres"))
	case model.DriverSQLite, "":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return store.NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// openSession uses a fixed owner when one is configured, else the
// keyring session written by `habitcal login`.
func openSession(cfg model.SessionConfig) (session.Provider, error) {
	if cfg.OwnerID != "" {
		return session.Static{Session: session.Session{OwnerID: cfg.OwnerID}}, nil
	}
	creds, err := credential.Open()
	if err != nil {
		return nil, err
	}
	return session.NewKeyringProvider(creds, nil), nil
}

func (rt *runtime) openHolidays(cfg model.HolidayConfig) (*holiday.Cache, error) {
	var src holiday.Source
	switch cfg.Source {
	case model.HolidaySourceICal:
		if cfg.URL == "" {
			return nil, errors.New("holidays.url is required for the ical source")
		}
		src = holiday.NewICalSource(cfg.URL)
	case model.HolidaySourceCalDAV:
		if cfg.URL == "" || cfg.Calendar == "" {
			return nil, errors.New("holidays.url and holidays.calendar are required for the caldav source")
		}
		src = holiday.NewCalDAVSource(cfg.URL, cfg.Calendar, cfg.Username, cfg.Password)
	case model.HolidaySourceNager, "":
		src = holiday.NewNagerSource(cfg.URL, cfg.RatePerSec)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown holiday source %q", cfg.Source)
	}

	var cache kv.Store
	switch cfg.KV {
	case model.KVRedis:
		r := kv.NewRedis(cfg.RedisAddr)
		rt.closers = append(rt.closers, r.Close)
		cache = r
	case model.KVStore:
		s, ok := rt.store.(kv.Store)
		if !ok {
			return nil, fmt.Errorf("store driver %q cannot hold the holiday cache", rt.cfg.Store.Driver)
		}
		cache = s
	case model.KVDisk, "":
		cache = kv.NewDisk(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown holiday kv %q", cfg.KV)
	}

	return holiday.NewCache(cache, src, cfg.Country, rt.logger.Named("holiday")), nil
}

// serveMetrics exposes the collectors until the process exits.
func (rt *runtime) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	rt.closers = append(rt.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
	rt.logger.Info("Serving metrics", zap.String("addr", addr))
}

// ownerID resolves the current owner for commands that talk to the
// store directly.
func (rt *runtime) ownerID(ctx context.Context) (string, error) {
	s, err := rt.session.Current(ctx)
	if err != nil {
		return "", err
	}
	return s.OwnerID, nil
}
