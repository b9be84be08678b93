package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jgivc/musicsync/internal/adapter/driveadapter"
	"github.com/jgivc/musicsync/internal/common"
	"github.com/jgivc/musicsync/internal/config"
	"github.com/jgivc/musicsync/internal/entity"
	httphandler "github.com/jgivc/musicsync/internal/handler/http"
	rprogress "github.com/jgivc/musicsync/internal/repository/progress"
	"github.com/jgivc/musicsync/internal/service/download"
	"github.com/jgivc/musicsync/internal/service/enumerate"
	"github.com/jgivc/musicsync/internal/service/report"
	"github.com/jgivc/musicsync/internal/service/stats"
	"github.com/jgivc/musicsync/internal/service/syncer"
	"github.com/jgivc/musicsync/internal/storage/progress"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
)

const (
	stopTimeout = 5 * time.Second
)

// Overrides carries command line values that take precedence over the config
// file. Negative values mean "not set".
type Overrides struct {
	Workers    int
	QuickLimit int
}

type App struct {
	cfgPath   string
	overrides Overrides
	fs        afero.Fs
	out       io.Writer

	cfg     *config.Config
	syncer  *syncer.Syncer
	srv     *http.Server
	closers []func() error
	log     *slog.Logger
}

func New(cfgPath string, overrides Overrides) *App {
	return &App{
		cfgPath:   cfgPath,
		overrides: overrides,
		fs:        afero.NewOsFs(),
		out:       os.Stdout,
	}
}

// Setup loads the configuration and builds every component. Any error here
// is fatal for the run.
func (a *App) Setup(ctx context.Context) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}

	if a.overrides.Workers >= 0 {
		cfg.Workers = config.ClampWorkers(a.overrides.Workers)
	}
	if a.overrides.QuickLimit >= 0 {
		cfg.QuickLimit = a.overrides.QuickLimit
	}
	a.cfg = cfg

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.log = log.With(slog.String("run_id", uuid.NewString()))

	ts, err := driveadapter.LoadCredentials(ctx, a.fs, cfg.Credentials.ClientSecret, cfg.Credentials.Token)
	if err != nil {
		return fmt.Errorf("cannot load credentials: %w", err)
	}

	factory := driveadapter.NewFactory(ts, cfg.DriveEndpoint, a.log)
	lister, err := factory.NewClient(ctx)
	if err != nil {
		return err
	}

	backend, err := a.newProgressBackend(ctx)
	if err != nil {
		return fmt.Errorf("cannot open progress backend: %w", err)
	}

	store := progress.Open(ctx, backend, a.log)
	st := stats.New()

	enum := enumerate.NewEnumerator(lister, enumerate.Options{
		MimeType:  cfg.MimeType,
		Extension: cfg.Extension,
		Limit:     cfg.QuickLimit,
	}, a.log)

	worker := download.NewWorker(a.fs, factory, store, st, download.Options{
		FetchTimeout: cfg.FetchTimeout,
	}, a.log)

	reporter := report.NewReporter(st, report.Options{
		Interval: cfg.ReportInterval,
		Output:   a.out,
	})

	a.syncer = syncer.NewSyncer(a.fs, cfg.CollectionList(), enum, worker, store, st, reporter, syncer.Options{
		Root:        cfg.Root,
		Workers:     cfg.Workers,
		ResetPolicy: cfg.Progress.ResetPolicy,
		Output:      a.out,
	}, a.log)

	if cfg.Metrics.Listen != "" {
		a.startMetrics(st)
	}

	return nil
}

// Run performs one sync pass.
func (a *App) Run(ctx context.Context) (*entity.Summary, error) {
	fmt.Fprintf(a.out, "Music sync: %d collections into %s with %d workers\n",
		len(a.cfg.Collections), a.cfg.Root, a.cfg.Workers)
	if a.cfg.QuickLimit > 0 {
		fmt.Fprintf(a.out, "Quick mode: at most %d files per collection\n", a.cfg.QuickLimit)
	}

	return a.syncer.Run(ctx)
}

func (a *App) Stop() {
	if a.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()

		if err := a.srv.Shutdown(ctx); err != nil {
			a.log.Error("Cannot stop metrics server", slog.Any("error", err))
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.log != nil {
			a.log.Error("Cannot close resource", slog.Any("error", err))
		}
	}
}

func (a *App) newProgressBackend(ctx context.Context) (progress.Backend, error) {
	pc := a.cfg.Progress

	switch pc.Backend {
	case config.ProgressBackendFile:
		return progress.NewFileBackend(a.fs, pc.Path), nil
	case config.ProgressBackendBlob:
		bucket, err := progress.OpenBucket(ctx, pc.BucketURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, bucket.Close)

		return progress.NewBlobBackend(bucket, pc.Key), nil
	case config.ProgressBackendRedis:
		cl, err := rprogress.NewClient(ctx, pc.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, cl.Close)

		return rprogress.NewProgressRepository(cl, pc.Key, a.log), nil
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownProgressBackend, pc.Backend)
	}
}

func (a *App) startMetrics(st *stats.Stats) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(stats.NewCollector(st))

	a.srv = &http.Server{
		Addr:              a.cfg.Metrics.Listen,
		Handler:           httphandler.NewMux(st, reg, a.log),
		ReadHeaderTimeout: stopTimeout,
	}

	go func() {
		a.log.Info("Start listen", slog.String("addr", a.cfg.Metrics.Listen))

		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Could not serve", slog.String("listen_addr", a.cfg.Metrics.Listen), slog.Any("error", err))
		}
	}()
}

func newLogger(level string) (*slog.Logger, error) {
	lo := &slog.HandlerOptions{}
	switch level {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownLogLevel, level)
	}

	return slog.New(slog.NewTextHandler(os.Stderr, lo)), nil
}
