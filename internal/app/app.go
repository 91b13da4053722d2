package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sketchbox/internal/analytics"
	"github.com/GriffinCanCode/sketchbox/internal/client"
	"github.com/GriffinCanCode/sketchbox/internal/generator"
	"github.com/GriffinCanCode/sketchbox/internal/history"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/config"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/preview"
	"github.com/GriffinCanCode/sketchbox/internal/session"
	"github.com/GriffinCanCode/sketchbox/internal/shared/paths"
	"github.com/GriffinCanCode/sketchbox/internal/studio"
)

// analyticsBuffer is how many events may queue before new ones are dropped.
const analyticsBuffer = 256

// App holds every long-lived component of a process.
type App struct {
	Config   *config.Config
	Logger   *logging.Logger
	Registry *prometheus.Registry
	Metrics  *monitoring.Metrics
	Tracer   *tracing.Tracer
	Events   *analytics.Tracker
	Preview  *preview.Harness
	Client   *client.Client
	Coder    studio.Coder
	Session  *session.Store
	History  *history.Store
	Studio   *studio.Studio
}

// New wires an App from cfg. Local history and credentials are optional:
// failing to open them is logged and the App runs without them.
func New(cfg *config.Config, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	logger = logging.OrNop(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  monitoring.NewMetrics(reg),
		Tracer:   tracing.New("sketchbox", logger.Logger),
	}
	a.Events = analytics.New(logger.Named("analytics"), analyticsBuffer,
		analytics.LogSink(logger.Named("analytics")),
		analytics.CounterSink(a.Metrics),
	)
	a.Preview = preview.NewHarness(preview.ConfigFrom(cfg.Sandbox), logger.Named("preview"), a.Metrics)

	if store, err := openSession(cfg.Storage.CredentialsFile); err != nil {
		logger.Warn("Credentials unavailable", zap.Error(err))
	} else {
		a.Session = store
	}

	opts := []client.Option{client.WithMetrics(a.Metrics), client.WithLogger(logger.Named("client"))}
	if a.Session != nil {
		opts = append(opts, client.WithTokenSource(a.Session.Token))
	}
	a.Client = client.New(client.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Retries: cfg.API.Retries,
		RPS:     cfg.API.RPS,
	}, opts...)

	a.Coder = a.Client
	if cfg.Generator.APIKey != "" {
		genOpts := generator.DefaultOptions()
		genOpts.APIKey = cfg.Generator.APIKey
		genOpts.Model = cfg.Generator.Model
		genOpts.MaxTokens = cfg.Generator.MaxTokens
		a.Coder = generator.New(genOpts, logger)
		logger.Info("Using direct generator", zap.String("model", genOpts.Model))
	}

	if store, err := openHistory(cfg.Storage.HistoryDB); err != nil {
		logger.Warn("Run history unavailable", zap.Error(err))
	} else {
		a.History = store
	}

	studioOpts := []studio.Option{
		studio.WithEvents(a.Events),
		studio.WithTracer(a.Tracer),
		studio.WithLogger(logger.Named("studio")),
	}
	if a.History != nil {
		studioOpts = append(studioOpts, studio.WithJournal(a.History))
	}
	a.Studio = studio.New(a.Coder, a.Client, a.Preview,
		studio.Options{FixAttempts: cfg.Studio.FixAttempts}, studioOpts...)

	return a, nil
}

func openSession(name string) (*session.Store, error) {
	if name == "" {
		return session.Open("")
	}
	path, err := paths.Resolve(name)
	if err != nil {
		return nil, err
	}
	return session.Open(path)
}

func openHistory(name string) (*history.Store, error) {
	path, err := paths.Resolve(name)
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

// Close flushes analytics and tracing and closes local storage.
func (a *App) Close() error {
	a.Preview.Close()
	a.Events.Close()
	a.Tracer.Close()
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			return fmt.Errorf("failed to close history: %w", err)
		}
	}
	return nil
}
