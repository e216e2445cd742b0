package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/nimburion/mongorepo/internal/customer"
	"github.com/nimburion/mongorepo/pkg/config"
	"github.com/nimburion/mongorepo/pkg/observability/logger"
	"github.com/nimburion/mongorepo/pkg/observability/metrics"
	"github.com/nimburion/mongorepo/pkg/observability/tracing"
	"github.com/nimburion/mongorepo/pkg/repository"
	"github.com/nimburion/mongorepo/pkg/version"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	outputYAML = "yaml"
	outputJSON = "json"
)

// app carries the global flags shared by every subcommand.
type app struct {
	out        io.Writer
	logOut     io.Writer
	configFile string
	envPrefix  string
	output     string
	// printMetrics dumps the gathered store metrics to logOut after a command.
	printMetrics bool

	// open is replaced in tests.
	open func(cfg *config.Config, log logger.Logger, opts ...repository.Option) (*repository.Database, error)
}

func newApp(out, logOut io.Writer) *app {
	return &app{
		out:       out,
		logOut:    logOut,
		envPrefix: config.DefaultEnvPrefix,
		output:    outputYAML,
		open:      repository.Open,
	}
}

// loadConfigAndLogger resolves configuration and builds the logger it describes.
func (a *app) loadConfigAndLogger(flags *pflag.FlagSet) (*config.Config, *logger.ZapLogger, error) {
	cfg, err := config.NewViperLoader(a.configFile, a.envPrefix).WithFlags(flags).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level, err := logger.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	format, err := logger.ParseLogFormat(cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewZapLogger(logger.Config{Level: level, Format: format, Output: a.logOut})
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	if level == logger.DebugLevel {
		log.Debug("effective configuration",
			"database", cfg.Database,
			"insert_failure_policy", cfg.InsertFailurePolicy,
			"collections", cfg.Collections,
		)
	}
	return cfg, log, nil
}

// withDatabase opens the configured database for the duration of fn. Every
// entry logged during the run carries the same correlation ID.
func (a *app) withDatabase(ctx context.Context, flags *pflag.FlagSet, fn func(ctx context.Context, db *repository.Database, cfg *config.Config, log logger.Logger) error) error {
	cfg, zl, err := a.loadConfigAndLogger(flags)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	ctx = logger.ContextWithCorrelationID(ctx, uuid.NewString())
	log := zl.WithContext(ctx)

	info := version.Current(version.ServiceName)
	tp, err := tracing.NewTracerProvider(ctx, tracing.TracerConfig{
		ServiceName:    info.Service,
		ServiceVersion: info.Version,
		Environment:    cfg.Tracing.Environment,
		Endpoint:       cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Insecure:       cfg.Tracing.Insecure,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		return fmt.Errorf("create tracer provider: %w", err)
	}
	defer func() {
		if serr := tp.Shutdown(context.Background()); serr != nil {
			log.Error("failed to shutdown tracing provider", "error", serr)
		}
	}()

	registry := metrics.NewRegistry()
	if a.printMetrics {
		defer func() {
			if werr := registry.WriteText(a.logOut); werr != nil {
				log.Warn("write metrics", "error", werr)
			}
		}()
	}

	db, err := a.open(cfg, log, repository.WithInstrumentation(cfg.Database, registry.Store()))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Warn("close database", "error", cerr)
		}
	}()
	log.Debug("database opened", "database", cfg.Database, "insert_failure_policy", db.InsertFailurePolicy())

	return fn(ctx, db, cfg, log)
}

// withCustomers opens the customer repository for the duration of fn.
func (a *app) withCustomers(ctx context.Context, flags *pflag.FlagSet, fn func(ctx context.Context, repo *customer.Repository) error) error {
	return a.withDatabase(ctx, flags, func(ctx context.Context, db *repository.Database, _ *config.Config, _ logger.Logger) error {
		repo, err := repository.New[customer.Customer](db)
		if err != nil {
			return err
		}
		return fn(ctx, repo)
	})
}

type customerView struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	CreatedOn  time.Time  `json:"created_on" yaml:"created_on"`
	ModifiedOn *time.Time `json:"modified_on,omitempty" yaml:"modified_on,omitempty"`
}

func viewOf(c *customer.Customer) customerView {
	return customerView{ID: c.ID, Name: c.Name, CreatedOn: c.CreatedOn, ModifiedOn: c.ModifiedOn}
}

func (a *app) print(v any) error {
	switch a.output {
	case outputJSON:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (use %s or %s)", a.output, outputYAML, outputJSON)
	}
}

func (a *app) printCustomer(c *customer.Customer) error {
	if c == nil {
		_, err := fmt.Fprintln(a.out, "not found")
		return err
	}
	return a.print(viewOf(c))
}
