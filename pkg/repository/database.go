package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/nimburion/mongorepo/pkg/config"
	"github.com/nimburion/mongorepo/pkg/observability/logger"
	"github.com/nimburion/mongorepo/pkg/store"
	mongostore "github.com/nimburion/mongorepo/pkg/store/mongodb"
)

// InsertFailurePolicy decides what a failed single insert reports to the caller.
type InsertFailurePolicy int

const (
	// SuppressInsertFailure logs the failure and returns nil.
	SuppressInsertFailure InsertFailurePolicy = iota
	// PropagateInsertFailure returns the failure.
	PropagateInsertFailure
)

func (p InsertFailurePolicy) String() string {
	switch p {
	case SuppressInsertFailure:
		return config.InsertFailureSuppress
	case PropagateInsertFailure:
		return config.InsertFailurePropagate
	default:
		return fmt.Sprintf("InsertFailurePolicy(%d)", int(p))
	}
}

// ParseInsertFailurePolicy converts a configuration value. The empty string
// selects SuppressInsertFailure.
func ParseInsertFailurePolicy(s string) (InsertFailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case config.InsertFailureSuppress, "":
		return SuppressInsertFailure, nil
	case config.InsertFailurePropagate:
		return PropagateInsertFailure, nil
	default:
		return 0, &config.ConfigurationError{Key: "insert_failure_policy", Reason: fmt.Sprintf("invalid value %q", s)}
	}
}

var _ store.Adapter = (*Database)(nil)

// Database is the process wide handle shared by every Repository view.
type Database struct {
	exec        Executor
	log         logger.Logger
	policy      InsertFailurePolicy
	collections *config.Config
}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logger.Logger) Option {
	return func(d *Database) {
		if log != nil {
			d.log = log
		}
	}
}

// WithInsertFailurePolicy sets the single insert failure policy.
func WithInsertFailurePolicy(policy InsertFailurePolicy) Option {
	return func(d *Database) {
		d.policy = policy
	}
}

// WithCollections maps Go type names to collection names.
func WithCollections(collections map[string]string) Option {
	return func(d *Database) {
		mapped := make(map[string]string, len(collections))
		for typeName, name := range collections {
			mapped[typeName] = name
		}
		d.collections = &config.Config{Collections: mapped}
	}
}

// NewDatabase creates a Database over exec.
func NewDatabase(exec Executor, opts ...Option) (*Database, error) {
	if exec == nil {
		return nil, ErrExecutorRequired
	}
	d := &Database{
		exec:   exec,
		log:    logger.NewNop(),
		policy: SuppressInsertFailure,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Open validates cfg, connects to MongoDB and returns the handle. opts are
// applied after the options derived from cfg.
// Configuration problems are reported before any network I/O.
func Open(cfg *config.Config, log logger.Logger, opts ...Option) (*Database, error) {
	if cfg == nil {
		return nil, &config.ConfigurationError{Key: "host", Reason: "mongo host is not configured"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := ParseInsertFailurePolicy(cfg.InsertFailurePolicy)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	adapter, err := mongostore.NewAdapter(mongostore.Config{
		URL:              cfg.Host,
		Database:         cfg.Database,
		ConnectTimeout:   cfg.ConnectTimeout,
		OperationTimeout: cfg.OperationTimeout,
	}, log)
	if err != nil {
		return nil, err
	}
	exec, err := NewMongoDBExecutor(adapter)
	if err != nil {
		_ = adapter.Close()
		return nil, err
	}

	return NewDatabase(exec, append([]Option{
		WithLogger(log),
		WithInsertFailurePolicy(policy),
		WithCollections(cfg.Collections),
	}, opts...)...)
}

// InsertFailurePolicy returns the configured single insert failure policy.
func (d *Database) InsertFailurePolicy() InsertFailurePolicy {
	return d.policy
}

// HealthCheck pings the store.
func (d *Database) HealthCheck(ctx context.Context) error {
	return d.exec.HealthCheck(ctx)
}

// Close releases the store connection.
func (d *Database) Close() error {
	return d.exec.Close()
}

// collectionFor returns the mapped collection for typeName, or typeName itself.
func (d *Database) collectionFor(typeName string) string {
	if name, ok := d.collections.CollectionFor(typeName); ok {
		return name
	}
	return typeName
}
