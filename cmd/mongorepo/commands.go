package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimburion/mongorepo/internal/customer"
	"github.com/nimburion/mongorepo/pkg/config"
	"github.com/nimburion/mongorepo/pkg/health"
	"github.com/nimburion/mongorepo/pkg/observability/logger"
	"github.com/nimburion/mongorepo/pkg/repository"
	"github.com/nimburion/mongorepo/pkg/version"
	"github.com/spf13/cobra"
)

// errUnhealthy is returned by the health command when any check fails.
var errUnhealthy = errors.New("database is unhealthy")

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           version.ServiceName,
		Short:         "Manage customer documents stored in MongoDB",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configFile, "config-file", "c", "", "config file path (yaml, json or toml)")
	pf.StringVar(&a.envPrefix, "env-prefix", config.DefaultEnvPrefix, "environment variable prefix")
	pf.StringVarP(&a.output, "output", "o", outputYAML, "output format (yaml or json)")
	pf.String("host", "", "mongo connection string")
	pf.String("database", "", "database name")
	pf.String("insert-failure-policy", "", "suppress or propagate single insert failures")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (json or text)")
	pf.Bool("tracing-enabled", false, "export store spans over OTLP")
	pf.String("tracing-endpoint", "", "OTLP gRPC collector endpoint (host:port)")
	pf.BoolVar(&a.printMetrics, "print-metrics", false, "write store metrics to stderr when the command ends")

	root.AddCommand(
		newVersionCommand(a),
		newConfigCommand(a),
		newHealthCommand(a),
		newInsertCommand(a),
		newGetCommand(a),
		newListCommand(a),
		newCountCommand(a),
		newFirstCommand(a),
		newLastCommand(a),
		newRenameCommand(a),
		newRenameAllCommand(a),
		newDeleteCommand(a),
		newDeleteByNameCommand(a),
		newGroupCommand(a),
	)
	return root
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.print(version.Current(version.ServiceName))
		},
	}
}

type configView struct {
	Host                string            `json:"host" yaml:"host"`
	Database            string            `json:"database" yaml:"database"`
	ConnectTimeout      string            `json:"connect_timeout" yaml:"connect_timeout"`
	OperationTimeout    string            `json:"operation_timeout" yaml:"operation_timeout"`
	InsertFailurePolicy string            `json:"insert_failure_policy" yaml:"insert_failure_policy"`
	Collections         map[string]string `json:"collections,omitempty" yaml:"collections,omitempty"`
	LogLevel            string            `json:"log_level" yaml:"log_level"`
	LogFormat           string            `json:"log_format" yaml:"log_format"`
}

func newConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.loadConfigAndLogger(cmd.Flags())
			if err != nil {
				return err
			}
			return a.print(configView{
				Host:                cfg.Host,
				Database:            cfg.Database,
				ConnectTimeout:      cfg.ConnectTimeout.String(),
				OperationTimeout:    cfg.OperationTimeout.String(),
				InsertFailurePolicy: cfg.InsertFailurePolicy,
				Collections:         cfg.Collections,
				LogLevel:            cfg.Log.Level,
				LogFormat:           cfg.Log.Format,
			})
		},
	}
}

func newHealthCommand(a *app) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check connectivity to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDatabase(cmd.Context(), cmd.Flags(), func(ctx context.Context, db *repository.Database, cfg *config.Config, log logger.Logger) error {
				registry := health.NewRegistry()
				registry.Register(health.NewDatabaseChecker("mongodb", cfg.Database, db, timeout))

				result := registry.Check(ctx)
				if err := a.print(result); err != nil {
					return err
				}
				if !result.IsHealthy() {
					log.Error("health check failed", "status", result.Status)
					return errUnhealthy
				}
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "health check timeout")
	return cmd
}

func newInsertCommand(a *app) *cobra.Command {
	var names []string
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert one customer per --name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(names) == 0 {
				return errors.New("at least one --name is required")
			}
			return a.withCustomers(cmd.Context(), cmd.Flags(), func(ctx context.Context, repo *customer.Repository) error {
				now := time.Now().UTC()
				docs := make([]*customer.Customer, len(names))
				for i, name := range names {
					docs[i] = &customer.Customer{Name: name}
					docs[i].CreatedOn = now
				}

				var err error
				if len(docs) == 1 {
					err = repo.Insert(ctx, docs[0])
				} else {
					err = repo.InsertMany(ctx, docs)
				}
				if err != nil {
					return err
				}

				views := make([]customerView, len(docs))
				for i, doc := range docs {
					views[i] = viewOf(doc)
				}
				return a.print(views)
			})
		},
	}
	cmd.Flags().StringArrayVar(&names, "name", nil, "customer name (repeatable)")
	return cmd
}

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a customer by identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCustomers(cmd.Context(), cmd.Flags(), func(ctx context.Context, repo *customer.Repository) error {
				doc, err := repo.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return a.printCustomer(doc)
			})
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	var (
		name     string
		limit    int
		page     int
		pageSize int
		desc     bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List customers ordered by creation time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCustomers(cmd.Context(), cmd.Flags(), func(ctx context.Context, repo *customer.Repository) error {
				q := listQuery(repo.Query(), name, limit, page, pageSize, desc)
				views := []customerView{}
				for doc, err := range q.Seq(ctx) {
					if err != nil {
						return err
					}
					views = append(views, viewOf(doc))
				}
				return a.print(views)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only customers with this name")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of customers (0 = no limit)")
	cmd.Flags().IntVar(&page, "page", 0, "page number, starting at 1 (requires --page-size)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "page size")
	cmd.Flags().BoolVar(&desc, "desc", false, "newest first")
	return cmd
}

// listQuery composes the list command's query. Paging overrides --limit.
func listQuery(q *repository.Query[customer.Customer, *customer.Customer], name string, limit, page, pageSize int, desc bool) *repository.Query[customer.Customer, *customer.Customer] {
	if name != "" {
		q = q.Where(customer.NameIs(name))
	}
	order := repository.SortAsc
	if desc {
		order = repository.SortDesc
	}
	q = q.OrderBy(customer.CreatedOnField, order)
	if limit != 0 {
		q = q.Limit(limit)
	}
	if pageSize > 0 {
		q = q.Page(repository.Pagination{Page: page, PageSize: pageSize})
	}
	return q
}

func newCountCommand(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCustomers(cmd.Context(), cmd.Flags(), func(ctx context.Context, repo *customer.Repository) error {
				var (
					n   int64
					err error
				)
				if name == "" {
					n, err = repo.Count(ctx)
				} else {
					n, err = repo.Query().Where(customer.NameIs(name)).Count(ctx)
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.out, n)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only customers with this name")
	return cmd
}

func newFirstCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "first",
		Short: "Show the first customer in natural order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCustomers(cmd.Context(), cmd.Flags(), func(ctx context.Context, repo *customer.Repository) error {
				doc, err := repo.First(ctx)
				if err != nil {
					return err
				}
				return a.printCustomer(doc)
			})
		},
	}
}

func newLastCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Show the last customer in natural order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCustomers(cmd.Context(), cmd.Flags(), func(ctx context.Context, repo *customer.Repository) error {
				doc, err := repo.Last(ctx)
				if err != nil {
					return err
				}
				return a.printCustomer(doc)
			})
		},
	}
}

func newRenameCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename one customer and stamp its modification time",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCustomers(cmd.Context(), cmd.Flags(), func(ctx context.Context, repo *customer.Repository) error {
				ok, err := repo.Update(ctx, customer.IDIs(args[0]), customer.Rename(args[1]))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(a.out, "acknowledged: %t\n", ok)
				return err
			})
		},
	}
}

func newRenameAllCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename-all <old-name> <new-name>",
		Short: "Rename every customer with the given name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCustomers(cmd.Context(), cmd.Flags(), func(ctx context.Context, repo *customer.Repository) error {
				ok, err := repo.UpdateMany(ctx, customer.NameIs(args[0]), customer.Rename(args[1]))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(a.out, "acknowledged: %t\n", ok)
				return err
			})
		},
	}
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a customer by identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCustomers(cmd.Context(), cmd.Flags(), func(ctx context.Context, repo *customer.Repository) error {
				return repo.Delete(ctx, args[0])
			})
		},
	}
}

func newDeleteByNameCommand(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "delete-by-name <name>",
		Short: "Delete the first customer with the given name, or all of them with --all",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCustomers(cmd.Context(), cmd.Flags(), func(ctx context.Context, repo *customer.Repository) error {
				if all {
					n, err := repo.DeleteMany(ctx, customer.NameIs(args[0]))
					if err != nil {
						return err
					}
					_, err = fmt.Fprintf(a.out, "deleted: %d\n", n)
					return err
				}
				removed, err := repo.DeleteWhere(ctx, customer.NameIs(args[0]))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(a.out, "deleted: %t\n", removed)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "delete every matching customer")
	return cmd
}

func newGroupCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "group",
		Short: "Count customers per name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCustomers(cmd.Context(), cmd.Flags(), func(ctx context.Context, repo *customer.Repository) error {
				groups, err := repo.Group(ctx, customer.ByName)
				if err != nil {
					return err
				}
				return a.print(groups)
			})
		},
	}
}
