// Command depot inspects the foreign keys of a database against an entity
// catalog and renders the joins the catalog allows.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/syssam/depot/catalog"
	"github.com/syssam/depot/config"
	"github.com/syssam/depot/dialect/sql"
	"github.com/syssam/depot/dialect/sql/schema"

	// Register database/sql drivers.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "depot",
		Usage: "Reflect foreign keys and plan joins over an entity catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the configuration file",
				Value:   "depot.yaml",
				Sources: cli.EnvVars("DEPOT_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "driver",
				Usage: "database/sql driver name (postgres, pgx, mysql, sqlite)",
			},
			&cli.StringFlag{
				Name:  "dsn",
				Usage: "data source name",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			reflectCommand(),
			pathCommand(),
			checkCommand(),
		},
	}
}

// env is the state shared by the commands.
type env struct {
	cfg       *config.Config
	cat       *catalog.Catalog
	drv       *sql.StatsDriver
	reflector *schema.Reflector
	out       io.Writer
}

func (e *env) Close() error {
	e.cfg.Logger(os.Stderr).Debug("statement stats", "stats", e.drv.QueryStats().Snapshot().String())
	return e.drv.Close()
}

// setup loads the configuration, applies the global flags and connects.
// A missing configuration file is only an error when set explicitly.
func setup(ctx context.Context, cmd *cli.Command) (*env, error) {
	root := cmd.Root()
	cfg, err := config.Load(root.String("config"))
	switch {
	case errors.Is(err, fs.ErrNotExist) && !root.IsSet("config"):
		cfg = config.Default()
		cfg.ApplyEnv(os.LookupEnv)
	case err != nil:
		return nil, err
	}
	if v := root.String("driver"); v != "" {
		cfg.Driver = v
	}
	if v := root.String("dsn"); v != "" {
		cfg.DSN = v
	}
	if v := root.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger(os.Stderr)
	drv, err := cfg.Open(ctx, logger)
	if err != nil {
		return nil, err
	}
	r, err := schema.NewAtlasReflector(drv, schema.WithLogger(logger))
	if err != nil {
		drv.Close()
		return nil, err
	}
	out := root.Writer
	if out == nil {
		out = os.Stdout
	}
	return &env{cfg: cfg, cat: cat, drv: drv, reflector: r, out: out}, nil
}

// entities resolves the table arguments. No arguments means the whole
// catalog.
func (e *env) entities(tables []string) ([]*catalog.Entity, error) {
	if len(tables) == 0 {
		return e.cat.Entities(), nil
	}
	entities := make([]*catalog.Entity, 0, len(tables))
	for _, t := range tables {
		ent, err := e.cat.Lookup(t)
		if err != nil {
			return nil, err
		}
		entities = append(entities, ent)
	}
	return entities, nil
}
