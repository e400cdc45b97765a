package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/syssam/depot/dialect/sql/schema"
)

// errCheckFailed is returned when the database does not match the catalog.
var errCheckFailed = errors.New("catalog does not match the database")

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Compare the declared references with the database foreign keys",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "allow-undeclared",
				Usage: "do not warn about foreign keys missing from the catalog",
			},
			&cli.BoolFlag{
				Name:  "strict-actions",
				Usage: "report ON DELETE and ON UPDATE mismatches as errors",
			},
		},
		Action: runCheck,
	}
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	snap, err := e.reflector.Reflect(ctx, e.cat.Entities()...)
	if err != nil {
		return err
	}
	var opts []schema.ValidateOption
	if cmd.Bool("allow-undeclared") {
		opts = append(opts, schema.AllowUndeclared())
	}
	if cmd.Bool("strict-actions") {
		opts = append(opts, schema.StrictActions())
	}
	result := schema.Validate(e.cat, snap, opts...)
	if !result.HasErrors() && !result.HasWarnings() {
		fmt.Fprintf(e.out, "ok: %d tables\n", e.cat.Len())
		return nil
	}
	fmt.Fprint(e.out, result.String())
	if result.HasErrors() {
		return errCheckFailed
	}
	return nil
}
