package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/syssam/depot/dialect/sql/schema"
	"github.com/syssam/depot/dialect/sql/sqlgraph"
)

func pathCommand() *cli.Command {
	return &cli.Command{
		Name:      "path",
		Usage:     "Validate a join path and print its query",
		ArgsUsage: "<table> <table> [tables...]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "column",
				Usage: "qualified column to select (default: every column)",
			},
		},
		Action: runPath,
	}
}

func runPath(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 2 {
		return fmt.Errorf("usage: depot path <table> <table> [tables...]")
	}
	e, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	entities, err := e.entities(cmd.Args().Slice())
	if err != nil {
		return err
	}
	snap, err := e.reflector.Reflect(ctx, entities...)
	if err != nil {
		return err
	}
	p, err := sqlgraph.NewPath(snap, entities...)
	if err != nil {
		return err
	}
	for _, pair := range p.Pairs() {
		fk, _ := snap.Between(schema.KeyOf(pair[0]), schema.KeyOf(pair[1]))
		fmt.Fprintf(e.out, "%s\n", fk)
	}
	s, err := sqlgraph.NewJoin(e.drv.Dialect(), p).Build(cmd.StringSlice("column"))
	if err != nil {
		return err
	}
	query, _ := s.Query()
	fmt.Fprintf(e.out, "%s\n", query)
	return nil
}
