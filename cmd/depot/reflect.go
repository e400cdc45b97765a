package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

type edge struct {
	Symbol   string `yaml:"symbol,omitempty"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	OnDelete string `yaml:"on_delete,omitempty"`
	OnUpdate string `yaml:"on_update,omitempty"`
}

func reflectCommand() *cli.Command {
	return &cli.Command{
		Name:      "reflect",
		Usage:     "Print the foreign keys between catalog tables",
		ArgsUsage: "[tables...]",
		Action:    runReflect,
	}
}

func runReflect(ctx context.Context, cmd *cli.Command) error {
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
	edges := make([]edge, 0)
	for _, fk := range snap.Edges() {
		edges = append(edges, edge{
			Symbol:   fk.Symbol,
			From:     fk.Table.String() + "." + fk.Column,
			To:       fk.RefTable.String() + "." + fk.RefColumn,
			OnDelete: string(fk.OnDelete),
			OnUpdate: string(fk.OnUpdate),
		})
	}
	data, err := yaml.Marshal(map[string][]edge{"foreign_keys": edges})
	if err != nil {
		return fmt.Errorf("encoding foreign keys: %w", err)
	}
	_, err = e.out.Write(data)
	return err
}
