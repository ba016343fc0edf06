package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/fluxionhq/fluxion/pkg/compiler"
	"github.com/fluxionhq/fluxion/pkg/log"
	"github.com/fluxionhq/fluxion/pkg/models"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Compile a graph file and report structural problems",
		ArgsUsage: "<graph.json>",
		Action: func(_ context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			path := command.Args().First()
			if path == "" {
				return fmt.Errorf("usage: fluxion validate <graph.json>")
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read graph file: %w", err)
			}

			var graph models.Graph
			if err := json.Unmarshal(data, &graph); err != nil {
				return fmt.Errorf("failed to parse graph file: %w", err)
			}

			if err := graph.Validate(); err != nil {
				return fmt.Errorf("invalid graph: %w", err)
			}

			plan, err := compiler.Compile(&graph)
			if err != nil {
				return err
			}

			fmt.Printf("ok: %d nodes, %d edges\n", len(plan.Order), len(graph.Edges))
			fmt.Printf("execution order: %v\n", plan.Order)

			return nil
		},
	}
}
