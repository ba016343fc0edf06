package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"

	"github.com/fluxionhq/fluxion/pkg/cmd"
	"github.com/fluxionhq/fluxion/pkg/eventbus"
	"github.com/fluxionhq/fluxion/pkg/events"
	"github.com/fluxionhq/fluxion/pkg/log"
	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/otelhelper"
	"github.com/fluxionhq/fluxion/pkg/protocol"
	"github.com/fluxionhq/fluxion/pkg/workflow"
)

func runCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "graph",
			Aliases: []string{"g"},
			Usage:   "Path to a graph JSON file",
		},
		&cli.StringFlag{
			Name:    "workflow-id",
			Aliases: []string{"w"},
			Usage:   "ID of a persisted workflow graph",
		},
		&cli.StringFlag{
			Name:    "data-url",
			Usage:   "Storage location for persisted workflows",
			Value:   "./data",
			Sources: cli.EnvVars("FLUXION_DATA_URL"),
		},
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "Run input, passed to the graph's input node",
		},
		&cli.StringFlag{
			Name:  "cron",
			Usage: "Cron expression for recurring runs (blocks until interrupted)",
		},
		&cli.BoolFlag{
			Name:  "trace",
			Usage: "Print the full per-node trace instead of just the output",
		},
		&cli.BoolFlag{
			Name:    "follow",
			Aliases: []string{"f"},
			Usage:   "Stream node lifecycle events while the run executes",
		},
	}
	flags = append(flags, llmFlags()...)
	flags = append(flags, busFlags()...)

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Execute a workflow graph",
		Flags:   flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("fluxion-run")

			executor, bus, err := buildGraphExecutor(ctx, logger, command)
			if err != nil {
				return err
			}

			defer func() {
				if err := bus.Close(); err != nil {
					logger.Error("Failed to close event bus", "error", err)
				}
			}()

			if command.Bool("follow") {
				if err := followEvents(ctx, bus, logger); err != nil {
					return fmt.Errorf("failed to subscribe to lifecycle events: %w", err)
				}
			}

			req, err := buildRequest(command)
			if err != nil {
				return err
			}

			if spec := command.String("cron"); spec != "" {
				return runRecurring(ctx, logger, executor, req, spec, command.Bool("trace"))
			}

			return runOnce(ctx, executor, req, command.Bool("trace"))
		},
	}
}

func buildGraphExecutor(ctx context.Context, logger *slog.Logger, command *cli.Command) (*workflow.GraphExecutor, eventbus.EventBus, error) {
	client := cmd.NewLLMClient(cmd.LLMOptions{
		APIKey:         command.String("llm-api-key"),
		BaseURL:        command.String("llm-base-url"),
		Model:          command.String("model"),
		EmbeddingModel: command.String("embedding-model"),
	})

	bus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
	if err != nil {
		return nil, nil, err
	}

	store := cmd.NewPersistence(command.String("data-url"))

	opts := []workflow.Option{
		workflow.WithGraphLoader(store.GraphRepository()),
		workflow.WithEventBus(bus),
	}

	if command.Bool("tracing") {
		tracer, err := otelhelper.NewTracer(ctx, "fluxion")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}

		opts = append(opts, workflow.WithTracer(tracer))
	}

	executor := workflow.NewGraphExecutor(logger, cmd.NewRegistry(logger, client), opts...)

	return executor, bus, nil
}

// followEvents prints node and run lifecycle events as the event bus delivers
// them.
func followEvents(ctx context.Context, bus eventbus.EventBus, logger *slog.Logger) error {
	handlers := map[events.EventType]eventbus.EventHandler{
		events.NodeFinishedEvent: func(_ context.Context, event any) error {
			if e, ok := event.(*events.NodeFinished); ok {
				logger.Info("Node finished", "node_id", e.NodeID, "kind", e.Kind, "duration", e.Duration)
			}

			return nil
		},
		events.NodeFailedEvent: func(_ context.Context, event any) error {
			if e, ok := event.(*events.NodeFailed); ok {
				logger.Warn("Node failed", "node_id", e.NodeID, "kind", e.Kind, "error", e.Error)
			}

			return nil
		},
		events.ExecutionCompletedEvent: func(_ context.Context, event any) error {
			if e, ok := event.(*events.ExecutionCompleted); ok {
				logger.Info("Execution completed", "calls", e.Calls, "total_tokens", e.Usage.TotalTokens, "duration", e.Duration)
			}

			return nil
		},
		events.ExecutionFailedEvent: func(_ context.Context, event any) error {
			if e, ok := event.(*events.ExecutionFailed); ok {
				logger.Warn("Execution failed", "error", e.Error, "duration", e.Duration)
			}

			return nil
		},
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return err
		}
	}

	return bus.Subscribe(ctx)
}

func buildRequest(command *cli.Command) (protocol.ExecutionRequest, error) {
	req := protocol.ExecutionRequest{
		WorkflowID: command.String("workflow-id"),
		Input:      command.String("input"),
		Options: models.RunOptions{
			Model: command.String("model"),
		},
	}

	path := command.String("graph")
	if path == "" && req.WorkflowID == "" {
		return req, fmt.Errorf("either --graph or --workflow-id is required")
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return req, fmt.Errorf("failed to read graph file: %w", err)
		}

		var graph models.Graph
		if err := json.Unmarshal(data, &graph); err != nil {
			return req, fmt.Errorf("failed to parse graph file: %w", err)
		}

		req.Graph = &graph
	}

	return req, nil
}

func runOnce(ctx context.Context, executor protocol.Executor, req protocol.ExecutionRequest, withTrace bool) error {
	result, err := executor.Execute(ctx, req)
	if err != nil {
		return err
	}

	return printResult(result, withTrace)
}

// runRecurring schedules the run on a cron expression and blocks until the
// process is interrupted.
func runRecurring(ctx context.Context, logger *slog.Logger, executor protocol.Executor, req protocol.ExecutionRequest, spec string, withTrace bool) error {
	scheduler := cron.New()

	_, err := scheduler.AddFunc(spec, func() {
		if err := runOnce(ctx, executor, req, withTrace); err != nil {
			logger.Error("Scheduled run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}

	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("Scheduler started", "cron", spec)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
	case <-stop:
	}

	logger.Info("Scheduler stopping")

	return nil
}

func printResult(result *models.ExecutionResult, withTrace bool) error {
	if withTrace {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}

		fmt.Println(string(data))

		return nil
	}

	data, err := json.MarshalIndent(result.Output, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(data))

	if !result.Success {
		return fmt.Errorf("run %s failed: %s", result.ExecutionID, result.Error)
	}

	return nil
}
