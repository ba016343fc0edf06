package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/fluxionhq/fluxion/pkg/agentic"
	"github.com/fluxionhq/fluxion/pkg/cmd"
	"github.com/fluxionhq/fluxion/pkg/log"
	"github.com/fluxionhq/fluxion/pkg/models"
	"github.com/fluxionhq/fluxion/pkg/otelhelper"
	"github.com/fluxionhq/fluxion/pkg/protocol"
)

func chatCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "workflow-id",
			Aliases:  []string{"w"},
			Usage:    "Workflow whose skills and memory back the turn",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "session-id",
			Aliases: []string{"s"},
			Usage:   "Conversation session (auto-generated if not provided)",
		},
		&cli.StringFlag{
			Name:     "message",
			Aliases:  []string{"m"},
			Usage:    "User message for this turn",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "system-prompt",
			Usage: "System prompt prepended to the conversation",
		},
		&cli.StringFlag{
			Name:    "data-url",
			Usage:   "Storage location for persisted workflows and skills",
			Value:   "./data",
			Sources: cli.EnvVars("FLUXION_DATA_URL"),
		},
		&cli.StringFlag{
			Name:    "redis-addr",
			Usage:   "Redis address for session memory (in-process when empty)",
			Sources: cli.EnvVars("FLUXION_REDIS_ADDR"),
		},
		&cli.IntFlag{
			Name:  "max-iterations",
			Usage: "Model round-trip bound per turn",
			Value: agentic.DefaultMaxIterations,
		},
		&cli.IntFlag{
			Name:  "similarity-top-k",
			Usage: "Long-term memory entries retrieved per turn (0 disables)",
			Value: 3,
		},
	}
	flags = append(flags, llmFlags()...)
	flags = append(flags, busFlags()...)

	return &cli.Command{
		Name:    "chat",
		Aliases: []string{"c"},
		Usage:   "Run one agentic chat turn against a workflow's skills",
		Flags:   flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("fluxion-chat")

			client := cmd.NewLLMClient(cmd.LLMOptions{
				APIKey:         command.String("llm-api-key"),
				BaseURL:        command.String("llm-base-url"),
				Model:          command.String("model"),
				EmbeddingModel: command.String("embedding-model"),
			})

			bus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := bus.Close(); err != nil {
					logger.Error("Failed to close event bus", "error", err)
				}
			}()

			gateway, err := cmd.NewMemoryGateway(ctx, command.String("redis-addr"))
			if err != nil {
				return err
			}

			store := cmd.NewPersistence(command.String("data-url"))

			opts := []agentic.Option{
				agentic.WithSkillSource(store.SkillRepository()),
				agentic.WithEventBus(bus),
			}

			if command.Bool("tracing") {
				tracer, err := otelhelper.NewTracer(ctx, "fluxion")
				if err != nil {
					return fmt.Errorf("failed to initialize tracing: %w", err)
				}

				opts = append(opts, agentic.WithTracer(tracer))
			}

			controller := agentic.NewController(
				logger,
				client,
				gateway,
				agentic.Config{
					MaxIterations:  command.Int("max-iterations"),
					SimilarityTopK: command.Int("similarity-top-k"),
				},
				opts...,
			)

			sessionID := command.String("session-id")
			if sessionID == "" {
				sessionID = "session-" + uuid.New().String()[:8]
			}

			result, err := controller.Execute(ctx, protocol.ExecutionRequest{
				WorkflowID: command.String("workflow-id"),
				SessionID:  sessionID,
				Input:      command.String("message"),
				Options: models.RunOptions{
					Model:        command.String("model"),
					SystemPrompt: command.String("system-prompt"),
				},
			})
			if err != nil && !errors.Is(err, agentic.ErrLoopExhausted) {
				return err
			}

			if errors.Is(err, agentic.ErrLoopExhausted) {
				fmt.Printf("turn did not converge: %s\n", result.Error)

				return err
			}

			fmt.Printf("%v\n", result.Output)
			fmt.Printf("session=%s tokens=%d calls=%d\n", sessionID, result.Usage.TotalTokens, result.Calls)

			return nil
		},
	}
}
