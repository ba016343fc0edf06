package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
)

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:                  "fluxion",
		Usage:                 "Run workflow graphs and agentic chat turns",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			chatCommand(),
			validateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func llmFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "llm-api-key",
			Usage:   "API key for the chat backend",
			Sources: cli.EnvVars("FLUXION_LLM_API_KEY"),
		},
		&cli.StringFlag{
			Name:    "llm-base-url",
			Usage:   "Base URL of an OpenAI-compatible API",
			Sources: cli.EnvVars("FLUXION_LLM_BASE_URL"),
		},
		&cli.StringFlag{
			Name:    "model",
			Usage:   "Default chat model",
			Sources: cli.EnvVars("FLUXION_MODEL"),
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model for memory retrieval",
			Sources: cli.EnvVars("FLUXION_EMBEDDING_MODEL"),
		},
	}
}

func busFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus provider (memory, kafka)",
			Value:   "memory",
			Sources: cli.EnvVars("FLUXION_EVENT_BUS"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma-separated kafka broker list",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Export OTLP traces for runs and nodes",
			Sources: cli.EnvVars("FLUXION_TRACING"),
		},
	}
}
