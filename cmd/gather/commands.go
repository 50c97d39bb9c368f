package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gatherhq/gather/internal/agent"
	"github.com/gatherhq/gather/internal/buildinfo"
	"github.com/gatherhq/gather/internal/calendar"
	"github.com/gatherhq/gather/internal/config"
	"github.com/gatherhq/gather/internal/llm"
	"github.com/gatherhq/gather/internal/memory"
	"github.com/gatherhq/gather/internal/storage"
	"github.com/gatherhq/gather/internal/tools"
	"github.com/gatherhq/gather/internal/weather"
	"github.com/gatherhq/gather/internal/webhook"
)

// app holds everything a command needs after wiring.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	loop   *agent.Loop
	memory *memory.Store
	cal    *calendar.Store
	userID string
}

// buildApp loads config and constructs the full stack for a session
// user. Weather and webhook clients are optional: without API keys the
// corresponding tools report themselves unconfigured instead of
// failing.
func buildApp(flags *rootFlags) (*app, error) {
	// Load .env before anything reads the environment, so dotenv keys
	// reach both ${VAR} expansion in the YAML and the fallbacks below
	// even when no config file exists.
	_ = godotenv.Load()

	path, err := config.FindConfig(flags.configPath)
	var cfg *config.Config
	if err != nil {
		// No config file is fine for a first run; defaults plus
		// environment variables carry the keys.
		cfg = config.Default()
	} else {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Weather.APIKey == "" {
		cfg.Weather.APIKey = os.Getenv("OPENWEATHERMAP_API_KEY")
	}
	if cfg.Webhook.URL == "" {
		cfg.Webhook.URL = os.Getenv("WEBHOOK_URL")
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	loc, err := time.LoadLocation(cfg.Calendar.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar timezone %q: %w", cfg.Calendar.Timezone, err)
	}

	dir := storage.NewDir(cfg.DataDir)
	cal := calendar.NewStore(dir, loc, logger)
	mem := memory.NewStore(dir, cfg.Memory.WindowSize, cfg.Memory.MaxMessages, cfg.Memory.MaxToolCalls, logger)

	var weatherClient *weather.Client
	if cfg.Weather.APIKey != "" {
		weatherClient = weather.NewClient(cfg.Weather.APIKey, cfg.Weather.BaseURL, logger)
	} else {
		logger.Warn("OPENWEATHERMAP_API_KEY missing; weather tools disabled")
	}

	var webhookClient *webhook.Client
	if cfg.Webhook.URL != "" {
		webhookClient = webhook.NewClient(cfg.Webhook.URL, logger)
	}

	registry := tools.NewRegistry(cal, weatherClient, webhookClient, flags.userID, logger)

	if cfg.OpenAI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY missing; the agent will not run")
	}
	client := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)

	loop := agent.NewLoop(logger, client, registry, mem,
		cfg.Agent.MaxIterations, time.Duration(cfg.Agent.TurnTimeoutSec)*time.Second)

	return &app{
		cfg:    cfg,
		logger: logger,
		loop:   loop,
		memory: mem,
		cal:    cal,
		userID: flags.userID,
	}, nil
}

func newChatCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Gather ready. Type your request (Ctrl+D to exit).")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(cmd.OutOrStdout(), "> ")
				if !scanner.Scan() {
					fmt.Fprintln(cmd.OutOrStdout(), "\nBye!")
					return scanner.Err()
				}
				input := strings.TrimSpace(scanner.Text())
				if input == "" {
					continue
				}

				answer, err := a.loop.Run(cmd.Context(), a.userID, input)
				if err != nil {
					a.logger.Error("turn failed", "error", err)
					fmt.Fprintf(cmd.OutOrStdout(), "Something went wrong: %s\n", err)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), answer)
			}
		},
	}
}

func newAskCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}

			answer, err := a.loop.Run(cmd.Context(), a.userID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
}

func newClearCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Reset the session user's conversation memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}
			if err := a.memory.Clear(a.userID); err != nil {
				return fmt.Errorf("clear memory: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Memory cleared for %s.\n", a.userID)
			return nil
		},
	}
}

func newExportCmd(flags *rootFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the session user's calendar as an iCalendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}

			ics, err := a.cal.ExportICS(a.userID)
			if err != nil {
				return fmt.Errorf("export calendar: %w", err)
			}
			if out == "" || out == "-" {
				fmt.Fprint(cmd.OutOrStdout(), ics)
				return nil
			}
			if err := os.WriteFile(out, []byte(ics), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Calendar written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
