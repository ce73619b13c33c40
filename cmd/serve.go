package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/otron-io/bug-report-autopilot/internal/analysis"
	"github.com/otron-io/bug-report-autopilot/internal/api"
	"github.com/otron-io/bug-report-autopilot/internal/config"
	"github.com/otron-io/bug-report-autopilot/internal/llm"
	"github.com/otron-io/bug-report-autopilot/internal/store"
	"github.com/otron-io/bug-report-autopilot/internal/tracker"
	"github.com/otron-io/bug-report-autopilot/internal/triage"
)

// ServeCommand returns the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the bug report autopilot HTTP server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}

	svc, cleanup, err := buildService(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	server := api.NewServer(svc, cfg.Port, cfg.Environment)
	return server.Start()
}

// buildService wires the pipeline from configuration. Missing integrations
// degrade rather than fail: no model means deterministic fallbacks, no
// remote store means memory only, no tracker means no tickets.
func buildService(cfg *config.Config) (*triage.Service, func(), error) {
	var completer analysis.Completer
	if cfg.HasOpenAI() {
		client, err := llm.New(llm.Config{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.OpenAI.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize completion client: %w", err)
		}
		completer = client
	} else {
		log.Warn().Msg("No OpenAI API key configured, analysis will use deterministic fallbacks")
	}

	memory := store.NewMemory()
	var remote store.Storage
	cleanup := func() {}
	if cfg.HasSupabase() {
		pg, err := store.NewPostgres(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey)
		if err != nil {
			log.Warn().Err(err).Msg("Remote store unavailable, reports will be kept in memory")
		} else {
			remote = pg
			cleanup = func() { pg.Close() }
		}
	} else {
		log.Warn().Msg("No Supabase configuration, reports will be kept in memory")
	}

	var publisher triage.Publisher
	if cfg.HasLinear() {
		publisher = tracker.New(cfg.Linear.APIKey, cfg.Linear.TeamID)
	} else {
		log.Warn().Msg("No Linear API key configured, confirmed reports will not create tickets")
	}

	svc := triage.NewService(
		store.NewFallback(remote, memory),
		analysis.NewSelector(completer),
		analysis.NewSynthesizer(completer),
		publisher,
	)
	return svc, cleanup, nil
}
