package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/otron-io/bug-report-autopilot/internal/config"
)

// ConfigCommand returns the config command
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize a new configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "autopilot.toml",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration sources",
				Action: runConfigShow,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.InitConfig(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Created configuration file at %s\n", outputPath)
	return nil
}

func runConfigShow(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Printf("port: %d\n", cfg.Port)
	fmt.Printf("environment: %s\n", cfg.Environment)
	fmt.Printf("openai configured: %t (model %s)\n", cfg.HasOpenAI(), cfg.OpenAI.Model)
	fmt.Printf("supabase configured: %t\n", cfg.HasSupabase())
	fmt.Printf("linear configured: %t\n", cfg.HasLinear())
	return nil
}
