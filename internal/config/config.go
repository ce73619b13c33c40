package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the application configuration. Every external integration is
// optional: a missing OpenAI key runs the pipeline in fallback mode, a
// missing Supabase URL keeps reports in memory, and a missing Linear key
// disables ticket creation.
type Config struct {
	Port        int    `koanf:"port"`
	Environment string `koanf:"environment"`

	OpenAI struct {
		APIKey      string  `koanf:"api_key"`
		Model       string  `koanf:"model"`
		Temperature float64 `koanf:"temperature"`
		MaxTokens   int     `koanf:"max_tokens"`
	} `koanf:"openai"`

	Supabase struct {
		URL            string `koanf:"url"`
		ServiceRoleKey string `koanf:"service_role_key"`
	} `koanf:"supabase"`

	Linear struct {
		APIKey string `koanf:"api_key"`
		TeamID string `koanf:"team_id"`
	} `koanf:"linear"`
}

// envKeys maps the well-known environment variables onto config paths.
// Unrecognized variables are ignored.
var envKeys = map[string]string{
	"PORT":                      "port",
	"ENVIRONMENT":               "environment",
	"OPENAI_API_KEY":            "openai.api_key",
	"OPENAI_MODEL":              "openai.model",
	"SUPABASE_URL":              "supabase.url",
	"SUPABASE_SERVICE_ROLE_KEY": "supabase.service_role_key",
	"LINEAR_API_KEY":            "linear.api_key",
	"LINEAR_TEAM_ID":            "linear.team_id",
}

// Load reads configuration from defaults, an optional TOML file, and the
// environment, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	// A .env file beside the binary feeds the environment layer.
	_ = godotenv.Load()

	k := koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"port":               8080,
		"environment":        "development",
		"openai.model":       "gpt-4o-mini",
		"openai.temperature": 0.2,
	}, "."), nil)

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		for _, path := range []string{"./autopilot.toml", "$HOME/.autopilot.toml"} {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// InitConfig writes a sample configuration file.
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sample := `# Bug Report Autopilot Configuration

port = 8080
environment = "development"

[openai]
api_key = "your-openai-api-key"
model = "gpt-4o-mini"
temperature = 0.2

[supabase]
url = "https://your-project.supabase.co"
service_role_key = "your-service-role-key"

[linear]
api_key = "your-linear-api-key"
team_id = ""
`

	return os.WriteFile(configPath, []byte(sample), 0644)
}

// HasOpenAI reports whether the model integration is configured.
func (c *Config) HasOpenAI() bool {
	return c.OpenAI.APIKey != ""
}

// HasSupabase reports whether the remote store is configured.
func (c *Config) HasSupabase() bool {
	return c.Supabase.URL != "" && c.Supabase.ServiceRoleKey != ""
}

// HasLinear reports whether the tracker integration is configured.
func (c *Config) HasLinear() bool {
	return c.Linear.APIKey != ""
}
