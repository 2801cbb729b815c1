package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gardar/ocrbridge/internal/logger"
	"github.com/gardar/ocrbridge/pkg/engine"
	"github.com/gardar/ocrbridge/pkg/gdocai"
	"github.com/gardar/ocrbridge/pkg/raster"
)

// Engine names accepted in the engine setting.
const (
	EngineOcrmac = "ocrmac"
	EngineGdocai = "gdocai"
	EngineVision = "gvision"
)

// Config is the ocrbridge configuration. Values are read from an optional
// YAML file, then overridden by OCRBRIDGE_* environment variables.
//
//	engine: ocrmac
//	recognition_level: accurate
//	languages: [en-US, de-DE]
//	dpi: 300
//	google:
//	  project_id: my-project
//	  location: eu
//	  processor_id: abc123
type Config struct {
	Engine            string           `yaml:"engine"`
	HelperCommand     string           `yaml:"helper_command"`
	RecognitionLevel  string           `yaml:"recognition_level"`
	Languages         []string         `yaml:"languages"`
	DPI               int              `yaml:"dpi"`
	Concurrency       int              `yaml:"concurrency"`
	RequestsPerSecond float64          `yaml:"requests_per_second"`
	Google            gdocai.Config    `yaml:"google"`
	Log               logger.LogConfig `yaml:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Engine:           EngineOcrmac,
		HelperCommand:    engine.DefaultOcrmacCommand,
		RecognitionLevel: string(engine.LevelBalanced),
		DPI:              raster.DefaultDPI,
		Concurrency:      2,
		Google:           gdocai.Config{Location: "us"},
		Log:              logger.DefaultConfig(),
	}
}

// Load reads the YAML file at path, when path is not empty, and applies
// environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	c.Engine = getEnv("OCRBRIDGE_ENGINE", c.Engine)
	c.HelperCommand = getEnv("OCRBRIDGE_HELPER_COMMAND", c.HelperCommand)
	c.RecognitionLevel = getEnv("OCRBRIDGE_RECOGNITION_LEVEL", c.RecognitionLevel)
	if langs := getEnv("OCRBRIDGE_LANGUAGES", ""); langs != "" {
		c.Languages = SplitList(langs)
	}

	var err error
	if c.DPI, err = getEnvInt("OCRBRIDGE_DPI", c.DPI); err != nil {
		return err
	}
	if c.Concurrency, err = getEnvInt("OCRBRIDGE_CONCURRENCY", c.Concurrency); err != nil {
		return err
	}
	if v := getEnv("OCRBRIDGE_REQUESTS_PER_SECOND", ""); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("OCRBRIDGE_REQUESTS_PER_SECOND: %w", err)
		}
		c.RequestsPerSecond = rps
	}

	c.Google.ProjectID = getEnv("GOOGLE_CLOUD_PROJECT", c.Google.ProjectID)
	c.Google.Location = getEnv("GOOGLE_CLOUD_LOCATION", c.Google.Location)
	c.Google.ProcessorID = getEnv("DOCUMENT_AI_PROCESSOR_ID", c.Google.ProcessorID)
	c.Google.CredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.Google.CredentialsFile)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Log.Output = getEnv("LOG_OUTPUT", c.Log.Output)
	return nil
}

// Validate checks the settings that do not depend on the input file.
func (c *Config) Validate() error {
	if _, err := c.Params(); err != nil {
		return err
	}
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", c.DPI)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}

	switch c.Engine {
	case EngineOcrmac:
		if c.HelperCommand == "" {
			return fmt.Errorf("helper_command is required for the %s engine", EngineOcrmac)
		}
	case EngineGdocai:
		if err := c.Google.Validate(); err != nil {
			return err
		}
	case EngineVision:
	default:
		return fmt.Errorf("unknown engine %q (want %s, %s or %s)", c.Engine, EngineOcrmac, EngineGdocai, EngineVision)
	}
	return nil
}

// Params returns the validated recognition parameters.
func (c *Config) Params() (engine.Params, error) {
	level, err := engine.ParseLevel(c.RecognitionLevel)
	if err != nil {
		return engine.Params{}, err
	}
	p := engine.Params{Level: level, Languages: c.Languages}
	if err := p.Validate(); err != nil {
		return engine.Params{}, err
	}
	return p, nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
