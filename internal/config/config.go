package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bvdhoek/chatminer/internal/chatlog"
)

// Config holds one pipeline run's configuration. Everything the transform
// stages need — including the author-attribute lookup tables — arrives here;
// the stages themselves treat it as already validated.
type Config struct {
	// Input is the exported chat-log text file.
	Input string `yaml:"input"`

	// Format selects the export format variant, see chatlog.Formats.
	Format string `yaml:"format"`

	// OutputDir receives the CSV artifact and the anonymization reference.
	OutputDir string `yaml:"output_dir"`

	// WarehousePath is the sqlite artifact database.
	WarehousePath string `yaml:"warehouse_path"`

	Anonymizer AnonymizerConfig `yaml:"anonymizer"`
	Sentiment  SentimentConfig  `yaml:"sentiment"`
	Features   FeaturesConfig   `yaml:"features"`
	Authors    AuthorTables     `yaml:"authors"`
}

// AnonymizerConfig controls pseudonym generation.
type AnonymizerConfig struct {
	// Seed makes pseudonym assignment reproducible. 0 means time-seeded.
	Seed int64 `yaml:"seed"`
}

// SentimentConfig carries the category thresholds. The defaults were carried
// over from earlier analyses, not derived; treat them as tunable.
type SentimentConfig struct {
	PositiveThreshold float64 `yaml:"positive_threshold"`
	NegativeThreshold float64 `yaml:"negative_threshold"`
}

// FeaturesConfig controls derived-column computation.
type FeaturesConfig struct {
	// LogOffset is added to reaction-time deltas before the natural log so
	// zero deltas stay defined.
	LogOffset float64 `yaml:"log_offset"`
}

// AuthorTables are the authoritative per-author attribute lookups, keyed by
// the original (pre-anonymization) author name. Authors absent from a table
// get the negative/missing value.
type AuthorTables struct {
	City       []string          `yaml:"city"`
	Technical  []string          `yaml:"technical"`
	Cohabiting map[string]string `yaml:"cohabiting"` // name -> YYYY-MM-DD
}

// GetAppDir returns the chatminer application directory for the current OS.
func GetAppDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "chatminer")
	case "linux":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "chatminer")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, _ := os.UserHomeDir()
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "chatminer")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".chatminer")
	}
}

// Default returns a Config with every tunable at its default.
func Default() *Config {
	appDir := GetAppDir()
	return &Config{
		Format:        string(chatlog.FormatAndroid),
		OutputDir:     filepath.Join(appDir, "processed"),
		WarehousePath: filepath.Join(appDir, "chatminer.db"),
		Sentiment: SentimentConfig{
			PositiveThreshold: 0.05,
			NegativeThreshold: -0.05,
		},
		Features: FeaturesConfig{
			LogOffset: 1.0,
		},
	}
}

// Load reads a YAML config file, applies env overrides and validates the
// result. Absent keys keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Input = getEnv("CHATMINER_INPUT", cfg.Input)
	cfg.Format = getEnv("CHATMINER_FORMAT", cfg.Format)
	cfg.OutputDir = getEnv("CHATMINER_OUTPUT_DIR", cfg.OutputDir)
	cfg.WarehousePath = getEnv("CHATMINER_WAREHOUSE", cfg.WarehousePath)
}

// Validate checks the parts of the config the pipeline will not re-check.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("config: input path is required")
	}
	if _, err := chatlog.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.Authors.CohabitingDates(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// CohabitingDates parses the cohabitation table's date values.
func (t *AuthorTables) CohabitingDates() (map[string]time.Time, error) {
	dates := make(map[string]time.Time, len(t.Cohabiting))
	for name, raw := range t.Cohabiting {
		ts, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("cohabiting date for %q: %w", name, err)
		}
		dates[name] = ts
	}
	return dates, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
