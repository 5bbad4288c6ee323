package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Zotero struct {
		LibraryID   string `mapstructure:"library_id"`
		LibraryType string `mapstructure:"library_type"` // "user" or "group"
		APIKey      string `mapstructure:"api_key"`
		// DataDir is the local Zotero data directory holding
		// zotero.sqlite and the storage/ tree.
		DataDir string `mapstructure:"data_dir"`
	} `mapstructure:"zotero"`

	Classifier struct {
		Provider     string `mapstructure:"provider"` // "openai" or "gemini"
		Model        string `mapstructure:"model"`
		OpenaiAPIKey string `mapstructure:"openai_api_key"`
		GoogleAPIKey string `mapstructure:"google_api_key"`
		MaxTags      int    `mapstructure:"max_tags"`
		// BodyBudget caps how many characters of extracted text enter
		// the prompt.
		BodyBudget int `mapstructure:"body_budget"`
	} `mapstructure:"classifier"`

	Vocabulary struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"vocabulary"`

	Pipeline struct {
		Source  string `mapstructure:"source"` // "local" or "api"
		DelayMs int    `mapstructure:"delay_ms"`
		Limit   int    `mapstructure:"limit"`
	} `mapstructure:"pipeline"`
}

// LoadConfig reads config.yaml from the working directory, layered
// under environment variables. A .env file is loaded first so secrets
// can live there instead of the shell environment.
func LoadConfig() (*Config, error) {
	// Missing .env is fine; env vars may come from the real environment.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.BindEnv("classifier.openai_api_key", "OPENAI_API_KEY")
	viper.BindEnv("classifier.google_api_key", "GEMINI_API_KEY")
	viper.BindEnv("zotero.api_key", "ZOTERO_API_KEY")
	viper.BindEnv("zotero.library_id", "ZOTERO_LIBRARY_ID")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and env vars carry the run.
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("zotero.library_type", "user")
	viper.SetDefault("zotero.data_dir", defaultDataDir())
	viper.SetDefault("classifier.provider", "openai")
	viper.SetDefault("classifier.model", "gpt-4.1-mini")
	viper.SetDefault("classifier.max_tags", 5)
	viper.SetDefault("classifier.body_budget", 48000)
	viper.SetDefault("vocabulary.path", "vocab.yaml")
	viper.SetDefault("pipeline.source", "api")
	viper.SetDefault("pipeline.delay_ms", 1000)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Zotero"
	}
	return filepath.Join(home, "Zotero")
}

// DatabasePath is the local snapshot database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Zotero.DataDir, "zotero.sqlite")
}

// StorageDir is the attachment storage tree.
func (c *Config) StorageDir() string {
	return filepath.Join(c.Zotero.DataDir, "storage")
}
