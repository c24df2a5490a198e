package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/comicmap/pkg/constants"
	"github.com/agentstation/comicmap/pkg/errors"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Local state
	DataDir string

	// Request list
	RequestsURL string

	// Collection remote
	GitHubRepo    string
	GitHubBranch  string
	GitHubPath    string
	GitHubToken   string
	GitHubAPIURL  string
	OverwritePush bool

	// Scheduling
	IngestInterval  time.Duration
	RefreshInterval time.Duration

	// Extraction
	UserAgent        string
	MangaDexAPIURL   string
	MangaDexLanguage string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.comicmap.yaml or ./.comicmap.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return loadConfig(viper.New(), "")
}

func loadConfig(v *viper.Viper, configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if configFile == "" {
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".comicmap")
	}

	// Only an explicitly requested file has to exist
	if err := v.ReadInConfig(); err != nil && configFile != "" {
		return nil, errors.NewConfigError("config", "failed to read "+configFile, err)
	}

	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		DataDir:     v.GetString("data_dir"),
		RequestsURL: v.GetString("requests_url"),

		GitHubRepo:    v.GetString("github_repo"),
		GitHubBranch:  v.GetString("github_branch"),
		GitHubPath:    v.GetString("github_path"),
		GitHubToken:   v.GetString("github_token"),
		GitHubAPIURL:  v.GetString("github_api_url"),
		OverwritePush: v.GetBool("overwrite_push"),

		IngestInterval:  v.GetDuration("ingest_interval"),
		RefreshInterval: v.GetDuration("refresh_interval"),

		UserAgent:        v.GetString("user_agent"),
		MangaDexAPIURL:   v.GetString("mangadex_api_url"),
		MangaDexLanguage: v.GetString("mangadex_language"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", constants.DefaultDataDir)
	v.SetDefault("github_path", constants.DefaultCollectionKey)
	v.SetDefault("github_api_url", constants.DefaultGitHubAPIURL)
	v.SetDefault("ingest_interval", constants.DefaultIngestInterval)
	v.SetDefault("refresh_interval", constants.DefaultRefreshInterval)
	v.SetDefault("user_agent", constants.DefaultUserAgent)
	v.SetDefault("mangadex_api_url", constants.DefaultMangaDexAPIURL)
	v.SetDefault("mangadex_language", constants.DefaultMangaDexLanguage)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// UpdateFromFlags updates config values from parsed global flags.
// Flag values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the environment are not overridden.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// LoadConfigFile loads configuration like LoadConfig, reading path as the
// config file. The file must exist.
func LoadConfigFile(path string) (*Config, error) {
	return loadConfig(viper.New(), path)
}
