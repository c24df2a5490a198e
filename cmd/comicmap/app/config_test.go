package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentstation/comicmap/pkg/constants"
)

// TestLoadConfig verifies basic config loading.
func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if config == nil {
		t.Fatal("LoadConfig() returned nil config")
	}

	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}
	if config.GitHubPath == "" {
		t.Error("GitHubPath not set to default")
	}
}

// TestConfig_Defaults verifies the documented defaults.
func TestConfig_Defaults(t *testing.T) {
	t.Setenv("DATA_DIR", "")
	t.Setenv("INGEST_INTERVAL", "")
	t.Setenv("REFRESH_INTERVAL", "")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.IngestInterval != constants.DefaultIngestInterval {
		t.Errorf("IngestInterval = %v, want %v", config.IngestInterval, constants.DefaultIngestInterval)
	}
	if config.RefreshInterval != constants.DefaultRefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", config.RefreshInterval, constants.DefaultRefreshInterval)
	}
	if config.MangaDexLanguage != constants.DefaultMangaDexLanguage {
		t.Errorf("MangaDexLanguage = %q, want %q", config.MangaDexLanguage, constants.DefaultMangaDexLanguage)
	}
}

// TestConfig_EnvironmentVariables verifies environment variable loading.
func TestConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("VERBOSE", "true")
	t.Setenv("FORMAT", "json")
	t.Setenv("REQUESTS_URL", "https://example.com/requests.json")
	t.Setenv("GITHUB_REPO", "owner/comics")
	t.Setenv("OVERWRITE_PUSH", "true")
	t.Setenv("REFRESH_INTERVAL", "5m")
	t.Setenv("MANGADEX_LANGUAGE", "ko")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if !config.Verbose {
		t.Error("VERBOSE environment variable not loaded")
	}
	if config.Format != "json" {
		t.Errorf("Format = %s, want json", config.Format)
	}
	if config.RequestsURL != "https://example.com/requests.json" {
		t.Errorf("RequestsURL = %s", config.RequestsURL)
	}
	if config.GitHubRepo != "owner/comics" {
		t.Errorf("GitHubRepo = %s, want owner/comics", config.GitHubRepo)
	}
	if !config.OverwritePush {
		t.Error("OVERWRITE_PUSH environment variable not loaded")
	}
	if config.RefreshInterval != 5*time.Minute {
		t.Errorf("RefreshInterval = %v, want 5m", config.RefreshInterval)
	}
	if config.MangaDexLanguage != "ko" {
		t.Errorf("MangaDexLanguage = %s, want ko", config.MangaDexLanguage)
	}
}

// TestLoadConfigFile verifies an explicit YAML file is read.
func TestLoadConfigFile(t *testing.T) {
	t.Setenv("DATA_DIR", "")
	t.Setenv("GITHUB_BRANCH", "")

	path := filepath.Join(t.TempDir(), "comicmap.yaml")
	content := "data_dir: /var/lib/comicmap\ngithub_branch: data\ningest_interval: 45s\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	config, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() failed: %v", err)
	}

	if config.DataDir != "/var/lib/comicmap" {
		t.Errorf("DataDir = %s, want /var/lib/comicmap", config.DataDir)
	}
	if config.GitHubBranch != "data" {
		t.Errorf("GitHubBranch = %s, want data", config.GitHubBranch)
	}
	if config.IngestInterval != 45*time.Second {
		t.Errorf("IngestInterval = %v, want 45s", config.IngestInterval)
	}
	if config.ConfigFile != path {
		t.Errorf("ConfigFile = %s, want %s", config.ConfigFile, path)
	}
}

// TestLoadConfigFile_Missing verifies a missing explicit file is an error.
func TestLoadConfigFile_Missing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfigFile() succeeded for a missing file")
	}
}

// TestConfig_UpdateFromFlags verifies flag precedence.
func TestConfig_UpdateFromFlags(t *testing.T) {
	config := &Config{Format: "yaml", LogLevel: "warn"}

	config.UpdateFromFlags(true, false, true, "", "")
	if config.Format != "yaml" {
		t.Errorf("empty format flag overwrote Format: %s", config.Format)
	}
	if config.LogLevel != "warn" {
		t.Errorf("empty log-level flag overwrote LogLevel: %s", config.LogLevel)
	}
	if !config.Verbose || !config.NoColor {
		t.Error("boolean flags not applied")
	}

	config.UpdateFromFlags(false, true, false, "json", "error")
	if config.Format != "json" || config.LogLevel != "error" || !config.Quiet {
		t.Errorf("flags not applied: %+v", config)
	}
}
