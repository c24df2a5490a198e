package app

import (
	"context"
	"sync"
	"testing"

	"github.com/agentstation/comicmap"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/logging"
)

// newTestApp returns an app whose data directory is a temp dir.
func newTestApp(t *testing.T) *App {
	t.Helper()
	logging.DisableLoggingForTest(t)

	app, err := New("1.0.0", "abc123", "2024-01-01", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	app.config.DataDir = t.TempDir()
	app.config.RequestsURL = ""
	app.config.GitHubRepo = ""
	return app
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app := newTestApp(t)

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2024-01-01" {
		t.Errorf("Date() = %s, want 2024-01-01", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.Config() == nil {
		t.Error("Config() returned nil")
	}
}

// TestApp_Client_ThreadSafe verifies concurrent Client() calls share one instance.
func TestApp_Client_ThreadSafe(t *testing.T) {
	app := newTestApp(t)

	const goroutines = 50
	var wg sync.WaitGroup
	results := make([]comicmap.Client, goroutines)
	errs := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = app.Client()
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Goroutine %d: Client() failed: %v", i, err)
		}
	}
	for i, c := range results[1:] {
		if c != results[0] {
			t.Errorf("Goroutine %d got a different client instance", i+1)
		}
	}

	if err := app.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
}

// TestApp_Client_GitHubNeedsToken verifies a repo without a token is rejected.
func TestApp_Client_GitHubNeedsToken(t *testing.T) {
	app := newTestApp(t)
	app.config.GitHubRepo = "owner/comics"
	app.config.GitHubToken = ""

	_, err := app.Client()
	if err == nil {
		t.Fatal("Client() succeeded without a GitHub token")
	}
	var cfgErr *errors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Client() error = %T, want *errors.ConfigError", err)
	}
}

// TestApp_WithClient verifies an injected client is returned as is.
func TestApp_WithClient(t *testing.T) {
	logging.DisableLoggingForTest(t)

	injected, err := comicmap.New(comicmap.WithDataDir(t.TempDir()), comicmap.WithoutBuiltinExtractors())
	if err != nil {
		t.Fatalf("comicmap.New() failed: %v", err)
	}
	app, err := New("dev", "", "", "", WithClient(injected))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	got, err := app.Client()
	if err != nil {
		t.Fatalf("Client() failed: %v", err)
	}
	if got != injected {
		t.Error("Client() did not return the injected client")
	}
}

// TestApp_Shutdown_NoClient verifies shutdown before any client exists.
func TestApp_Shutdown_NoClient(t *testing.T) {
	app := newTestApp(t)
	if err := app.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() = %v, want nil", err)
	}
}

// TestExecute_Version verifies the root command wires subcommands and flags.
func TestExecute_Version(t *testing.T) {
	app := newTestApp(t)
	if err := app.Execute(context.Background(), []string{"version", "-o", "json", "--data-dir", app.config.DataDir}); err != nil {
		t.Fatalf("Execute(version) failed: %v", err)
	}
	if app.OutputFormat() != "json" {
		t.Errorf("OutputFormat() = %s, want json", app.OutputFormat())
	}
}

// TestExecute_InvalidFormat verifies unknown output formats are rejected.
func TestExecute_InvalidFormat(t *testing.T) {
	app := newTestApp(t)
	if err := app.Execute(context.Background(), []string{"version", "-o", "xml"}); err == nil {
		t.Error("Execute() accepted output format xml")
	}
}
