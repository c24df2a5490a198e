package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/comicmap/pkg/constants"
)

// Config describes how the process logger is built. The CLI fills it from
// log_level, log_format and log_output; the daemon loops and the HTTP server
// all log through the result.
type Config struct {
	Level      string         // trace, debug, info, warn, error, off
	Format     string         // auto, json, console
	Output     string         // stderr, stdout, discard, or a file path
	TimeFormat string         // console only: kitchen, rfc3339, rfc3339nano, unix, or a Go layout
	NoColor    bool           // console only
	AddCaller  bool           // include file:line; always on at debug and below
	Fields     map[string]any // attached to every line
}

// DefaultConfig returns info-level logging to stderr, console when stderr is
// a terminal and JSON otherwise.
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "auto",
		Output:     "stderr",
		TimeFormat: "kitchen",
		NoColor:    os.Getenv("NO_COLOR") != "",
		Fields:     map[string]any{},
	}
}

// NewLoggerFromConfig builds a logger from cfg. A nil cfg means DefaultConfig.
// The zerolog global level is set to match.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	fields := zerolog.New(formatWriter(openOutput(cfg.Output), cfg)).
		Level(level).
		With().
		Timestamp()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		fields = fields.Caller()
	}
	for k, v := range cfg.Fields {
		fields = addFieldToContext(fields, k, v)
	}
	return fields.Logger()
}

// Configure replaces the default logger.
func Configure(cfg *Config) {
	SetDefault(NewLoggerFromConfig(cfg))
}

// openOutput resolves an output name. An unwritable file path falls back to
// stderr so a bad log_output never stops the daemon.
func openOutput(name string) io.Writer {
	switch strings.ToLower(name) {
	case "", "stderr":
		return os.Stderr
	case "stdout":
		return os.Stdout
	case "discard", "none":
		return io.Discard
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return os.Stderr
	}
	return f
}

func formatWriter(out io.Writer, cfg *Config) io.Writer {
	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		format = "json"
		if f, ok := out.(*os.File); ok && isTerminal(f) {
			format = "console"
		}
	}
	if format != "console" && format != "pretty" {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: timeLayout(cfg.TimeFormat),
		NoColor:    cfg.NoColor,
	}
}

var levelAliases = map[string]zerolog.Level{
	"":         zerolog.InfoLevel,
	"warning":  zerolog.WarnLevel,
	"none":     zerolog.Disabled,
	"off":      zerolog.Disabled,
	"disabled": zerolog.Disabled,
}

// parseLevel maps a level name to a zerolog level; unknown names are info.
func parseLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if l, ok := levelAliases[name]; ok {
		return l
	}
	l, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

var timeLayouts = map[string]string{
	"":            time.Kitchen,
	"kitchen":     time.Kitchen,
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"unix":        "",
	"epoch":       "",
}

// timeLayout maps a named format or a literal Go layout; anything else is kitchen.
func timeLayout(name string) string {
	if layout, ok := timeLayouts[strings.ToLower(name)]; ok {
		return layout
	}
	if strings.Contains(name, "2006") || strings.Contains(name, "15:04") {
		return name
	}
	return time.Kitchen
}
