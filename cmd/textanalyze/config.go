package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wizenheimer/textanalysis"
)

const defaultConfig = `
# textanalyze configuration.

[log]
# debug, info, warn, error
level = "warn"
# text, json
format = "text"

[stopwords]
# Root of the <root>/<language>/ stopword directories. Empty falls back to
# $IRESEARCH_TEXT_STOPWORD_PATH, then the working directory.
root = ""

[analyzers.whitespace]
type = "delimiter"
format = "text"
args = " "

[analyzers.english]
type = "text"
format = "json"
args = '{"locale":"en","caseConvert":"lower","stopwords":[]}'
`

const (
	logFormatText = "text"
	logFormatJSON = "json"
)

// Config is the textanalyze configuration file.
type Config struct {
	Log       LogConfig                 `toml:"log"`
	Stopwords StopwordsConfig           `toml:"stopwords"`
	Analyzers map[string]AnalyzerConfig `toml:"analyzers"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type StopwordsConfig struct {
	Root string `toml:"root"`
}

// AnalyzerConfig names an analyzer definition.
type AnalyzerConfig struct {
	Type   string `toml:"type"`
	Format string `toml:"format"`
	Args   string `toml:"args"`
}

// LoadConfig decodes the built-in defaults, then the file at path if any.
func LoadConfig(path string) (*Config, error) {
	c := new(Config)

	if _, err := toml.Decode(defaultConfig, c); err != nil {
		return nil, fmt.Errorf("decode default config: %w", err)
	}

	if len(path) != 0 {
		if _, err := toml.DecodeFile(path, c); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	if err := c.adjust(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) adjust() error {
	if err := c.Log.adjust(); err != nil {
		return err
	}
	for name, a := range c.Analyzers {
		if err := a.adjust(); err != nil {
			return fmt.Errorf("analyzer %q: %w", name, err)
		}
		c.Analyzers[name] = a
	}
	return nil
}

func (c *LogConfig) adjust() error {
	c.Level = strings.ToLower(c.Level)
	if _, err := parseLogLevel(c.Level); err != nil {
		return err
	}

	c.Format = strings.ToLower(c.Format)
	switch c.Format {
	case logFormatText, logFormatJSON:
	default:
		return fmt.Errorf("invalid log format %q", c.Format)
	}
	return nil
}

func (a *AnalyzerConfig) adjust() error {
	if len(a.Type) == 0 {
		return fmt.Errorf("no analyzer type")
	}
	if len(a.Format) == 0 {
		a.Format = string(textanalysis.FormatJSON)
	}
	_, err := textanalysis.ParseFormat(a.Format)
	return err
}

// AnalyzerNames returns the configured analyzer names, sorted.
func (c *Config) AnalyzerNames() []string {
	names := make([]string, 0, len(c.Analyzers))
	for name := range c.Analyzers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolver returns the stopword resolver the config describes. A configured
// root takes the place of the environment variable.
func (c *Config) Resolver(logger *slog.Logger) *textanalysis.StopwordResolver {
	r := &textanalysis.StopwordResolver{Logger: logger}
	if root := c.Stopwords.Root; root != "" {
		r.LookupEnv = func(key string) (string, bool) {
			if key == textanalysis.StopwordPathEnv {
				return root, true
			}
			return os.LookupEnv(key)
		}
	}
	return r
}

func parseLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", level)
}

func newLogger(cfg LogConfig) (*slog.Logger, error) {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == logFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
}
