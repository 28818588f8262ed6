// Package config handles TOML configuration loading with environment variable
// substitution, and the small settings record that remembers the last output
// directory.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// Defaults applied by Load when a field is left unset.
const (
	DefaultQuality   = 75
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config is the root configuration structure.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Compress CompressConfig `toml:"compress"`
	History  HistoryConfig  `toml:"history"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type CompressConfig struct {
	Quality   *float32 `toml:"quality"`
	Workers   int      `toml:"workers"` // 0 means GOMAXPROCS
	Mirror    bool     `toml:"mirror"`
	OutputDir string   `toml:"output_dir"`
}

// QualityValue returns the configured quality or DefaultQuality.
func (c CompressConfig) QualityValue() float32 {
	if c.Quality == nil {
		return DefaultQuality
	}
	return *c.Quality
}

type HistoryConfig struct {
	Enabled *bool  `toml:"enabled"`
	Path    string `toml:"path"`
}

// IsEnabled reports whether events are persisted. History is on unless
// explicitly disabled.
func (h HistoryConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// Default returns a configuration with every default applied, as used when
// no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads, substitutes, parses and validates the configuration file.
// Unresolved variables and validation failures are reported together in an
// *Error.
func Load(path string) (*Config, error) {
	cfg, missing, err := load(path)
	if err != nil {
		return nil, err
	}

	cerr := &Error{Path: path, Missing: missing, Errors: cfg.Validate()}
	if cerr.HasErrors() {
		return nil, cerr
	}
	return cfg, nil
}

// LoadWithoutValidation parses the file and applies defaults but skips
// validation. Unresolved variables are left in place.
func LoadWithoutValidation(path string) (*Config, error) {
	cfg, _, err := load(path)
	return cfg, err
}

func load(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, missing, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Compress.Quality == nil {
		q := float32(DefaultQuality)
		c.Compress.Quality = &q
	}
	if c.History.Enabled == nil {
		enabled := true
		c.History.Enabled = &enabled
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath()
	}
}

// envVarPattern matches ${NAME}, ${NAME:-default} and ${NAME:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars expands environment references in content. References
// that cannot be resolved are left unchanged and reported in missing; a
// ${NAME:?message} reference reports "NAME: message". Comment text is
// copied through untouched.
func substituteEnvVars(content string) (string, []string) {
	var missing []string

	lines := strings.SplitAfter(content, "\n")
	for i, line := range lines {
		code, comment := splitComment(line)
		code = envVarPattern.ReplaceAllStringFunc(code, func(match string) string {
			m := envVarPattern.FindStringSubmatch(match)
			name, op, arg := m[1], m[2], m[3]

			value, ok := os.LookupEnv(name)
			switch op {
			case ":-":
				if value == "" {
					return arg
				}
				return value
			case ":?":
				if value == "" {
					missing = append(missing, name+": "+strings.TrimSpace(arg))
					return match
				}
				return value
			}

			if !ok {
				missing = append(missing, name)
				return match
			}
			return value
		})
		lines[i] = code + comment
	}

	return strings.Join(lines, ""), missing
}

// splitComment splits line at the first '#' outside a basic or literal
// string. comment is empty when the line has none.
func splitComment(line string) (code, comment string) {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote == '"' && c == '\\':
			i++
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#':
			return line[:i], line[i:]
		}
	}
	return line, ""
}
