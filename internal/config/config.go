package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mvx/internal/synth"
)

// ConfigFileName is the name of the mvx configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the mvx configuration directory
const ConfigDirName = ".mvx"

// Config holds all mvx configuration
type Config struct {
	Scan      ScanConfig      `yaml:"scan"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Output    OutputConfig    `yaml:"output"`
}

// ScanConfig holds configuration for source discovery
type ScanConfig struct {
	// ModelRoots are the model-source root paths, relative to the work dir.
	ModelRoots []string `yaml:"model_roots"`
	// ViewRoots are the view-source root paths, relative to the work dir.
	ViewRoots []string `yaml:"view_roots"`
	// Exclude holds glob patterns for paths to skip.
	Exclude []string `yaml:"exclude"`
}

// AnalysisConfig holds configuration for the consistency checks
type AnalysisConfig struct {
	// ReservedModels is the framework-reserved entity name set. Entities
	// with these names must be declared as extensions, never redefined.
	ReservedModels []string `yaml:"reserved_models"`

	// DuplicateTiebreak selects the canonical declaration among duplicates
	// with equally complete type information: "first" or "last".
	DuplicateTiebreak string `yaml:"duplicate_tiebreak"`

	// CriticalViews holds glob patterns on view IDs; gaps referenced by a
	// matching view are reported as critical instead of warning.
	CriticalViews []string `yaml:"critical_views"`
}

// SynthesisConfig holds configuration for field synthesis
type SynthesisConfig struct {
	// Rules is the ordered naming-heuristic rule table. Empty means the
	// built-in defaults.
	Rules []synth.Rule `yaml:"rules"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .mvx/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		// No config dir found, return defaults
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .mvx directory by walking up from startDir.
// Returns the path to the .mvx directory if found.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root, config not found
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .mvx directory if it doesn't exist.
// Returns the path to the .mvx directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks a merged configuration for invalid values.
func Validate(cfg *Config) error {
	switch cfg.Analysis.DuplicateTiebreak {
	case "", "first", "last":
	default:
		return fmt.Errorf("%w: duplicate_tiebreak must be \"first\" or \"last\", got %q",
			ErrInvalidConfig, cfg.Analysis.DuplicateTiebreak)
	}

	switch cfg.Output.DefaultFormat {
	case "", "yaml", "json":
	default:
		return fmt.Errorf("%w: default_format must be \"yaml\" or \"json\", got %q",
			ErrInvalidConfig, cfg.Output.DefaultFormat)
	}

	for _, rule := range cfg.Synthesis.Rules {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	return nil
}

// ReservedSet returns the reserved model names as a lookup set.
func (c *Config) ReservedSet() map[string]bool {
	set := make(map[string]bool, len(c.Analysis.ReservedModels))
	for _, name := range c.Analysis.ReservedModels {
		set[name] = true
	}
	return set
}

// Rules returns the synthesis rule table, falling back to the built-in
// defaults when the config carries none.
func (c *Config) Rules() []synth.Rule {
	if len(c.Synthesis.Rules) > 0 {
		return c.Synthesis.Rules
	}
	return synth.DefaultRules()
}
