package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/comparative"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/guardrail"
	"github.com/IAmSoThirsty/Thirstys-Game-Studio/internal/insight"
)

// Environment variables read by the CLI.
const (
	EnvHome     = "TGS_HOME"
	EnvLogLevel = "TGS_LOG_LEVEL"
)

// dirName is the name of both the global data directory and the repo config directory.
const dirName = ".tgs"

// Config holds application configuration.
type Config struct {
	// LimitPerSource caps the raw records fetched from each source per run.
	LimitPerSource int `json:"limit_per_source"`

	// EnabledSources restricts which sources are fetched. Empty means all.
	// Unlike the other lists, an overlay's value replaces the base value.
	EnabledSources []string `json:"enabled_sources,omitempty"`

	// SourceFiles maps a source name to a JSON or JSONL export of raw records.
	// Sources without a file serve their bundled placeholder records.
	SourceFiles map[string]string `json:"source_files,omitempty"`

	// PolicyPath is a YAML guardrail policy. Empty means the built-in policy.
	PolicyPath string `json:"policy_path,omitempty"`

	// ReferencesPath is a YAML list of competitor references. Empty means the built-in set.
	ReferencesPath string `json:"references_path,omitempty"`

	// OutputDir receives pipeline_result.json and the run report.
	// Empty means <base dir>/output.
	OutputDir string `json:"output_dir,omitempty"`

	// MaxComparativeNotes bounds the notes added to one proposal per enrichment.
	MaxComparativeNotes int `json:"max_comparative_notes"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// AllowedPaths are extra absolute directories export and import files may live in,
	// besides <base dir>/exports.
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LimitPerSource:      50,
		MaxComparativeNotes: comparative.DefaultMaxNotes,
		LogLevel:            "info",
	}
}

// BaseDir returns the data directory: $TGS_HOME if set, else ~/.tgs.
func BaseDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(EnvHome)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// LoadDotEnv loads dir/.env into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both the global and the repo (.tgs) directories.
// Repo config is found by walking upward from startDir to find the nearest .tgs/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing. Environment overrides are applied last.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	cfg := Merge(Merge(DefaultConfig(), global), repo)
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() {
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		c.LogLevel = level
	}
}

// FindRepoConfig walks upward from startDir to find the nearest .tgs/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, dirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		LimitPerSource:      pickInt(overlay.LimitPerSource, base.LimitPerSource),
		PolicyPath:          pickString(overlay.PolicyPath, base.PolicyPath),
		ReferencesPath:      pickString(overlay.ReferencesPath, base.ReferencesPath),
		OutputDir:           pickString(overlay.OutputDir, base.OutputDir),
		MaxComparativeNotes: pickInt(overlay.MaxComparativeNotes, base.MaxComparativeNotes),
		DBMaxOpenConns:      pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:      pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		LogLevel:            pickString(overlay.LogLevel, base.LogLevel),
	}

	result.EnabledSources = mergeStringSlice(nil, base.EnabledSources)
	if len(overlay.EnabledSources) > 0 {
		result.EnabledSources = mergeStringSlice(nil, overlay.EnabledSources)
	}

	if len(base.SourceFiles)+len(overlay.SourceFiles) > 0 {
		result.SourceFiles = make(map[string]string)
		for k, v := range base.SourceFiles {
			result.SourceFiles[k] = v
		}
		for k, v := range overlay.SourceFiles {
			result.SourceFiles[k] = v
		}
	}

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// Sources resolves EnabledSources. Nil means every source.
func (c *Config) Sources() ([]insight.Source, error) {
	if len(c.EnabledSources) == 0 {
		return nil, nil
	}
	out := make([]insight.Source, 0, len(c.EnabledSources))
	for _, name := range c.EnabledSources {
		src, err := insight.ParseSource(name)
		if err != nil {
			return nil, fmt.Errorf("enabled_sources: %w", err)
		}
		out = append(out, src)
	}
	return out, nil
}

// SourcePaths resolves SourceFiles keys to sources.
func (c *Config) SourcePaths() (map[insight.Source]string, error) {
	out := make(map[insight.Source]string, len(c.SourceFiles))
	for name, path := range c.SourceFiles {
		src, err := insight.ParseSource(name)
		if err != nil {
			return nil, fmt.Errorf("source_files: %w", err)
		}
		out[src] = path
	}
	return out, nil
}

// Policy loads the guardrail policy from PolicyPath, or returns the default.
func (c *Config) Policy() (guardrail.Policy, error) {
	if c.PolicyPath == "" {
		return guardrail.DefaultPolicy(), nil
	}
	return guardrail.LoadPolicy(c.PolicyPath)
}

// References loads competitor references from ReferencesPath, or returns the defaults.
func (c *Config) References() ([]comparative.Reference, error) {
	if c.ReferencesPath == "" {
		return comparative.DefaultReferences(), nil
	}
	return comparative.LoadReferences(c.ReferencesPath)
}

// ResolveOutputDir returns OutputDir, defaulting to baseDir/output.
func (c *Config) ResolveOutputDir(baseDir string) string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return filepath.Join(baseDir, "output")
}
