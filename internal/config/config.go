package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adriangreen/tasklog/internal/logger"
	"github.com/adriangreen/tasklog/internal/store"
	"github.com/spf13/cast"
)

// Environment variables that override the config file
const (
	EnvStorePath = "TASKLOG_STORE_PATH"
	EnvBackend   = "TASKLOG_BACKEND"
	EnvLogLevel  = "TASKLOG_LOG_LEVEL"
	EnvLogJSON   = "TASKLOG_LOG_JSON"
)

// LocalConfigFile is looked up in the working directory before the user config
const LocalConfigFile = "tasklog.json"

// ErrInvalidConfig is returned when the merged configuration is unusable
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the tasklog configuration
type Config struct {
	StorePath string      `json:"storePath"`
	Backend   string      `json:"backend"`
	LogLevel  string      `json:"logLevel"`
	LogJSON   bool        `json:"logJson"`
	Theme     ThemeConfig `json:"theme"`
	Watch     WatchConfig `json:"watch"`

	// path of the file this config was merged from, empty for defaults only
	path string
}

// ThemeConfig defines the colors used by terminal output
type ThemeConfig struct {
	PrimaryColor string `json:"primaryColor"`
	MutedColor   string `json:"mutedColor"`
	SuccessColor string `json:"successColor"`
	WarningColor string `json:"warningColor"`
	ErrorColor   string `json:"errorColor"`
}

// WatchConfig controls the file watchers
type WatchConfig struct {
	DebounceMillis int `json:"debounceMillis"`
	// GCIntervalSeconds is how often the badger value log is collected
	// while watching. Zero disables it.
	GCIntervalSeconds int `json:"gcIntervalSeconds"`
}

// Debounce returns the watch debounce as a duration
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMillis) * time.Millisecond
}

// GCInterval returns the badger GC interval as a duration
func (w WatchConfig) GCInterval() time.Duration {
	return time.Duration(w.GCIntervalSeconds) * time.Second
}

// Path returns the config file the values were read from
func (c *Config) Path() string {
	return c.path
}

// fileConfig mirrors Config with pointers so that explicit false and zero
// values in a file still override the defaults
type fileConfig struct {
	StorePath *string `json:"storePath"`
	Backend   *string `json:"backend"`
	LogLevel  *string `json:"logLevel"`
	LogJSON   *bool   `json:"logJson"`
	Theme     struct {
		PrimaryColor *string `json:"primaryColor"`
		MutedColor   *string `json:"mutedColor"`
		SuccessColor *string `json:"successColor"`
		WarningColor *string `json:"warningColor"`
		ErrorColor   *string `json:"errorColor"`
	} `json:"theme"`
	Watch struct {
		DebounceMillis    *int `json:"debounceMillis"`
		GCIntervalSeconds *int `json:"gcIntervalSeconds"`
	} `json:"watch"`
}

// Load builds the configuration. Defaults come first, then the config file,
// then environment overrides. An explicit path must exist; without one the
// local tasklog.json and the user config file are tried in that order.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if path != "" {
		if err := mergeConfigFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		cfg.path = path
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the merged configuration
func (c *Config) Validate() error {
	switch c.Backend {
	case store.BackendFile, store.BackendBadger, store.BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	if strings.TrimSpace(c.StorePath) == "" {
		return fmt.Errorf("%w: store path is empty", ErrInvalidConfig)
	}
	if c.Watch.DebounceMillis < 0 || c.Watch.GCIntervalSeconds < 0 {
		return fmt.Errorf("%w: watch intervals must not be negative", ErrInvalidConfig)
	}
	return nil
}

// mergeConfigFile loads a config file and merges the values it sets into target
func mergeConfigFile(target *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var partial fileConfig
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setString(&target.StorePath, partial.StorePath)
	setString(&target.Backend, partial.Backend)
	setString(&target.LogLevel, partial.LogLevel)
	if partial.LogJSON != nil {
		target.LogJSON = *partial.LogJSON
	}

	setString(&target.Theme.PrimaryColor, partial.Theme.PrimaryColor)
	setString(&target.Theme.MutedColor, partial.Theme.MutedColor)
	setString(&target.Theme.SuccessColor, partial.Theme.SuccessColor)
	setString(&target.Theme.WarningColor, partial.Theme.WarningColor)
	setString(&target.Theme.ErrorColor, partial.Theme.ErrorColor)

	if partial.Watch.DebounceMillis != nil {
		target.Watch.DebounceMillis = *partial.Watch.DebounceMillis
	}
	if partial.Watch.GCIntervalSeconds != nil {
		target.Watch.GCIntervalSeconds = *partial.Watch.GCIntervalSeconds
	}

	// Relative store paths are relative to the config file
	if partial.StorePath != nil && target.StorePath != "" && !filepath.IsAbs(target.StorePath) {
		target.StorePath = filepath.Join(filepath.Dir(path), target.StorePath)
	}

	return nil
}

func setString(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}

func applyEnv(cfg *Config) {
	cfg.StorePath = GetEnv(EnvStorePath, cfg.StorePath)
	cfg.Backend = GetEnv(EnvBackend, cfg.Backend)
	cfg.LogLevel = GetEnv(EnvLogLevel, cfg.LogLevel)
	if v := os.Getenv(EnvLogJSON); v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			cfg.LogJSON = b
		}
	}
}

// findConfigFile returns the first config file that exists, or ""
func findConfigFile() string {
	candidates := []string{LocalConfigFile}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "tasklog", "config.json"))
	}

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// defaultStorePath is $XDG_DATA_HOME/tasklog, falling back to ~/.local/share
func defaultStorePath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "tasklog")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tasklog"
	}
	return filepath.Join(home, ".local", "share", "tasklog")
}

// defaultConfig returns the default configuration
func defaultConfig() *Config {
	return &Config{
		StorePath: defaultStorePath(),
		Backend:   store.BackendFile,
		LogLevel:  "info",
		LogJSON:   false,
		Theme: ThemeConfig{
			PrimaryColor: "#7d56f4",
			MutedColor:   "#626262",
			SuccessColor: "#04B575",
			WarningColor: "#FF9800",
			ErrorColor:   "#EF4146",
		},
		Watch: WatchConfig{
			DebounceMillis:    300,
			GCIntervalSeconds: 300,
		},
	}
}

// ConfigManager handles configuration with file watching capabilities
type ConfigManager struct {
	config     *Config
	path       string
	watcher    *Watcher
	reloadChan chan struct{}
	mu         sync.RWMutex
}

// NewConfigManager loads the configuration at path (or the default lookup
// when empty) and remembers where it came from for later reloads
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	return &ConfigManager{
		config:     cfg,
		path:       cfg.Path(),
		reloadChan: make(chan struct{}, 1),
	}, nil
}

// GetConfig returns the current configuration (thread-safe)
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// Reload loads the configuration from disk. On failure the previous
// configuration stays in place.
func (cm *ConfigManager) Reload() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cfg, err := Load(cm.path)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	cm.config = cfg
	return nil
}

// StartWatcher begins watching the config file for changes
func (cm *ConfigManager) StartWatcher(ctx context.Context) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.watcher != nil {
		return fmt.Errorf("watcher already started")
	}
	if cm.path == "" {
		return fmt.Errorf("no config file to watch")
	}

	watcher, err := NewWatcher(ctx, cm.path)
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Start(cm.config.Watch.Debounce()); err != nil {
		return fmt.Errorf("failed to start config watcher: %w", err)
	}

	cm.watcher = watcher
	go cm.handleConfigChanges(ctx, watcher)

	return nil
}

// handleConfigChanges processes config file change notifications
func (cm *ConfigManager) handleConfigChanges(ctx context.Context, watcher *Watcher) {
	log := logger.FromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case _, ok := <-watcher.Events():
			if !ok {
				return
			}
			if err := cm.Reload(); err != nil {
				log.Error("config reload failed", "path", cm.path, "err", err)
				continue
			}
			log.Info("config reloaded", "path", cm.path)

			select {
			case cm.reloadChan <- struct{}{}:
			default:
				// reload notification already pending
			}

		case err, ok := <-watcher.Errors():
			if !ok {
				return
			}
			log.Warn("config watcher error", "err", err)
		}
	}
}

// StopWatcher stops the config file watcher if it's running
func (cm *ConfigManager) StopWatcher() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.watcher == nil {
		return nil
	}

	err := cm.watcher.Stop()
	cm.watcher = nil
	return err
}

// ReloadEvents returns a channel that signals when config has been reloaded
func (cm *ConfigManager) ReloadEvents() <-chan struct{} {
	return cm.reloadChan
}

// GetEnv retrieves an environment variable with an optional fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
