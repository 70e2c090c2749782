// Package config manages application configuration from various sources.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// ErrNotLoaded is returned by functions that need a loaded configuration.
var ErrNotLoaded = errors.New("config not loaded")

// Data defines storage configuration.
type Data struct {
	Directory string `json:"directory,omitempty"`
}

// Layer identifies the feature layer that is browsed.
type Layer struct {
	ID                 string   `json:"id,omitempty"`
	Title              string   `json:"title,omitempty"`
	URL                string   `json:"url,omitempty"`
	ItemID             string   `json:"itemId,omitempty"`
	SearchFields       []string `json:"searchFields,omitempty"`
	SuggestionTemplate string   `json:"suggestionTemplate,omitempty"`
	DomainField        string   `json:"domainField,omitempty"`
	MinScale           float64  `json:"minScale,omitempty"`
}

// Search configures the typeahead.
type Search struct {
	Mode           string `json:"mode,omitempty"`
	MaxSuggestions int    `json:"maxSuggestions,omitempty"`
	DebounceMs     int    `json:"debounceMs,omitempty"`
}

// View configures how the map is framed.
type View struct {
	CloseupScale    float64 `json:"closeupScale,omitempty"`
	MaxInitialScale float64 `json:"maxInitialScale,omitempty"`
	OutWkid         int     `json:"outWkid,omitempty"`
}

// Print configures export jobs.
type Print struct {
	URL            string `json:"url,omitempty"`
	Format         string `json:"format,omitempty"`
	LayoutTemplate string `json:"layoutTemplate,omitempty"`
	TitleTemplate  string `json:"titleTemplate,omitempty"`
	TemplateFile   string `json:"templateFile,omitempty"`
	Archive        bool   `json:"archive,omitempty"`
}

// HTTP configures the REST client.
type HTTP struct {
	RateLimit      float64 `json:"rateLimit,omitempty"`
	RateBurst      int     `json:"rateBurst,omitempty"`
	TimeoutSeconds int     `json:"timeoutSeconds,omitempty"`
}

// TUIConfig defines the configuration for the Terminal User Interface.
type TUIConfig struct {
	LabelField    string `json:"labelField,omitempty"`
	LabelsVisible bool   `json:"labelsVisible,omitempty"`
}

// Config is the main configuration structure for the application.
type Config struct {
	Data       Data      `json:"data"`
	WorkingDir string    `json:"wd,omitempty"`
	Debug      bool      `json:"debug,omitempty"`
	PortalURL  string    `json:"portalUrl,omitempty"`
	Layer      Layer     `json:"layer"`
	Search     Search    `json:"search"`
	View       View      `json:"view"`
	Print      Print     `json:"print"`
	HTTP       HTTP      `json:"http"`
	TUI        TUIConfig `json:"tui"`
}

const (
	SearchModeRemote = "remote"
	SearchModeLocal  = "local"
)

// Application constants
const (
	defaultDataDirectory = ".meters"
	defaultLogLevel      = "info"
	appName              = "meters"
)

// Fields the label can cycle through.
var LabelFields = []string{"WSC_ID", "ADDRESS", "METER_SN", "METER_REG_SN", "METER_SIZE_T"}

// Global configuration instance
var cfg *Config

// Load initializes the configuration from environment variables and config files.
// If debug is true, debug mode is enabled and lvl is set to debug.
// It returns an error if configuration loading fails.
func Load(workingDir string, debug bool, lvl *slog.LevelVar) (*Config, error) {
	if cfg != nil {
		return cfg, nil
	}

	cfg = &Config{
		WorkingDir: workingDir,
	}

	configureViper()
	setDefaults(debug)

	// Read global config
	if err := readConfig(viper.ReadInConfig()); err != nil {
		return cfg, err
	}

	// Load and merge local config
	mergeLocalConfig(workingDir)

	// Apply configuration to the struct
	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	defaultLevel := slog.LevelInfo
	if cfg.Debug {
		defaultLevel = slog.LevelDebug
	}
	if lvl != nil {
		lvl.Set(defaultLevel)
	}

	// Validate configuration
	if err := Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// configureViper sets up viper's configuration paths and environment variables.
func configureViper() {
	viper.SetConfigName(fmt.Sprintf(".%s", appName))
	viper.SetConfigType("json")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(fmt.Sprintf("$XDG_CONFIG_HOME/%s", appName))
	viper.AddConfigPath(fmt.Sprintf("$HOME/.config/%s", appName))
	viper.SetEnvPrefix(strings.ToUpper(appName))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// setDefaults configures default values for configuration options.
func setDefaults(debug bool) {
	viper.SetDefault("data.directory", defaultDataDirectory)

	viper.SetDefault("portalUrl", "https://gisportal.vernonia-or.gov/portal")
	viper.SetDefault("layer.id", "meters")
	viper.SetDefault("layer.title", "Water Meters")
	viper.SetDefault("layer.itemId", "4cc4580f2af246a1964c394b38f648aa")
	viper.SetDefault("layer.searchFields", []string{"WSC_ID", "ADDRESS"})
	viper.SetDefault("layer.suggestionTemplate", "{WSC_ID} - {ADDRESS}")
	viper.SetDefault("layer.domainField", "ACCT_TYPE")
	viper.SetDefault("layer.minScale", 24000)

	viper.SetDefault("search.mode", SearchModeRemote)
	viper.SetDefault("search.maxSuggestions", 6)
	viper.SetDefault("search.debounceMs", 150)

	viper.SetDefault("view.closeupScale", 1200)
	viper.SetDefault("view.maxInitialScale", 20000)
	viper.SetDefault("view.outWkid", 3857)

	viper.SetDefault("print.url", "https://gisportal.vernonia-or.gov/arcgis/rest/services/Utilities/PrintingTools/GPServer/Export%20Web%20Map%20Task")
	viper.SetDefault("print.format", "PDF")
	viper.SetDefault("print.layoutTemplate", "Letter ANSI A Portrait")
	viper.SetDefault("print.titleTemplate", "Water Meters {n}")
	viper.SetDefault("print.archive", false)

	viper.SetDefault("http.rateLimit", 10.0)
	viper.SetDefault("http.rateBurst", 5)
	viper.SetDefault("http.timeoutSeconds", 60)

	viper.SetDefault("tui.labelField", "WSC_ID")
	viper.SetDefault("tui.labelsVisible", false)

	if debug {
		viper.SetDefault("debug", true)
		viper.Set("log.level", "debug")
	} else {
		viper.SetDefault("debug", false)
		viper.SetDefault("log.level", defaultLogLevel)
	}
}

// readConfig handles the result of reading a configuration file.
func readConfig(err error) error {
	if err == nil {
		return nil
	}

	// It's okay if the config file doesn't exist
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}

	return fmt.Errorf("failed to read config: %w", err)
}

// mergeLocalConfig loads and merges configuration from the local directory.
func mergeLocalConfig(workingDir string) {
	local := viper.New()
	local.SetConfigName(fmt.Sprintf(".%s", appName))
	local.SetConfigType("json")
	local.AddConfigPath(workingDir)

	// Merge local config if it exists
	if err := local.ReadInConfig(); err == nil {
		if err := viper.MergeConfigMap(local.AllSettings()); err != nil {
			slog.Warn("failed to merge local config", "error", err)
		}
	}
}

// Validate checks if the configuration is valid and applies defaults where needed.
func Validate() error {
	if cfg == nil {
		return ErrNotLoaded
	}

	if cfg.Layer.URL == "" && (cfg.Layer.ItemID == "" || cfg.PortalURL == "") {
		return fmt.Errorf("layer.url or layer.itemId with portalUrl is required")
	}
	if len(cfg.Layer.SearchFields) == 0 {
		return fmt.Errorf("layer.searchFields must name at least one field")
	}
	switch cfg.Search.Mode {
	case SearchModeRemote, SearchModeLocal:
	default:
		slog.Warn("unknown search mode, using remote", "mode", cfg.Search.Mode)
		cfg.Search.Mode = SearchModeRemote
	}
	if cfg.Search.MaxSuggestions <= 0 {
		cfg.Search.MaxSuggestions = 6
	}
	if cfg.Search.DebounceMs < 0 {
		cfg.Search.DebounceMs = 0
	}
	if !strings.Contains(cfg.Print.TitleTemplate, "{n}") {
		slog.Warn("print.titleTemplate has no {n}; job titles will repeat", "template", cfg.Print.TitleTemplate)
	}
	if !slices.Contains(LabelFields, cfg.TUI.LabelField) {
		cfg.TUI.LabelField = LabelFields[0]
	}
	if cfg.Print.TemplateFile != "" && !filepath.IsAbs(cfg.Print.TemplateFile) {
		cfg.Print.TemplateFile = filepath.Join(cfg.WorkingDir, cfg.Print.TemplateFile)
	}

	return nil
}

// Get returns the current configuration.
// It's safe to call this function multiple times.
func Get() *Config {
	return cfg
}

// WorkingDirectory returns the current working directory from the configuration.
func WorkingDirectory() string {
	if cfg == nil {
		panic("config not loaded")
	}
	return cfg.WorkingDir
}

// DataDirectory returns the data directory resolved against the working
// directory.
func DataDirectory() string {
	if cfg == nil {
		panic("config not loaded")
	}
	if filepath.IsAbs(cfg.Data.Directory) {
		return cfg.Data.Directory
	}
	return filepath.Join(cfg.WorkingDir, cfg.Data.Directory)
}

func updateCfgFile(updateCfg func(config *Config)) error {
	if cfg == nil {
		return ErrNotLoaded
	}

	// Get the config file path
	configFile := viper.ConfigFileUsed()
	var configData []byte
	if configFile == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		configFile = filepath.Join(homeDir, fmt.Sprintf(".%s.json", appName))
		slog.Info("config file not found, creating new one", "path", configFile)
		configData = []byte(`{}`)
	} else {
		// Read the existing config file
		data, err := os.ReadFile(configFile)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		configData = data
	}

	// Parse the JSON
	var userCfg *Config
	if err := json.Unmarshal(configData, &userCfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	updateCfg(userCfg)

	// Write the updated config back to file
	updatedData, err := json.MarshalIndent(userCfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, updatedData, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// UpdateLabeling updates the label settings in the configuration and writes
// them to the config file.
func UpdateLabeling(field string, visible bool) error {
	if cfg == nil {
		return ErrNotLoaded
	}
	if !slices.Contains(LabelFields, field) {
		return fmt.Errorf("unknown label field %q", field)
	}

	cfg.TUI.LabelField = field
	cfg.TUI.LabelsVisible = visible

	return updateCfgFile(func(config *Config) {
		config.TUI.LabelField = field
		config.TUI.LabelsVisible = visible
	})
}

// reset clears the loaded configuration. Used by tests.
func reset() {
	cfg = nil
	viper.Reset()
}
