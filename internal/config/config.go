package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/deploymenttheory/go-dex-checksum/internal/dex"
	"github.com/deploymenttheory/go-dex-checksum/internal/report"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/compressionutil"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/errors"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/fsutil"
	"github.com/deploymenttheory/go-dex-checksum/internal/utils/osutil"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name used for config files and directories
	AppName = "dex-checksum"

	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "DEX_CHECKSUM"
)

// AppConfig holds the application configuration
type AppConfig struct {
	// Core settings
	Debug     bool   `mapstructure:"debug" yaml:"debug"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogFile   string `mapstructure:"log_file" yaml:"log_file"`

	// Checksum settings
	Checksum struct {
		ByteOrder string `mapstructure:"byte_order" yaml:"byte_order"` // big or little
	} `mapstructure:"checksum" yaml:"checksum"`

	// Console output settings
	Output struct {
		Format string `mapstructure:"format" yaml:"format"` // array or hex
	} `mapstructure:"output" yaml:"output"`

	// Inspection report settings
	Report struct {
		Format string `mapstructure:"format" yaml:"format"` // json, yaml, xml, plist, cbor
	} `mapstructure:"report" yaml:"report"`

	// Settings for compressed outputs
	Compression struct {
		Level string `mapstructure:"level" yaml:"level"` // fastest, default, best
	} `mapstructure:"compression" yaml:"compression"`

	// VirusTotal settings
	VirusTotal struct {
		APIKey     string        `mapstructure:"api_key" yaml:"api_key"`
		Host       string        `mapstructure:"host" yaml:"host"`
		RetryCount int           `mapstructure:"retry_count" yaml:"retry_count"`
		RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
		RateLimit  int           `mapstructure:"rate_limit" yaml:"rate_limit"`
	} `mapstructure:"virustotal" yaml:"virustotal"`
}

// Global variables
var (
	// Global configuration instance
	Instance AppConfig

	// Status indicators
	ConfigLoaded bool
	ConfigFile   string

	// Ensure thread safety
	initOnce sync.Once
)

// Initialize loads the global configuration once. A missing config file is
// not an error; defaults and environment variables apply.
func Initialize(cfgFile string) error {
	var err error

	initOnce.Do(func() {
		var loaded *AppConfig
		var used string
		loaded, used, err = Load(cfgFile)
		if loaded == nil {
			return
		}

		Instance = *loaded
		ConfigFile = used
		ConfigLoaded = used != ""

		ensureDirectories()
	})

	return err
}

// Reload replaces the global configuration with the one read from cfgFile.
// It is used when --config names a file after Initialize already ran.
func Reload(cfgFile string) error {
	loaded, used, err := Load(cfgFile)
	if err != nil {
		return err
	}

	Instance = *loaded
	ConfigFile = used
	ConfigLoaded = used != ""
	return nil
}

// Load builds a configuration from defaults, the config file and the
// environment without touching the global instance. It returns the config
// file that was read, or "" when none was found.
func Load(cfgFile string) (*AppConfig, string, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		expanded, err := fsutil.ExpandTilde(cfgFile)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", errors.ErrConfigInvalid, err)
		}
		v.SetConfigFile(expanded)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		addSearchPaths(v)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	used := ""
	if readErr := v.ReadInConfig(); readErr != nil {
		if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, "", fmt.Errorf("%w: error reading config file: %w", errors.ErrConfigParseError, readErr)
		}
	} else {
		used = v.ConfigFileUsed()
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("%w: %w", errors.ErrConfigParseError, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, used, nil
}

// Validate checks every enumerated setting
func (c *AppConfig) Validate() error {
	if c.LogFormat != "json" && c.LogFormat != "human" {
		return fmt.Errorf("%w: log_format must be json or human, got %q", errors.ErrConfigInvalid, c.LogFormat)
	}
	if _, err := dex.ParseByteOrder(c.Checksum.ByteOrder); err != nil {
		return fmt.Errorf("%w: checksum.byte_order: %w", errors.ErrConfigInvalid, err)
	}
	if _, err := dex.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("%w: output.format: %w", errors.ErrConfigInvalid, err)
	}
	if _, err := report.ParseFormat(c.Report.Format); err != nil {
		return fmt.Errorf("%w: report.format: %w", errors.ErrConfigInvalid, err)
	}
	if _, err := compressionutil.ParseLevel(c.Compression.Level); err != nil {
		return fmt.Errorf("%w: compression.level: %w", errors.ErrConfigInvalid, err)
	}
	if c.VirusTotal.RetryCount < 0 || c.VirusTotal.RateLimit < 0 {
		return fmt.Errorf("%w: virustotal retry_count and rate_limit must not be negative", errors.ErrConfigInvalid)
	}
	return nil
}

// Redacted returns a copy that is safe to print
func (c AppConfig) Redacted() AppConfig {
	if c.VirusTotal.APIKey != "" {
		c.VirusTotal.APIKey = "********"
	}
	return c
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Core settings
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "human")
	v.SetDefault("log_file", "")

	// Checksum and output defaults
	v.SetDefault("checksum.byte_order", "big")
	v.SetDefault("output.format", string(dex.FormatArray))
	v.SetDefault("report.format", string(report.FormatJSON))
	v.SetDefault("compression.level", string(compressionutil.LevelDefault))

	// VirusTotal defaults (free tier)
	v.SetDefault("virustotal.api_key", "")
	v.SetDefault("virustotal.host", "")
	v.SetDefault("virustotal.retry_count", 3)
	v.SetDefault("virustotal.retry_delay", 5*time.Second)
	v.SetDefault("virustotal.rate_limit", 4)
}

// addSearchPaths adds config search paths
func addSearchPaths(v *viper.Viper) {
	// Always check current directory first
	v.AddConfigPath(".")

	// In CI/Pipeline, only use current directory and the system directory
	if osutil.IsRunningInPipeline() {
		v.AddConfigPath("/etc/" + AppName)
		return
	}

	if configDir, err := fsutil.GetConfigDir(AppName); err == nil {
		v.AddConfigPath(configDir)
	}

	// In dev mode, only use current directory and user config
	if osutil.IsDevEnvironment() {
		return
	}

	if systemConfigDir, err := fsutil.GetSystemConfigDir(AppName); err == nil {
		v.AddConfigPath(systemConfigDir)
	}
}

// ensureDirectories creates the log directory when a log file is configured
func ensureDirectories() {
	// Don't create directories in a pipeline environment unless explicitly requested
	if osutil.IsRunningInPipeline() && os.Getenv("CREATE_DIRS") != "true" {
		return
	}

	if Instance.LogFile != "" {
		_ = fsutil.CreateDirIfNotExists(filepath.Dir(Instance.LogFile))
	}
}
