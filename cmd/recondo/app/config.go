package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from config files,
// environment variables, and .env files. Flag values are layered on top
// after cobra parses them.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Reconciliation configuration
	ProfileA              string
	ProfileB              string
	KeyFields             []string
	NumericTolerance      float64
	TimeTolerance         time.Duration
	NotificationThreshold int
	Incremental           bool
	ModifiedField         string
	StateFile             string
	ReportDir             string
	Shards                int
	Canonicalize          bool
	JQBinary              string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables
//  3. .env files
//  4. Config file (~/.recondo.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// Unset tolerances stay negative so zero remains a usable value.
	viper.SetDefault("numeric_tolerance", -1.0)
	viper.SetDefault("time_tolerance", time.Duration(-1))
	viper.SetDefault("shards", 1)
	viper.SetDefault("report_dir", ".")
	viper.SetDefault("modified_field", "last_modified")

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".recondo")
		}
	}

	// Config file is optional.
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		ProfileA:              viper.GetString("profile_a"),
		ProfileB:              viper.GetString("profile_b"),
		KeyFields:             viper.GetStringSlice("key_fields"),
		NumericTolerance:      viper.GetFloat64("numeric_tolerance"),
		TimeTolerance:         viper.GetDuration("time_tolerance"),
		NotificationThreshold: viper.GetInt("notification_threshold"),
		Incremental:           viper.GetBool("incremental"),
		ModifiedField:         viper.GetString("modified_field"),
		StateFile:             viper.GetString("state_file"),
		ReportDir:             viper.GetString("report_dir"),
		Shards:                viper.GetInt("shards"),
		Canonicalize:          viper.GetBool("canonicalize"),
		JQBinary:              viper.GetString("jq_binary"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags so flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	envFiles := []string{
		".env",
		".env.local",
	}

	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
