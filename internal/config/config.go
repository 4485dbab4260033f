package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Scrape    Scrape    `mapstructure:"scrape"`
	Dedup     Dedup     `mapstructure:"dedup"`
	Summarize Summarize `mapstructure:"summarize"`
	Gemini    Gemini    `mapstructure:"gemini"`
	SHRM      SHRM      `mapstructure:"shrm"`
	Output    Output    `mapstructure:"output"`
}

// Scrape holds link-collection configuration.
type Scrape struct {
	PerSiteLimit   int      `mapstructure:"per_site_limit"`
	MaxTotalItems  int      `mapstructure:"max_total_items"`
	TrustedDomains []string `mapstructure:"trusted_domains"`
	SourcesFile    string   `mapstructure:"sources_file"`
}

// Dedup holds semantic deduplication and selection knobs.
type Dedup struct {
	SimThreshold    float64 `mapstructure:"sim_threshold"`
	MinSignificance int     `mapstructure:"min_significance"`
	MaxPerCompany   int     `mapstructure:"max_per_company"`
}

// Summarize holds orchestrator configuration.
type Summarize struct {
	BatchSize int `mapstructure:"batch_size"`
}

// Gemini holds model caller configuration. An empty APIKey disables the
// summarization integration rather than failing the run.
type Gemini struct {
	APIKey        string  `mapstructure:"api_key"`
	Model         string  `mapstructure:"model"`
	FallbackModel string  `mapstructure:"fallback_model"`
	RPM           int     `mapstructure:"rpm"`
	MaxRetries    int     `mapstructure:"max_retries"`
	BackoffBase   float64 `mapstructure:"backoff_base"`
	BackoffJitter float64 `mapstructure:"backoff_jitter"`
}

// SHRM holds the Coveo news API configuration. An empty Token skips the
// SHRM source with a logged warning.
type SHRM struct {
	Token string `mapstructure:"token"`
	Count int    `mapstructure:"count"`
}

// Output holds digest output configuration.
type Output struct {
	Directory string `mapstructure:"directory"`
	LogsDir   string `mapstructure:"logs_dir"`
}

var globalConfig *Config

// Load loads the configuration from .env, an optional config file, and
// environment variables.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists (for local development)
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".hrdigest")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the cached global configuration. Intended for tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

func setDefaults() {
	viper.SetDefault("scrape.per_site_limit", 25)
	viper.SetDefault("scrape.max_total_items", 160)
	viper.SetDefault("scrape.trusted_domains", []string{"hr.economictimes.indiatimes.com"})
	viper.SetDefault("scrape.sources_file", "")

	viper.SetDefault("dedup.sim_threshold", 0.82)
	viper.SetDefault("dedup.min_significance", 3)
	viper.SetDefault("dedup.max_per_company", 2)

	viper.SetDefault("summarize.batch_size", 3)

	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("gemini.fallback_model", "gemini-2.0-flash-lite")
	viper.SetDefault("gemini.rpm", 10)
	viper.SetDefault("gemini.max_retries", 5)
	viper.SetDefault("gemini.backoff_base", 2.0)
	viper.SetDefault("gemini.backoff_jitter", 0.25)

	viper.SetDefault("shrm.count", 25)

	viper.SetDefault("output.directory", "data")
	viper.SetDefault("output.logs_dir", "logs")
}

// bindEnvironmentVariables keeps the flat environment variable names the
// scraper has always used working alongside the dotted config keys.
func bindEnvironmentVariables() {
	bindEnvKeys("scrape.per_site_limit", []string{"PER_SITE_LIMIT"})
	bindEnvKeys("scrape.max_total_items", []string{"MAX_TOTAL_ITEMS"})
	bindEnvKeys("dedup.sim_threshold", []string{"DEDUP_SIM_THRESHOLD"})
	bindEnvKeys("dedup.min_significance", []string{"MIN_SIGNIFICANCE"})
	bindEnvKeys("dedup.max_per_company", []string{"MAX_PER_COMPANY"})
	bindEnvKeys("summarize.batch_size", []string{"SUMM_BATCH_SIZE"})

	bindEnvKeys("gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})
	bindEnvKeys("gemini.model", []string{"GEMINI_MODEL"})
	bindEnvKeys("gemini.fallback_model", []string{"GEMINI_FALLBACK_MODEL"})
	bindEnvKeys("gemini.rpm", []string{"GEMINI_RPM"})
	bindEnvKeys("gemini.max_retries", []string{"GEMINI_MAX_RETRIES"})
	bindEnvKeys("gemini.backoff_base", []string{"GEMINI_BACKOFF_BASE"})
	bindEnvKeys("gemini.backoff_jitter", []string{"GEMINI_BACKOFF_JITTER"})

	bindEnvKeys("shrm.token", []string{"SHRM_COVEO_TOKEN"})

	bindEnvKeys("output.directory", []string{"OUTPUT_DIR"})
	bindEnvKeys("output.logs_dir", []string{"LOGS_DIR"})
}

func bindEnvKeys(configKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if err := viper.BindEnv(configKey, envKey); err != nil {
			fmt.Printf("Warning: failed to bind %s: %v\n", envKey, err)
		}
	}
}

// validateConfig rejects values the pipeline cannot run with. Missing
// secrets are deliberately not errors: the dependent integration degrades
// to "no items from this source".
func validateConfig(config *Config) error {
	if config.Scrape.PerSiteLimit <= 0 {
		return fmt.Errorf("scrape.per_site_limit must be positive, got %d", config.Scrape.PerSiteLimit)
	}
	if config.Scrape.MaxTotalItems <= 0 {
		return fmt.Errorf("scrape.max_total_items must be positive, got %d", config.Scrape.MaxTotalItems)
	}
	if config.Dedup.SimThreshold <= 0 || config.Dedup.SimThreshold > 1 {
		return fmt.Errorf("dedup.sim_threshold must be in (0, 1], got %v", config.Dedup.SimThreshold)
	}
	if config.Dedup.MinSignificance < 1 || config.Dedup.MinSignificance > 5 {
		return fmt.Errorf("dedup.min_significance must be in [1, 5], got %d", config.Dedup.MinSignificance)
	}
	if config.Summarize.BatchSize <= 0 {
		return fmt.Errorf("summarize.batch_size must be positive, got %d", config.Summarize.BatchSize)
	}
	if config.Gemini.RPM <= 0 {
		return fmt.Errorf("gemini.rpm must be positive, got %d", config.Gemini.RPM)
	}
	return nil
}
