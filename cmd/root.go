package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobgenius/internal/cache"
	"github.com/spigell/jobgenius/internal/filtering"
	"github.com/spigell/jobgenius/internal/jobsource"
	"github.com/spigell/jobgenius/internal/logger"
	"github.com/spigell/jobgenius/internal/secrets"
	"github.com/spigell/jobgenius/internal/server"
	"github.com/spigell/jobgenius/internal/storage"
)

const (
	app       = "jobgenius"
	envPrefix = "JOBGENIUS"
)

type Config struct {
	Server  server.Config    `mapstructure:"server"`
	Storage StorageConfig    `mapstructure:"storage"`
	Cache   cache.Config     `mapstructure:"cache"`
	Sources SourcesConfig    `mapstructure:"sources"`
	AI      AIConfig         `mapstructure:"ai"`
	Filters filtering.Config `mapstructure:"filters"`
	Profile ProfileConfig    `mapstructure:"profile"`
}

type StorageConfig struct {
	storage.Config `mapstructure:",squash"`
	// PostgresURL overrides postgres.url when configured.
	PostgresURL secrets.Source `mapstructure:"postgres-url"`
}

type SourcesConfig struct {
	Timeout    time.Duration    `mapstructure:"timeout"`
	CacheTTL   time.Duration    `mapstructure:"cache-ttl"`
	Arbeitnow  ArbeitnowSource  `mapstructure:"arbeitnow"`
	DuckDuckGo DuckDuckGoSource `mapstructure:"duckduckgo"`
	HeadHunter HeadHunterSource `mapstructure:"headhunter"`
}

type ArbeitnowSource struct {
	Enabled                   bool `mapstructure:"enabled"`
	jobsource.ArbeitnowConfig `mapstructure:",squash"`
}

type DuckDuckGoSource struct {
	Enabled                    bool `mapstructure:"enabled"`
	jobsource.DuckDuckGoConfig `mapstructure:",squash"`
}

type HeadHunterSource struct {
	Enabled                    bool `mapstructure:"enabled"`
	jobsource.HeadHunterConfig `mapstructure:",squash"`
}

type AIConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Provider    string        `mapstructure:"provider"`
	ChatTimeout time.Duration `mapstructure:"chat-timeout"`
	Gemini      GeminiConfig  `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey          secrets.Source `mapstructure:"api-key"`
	Model           string         `mapstructure:"model"`
	MaxRetries      int            `mapstructure:"max-retries"`
	Temperature     float32        `mapstructure:"temperature"`
	MaxOutputTokens int32          `mapstructure:"max-output-tokens"`
	MaxLogLength    int            `mapstructure:"max-log-length"`
}

// ProfileConfig describes the user the CLI commands act for.
type ProfileConfig struct {
	UserID int64    `mapstructure:"user-id"`
	Skills []string `mapstructure:"skills"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobgenius matches job postings to your skills, reports skill gaps and chats about your career",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobgenius.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.shutdown-timeout", 10*time.Second)

	viper.SetDefault("storage.driver", storage.DriverMemory)
	viper.SetDefault("storage.sample-data", true)

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.addr", "localhost:6379")
	viper.SetDefault("cache.ttl", cache.DefaultTTL)

	viper.SetDefault("sources.timeout", 15*time.Second)
	viper.SetDefault("sources.cache-ttl", cache.DefaultTTL)
	viper.SetDefault("sources.arbeitnow.enabled", true)
	viper.SetDefault("sources.arbeitnow.max-pages", 1)
	viper.SetDefault("sources.duckduckgo.enabled", true)
	viper.SetDefault("sources.headhunter.enabled", false)
	viper.SetDefault("sources.headhunter.max-pages", 1)

	viper.SetDefault("ai.enabled", false)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.api-key.env", "GEMINI_API_KEY")

	viper.SetDefault("filters.include-applied", false)
	viper.SetDefault("profile.user-id", 1)
}

func initConfig() {
	// .env is optional.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Without an explicit --config the defaults are enough to run.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}

	return config, nil
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}
