package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "talent-matcher"
)

type Config struct {
	AI       *AIConfig       `mapstructure:"ai"`
	Matching *MatchingConfig `mapstructure:"matching"`
	Cache    *CacheConfig    `mapstructure:"cache"`
	Skills   *SkillsConfig   `mapstructure:"skills"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider" validate:"omitempty,oneof=gemini http"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
	HTTP     *HTTPConfig   `mapstructure:"http"`
}

type GeminiConfig struct {
	APIKeyFile   string        `mapstructure:"api-key-file"`
	Model        string        `mapstructure:"model"`
	MaxRetries   int           `mapstructure:"max-retries" validate:"gte=0,lte=10"`
	MaxQuotaWait time.Duration `mapstructure:"max-quota-wait" validate:"gte=0"`
	MaxLogLength int           `mapstructure:"max-log-length" validate:"gte=0"`
}

type HTTPConfig struct {
	URL        string        `mapstructure:"url" validate:"omitempty,url"`
	Model      string        `mapstructure:"model"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type MatchingConfig struct {
	Concurrency int            `mapstructure:"concurrency" validate:"gte=0,lte=64"`
	CallTimeout time.Duration  `mapstructure:"call-timeout" validate:"gte=0"`
	TopK        int            `mapstructure:"top-k" validate:"gte=0"`
	Exclude     *ExcludeConfig `mapstructure:"exclude"`
}

type ExcludeConfig struct {
	Candidates []string `mapstructure:"candidates"`
	File       string   `mapstructure:"file"`
}

type CacheConfig struct {
	TTL   time.Duration `mapstructure:"ttl" validate:"gte=0"`
	Redis *RedisConfig  `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

type SkillsConfig struct {
	VocabularyFile string   `mapstructure:"vocabulary-file"`
	Extra          []string `mapstructure:"extra"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talent-matcher turns resumes and job descriptions into structured data and ranks candidates against jobs",
	}
)

// Execute executes the root command. SIGINT and SIGTERM cancel the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	setDefaults()
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talent-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("ai.enabled", true)
	viper.SetDefault("ai.provider", providerGemini)
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("ai.gemini.max-quota-wait", 10*time.Second)
	viper.SetDefault("ai.gemini.max-log-length", 200)
	viper.SetDefault("ai.http.timeout", 30*time.Second)
	viper.SetDefault("matching.concurrency", 5)
	viper.SetDefault("matching.call-timeout", 15*time.Second)
	viper.SetDefault("matching.top-k", 3)
	viper.SetDefault("cache.ttl", 10*time.Minute)
}

func initConfig() {
	if versionCmd.CalledAs() != "" {
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless it was passed explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}

	if err := validator.New().Struct(config); err != nil {
		return config, err
	}

	return config, nil
}
