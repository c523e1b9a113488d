package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/frahmantamala/donation-management/internal"
	"github.com/frahmantamala/donation-management/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	clearData  bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "donation-management",
	Short: "Donation Management",
	Long:  `Backend for managing causes, donations and the staff accounts that run them.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("http_server.port", 8080)
	v.SetDefault("http_server.read_header_timeout", "5s")
	v.SetDefault("http_server.read_timeout", "30s")
	v.SetDefault("http_server.write_timeout", "60s")
	v.SetDefault("http_server.idle_timeout", "120s")
	v.SetDefault("http_server.shutdown_timeout", "30s")
	v.SetDefault("database.driver", internal.DatabaseDriverPostgres)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("security.access_token_duration", "24h")
	v.SetDefault("security.bcrypt_cost", 10)
	v.SetDefault("storage.driver", internal.StorageDriverMemory)
	v.SetDefault("storage.max_file_size", 25<<20)
	v.SetDefault("storage.max_files", 10)
	v.SetDefault("observability.metrics.path", "/metrics")
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")

	// keys without a default are invisible to Unmarshal unless bound
	for _, key := range []string{
		"http_server.base_url", "http_server.allowed_origins",
		"database.source", "database.auto_migrate", "database.conn_max_idle_time",
		"security.jwt_secret", "security.jwt_secret_resource", "security.google_client_id",
		"storage.bucket", "storage.public_base_url",
		"observability.metrics.enabled",
		"observability.logging.file.enabled", "observability.logging.file.path",
		"observability.logging.file.max_size_mb", "observability.logging.file.max_backups",
		"observability.logging.file.max_age_days", "observability.logging.file.compress",
	} {
		_ = v.BindEnv(key)
	}
}

// loadConfig reads config.yml from path (optional), overlays ENV_ prefixed
// variables, resolves the JWT secret and validates the result.
func loadConfig(path string) (*internal.Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Security.JWTSecretResource != "" {
		secret, err := accessSecret(context.Background(), cfg.Security.JWTSecretResource)
		if err != nil {
			return nil, fmt.Errorf("error resolving jwt secret: %w", err)
		}
		cfg.Security.JWTSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, nil
}

func configureLogger(cfg *internal.Config) *slog.Logger {
	opts := logger.Options{
		Level:  cfg.Observability.Logging.Level,
		Format: cfg.Observability.Logging.Format,
	}
	if f := cfg.Observability.Logging.File; f.Enabled {
		opts.File = &logger.FileOptions{
			Path:       f.Path,
			MaxSizeMB:  f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAgeDays: f.MaxAgeDays,
			Compress:   f.Compress,
		}
	}
	return logger.Configure(opts).With("env", cfg.Env)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory holding config.yml")
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
