package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration settings for the application.
type Config struct {
	Env        string           // Env is the current environment: local, development, production.
	Telegram   TelegramConfig   // Telegram holds the bot token and poller settings.
	Database   PostgresConfig   // Database holds the postgres database configuration
	Backend    BackendConfig    // Backend holds the employee backend API settings.
	Monitoring MonitoringConfig // Monitoring holds the metrics and health server settings.
	PageSize   int              // PageSize is the number of employees shown per list page.
}

// TelegramConfig holds the telegram bot settings.
type TelegramConfig struct {
	Token         string        // Token is an unique telegram bot token
	PollerTimeout time.Duration // PollerTimeout is the long polling timeout
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// BackendConfig holds the employee backend settings.
type BackendConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HealthPath string
}

type MonitoringConfig struct {
	Port int
}

const envPrefix = "REGISTRAR"

// MustLoad loads the configuration from the YAML file named by CONFIG_PATH. Every key can be
// overridden by an environment variable, e.g. REGISTRAR_TELEGRAM_TOKEN for telegram.token.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		panic("config path is empty")
	}

	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		panic("config error: " + err.Error())
	}

	v.SetDefault("env", "local")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("telegram.timeout", 10*time.Second)
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("backend.health_path", "/actuator/health")
	v.SetDefault("monitoring.port", 8080)
	v.SetDefault("employees.page_size", 10)

	return &Config{
		Env: v.GetString("env"),
		Telegram: TelegramConfig{
			Token:         v.GetString("telegram.token"),
			PollerTimeout: v.GetDuration("telegram.timeout"),
		},
		Database: PostgresConfig{
			Host:     v.GetString("postgres.host"),
			Port:     v.GetString("postgres.port"),
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Name:     v.GetString("postgres.db_name"),
		},
		Backend: BackendConfig{
			BaseURL:    v.GetString("backend.base_url"),
			Timeout:    v.GetDuration("backend.timeout"),
			HealthPath: v.GetString("backend.health_path"),
		},
		Monitoring: MonitoringConfig{
			Port: v.GetInt("monitoring.port"),
		},
		PageSize: v.GetInt("employees.page_size"),
	}
}
