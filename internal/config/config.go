package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SessionMaxAge - абсолютный срок жизни сессии; другие значения не допускаются
const SessionMaxAge = 60 * time.Second

// DefaultAmazonCallbackURL - адрес колбэка, зарегистрированный в консоли Amazon
const DefaultAmazonCallbackURL = "https://alexaquiz.herokuapp.com/auth/amazon/callback"

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	// Amazon равен nil, если AMAZON_CLIENT_ID не задан: вход через Amazon выключен
	Amazon *AmazonConfig
	Seed   SeedConfig
	Views  ViewsConfig
	Static StaticConfig
	Log    LogConfig
	CORS   CORSConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
	// ViewCache включается, только если PORT задан в окружении
	ViewCache bool
	Release   bool
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	LogLevel string `mapstructure:"log_level"`
}

// RedisConfig содержит настройки Redis. Redis опционален и нужен только для rate limiting.
type RedisConfig struct {
	Mode       string   `mapstructure:"mode"`
	Addrs      []string `mapstructure:"addrs"`
	Addr       string   `mapstructure:"addr"`
	Password   string   `mapstructure:"password"`
	DB         int      `mapstructure:"db"`
	MasterName string   `mapstructure:"master_name"`
	MaxRetries int      `mapstructure:"max_retries"`
}

// Enabled сообщает, настроен ли Redis
func (r RedisConfig) Enabled() bool {
	return len(r.Addrs) > 0 || strings.TrimSpace(r.Addr) != ""
}

// SessionConfig содержит настройки сессий
type SessionConfig struct {
	Secret          string        `mapstructure:"secret"`
	CookieName      string        `mapstructure:"cookie_name"`
	MaxAge          time.Duration `mapstructure:"max_age"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// AmazonConfig содержит учетные данные приложения Login with Amazon
type AmazonConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// SeedConfig управляет пересозданием схемы и демо-данными при старте
type SeedConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	AbortOnError bool `mapstructure:"abort_on_error"`
}

// ViewsConfig содержит настройки шаблонов. Пустой Dir - встроенные шаблоны.
type ViewsConfig struct {
	Dir string
}

// StaticConfig содержит каталог статических файлов
type StaticConfig struct {
	Dir string
}

// LogConfig содержит настройки логирования
type LogConfig struct {
	Level string
}

// CORSConfig содержит список источников, которым разрешен JSON API
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Отдельный экземпляр, без глобального состояния

	setDefaults(vip)
	bindEnv(vip)

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файла может не быть: тогда используются переменные окружения и умолчания
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %q: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// PORT задан платформой (Heroku) - считаем окружение боевым и кешируем шаблоны
	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		cfg.Server.Port = port
		cfg.Server.ViewCache = true
	}
	cfg.Server.Release = vip.GetString("gin_mode") == "release"

	cfg.Amazon = loadAmazon(vip)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "3000")
	vip.SetDefault("server.readtimeout", 15)
	vip.SetDefault("server.writetimeout", 15)

	vip.SetDefault("database.host", "localhost")
	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.log_level", "warn")

	vip.SetDefault("redis.mode", "single")

	vip.SetDefault("session.cookie_name", "quiz.sid")
	vip.SetDefault("session.max_age", SessionMaxAge)
	vip.SetDefault("session.cleanup_interval", 15*time.Minute)

	vip.SetDefault("seed.enabled", true)
	vip.SetDefault("seed.abort_on_error", true)

	vip.SetDefault("static.dir", "./public")
	vip.SetDefault("log.level", "info")
	vip.SetDefault("amazon.callback_url", DefaultAmazonCallbackURL)
}

func bindEnv(vip *viper.Viper) {
	// Привязка для секции Database
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.log_level", "DATABASE_LOG_LEVEL")

	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Сессии и Amazon
	vip.BindEnv("session.secret", "SESSION_SECRET")
	vip.BindEnv("amazon.client_id", "AMAZON_CLIENT_ID")
	vip.BindEnv("amazon.client_secret", "AMAZON_CLIENT_SECRET")
	vip.BindEnv("amazon.callback_url", "AMAZON_CALLBACK_URL")

	vip.BindEnv("seed.enabled", "SEED_ENABLED")
	vip.BindEnv("seed.abort_on_error", "SEED_ABORT_ON_ERROR")
	vip.BindEnv("views.dir", "VIEWS_DIR")
	vip.BindEnv("static.dir", "STATIC_DIR")
	vip.BindEnv("log.level", "LOG_LEVEL")
	vip.BindEnv("gin_mode", "GIN_MODE")
}

// loadAmazon возвращает nil, если client id не задан
func loadAmazon(vip *viper.Viper) *AmazonConfig {
	clientID := strings.TrimSpace(vip.GetString("amazon.client_id"))
	if clientID == "" {
		return nil
	}
	return &AmazonConfig{
		ClientID:     clientID,
		ClientSecret: vip.GetString("amazon.client_secret"),
		CallbackURL:  vip.GetString("amazon.callback_url"),
	}
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.Session.MaxAge != SessionMaxAge {
		return fmt.Errorf("session max age is fixed at %s, got %s", SessionMaxAge, c.Session.MaxAge)
	}
	if c.Amazon != nil {
		if c.Amazon.ClientSecret == "" {
			return fmt.Errorf("AMAZON_CLIENT_SECRET is required when AMAZON_CLIENT_ID is set")
		}
		if c.Session.Secret == "" {
			return fmt.Errorf("SESSION_SECRET is required when Amazon login is enabled")
		}
		if c.Amazon.CallbackURL == "" {
			return fmt.Errorf("amazon callback url is empty")
		}
	}
	return nil
}
