package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Auth      AuthSettings      `mapstructure:"auth"`
	CORS      CORSSettings      `mapstructure:"cors"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
	Realtime  RealtimeSettings  `mapstructure:"realtime"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures Redis connection and the unread indicator keys.
type RedisSettings struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	DB           int    `mapstructure:"db"`
	Password     string `mapstructure:"password"`
	TLSEnabled   bool   `mapstructure:"tls_enabled"`
	UnreadPrefix string `mapstructure:"unread_prefix"`
}

// KafkaSettings configures the interaction change stream.
type KafkaSettings struct {
	Brokers       []string `mapstructure:"brokers"`
	TopicPrefix   string   `mapstructure:"topic_prefix"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
	Async         bool     `mapstructure:"async"`
}

// AuthSettings configures access token verification and cookie lifetimes.
type AuthSettings struct {
	JWTSecret        string        `mapstructure:"jwt_secret"`
	AccessCookieTTL  time.Duration `mapstructure:"access_cookie_ttl"`
	RefreshCookieTTL time.Duration `mapstructure:"refresh_cookie_ttl"`
	CookieDomain     string        `mapstructure:"cookie_domain"`
	CookieSecure     bool          `mapstructure:"cookie_secure"`
}

type CORSSettings struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type TelemetrySettings struct {
	MetricsNamespace string `mapstructure:"metrics_namespace"`
}

// RateLimitSettings bounds how fast a single user may flip interaction toggles.
type RateLimitSettings struct {
	ToggleMaxAttempts int           `mapstructure:"toggle_max_attempts"`
	WindowDuration    time.Duration `mapstructure:"window_duration"`
}

// RealtimeSettings tunes the websocket notification hub.
type RealtimeSettings struct {
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	SendBufferSize int           `mapstructure:"send_buffer_size"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("FEED")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.unread_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.consumer_group",
		"kafka.async",
		"auth.jwt_secret",
		"auth.access_cookie_ttl",
		"auth.refresh_cookie_ttl",
		"auth.cookie_domain",
		"auth.cookie_secure",
		"cors.allowed_origins",
		"telemetry.metrics_namespace",
		"realtime.write_timeout",
		"realtime.ping_interval",
		"realtime.send_buffer_size",
		"rate_limit.toggle_max_attempts",
		"rate_limit.window_duration",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "feed-service")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 3000)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "feed")
	v.SetDefault("postgres.password", "feed_password")
	v.SetDefault("postgres.database", "feed")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.unread_prefix", "feed:unread")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic_prefix", "feed")
	v.SetDefault("kafka.consumer_group", "feed-notifications")
	v.SetDefault("kafka.async", true)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_cookie_ttl", "1h")
	v.SetDefault("auth.refresh_cookie_ttl", "720h")
	v.SetDefault("auth.cookie_domain", "")
	v.SetDefault("auth.cookie_secure", false)

	v.SetDefault("cors.allowed_origins", []string{})

	v.SetDefault("telemetry.metrics_namespace", "feed")

	v.SetDefault("realtime.write_timeout", "10s")
	v.SetDefault("realtime.ping_interval", "30s")
	v.SetDefault("realtime.send_buffer_size", 16)

	v.SetDefault("rate_limit.toggle_max_attempts", 60)
	v.SetDefault("rate_limit.window_duration", "1m")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "FEED_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
