package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	AppEnv     string `mapstructure:"APP_ENV"`
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`
	TLS        struct {
		Enable   bool   `mapstructure:"ENABLE"`
		CertPath string `mapstructure:"CERT_PATH"`
		KeyPath  string `mapstructure:"KEY_PATH"`
	} `mapstructure:"TLS"`
	Otel struct {
		Enable   bool   `mapstructure:"ENABLE"`
		Endpoint string `mapstructure:"ENDPOINT"`
		Protocol string `mapstructure:"PROTOCOL"`
		Insecure bool   `mapstructure:"INSECURE"`
	} `mapstructure:"OTEL"`
	Server struct {
		Addr         string        `mapstructure:"ADDR"`
		ReadTimeout  time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout time.Duration `mapstructure:"WRITE_TIMEOUT"`
		IdleTimeout  time.Duration `mapstructure:"IDLE_TIMEOUT"`
	} `mapstructure:"HTTP_SERVER"`
	Database struct {
		Type           string `mapstructure:"TYPE"`
		Host           string `mapstructure:"HOST"`
		Port           string `mapstructure:"PORT"`
		DBNAME         string `mapstructure:"DBNAME"`
		User           string `mapstructure:"USER"`
		Password       string `mapstructure:"PASSWORD"`
		SSLMode        string `mapstructure:"SSLMODE"`
		Timezone       string `mapstructure:"TIMEZONE"`
		ConnectionPool struct {
			MaxIdleConn     int           `mapstructure:"MAX_IDLE_CONN"`
			MaxOpenConns    int           `mapstructure:"MAX_OPEN_CONNS"`
			ConnMaxLifetime time.Duration `mapstructure:"CONN_MAX_LIFETIME"`
			ConnMaxIdleTime time.Duration `mapstructure:"CONN_MAX_IDLE_TIME"`
		} `mapstructure:"CONNECTION_POOL"`
		Metrics struct {
			Enable bool   `mapstructure:"ENABLE"`
			Port   uint32 `mapstructure:"PORT"`
		} `mapstructure:"METRICS"`
	} `mapstructure:"DATABASE"`
	Redis struct {
		Addr        string        `mapstructure:"ADDR"`
		Password    string        `mapstructure:"PASSWORD"`
		DB          int           `mapstructure:"DB"`
		PoolSize    int           `mapstructure:"POOL_SIZE"`
		PoolTimeout time.Duration `mapstructure:"POOL_TIMEOUT"`
	} `mapstructure:"REDIS"`
	Minio struct {
		Endpoint   string `mapstructure:"ENDPOINT"`
		AccessKey  string `mapstructure:"ACCESS_KEY"`
		SecretKey  string `mapstructure:"SECRET_KEY"`
		Secure     bool   `mapstructure:"SECURE"`
		BucketName string `mapstructure:"BUCKET_NAME"`
	} `mapstructure:"MINIO"`
	Scheduler struct {
		Enable   bool          `mapstructure:"ENABLE"`
		Spec     string        `mapstructure:"SPEC"`
		Timezone string        `mapstructure:"TIMEZONE"`
		LockTTL  time.Duration `mapstructure:"LOCK_TTL"`
	} `mapstructure:"SCHEDULER"`
	Snowflake struct {
		Node int64 `mapstructure:"NODE"`
	} `mapstructure:"SNOWFLAKE"`
}

// Location resolves the scheduler timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c == nil || c.Scheduler.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		zap.L().Warn("invalid scheduler timezone, using UTC", zap.String("timezone", c.Scheduler.Timezone), zap.Error(err))
		return time.UTC
	}
	return loc
}

var Module = fx.Module("config", fx.Provide(LoadConfig))

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "agencyops")
	v.SetDefault("HTTP_SERVER.ADDR", "8080")
	v.SetDefault("HTTP_SERVER.READ_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_SERVER.WRITE_TIMEOUT", 60*time.Second)
	v.SetDefault("HTTP_SERVER.IDLE_TIMEOUT", 120*time.Second)
	v.SetDefault("DATABASE.TYPE", "sqlite")
	v.SetDefault("DATABASE.DBNAME", "agencyops.db")
	v.SetDefault("DATABASE.SSLMODE", "disable")
	v.SetDefault("DATABASE.TIMEZONE", "UTC")
	v.SetDefault("DATABASE.METRICS.PORT", 9464)
	v.SetDefault("OTEL.ENDPOINT", "localhost:4317")
	v.SetDefault("OTEL.PROTOCOL", "grpc")
	v.SetDefault("OTEL.INSECURE", true)
	v.SetDefault("REDIS.ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS.POOL_SIZE", 10)
	v.SetDefault("REDIS.POOL_TIMEOUT", 4*time.Second)
	v.SetDefault("MINIO.BUCKET_NAME", "agency-outputs")
	v.SetDefault("SCHEDULER.ENABLE", true)
	// second minute hour dom month dow
	v.SetDefault("SCHEDULER.SPEC", "0 5 0 1 * *")
	v.SetDefault("SCHEDULER.TIMEZONE", "UTC")
	v.SetDefault("SCHEDULER.LOCK_TTL", 35*time.Minute)
	v.SetDefault("SNOWFLAKE.NODE", 1)
}

// LoadConfig reads config.yaml from the working directory and lets environment
// variables override any key (DATABASE.HOST -> DATABASE_HOST).
func LoadConfig() (*Config, error) {
	return load(viper.New(), ".")
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		zap.L().Info("config file not found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
