// Package config loads service and CLI configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
)

// EnvPrefix prefixes every environment override, e.g. KRATU_SERVER_PORT.
const EnvPrefix = "KRATU"

// Config holds application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Data      DataConfig      `mapstructure:"data"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
	Admin     AdminConfig     `mapstructure:"admin"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DataConfig locates the snapshot database and the dataset served by default.
// An empty Dataset serves the embedded spaceships; an empty Manifest uses the
// built-in signal definitions.
type DataConfig struct {
	Dir      string `mapstructure:"dir"`
	Dataset  string `mapstructure:"dataset"`
	Manifest string `mapstructure:"manifest"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RedisConfig holds redis settings. An empty Addr disables redis.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type RateLimitConfig struct {
	EventsPerMinute int `mapstructure:"events_per_minute"`
	Burst           int `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// AdminConfig signs admin tokens. An empty Secret leaves the /admin routes
// unmounted.
type AdminConfig struct {
	Secret string `mapstructure:"secret"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.dataset", "")
	v.SetDefault("data.manifest", "")
	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("ratelimit.events_per_minute", 120)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("admin.secret", "")
}

// Load reads configuration from the file named by KRATU_CONFIG, if any, and
// the environment. Env var overrides use prefix KRATU_.
func Load() (Config, error) {
	return LoadFile(os.Getenv(EnvPrefix + "_CONFIG"))
}

// LoadFile is Load with an explicit config file path. An empty path reads
// only defaults and the environment.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, apperrors.NewConfigurationError(fmt.Sprintf("read config %s", path), err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, apperrors.NewConfigurationError("unmarshal config", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return apperrors.NewConfigurationError(fmt.Sprintf("server.mode must be debug, release or test, got %q", c.Server.Mode), nil)
	}
	if c.Server.Port == "" {
		return apperrors.NewConfigurationError("server.port is required", nil)
	}
	if c.Cache.TTL <= 0 {
		return apperrors.NewConfigurationError("cache.ttl must be positive", nil)
	}
	if c.RateLimit.EventsPerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return apperrors.NewConfigurationError("ratelimit.events_per_minute and ratelimit.burst must be positive", nil)
	}
	if c.Redis.Addr != "" && (c.Redis.PoolSize <= 0 || c.Redis.DialTimeout <= 0) {
		return apperrors.NewConfigurationError("redis.pool_size and redis.dial_timeout must be positive", nil)
	}
	return nil
}
