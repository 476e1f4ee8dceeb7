package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the server,
// e.g. TODO_DATABASE_DSN.
const EnvPrefix = "TODO"

// parseFileAndEnv overlays values from the config file at path (JSON, YAML
// or TOML, chosen by extension) and then from TODO_* environment
// variables. Keys missing from both sources keep their current values.
// An empty path skips the file.
//
// Durations accept Go duration strings ("15m", "168h") or integer nanoseconds.
func parseFileAndEnv(config *Config, path string) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	setString(v, "endpoint_addr_http", &config.EndpointAddrHTTP)
	setString(v, "database_dsn", &config.DatabaseDSN)
	setString(v, "secret_key", &config.SecretKey)
	setString(v, "issuer", &config.Issuer)
	setString(v, "audience", &config.Audience)
	setString(v, "cache_provider", &config.CacheProvider)
	setString(v, "redis_addr", &config.RedisAddr)
	setString(v, "redis_password", &config.RedisPassword)
	setString(v, "log_format", &config.LogFormat)
	setString(v, "log_level", &config.LogLevel)

	if v.IsSet("access_token_validity_duration") {
		config.AccessTokenValidityDuration = v.GetDuration("access_token_validity_duration")
	}
	if v.IsSet("refresh_token_validity_duration") {
		config.RefreshTokenValidityDuration = v.GetDuration("refresh_token_validity_duration")
	}
	if v.IsSet("cache_ttl") {
		config.CacheTTL = v.GetDuration("cache_ttl")
	}
	if v.IsSet("shutdown_timeout") {
		config.ShutdownTimeout = v.GetDuration("shutdown_timeout")
	}
	if v.IsSet("cache_sliding") {
		config.CacheSliding = v.GetBool("cache_sliding")
	}
	if v.IsSet("cache_capacity") {
		config.CacheCapacity = v.GetInt("cache_capacity")
	}
	if v.IsSet("redis_db") {
		config.RedisDB = v.GetInt("redis_db")
	}

	return nil
}

func setString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}
