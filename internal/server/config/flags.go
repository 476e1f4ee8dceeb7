package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/todolist/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-d string     database DSN
//	-s string     JWT HMAC secret key
//	-t duration   access token validity
//	-r duration   refresh token validity
//	-cache string cache provider: none, memory, redis
//	-ttl duration cache entry lifetime
//	-redis string redis address
//	-l string     log level
//
// args is filtered with flagx.FilterArgs first so flags owned by other
// components (e.g. -c) do not break parsing.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-r", "-cache", "-ttl", "-redis", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.AccessTokenValidityDuration, "t", config.AccessTokenValidityDuration, "access token validity")
	fs.DurationVar(&config.RefreshTokenValidityDuration, "r", config.RefreshTokenValidityDuration, "refresh token validity")
	fs.StringVar(&config.CacheProvider, "cache", config.CacheProvider, "cache provider (none, memory, redis)")
	fs.DurationVar(&config.CacheTTL, "ttl", config.CacheTTL, "cache entry ttl")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}
