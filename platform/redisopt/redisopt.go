// Package redisopt turns REDIS_URL and its TLS override into client options
// shared by the session store and the job queue.
package redisopt

import (
	"crypto/tls"
	"errors"

	"travel_portal_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

// ErrNotConfigured is returned when REDIS_URL is empty.
var ErrNotConfigured = errors.New("redis url not configured")

// Parse parses the configured URL. With the TLS override set, certificate
// verification is disabled, enabling TLS for plain redis:// URLs too.
func Parse(cfg config.SchedulerConfig) (*redis.Options, error) {
	if cfg.GetRedisURL() == "" {
		return nil, ErrNotConfigured
	}
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig == nil {
			opt.TLSConfig = &tls.Config{}
		} else {
			opt.TLSConfig = opt.TLSConfig.Clone()
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return opt, nil
}
