package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOCK_DRIVER", "local")
	t.Setenv("AUTH_PROVIDER", "jwt")
	t.Setenv("DEFECT_REVIEW_POLICY", "one-step")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Positive(t, cfg.RateLimitRPS)
	assert.Positive(t, cfg.JWTExpiry)
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("DEFECT_REVIEW_POLICY", "two-step")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, "two-step", cfg.DefectReviewPolicy)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			StoreDriver:        "memory",
			LockDriver:         "local",
			AuthProvider:       "jwt",
			DefectReviewPolicy: "one-step",
			RateLimitRPS:       1,
			RateLimitBurst:     1,
		}
	}
	require.NoError(t, base().Validate())

	tests := map[string]func(c *Config){
		"unknown store":           func(c *Config) { c.StoreDriver = "sqlite" },
		"unknown lock":            func(c *Config) { c.LockDriver = "etcd" },
		"unknown auth":            func(c *Config) { c.AuthProvider = "basic" },
		"unknown policy":          func(c *Config) { c.DefectReviewPolicy = "three-step" },
		"firestore needs project": func(c *Config) { c.StoreDriver = "firestore" },
		"firebase needs project":  func(c *Config) { c.AuthProvider = "firebase" },
		"zero rate":               func(c *Config) { c.RateLimitRPS = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
