package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	Environment string
	LogLevel    string

	StoreDriver                string
	FirebaseProject            string
	FirebaseServiceAccountPath string
	FirebaseServiceAccountJSON string
	MongoURI                   string
	DBName                     string

	LockDriver     string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	LockTTLSeconds int64

	AuthProvider string
	JWTSecret    string
	JWTExpiry    int64

	DirectoryFile      string
	DefectReviewPolicy string

	RateLimitRPS   float64
	RateLimitBurst int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		StoreDriver:                getEnv("STORE_DRIVER", "memory"),
		FirebaseProject:            getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		FirebaseServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		MongoURI:                   getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:                     getEnv("DB_NAME", "distribution_management_system"),

		LockDriver:     getEnv("LOCK_DRIVER", "local"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        int(getEnvAsInt64("REDIS_DB", 0)),
		LockTTLSeconds: getEnvAsInt64("LOCK_TTL_SECONDS", 10),

		AuthProvider: getEnv("AUTH_PROVIDER", "jwt"),
		JWTSecret:    getEnv("JWT_SECRET", "dms-secret-key"),
		JWTExpiry:    getEnvAsInt64("JWT_EXPIRY", 24*60*60), // 24 hours

		DirectoryFile:      getEnv("DIRECTORY_FILE", "directory.yaml"),
		DefectReviewPolicy: getEnv("DEFECT_REVIEW_POLICY", "one-step"),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: int(getEnvAsInt64("RATE_LIMIT_BURST", 20)),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects driver and policy names the process cannot wire.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "memory", "firestore", "mongo":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.LockDriver {
	case "local", "redis":
	default:
		return fmt.Errorf("unknown LOCK_DRIVER %q", c.LockDriver)
	}
	switch c.AuthProvider {
	case "jwt", "firebase":
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}
	switch c.DefectReviewPolicy {
	case "one-step", "two-step":
	default:
		return fmt.Errorf("unknown DEFECT_REVIEW_POLICY %q", c.DefectReviewPolicy)
	}
	if c.StoreDriver == "firestore" && c.FirebaseProject == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID is required for the firestore store")
	}
	if c.AuthProvider == "firebase" && c.FirebaseProject == "" {
		return fmt.Errorf("FIREBASE_PROJECT_ID is required for firebase auth")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}
