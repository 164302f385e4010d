package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	Port       int
	LogLevel   string
	CORSOrigin string
	DbConfig   DbConfig
	Limits     LimitsConfig
}

// DbConfig holds the fixed, non-credential side of every database call.
// Host, user, password and database always come from the request.
type DbConfig struct {
	Dialect        string
	ProductsTable  string
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
}

// LimitsConfig bounds how many broker connections may be open at once.
type LimitsConfig struct {
	MaxConnections int
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using default config")
	}

	return &Config{
		Port:       getInt("GATEWAY_PORT", 3000),
		LogLevel:   getString("LOG_LEVEL", "info"),
		CORSOrigin: getString("CORS_ORIGIN", "*"),
		DbConfig: DbConfig{
			Dialect:        getString("DB_DIALECT", "postgres"),
			ProductsTable:  getString("PRODUCTS_TABLE", "products"),
			ConnectTimeout: getDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
			QueryTimeout:   getDuration("DB_QUERY_TIMEOUT", 30*time.Second),
		},
		Limits: LimitsConfig{
			MaxConnections: getInt("MAX_CONNECTIONS", 32),
			RedisAddr:      os.Getenv("REDIS_ADDR"),
			RedisPassword:  os.Getenv("REDIS_PASSWORD"),
			RedisDB:        getInt("REDIS_DB", 0),
		},
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		log.Printf("Invalid %s value: %v. Using default %d.", key, raw, def)
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("Invalid %s value: %v. Using default %s.", key, raw, def)
		return def
	}
	return v
}
