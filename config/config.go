package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Session configuration
	SessionTTL time.Duration

	// Queue configuration
	QueuePositionUpdate time.Duration
	DefaultCounters     int
	DefaultServiceTime  string

	// Arrival simulator configuration
	ArrivalInterval    time.Duration
	ArrivalProbability float64
	QueueCap           int

	// Shopkeeper credentials (demo deployment)
	ShopkeeperUsername string
	ShopkeeperPassword string

	// Prediction service
	PredictorURL     string
	PredictorTimeout time.Duration

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Sessions
		SessionTTL: getEnvAsDuration("SESSION_TTL", "12h"),

		// Queue
		QueuePositionUpdate: getEnvAsDuration("QUEUE_POSITION_UPDATE", "5s"),
		DefaultCounters:     getEnvAsInt("DEFAULT_COUNTERS", 2),
		DefaultServiceTime:  getEnv("DEFAULT_SERVICE_TIME", "4.0"),

		// Arrival simulator
		ArrivalInterval:    getEnvAsDuration("ARRIVAL_INTERVAL", "10s"),
		ArrivalProbability: getEnvAsFloat("ARRIVAL_PROBABILITY", 0.3),
		QueueCap:           getEnvAsInt("QUEUE_CAP", 10),

		// Shopkeeper credentials
		ShopkeeperUsername: getEnv("SHOPKEEPER_USERNAME", "admin"),
		ShopkeeperPassword: getEnv("SHOPKEEPER_PASSWORD", "admin123"),

		// Prediction
		PredictorURL:     getEnv("PREDICTOR_URL", "http://localhost:5000"),
		PredictorTimeout: getEnvAsDuration("PREDICTOR_TIMEOUT", "10s"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
