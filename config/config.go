package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	Database   DatabaseConfig
	AccountAPI AccountAPIConfig
	Session    SessionConfig
	Redis      RedisConfig
	Events     EventsConfig
	RabbitMQ   RabbitMQConfig
	PubSub     PubSubConfig
	Log        LogConfig

	RecommendationsAPIURL string
	// AuthRateLimit is the number of POST /login and /register requests allowed
	// per client IP per minute. Zero disables the limiter.
	AuthRateLimit int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// AccountAPIConfig locates the external user-account service.
type AccountAPIConfig struct {
	UsersURL      string
	LoginURL      string
	GenreUsersURL string
}

type SessionConfig struct {
	// Backend is "memory" or "redis".
	Backend      string
	TTL          time.Duration
	CookieSecure bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type EventsConfig struct {
	// Backend is "none", "rabbitmq" or "pubsub".
	Backend string
	Channel string
}

type RabbitMQConfig struct {
	URL          string
	QueueDurable bool
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
}

type LogConfig struct {
	Level  string
	Format string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "moviemania"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "moviemania"),
		UseSSL:   getEnvBool("DB_SSL", false),
	}

	accountConfig := AccountAPIConfig{
		UsersURL:      trimURL(getEnv("USERS_API_URL", "http://users_api:8000/api/v1/users")),
		LoginURL:      trimURL(getEnv("USERS_API_LOGIN_URL", "http://users_api:8000/api/v1/login")),
		GenreUsersURL: trimURL(getEnv("GENREUSERS_API_URL", "http://users_api:8000/api/v1/genreusers")),
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database:   dbConfig,
		AccountAPI: accountConfig,
		Session: SessionConfig{
			Backend:      strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
			TTL:          getEnvSeconds("SESSION_TTL", time.Hour),
			CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", true),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Events: EventsConfig{
			Backend: strings.ToLower(getEnv("EVENTS_BACKEND", "none")),
			Channel: getEnv("EVENTS_CHANNEL", "movie-ratings"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:          getEnv("RABBITMQ_URL", ""),
			QueueDurable: getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
		},
		PubSub: PubSubConfig{
			ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RecommendationsAPIURL: getEnv("RECOMMENDATIONS_API_URL", "http://recommendations_api:8000"),
		AuthRateLimit:         getEnvInt("AUTH_RATE_LIMIT", 20),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(valueStr)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// getEnvSeconds reads a whole number of seconds.
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	seconds := getEnvInt(key, -1)
	if seconds <= 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}

func trimURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}
