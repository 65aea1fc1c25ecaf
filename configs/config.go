package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

// Scheduler holds the publishing pipeline knobs. MaxRetries and RetryBackoff
// drive the linear backoff: attempt n waits n*RetryBackoff.
type Scheduler struct {
	BatchLimit      int
	Lookahead       time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	Concurrency     int
	ValidateTimeout time.Duration
	PublishTimeout  time.Duration
	ActivityTimeout time.Duration
	CronSpec        string
}

type Platforms struct {
	FacebookGraphURL  string
	InstagramGraphURL string
	ZaloOpenAPIURL    string
	TiktokOpenAPIURL  string
	YoutubeAPIURL     string
	RequestsPerSecond int
}

type Config struct {
	PostgresURI        string
	RedisURI           string
	HTTPPort           string
	R2                 R2
	Scheduler          Scheduler
	Platforms          Platforms
	SecretKey          string
	CookieName         string
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", "localhost:6379"),
		HTTPPort:           getEnv("HTTP_PORT", "3000"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		Scheduler: Scheduler{
			BatchLimit:      getEnvAsInt("SCHEDULER_BATCH_LIMIT", 50),
			Lookahead:       getEnvAsDuration("SCHEDULER_LOOKAHEAD", 5*time.Minute),
			MaxRetries:      getEnvAsInt("SCHEDULER_MAX_RETRIES", 3),
			RetryBackoff:    getEnvAsDuration("SCHEDULER_RETRY_BACKOFF", 30*time.Minute),
			Concurrency:     getEnvAsInt("SCHEDULER_CONCURRENCY", 1),
			ValidateTimeout: getEnvAsDuration("SCHEDULER_VALIDATE_TIMEOUT", 30*time.Second),
			PublishTimeout:  getEnvAsDuration("SCHEDULER_PUBLISH_TIMEOUT", 2*time.Minute),
			ActivityTimeout: getEnvAsDuration("SCHEDULER_ACTIVITY_TIMEOUT", 5*time.Second),
			CronSpec:        getEnv("SCHEDULER_CRON", "@every 00h01m00s"),
		},
		Platforms: Platforms{
			FacebookGraphURL:  getEnv("FACEBOOK_GRAPH_URL", "https://graph.facebook.com/v21.0"),
			InstagramGraphURL: getEnv("INSTAGRAM_GRAPH_URL", "https://graph.instagram.com/v21.0"),
			ZaloOpenAPIURL:    getEnv("ZALO_OPENAPI_URL", "https://openapi.zalo.me/v2.0/article"),
			TiktokOpenAPIURL:  getEnv("TIKTOK_OPENAPI_URL", "https://open.tiktokapis.com/v2"),
			YoutubeAPIURL:     getEnv("YOUTUBE_API_URL", ""),
			RequestsPerSecond: getEnvAsInt("PLATFORM_REQUESTS_PER_SECOND", 5),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
