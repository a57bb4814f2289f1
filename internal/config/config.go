package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Mail      MailConfig
	Instagram InstagramConfig
	Storage   StorageConfig
	Bot       BotConfig
	Ranking   RankingConfig
	LogLevel  string
}

type ServerConfig struct {
	Port    int
	Env     string
	GinMode string
}

type DatabaseConfig struct {
	DSN string
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
	CookieSecure  bool
}

type MailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

type InstagramConfig struct {
	APIBase     string
	AccessToken string
	AccountID   string
	MediaLimit  int
	Timeout     time.Duration
	RateLimit   float64
	RateBurst   int
}

type StorageConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration
}

type BotConfig struct {
	Token      string
	AdminChats []int64
}

type RankingConfig struct {
	MinEvaluations int
	DefaultLimit   int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "host=localhost user=santa password=santa dbname=santa3d port=5432 sslmode=disable")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("EMAIL_FROM_NAME", "Santa 3D Contest")
	v.SetDefault("INSTAGRAM_API_BASE", "https://graph.facebook.com/v19.0")
	v.SetDefault("INSTAGRAM_MEDIA_LIMIT", 50)
	v.SetDefault("INSTAGRAM_TIMEOUT", "15s")
	v.SetDefault("INSTAGRAM_RATE_LIMIT", 2)
	v.SetDefault("INSTAGRAM_RATE_BURST", 1)
	v.SetDefault("S3_REGION", "eu-west-3")
	v.SetDefault("S3_PRESIGN_TTL", "30m")
	v.SetDefault("RANKING_MIN_EVALUATIONS", 3)
	v.SetDefault("RANKING_DEFAULT_LIMIT", 50)
}

// Load reads .env when present and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		Server: ServerConfig{
			Port:    v.GetInt("PORT"),
			Env:     v.GetString("APP_ENV"),
			GinMode: v.GetString("GIN_MODE"),
		},
		Database: DatabaseConfig{
			DSN: v.GetString("DATABASE_URL"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("JWT_SECRET"),
			TokenTTL:      v.GetDuration("JWT_TTL"),
			AdminEmail:    v.GetString("ADMIN_EMAIL"),
			AdminPassword: v.GetString("ADMIN_PASSWORD"),
			CookieSecure:  v.GetBool("COOKIE_SECURE"),
		},
		Mail: MailConfig{
			SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
			FromEmail:      v.GetString("EMAIL_FROM"),
			FromName:       v.GetString("EMAIL_FROM_NAME"),
		},
		Instagram: InstagramConfig{
			APIBase:     v.GetString("INSTAGRAM_API_BASE"),
			AccessToken: v.GetString("INSTAGRAM_ACCESS_TOKEN"),
			AccountID:   v.GetString("INSTAGRAM_ACCOUNT_ID"),
			MediaLimit:  v.GetInt("INSTAGRAM_MEDIA_LIMIT"),
			Timeout:     v.GetDuration("INSTAGRAM_TIMEOUT"),
			RateLimit:   v.GetFloat64("INSTAGRAM_RATE_LIMIT"),
			RateBurst:   v.GetInt("INSTAGRAM_RATE_BURST"),
		},
		Storage: StorageConfig{
			Bucket:          v.GetString("S3_BUCKET"),
			Region:          v.GetString("S3_REGION"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			PresignTTL:      v.GetDuration("S3_PRESIGN_TTL"),
		},
		Bot: BotConfig{
			Token:      v.GetString("TELEGRAM_BOT_TOKEN"),
			AdminChats: parseChatIDs(v.GetString("TELEGRAM_ADMIN_CHATS")),
		},
		Ranking: RankingConfig{
			MinEvaluations: v.GetInt("RANKING_MIN_EVALUATIONS"),
			DefaultLimit:   v.GetInt("RANKING_DEFAULT_LIMIT"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
}

func parseChatIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
