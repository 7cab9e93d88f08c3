package utils

import (
	"errors"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Email     EmailConfig
	Token     TokenConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
}

type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Debug   bool
	LogPath string
	// TrustProxy honours X-Forwarded-For / X-Real-IP. Enable only behind a
	// reverse proxy that overwrites those headers.
	TrustProxy bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
}

type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// EmailConfig is built once at startup and never mutated afterwards.
type EmailConfig struct {
	Host     string
	Port     int
	Secure   bool
	User     string
	Password string

	FromName    string
	FromAddress string

	FrontendURL  string
	CompanyName  string
	SupportEmail string
	LogoURL      string

	MaxRetries int
	RetryDelay time.Duration
	DailyLimit int

	Preview    bool
	SaveToFile bool
	Log        bool
	OutputDir  string
}

// ReverifyPolicy decides what happens when an already consumed
// verification token is presented again.
type ReverifyPolicy string

const (
	ReverifyConfirm ReverifyPolicy = "confirm"
	ReverifyReject  ReverifyPolicy = "reject"
)

type TokenConfig struct {
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	ReverifyPolicy  ReverifyPolicy
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

const (
	envDevelopment   = "development"
	defaultJWTSecret = "change-me"
)

var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set to a non-default value outside development")

// ValidateForServe rejects settings that are only acceptable on a developer
// machine.
func (c *Config) ValidateForServe() error {
	if c.App.Env != envDevelopment && (c.JWT.Secret == "" || c.JWT.Secret == defaultJWTSecret) {
		return ErrInsecureJWTSecret
	}
	return nil
}

func LoadConfig() (*Config, error) {
	return LoadConfigFrom(".env")
}

// LoadConfigFrom reads path (if it exists) and the process environment.
// Environment values win over the file.
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:       v.GetString("APP_NAME"),
			Env:        v.GetString("APP_ENV"),
			Port:       v.GetString("PORT"),
			Debug:      v.GetBool("DEBUG"),
			LogPath:    v.GetString("LOG_PATH"),
			TrustProxy: v.GetBool("TRUST_PROXY"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASS"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("JWT_SECRET"),
			AccessTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTTL: v.GetDuration("JWT_REFRESH_TTL"),
		},
		Email: EmailConfig{
			Host:         v.GetString("SMTP_HOST"),
			Port:         v.GetInt("SMTP_PORT"),
			Secure:       v.GetBool("SMTP_SECURE"),
			User:         v.GetString("SMTP_USER"),
			Password:     v.GetString("SMTP_PASS"),
			FromName:     v.GetString("EMAIL_FROM_NAME"),
			FromAddress:  v.GetString("EMAIL_FROM_ADDRESS"),
			FrontendURL:  strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
			CompanyName:  v.GetString("COMPANY_NAME"),
			SupportEmail: v.GetString("SUPPORT_EMAIL"),
			LogoURL:      v.GetString("COMPANY_LOGO_URL"),
			MaxRetries:   v.GetInt("EMAIL_MAX_RETRIES"),
			RetryDelay:   v.GetDuration("EMAIL_RETRY_DELAY"),
			DailyLimit:   v.GetInt("EMAIL_DAILY_LIMIT"),
			Preview:      v.GetBool("EMAIL_PREVIEW"),
			SaveToFile:   v.GetBool("EMAIL_SAVE_TO_FILE"),
			Log:          v.GetBool("EMAIL_LOG"),
			OutputDir:    v.GetString("EMAIL_OUTPUT_DIR"),
		},
		Token: TokenConfig{
			VerificationTTL: v.GetDuration("TOKEN_VERIFICATION_TTL"),
			ResetTTL:        v.GetDuration("TOKEN_RESET_TTL"),
			ReverifyPolicy:  ReverifyPolicy(strings.ToLower(v.GetString("TOKEN_REVERIFY_POLICY"))),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers:    splitCSV(v.GetString("KAFKA_BROKERS")),
			AuditTopic: v.GetString("KAFKA_AUDIT_TOPIC"),
		},
	}

	if config.Token.ReverifyPolicy != ReverifyReject {
		config.Token.ReverifyPolicy = ReverifyConfirm
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "feedback-portal")
	v.SetDefault("APP_ENV", envDevelopment)
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("TRUST_PROXY", false)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "feedback")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)

	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h")

	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_SECURE", false)
	v.SetDefault("EMAIL_FROM_NAME", "Feedback Portal")
	v.SetDefault("EMAIL_FROM_ADDRESS", "noreply@feedback.local")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("COMPANY_NAME", "Feedback Portal")
	v.SetDefault("SUPPORT_EMAIL", "support@feedback.local")
	v.SetDefault("COMPANY_LOGO_URL", "")
	v.SetDefault("EMAIL_MAX_RETRIES", 3)
	v.SetDefault("EMAIL_RETRY_DELAY", "5s")
	v.SetDefault("EMAIL_DAILY_LIMIT", 1000)
	v.SetDefault("EMAIL_PREVIEW", false)
	v.SetDefault("EMAIL_SAVE_TO_FILE", false)
	v.SetDefault("EMAIL_LOG", true)
	v.SetDefault("EMAIL_OUTPUT_DIR", "emails/")

	v.SetDefault("TOKEN_VERIFICATION_TTL", "24h")
	v.SetDefault("TOKEN_RESET_TTL", "1h")
	v.SetDefault("TOKEN_REVERIFY_POLICY", string(ReverifyConfirm))

	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_AUDIT_TOPIC", "email-deliveries")
}

func splitCSV(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ConnString builds the postgres URL used by pgxpool.
func (d DatabaseConfig) ConnString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
