package utils

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Stripe   StripeConfig
	Mail     MailConfig
	NATS     NATSConfig
	Wizard   WizardConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	Name       string
	Port       string
	Debug      bool
	LogPath    string
	CORSOrigin []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	QueueDB  int
}

// JWTConfig signs the resume token carried through the sign-in redirect.
type JWTConfig struct {
	Secret        string
	ResumeMinutes int
}

type StripeConfig struct {
	SecretKey string
	Currency  string
}

type MailConfig struct {
	APIKey    string
	FromName  string
	FromEmail string
}

type NATSConfig struct {
	URL string
}

type WizardConfig struct {
	SignInURL            string
	DraftTTLMinutes      int
	SubmitLockSeconds    int
	PendingExpiryMinutes int
	RateLimitPerMinute   int
}

type WorkerConfig struct {
	Concurrency        int
	ExpirySweepMinutes int
}

func (c WizardConfig) DraftTTL() time.Duration {
	return time.Duration(c.DraftTTLMinutes) * time.Minute
}

func (c WizardConfig) SubmitLockTTL() time.Duration {
	return time.Duration(c.SubmitLockSeconds) * time.Second
}

func (c WizardConfig) PendingExpiry() time.Duration {
	return time.Duration(c.PendingExpiryMinutes) * time.Minute
}

func (c JWTConfig) ResumeTTL() time.Duration {
	return time.Duration(c.ResumeMinutes) * time.Minute
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "atlas-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("CORS_ORIGINS", "*")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("JWT_RESUME_MINUTES", 60)
	viper.SetDefault("STRIPE_CURRENCY", "usd")
	viper.SetDefault("MAIL_FROM_NAME", "Atlas Travel")
	viper.SetDefault("WIZARD_SIGNIN_URL", "http://localhost:3000/signin")
	viper.SetDefault("WIZARD_DRAFT_TTL_MINUTES", 1440)
	viper.SetDefault("WIZARD_SUBMIT_LOCK_SECONDS", 60)
	viper.SetDefault("WIZARD_PENDING_EXPIRY_MINUTES", 30)
	viper.SetDefault("WIZARD_RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("WORKER_CONCURRENCY", 10)
	viper.SetDefault("WORKER_EXPIRY_SWEEP_MINUTES", 5)

	viper.AutomaticEnv()

	// .env is optional when the environment carries the values
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	config := &Config{
		App: AppConfig{
			Name:       viper.GetString("APP_NAME"),
			Port:       viper.GetString("PORT"),
			Debug:      viper.GetBool("DEBUG"),
			LogPath:    viper.GetString("LOG_PATH"),
			CORSOrigin: splitList(viper.GetString("CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			QueueDB:  viper.GetInt("REDIS_QUEUE_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			ResumeMinutes: viper.GetInt("JWT_RESUME_MINUTES"),
		},
		Stripe: StripeConfig{
			SecretKey: viper.GetString("STRIPE_SECRET_KEY"),
			Currency:  viper.GetString("STRIPE_CURRENCY"),
		},
		Mail: MailConfig{
			APIKey:    viper.GetString("MAILERSEND_API_KEY"),
			FromName:  viper.GetString("MAIL_FROM_NAME"),
			FromEmail: viper.GetString("MAIL_FROM"),
		},
		NATS: NATSConfig{
			URL: viper.GetString("NATS_URL"),
		},
		Wizard: WizardConfig{
			SignInURL:            viper.GetString("WIZARD_SIGNIN_URL"),
			DraftTTLMinutes:      viper.GetInt("WIZARD_DRAFT_TTL_MINUTES"),
			SubmitLockSeconds:    viper.GetInt("WIZARD_SUBMIT_LOCK_SECONDS"),
			PendingExpiryMinutes: viper.GetInt("WIZARD_PENDING_EXPIRY_MINUTES"),
			RateLimitPerMinute:   viper.GetInt("WIZARD_RATE_LIMIT_PER_MINUTE"),
		},
		Worker: WorkerConfig{
			Concurrency:        viper.GetInt("WORKER_CONCURRENCY"),
			ExpirySweepMinutes: viper.GetInt("WORKER_EXPIRY_SWEEP_MINUTES"),
		},
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return config, nil
}

// splitList reads comma separated env values such as CORS_ORIGINS.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
