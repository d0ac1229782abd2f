package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Log struct {
		Level  string
		Format string
	}
	Database struct {
		Driver   string
		Path     string
		MongoURI string
		MongoDB  string
	}
	Auth struct {
		JWTSecret       string
		TokenTTLMinutes int
	}
	Verification struct {
		ClientURL     string
		TTL           time.Duration
		ExposeToken   bool
		SweepInterval time.Duration
		RateLimit     int
		RateWindow    time.Duration
	}
	Mail struct {
		Provider      string
		From          string
		FromName      string
		MailerSendKey string
		SMTPHost      string
		SMTPPort      int
		SMTPUser      string
		SMTPPass      string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Events struct {
		Driver       string
		NATSURL      string
		KafkaBrokers []string
		KafkaTopic   string
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	// .env never overrides variables already present in the environment
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("BOUNTY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/bounty.db")
	v.SetDefault("database.mongouri", "mongodb://localhost:27017")
	v.SetDefault("database.mongodb", "bounty")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttlminutes", 60)
	v.SetDefault("verification.clienturl", "http://localhost:3000")
	v.SetDefault("verification.ttl", 24*time.Hour)
	v.SetDefault("verification.exposetoken", false)
	v.SetDefault("verification.sweepinterval", time.Hour)
	v.SetDefault("verification.ratelimit", 5)
	v.SetDefault("verification.ratewindow", time.Hour)
	v.SetDefault("mail.provider", "log")
	v.SetDefault("mail.from", "noreply@bounty.local")
	v.SetDefault("mail.fromname", "Bounty Board")
	v.SetDefault("mail.mailersendkey", "")
	v.SetDefault("mail.smtphost", "localhost")
	v.SetDefault("mail.smtpport", 1025)
	v.SetDefault("mail.smtpuser", "")
	v.SetDefault("mail.smtppass", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("events.driver", "")
	v.SetDefault("events.natsurl", "nats://localhost:4222")
	v.SetDefault("events.kafkabrokers", []string{"localhost:9092"})
	v.SetDefault("events.kafkatopic", "bounty-events")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "submissions")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Mail.Provider = strings.ToLower(strings.TrimSpace(cfg.Mail.Provider))
	cfg.Events.Driver = strings.ToLower(strings.TrimSpace(cfg.Events.Driver))

	return cfg, nil
}
