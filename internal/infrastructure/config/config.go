package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth    AuthConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Storage StorageConfig
	Studio  StudioConfig

	SentryDSN string `env:"SENTRY_DSN"`
}

type AuthConfig struct {
	JWTSecret        string        `env:"JWT_SECRET"`
	TokenTTL         time.Duration `env:"JWT_EXPIRES_IN,     default=168h"`
	AllowAdminSignup bool          `env:"ALLOW_ADMIN_SIGNUP, default=false"`
	MaxLoginAttempts int           `env:"LOGIN_MAX_ATTEMPTS, default=5"`
	LoginLockout     time.Duration `env:"LOGIN_LOCKOUT,      default=15m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=rupagen"`
}

// RedisConfig is optional; an empty Addr disables the login limiter.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type StorageConfig struct {
	Driver        string `env:"STORAGE_DRIVER,        default=cloudinary"`
	DefaultFolder string `env:"UPLOAD_DEFAULT_FOLDER, default=users"`
	MaxBytes      int64  `env:"UPLOAD_MAX_BYTES,      default=10485760"`

	CloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `env:"CLOUDINARY_API_KEY"`
	APISecret string `env:"CLOUDINARY_API_SECRET"`

	S3Region string `env:"S3_REGION, default=ap-southeast-1"`
	S3Bucket string `env:"S3_BUCKET"`
}

type StudioConfig struct {
	ChatBaseURL           string        `env:"STUDIO_CHAT_BASE_URL,     default=https://rupagen-llm-service.vercel.app/api/dino/llm"`
	ImageModelURL         string        `env:"STUDIO_IMAGE_MODEL_URL,   default=https://router.huggingface.co/models/bayusetia/rupagen-batik-full"`
	HFToken               string        `env:"HF_API_TOKEN"`
	Timeout               time.Duration `env:"STUDIO_TIMEOUT,           default=60s"`
	GenerateRatePerMinute int           `env:"GENERATE_RATE_PER_MINUTE, default=10"`
}

// IsProduction reports whether ENV selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	switch cfg.Storage.Driver {
	case "cloudinary", "s3":
	default:
		return nil, fmt.Errorf("config: unsupported STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
	return &cfg, nil
}
