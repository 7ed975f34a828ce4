package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds every process-level setting. It is parsed once at startup and
// passed by reference into constructors; business logic never reads the
// environment directly.
type Config struct {
	ServerPort string `env:"SERVER_PORT" envDefault:"8000"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`
	BodyLimit  string `env:"BODY_LIMIT" envDefault:"16K"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	MongoURI string `env:"MONGODB_URI,required"`
	MongoDB  string `env:"MONGODB_DATABASE" envDefault:"videostream"`

	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET,required"`
	AccessTokenExpiry  time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET,required"`
	RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"240h"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME,required"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY,required"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET,required"`

	UploadTimeout time.Duration `env:"UPLOAD_TIMEOUT" envDefault:"30s"`
	UploadRetries int           `env:"UPLOAD_RETRIES" envDefault:"2"`
	TempDir       string        `env:"TEMP_DIR" envDefault:"./public/temp"`

	RedisURL string `env:"REDIS_URL"`

	SendgridAPIKey string `env:"SENDGRID_API_KEY"`
	MailFrom       string `env:"MAIL_FROM" envDefault:"no-reply@videostream.dev"`

	LoginRatePerMinute int `env:"LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	LoginRateBurst     int `env:"LOGIN_RATE_BURST" envDefault:"5"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads the environment, loading a .env file first when one exists.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("loading .env file: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration from environment: %w", err)
	}
	return &cfg, nil
}
