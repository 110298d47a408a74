// Package config loads runtime settings from the environment (and an
// optional config file) through viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort     string
	CORSOrigins string
	BodyLimitMB int
	LogLevel    string

	DatabaseDriver string
	DatabaseDSN    string

	JWTSecret string
	JWTTTL    time.Duration

	RabbitMQURL string

	StorageDriver     string
	UploadDir         string
	UploadURLPrefix   string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKey       string
	S3SecretKey       string
	S3UsePathStyle    bool
	S3PublicURL       string
	PhotoMaxDimension int
	PhotoMaxPixels    int
	PhotoJPEGQuality  int

	AdminUsername string
	AdminEmail    string
	AdminPassword string
	AdminPhone    string
	AdminCPF      string
}

// Load reads configuration from environment variables, falling back to
// defaults. A file named by CONFIG_FILE is read first when set.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:           v.GetString("APP_PORT"),
		CORSOrigins:       v.GetString("CORS_ALLOW_ORIGINS"),
		BodyLimitMB:       v.GetInt("BODY_LIMIT_MB"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		DatabaseDriver:    v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTTTL:            v.GetDuration("JWT_TTL"),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		StorageDriver:     v.GetString("STORAGE_DRIVER"),
		UploadDir:         v.GetString("UPLOAD_DIR"),
		UploadURLPrefix:   v.GetString("UPLOAD_URL_PREFIX"),
		S3Bucket:          v.GetString("S3_BUCKET"),
		S3Region:          v.GetString("S3_REGION"),
		S3Endpoint:        v.GetString("S3_ENDPOINT"),
		S3AccessKey:       v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:       v.GetString("S3_SECRET_KEY"),
		S3UsePathStyle:    v.GetBool("S3_USE_PATH_STYLE"),
		S3PublicURL:       v.GetString("S3_PUBLIC_URL"),
		PhotoMaxDimension: v.GetInt("PHOTO_MAX_DIMENSION"),
		PhotoMaxPixels:    v.GetInt("PHOTO_MAX_PIXELS"),
		PhotoJPEGQuality:  v.GetInt("PHOTO_JPEG_QUALITY"),
		AdminUsername:     v.GetString("ADMIN_USERNAME"),
		AdminEmail:        v.GetString("ADMIN_EMAIL"),
		AdminPassword:     v.GetString("ADMIN_PASSWORD"),
		AdminPhone:        v.GetString("ADMIN_PHONE"),
		AdminCPF:          v.GetString("ADMIN_CPF"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres, sqlite or memory, got %q", c.DatabaseDriver)
	}
	switch c.StorageDriver {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be local or s3, got %q", c.StorageDriver)
	}
	if c.PhotoMaxPixels <= 0 {
		return fmt.Errorf("PHOTO_MAX_PIXELS must be positive, got %d", c.PhotoMaxPixels)
	}
	if c.PhotoJPEGQuality < 1 || c.PhotoJPEGQuality > 100 {
		return fmt.Errorf("PHOTO_JPEG_QUALITY must be between 1 and 100, got %d", c.PhotoJPEGQuality)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("BODY_LIMIT_MB", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=denuncias port=5432 sslmode=disable")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("UPLOAD_URL_PREFIX", "/uploads")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("PHOTO_MAX_DIMENSION", 1280)
	v.SetDefault("PHOTO_MAX_PIXELS", 40_000_000)
	v.SetDefault("PHOTO_JPEG_QUALITY", 80)
	v.SetDefault("ADMIN_USERNAME", "admin")
}
