package main

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Environment    string   `mapstructure:"ENVIRONMENT"`
	Version        string   `mapstructure:"VERSION"`
	TrustedOrigins []string `mapstructure:"TRUSTED_ORIGINS"`
	TLSCertFile    string   `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile     string   `mapstructure:"TLS_KEY_FILE"`

	BackendDriver        string `mapstructure:"BACKEND_DRIVER"`
	AppwriteEndpoint     string `mapstructure:"APPWRITE_ENDPOINT"`
	AppwriteProjectID    string `mapstructure:"APPWRITE_PROJECT_ID"`
	AppwriteAPIKey       string `mapstructure:"APPWRITE_API_KEY"`
	AppwriteDatabaseID   string `mapstructure:"APPWRITE_DATABASE_ID"`
	AppwriteCollectionID string `mapstructure:"APPWRITE_COLLECTION_ID"`
	AppwriteBucketID     string `mapstructure:"APPWRITE_BUCKET_ID"`

	StorageDriver      string `mapstructure:"STORAGE_DRIVER"`
	AWSRegion          string `mapstructure:"AWS_REGION"`
	AWSAccessKeyID     string `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `mapstructure:"AWS_SECRET_ACCESS_KEY"`
	S3Endpoint         string `mapstructure:"S3_ENDPOINT"`
	S3Bucket           string `mapstructure:"S3_BUCKET"`

	DBHost     string `mapstructure:"POSTGRES_HOST"`
	DBPort     string `mapstructure:"POSTGRES_PORT"`
	DBUser     string `mapstructure:"POSTGRES_USER"`
	DBPassword string `mapstructure:"POSTGRES_PASSWORD"`
	DBName     string `mapstructure:"POSTGRES_DB"`

	MailHost     string `mapstructure:"MAIL_HOST"`
	MailPort     int    `mapstructure:"MAIL_PORT"`
	MailUser     string `mapstructure:"MAIL_USER"`
	MailPassword string `mapstructure:"MAIL_PASSWORD"`
	MailSender   string `mapstructure:"MAIL_SENDER"`

	MQHost     string `mapstructure:"RABBITMQ_HOST"`
	MQPort     string `mapstructure:"RABBITMQ_PORT"`
	MQUser     string `mapstructure:"RABBITMQ_USER"`
	MQPassword string `mapstructure:"RABBITMQ_PASSWORD"`

	CleanupSchedule string        `mapstructure:"CLEANUP_SCHEDULE"`
	CleanupGrace    time.Duration `mapstructure:"CLEANUP_GRACE"`
	MaxUploadBytes  int64         `mapstructure:"MAX_UPLOAD_BYTES"`
	SessionCacheTTL time.Duration `mapstructure:"SESSION_CACHE_TTL"`

	RateLimitEnabled bool    `mapstructure:"RATE_LIMIT_ENABLED"`
	RateLimitRPS     float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int     `mapstructure:"RATE_LIMIT_BURST"`
}

// defaults also registers every key, which AutomaticEnv needs to pick up
// variables that are missing from the file.
var defaults = map[string]any{
	"PORT":                   "8080",
	"ENVIRONMENT":            "development",
	"VERSION":                "1.0.0",
	"TRUSTED_ORIGINS":        "",
	"TLS_CERT_FILE":          "",
	"TLS_KEY_FILE":           "",
	"BACKEND_DRIVER":         "appwrite",
	"APPWRITE_ENDPOINT":      "https://cloud.appwrite.io/v1",
	"APPWRITE_PROJECT_ID":    "",
	"APPWRITE_API_KEY":       "",
	"APPWRITE_DATABASE_ID":   "",
	"APPWRITE_COLLECTION_ID": "",
	"APPWRITE_BUCKET_ID":     "",
	"STORAGE_DRIVER":         "appwrite",
	"AWS_REGION":             "us-east-1",
	"AWS_ACCESS_KEY_ID":      "",
	"AWS_SECRET_ACCESS_KEY":  "",
	"S3_ENDPOINT":            "",
	"S3_BUCKET":              "",
	"POSTGRES_HOST":          "localhost",
	"POSTGRES_PORT":          "5432",
	"POSTGRES_USER":          "",
	"POSTGRES_PASSWORD":      "",
	"POSTGRES_DB":            "",
	"MAIL_HOST":              "",
	"MAIL_PORT":              587,
	"MAIL_USER":              "",
	"MAIL_PASSWORD":          "",
	"MAIL_SENDER":            "",
	"RABBITMQ_HOST":          "localhost",
	"RABBITMQ_PORT":          "5672",
	"RABBITMQ_USER":          "guest",
	"RABBITMQ_PASSWORD":      "guest",
	"CLEANUP_SCHEDULE":       "@every 15m",
	"CLEANUP_GRACE":          "10m",
	"MAX_UPLOAD_BYTES":       5 << 20,
	"SESSION_CACHE_TTL":      "1m",
	"RATE_LIMIT_ENABLED":     true,
	"RATE_LIMIT_RPS":         2,
	"RATE_LIMIT_BURST":       4,
}

// loadConfig reads the env file at path. Environment variables take
// precedence, and a missing file leaves only the environment and defaults.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
