package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	StoreDriver     string
	MongoURI        string
	DBName          string
	UseTransactions bool

	JWTSecret      string
	AccessTokenTTL time.Duration

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	TopPicksCacheTTL time.Duration

	ImageStorage     string
	UploadDir        string
	S3Region         string
	S3Bucket         string
	S3Endpoint       string
	S3PublicURL      string
	CloudinaryURL    string
	CloudinaryFolder string

	TemplatesDir string
	PublicDir    string
}

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"

	ImageLocal      = "local"
	ImageS3         = "s3"
	ImageCloudinary = "cloudinary"
)

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = FromEnv()
}

// FromEnv builds a Config from the current process environment without touching .env.
func FromEnv() Config {
	return Config{
		Port:     getEnvOrDefault("PORT", "3000"),
		GinMode:  getEnvOrDefault("GIN_MODE", "release"),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),

		StoreDriver:     strings.ToLower(getEnvOrDefault("STORE_DRIVER", StoreMongo)),
		MongoURI:        getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		DBName:          getEnvOrDefault("DB_NAME", "shopguide"),
		UseTransactions: getBoolEnv("MONGO_TRANSACTIONS", true),

		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", 24, time.Hour),

		RedisAddr:        getEnvOrDefault("REDIS_ADDR", ""),
		RedisPassword:    getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:          getIntEnv("REDIS_DB", 0),
		TopPicksCacheTTL: getDurationEnv("TOP_PICKS_CACHE_TTL", 60, time.Second),

		ImageStorage:     strings.ToLower(getEnvOrDefault("IMAGE_STORAGE", ImageLocal)),
		UploadDir:        getEnvOrDefault("UPLOAD_DIR", "./uploads"),
		S3Region:         getEnvOrDefault("AWS_REGION", "us-east-1"),
		S3Bucket:         getEnvOrDefault("AWS_S3_BUCKET", "shopguide-images"),
		S3Endpoint:       getEnvOrDefault("AWS_S3_ENDPOINT", ""),
		S3PublicURL:      getEnvOrDefault("AWS_S3_PUBLIC_URL", ""),
		CloudinaryURL:    getEnvOrDefault("CLOUDINARY_URL", ""),
		CloudinaryFolder: getEnvOrDefault("CLOUDINARY_FOLDER", "shopguide"),

		TemplatesDir: getEnvOrDefault("TEMPLATES_DIR", "templates"),
		PublicDir:    getEnvOrDefault("PUBLIC_DIR", "public"),
	}
}

// Validate reports the first required value missing for the selected drivers.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("ENV JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("ENV MONGO_URI is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.ImageStorage {
	case ImageLocal:
		if c.UploadDir == "" {
			return fmt.Errorf("ENV UPLOAD_DIR is required")
		}
	case ImageS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("ENV AWS_S3_BUCKET is required")
		}
	case ImageCloudinary:
		if c.CloudinaryURL == "" {
			return fmt.Errorf("ENV CLOUDINARY_URL is required")
		}
	default:
		return fmt.Errorf("unknown IMAGE_STORAGE %q", c.ImageStorage)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
