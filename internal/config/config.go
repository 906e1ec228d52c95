package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	defaultCacheTTL = 15 * time.Minute
)

type (
	Container struct {
		App    *App
		Token  *Token
		DB     *DB
		HTTP   *HTTP
		Redis  *Redis
		Images *Images
	}

	App struct {
		Name string
		Env  string
	}

	Token struct {
		Secret   string
		Duration string
	}

	DB struct {
		Driver   string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	HTTP struct {
		Env            string
		Port           string
		AllowedOrigins string
		URL            string
	}

	Redis struct {
		Address  string
		Password string
		CacheTTL time.Duration
	}

	Images struct {
		Endpoint  string
		Region    string
		Bucket    string
		AccessKey string
		SecretKey string
		PublicURL string
	}
)

func New() (*Container, error) {
	if os.Getenv("APP_ENV") != "production" {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	app := &App{
		Name: os.Getenv("APP_NAME"),
		Env:  os.Getenv("APP_ENV"),
	}

	token := &Token{
		Secret:   os.Getenv("TOKEN_SECRET"),
		Duration: os.Getenv("TOKEN_DURATION"),
	}
	if token.Secret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is required")
	}

	db := &DB{
		Driver:   getEnv("DB_DRIVER", DriverPostgres),
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
	}
	if db.Driver != DriverPostgres && db.Driver != DriverMemory {
		return nil, fmt.Errorf("unknown DB_DRIVER %q", db.Driver)
	}

	http := &HTTP{
		Port:           getEnv("HTTP_PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		URL:            os.Getenv("HTTP_URL"),
		Env:            os.Getenv("APP_ENV"),
	}

	ttl := defaultCacheTTL
	if raw := os.Getenv("CACHE_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
		}
		ttl = parsed
	}

	redis := &Redis{
		Address:  os.Getenv("REDIS_ADDRESS"),
		Password: os.Getenv("REDIS_PASSWORD"),
		CacheTTL: ttl,
	}

	images := &Images{
		Endpoint:  os.Getenv("IMAGES_ENDPOINT"),
		Region:    getEnv("IMAGES_REGION", "us-east-1"),
		Bucket:    os.Getenv("IMAGES_BUCKET"),
		AccessKey: os.Getenv("IMAGES_ACCESS_KEY"),
		SecretKey: os.Getenv("IMAGES_SECRET_KEY"),
		PublicURL: os.Getenv("IMAGES_PUBLIC_URL"),
	}

	return &Container{
		App:    app,
		Token:  token,
		DB:     db,
		HTTP:   http,
		Redis:  redis,
		Images: images,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
