package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every setting read from the environment at startup.
type Config struct {
	Port        string
	BaseURL     string
	FrontendURL string
	GinMode     string

	DatabaseURL string

	RedisHost     string
	RedisPassword string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	ScyllaHosts         []string
	ScyllaAuditKeyspace string
	ScyllaAuditRole     string
	ScyllaAuditPassword string

	AuthURL     string
	AuthAnonKey string
	JWTSecret   string

	SessionSecret      string
	GoogleClientID     string
	GoogleClientSecret string

	StripeSecretKey     string
	StripeWebhookSecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	StoreSettingsPath string
	CORSOrigins       []string
}

// Load reads .env when present, then builds the Config from the process environment.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	} else {
		log.Println("✅ .env file loaded")
	}
	return FromEnv()
}

// FromEnv builds the Config without touching the filesystem.
func FromEnv() Config {
	return Config{
		Port:        getEnv("PORT", "8080"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL: strings.TrimRight(os.Getenv("FRONTEND_URL"), "/"),
		GinMode:     getEnv("GIN_MODE", "debug"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisHost:     getEnv("REDIS_HOST", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "storefront-images"),
		MinioUseSSL:    getBool("MINIO_USE_SSL"),

		ScyllaHosts:         splitList(os.Getenv("SCYLLA_HOSTS")),
		ScyllaAuditKeyspace: os.Getenv("SCYLLA_AUDIT_KEYSPACE"),
		ScyllaAuditRole:     os.Getenv("SCYLLA_AUDIT_ROLE"),
		ScyllaAuditPassword: os.Getenv("SCYLLA_AUDIT_PASSWORD"),

		AuthURL:     strings.TrimRight(os.Getenv("AUTH_URL"), "/"),
		AuthAnonKey: os.Getenv("AUTH_ANON_KEY"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		SessionSecret:      os.Getenv("SESSION_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("MAIL_FROM", "noreply@localhost"),

		StoreSettingsPath: getEnv("STORE_SETTINGS", "store.yaml"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}
}

// MailEnabled reports whether enough SMTP settings exist to send mail.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUsername != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
