package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	JWTPublicKeyPath string

	FCM FCMConfig

	DispatchWorkers int
	DispatchTimeout time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// FCMConfig is the service-account credential block for the push backend.
// Injected explicitly into the token source; core logic never reads env.
type FCMConfig struct {
	ProjectID   string
	ClientEmail string
	PrivateKey  string // PEM; FCM_PRIVATE_KEY carries literal \n sequences
	TokenURI    string
	Scope       string
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	Devices       string
	Notifications string
	Events        string
	Budgets       string
	Approvals     string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Devices:       getEnv("DYNAMO_TABLE_DEVICES", "devices"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			Events:        getEnv("DYNAMO_TABLE_EVENTS", "events"),
			Budgets:       getEnv("DYNAMO_TABLE_BUDGETS", "budgets"),
			Approvals:     getEnv("DYNAMO_TABLE_APPROVALS", "approvals"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "orghub-receipts"),

		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),

		FCM: FCMConfig{
			ProjectID:   getEnv("FCM_PROJECT_ID", ""),
			ClientEmail: getEnv("FCM_CLIENT_EMAIL", ""),
			PrivateKey:  unescapePEM(getEnv("FCM_PRIVATE_KEY", "")),
			TokenURI:    getEnv("FCM_TOKEN_URI", "https://oauth2.googleapis.com/token"),
			Scope:       getEnv("FCM_SCOPE", "https://www.googleapis.com/auth/firebase.messaging"),
		},

		DispatchWorkers: getEnvInt("DISPATCH_WORKERS", 16),
		DispatchTimeout: time.Duration(getEnvInt("DISPATCH_TIMEOUT_SECONDS", 30)) * time.Second,

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// unescapePEM converts the literal \n sequences env files carry into real
// newlines so the key parses as PEM.
func unescapePEM(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
