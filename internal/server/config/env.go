package config

import (
	"os"
	"strconv"
)

// parseEnv overlays selected Config fields from environment variables.
// Only the values that matter for containerized deployments are exposed
// this way; everything else goes through the JSON file or flags.
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("KF_ENVIRONMENT"); ok {
		config.Environment = v
	}
	if v, ok := os.LookupEnv("KF_RUN_ADDR"); ok {
		config.RunAddr = v
	}
	if v, ok := os.LookupEnv("KF_DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("KF_DATA_DIR"); ok {
		config.DataDir = v
	}
	if v, ok := os.LookupEnv("KF_ADMIN_EMAIL"); ok {
		config.AdminEmail = v
	}
	if v, ok := os.LookupEnv("KF_ADMIN_TOKEN_OVERRIDE"); ok {
		config.AdminTokenOverride = v
	}
	if v, ok := os.LookupEnv("KF_AUTH_BYPASS"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.AuthBypass = b
		}
	}
	if v, ok := os.LookupEnv("KF_SMTP_HOST"); ok {
		config.SMTPHost = v
	}
	if v, ok := os.LookupEnv("KF_SMTP_PORT"); ok {
		if p, err := strconv.Atoi(v); err == nil {
			config.SMTPPort = p
		}
	}
	if v, ok := os.LookupEnv("KF_SMTP_USER"); ok {
		config.SMTPUser = v
	}
	if v, ok := os.LookupEnv("KF_SMTP_PASS"); ok {
		config.SMTPPass = v
	}
	if v, ok := os.LookupEnv("KF_S3_ROOT_USER"); ok {
		config.S3RootUser = v
	}
	if v, ok := os.LookupEnv("KF_S3_ROOT_PASSWORD"); ok {
		config.S3RootPassword = v
	}
}
