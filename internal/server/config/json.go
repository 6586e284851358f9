package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/kingfluencer/backend/internal/flagx"
	"github.com/kingfluencer/backend/internal/timex"
)

// JsonConfig is the intermediate DTO used only for reading JSON
// configuration files. It uses timex.Duration for interval fields, which
// allows parsing both string values such as "2m" and integer nanoseconds.
// After unmarshalling, set fields are copied into the runtime Config.
type JsonConfig struct {
	Environment         *string         `json:"environment"`
	RunAddr             *string         `json:"run_addr"`
	DatabaseDSN         *string         `json:"database_dsn"`
	DataDir             *string         `json:"data_dir"`
	AdminEmail          *string         `json:"admin_email"`
	AdminTokenOverride  *string         `json:"admin_token_override"`
	AuthBypass          *bool           `json:"auth_bypass"`
	OTPValidity         *timex.Duration `json:"otp_validity"`
	SessionTTL          *timex.Duration `json:"session_ttl"`
	SessionExplicitOnly *bool           `json:"session_explicit_only"`
	SMTPHost            *string         `json:"smtp_host"`
	SMTPPort            *int            `json:"smtp_port"`
	SMTPUser            *string         `json:"smtp_user"`
	SMTPPass            *string         `json:"smtp_pass"`
	SMTPFrom            *string         `json:"smtp_from"`
	SMTPFromName        *string         `json:"smtp_from_name"`
	SMTPDisabled        *bool           `json:"smtp_disabled"`
	S3RootUser          *string         `json:"s3_root_user"`
	S3RootPassword      *string         `json:"s3_root_password"`
	S3Bucket            *string         `json:"s3_bucket"`
	S3Region            *string         `json:"s3_region"`
	S3BaseEndpoint      *string         `json:"s3_base_endpoint"`
	RateLimitWindow     *timex.Duration `json:"rate_limit_window"`
	RateLimitMax        *int            `json:"rate_limit_max"`
	DBTimeout           *timex.Duration `json:"db_timeout"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; if neither is set, no JSON file is loaded. Pointer fields let the
// overlay distinguish "absent" from zero values, so a partial file leaves
// the remaining defaults untouched. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setDuration := func(dst *time.Duration, src *timex.Duration) {
		if src != nil {
			*dst = src.Duration
		}
	}

	setString(&config.Environment, c.Environment)
	setString(&config.RunAddr, c.RunAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.DataDir, c.DataDir)
	setString(&config.AdminEmail, c.AdminEmail)
	setString(&config.AdminTokenOverride, c.AdminTokenOverride)
	setBool(&config.AuthBypass, c.AuthBypass)
	setDuration(&config.OTPValidity, c.OTPValidity)
	setDuration(&config.SessionTTL, c.SessionTTL)
	setBool(&config.SessionExplicitOnly, c.SessionExplicitOnly)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPass, c.SMTPPass)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.SMTPFromName, c.SMTPFromName)
	setBool(&config.SMTPDisabled, c.SMTPDisabled)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.RateLimitWindow, c.RateLimitWindow)
	setInt(&config.RateLimitMax, c.RateLimitMax)
	setDuration(&config.DBTimeout, c.DBTimeout)
}
