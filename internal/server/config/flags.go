package config

import (
	"flag"
	"os"
	"time"

	"github.com/kingfluencer/backend/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-f string   data directory
//	-m string   admin email address
//	-o int      one-time code validity, minutes
//	-s int      admin session TTL, minutes
//	-x          admin sessions expire only on explicit logout
//	-y          bypass the operator guard (development only)
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in minutes and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-f", "-m", "-o", "-s", "-x", "-y"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.RunAddr, "a", config.RunAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DataDir, "f", config.DataDir, "data directory")
	fs.StringVar(&config.AdminEmail, "m", config.AdminEmail, "admin email address")

	otpValidity := fs.Int("o", int(config.OTPValidity.Minutes()), "one-time code validity (in minutes)")
	sessionTTL := fs.Int("s", int(config.SessionTTL.Minutes()), "admin session TTL (in minutes)")

	fs.BoolVar(&config.SessionExplicitOnly, "x", config.SessionExplicitOnly, "admin sessions expire only on logout")
	fs.BoolVar(&config.AuthBypass, "y", config.AuthBypass, "bypass the operator guard (development only)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.OTPValidity = time.Duration(*otpValidity) * time.Minute
	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
}
