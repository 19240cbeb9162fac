package env

const AppName = "hccspart"

// Set at build time with -ldflags "-X github.com/ostafen/hccspart/internal/env.Version=..."
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)
