// internal/workers/advisor/suggest-major/config.go
package suggestmajor

import (
	"time"

	"edupath-ksa/internal/common/config"
)

type Config struct {
	Enabled bool
	Timeout time.Duration
}

// LoadConfig leaves room above the advisor's own completion timeout so that a slow
// provider still falls back to the heuristic before the job deadline.
func LoadConfig(wcfg config.WorkerConfig) *Config {
	cfg := &Config{
		Enabled: wcfg.Enabled,
		Timeout: 45 * time.Second,
	}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	return cfg
}
