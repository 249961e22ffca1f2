// internal/workers/recommendation/calculate-university-match/config.go
package calculateuniversitymatch

import (
	"time"

	"edupath-ksa/internal/common/config"
)

type Config struct {
	Enabled bool
	Timeout time.Duration
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	cfg := &Config{
		Enabled: wcfg.Enabled,
		Timeout: 10 * time.Second,
	}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	return cfg
}
