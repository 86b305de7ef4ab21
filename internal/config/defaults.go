package config

import (
	_ "embed"
	"time"

	"github.com/vovakirdan/gridbot/internal/script"
)

//go:embed defaults/gridbot.yaml
var defaultYAML []byte

// Default returns the hardcoded configuration.
func Default() Config {
	return Config{
		Limits:  script.DefaultLimits(),
		Storage: StorageConfig{DB: "gridbot.db"},
		Web:     WebConfig{Addr: ":8080"},
		SSH: SSHConfig{
			Addr:        ":23234",
			HostKey:     ".ssh/gridbot_ed25519",
			IdleTimeout: 10 * time.Minute,
		},
		Replay: ReplayConfig{TPS: 4},
	}
}

// GetDefaultYAML returns the embedded default configuration document.
func GetDefaultYAML() []byte {
	return defaultYAML
}
