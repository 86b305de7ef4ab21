package config

import (
	"time"

	"github.com/vovakirdan/gridbot/internal/script"
)

// Config holds engine configuration.
type Config struct {
	Limits  script.Limits `yaml:"limits"`
	Levels  LevelsConfig  `yaml:"levels"`
	Storage StorageConfig `yaml:"storage"`
	Web     WebConfig     `yaml:"web"`
	SSH     SSHConfig     `yaml:"ssh"`
	Replay  ReplayConfig  `yaml:"replay"`
}

// LevelsConfig lists extra directories scanned for level files.
type LevelsConfig struct {
	Dirs []string `yaml:"dirs"`
}

// StorageConfig configures the run record database.
type StorageConfig struct {
	DB string `yaml:"db"`
}

// WebConfig configures the websocket endpoint.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// SSHConfig configures the replay SSH server.
type SSHConfig struct {
	Addr        string        `yaml:"addr"`
	HostKey     string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// ReplayConfig configures the replay viewer.
type ReplayConfig struct {
	TPS int `yaml:"tps"` // ticks per second
}

// TickInterval returns the delay between replayed ticks.
func (r ReplayConfig) TickInterval() time.Duration {
	if r.TPS <= 0 {
		return time.Second / 4
	}
	return time.Second / time.Duration(r.TPS)
}
