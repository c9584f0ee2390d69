package config

import (
	"github.com/andrew-solarstorm/go-packages/common"
)

// StreamConfig toggles the Yellowstone pool watcher. Connection settings
// belong to yellowstone.Config.
type StreamConfig struct {
	Enabled bool
}

func (c *StreamConfig) Key() string {
	return STREAM_CONFIG_KEY
}

func (c *StreamConfig) Load() error {
	c.Enabled = common.GetEnvOrDefault("POOL_STREAM_ENABLED", "false") == "true"
	return nil
}

func (c *StreamConfig) Validate() error {
	return nil
}
