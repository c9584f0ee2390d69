package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
)

type StorageConfig struct {
	// DBPath is the path to the BoltDB file for pool and price persistence.
	// Default: "./data/pool-graph.db"
	DBPath string

	// PersistenceEnabled controls whether pools and prices are persisted to disk.
	// Default: true
	PersistenceEnabled bool

	// PersistInterval is how often streamed pool updates are batch-saved (in seconds).
	// Default: 30
	PersistInterval int
}

func (c *StorageConfig) Key() string {
	return STORAGE_CONFIG_KEY
}

func (c *StorageConfig) Load() error {
	c.DBPath = common.GetEnvOrDefault("STORAGE_DB_PATH", "./data/pool-graph.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("STORAGE_PERSISTENCE_ENABLED", "true") == "true"
	c.PersistInterval = common.GetEnvOrDefaultInt("STORAGE_PERSIST_INTERVAL", 30)
	return c.Validate()
}

func (c *StorageConfig) Validate() error {
	if c.PersistenceEnabled && c.DBPath == "" {
		return errors.New("invalid storage config: db path is required")
	}
	if c.PersistInterval <= 0 {
		return errors.New("invalid storage config: persist interval must be positive")
	}
	return nil
}
