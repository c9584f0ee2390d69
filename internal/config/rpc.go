package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
)

type RPCConfig struct {
	RPCUrl string
	// TimeoutSeconds bounds a single getMultipleAccounts call.
	TimeoutSeconds int
}

func (r *RPCConfig) Key() string {
	return RPC_CONFIG_KEY
}

func (r *RPCConfig) Load() error {
	r.RPCUrl = common.GetEnvOrDefault("RPC_URL", "")
	r.TimeoutSeconds = common.GetEnvOrDefaultInt("RPC_TIMEOUT_SECONDS", 30)
	return r.Validate()
}

func (r *RPCConfig) Validate() error {
	if r.RPCUrl == "" {
		return errors.New("invalid rpc config: RPC_URL is required")
	}
	if r.TimeoutSeconds <= 0 {
		return errors.New("invalid rpc config: timeout must be positive")
	}
	return nil
}
