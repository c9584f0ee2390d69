package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"
	"github.com/thehyperflames/yellowstone"

	"github.com/hxuan190/pool-graph/internal/config"
	"github.com/hxuan190/pool-graph/internal/http"
	"github.com/hxuan190/pool-graph/internal/services"
	"github.com/hxuan190/pool-graph/internal/services/market"
	"github.com/hxuan190/pool-graph/internal/services/price"
	"github.com/hxuan190/pool-graph/internal/services/router"
)

// @title Pool Graph API
// @version 1.0
// @description Route discovery and price discovery over Vortex concentrated liquidity pools.
// @description
// @description ## - Features
// @description - **Pool Graph**: Direct and two hop routes between any two mints, optionally restricted to chosen intermediates
// @description - **Route IDs**: Canonical ids for unordered mint pairs
// @description - **Prices**: Token prices propagated outward from the quote tokens, gated by a liquidity check
// @description - **Live Updates**: Pool accounts streamed over Yellowstone gRPC when enabled
// @description
// @description ## - Usage Tips
// @description - Prices are denominated in the first configured quote token (USDC by default)
// @description - Mints without a sufficiently liquid route are omitted from price responses
// @description - Rate Limit: 10 requests/second (burst: 20)
// @description
// @BasePath /
// @schemes https http
// @tag.name routes
// @tag.description Route discovery over the pool graph
// @tag.name price
// @tag.description Token prices in units of the first quote token
// @tag.name pools
// @tag.description Pool state and graph statistics
// @tag.name accounts
// @tag.description Associated token account resolution

func main() {
	// load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("no .env file loaded, using process environment")
	}

	general := &config.GeneralConfig{}
	if err := general.Load(); err != nil {
		log.Error().Err(err).Msg("failed to load general config")
		return
	}
	lvl := services.SetGlobalLevel(general.LogLevel)
	log.Info().Str("level", lvl.String()).Str("env", general.Env).Msg("starting pool graph")

	// di container config
	conf := container.NewConf(
		general,
		&config.RPCConfig{},
		&yellowstone.Config{},
		&config.PricingConfig{},
		&config.StorageConfig{},
		&config.StreamConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&yellowstone.Service{},

		&router.Graph{},
		&market.Service{},
		&price.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	// Use RunBlock() - waits for SIGINT/SIGTERM
	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	// RunBlock() doesn't call Stop(), we must do it manually
	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
