package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	pgcommon "github.com/hxuan190/pool-graph/internal/common"
)

type PricingConfig struct {
	ProgramID   solana.PublicKey
	PoolsConfig solana.PublicKey

	// QuoteTokens in priority order; prices are denominated in the first one.
	QuoteTokens  []solana.PublicKey
	TickSpacings []uint16

	AmountThreshold      uint64
	PriceImpactThreshold decimal.Decimal

	// RefreshIntervalSeconds of the background price refresher. 0 disables it.
	RefreshIntervalSeconds int

	// GraphPools are fetched into the route graph at startup.
	GraphPools []solana.PublicKey
}

// pricingFile is the optional YAML overlay. Fields left empty keep the env value.
type pricingFile struct {
	ProgramID              string   `yaml:"programId"`
	PoolsConfig            string   `yaml:"poolsConfig"`
	QuoteTokens            []string `yaml:"quoteTokens"`
	TickSpacings           []uint16 `yaml:"tickSpacings"`
	AmountThreshold        uint64   `yaml:"amountThreshold"`
	PriceImpactThreshold   string   `yaml:"priceImpactThreshold"`
	RefreshIntervalSeconds *int     `yaml:"refreshIntervalSeconds"`
	GraphPools             []string `yaml:"graphPools"`
}

func (c *PricingConfig) Key() string {
	return PRICING_CONFIG_KEY
}

func (c *PricingConfig) Load() error {
	var err error

	if c.ProgramID, err = parseKey(common.GetEnvOrDefault("PRICING_PROGRAM_ID", pgcommon.VortexProgramID.String())); err != nil {
		return fmt.Errorf("PRICING_PROGRAM_ID: %w", err)
	}
	if raw := common.GetEnvOrDefault("PRICING_POOLS_CONFIG", ""); raw != "" {
		if c.PoolsConfig, err = parseKey(raw); err != nil {
			return fmt.Errorf("PRICING_POOLS_CONFIG: %w", err)
		}
	}

	c.QuoteTokens = pgcommon.DefaultQuoteTokens()
	if raw := common.GetEnvOrDefault("PRICING_QUOTE_TOKENS", ""); raw != "" {
		if c.QuoteTokens, err = parseKeyList(raw); err != nil {
			return fmt.Errorf("PRICING_QUOTE_TOKENS: %w", err)
		}
	}

	c.TickSpacings = pgcommon.DefaultTickSpacings()
	if raw := common.GetEnvOrDefault("PRICING_TICK_SPACINGS", ""); raw != "" {
		if c.TickSpacings, err = parseTickSpacings(raw); err != nil {
			return fmt.Errorf("PRICING_TICK_SPACINGS: %w", err)
		}
	}

	c.AmountThreshold = uint64(common.GetEnvOrDefaultInt("PRICING_AMOUNT_THRESHOLD", 1_000_000))
	if c.PriceImpactThreshold, err = decimal.NewFromString(common.GetEnvOrDefault("PRICING_PRICE_IMPACT_THRESHOLD", "1.05")); err != nil {
		return fmt.Errorf("PRICING_PRICE_IMPACT_THRESHOLD: %w", err)
	}
	c.RefreshIntervalSeconds = common.GetEnvOrDefaultInt("PRICING_REFRESH_INTERVAL", 30)

	if raw := common.GetEnvOrDefault("GRAPH_POOLS", ""); raw != "" {
		if c.GraphPools, err = parseKeyList(raw); err != nil {
			return fmt.Errorf("GRAPH_POOLS: %w", err)
		}
	}

	if path := common.GetEnvOrDefault("PRICING_CONFIG_FILE", ""); path != "" {
		if err := c.LoadFile(path); err != nil {
			return err
		}
	}

	return c.Validate()
}

// LoadFile overlays the YAML file at path onto the current values.
func (c *PricingConfig) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read pricing config file: %w", err)
	}

	var file pricingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse pricing config file %s: %w", path, err)
	}

	if file.ProgramID != "" {
		if c.ProgramID, err = parseKey(file.ProgramID); err != nil {
			return fmt.Errorf("programId: %w", err)
		}
	}
	if file.PoolsConfig != "" {
		if c.PoolsConfig, err = parseKey(file.PoolsConfig); err != nil {
			return fmt.Errorf("poolsConfig: %w", err)
		}
	}
	if len(file.QuoteTokens) > 0 {
		if c.QuoteTokens, err = parseKeys(file.QuoteTokens); err != nil {
			return fmt.Errorf("quoteTokens: %w", err)
		}
	}
	if len(file.TickSpacings) > 0 {
		c.TickSpacings = file.TickSpacings
	}
	if file.AmountThreshold > 0 {
		c.AmountThreshold = file.AmountThreshold
	}
	if file.PriceImpactThreshold != "" {
		if c.PriceImpactThreshold, err = decimal.NewFromString(file.PriceImpactThreshold); err != nil {
			return fmt.Errorf("priceImpactThreshold: %w", err)
		}
	}
	if file.RefreshIntervalSeconds != nil {
		c.RefreshIntervalSeconds = *file.RefreshIntervalSeconds
	}
	if len(file.GraphPools) > 0 {
		if c.GraphPools, err = parseKeys(file.GraphPools); err != nil {
			return fmt.Errorf("graphPools: %w", err)
		}
	}
	return nil
}

func (c *PricingConfig) Validate() error {
	switch {
	case c.ProgramID.IsZero():
		return errors.New("invalid pricing config: program id is required")
	case c.PoolsConfig.IsZero():
		return errors.New("invalid pricing config: PRICING_POOLS_CONFIG is required")
	case len(c.QuoteTokens) == 0:
		return errors.New("invalid pricing config: at least one quote token is required")
	case len(c.TickSpacings) == 0:
		return errors.New("invalid pricing config: at least one tick spacing is required")
	case c.AmountThreshold == 0:
		return errors.New("invalid pricing config: amount threshold must be positive")
	case !c.PriceImpactThreshold.IsPositive():
		return errors.New("invalid pricing config: price impact threshold must be positive")
	case c.RefreshIntervalSeconds < 0:
		return errors.New("invalid pricing config: refresh interval must not be negative")
	}
	return nil
}

func parseKey(raw string) (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(strings.TrimSpace(raw))
}

func parseKeys(raw []string) ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, len(raw))
	for _, s := range raw {
		key, err := parseKey(s)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func parseKeyList(raw string) ([]solana.PublicKey, error) {
	parts := make([]string, 0)
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parseKeys(parts)
}

func parseTickSpacings(raw string) ([]uint16, error) {
	spacings := make([]uint16, 0)
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		if v == 0 {
			return nil, errors.New("tick spacing must be positive")
		}
		spacings = append(spacings, uint16(v))
	}
	return spacings, nil
}
