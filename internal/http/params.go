package http

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/pool-graph/internal/common"
)

const maxKeysPerRequest = 100

func parsePublicKey(name, value string) (solana.PublicKey, error) {
	if value == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: %s is required", common.ErrInvalidInput, name)
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s: %v", common.ErrInvalidInput, name, err)
	}
	return key, nil
}

// parsePublicKeyList parses a comma separated list of base58 keys. Blank
// entries are skipped, so "" yields an empty list.
func parsePublicKeyList(name, value string) ([]solana.PublicKey, error) {
	return parsePublicKeys(name, strings.Split(value, ","))
}

func parsePublicKeys(name string, values []string) ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key, err := parsePublicKey(name, v)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if len(keys) > maxKeysPerRequest {
		return nil, fmt.Errorf("%w: %s has more than %d entries", common.ErrInvalidInput, name, maxKeysPerRequest)
	}
	return keys, nil
}
