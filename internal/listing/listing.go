// Package listing ingests launch events from external scanners. Raw JSON is
// validated against a schema before it is decoded, so malformed events are
// rejected at the edge instead of surfacing inside the engine.
package listing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"snatcher/internal/types"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const eventSchema = `{
  "type": "object",
  "required": ["mint", "poolAddress", "venue", "timestamp", "liquidityQuote", "creatorAddress"],
  "properties": {
    "mint": {"type": "string", "minLength": 1},
    "poolAddress": {"type": "string", "minLength": 1},
    "venue": {"type": "string", "minLength": 1},
    "timestamp": {"type": "integer", "minimum": 0},
    "liquidityQuote": {"type": "number", "minimum": 0},
    "creatorAddress": {"type": "string"},
    "liquidityLocked": {"type": "boolean"},
    "mintAuthorityRevoked": {"type": "boolean"},
    "creatorSupplyFraction": {"type": "number", "minimum": 0, "maximum": 1},
    "flags": {"type": "array", "items": {"type": "string"}}
  }
}`

var compiledSchema = jsonschema.MustCompileString("listing-event.json", eventSchema)

// rawEvent mirrors the wire schema; timestamps arrive as unix milliseconds.
type rawEvent struct {
	Mint                  string   `json:"mint"`
	PoolAddress           string   `json:"poolAddress"`
	Venue                 string   `json:"venue"`
	Timestamp             int64    `json:"timestamp"`
	LiquidityQuote        float64  `json:"liquidityQuote"`
	CreatorAddress        string   `json:"creatorAddress"`
	LiquidityLocked       bool     `json:"liquidityLocked"`
	MintAuthorityRevoked  bool     `json:"mintAuthorityRevoked"`
	CreatorSupplyFraction float64  `json:"creatorSupplyFraction"`
	Flags                 []string `json:"flags"`
}

// Decode validates a raw launch event and converts it into a candidate.
func Decode(payload []byte) (types.ListingCandidate, error) {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return types.ListingCandidate{}, fmt.Errorf("listing event is not valid JSON: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return types.ListingCandidate{}, fmt.Errorf("listing event failed schema validation: %w", err)
	}

	var raw rawEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return types.ListingCandidate{}, fmt.Errorf("decoding listing event failed: %w", err)
	}
	if strings.TrimSpace(raw.Mint) == "" {
		return types.ListingCandidate{}, fmt.Errorf("listing event missing mint")
	}

	return types.ListingCandidate{
		Mint:                  raw.Mint,
		PoolAddress:           raw.PoolAddress,
		Venue:                 raw.Venue,
		Timestamp:             time.UnixMilli(raw.Timestamp),
		LiquidityQuote:        raw.LiquidityQuote,
		CreatorAddress:        raw.CreatorAddress,
		LiquidityLocked:       raw.LiquidityLocked,
		MintAuthorityRevoked:  raw.MintAuthorityRevoked,
		CreatorSupplyFraction: raw.CreatorSupplyFraction,
		Flags:                 raw.Flags,
	}, nil
}
