// Package safety evaluates listing candidates against configured risk
// thresholds and derives sizing and slippage recommendations. Everything
// here is a pure function of its inputs so the engine can call it from any
// account runner without coordination.
package safety

import (
	"fmt"
	"strings"
	"time"

	"snatcher/internal/logger"
	"snatcher/internal/types"
)

// Settings holds the externally supplied filter thresholds. Only shape is
// validated at load time; values are taken as-is.
type Settings struct {
	MinLiquidity                float64
	MaxDevSupplyFraction        float64
	Blacklist                   []string
	RequireLiquidityLocked      bool
	RequireMintAuthorityRevoked bool
	MaxCreatorSupplyFraction    float64
}

// suspiciousTerms are matched case-insensitively as substrings of any
// candidate flag.
var suspiciousTerms = []string{"honeypot", "rug_pull", "scam", "fake"}

// Passes runs the safety checks in a fixed order, short-circuiting on the
// first failure. Every rejection is logged with its cause.
func Passes(c types.ListingCandidate, s Settings) bool {
	if err := check(c, s); err != nil {
		logger.Infof("listing %s rejected: %v", c.Mint, err)
		return false
	}
	logger.Debugf("listing %s passed all safety filters", c.Mint)
	return true
}

func check(c types.ListingCandidate, s Settings) error {
	if c.LiquidityQuote < s.MinLiquidity {
		return fmt.Errorf("liquidity %.2f below minimum %.2f", c.LiquidityQuote, s.MinLiquidity)
	}
	if c.CreatorSupplyFraction > s.MaxDevSupplyFraction {
		return fmt.Errorf("dev supply %.4f above maximum %.4f", c.CreatorSupplyFraction, s.MaxDevSupplyFraction)
	}
	for _, mint := range s.Blacklist {
		if mint == c.Mint {
			return fmt.Errorf("mint is blacklisted")
		}
	}
	if s.RequireLiquidityLocked && !c.LiquidityLocked {
		return fmt.Errorf("liquidity is not locked")
	}
	if s.RequireMintAuthorityRevoked && !c.MintAuthorityRevoked {
		return fmt.Errorf("mint authority not revoked")
	}
	// Second, independently configured creator-supply cap. It may overlap
	// MaxDevSupplyFraction; both are enforced.
	if c.CreatorSupplyFraction > s.MaxCreatorSupplyFraction {
		return fmt.Errorf("creator supply %.4f above cap %.4f", c.CreatorSupplyFraction, s.MaxCreatorSupplyFraction)
	}
	for _, flag := range c.Flags {
		lowered := strings.ToLower(flag)
		for _, term := range suspiciousTerms {
			if strings.Contains(lowered, term) {
				return fmt.Errorf("suspicious flag %q", flag)
			}
		}
	}
	return nil
}

// RiskScore grades a candidate 0 (safest) to 10 (riskiest). Buckets are
// additive and the sum is clamped to 10. The candidate's age is measured
// against now so scoring stays deterministic in tests.
func RiskScore(c types.ListingCandidate, now time.Time) int {
	score := 0

	switch {
	case c.LiquidityQuote < 100_000:
		score += 3
	case c.LiquidityQuote < 500_000:
		score += 2
	case c.LiquidityQuote < 1_000_000:
		score += 1
	}

	switch {
	case c.CreatorSupplyFraction > 0.5:
		score += 3
	case c.CreatorSupplyFraction > 0.3:
		score += 2
	case c.CreatorSupplyFraction > 0.1:
		score += 1
	}

	if !c.LiquidityLocked {
		score += 2
	}
	if !c.MintAuthorityRevoked {
		score += 2
	}

	age := now.Sub(c.Timestamp)
	switch {
	case age < time.Hour:
		score += 2
	case age < 6*time.Hour:
		score += 1
	}

	if score > 10 {
		score = 10
	}
	return score
}

// RecommendedSlippage maps a risk score to a slippage tolerance fraction.
// Riskier listings move faster, so they get a wider allowance.
func RecommendedSlippage(score int) float64 {
	switch {
	case score >= 8:
		return 0.15
	case score >= 6:
		return 0.10
	case score >= 4:
		return 0.08
	case score >= 2:
		return 0.05
	default:
		return 0.03
	}
}

// RecommendedPositionSize sizes an entry off the account balance. The base
// allocation is 15% of balance, shrunk as risk grows: the inverse of the
// slippage curve.
func RecommendedPositionSize(balance float64, score int) float64 {
	const basePct = 0.15
	switch {
	case score >= 8:
		return balance * basePct * 0.5
	case score >= 6:
		return balance * basePct * 0.7
	case score >= 4:
		return balance * basePct * 0.8
	case score >= 2:
		return balance * basePct * 0.9
	default:
		return balance * basePct
	}
}

// Mode picks the execution mode for an entry from its risk score.
func Mode(score int) types.ExecutionMode {
	switch {
	case score > 6:
		return types.ModeConservative
	case score > 3:
		return types.ModeBalanced
	default:
		return types.ModeAggressive
	}
}
