package model

import "strings"

// Tier is the ordered user classification that determines the discount
// percentage applied to feature costs.
type Tier string

const (
	TierBasic    Tier = "BASIC"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
	TierDiamond  Tier = "DIAMOND"
)

// ParseTier resolves a wire string to a tier, falling back to BASIC for
// anything unrecognized so an unknown tier never yields a discount.
func ParseTier(s string) Tier {
	switch Tier(strings.ToUpper(strings.TrimSpace(s))) {
	case TierSilver:
		return TierSilver
	case TierGold:
		return TierGold
	case TierPlatinum:
		return TierPlatinum
	case TierDiamond:
		return TierDiamond
	}
	return TierBasic
}
