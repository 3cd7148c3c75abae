package services

import "strings"

const (
	TierStarter    = "starter"
	TierPro        = "pro"
	TierEnterprise = "enterprise"

	DefaultTier = TierStarter
)

// NormalizeTier maps a metadata tier onto a known tier. Empty input yields
// the default; unknown input also yields the default and ok is false.
func NormalizeTier(raw string) (tier string, ok bool) {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" {
		return DefaultTier, true
	}
	if !IsValidTier(t) {
		return DefaultTier, false
	}
	return t, true
}

func IsValidTier(tier string) bool {
	switch strings.ToLower(tier) {
	case TierStarter, TierPro, TierEnterprise:
		return true
	}
	return false
}
