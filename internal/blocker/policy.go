package blocker

import (
	"slices"

	"ipdnb/internal/domain"
)

var defaultDeniedCountries = []string{"China", "Russia", "North Korea"}

// Policy decides which lookup results get blocked. Countries are compared
// against the service's English country name, exactly.
type Policy struct {
	DeniedCountries []string
	BlockTor        bool
}

func DefaultPolicy() Policy {
	return Policy{
		DeniedCountries: slices.Clone(defaultDeniedCountries),
		BlockTor:        true,
	}
}

func (p Policy) ShouldBlock(result *domain.LookupResult) bool {
	if result == nil {
		return false
	}
	if p.BlockTor && result.Privacy.IsTor {
		return true
	}
	return slices.Contains(p.DeniedCountries, result.Country)
}
