// Package geolite resolves countries offline from a MaxMind GeoLite2 Country
// database. It knows nothing about anonymity networks, so Tor is never flagged.
package geolite

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	"ipdnb/internal/domain"
)

type Lookuper struct {
	countryDB *geoip2.Reader
}

// Open memory-maps the mmdb file at path.
func Open(path string) (*Lookuper, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geolite: open %s: %w", path, err)
	}
	return &Lookuper{countryDB: reader}, nil
}

func (l *Lookuper) Close() error {
	if l == nil || l.countryDB == nil {
		return nil
	}
	return l.countryDB.Close()
}

func (l *Lookuper) Lookup(_ context.Context, ip string) (*domain.LookupResult, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("geolite: invalid ip %q", ip)
	}

	record, err := l.countryDB.Country(parsed)
	if err != nil {
		return nil, fmt.Errorf("geolite: lookup %s: %w", ip, err)
	}
	return toLookupResult(ip, record), nil
}

func toLookupResult(ip string, record *geoip2.Country) *domain.LookupResult {
	result := &domain.LookupResult{IP: ip}
	if record == nil {
		return result
	}

	result.Country = record.Country.Names["en"]
	result.CountryCode = record.Country.IsoCode
	result.IsEU = record.Country.IsInEuropeanUnion
	result.Continent = record.Continent.Names["en"]
	result.IsSatellite = record.Traits.IsSatelliteProvider
	result.Privacy.IsAnonymous = record.Traits.IsAnonymousProxy
	return result
}
