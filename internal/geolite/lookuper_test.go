package geolite

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/maxmind/mmdbwriter"
	"github.com/maxmind/mmdbwriter/mmdbtype"
	"github.com/oschwald/geoip2-golang"
)

// writeCountryDB builds a one-network GeoLite2-Country database for 81.2.69.0/24.
func writeCountryDB(t *testing.T) string {
	t.Helper()

	tree, err := mmdbwriter.New(mmdbwriter.Options{
		DatabaseType: "GeoLite2-Country",
		RecordSize:   24,
	})
	if err != nil {
		t.Fatalf("new mmdb tree: %v", err)
	}

	_, network, err := net.ParseCIDR("81.2.69.0/24")
	if err != nil {
		t.Fatalf("parse network: %v", err)
	}
	record := mmdbtype.Map{
		"country": mmdbtype.Map{
			"iso_code":             mmdbtype.String("GB"),
			"is_in_european_union": mmdbtype.Bool(false),
			"names": mmdbtype.Map{
				"en": mmdbtype.String("United Kingdom"),
				"de": mmdbtype.String("Vereinigtes Königreich"),
			},
		},
		"continent": mmdbtype.Map{
			"code":  mmdbtype.String("EU"),
			"names": mmdbtype.Map{"en": mmdbtype.String("Europe")},
		},
		"traits": mmdbtype.Map{
			"is_anonymous_proxy": mmdbtype.Bool(true),
		},
	}
	if err := tree.Insert(network, record); err != nil {
		t.Fatalf("insert network: %v", err)
	}

	path := filepath.Join(t.TempDir(), "GeoLite2-Country.mmdb")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create mmdb: %v", err)
	}
	defer f.Close()
	if _, err := tree.WriteTo(f); err != nil {
		t.Fatalf("write mmdb: %v", err)
	}
	return path
}

func openTestLookuper(t *testing.T) *Lookuper {
	t.Helper()

	lookuper, err := Open(writeCountryDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		_ = lookuper.Close()
	})
	return lookuper
}

func TestLookupReadsCountryDatabase(t *testing.T) {
	lookuper := openTestLookuper(t)

	got, err := lookuper.Lookup(context.Background(), "81.2.69.142")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if got.IP != "81.2.69.142" {
		t.Fatalf("ip = %q", got.IP)
	}
	if got.Country != "United Kingdom" || got.CountryCode != "GB" || got.Continent != "Europe" {
		t.Fatalf("unexpected geo fields: %+v", got)
	}
	if got.IsEU {
		t.Fatal("is_eu should be false")
	}
	if !got.Privacy.IsAnonymous {
		t.Fatal("anonymous proxy trait not read from database")
	}
	if got.Privacy.IsTor {
		t.Fatal("geolite results must never claim tor")
	}
}

func TestLookupUnknownNetworkIsEmpty(t *testing.T) {
	lookuper := openTestLookuper(t)

	got, err := lookuper.Lookup(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.IP != "8.8.8.8" || got.Country != "" || got.CountryCode != "" {
		t.Fatalf("expected empty result for unknown network, got %+v", got)
	}
}

func TestLookupRejectsInvalidIP(t *testing.T) {
	lookuper := openTestLookuper(t)

	if _, err := lookuper.Lookup(context.Background(), "999.1.1.1"); err == nil {
		t.Fatal("expected error for invalid ip")
	}
}

func TestOpenMissingDatabase(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.mmdb")); err == nil {
		t.Fatal("expected error for missing database file")
	}
}

func TestToLookupResult(t *testing.T) {
	var record geoip2.Country
	record.Country.IsoCode = "KP"
	record.Country.Names = map[string]string{"en": "North Korea", "de": "Nordkorea"}
	record.Continent.Names = map[string]string{"en": "Asia"}
	record.Traits.IsAnonymousProxy = true

	got := toLookupResult("175.45.176.1", &record)

	if got.IP != "175.45.176.1" {
		t.Fatalf("ip = %q", got.IP)
	}
	if got.Country != "North Korea" || got.CountryCode != "KP" || got.Continent != "Asia" {
		t.Fatalf("unexpected geo fields: %+v", got)
	}
	if !got.Privacy.IsAnonymous {
		t.Fatal("anonymous proxy trait not carried over")
	}
	if got.Privacy.IsTor {
		t.Fatal("geolite results must never claim tor")
	}
}

func TestToLookupResultNilRecord(t *testing.T) {
	got := toLookupResult("8.8.8.8", nil)
	if got.IP != "8.8.8.8" || got.Country != "" {
		t.Fatalf("unexpected result for nil record: %+v", got)
	}
}
