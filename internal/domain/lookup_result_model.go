package domain

// LookupResult mirrors the iplocate.io lookup payload. Only Country and
// Privacy.IsTor drive block decisions; the remaining fields are carried as-is.
type LookupResult struct {
	IP           string  `json:"ip"`
	Country      string  `json:"country"`
	CountryCode  string  `json:"country_code"`
	IsEU         bool    `json:"is_eu"`
	City         string  `json:"city"`
	Continent    string  `json:"continent"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	TimeZone     string  `json:"time_zone"`
	PostalCode   string  `json:"postal_code"`
	Subdivision  string  `json:"subdivision"`
	CurrencyCode string  `json:"currency_code"`
	CallingCode  string  `json:"calling_code"`
	IsAnycast    bool    `json:"is_anycast"`
	IsSatellite  bool    `json:"is_satellite"`

	ASN     ASN     `json:"asn"`
	Privacy Privacy `json:"privacy"`
	Hosting Hosting `json:"hosting"`
	Company Company `json:"company"`
	Abuse   Abuse   `json:"abuse"`
}

type ASN struct {
	ASN         string `json:"asn"`
	Route       string `json:"route"`
	Netname     string `json:"netname"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
	Domain      string `json:"domain"`
	Type        string `json:"type"`
	RIR         string `json:"rir"`
}

type Privacy struct {
	IsAbuser      bool `json:"is_abuser"`
	IsAnonymous   bool `json:"is_anonymous"`
	IsBogon       bool `json:"is_bogon"`
	IsHosting     bool `json:"is_hosting"`
	IsICloudRelay bool `json:"is_icloud_relay"`
	IsProxy       bool `json:"is_proxy"`
	IsTor         bool `json:"is_tor"`
	IsVPN         bool `json:"is_vpn"`
}

type Hosting struct {
	Provider string `json:"provider"`
	Domain   string `json:"domain"`
	Network  string `json:"network"`
}

type Company struct {
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	CountryCode string `json:"country_code"`
	Type        string `json:"type"`
}

type Abuse struct {
	Address     string `json:"address"`
	CountryCode string `json:"country_code"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Network     string `json:"network"`
	Phone       string `json:"phone"`
}

// NewBlockedIP builds the record persisted for a blocked lookup.
func (r *LookupResult) NewBlockedIP(ip string) BlockedIP {
	return BlockedIP{
		IP:      ip,
		Country: r.Country,
		IsTor:   r.Privacy.IsTor,
	}
}
