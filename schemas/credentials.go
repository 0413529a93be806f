package schemas

import "strings"

// Credentials holds the immutable, process-lifetime identity a Gateway signs
// requests with. Constructed once, never mutated.
type Credentials struct {
	AccessKey     string
	SecretKey     string
	SellerID      string // MWS
	AssociateTag  string // PA
	AuthToken     string // optional, MWS delegated access
	Domain        string // two-letter region code or literal hostname
	DefaultMarket string // two-letter country code or literal marketplace id
}

// mwsRegionHosts maps the two-letter region codes spec.md §6 enumerates to
// their fixed MWS hostnames.
var mwsRegionHosts = map[string]string{
	"NA": "mws.amazonservices.com",
	"EU": "mws-eu.amazonservices.com",
	"IN": "mws.amazonservices.in",
	"CN": "mws.amazonservices.com.cn",
	"JP": "mws.amazonservices.jp",
}

// marketplaceIDs maps two-letter country codes to Amazon's opaque
// marketplace identifiers, per spec.md §6.
var marketplaceIDs = map[string]string{
	"CA": "A2EUQ1WTGCTBG2",
	"MX": "A1AM78C64UM0Y8",
	"US": "ATVPDKIKX0DER",
	"DE": "A1PA6795UKMFR9",
	"ES": "A1RKKUPIHCS9HS",
	"FR": "A13V1IB3VIYZZH",
	"IT": "APJ6JRA9NG5V4",
	"UK": "A1F83G8C2ARO7P",
	"IN": "A21TJRUUN4KGV",
	"JP": "A21TJRUUN4KGV",
	"CN": "AAHKV2X7AFYLW",
}

// paRegionHosts maps the same region codes to their Product Advertising
// API hosts. Not part of spec.md's MWS region table, but the gateway
// dispatches ProductAdvertising over GET to a distinct host family and
// needs the same two-letter-code-to-host normalization.
var paRegionHosts = map[string]string{
	"NA": "webservices.amazon.com",
	"EU": "webservices.amazon.co.uk",
	"IN": "webservices.amazon.in",
	"CN": "webservices.amazon.cn",
	"JP": "webservices.amazon.co.jp",
}

// ResolveHost turns a two-letter region code into its fixed MWS host, or
// passes a literal hostname through unchanged.
func ResolveHost(domain string) string {
	if len(domain) == 2 {
		if host, ok := mwsRegionHosts[strings.ToUpper(domain)]; ok {
			return host
		}
	}
	return domain
}

// ResolvePAHost is ResolveHost's Product Advertising API counterpart.
func ResolvePAHost(domain string) string {
	if len(domain) == 2 {
		if host, ok := paRegionHosts[strings.ToUpper(domain)]; ok {
			return host
		}
	}
	return domain
}

// ResolveMarketplace turns a two-letter country code into its marketplace
// id, passes a literal id through unchanged, and falls back to "US" for an
// unrecognized two-letter code (spec.md §8 scenario 6).
func ResolveMarketplace(market string) string {
	if len(market) == 2 {
		code := strings.ToUpper(market)
		if id, ok := marketplaceIDs[code]; ok {
			return id
		}
		return marketplaceIDs["US"]
	}
	return market
}

// Validate checks the construction-time invariants from spec.md §3: access
// key, secret key, and an account identifier (seller id or associate tag)
// must be non-empty, and a two-letter domain/market must resolve to a known
// region/marketplace.
func (c *Credentials) Validate() error {
	if c.AccessKey == "" {
		return NewConfigurationError("access key must not be empty", nil)
	}
	if c.SecretKey == "" {
		return NewConfigurationError("secret key must not be empty", nil)
	}
	if c.SellerID == "" && c.AssociateTag == "" {
		return NewConfigurationError("seller id or associate tag must be set", nil)
	}
	if len(c.Domain) == 2 {
		if _, ok := mwsRegionHosts[strings.ToUpper(c.Domain)]; !ok {
			return NewConfigurationError("unknown region code: "+c.Domain, nil)
		}
	}
	if len(c.DefaultMarket) == 2 {
		if _, ok := marketplaceIDs[strings.ToUpper(c.DefaultMarket)]; !ok {
			return NewConfigurationError("unknown marketplace code: "+c.DefaultMarket, nil)
		}
	}
	return nil
}
