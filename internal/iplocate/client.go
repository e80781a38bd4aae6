// Package iplocate talks to the iplocate.io lookup API.
package iplocate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/proxy"

	"ipdnb/internal/domain"
)

const DefaultBaseURL = "https://iplocate.io"

// ErrRateLimited matches every RateLimitError through errors.Is.
var ErrRateLimited = errors.New("iplocate: rate limit exceeded")

// ErrSchema reports a JSON body that lacks the fields a block decision needs.
var ErrSchema = errors.New("iplocate: response does not match lookup schema")

// RateLimitError is returned when the API answers 429 Too Many Requests.
type RateLimitError struct {
	IP string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("iplocate: rate limit exceeded while looking up %s", e.IP)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Mostly useful in tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL points the client at another host, e.g. a mirror or test server.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if raw != "" {
			c.baseURL = strings.TrimRight(raw, "/")
		}
	}
}

// WithTimeout bounds each lookup. Zero keeps the default of no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient builds a client carrying apiKey. An empty key is rejected so a
// misconfigured run fails before the first request.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("iplocate: api key is empty")
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Lookup fetches the record for ip with a single GET. A 429 yields a
// RateLimitError; any other status is decoded as JSON regardless, and a body
// without country or privacy.is_tor fails with ErrSchema.
func (c *Client) Lookup(ctx context.Context, ip string) (*domain.LookupResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.lookupURL(ip), nil)
	if err != nil {
		return nil, fmt.Errorf("iplocate: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("iplocate: lookup %s: %w", ip, redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{IP: ip}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Debug("iplocate returned non-success status", "ip", ip, "status", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("iplocate: read response for %s: %w", ip, err)
	}

	result, err := decodeLookup(body)
	if err != nil {
		return nil, fmt.Errorf("iplocate: decode response for %s (status %d): %w", ip, resp.StatusCode, err)
	}
	return result, nil
}

// requiredFields holds the keys the block policy reads. Pointers tell an
// absent key apart from a zero value.
type requiredFields struct {
	Country *string `json:"country"`
	Privacy *struct {
		IsTor *bool `json:"is_tor"`
	} `json:"privacy"`
}

func decodeLookup(body []byte) (*domain.LookupResult, error) {
	var required requiredFields
	if err := json.Unmarshal(body, &required); err != nil {
		return nil, err
	}
	switch {
	case required.Country == nil:
		return nil, fmt.Errorf("%w: missing country", ErrSchema)
	case required.Privacy == nil || required.Privacy.IsTor == nil:
		return nil, fmt.Errorf("%w: missing privacy.is_tor", ErrSchema)
	}

	var result domain.LookupResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) lookupURL(ip string) string {
	return fmt.Sprintf("%s/api/lookup/%s?apikey=%s", c.baseURL, url.PathEscape(ip), url.QueryEscape(c.apiKey))
}

// redactKey keeps the API key out of error messages; url.Error embeds the
// full request URL.
func redactKey(err error, key string) error {
	var urlErr *url.Error
	if key == "" || !errors.As(err, &urlErr) {
		return err
	}
	return &url.Error{
		Op:  urlErr.Op,
		URL: strings.ReplaceAll(urlErr.URL, url.QueryEscape(key), "REDACTED"),
		Err: urlErr.Err,
	}
}

// NewProxiedHTTPClient returns an http.Client that dials through the SOCKS5
// proxy in rawProxy (socks5://[user:pass@]host:port).
func NewProxiedHTTPClient(rawProxy string) (*http.Client, error) {
	proxyURL, err := url.Parse(rawProxy)
	if err != nil {
		return nil, fmt.Errorf("iplocate: parse proxy url: %w", err)
	}
	if proxyURL.Scheme != "socks5" && proxyURL.Scheme != "socks5h" {
		return nil, fmt.Errorf("iplocate: unsupported proxy scheme %q", proxyURL.Scheme)
	}

	var auth *proxy.Auth
	if proxyURL.User != nil {
		password, _ := proxyURL.User.Password()
		auth = &proxy.Auth{User: proxyURL.User.Username(), Password: password}
	}

	socksDialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, &net.Dialer{Timeout: 30 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("iplocate: socks5 dialer: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cd, ok := socksDialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return socksDialer.Dial(network, addr)
	}

	return &http.Client{Transport: transport}, nil
}
