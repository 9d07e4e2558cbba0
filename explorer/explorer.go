// Package explorer queries blockchain explorers for address balances behind
// one interface. Each provider is a Client configured with its endpoint
// templates and payload extractors; the result is always a normalized
// currency.Vector.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/bryzgaloff/crypto-apis/currency"
	"github.com/bryzgaloff/crypto-apis/internal/transport"
)

// ErrMissingSeparator reports a provider configured with a multi-address
// endpoint but no separator to join the addresses with.
var ErrMissingSeparator = errors.New("no multi address separator is provided")

// Explorer resolves the balance held across one or more addresses.
type Explorer interface {
	Balance(ctx context.Context, addresses ...string) (currency.Vector, error)
}

// Endpoints describes how one explorer exposes balance lookups. Templates
// substitute {address}, {multi_address}, {currency} and {api_key}.
type Endpoints struct {
	BaseURL string
	// SingleAddress is the balance endpoint for one address.
	SingleAddress string
	// MultiAddress, when set, resolves several addresses in one request,
	// joined with MultiAddressSeparator. When empty, addresses are
	// fetched individually and summed.
	MultiAddress          string
	MultiAddressSeparator string
	// DefaultCurrency names the chain's currency when the payload does
	// not carry it.
	DefaultCurrency string
	APIKey          string
	// BalanceDivisor converts base units (satoshi, wei) into whole
	// coins. Zero means the payload is already denominated in coins.
	BalanceDivisor float64
	// ExtractBalance parses the payload's balance. Nil treats the whole
	// body as one number.
	ExtractBalance func(body []byte) (float64, error)
	// ExtractCurrency parses the payload's currency. Nil uses
	// DefaultCurrency.
	ExtractCurrency func(body []byte) (string, error)
}

// Client implements Explorer for one configured provider.
type Client struct {
	api       *transport.Client
	endpoints Endpoints
}

// NewClient builds an explorer client named name (for logs and metrics)
// from its endpoint configuration.
func NewClient(name string, endpoints Endpoints) *Client {
	return &Client{
		api:       transport.NewClient(name, endpoints.BaseURL),
		endpoints: endpoints,
	}
}

// NewClientWithTransport builds a client around an existing transport
// (tests point it at a local server).
func NewClientWithTransport(api *transport.Client, endpoints Endpoints) *Client {
	return &Client{
		api:       api,
		endpoints: endpoints,
	}
}

var _ Explorer = (*Client)(nil)

// Balance resolves the total balance across the given addresses as a
// normalized vector. With several addresses, the provider's multi-address
// endpoint is used when configured, otherwise the addresses are fetched
// concurrently and summed.
func (c *Client) Balance(ctx context.Context, addresses ...string) (currency.Vector, error) {
	switch len(addresses) {
	case 0:
		return currency.Vector{}, nil
	case 1:
		return c.singleAddressBalance(ctx, addresses[0])
	}
	if c.endpoints.MultiAddress == "" {
		return c.summedBalances(ctx, addresses)
	}
	if c.endpoints.MultiAddressSeparator == "" {
		return nil, ErrMissingSeparator
	}
	endpoint := c.substitute(c.endpoints.MultiAddress, map[string]string{
		"{multi_address}": strings.Join(addresses, c.endpoints.MultiAddressSeparator),
	})
	return c.requestBalance(ctx, endpoint)
}

func (c *Client) singleAddressBalance(ctx context.Context, address string) (currency.Vector, error) {
	endpoint := c.substitute(c.endpoints.SingleAddress, map[string]string{
		"{address}": address,
	})
	return c.requestBalance(ctx, endpoint)
}

// summedBalances is the fallback for providers without a multi-address
// endpoint: independent fetches joined and summed; a single failed address
// fails the whole balance rather than under-reporting it.
func (c *Client) summedBalances(ctx context.Context, addresses []string) (currency.Vector, error) {
	balances := make([]currency.Vector, len(addresses))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, address := range addresses {
		group.Go(func() error {
			balance, err := c.singleAddressBalance(groupCtx, address)
			if err != nil {
				return err
			}
			balances[i] = balance
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	total := currency.Vector{}
	for _, balance := range balances {
		total = total.Add(balance)
	}
	return total, nil
}

func (c *Client) requestBalance(ctx context.Context, endpoint string) (currency.Vector, error) {
	body, err := c.api.Request(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return nil, err
	}

	balance, err := c.extractBalance(body)
	if err != nil {
		return nil, &transport.InvalidResponseError{
			Provider: c.api.Provider(),
			Endpoint: endpoint,
			Body:     body,
		}
	}
	code, err := c.extractCurrency(body)
	if err != nil {
		return nil, &transport.InvalidResponseError{
			Provider: c.api.Provider(),
			Endpoint: endpoint,
			Body:     body,
		}
	}
	if c.endpoints.BalanceDivisor != 0 {
		balance /= c.endpoints.BalanceDivisor
	}
	return currency.Vector{currency.NormalizedKey(code): balance}, nil
}

func (c *Client) extractBalance(body []byte) (float64, error) {
	if c.endpoints.ExtractBalance != nil {
		return c.endpoints.ExtractBalance(body)
	}
	return strconv.ParseFloat(strings.TrimSpace(string(body)), 64)
}

func (c *Client) extractCurrency(body []byte) (string, error) {
	if c.endpoints.ExtractCurrency != nil {
		return c.endpoints.ExtractCurrency(body)
	}
	if c.endpoints.DefaultCurrency == "" {
		return "", fmt.Errorf("no default currency configured")
	}
	return c.endpoints.DefaultCurrency, nil
}

func (c *Client) substitute(template string, substitutions map[string]string) string {
	replacements := make([]string, 0, 2*(len(substitutions)+2))
	for placeholder, value := range substitutions {
		replacements = append(replacements, placeholder, value)
	}
	replacements = append(replacements,
		"{currency}", c.endpoints.DefaultCurrency,
		"{api_key}", c.endpoints.APIKey,
	)
	return strings.NewReplacer(replacements...).Replace(template)
}
