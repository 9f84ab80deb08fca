package balance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/ratelimit"
)

const maxReplyBytes = 4 << 10

// ReplyError is a provider reply that did not carry a usable amount.
type ReplyError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%s replied %d: %q", e.Provider, e.StatusCode, e.Body)
}

// HTTPProvider is a provider that answers with a plain-text satoshi amount.
type HTTPProvider struct {
	name    string
	client  *http.Client
	limiter ratelimit.Limiter
	build   func(ctx context.Context, address string, minConfirmations int) (*http.Request, error)
}

func newHTTPProvider(name string, client *http.Client, rps int, build func(context.Context, string, int) (*http.Request, error)) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	limiter := ratelimit.NewUnlimited()
	if rps > 0 {
		limiter = ratelimit.New(rps)
	}
	return &HTTPProvider{
		name:    name,
		client:  client,
		limiter: limiter,
		build:   build,
	}
}

// NewAggregator queries a self-hosted aggregator that accepts a form POST.
func NewAggregator(endpoint string, client *http.Client, rps int) *HTTPProvider {
	return newHTTPProvider("aggregator", client, rps, func(ctx context.Context, address string, minConfirmations int) (*http.Request, error) {
		form := url.Values{}
		form.Set("btc_address", address)
		form.Set("required_confirmations", strconv.Itoa(minConfirmations))
		form.Set("api_timeout", strconv.Itoa(deadlineSeconds(ctx)))

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
}

// NewBlockchainInfo queries the blockchain.info simple query API.
func NewBlockchainInfo(baseURL string, client *http.Client, rps int) *HTTPProvider {
	baseURL = strings.TrimRight(baseURL, "/")
	return newHTTPProvider("blockchain.info", client, rps, func(ctx context.Context, address string, minConfirmations int) (*http.Request, error) {
		u := baseURL + "/q/getreceivedbyaddress/" + url.PathEscape(address)
		if minConfirmations > 0 {
			u += "?confirmations=" + strconv.Itoa(minConfirmations)
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
}

// NewBlockExplorer queries an insight-style explorer. It ignores the confirmation requirement.
func NewBlockExplorer(baseURL string, client *http.Client, rps int) *HTTPProvider {
	baseURL = strings.TrimRight(baseURL, "/")
	return newHTTPProvider("blockexplorer", client, rps, func(ctx context.Context, address string, _ int) (*http.Request, error) {
		u := baseURL + "/api/addr/" + url.PathEscape(address) + "/totalReceived"
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
}

func (p *HTTPProvider) Name() string {
	return p.name
}

func (p *HTTPProvider) Received(ctx context.Context, address string, minConfirmations int) (decimal.Decimal, error) {
	p.limiter.Take()

	req, err := p.build(ctx, address, minConfirmations)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s request: %w", p.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s read reply: %w", p.name, err)
	}
	text := strings.TrimSpace(string(body))

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, &ReplyError{Provider: p.name, StatusCode: resp.StatusCode, Body: text}
	}

	sat, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, &ReplyError{Provider: p.name, StatusCode: resp.StatusCode, Body: text}
	}
	return sat, nil
}

func deadlineSeconds(ctx context.Context) int {
	deadline, ok := ctx.Deadline()
	if !ok {
		return int(DefaultTimeout / time.Second)
	}
	secs := int(time.Until(deadline) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
