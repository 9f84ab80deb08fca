package rate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/ratelimit"
)

const maxReplyBytes = 1 << 20

const (
	DefaultTickerURL   = "https://apiv2.bitcoinaverage.com/indices/global/ticker"
	DefaultWeightedURL = "http://api.bitcoincharts.com/v1/weighted_prices.json"
	DefaultFlatURL     = "https://bitpay.com/api/rates"
)

type fetcher struct {
	client  *http.Client
	limiter ratelimit.Limiter
}

func newFetcher(client *http.Client, rps int) fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	limiter := ratelimit.NewUnlimited()
	if rps > 0 {
		limiter = ratelimit.New(rps)
	}
	return fetcher{client: client, limiter: limiter}
}

func (f fetcher) getJSON(ctx context.Context, url string, out any) error {
	f.limiter.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}

// TickerService reads a global price index ticker per BTC pair.
type TickerService struct {
	fetcher
	baseURL string
}

func NewTickerService(baseURL string, client *http.Client, rps int) *TickerService {
	return &TickerService{fetcher: newFetcher(client, rps), baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *TickerService) Name() string {
	return "bitcoinaverage"
}

func (s *TickerService) Ticker(ctx context.Context, currency string) (Ticker, error) {
	var t Ticker
	if err := s.getJSON(ctx, s.baseURL+"/BTC"+currency, &t); err != nil {
		return Ticker{}, err
	}
	return t, nil
}

// WeightedService reads 24h weighted prices for all currencies in one document.
type WeightedService struct {
	fetcher
	url string
}

func NewWeightedService(url string, client *http.Client, rps int) *WeightedService {
	return &WeightedService{fetcher: newFetcher(client, rps), url: url}
}

func (s *WeightedService) Name() string {
	return "bitcoincharts"
}

func (s *WeightedService) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	var prices map[string]json.RawMessage
	if err := s.getJSON(ctx, s.url, &prices); err != nil {
		return decimal.Decimal{}, err
	}
	raw, ok := prices[currency]
	if !ok {
		return decimal.Decimal{}, ErrCurrencyNotQuoted
	}
	var windows struct {
		Day decimal.NullDecimal `json:"24h"`
	}
	if err := json.Unmarshal(raw, &windows); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode %s prices: %w", currency, err)
	}
	d := windows.Day
	if !d.Valid {
		return decimal.Decimal{}, ErrCurrencyNotQuoted
	}
	return d.Decimal, nil
}

// FlatService reads a list of {code, rate} realtime prices.
type FlatService struct {
	fetcher
	url string
}

func NewFlatService(url string, client *http.Client, rps int) *FlatService {
	return &FlatService{fetcher: newFetcher(client, rps), url: url}
}

func (s *FlatService) Name() string {
	return "bitpay"
}

func (s *FlatService) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	var rates []struct {
		Code string          `json:"code"`
		Rate decimal.Decimal `json:"rate"`
	}
	if err := s.getJSON(ctx, s.url, &rates); err != nil {
		return decimal.Decimal{}, err
	}
	for _, r := range rates {
		if r.Code == currency {
			return r.Rate, nil
		}
	}
	return decimal.Decimal{}, ErrCurrencyNotQuoted
}
