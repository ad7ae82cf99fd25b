package pricefeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"snatcher/internal/types"

	"github.com/tidwall/gjson"
)

const quoteTimeout = 5 * time.Second

// QuoteSource fetches prices from a Jupiter-style quote API:
// GET {base}/price?ids=<mint> returning {"data":{"<mint>":{"price":...}}}.
type QuoteSource struct {
	baseURL    *url.URL
	httpClient *http.Client
}

func NewQuoteSource(rawURL string) (*QuoteSource, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return nil, fmt.Errorf("price feed base url cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing price feed url failed: %w", err)
	}
	return &QuoteSource{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: quoteTimeout},
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (s *QuoteSource) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

func (s *QuoteSource) FetchPrice(ctx context.Context, mint string) (types.PriceUpdate, error) {
	endpoint := *s.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + "/price"
	q := endpoint.Query()
	q.Set("ids", mint)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return types.PriceUpdate{}, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return types.PriceUpdate{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return types.PriceUpdate{}, err
	}
	if resp.StatusCode/100 != 2 {
		return types.PriceUpdate{}, fmt.Errorf("quote api status=%d", resp.StatusCode)
	}

	entry := gjson.GetBytes(body, "data."+mint)
	if !entry.Exists() {
		return types.PriceUpdate{}, fmt.Errorf("no quote for %s", mint)
	}
	price := entry.Get("price").Float()
	if price <= 0 {
		return types.PriceUpdate{}, fmt.Errorf("invalid price %f for %s", price, mint)
	}

	return types.PriceUpdate{
		Mint:      mint,
		Price:     price,
		Timestamp: time.Now(),
		Volume24h: entry.Get("volume24h").Float(),
		Change24h: entry.Get("change24h").Float(),
	}, nil
}
