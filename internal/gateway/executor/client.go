package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"snatcher/internal/logger"
	"snatcher/internal/types"
)

// Per-operation timeouts. Submit waits for on-chain confirmation and is
// allowed to take far longer than the advisory calls.
const (
	simulateTimeout = 5 * time.Second
	preSignTimeout  = 10 * time.Second
	submitTimeout   = 30 * time.Second
	balanceTimeout  = 5 * time.Second
	busyTimeout     = 5 * time.Second
)

// Client talks to the execution service over REST.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

func NewClient(rawURL string) (*Client, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return nil, fmt.Errorf("executor base url cannot be empty")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing executor url failed: %w", err)
	}
	return &Client{
		baseURL: parsed,
		// Per-call deadlines come from contexts; the client itself has none.
		httpClient: &http.Client{},
	}, nil
}

// SetHTTPClient sets the HTTP client for testing.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) Simulate(ctx context.Context, intent types.TradeIntent) (SimResult, error) {
	ctx, cancel := context.WithTimeout(ctx, simulateTimeout)
	defer cancel()

	var res SimResult
	if err := c.doRequest(ctx, http.MethodPost, "/simulate", intent, &res); err != nil {
		return SimResult{}, err
	}
	return res, nil
}

func (c *Client) PreSign(ctx context.Context, accountID string, intent types.TradeIntent) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, preSignTimeout)
	defer cancel()

	payload := map[string]any{
		"walletId": accountID,
		"intent":   intent,
	}
	var res struct {
		Transaction string `json:"transaction"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/pre-sign", payload, &res); err != nil {
		return "", err
	}
	if res.Transaction == "" {
		return "", fmt.Errorf("executor returned empty transaction")
	}
	return res.Transaction, nil
}

func (c *Client) Submit(ctx context.Context, signedPayload string) (SubmitResult, error) {
	ctx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	payload := map[string]any{"transaction": signedPayload}
	var res SubmitResult
	if err := c.doRequest(ctx, http.MethodPost, "/submit", payload, &res); err != nil {
		return SubmitResult{}, err
	}
	return res, nil
}

func (c *Client) Balance(ctx context.Context, accountID string) float64 {
	ctx, cancel := context.WithTimeout(ctx, balanceTimeout)
	defer cancel()

	var res struct {
		Balance float64 `json:"balance"`
	}
	path := fmt.Sprintf("/wallet/%s/balance", url.PathEscape(accountID))
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &res); err != nil {
		logger.Warnf("executor: balance query for %s failed: %v", accountID, err)
		return 0
	}
	return res.Balance
}

func (c *Client) SetBusy(ctx context.Context, accountID string, busy bool) {
	ctx, cancel := context.WithTimeout(ctx, busyTimeout)
	defer cancel()

	payload := map[string]any{"busy": busy}
	path := fmt.Sprintf("/wallet/%s/busy", url.PathEscape(accountID))
	if err := c.doRequest(ctx, http.MethodPost, path, payload, nil); err != nil {
		logger.Warnf("executor: busy mirror for %s failed: %v", accountID, err)
	}
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload, out any) error {
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + path

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding request failed: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("executor %s %s status=%d body=%s", method, path, resp.StatusCode, truncate(data, 256))
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding executor response failed: %w", err)
	}
	return nil
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
