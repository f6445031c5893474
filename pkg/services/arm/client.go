package arm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the public ARM endpoint.
	DefaultBaseURL = "https://management.azure.com"

	defaultScope = "https://management.azure.com/.default"

	// One initial attempt plus four retries backed off 1+2+4+8 seconds,
	// so a fully failing call blocks roughly 15s before degrading.
	defaultMaxAttempts = 5
)

// retryable statuses; anything else is terminal for the request.
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Response is the materialized result of a successful GET.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client issues bounded-retry authenticated GETs against the management
// surface. Transient failures never surface as errors: callers get absence
// and must treat it as unknown, not zero.
type Client struct {
	httpClient  *http.Client
	cred        azcore.TokenCredential
	scope       string
	maxAttempts int
	sleep       func(time.Duration)

	token       string
	tokenExpiry time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithScope(scope string) Option {
	return func(c *Client) { c.scope = scope }
}

func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func WithSleep(fn func(time.Duration)) Option {
	return func(c *Client) { c.sleep = fn }
}

// NewClient creates a management client. cred may be nil, in which case
// requests go out unauthenticated (mocked endpoints in tests).
func NewClient(cred azcore.TokenCredential, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		cred:        cred,
		scope:       defaultScope,
		maxAttempts: defaultMaxAttempts,
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify acquires an initial token. An authentication failure here is
// systemic and should abort the whole run, unlike per-request transport
// failures which only degrade to absence.
func (c *Client) Verify(ctx context.Context) error {
	if c.cred == nil {
		return nil
	}
	if _, err := c.bearer(ctx); err != nil {
		return fmt.Errorf("failed to acquire management token: %w", err)
	}
	return nil
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	if c.cred == nil {
		return "", nil
	}
	if c.token != "" && time.Until(c.tokenExpiry) > 2*time.Minute {
		return c.token, nil
	}
	tk, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{c.scope}})
	if err != nil {
		return "", err
	}
	c.token = tk.Token
	c.tokenExpiry = tk.ExpiresOn
	return c.token, nil
}

// Get issues an authenticated GET against target. Statuses in
// {429,500,502,503,504} are retried with exponential backoff (2^attempt
// seconds) up to the attempt bound; any other non-2xx status is terminal.
// All failure modes return ok=false.
func (c *Client) Get(ctx context.Context, target string) (Response, bool) {
	return c.get(ctx, target, nil)
}

func (c *Client) get(ctx context.Context, target string, extra map[string]string) (Response, bool) {
	logger := zerolog.Ctx(ctx)

	token, err := c.bearer(ctx)
	if err != nil {
		logger.Error().Err(err).Str("url", target).Msg("token acquisition failed")
		return Response{}, false
	}

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			c.sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			logger.Warn().Err(err).Str("url", target).Msg("failed to build request")
			return Response{}, false
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		req.Header.Set("Accept", "application/json")
		for k, v := range extra {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			logger.Warn().Err(err).Str("url", target).Int("attempt", attempt+1).
				Msg("request failed")
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if readErr != nil {
				logger.Warn().Err(readErr).Str("url", target).Msg("failed to read response body")
				return Response{}, false
			}
			return Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, true
		}

		if retryableStatus[resp.StatusCode] {
			logger.Warn().Int("status", resp.StatusCode).Str("url", target).
				Int("attempt", attempt+1).Msg("transient status, retrying")
			continue
		}

		logger.Debug().Int("status", resp.StatusCode).Str("url", target).
			Msg("terminal status")
		return Response{}, false
	}

	logger.Warn().Str("url", target).Int("attempts", c.maxAttempts).
		Msg("retry budget exhausted")
	return Response{}, false
}
