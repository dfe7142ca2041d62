package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/calendar-weather/internal/weather"
)

// HTTPClientConfig bundles the HTTP client and circuit breaker shared by a provider.
type HTTPClientConfig struct {
	Client  *http.Client
	Circuit *gobreaker.CircuitBreaker
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// maxBodyBytes caps provider responses; forecasts for a few weeks are far smaller.
const maxBodyBytes = 2 << 20

func newCircuit(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// getJSON performs a single guarded GET and decodes the JSON body into out.
// Retries belong to the caller's retry policy.
func getJSON(ctx context.Context, cfg HTTPClientConfig, rawURL string, out any) error {
	if cfg.Client == nil {
		return fmt.Errorf("%w: %v", weather.ErrTransport, errNoHTTPClient)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", weather.ErrInvalidEndpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	execute := func() (any, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}

		// Handle rate limiting and server errors explicitly.
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, errServerError
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}
		return resp, nil
	}

	var result any
	if cfg.Circuit != nil {
		result, err = cfg.Circuit.Execute(execute)
	} else {
		result, err = execute()
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v: %v", weather.ErrTransport, errCircuitOpen, err)
		}
		return fmt.Errorf("%w: %v", weather.ErrTransport, err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return fmt.Errorf("%w: unexpected result type from circuit breaker", weather.ErrTransport)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", weather.ErrTransport, err)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: empty body", weather.ErrMalformedPayload)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", weather.ErrDecode, err)
	}
	return nil
}
