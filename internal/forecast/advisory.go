package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// AdvisoryProvider is the port to an external advisory source. It turns
// a flat key/value snapshot of the current KPIs into a bounded list of
// suggestions. Implementations must degrade to an empty list rather
// than blocking the surrounding request.
type AdvisoryProvider interface {
	GenerateSuggestions(ctx context.Context, snapshot map[string]string) ([]Suggestion, error)
}

const (
	advisoryTimeout = 30 * time.Second
	advisoryRetries = 2
)

// advisoryBackoff returns the wait before retry n (1s, 2s).
func advisoryBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// HTTPAdvisoryProvider calls an advisory service over HTTP. The call is
// bounded by a timeout and a small retry count; any terminal failure is
// reported as an error for the caller to swallow.
type HTTPAdvisoryProvider struct {
	URL    string
	Client *http.Client
}

// NewHTTPAdvisoryProvider returns a provider for the given endpoint.
func NewHTTPAdvisoryProvider(url string) *HTTPAdvisoryProvider {
	return &HTTPAdvisoryProvider{
		URL: url,
		Client: &http.Client{
			Timeout: advisoryTimeout,
		},
	}
}

// GenerateSuggestions posts the snapshot and decodes the suggestion
// list, retrying transient failures with a short exponential backoff.
func (p *HTTPAdvisoryProvider) GenerateSuggestions(ctx context.Context, snapshot map[string]string) ([]Suggestion, error) {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("could not encode KPI snapshot: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= advisoryRetries; attempt++ {
		if attempt > 0 {
			wait := advisoryBackoff(attempt - 1)
			log.Debug().Dur("wait", wait).Int("attempt", attempt).Msg("retrying advisory provider")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		suggestions, err := p.call(ctx, body)
		if err == nil {
			if len(suggestions) > MaxSuggestions {
				suggestions = suggestions[:MaxSuggestions]
			}

			return suggestions, nil
		}

		lastErr = err
	}

	return nil, lastErr
}

func (p *HTTPAdvisoryProvider) call(ctx context.Context, body []byte) ([]Suggestion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("advisory provider returned status %d", resp.StatusCode)
	}

	var suggestions []Suggestion
	err = json.NewDecoder(resp.Body).Decode(&suggestions)
	if err != nil {
		return nil, fmt.Errorf("could not decode advisory response: %w", err)
	}

	return suggestions, nil
}
