package trains

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// FeedSource yields the current train records from the real-time feed.
type FeedSource interface {
	Fetch(ctx context.Context) ([]FeedRecord, error)
}

type feedEnvelope struct {
	Trains []FeedRecord `json:"trains"`
}

// HTTPFeedSource polls a JSON endpoint that returns {"trains": [...]}.
type HTTPFeedSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPFeedSource(url string, timeout time.Duration) *HTTPFeedSource {
	return &HTTPFeedSource{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFeedSource) Fetch(ctx context.Context) ([]FeedRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}

	var env feedEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return env.Trains, nil
}
