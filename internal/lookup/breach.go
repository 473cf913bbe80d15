package lookup

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"brdatabot/internal/lookup/metrics"
)

// Breach is one leaked-credential incident tied to an email address.
type Breach struct {
	Name        string   `json:"Name"`
	Title       string   `json:"Title"`
	BreachDate  string   `json:"BreachDate"`
	DataClasses []string `json:"DataClasses"`
	IsVerified  bool     `json:"IsVerified"`
	IsSensitive bool     `json:"IsSensitive"`
	IsRetired   bool     `json:"IsRetired"`
	IsSpamList  bool     `json:"IsSpamList"`
	LogoPath    string   `json:"LogoPath"`
}

// BreachClient queries a Have I Been Pwned shaped breach database. A 404 from
// the upstream means the address is clean, which is a successful answer, not
// a missing record.
type BreachClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// NewBreachClient constructs the client. An empty API key disables it.
func NewBreachClient(baseURL, apiKey string, logger *slog.Logger) *BreachClient {
	return &BreachClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    newHTTPClient(),
		logger:  logger,
	}
}

// ByEmail returns the known breaches for an email address. An empty slice
// with a nil error means the address was not found in any breach.
func (c *BreachClient) ByEmail(ctx context.Context, email string) ([]Breach, error) {
	if c.apiKey == "" {
		c.logger.WarnContext(ctx, "breach API key not configured")
		metrics.RecordRequest("breach", "unavailable")
		return nil, ErrUnavailable
	}

	endpoint := c.baseURL + "/breachedaccount/" + url.PathEscape(email)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, ErrUnavailable
	}
	req.Header.Set("User-Agent", "br-data-bot/1.0")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "breach API request failed", "error", err)
		metrics.RecordRequest("breach", "unavailable")
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var breaches []Breach
		if err := json.NewDecoder(resp.Body).Decode(&breaches); err != nil {
			metrics.RecordRequest("breach", "unavailable")
			return nil, ErrUnavailable
		}
		metrics.RecordRequest("breach", "success")
		return breaches, nil
	case http.StatusNotFound:
		// Clean address: the subject simply has no known breaches.
		metrics.RecordRequest("breach", "success")
		return []Breach{}, nil
	default:
		c.logger.WarnContext(ctx, "breach API unexpected status", "status", resp.StatusCode)
		metrics.RecordRequest("breach", "unavailable")
		return nil, ErrUnavailable
	}
}
