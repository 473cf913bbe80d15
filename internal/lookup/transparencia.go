package lookup

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"

	"brdatabot/internal/lookup/metrics"
)

// benefitEndpoints are the independent Portal da Transparência benefit
// sources. Each is queried with the same cpfOuNis parameter; whichever answer
// successfully are aggregated under their endpoint key.
var benefitEndpoints = []string{
	"bolsa-familia-disponivel-por-cpf-ou-nis",
	"auxilio-brasil-sacado-por-nis",
	"bpc-por-cpf-ou-nis",
}

// Transparencia queries the Portal da Transparência open-data API. All calls
// require an API token; when it is unset the client short-circuits to
// ErrUnavailable without touching the network.
type Transparencia struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// NewTransparencia constructs the client. An empty token disables it.
func NewTransparencia(baseURL, token string, logger *slog.Logger) *Transparencia {
	return &Transparencia{
		baseURL: baseURL,
		token:   token,
		http:    newHTTPClient(),
		logger:  logger,
	}
}

// ServantsByCPF returns the public-servant records for a cleaned 11-digit CPF.
// An empty result array from the upstream is reported as ErrNotFound.
func (c *Transparencia) ServantsByCPF(ctx context.Context, cpf string) ([]json.RawMessage, error) {
	if c.token == "" {
		c.logger.WarnContext(ctx, "portal da transparencia token not configured")
		metrics.RecordRequest("transparencia_servidores", "unavailable")
		return nil, ErrUnavailable
	}

	endpoint := c.baseURL + "/api-de-dados/servidores?" + url.Values{"cpf": {cpf}}.Encode()

	body, status, err := c.get(ctx, endpoint)
	if err != nil {
		metrics.RecordRequest("transparencia_servidores", "unavailable")
		return nil, ErrUnavailable
	}
	if status != http.StatusOK {
		c.logger.WarnContext(ctx, "transparencia unexpected status", "status", status)
		metrics.RecordRequest("transparencia_servidores", "unavailable")
		return nil, ErrUnavailable
	}

	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		metrics.RecordRequest("transparencia_servidores", "unavailable")
		return nil, ErrUnavailable
	}
	if len(records) == 0 {
		metrics.RecordRequest("transparencia_servidores", "not_found")
		return nil, ErrNotFound
	}

	metrics.RecordRequest("transparencia_servidores", "success")
	return records, nil
}

// BenefitsByCPF fans out to the three benefit endpoints concurrently and
// aggregates whichever succeed, keyed by endpoint name. Partial upstream
// failure never aborts the remaining queries; only a total absence of data is
// reported as ErrNotFound.
func (c *Transparencia) BenefitsByCPF(ctx context.Context, cpf string) (map[string]json.RawMessage, error) {
	if c.token == "" {
		c.logger.WarnContext(ctx, "portal da transparencia token not configured")
		metrics.RecordRequest("transparencia_beneficios", "unavailable")
		return nil, ErrUnavailable
	}

	var (
		mu      sync.Mutex
		results = make(map[string]json.RawMessage)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range benefitEndpoints {
		endpoint := c.baseURL + "/api-de-dados/" + name + "?" + url.Values{"cpfOuNis": {cpf}}.Encode()
		g.Go(func() error {
			body, status, err := c.get(gctx, endpoint)
			if err != nil || status != http.StatusOK {
				// Partial failure tolerated; the other endpoints keep going.
				c.logger.WarnContext(gctx, "benefit endpoint query failed",
					"endpoint", name,
					"status", status,
					"error", err,
				)
				return nil
			}

			var records []json.RawMessage
			if err := json.Unmarshal(body, &records); err != nil || len(records) == 0 {
				return nil
			}

			mu.Lock()
			results[name] = body
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors; they record partial failures

	if len(results) == 0 {
		metrics.RecordRequest("transparencia_beneficios", "not_found")
		return nil, ErrNotFound
	}

	metrics.RecordRequest("transparencia_beneficios", "success")
	return results, nil
}

func (c *Transparencia) get(ctx context.Context, endpoint string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("chave-api-dados", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
