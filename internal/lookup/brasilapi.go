package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"brdatabot/internal/lookup/metrics"
)

// Company is the normalized BrasilAPI CNPJ payload. Field names follow the
// upstream response; only the subset surfaced to users is decoded.
type Company struct {
	RazaoSocial         string          `json:"razao_social"`
	NomeFantasia        string          `json:"nome_fantasia"`
	CNPJ                string          `json:"cnpj"`
	SituacaoCadastral   string          `json:"descricao_situacao_cadastral"`
	DataInicioAtividade string          `json:"data_inicio_atividade"`
	NaturezaJuridica    string          `json:"natureza_juridica"`
	Porte               string          `json:"descricao_porte"`
	Logradouro          string          `json:"logradouro"`
	Numero              string          `json:"numero"`
	Complemento         string          `json:"complemento"`
	Bairro              string          `json:"bairro"`
	Municipio           string          `json:"municipio"`
	UF                  string          `json:"uf"`
	CEP                 string          `json:"cep"`
	Telefone            string          `json:"ddd_telefone_1"`
	Email               string          `json:"email"`
	Socios              json.RawMessage `json:"qsa"`
	AtividadePrincipal  string          `json:"cnae_fiscal_descricao"`
}

// Address is the normalized BrasilAPI CEP payload.
type Address struct {
	CEP          string `json:"cep"`
	State        string `json:"state"`
	City         string `json:"city"`
	Neighborhood string `json:"neighborhood"`
	Street       string `json:"street"`
}

// BrasilAPI queries brasilapi.com.br for company and postal-code data. No
// credential is required.
type BrasilAPI struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewBrasilAPI constructs the client. baseURL has no trailing slash.
func NewBrasilAPI(baseURL string, logger *slog.Logger) *BrasilAPI {
	return &BrasilAPI{
		baseURL: baseURL,
		http:    newHTTPClient(),
		logger:  logger,
	}
}

// CompanyByCNPJ looks up a company by its cleaned 14-digit CNPJ.
func (c *BrasilAPI) CompanyByCNPJ(ctx context.Context, cnpj string) (*Company, error) {
	url := fmt.Sprintf("%s/cnpj/v1/%s", c.baseURL, cnpj)

	var company Company
	if err := c.getJSON(ctx, "brasilapi_cnpj", url, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// AddressByCEP looks up an address by its cleaned 8-digit postal code.
func (c *BrasilAPI) AddressByCEP(ctx context.Context, cep string) (*Address, error) {
	url := fmt.Sprintf("%s/address/v2/%s", c.baseURL, cep)

	var address Address
	if err := c.getJSON(ctx, "brasilapi_cep", url, &address); err != nil {
		return nil, err
	}
	return &address, nil
}

func (c *BrasilAPI) getJSON(ctx context.Context, upstream, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ErrUnavailable
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "brasilapi request failed", "upstream", upstream, "error", err)
		metrics.RecordRequest(upstream, "unavailable")
		return ErrUnavailable
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			c.logger.WarnContext(ctx, "brasilapi response decode failed", "upstream", upstream, "error", err)
			metrics.RecordRequest(upstream, "unavailable")
			return ErrUnavailable
		}
		metrics.RecordRequest(upstream, "success")
		return nil
	case http.StatusNotFound:
		metrics.RecordRequest(upstream, "not_found")
		return ErrNotFound
	default:
		c.logger.WarnContext(ctx, "brasilapi unexpected status", "upstream", upstream, "status", resp.StatusCode)
		metrics.RecordRequest(upstream, "unavailable")
		return ErrUnavailable
	}
}
