package query

import (
	"encoding/json"

	"brdatabot/internal/domain"
	"brdatabot/internal/lookup"
)

// CompanyResult is the outcome of a CNPJ lookup. Company is nil unless
// Status is success.
type CompanyResult struct {
	Status  domain.ResultStatus
	Company *lookup.Company
}

// AddressResult is the outcome of a postal-code lookup.
type AddressResult struct {
	Status  domain.ResultStatus
	Address *lookup.Address
}

// ServantsResult is the outcome of a public-servant lookup. Records carry the
// upstream payload untouched; rendering decides which fields to surface.
type ServantsResult struct {
	Status  domain.ResultStatus
	Records []json.RawMessage
}

// BenefitsResult is the outcome of a social-benefits lookup, keyed by the
// upstream source that answered. Sources only ever holds non-empty answers.
type BenefitsResult struct {
	Status  domain.ResultStatus
	Sources map[string]json.RawMessage
}

// BreachResult is the outcome of a leaked-data lookup. Safe is true when the
// upstream answered and found nothing, which is a success, not an absence.
type BreachResult struct {
	Status   domain.ResultStatus
	Safe     bool
	Breaches []lookup.Breach
}

// VehicleLink points a user at an official consultation channel.
type VehicleLink struct {
	Name string
	URL  string
}

// VehicleResult is the outcome of a plate query. No upstream is ever called;
// the user is redirected to the official channels instead.
type VehicleResult struct {
	Status domain.ResultStatus
	Plate  string
	Links  []VehicleLink
}

// vehicleLinks are the official consultation channels offered for plate
// queries. Vehicle registries expose no open API, so the service redirects.
var vehicleLinks = []VehicleLink{
	{Name: "SINESP Cidadão", URL: "https://www.gov.br/mj/pt-br/assuntos/sua-seguranca/seguranca-publica/sinesp/sinesp-cidadao"},
	{Name: "Consulta Detran", URL: "https://www.gov.br/pt-br/categorias/transito-e-transportes"},
	{Name: "Carteira Digital de Trânsito", URL: "https://portalservicos.senatran.serpro.gov.br/"},
}
