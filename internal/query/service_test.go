package query

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"brdatabot/internal/domain"
	"brdatabot/internal/lookup"
	"brdatabot/internal/storage"
	dErrors "brdatabot/pkg/domerrors"
)

type stubCompanies struct {
	company *lookup.Company
	address *lookup.Address
	err     error
}

func (s *stubCompanies) CompanyByCNPJ(ctx context.Context, cnpj string) (*lookup.Company, error) {
	return s.company, s.err
}

func (s *stubCompanies) AddressByCEP(ctx context.Context, cep string) (*lookup.Address, error) {
	return s.address, s.err
}

type stubTransparency struct {
	servants []json.RawMessage
	benefits map[string]json.RawMessage
	err      error
}

func (s *stubTransparency) ServantsByCPF(ctx context.Context, cpf string) ([]json.RawMessage, error) {
	return s.servants, s.err
}

func (s *stubTransparency) BenefitsByCPF(ctx context.Context, cpf string) (map[string]json.RawMessage, error) {
	return s.benefits, s.err
}

type stubBreaches struct {
	breaches []lookup.Breach
	err      error
}

func (s *stubBreaches) ByEmail(ctx context.Context, email string) ([]lookup.Breach, error) {
	return s.breaches, s.err
}

type ServiceSuite struct {
	suite.Suite

	companies    *stubCompanies
	transparency *stubTransparency
	breaches     *stubBreaches
	logs         *storage.InMemoryQueryLogStore
	service      *Service
	subject      Subject
}

func (s *ServiceSuite) SetupTest() {
	s.companies = &stubCompanies{}
	s.transparency = &stubTransparency{}
	s.breaches = &stubBreaches{}
	s.logs = storage.NewInMemoryQueryLogStore()
	s.service = New(
		s.companies, s.transparency, s.breaches, s.logs,
		slog.New(slog.DiscardHandler),
	)
	s.subject = Subject{Platform: domain.PlatformTelegram, UserID: "12345", IP: "203.0.113.9"}
}

func (s *ServiceSuite) lastEntry() domain.QueryLog {
	entries := s.logs.Entries()
	s.Require().NotEmpty(entries)
	return entries[len(entries)-1]
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestCompanyByCNPJSuccess() {
	s.companies.company = &lookup.Company{RazaoSocial: "ACME LTDA", CNPJ: "11222333000181"}

	result, err := s.service.CompanyByCNPJ(context.Background(), s.subject, "11.222.333/0001-81")
	s.Require().NoError(err)
	s.Equal(domain.StatusSuccess, result.Status)
	s.Equal("ACME LTDA", result.Company.RazaoSocial)

	entry := s.lastEntry()
	s.Equal(domain.QueryCNPJ, entry.QueryType)
	s.Equal(domain.StatusSuccess, entry.ResultStatus)
	s.Equal("11222333000181", entry.QueryInput)
	s.NotEqual("12345", entry.UserIDHash)
	s.NotContains(entry.IPHash, "203.0.113.9")
}

func (s *ServiceSuite) TestCompanyByCNPJNotFound() {
	s.companies.err = lookup.ErrNotFound

	result, err := s.service.CompanyByCNPJ(context.Background(), s.subject, "11222333000181")
	s.Require().NoError(err)
	s.Equal(domain.StatusNotFound, result.Status)
	s.Nil(result.Company)
	s.Equal(domain.StatusNotFound, s.lastEntry().ResultStatus)
}

func (s *ServiceSuite) TestCompanyByCNPJUpstreamDown() {
	s.companies.err = lookup.ErrUnavailable

	result, err := s.service.CompanyByCNPJ(context.Background(), s.subject, "11222333000181")
	s.Require().NoError(err)
	s.Equal(domain.StatusError, result.Status)

	entry := s.lastEntry()
	s.Equal(domain.StatusError, entry.ResultStatus)
	s.NotEmpty(entry.ErrorMessage)
}

func (s *ServiceSuite) TestInvalidCNPJRejectedBeforeUpstream() {
	s.companies.err = errors.New("must not be called")

	_, err := s.service.CompanyByCNPJ(context.Background(), s.subject, "123")
	s.Require().Error(err)
	s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))

	entry := s.lastEntry()
	s.Equal(domain.StatusError, entry.ResultStatus)
	s.Equal("invalid input format", entry.ErrorMessage)
}

func (s *ServiceSuite) TestServantsMasksStoredCPF() {
	s.transparency.servants = []json.RawMessage{json.RawMessage(`{"nome":"FULANO"}`)}

	result, err := s.service.ServantsByCPF(context.Background(), s.subject, "123.456.789-09")
	s.Require().NoError(err)
	s.Equal(domain.StatusSuccess, result.Status)
	s.Len(result.Records, 1)
	s.Equal("123********", s.lastEntry().QueryInput)
}

func (s *ServiceSuite) TestBenefitsPartialSourcesStillSucceed() {
	s.transparency.benefits = map[string]json.RawMessage{
		"bolsa-familia-disponivel-por-cpf-ou-nis": json.RawMessage(`[{"valor":600}]`),
	}

	result, err := s.service.BenefitsByCPF(context.Background(), s.subject, "12345678909")
	s.Require().NoError(err)
	s.Equal(domain.StatusSuccess, result.Status)
	s.Len(result.Sources, 1)
	s.Contains(result.Sources, "bolsa-familia-disponivel-por-cpf-ou-nis")
}

func (s *ServiceSuite) TestBreachCleanAddressIsSafeSuccess() {
	s.breaches.breaches = []lookup.Breach{}

	result, err := s.service.BreachesByEmail(context.Background(), s.subject, "user@example.com")
	s.Require().NoError(err)
	s.Equal(domain.StatusSuccess, result.Status)
	s.True(result.Safe)
	s.Empty(result.Breaches)
	s.Equal("u***@example.com", s.lastEntry().QueryInput)
}

func (s *ServiceSuite) TestBreachCompromisedAddress() {
	s.breaches.breaches = []lookup.Breach{{Name: "Adobe"}}

	result, err := s.service.BreachesByEmail(context.Background(), s.subject, "user@example.com")
	s.Require().NoError(err)
	s.Equal(domain.StatusSuccess, result.Status)
	s.False(result.Safe)
	s.Len(result.Breaches, 1)
}

func (s *ServiceSuite) TestVehicleAlwaysRedirects() {
	result, err := s.service.VehicleByPlate(context.Background(), s.subject, "abc-1234")
	s.Require().NoError(err)
	s.Equal(domain.StatusRedirected, result.Status)
	s.Equal("ABC1234", result.Plate)
	s.Len(result.Links, 3)
	s.Equal(domain.StatusRedirected, s.lastEntry().ResultStatus)
}

func (s *ServiceSuite) TestPanickingAdapterContained() {
	s.service = New(
		panicCompanies{}, s.transparency, s.breaches, s.logs,
		slog.New(slog.DiscardHandler),
	)

	result, err := s.service.CompanyByCNPJ(context.Background(), s.subject, "11222333000181")
	s.Require().NoError(err)
	s.Equal(domain.StatusError, result.Status)
	s.Equal(domain.StatusError, s.lastEntry().ResultStatus)
}

type panicCompanies struct{}

func (panicCompanies) CompanyByCNPJ(ctx context.Context, cnpj string) (*lookup.Company, error) {
	panic("adapter bug")
}

func (panicCompanies) AddressByCEP(ctx context.Context, cep string) (*lookup.Address, error) {
	panic("adapter bug")
}

type failingLogStore struct{}

func (failingLogStore) Append(ctx context.Context, entry domain.QueryLog) error {
	return errors.New("database down")
}
func (failingLogStore) List(ctx context.Context, limit, offset int) ([]domain.QueryLog, error) {
	return nil, errors.New("database down")
}
func (failingLogStore) Count(ctx context.Context) (int64, error) {
	return 0, errors.New("database down")
}
func (failingLogStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return 0, errors.New("database down")
}
func (failingLogStore) AvgResponseTimeMS(ctx context.Context) (float64, error) {
	return 0, errors.New("database down")
}

func TestLogAppendFailureDoesNotFailLookup(t *testing.T) {
	service := New(
		&stubCompanies{company: &lookup.Company{RazaoSocial: "ACME LTDA"}},
		&stubTransparency{}, &stubBreaches{}, failingLogStore{},
		slog.New(slog.DiscardHandler),
	)

	result, err := service.CompanyByCNPJ(
		context.Background(),
		Subject{Platform: domain.PlatformWhatsApp, UserID: "551199", IP: "198.51.100.4"},
		"11222333000181",
	)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, result.Status)
	assert.Equal(t, "ACME LTDA", result.Company.RazaoSocial)
}
