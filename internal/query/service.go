// Package query implements the lookup operations offered to bot users:
// validation, upstream calls and the anonymized audit trail around them.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"brdatabot/internal/domain"
	"brdatabot/internal/lookup"
	"brdatabot/internal/privacy"
	"brdatabot/internal/storage"
	"brdatabot/internal/validate"
	dErrors "brdatabot/pkg/domerrors"
)

// Subject identifies who is asking, for the anonymized query log. The raw
// identifiers never reach storage; they are hashed at append time.
type Subject struct {
	Platform domain.Platform
	UserID   string
	IP       string
}

// CompanyDirectory answers company and postal-code lookups.
type CompanyDirectory interface {
	CompanyByCNPJ(ctx context.Context, cnpj string) (*lookup.Company, error)
	AddressByCEP(ctx context.Context, cep string) (*lookup.Address, error)
}

// TransparencyDirectory answers public-servant and social-benefit lookups.
type TransparencyDirectory interface {
	ServantsByCPF(ctx context.Context, cpf string) ([]json.RawMessage, error)
	BenefitsByCPF(ctx context.Context, cpf string) (map[string]json.RawMessage, error)
}

// BreachDirectory answers leaked-data lookups by email address.
type BreachDirectory interface {
	ByEmail(ctx context.Context, email string) ([]lookup.Breach, error)
}

// Service orchestrates every user-facing lookup: it validates the input,
// calls the upstream adapter and appends one anonymized log entry per
// attempt. Log append failures never fail the lookup.
type Service struct {
	companies    CompanyDirectory
	transparency TransparencyDirectory
	breaches     BreachDirectory
	logs         storage.QueryLogStore
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures optional service behavior.
type Option func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New wires the lookup service. All directories are required.
func New(
	companies CompanyDirectory,
	transparency TransparencyDirectory,
	breaches BreachDirectory,
	logs storage.QueryLogStore,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		companies:    companies,
		transparency: transparency,
		breaches:     breaches,
		logs:         logs,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var errInvalidInput = dErrors.New(dErrors.CodeValidation, "invalid query input")

// CompanyByCNPJ looks up a company registry entry. The raw input may carry
// punctuation; anything that does not clean to 14 digits is rejected before
// the upstream is touched.
func (s *Service) CompanyByCNPJ(ctx context.Context, sub Subject, raw string) (CompanyResult, error) {
	cnpj, ok := validate.CNPJ(raw)
	if !ok {
		s.recordInvalid(ctx, sub, domain.QueryCNPJ, raw)
		return CompanyResult{}, errInvalidInput
	}

	company, status := run(ctx, s, sub, domain.QueryCNPJ, cnpj, func(ctx context.Context) (*lookup.Company, error) {
		return s.companies.CompanyByCNPJ(ctx, cnpj)
	})
	return CompanyResult{Status: status, Company: company}, nil
}

// AddressByCEP looks up a postal-code address.
func (s *Service) AddressByCEP(ctx context.Context, sub Subject, raw string) (AddressResult, error) {
	cep, ok := validate.CEP(raw)
	if !ok {
		s.recordInvalid(ctx, sub, domain.QueryCEP, raw)
		return AddressResult{}, errInvalidInput
	}

	address, status := run(ctx, s, sub, domain.QueryCEP, cep, func(ctx context.Context) (*lookup.Address, error) {
		return s.companies.AddressByCEP(ctx, cep)
	})
	return AddressResult{Status: status, Address: address}, nil
}

// ServantsByCPF looks up federal public-servant records for a CPF.
func (s *Service) ServantsByCPF(ctx context.Context, sub Subject, raw string) (ServantsResult, error) {
	cpf, ok := validate.CPF(raw)
	if !ok {
		s.recordInvalid(ctx, sub, domain.QueryServants, raw)
		return ServantsResult{}, errInvalidInput
	}

	records, status := run(ctx, s, sub, domain.QueryServants, cpf, func(ctx context.Context) ([]json.RawMessage, error) {
		return s.transparency.ServantsByCPF(ctx, cpf)
	})
	return ServantsResult{Status: status, Records: records}, nil
}

// BenefitsByCPF looks up social-benefit payments for a CPF or NIS.
func (s *Service) BenefitsByCPF(ctx context.Context, sub Subject, raw string) (BenefitsResult, error) {
	cpf, ok := validate.CPF(raw)
	if !ok {
		s.recordInvalid(ctx, sub, domain.QueryBenefits, raw)
		return BenefitsResult{}, errInvalidInput
	}

	sources, status := run(ctx, s, sub, domain.QueryBenefits, cpf, func(ctx context.Context) (map[string]json.RawMessage, error) {
		return s.transparency.BenefitsByCPF(ctx, cpf)
	})
	return BenefitsResult{Status: status, Sources: sources}, nil
}

// BreachesByEmail checks whether an email address appears in known leaks.
// An upstream answer of "no breaches" is a successful, safe result.
func (s *Service) BreachesByEmail(ctx context.Context, sub Subject, raw string) (BreachResult, error) {
	email, ok := validate.Email(raw)
	if !ok {
		s.recordInvalid(ctx, sub, domain.QueryBreach, raw)
		return BreachResult{}, errInvalidInput
	}

	breaches, status := run(ctx, s, sub, domain.QueryBreach, email, func(ctx context.Context) ([]lookup.Breach, error) {
		return s.breaches.ByEmail(ctx, email)
	})
	return BreachResult{
		Status:   status,
		Safe:     status == domain.StatusSuccess && len(breaches) == 0,
		Breaches: breaches,
	}, nil
}

// VehicleByPlate validates a plate and redirects the user to the official
// consultation channels. No upstream exists for plate data, so the attempt
// is logged as redirected rather than answered.
func (s *Service) VehicleByPlate(ctx context.Context, sub Subject, raw string) (VehicleResult, error) {
	plate, ok := validate.Plate(raw)
	if !ok {
		s.recordInvalid(ctx, sub, domain.QueryVehicle, raw)
		return VehicleResult{}, errInvalidInput
	}

	s.record(ctx, sub, domain.QueryVehicle, plate, domain.StatusRedirected, "", 0)
	return VehicleResult{
		Status: domain.StatusRedirected,
		Plate:  plate,
		Links:  vehicleLinks,
	}, nil
}

// RecordRateLimited appends an audit entry for an attempt the rate limiter
// rejected before any lookup ran.
func (s *Service) RecordRateLimited(ctx context.Context, sub Subject, qt domain.QueryType) {
	s.record(ctx, sub, qt, "", domain.StatusRateLimited, "", 0)
}

// run executes one upstream call with panic containment, maps the adapter
// error to a result status and appends the audit entry.
func run[T any](ctx context.Context, s *Service, sub Subject, qt domain.QueryType, input string, fn func(context.Context) (T, error)) (T, domain.ResultStatus) {
	start := s.now()

	var zero T
	out, err := func() (out T, err error) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.ErrorContext(ctx, "lookup panic recovered", "query_type", qt, "panic", r)
				err = lookup.ErrUnavailable
			}
		}()
		return fn(ctx)
	}()

	status := domain.StatusSuccess
	errMsg := ""
	switch {
	case err == nil:
	case errors.Is(err, lookup.ErrNotFound):
		status = domain.StatusNotFound
	default:
		status = domain.StatusError
		errMsg = dErrors.MessageOf(err)
	}

	s.record(ctx, sub, qt, input, status, errMsg, s.now().Sub(start))
	if err != nil {
		return zero, status
	}
	return out, status
}

func (s *Service) recordInvalid(ctx context.Context, sub Subject, qt domain.QueryType, input string) {
	s.record(ctx, sub, qt, input, domain.StatusError, "invalid input format", 0)
}

func (s *Service) record(ctx context.Context, sub Subject, qt domain.QueryType, input string, status domain.ResultStatus, errMsg string, elapsed time.Duration) {
	entry := domain.QueryLog{
		UserIDHash:     privacy.HashUserID(sub.UserID),
		Platform:       sub.Platform,
		QueryType:      qt,
		QueryInput:     maskInput(qt, input),
		ResultStatus:   status,
		ErrorMessage:   errMsg,
		ResponseTimeMS: elapsed.Milliseconds(),
		IPHash:         privacy.HashIP(sub.IP),
		CreatedAt:      s.now(),
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		// The audit trail is best effort; the user still gets an answer.
		s.logger.ErrorContext(ctx, "query log append failed", "query_type", qt, "error", err)
	}
}

// maskInput keeps personal identifiers out of the stored query input. CNPJ,
// CEP and plates are public registry keys and stay as-is.
func maskInput(qt domain.QueryType, input string) string {
	switch qt {
	case domain.QueryServants, domain.QueryBenefits:
		if len(input) > 3 {
			return input[:3] + strings.Repeat("*", len(input)-3)
		}
	case domain.QueryBreach:
		if at := strings.IndexByte(input, '@'); at > 0 {
			return input[:1] + "***" + input[at:]
		}
	}
	return input
}
