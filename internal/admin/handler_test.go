package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"brdatabot/internal/domain"
	"brdatabot/internal/governance"
	"brdatabot/internal/storage"
)

type HandlerSuite struct {
	suite.Suite

	users   *storage.InMemoryUserStore
	logs    *storage.InMemoryQueryLogStore
	blocked *storage.InMemoryBlockedUserStore
	audit   *storage.InMemoryAdminLogStore
	gov     *governance.Service
	router  http.Handler
}

func (s *HandlerSuite) SetupTest() {
	s.users = storage.NewInMemoryUserStore()
	s.logs = storage.NewInMemoryQueryLogStore()
	s.blocked = storage.NewInMemoryBlockedUserStore()
	s.audit = storage.NewInMemoryAdminLogStore()

	logger := slog.New(slog.DiscardHandler)
	gov, err := governance.New(governance.NewMemoryStore(), 2, time.Minute, governance.WithLogger(logger))
	s.Require().NoError(err)
	s.gov = gov

	handler := NewHandler(s.users, s.logs, s.blocked, s.audit, gov, "admin", "s3cret", logger)
	r := chi.NewRouter()
	r.Route("/api/admin", handler.Register)
	s.router = r
}

func (s *HandlerSuite) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.SetBasicAuth("admin", "s3cret")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) TestRejectsMissingCredentials() {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Contains(rec.Header().Get("WWW-Authenticate"), "Basic")
}

func (s *HandlerSuite) TestRejectsWrongPassword() {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.SetBasicAuth("admin", "wrong")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestDashboardAggregates() {
	ctx := context.Background()
	s.Require().NoError(s.users.Upsert(ctx, domain.User{UserID: "1001", Platform: domain.PlatformTelegram}))
	s.Require().NoError(s.logs.Append(ctx, domain.QueryLog{
		QueryType:      domain.QueryCNPJ,
		ResultStatus:   domain.StatusSuccess,
		ResponseTimeMS: 120,
	}))
	s.Require().NoError(s.logs.Append(ctx, domain.QueryLog{
		QueryType:      domain.QueryBreach,
		ResultStatus:   domain.StatusNotFound,
		ResponseTimeMS: 80,
	}))

	rec := s.request(http.MethodGet, "/api/admin/dashboard", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var stats domain.DashboardStats
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &stats))
	s.Equal(int64(1), stats.TotalUsers)
	s.Equal(int64(2), stats.TotalQueries)
	s.Equal(int64(2), stats.QueriesToday)
	s.Zero(stats.BlockedUsers)
	s.InDelta(100.0, stats.AvgResponseTimeMS, 0.01)
}

func (s *HandlerSuite) TestBlockUser() {
	ctx := context.Background()
	s.Require().NoError(s.users.Upsert(ctx, domain.User{UserID: "1001", Platform: domain.PlatformTelegram}))

	rec := s.request(http.MethodPost, "/api/admin/users/block",
		`{"user_id":"1001","platform":"telegram","reason":"abuse","duration_seconds":3600}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	s.True(s.gov.IsBlocked(ctx, "telegram", "1001"))

	records, err := s.blocked.List(ctx, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal("abuse", records[0].Reason)
	s.Equal("admin", records[0].BlockedBy)
	s.Require().NotNil(records[0].UnblockAt)

	user, err := s.users.Find(ctx, domain.PlatformTelegram, "1001")
	s.Require().NoError(err)
	s.True(user.Blocked)
	s.Equal("abuse", user.BlockReason)

	actions, err := s.audit.List(ctx, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(actions, 1)
	s.Equal("block_user", actions[0].Action)
	s.Equal("admin", actions[0].AdminUsername)
	s.NotEmpty(actions[0].ID)
}

func (s *HandlerSuite) TestBlockUserWithoutRowStillBlocks() {
	rec := s.request(http.MethodPost, "/api/admin/users/block",
		`{"user_id":"2002","platform":"whatsapp","reason":"spam"}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.True(s.gov.IsBlocked(context.Background(), "whatsapp", "2002"))

	records, err := s.blocked.List(context.Background(), 10, 0)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Nil(records[0].UnblockAt)
}

func (s *HandlerSuite) TestBlockRejectsUnknownPlatform() {
	rec := s.request(http.MethodPost, "/api/admin/users/block",
		`{"user_id":"1001","platform":"signal","reason":"abuse"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestUnblockUser() {
	ctx := context.Background()
	s.request(http.MethodPost, "/api/admin/users/block",
		`{"user_id":"1001","platform":"telegram","reason":"abuse"}`)
	s.Require().True(s.gov.IsBlocked(ctx, "telegram", "1001"))

	rec := s.request(http.MethodPost, "/api/admin/users/unblock",
		`{"user_id":"1001","platform":"telegram"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	s.False(s.gov.IsBlocked(ctx, "telegram", "1001"))
	count, err := s.blocked.Count(ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *HandlerSuite) TestRateReset() {
	ctx := context.Background()
	// Exhaust the 2-request quota.
	s.gov.Check(ctx, "telegram", "1001")
	s.gov.Check(ctx, "telegram", "1001")
	s.False(s.gov.Check(ctx, "telegram", "1001").Allowed)

	rec := s.request(http.MethodPost, "/api/admin/users/rate-reset",
		`{"user_id":"1001","platform":"telegram"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	s.True(s.gov.Check(ctx, "telegram", "1001").Allowed)

	actions, err := s.audit.List(ctx, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(actions, 1)
	s.Equal("rate_reset", actions[0].Action)
}

func (s *HandlerSuite) TestLogListingPagination() {
	ctx := context.Background()
	for range 5 {
		s.Require().NoError(s.logs.Append(ctx, domain.QueryLog{QueryType: domain.QueryCNPJ, ResultStatus: domain.StatusSuccess}))
	}

	rec := s.request(http.MethodGet, "/api/admin/logs?limit=2&offset=4", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var body struct {
		Logs  []domain.QueryLog `json:"logs"`
		Total int64             `json:"total"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Len(body.Logs, 1)
	s.Equal(int64(5), body.Total)
}
