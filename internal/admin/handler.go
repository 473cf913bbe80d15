// Package admin is the operator surface: dashboard aggregates, user and log
// listings, block management and rate resets. Every mutating action lands in
// the admin audit trail.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"brdatabot/internal/domain"
	"brdatabot/internal/governance"
	"brdatabot/internal/storage"
	dErrors "brdatabot/pkg/domerrors"
	"brdatabot/pkg/platform/httputil"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Handler serves the admin API. Mount it behind BasicAuth.
type Handler struct {
	users      storage.UserStore
	logs       storage.QueryLogStore
	blocked    storage.BlockedUserStore
	audit      storage.AdminLogStore
	governance *governance.Service
	logger     *slog.Logger

	username string
	password string
}

// NewHandler wires the admin surface.
func NewHandler(
	users storage.UserStore,
	logs storage.QueryLogStore,
	blocked storage.BlockedUserStore,
	audit storage.AdminLogStore,
	gov *governance.Service,
	username, password string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		users:      users,
		logs:       logs,
		blocked:    blocked,
		audit:      audit,
		governance: gov,
		logger:     logger,
		username:   username,
		password:   password,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Use(BasicAuth(h.username, h.password, h.logger))

	r.Get("/dashboard", h.handleDashboard)
	r.Get("/users", h.handleListUsers)
	r.Get("/logs", h.handleListLogs)
	r.Get("/blocked-users", h.handleListBlocked)
	r.Get("/actions", h.handleListActions)
	r.Post("/users/block", h.handleBlock)
	r.Post("/users/unblock", h.handleUnblock)
	r.Post("/users/rate-reset", h.handleRateReset)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalUsers, err := h.users.Count(ctx)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "count users"))
		return
	}
	totalQueries, err := h.logs.Count(ctx)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "count queries"))
		return
	}
	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	queriesToday, err := h.logs.CountSince(ctx, midnight)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "count queries today"))
		return
	}
	blockedCount, err := h.blocked.Count(ctx)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "count blocked users"))
		return
	}
	avgMS, err := h.logs.AvgResponseTimeMS(ctx)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "average response time"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, domain.DashboardStats{
		TotalUsers:        totalUsers,
		TotalQueries:      totalQueries,
		QueriesToday:      queriesToday,
		BlockedUsers:      blockedCount,
		AvgResponseTimeMS: avgMS,
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list users"))
		return
	}
	total, err := h.users.Count(r.Context())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "count users"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"users": users, "total": total})
}

func (h *Handler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	logs, err := h.logs.List(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list query logs"))
		return
	}
	total, err := h.logs.Count(r.Context())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "count query logs"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"logs": logs, "total": total})
}

func (h *Handler) handleListBlocked(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	blocked, err := h.blocked.List(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list blocked users"))
		return
	}
	total, err := h.blocked.Count(r.Context())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "count blocked users"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"blocked_users": blocked, "total": total})
}

func (h *Handler) handleListActions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	actions, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list admin actions"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"actions": actions})
}

type blockRequest struct {
	UserID          string `json:"user_id"`
	Platform        string `json:"platform"`
	Reason          string `json:"reason"`
	DurationSeconds int64  `json:"duration_seconds"` // 0 = permanent
}

func (h *Handler) handleBlock(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[blockRequest](w, r, h.logger)
	if !ok {
		return
	}
	platform, err := parseTarget(req.UserID, req.Platform)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ctx := r.Context()
	duration := time.Duration(req.DurationSeconds) * time.Second
	if err := h.governance.Block(ctx, req.Platform, req.UserID, req.Reason, duration); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "apply block flag"))
		return
	}

	blocked := domain.BlockedUser{
		UserID:    req.UserID,
		Platform:  platform,
		Reason:    req.Reason,
		BlockedBy: AdminUsername(ctx),
		BlockedAt: time.Now().UTC(),
	}
	if duration > 0 {
		until := blocked.BlockedAt.Add(duration)
		blocked.UnblockAt = &until
	}
	if err := h.blocked.Insert(ctx, blocked); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "persist block record"))
		return
	}

	// The user row only exists after a first message; absence is fine.
	if err := h.users.SetBlocked(ctx, platform, req.UserID, true, req.Reason); err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.logger.WarnContext(ctx, "failed to flag user row as blocked", "error", err)
	}

	h.recordAction(ctx, "block_user", req.UserID, fmt.Sprintf("platform=%s reason=%s duration_s=%d", req.Platform, req.Reason, req.DurationSeconds))
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "blocked"})
}

type unblockRequest struct {
	UserID   string `json:"user_id"`
	Platform string `json:"platform"`
}

func (h *Handler) handleUnblock(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[unblockRequest](w, r, h.logger)
	if !ok {
		return
	}
	platform, err := parseTarget(req.UserID, req.Platform)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ctx := r.Context()
	if err := h.governance.Unblock(ctx, req.Platform, req.UserID); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "clear block flag"))
		return
	}
	if err := h.blocked.Delete(ctx, platform, req.UserID); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "delete block record"))
		return
	}
	if err := h.users.SetBlocked(ctx, platform, req.UserID, false, ""); err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.logger.WarnContext(ctx, "failed to clear user row block flag", "error", err)
	}

	h.recordAction(ctx, "unblock_user", req.UserID, "platform="+req.Platform)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "unblocked"})
}

func (h *Handler) handleRateReset(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[unblockRequest](w, r, h.logger)
	if !ok {
		return
	}
	if _, err := parseTarget(req.UserID, req.Platform); err != nil {
		httputil.WriteError(w, err)
		return
	}

	ctx := r.Context()
	if err := h.governance.ResetRate(ctx, req.Platform, req.UserID); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "reset rate counter"))
		return
	}

	h.recordAction(ctx, "rate_reset", req.UserID, "platform="+req.Platform)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) recordAction(ctx context.Context, action, target, details string) {
	entry := domain.AdminLog{
		ID:            uuid.NewString(),
		AdminUsername: AdminUsername(ctx),
		Action:        action,
		TargetUserID:  target,
		Details:       details,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.audit.Append(ctx, entry); err != nil {
		h.logger.ErrorContext(ctx, "admin audit append failed", "action", action, "error", err)
	}
}

func parseTarget(userID, platform string) (domain.Platform, error) {
	if userID == "" {
		return "", dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	p := domain.Platform(platform)
	if !p.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "platform must be telegram or whatsapp")
	}
	return p, nil
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxPageSize)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
