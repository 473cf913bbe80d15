package httptransport

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"brdatabot/internal/platform/redis"
	"brdatabot/pkg/platform/httputil"
)

// HealthHandler serves liveness and dependency status. /health is a cheap
// liveness answer; /status pings each dependency and reports per-component
// state without failing the endpoint.
type HealthHandler struct {
	db        *sql.DB
	redis     *redis.Client
	startedAt time.Time
}

// NewHealthHandler wires the health endpoints. Either dependency may be nil
// when not configured.
func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb, startedAt: time.Now()}
}

func (h *HealthHandler) Register(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/status", h.handleStatus)
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *HealthHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	components := map[string]string{
		"database": "not_configured",
		"redis":    "not_configured",
	}
	status := "healthy"

	if h.db != nil {
		components["database"] = "up"
		if err := h.db.PingContext(ctx); err != nil {
			components["database"] = "down"
			status = "degraded"
		}
	}
	if h.redis != nil {
		components["redis"] = "up"
		if err := h.redis.Health(ctx); err != nil {
			components["redis"] = "down"
			status = "degraded"
		}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":         status,
		"components":     components,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}
