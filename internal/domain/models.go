// Package domain holds the persistent model types shared by storage, services
// and the admin surface.
package domain

import "time"

// Platform identifies which chat surface a user arrived from.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformWhatsApp Platform = "whatsapp"
)

// IsValid checks the platform is one of the supported enum values.
func (p Platform) IsValid() bool {
	return p == PlatformTelegram || p == PlatformWhatsApp
}

// QueryType classifies a lookup for logging and aggregation.
type QueryType string

const (
	QueryCNPJ     QueryType = "cnpj"
	QueryServants QueryType = "servidores"
	QueryBenefits QueryType = "beneficios"
	QueryVehicle  QueryType = "veicular"
	QueryBreach   QueryType = "dados_vazados"
	QueryCEP      QueryType = "cep"
)

// ResultStatus records how a lookup attempt concluded.
type ResultStatus string

const (
	StatusSuccess     ResultStatus = "success"
	StatusNotFound    ResultStatus = "not_found"
	StatusError       ResultStatus = "error"
	StatusRateLimited ResultStatus = "rate_limited"
	StatusRedirected  ResultStatus = "redirected"
)

// User is the per-platform identity record, upserted on every inbound message.
type User struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"user_id"`
	Platform        Platform  `json:"platform"`
	FirstName       string    `json:"first_name,omitempty"`
	LastName        string    `json:"last_name,omitempty"`
	Username        string    `json:"username,omitempty"`
	PhoneNumber     string    `json:"phone_number,omitempty"`
	AcceptedTerms   bool      `json:"accepted_terms"`
	Blocked         bool      `json:"blocked"`
	BlockReason     string    `json:"block_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	LastInteraction time.Time `json:"last_interaction"`
}

// QueryLog is the anonymized, append-only record of one lookup attempt.
// It never carries raw identifiers; UserIDHash and IPHash are one-way hashes.
type QueryLog struct {
	ID             int64        `json:"id"`
	UserIDHash     string       `json:"user_id_hash"`
	Platform       Platform     `json:"platform"`
	QueryType      QueryType    `json:"query_type"`
	QueryInput     string       `json:"query_input,omitempty"`
	ResultStatus   ResultStatus `json:"result_status"`
	ErrorMessage   string       `json:"error_message,omitempty"`
	ResponseTimeMS int64        `json:"response_time_ms"`
	IPHash         string       `json:"ip_address_hash"`
	CreatedAt      time.Time    `json:"created_at"`
}

// BlockedUser is the durable record of an admin or governance block.
type BlockedUser struct {
	ID        int64      `json:"id"`
	UserID    string     `json:"user_id"`
	Platform  Platform   `json:"platform"`
	Reason    string     `json:"reason"`
	BlockedBy string     `json:"blocked_by"`
	BlockedAt time.Time  `json:"blocked_at"`
	UnblockAt *time.Time `json:"unblock_at,omitempty"` // nil = permanent
}

// AdminLog is the append-only audit trail of admin actions.
type AdminLog struct {
	ID            string    `json:"id"`
	AdminUsername string    `json:"admin_username"`
	Action        string    `json:"action"`
	TargetUserID  string    `json:"target_user_id,omitempty"`
	Details       string    `json:"details,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// DashboardStats is the aggregate view served to the admin dashboard.
type DashboardStats struct {
	TotalUsers        int64   `json:"total_users"`
	TotalQueries      int64   `json:"total_queries"`
	QueriesToday      int64   `json:"queries_today"`
	BlockedUsers      int64   `json:"blocked_users"`
	AvgResponseTimeMS float64 `json:"avg_response_time_ms"`
}
