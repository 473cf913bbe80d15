package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"brdatabot/internal/domain"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// InitSchema creates the tables when they do not exist yet. Kept as plain DDL
// rather than a migration tool; the schema is small and append-mostly.
func InitSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS users (
	id               BIGSERIAL PRIMARY KEY,
	user_id          VARCHAR(255) NOT NULL,
	platform         VARCHAR(20)  NOT NULL,
	first_name       VARCHAR(255),
	last_name        VARCHAR(255),
	username         VARCHAR(255),
	phone_number     VARCHAR(20),
	accepted_terms   BOOLEAN NOT NULL DEFAULT FALSE,
	blocked          BOOLEAN NOT NULL DEFAULT FALSE,
	block_reason     TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_interaction TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, platform)
);

CREATE TABLE IF NOT EXISTS query_logs (
	id               BIGSERIAL PRIMARY KEY,
	user_id_hash     VARCHAR(255) NOT NULL,
	platform         VARCHAR(20)  NOT NULL,
	query_type       VARCHAR(50)  NOT NULL,
	query_input      VARCHAR(255),
	result_status    VARCHAR(50)  NOT NULL,
	error_message    TEXT,
	response_time_ms BIGINT NOT NULL DEFAULT 0,
	ip_address_hash  VARCHAR(255),
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS blocked_users (
	id         BIGSERIAL PRIMARY KEY,
	user_id    VARCHAR(255) NOT NULL,
	platform   VARCHAR(20)  NOT NULL,
	reason     TEXT NOT NULL,
	blocked_by VARCHAR(255),
	blocked_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	unblock_at TIMESTAMPTZ,
	UNIQUE (user_id, platform)
);

CREATE TABLE IF NOT EXISTS admin_logs (
	id             UUID PRIMARY KEY,
	admin_username VARCHAR(255) NOT NULL,
	action         VARCHAR(255) NOT NULL,
	target_user_id VARCHAR(255),
	details        TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// PostgresUserStore implements UserStore over database/sql.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) Upsert(ctx context.Context, user domain.User) error {
	query := `
		INSERT INTO users (user_id, platform, first_name, last_name, username, phone_number, accepted_terms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			username = EXCLUDED.username,
			updated_at = now(),
			last_interaction = now()
	`
	_, err := s.db.ExecContext(ctx, query,
		user.UserID,
		user.Platform,
		nullable(user.FirstName),
		nullable(user.LastName),
		nullable(user.Username),
		nullable(user.PhoneNumber),
		user.AcceptedTerms,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) Find(ctx context.Context, platform domain.Platform, userID string) (domain.User, error) {
	query := `
		SELECT id, user_id, platform, COALESCE(first_name, ''), COALESCE(last_name, ''),
		       COALESCE(username, ''), COALESCE(phone_number, ''), accepted_terms,
		       blocked, COALESCE(block_reason, ''), created_at, updated_at, last_interaction
		FROM users WHERE user_id = $1 AND platform = $2
	`
	var u domain.User
	err := s.db.QueryRowContext(ctx, query, userID, platform).Scan(
		&u.ID, &u.UserID, &u.Platform, &u.FirstName, &u.LastName,
		&u.Username, &u.PhoneNumber, &u.AcceptedTerms,
		&u.Blocked, &u.BlockReason, &u.CreatedAt, &u.UpdatedAt, &u.LastInteraction,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *PostgresUserStore) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	query := `
		SELECT id, user_id, platform, COALESCE(first_name, ''), COALESCE(last_name, ''),
		       COALESCE(username, ''), COALESCE(phone_number, ''), accepted_terms,
		       blocked, COALESCE(block_reason, ''), created_at, updated_at, last_interaction
		FROM users ORDER BY id LIMIT $1 OFFSET $2
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.ID, &u.UserID, &u.Platform, &u.FirstName, &u.LastName,
			&u.Username, &u.PhoneNumber, &u.AcceptedTerms,
			&u.Blocked, &u.BlockReason, &u.CreatedAt, &u.UpdatedAt, &u.LastInteraction,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresUserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *PostgresUserStore) SetBlocked(ctx context.Context, platform domain.Platform, userID string, blocked bool, reason string) error {
	query := `
		UPDATE users SET blocked = $1, block_reason = $2, updated_at = now()
		WHERE user_id = $3 AND platform = $4
	`
	res, err := s.db.ExecContext(ctx, query, blocked, nullable(reason), userID, platform)
	if err != nil {
		return fmt.Errorf("set blocked: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresQueryLogStore implements QueryLogStore.
type PostgresQueryLogStore struct {
	db *sql.DB
}

func NewPostgresQueryLogStore(db *sql.DB) *PostgresQueryLogStore {
	return &PostgresQueryLogStore{db: db}
}

func (s *PostgresQueryLogStore) Append(ctx context.Context, entry domain.QueryLog) error {
	query := `
		INSERT INTO query_logs (user_id_hash, platform, query_type, query_input, result_status, error_message, response_time_ms, ip_address_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.UserIDHash,
		entry.Platform,
		entry.QueryType,
		nullable(entry.QueryInput),
		entry.ResultStatus,
		nullable(entry.ErrorMessage),
		entry.ResponseTimeMS,
		nullable(entry.IPHash),
	)
	if err != nil {
		return fmt.Errorf("append query log: %w", err)
	}
	return nil
}

func (s *PostgresQueryLogStore) List(ctx context.Context, limit, offset int) ([]domain.QueryLog, error) {
	query := `
		SELECT id, user_id_hash, platform, query_type, COALESCE(query_input, ''),
		       result_status, COALESCE(error_message, ''), response_time_ms,
		       COALESCE(ip_address_hash, ''), created_at
		FROM query_logs ORDER BY id DESC LIMIT $1 OFFSET $2
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list query logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.QueryLog{}
	for rows.Next() {
		var l domain.QueryLog
		if err := rows.Scan(
			&l.ID, &l.UserIDHash, &l.Platform, &l.QueryType, &l.QueryInput,
			&l.ResultStatus, &l.ErrorMessage, &l.ResponseTimeMS, &l.IPHash, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan query log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *PostgresQueryLogStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM query_logs`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count query logs: %w", err)
	}
	return n, nil
}

func (s *PostgresQueryLogStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM query_logs WHERE created_at >= $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count query logs since: %w", err)
	}
	return n, nil
}

func (s *PostgresQueryLogStore) AvgResponseTimeMS(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `SELECT AVG(response_time_ms) FROM query_logs`).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("avg response time: %w", err)
	}
	return avg.Float64, nil
}

// PostgresBlockedUserStore implements BlockedUserStore.
type PostgresBlockedUserStore struct {
	db *sql.DB
}

func NewPostgresBlockedUserStore(db *sql.DB) *PostgresBlockedUserStore {
	return &PostgresBlockedUserStore{db: db}
}

func (s *PostgresBlockedUserStore) Insert(ctx context.Context, blocked domain.BlockedUser) error {
	query := `
		INSERT INTO blocked_users (user_id, platform, reason, blocked_by, unblock_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			reason = EXCLUDED.reason,
			blocked_by = EXCLUDED.blocked_by,
			blocked_at = now(),
			unblock_at = EXCLUDED.unblock_at
	`
	_, err := s.db.ExecContext(ctx, query,
		blocked.UserID,
		blocked.Platform,
		blocked.Reason,
		nullable(blocked.BlockedBy),
		blocked.UnblockAt,
	)
	if err != nil {
		return fmt.Errorf("insert blocked user: %w", err)
	}
	return nil
}

func (s *PostgresBlockedUserStore) Delete(ctx context.Context, platform domain.Platform, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM blocked_users WHERE user_id = $1 AND platform = $2`, userID, platform)
	if err != nil {
		return fmt.Errorf("delete blocked user: %w", err)
	}
	return nil
}

func (s *PostgresBlockedUserStore) List(ctx context.Context, limit, offset int) ([]domain.BlockedUser, error) {
	query := `
		SELECT id, user_id, platform, reason, COALESCE(blocked_by, ''), blocked_at, unblock_at
		FROM blocked_users ORDER BY blocked_at DESC LIMIT $1 OFFSET $2
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list blocked users: %w", err)
	}
	defer rows.Close()

	blocked := []domain.BlockedUser{}
	for rows.Next() {
		var b domain.BlockedUser
		if err := rows.Scan(&b.ID, &b.UserID, &b.Platform, &b.Reason, &b.BlockedBy, &b.BlockedAt, &b.UnblockAt); err != nil {
			return nil, fmt.Errorf("scan blocked user: %w", err)
		}
		blocked = append(blocked, b)
	}
	return blocked, rows.Err()
}

func (s *PostgresBlockedUserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocked_users`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count blocked users: %w", err)
	}
	return n, nil
}

// PostgresAdminLogStore implements AdminLogStore.
type PostgresAdminLogStore struct {
	db *sql.DB
}

func NewPostgresAdminLogStore(db *sql.DB) *PostgresAdminLogStore {
	return &PostgresAdminLogStore{db: db}
}

func (s *PostgresAdminLogStore) Append(ctx context.Context, entry domain.AdminLog) error {
	query := `
		INSERT INTO admin_logs (id, admin_username, action, target_user_id, details)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.AdminUsername,
		entry.Action,
		nullable(entry.TargetUserID),
		nullable(entry.Details),
	)
	if err != nil {
		return fmt.Errorf("append admin log: %w", err)
	}
	return nil
}

func (s *PostgresAdminLogStore) List(ctx context.Context, limit, offset int) ([]domain.AdminLog, error) {
	query := `
		SELECT id, admin_username, action, COALESCE(target_user_id, ''), COALESCE(details, ''), created_at
		FROM admin_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list admin logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.AdminLog{}
	for rows.Next() {
		var l domain.AdminLog
		if err := rows.Scan(&l.ID, &l.AdminUsername, &l.Action, &l.TargetUserID, &l.Details, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan admin log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
