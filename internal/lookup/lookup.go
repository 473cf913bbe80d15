// Package lookup wraps the external public-data APIs. Every client maps HTTP
// 200 to a decoded payload, 404 to ErrNotFound and anything else (including
// network failure and missing credentials) to ErrUnavailable, so callers never
// see upstream detail.
package lookup

import (
	"net/http"
	"time"

	dErrors "brdatabot/pkg/domerrors"
)

// Timeout bounds every upstream call. A hung upstream must not hold a request
// slot beyond this.
const Timeout = 10 * time.Second

var (
	// ErrNotFound means the upstream answered and explicitly has no record.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "record not found upstream")
	// ErrUnavailable means the upstream could not be queried: non-2xx status,
	// network failure, timeout or missing credential.
	ErrUnavailable = dErrors.New(dErrors.CodeUnavailable, "upstream unavailable")
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: Timeout}
}
