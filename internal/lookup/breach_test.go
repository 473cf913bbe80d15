package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreachClientByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("missing API key short-circuits to ErrUnavailable", func(t *testing.T) {
		client := NewBreachClient("http://127.0.0.1:1", "", discardLogger())
		_, err := client.ByEmail(ctx, "user@example.com")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("200 decodes the breach list", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/breachedaccount/user@example.com", r.URL.Path)
			assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`[
				{"Name":"Adobe","Title":"Adobe","BreachDate":"2013-10-04","DataClasses":["Email addresses","Passwords"],"IsVerified":true}
			]`))
		}))
		defer srv.Close()

		client := NewBreachClient(srv.URL, "key-123", discardLogger())
		breaches, err := client.ByEmail(ctx, "user@example.com")
		require.NoError(t, err)
		require.Len(t, breaches, 1)
		assert.Equal(t, "Adobe", breaches[0].Name)
		assert.True(t, breaches[0].IsVerified)
	})

	t.Run("404 means a clean address, not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		client := NewBreachClient(srv.URL, "key-123", discardLogger())
		breaches, err := client.ByEmail(ctx, "user@example.com")
		require.NoError(t, err)
		assert.Empty(t, breaches)
	})

	t.Run("upstream 500 maps to ErrUnavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewBreachClient(srv.URL, "key-123", discardLogger())
		_, err := client.ByEmail(ctx, "user@example.com")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}
