package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransparenciaServantsByCPF(t *testing.T) {
	ctx := context.Background()

	t.Run("missing token short-circuits without a network call", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		client := NewTransparencia(srv.URL, "", discardLogger())
		_, err := client.ServantsByCPF(ctx, "12345678901")
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.False(t, called)
	})

	t.Run("records decoded on 200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api-de-dados/servidores", r.URL.Path)
			assert.Equal(t, "12345678901", r.URL.Query().Get("cpf"))
			assert.Equal(t, "token-123", r.Header.Get("chave-api-dados"))
			_, _ = w.Write([]byte(`[{"nome":"FULANO DE TAL","orgao":"MEC"}]`))
		}))
		defer srv.Close()

		client := NewTransparencia(srv.URL, "token-123", discardLogger())
		records, err := client.ServantsByCPF(ctx, "12345678901")
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("empty array maps to ErrNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		client := NewTransparencia(srv.URL, "token-123", discardLogger())
		_, err := client.ServantsByCPF(ctx, "12345678901")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTransparenciaBenefitsByCPF(t *testing.T) {
	ctx := context.Background()

	t.Run("partial upstream failure aggregates the successes", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.Contains(r.URL.Path, "bolsa-familia"):
				_, _ = w.Write([]byte(`[{"valor": 600}]`))
			default:
				w.WriteHeader(http.StatusInternalServerError)
			}
		}))
		defer srv.Close()

		client := NewTransparencia(srv.URL, "token-123", discardLogger())
		results, err := client.BenefitsByCPF(ctx, "12345678901")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Contains(t, results, "bolsa-familia-disponivel-por-cpf-ou-nis")
	})

	t.Run("all endpoints empty maps to ErrNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		client := NewTransparencia(srv.URL, "token-123", discardLogger())
		_, err := client.BenefitsByCPF(ctx, "12345678901")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("all endpoints failing maps to ErrNotFound, not error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := NewTransparencia(srv.URL, "token-123", discardLogger())
		_, err := client.BenefitsByCPF(ctx, "12345678901")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("all three endpoints are queried", func(t *testing.T) {
		var mu sync.Mutex
		seen := map[string]bool{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			seen[r.URL.Path] = true
			mu.Unlock()
			assert.Equal(t, "12345678901", r.URL.Query().Get("cpfOuNis"))
			_, _ = w.Write([]byte(`[{"ok":true}]`))
		}))
		defer srv.Close()

		client := NewTransparencia(srv.URL, "token-123", discardLogger())
		results, err := client.BenefitsByCPF(ctx, "12345678901")
		require.NoError(t, err)
		assert.Len(t, results, 3)
		assert.Len(t, seen, 3)
	})
}
