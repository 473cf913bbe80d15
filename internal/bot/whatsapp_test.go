package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brdatabot/internal/domain"
)

func TestDecodeWhatsAppPayload(t *testing.T) {
	t.Run("text message with contact name", func(t *testing.T) {
		body := `{
			"object": "whatsapp_business_account",
			"entry": [{
				"id": "123",
				"changes": [{
					"field": "messages",
					"value": {
						"messaging_product": "whatsapp",
						"contacts": [{"wa_id": "5511999990000", "profile": {"name": "João"}}],
						"messages": [{
							"from": "5511999990000",
							"id": "wamid.x",
							"type": "text",
							"text": {"body": "/menu"}
						}]
					}
				}]
			}]
		}`

		payload, err := DecodeWhatsAppPayload(strings.NewReader(body))
		require.NoError(t, err)

		inbounds := payload.Inbounds("198.51.100.4")
		require.Len(t, inbounds, 1)
		assert.Equal(t, domain.PlatformWhatsApp, inbounds[0].Platform)
		assert.Equal(t, "5511999990000", inbounds[0].UserID)
		assert.Equal(t, "João", inbounds[0].FirstName)
		assert.Equal(t, "/menu", inbounds[0].Text)
	})

	t.Run("interactive replies are counted but never routed", func(t *testing.T) {
		body := `{
			"object": "whatsapp_business_account",
			"entry": [{
				"changes": [{
					"field": "messages",
					"value": {
						"messages": [{
							"from": "5511999990000",
							"type": "interactive",
							"interactive": {
								"type": "button_reply",
								"button_reply": {"id": "/consulta_cnpj", "title": "Consultar CNPJ"}
							}
						}]
					}
				}]
			}]
		}`

		payload, err := DecodeWhatsAppPayload(strings.NewReader(body))
		require.NoError(t, err)

		assert.Empty(t, payload.Inbounds("198.51.100.4"))
		assert.Equal(t, 1, payload.Interactives())
	})

	t.Run("status-only deliveries produce nothing", func(t *testing.T) {
		body := `{
			"object": "whatsapp_business_account",
			"entry": [{
				"changes": [{"field": "statuses", "value": {}}]
			}]
		}`

		payload, err := DecodeWhatsAppPayload(strings.NewReader(body))
		require.NoError(t, err)
		assert.Empty(t, payload.Inbounds("198.51.100.4"))
	})
}

func TestCloudSenderSendText(t *testing.T) {
	t.Run("posts the cloud API envelope", func(t *testing.T) {
		var got cloudTextMessage
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/555000111/messages", r.URL.Path)
			assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.y"}]}`))
		}))
		defer srv.Close()

		sender := NewCloudSender(srv.URL, "555000111", "token-abc")
		err := sender.SendText(context.Background(), "5511999990000", "olá")
		require.NoError(t, err)
		assert.Equal(t, "whatsapp", got.MessagingProduct)
		assert.Equal(t, "5511999990000", got.To)
		assert.Equal(t, "text", got.Type)
		assert.Equal(t, "olá", got.Text.Body)
	})

	t.Run("non-2xx surfaces an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"invalid token"}}`, http.StatusUnauthorized)
		}))
		defer srv.Close()

		sender := NewCloudSender(srv.URL, "555000111", "bad-token")
		err := sender.SendText(context.Background(), "5511999990000", "olá")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}
