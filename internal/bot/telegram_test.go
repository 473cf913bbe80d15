package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brdatabot/internal/domain"
)

func TestDecodeTelegramUpdate(t *testing.T) {
	t.Run("text message", func(t *testing.T) {
		body := `{
			"update_id": 42,
			"message": {
				"message_id": 7,
				"from": {"id": 1001, "first_name": "Maria", "last_name": "Silva", "username": "maria"},
				"chat": {"id": 1001},
				"text": "/consulta_cnpj 11222333000181"
			}
		}`

		update, err := DecodeTelegramUpdate(strings.NewReader(body))
		require.NoError(t, err)

		in, chatID, ok := update.Inbound("203.0.113.7")
		require.True(t, ok)
		assert.Equal(t, domain.PlatformTelegram, in.Platform)
		assert.Equal(t, "1001", in.UserID)
		assert.Equal(t, "Maria", in.FirstName)
		assert.Equal(t, "/consulta_cnpj 11222333000181", in.Text)
		assert.Equal(t, int64(1001), chatID)
	})

	t.Run("callback query is never routed as a command", func(t *testing.T) {
		body := `{
			"update_id": 43,
			"callback_query": {
				"id": "abc",
				"from": {"id": 1001, "first_name": "Maria"},
				"message": {"message_id": 8, "chat": {"id": 555}},
				"data": "/menu"
			}
		}`

		update, err := DecodeTelegramUpdate(strings.NewReader(body))
		require.NoError(t, err)
		require.NotNil(t, update.Callback)
		assert.Equal(t, "/menu", update.Callback.Data)

		_, _, ok := update.Inbound("203.0.113.7")
		assert.False(t, ok)
	})

	t.Run("update without actionable content is skipped", func(t *testing.T) {
		update, err := DecodeTelegramUpdate(strings.NewReader(`{"update_id": 44}`))
		require.NoError(t, err)

		_, _, ok := update.Inbound("203.0.113.7")
		assert.False(t, ok)
	})

	t.Run("malformed body errors", func(t *testing.T) {
		_, err := DecodeTelegramUpdate(strings.NewReader(`{not json`))
		assert.Error(t, err)
	})
}

func TestTelegramReply(t *testing.T) {
	reply := TelegramReply(1001, "olá")
	assert.Equal(t, "sendMessage", reply["method"])
	assert.Equal(t, int64(1001), reply["chat_id"])
	assert.Equal(t, "olá", reply["text"])
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		input string
		cmd   string
		arg   string
	}{
		{"/start", "/start", ""},
		{"/consulta_cnpj 11222333000181", "/consulta_cnpj", "11222333000181"},
		{"/start@MeuBot", "/start", ""},
		{"/cep  01001000 ", "/cep", "01001000"},
	}
	for _, tc := range tests {
		cmd, arg := splitCommand(tc.input)
		assert.Equal(t, tc.cmd, cmd, tc.input)
		assert.Equal(t, tc.arg, arg, tc.input)
	}
}
