package bot

import (
	"encoding/json"
	"io"
	"strconv"

	"brdatabot/internal/domain"
)

// TelegramUpdate is the subset of the Bot API update payload the engine
// consumes. Edited messages and channel posts are ignored.
type TelegramUpdate struct {
	UpdateID int64             `json:"update_id"`
	Message  *TelegramMessage  `json:"message"`
	Callback *TelegramCallback `json:"callback_query"`
}

type TelegramMessage struct {
	MessageID int64         `json:"message_id"`
	From      *TelegramUser `json:"from"`
	Chat      TelegramChat  `json:"chat"`
	Text      string        `json:"text"`
}

type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

type TelegramChat struct {
	ID int64 `json:"id"`
}

// TelegramCallback carries inline-keyboard button presses. Callback queries
// are acknowledged and logged but never routed as commands.
type TelegramCallback struct {
	ID      string           `json:"id"`
	From    *TelegramUser    `json:"from"`
	Message *TelegramMessage `json:"message"`
	Data    string           `json:"data"`
}

// DecodeTelegramUpdate parses a webhook body.
func DecodeTelegramUpdate(r io.Reader) (*TelegramUpdate, error) {
	var update TelegramUpdate
	if err := json.NewDecoder(r).Decode(&update); err != nil {
		return nil, err
	}
	return &update, nil
}

// Inbound normalizes the update into an engine message. The second return is
// false for update kinds the bot does not react to; callback queries fall in
// that bucket and are only logged by the webhook handler.
func (u *TelegramUpdate) Inbound(ip string) (Inbound, int64, bool) {
	if u.Message == nil || u.Message.From == nil {
		return Inbound{}, 0, false
	}
	return Inbound{
		Platform:  domain.PlatformTelegram,
		UserID:    strconv.FormatInt(u.Message.From.ID, 10),
		FirstName: u.Message.From.FirstName,
		LastName:  u.Message.From.LastName,
		Username:  u.Message.From.Username,
		Text:      u.Message.Text,
		IP:        ip,
	}, u.Message.Chat.ID, true
}

// TelegramReply builds the inline webhook answer. Responding to the webhook
// request itself with method=sendMessage saves the outbound API round trip.
func TelegramReply(chatID int64, text string) map[string]any {
	return map[string]any{
		"method":  "sendMessage",
		"chat_id": chatID,
		"text":    text,
	}
}
