package bot

import (
	"encoding/json"
	"io"

	"brdatabot/internal/domain"
)

// WhatsAppPayload is the Cloud API webhook envelope. Only message change
// events are consumed; status updates and other fields are ignored.
type WhatsAppPayload struct {
	Object string          `json:"object"`
	Entry  []WhatsAppEntry `json:"entry"`
}

type WhatsAppEntry struct {
	ID      string           `json:"id"`
	Changes []WhatsAppChange `json:"changes"`
}

type WhatsAppChange struct {
	Field string        `json:"field"`
	Value WhatsAppValue `json:"value"`
}

type WhatsAppValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Contacts         []WhatsAppContact `json:"contacts"`
	Messages         []WhatsAppMessage `json:"messages"`
}

type WhatsAppContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type WhatsAppMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
		ListReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list_reply"`
	} `json:"interactive"`
}

// DecodeWhatsAppPayload parses a webhook body.
func DecodeWhatsAppPayload(r io.Reader) (*WhatsAppPayload, error) {
	var payload WhatsAppPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Inbounds normalizes every plain-text message in the payload. One webhook
// delivery can batch messages from several users. Interactive replies and
// status updates never produce an inbound.
func (p *WhatsAppPayload) Inbounds(ip string) []Inbound {
	var inbounds []Inbound
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}

			names := make(map[string]string, len(change.Value.Contacts))
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}

			for _, msg := range change.Value.Messages {
				text, ok := messageText(msg)
				if !ok {
					continue
				}
				inbounds = append(inbounds, Inbound{
					Platform:  domain.PlatformWhatsApp,
					UserID:    msg.From,
					FirstName: names[msg.From],
					Phone:     msg.From,
					Text:      text,
					IP:        ip,
				})
			}
		}
	}
	return inbounds
}

// messageText extracts the body of a plain text message. Every other message
// kind, interactive button and list replies included, is acknowledged without
// being routed.
func messageText(msg WhatsAppMessage) (string, bool) {
	if msg.Type == "text" && msg.Text != nil {
		return msg.Text.Body, true
	}
	return "", false
}

// Interactives counts button and list replies across the payload so the
// webhook handler can record that they were received and skipped.
func (p *WhatsAppPayload) Interactives() int {
	var n int
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, msg := range change.Value.Messages {
				if msg.Type == "interactive" {
					n++
				}
			}
		}
	}
	return n
}
