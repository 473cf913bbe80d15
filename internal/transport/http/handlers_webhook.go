package httptransport

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"brdatabot/internal/bot"
	"brdatabot/pkg/platform/httputil"
)

// WebhookHandler receives platform callbacks. Both webhooks always
// acknowledge with 2xx once the payload is parseable: the platforms retry
// non-2xx answers, and a poison message must not loop forever.
type WebhookHandler struct {
	engine      *bot.Engine
	sender      bot.Sender
	verifyToken string
	logger      *slog.Logger
}

// NewWebhookHandler wires the webhook endpoints. verifyToken answers the
// WhatsApp subscription handshake.
func NewWebhookHandler(engine *bot.Engine, sender bot.Sender, verifyToken string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		engine:      engine,
		sender:      sender,
		verifyToken: verifyToken,
		logger:      logger,
	}
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Post("/webhook/telegram", h.handleTelegram)
	r.Get("/webhook/telegram", h.handleTelegramInfo)
	r.Post("/webhook/whatsapp", h.handleWhatsApp)
	r.Get("/webhook/whatsapp", h.handleWhatsAppVerify)
}

// handleTelegram answers the webhook request itself with a sendMessage
// payload, so no outbound Telegram API call is needed.
func (h *WebhookHandler) handleTelegram(w http.ResponseWriter, r *http.Request) {
	update, err := bot.DecodeTelegramUpdate(r.Body)
	if err != nil {
		h.logger.WarnContext(r.Context(), "malformed telegram update", "error", err)
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	if update.Callback != nil {
		h.logger.InfoContext(r.Context(), "callback query acknowledged without processing",
			"callback_id", update.Callback.ID,
		)
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	in, chatID, ok := update.Inbound(clientIP(r))
	if !ok {
		httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	reply := h.engine.Handle(r.Context(), in)
	httputil.WriteJSON(w, http.StatusOK, bot.TelegramReply(chatID, reply))
}

func (h *WebhookHandler) handleTelegramInfo(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"webhook": "telegram", "status": "active"})
}

// handleWhatsApp replies through the Cloud API sender; the webhook answer
// itself only acknowledges receipt.
func (h *WebhookHandler) handleWhatsApp(w http.ResponseWriter, r *http.Request) {
	payload, err := bot.DecodeWhatsAppPayload(r.Body)
	if err != nil {
		h.logger.WarnContext(r.Context(), "malformed whatsapp payload", "error", err)
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	if n := payload.Interactives(); n > 0 {
		h.logger.InfoContext(r.Context(), "interactive replies acknowledged without processing", "count", n)
	}
	for _, in := range payload.Inbounds(clientIP(r)) {
		reply := h.engine.Handle(r.Context(), in)
		_ = h.sender.SendText(r.Context(), in.UserID, reply)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// handleWhatsAppVerify implements the Meta subscription handshake: echo the
// numeric challenge when the verify token matches, 403 otherwise.
func (h *WebhookHandler) handleWhatsAppVerify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "subscribe" || token != h.verifyToken {
		h.logger.WarnContext(r.Context(), "whatsapp webhook verification rejected", "mode", mode)
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}

	n, err := strconv.Atoi(challenge)
	if err != nil {
		http.Error(w, "invalid challenge", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(strconv.Itoa(n)))
}

// clientIP strips the port from RemoteAddr. Behind the RealIP middleware the
// address already reflects X-Forwarded-For.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
