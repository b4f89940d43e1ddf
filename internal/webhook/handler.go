// Package webhook receives WhatsApp Cloud API webhook events and drives
// the reply pipeline: extract text, ask the backend app (with
// conversation continuity), send the reply back, always acknowledge.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/relaykit/warelay/internal/store"
	"github.com/relaykit/warelay/internal/wacloud"
)

// ReplyFunc produces a reply for one inbound message via the backend
// app. ok is false when no usable reply was produced and the caller
// should fall back to echoing the inbound text.
type ReplyFunc func(ctx context.Context, appID, query string, inputs map[string]any, conversationKey string) (reply string, ok bool)

// SendFunc delivers one outbound text message, best effort.
type SendFunc func(ctx context.Context, to, body string)

// Settings holds the per-deployment webhook configuration.
type Settings struct {
	AccessToken   string
	PhoneNumberID string
	VerifyToken   string
	AppID         string // empty: no app configured, echo mode
}

// Handler is the webhook HTTP handler. Capabilities are injected so
// tests can substitute fakes for the bridge and the sender.
type Handler struct {
	settings Settings
	reply    ReplyFunc
	send     SendFunc
	trace    *Hub
}

// NewHandler creates a Handler over the given capability bundle.
// reply may be nil when no app is configured; trace may be nil.
func NewHandler(settings Settings, reply ReplyFunc, send SendFunc, trace *Hub) *Handler {
	settings.AccessToken = strings.TrimSpace(settings.AccessToken)
	settings.PhoneNumberID = strings.TrimSpace(settings.PhoneNumberID)
	settings.VerifyToken = strings.TrimSpace(settings.VerifyToken)
	return &Handler{settings: settings, reply: reply, send: send, trace: trace}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleVerify(w, r)
	case http.MethodPost:
		h.handleWebhook(w, r)
	default:
		plainText(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

// handleVerify answers Meta's subscription handshake by echoing
// hub.challenge when the verify token matches. Everything else,
// including a missing or empty configured token, is forbidden.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	mode := strings.TrimSpace(firstParam(query, "hub.mode", "mode"))
	token := strings.TrimSpace(firstParam(query, "hub.verify_token", "verify_token"))
	challenge, hasChallenge := lookupParam(query, "hub.challenge")

	if mode == "subscribe" && h.settings.VerifyToken != "" && token == h.settings.VerifyToken && hasChallenge {
		// Meta requires the raw challenge as plain text, not JSON.
		plainText(w, http.StatusOK, challenge)
		return
	}
	plainText(w, http.StatusForbidden, "Forbidden")
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		plainText(w, http.StatusBadRequest, "Bad Request")
		return
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		plainText(w, http.StatusBadRequest, "Bad Request")
		return
	}

	// Meta retries on anything but a 2xx, so irrelevant payloads —
	// including valid JSON that is not an object — are acknowledged
	// rather than rejected. 400 is reserved for unparseable bodies.
	obj, ok := parsed.(map[string]any)
	if !ok || len(obj) == 0 {
		plainText(w, http.StatusOK, "ok")
		return
	}
	if _, ok := obj["entry"]; !ok {
		plainText(w, http.StatusOK, "ok")
		return
	}

	var payload wacloud.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[Webhook] payload shape: %v", err)
		plainText(w, http.StatusOK, "ok")
		return
	}

	h.process(payload)
	plainText(w, http.StatusOK, "ok")
}

// process walks the payload and handles each message independently.
// One message failing (backend down, send rejected) never aborts the
// rest and never surfaces past the 200 acknowledgment.
func (h *Handler) process(payload wacloud.Payload) {
	canReply := h.settings.AccessToken != "" && h.settings.PhoneNumberID != ""

	// The ack is written after this walk either way; sends and backend
	// invocations run to their own timeouts, detached from the
	// request's lifetime.
	ctx := context.Background()

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, message := range change.Value.Messages {
				sender := message.From
				text, ok := message.TextContent()
				if sender == "" || !ok {
					continue
				}
				h.publish(Event{Kind: "inbound", From: sender, Detail: message.Type})

				replyText := ""
				if h.settings.AppID != "" && h.reply != nil {
					conversationKey := store.ConversationKey(h.settings.PhoneNumberID, sender)
					inputs := map[string]any{
						"whatsapp_user_id": sender,
						"phone_number_id":  h.settings.PhoneNumberID,
					}
					if reply, ok := h.reply(ctx, h.settings.AppID, text, inputs, conversationKey); ok {
						replyText = reply
					}
				}
				// No app configured, invocation failed, or empty
				// answer: echo the inbound text back.
				if replyText == "" {
					replyText = text
				}

				if canReply && replyText != "" && h.send != nil {
					h.send(ctx, sender, replyText)
					h.publish(Event{Kind: "reply", To: sender, Detail: replyText})
				}
			}
		}
	}
}

func (h *Handler) publish(evt Event) {
	if h.trace != nil {
		h.trace.Publish(evt)
	}
}

func plainText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

// firstParam returns the first non-empty query parameter among names.
// A present-but-empty alias falls through to the next name.
func firstParam(query url.Values, names ...string) string {
	for _, name := range names {
		if value := query.Get(name); value != "" {
			return value
		}
	}
	return ""
}

func lookupParam(query url.Values, name string) (string, bool) {
	if !query.Has(name) {
		return "", false
	}
	return query.Get(name), true
}
