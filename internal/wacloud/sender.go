package wacloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the Graph API host used unless overridden (tests
// point BaseURL at an httptest server).
const DefaultBaseURL = "https://graph.facebook.com"

// APIVersion is the Graph API version the sender targets.
const APIVersion = "v24.0"

const (
	bestEffortTimeout = 10 * time.Second
	checkedTimeout    = 20 * time.Second
)

// Receipt is the result of a successful checked send.
type Receipt struct {
	To        string         `json:"to"`
	MessageID string         `json:"message_id,omitempty"`
	Response  map[string]any `json:"response,omitempty"`
}

// Summary renders the one-line human-readable outcome.
func (r Receipt) Summary() string {
	if r.MessageID != "" {
		return fmt.Sprintf("sent to %s (id: %s)", r.To, r.MessageID)
	}
	return fmt.Sprintf("sent to %s", r.To)
}

// Sender issues text messages through the WhatsApp Cloud API.
type Sender struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string

	bestEffort *http.Client
	checked    *http.Client
}

// NewSender creates a Sender for the given credentials.
func NewSender(accessToken, phoneNumberID string) *Sender {
	return &Sender{
		AccessToken:   accessToken,
		PhoneNumberID: phoneNumberID,
		BaseURL:       DefaultBaseURL,
		bestEffort:    &http.Client{Timeout: bestEffortTimeout},
		checked:       &http.Client{Timeout: checkedTimeout},
	}
}

// NormalizeRecipient strips every non-digit byte from a phone string.
// The Cloud API expects the full international number without '+'.
func NormalizeRecipient(raw string) string {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}

func (s *Sender) messagesURL() string {
	base := s.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return fmt.Sprintf("%s/%s/%s/messages", base, APIVersion, s.PhoneNumberID)
}

func (s *Sender) newRequest(ctx context.Context, to, body string) (*http.Request, error) {
	payload, err := json.Marshal(map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", s.messagesURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	return req, nil
}

// BestEffortSend delivers one text message and discards the outcome.
// This is the webhook reply path: the webhook has already been
// acknowledged, so there is nobody left to report a failure to. Errors
// are logged and swallowed here on purpose, not by accident.
func (s *Sender) BestEffortSend(ctx context.Context, to, body string) {
	req, err := s.newRequest(ctx, to, body)
	if err != nil {
		log.Printf("[Sender] best-effort send to %s: %v", to, err)
		return
	}
	resp, err := s.bestEffort.Do(req)
	if err != nil {
		log.Printf("[Sender] best-effort send to %s: %v", to, err)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[Sender] best-effort send to %s: HTTP %d", to, resp.StatusCode)
	}
}

// SendChecked delivers one text message and reports the outcome.
// The recipient is normalized to digits only before sending. Missing
// credentials or parameters fail before any network call.
func (s *Sender) SendChecked(ctx context.Context, to, text string) (Receipt, error) {
	accessToken := strings.TrimSpace(s.AccessToken)
	phoneNumberID := strings.TrimSpace(s.PhoneNumberID)
	if accessToken == "" || phoneNumberID == "" {
		return Receipt{}, fmt.Errorf("missing WhatsApp credentials (access_token: %v, phone_number_id: %v)",
			accessToken != "", phoneNumberID != "")
	}

	toRaw := strings.TrimSpace(to)
	text = strings.TrimSpace(text)
	if toRaw == "" || text == "" {
		return Receipt{}, fmt.Errorf("missing required parameters: to, text")
	}
	recipient := NormalizeRecipient(toRaw)

	req, err := s.newRequest(ctx, recipient, text)
	if err != nil {
		return Receipt{}, err
	}
	log.Printf("[Sender] send_request url=%s to=%s", s.messagesURL(), recipient)

	resp, err := s.checked.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()

	body := decodeBody(resp.Body)
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	log.Printf("[Sender] send_response status=%d ok=%v", resp.StatusCode, ok)

	if !ok {
		if apiErr := extractAPIError(body); apiErr != nil {
			apiErr.Status = resp.StatusCode
			return Receipt{}, apiErr
		}
		return Receipt{}, fmt.Errorf("failed to send message: HTTP %d", resp.StatusCode)
	}

	return Receipt{
		To:        recipient,
		MessageID: messageID(body),
		Response:  body,
	}, nil
}

// decodeBody parses a response body as JSON, falling back to a map
// holding the first 500 bytes of raw text when the body is not JSON.
func decodeBody(r io.Reader) map[string]any {
	raw, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return map[string]any{}
	}
	var body map[string]any
	if json.Unmarshal(raw, &body) == nil && body != nil {
		return body
	}
	text := string(raw)
	if len(text) > 500 {
		text = text[:500]
	}
	return map[string]any{"text": text}
}

// messageID extracts messages[0].id from a send response, if present.
func messageID(body map[string]any) string {
	msgs, _ := body["messages"].([]any)
	if len(msgs) == 0 {
		return ""
	}
	first, _ := msgs[0].(map[string]any)
	id, _ := first["id"].(string)
	return id
}
