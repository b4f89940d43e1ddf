package tools

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/relaykit/warelay/internal/wacloud"
)

// SendMessageTool sends one WhatsApp text message through the Cloud
// API and reports the outcome. Unlike the webhook reply path this is
// caller-facing: every failure comes back structured and actionable.
type SendMessageTool struct {
	Sender *wacloud.Sender
}

func (t *SendMessageTool) Name() string { return "send_message" }
func (t *SendMessageTool) Description() string {
	return "Send a WhatsApp text message to a phone number via the Cloud API."
}
func (t *SendMessageTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to":   map[string]any{"type": "string", "description": "Recipient phone number (free-form, normalized to digits)"},
			"text": map[string]any{"type": "string", "description": "Message body"},
		},
		"required": []string{"to", "text"},
	}
}

func (t *SendMessageTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	to, _ := args["to"].(string)
	text, _ := args["text"].(string)

	receipt, err := t.Sender.SendChecked(ctx, to, text)
	if err != nil {
		log.Printf("[SendTool] send failed: %v", err)
		var apiErr *wacloud.APIError
		if errors.As(err, &apiErr) {
			return marshal(map[string]any{
				"error": apiErr,
				"hint":  apiErr.Hint(),
			})
		}
		return marshal(map[string]any{"error": err.Error()})
	}

	return marshal(map[string]any{
		"result":     "sent",
		"to":         receipt.To,
		"message_id": receipt.MessageID,
		"response":   receipt.Response,
		"summary":    receipt.Summary(),
	})
}

func marshal(v map[string]any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
