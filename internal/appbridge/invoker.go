package appbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ResponseModeBlocking asks the backend for a single synchronous answer.
const ResponseModeBlocking = "blocking"

// Request is one backend app invocation.
type Request struct {
	AppID          string         `json:"app_id"`
	Query          string         `json:"query"`
	Inputs         map[string]any `json:"inputs"`
	ResponseMode   string         `json:"response_mode"`
	ConversationID string         `json:"conversation_id,omitempty"`
}

// Response is the backend's answer. The reply text may arrive under
// different keys depending on the app type.
type Response struct {
	Answer         *string `json:"answer"`
	OutputText     *string `json:"output_text"`
	Message        *string `json:"message"`
	ConversationID string  `json:"conversation_id"`
}

// ReplyText returns the first usable reply field, trying answer, then
// output_text, then message. Empty strings are treated the same as
// absent so a blank backend answer falls through to the echo fallback.
func (r Response) ReplyText() (string, bool) {
	for _, field := range []*string{r.Answer, r.OutputText, r.Message} {
		if field != nil && *field != "" {
			return *field, true
		}
	}
	return "", false
}

// Invoker is the synchronous backend invocation capability.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Response, error)
}

// HTTPInvoker calls the backend over its blocking chat HTTP API.
type HTTPInvoker struct {
	URL    string
	APIKey string
	client *http.Client
}

// NewHTTPInvoker creates an invoker for the given backend endpoint.
func NewHTTPInvoker(url, apiKey string, timeout time.Duration) *HTTPInvoker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPInvoker{
		URL:    url,
		APIKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (i *HTTPInvoker) Invoke(ctx context.Context, invReq Request) (Response, error) {
	if i.URL == "" {
		return Response{}, fmt.Errorf("backend URL not configured")
	}

	body, err := json.Marshal(invReq)
	if err != nil {
		return Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", i.URL, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if i.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+i.APIKey)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("invoking backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, fmt.Errorf("backend returned HTTP %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decoding backend response: %w", err)
	}
	return out, nil
}
