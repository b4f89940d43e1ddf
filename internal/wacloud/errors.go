package wacloud

import (
	"fmt"
	"strings"
)

// APIError is the structured error shape the Graph API returns under
// the "error" key of a non-2xx response.
type APIError struct {
	Status       int    `json:"status,omitempty"`
	Code         int    `json:"code"`
	Type         string `json:"type,omitempty"`
	Message      string `json:"message,omitempty"`
	ErrorSubcode int    `json:"error_subcode,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error %d (code %d): %s", e.Status, e.Code, e.Message)
}

// Hint maps common Graph API errors for WhatsApp Cloud to an
// actionable remediation.
func (e *APIError) Hint() string {
	switch {
	case e.Code == 190:
		return "Invalid or expired access token. Recreate a system user token with proper permissions."
	case e.Code == 100:
		return "Invalid parameters. Verify 'phone_number_id' and that 'to' is a valid international number."
	case e.ErrorSubcode == 2018049 || e.ErrorSubcode == 131000 || e.ErrorSubcode == 131031:
		return "Recipient has not messaged your business recently or is not opted-in. " +
			"Ensure a recent user-initiated session or use an approved template."
	case strings.Contains(e.Message, "Unsupported post request"):
		return "Check that the phone_number_id belongs to your app and Business Account."
	}
	return "Check Business Account setup, permissions (whatsapp_business_messaging), and recipient format (E.164 without '+')."
}

// extractAPIError pulls the structured error out of a response body,
// or nil when the body carries none.
func extractAPIError(body map[string]any) *APIError {
	raw, ok := body["error"].(map[string]any)
	if !ok {
		return nil
	}
	apiErr := &APIError{}
	if code, ok := raw["code"].(float64); ok {
		apiErr.Code = int(code)
	}
	if sub, ok := raw["error_subcode"].(float64); ok {
		apiErr.ErrorSubcode = int(sub)
	}
	apiErr.Type, _ = raw["type"].(string)
	apiErr.Message, _ = raw["message"].(string)
	return apiErr
}
