// Package appbridge invokes the conversational backend with per-user
// conversation continuity backed by the conversation store.
package appbridge

import (
	"encoding/json"
	"strings"
)

// Selector identifies which backend app to invoke. Configuration may
// supply it as a bare identifier string or as an object carrying an
// "app_id" (or legacy "id") field.
type Selector struct {
	AppID string `json:"app_id,omitempty"`
	ID    string `json:"id,omitempty"`

	bare string
}

// NewSelector builds a Selector from a bare identifier.
func NewSelector(appID string) Selector {
	return Selector{bare: appID}
}

// UnmarshalJSON accepts either a JSON string or an object form.
func (s *Selector) UnmarshalJSON(data []byte) error {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		*s = Selector{bare: bare}
		return nil
	}

	type plain Selector
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*s = Selector(obj)
	return nil
}

// MarshalJSON writes the bare form when that is how the selector was
// supplied, the object form otherwise.
func (s Selector) MarshalJSON() ([]byte, error) {
	if s.bare != "" {
		return json.Marshal(s.bare)
	}
	type plain Selector
	return json.Marshal(plain(s))
}

// Resolve reduces the selector to a single app id. Whitespace-only and
// empty values resolve to absent: no app configured, echo mode.
func (s Selector) Resolve() (string, bool) {
	for _, candidate := range []string{s.bare, s.AppID, s.ID} {
		if id := strings.TrimSpace(candidate); id != "" {
			return id, true
		}
	}
	return "", false
}
