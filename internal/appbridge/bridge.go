package appbridge

import (
	"context"
	"log"

	"github.com/relaykit/warelay/internal/store"
)

// Bridge invokes the backend app while carrying the continuity token
// between turns. Continuity is strictly best-effort: a lost or
// unreadable token only means the next turn starts a fresh backend
// conversation, never a failed reply.
type Bridge struct {
	Store   store.Store
	Invoker Invoker
}

// NewBridge creates a Bridge over the given capabilities.
func NewBridge(st store.Store, invoker Invoker) *Bridge {
	return &Bridge{Store: st, Invoker: invoker}
}

// Reply asks the backend app for a reply to query. Returns false on any
// failure or when the backend produced no usable answer; the caller is
// expected to fall back to echoing the inbound text.
func (b *Bridge) Reply(ctx context.Context, appID, query string, inputs map[string]any, conversationKey string) (string, bool) {
	req := Request{
		AppID:        appID,
		Query:        query,
		Inputs:       inputs,
		ResponseMode: ResponseModeBlocking,
	}

	// A store read failure is indistinguishable from first contact.
	if raw, err := b.Store.Get(ctx, conversationKey); err != nil {
		log.Printf("[Bridge] read %s: %v", conversationKey, err)
	} else if len(raw) > 0 {
		req.ConversationID = string(raw)
	}

	resp, err := b.Invoker.Invoke(ctx, req)
	if err != nil {
		log.Printf("[Bridge] invoke app %s: %v", appID, err)
		return "", false
	}

	if resp.ConversationID != "" {
		if err := b.Store.Set(ctx, conversationKey, []byte(resp.ConversationID)); err != nil {
			// Degrade continuity silently rather than failing the reply.
			log.Printf("[Bridge] persist %s: %v", conversationKey, err)
		}
	}

	return resp.ReplyText()
}
