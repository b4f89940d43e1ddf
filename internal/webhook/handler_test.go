package webhook

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	To   string
	Body string
}

// recorder captures pipeline side effects for assertions.
type recorder struct {
	replies []string // queries seen by the reply capability
	keys    []string // conversation keys seen
	sent    []sentMessage
	reply   string
	replyOK bool
}

func (r *recorder) replyFunc(_ context.Context, appID, query string, inputs map[string]any, key string) (string, bool) {
	r.replies = append(r.replies, query)
	r.keys = append(r.keys, key)
	return r.reply, r.replyOK
}

func (r *recorder) sendFunc(_ context.Context, to, body string) {
	r.sent = append(r.sent, sentMessage{To: to, Body: body})
}

func newTestHandler(settings Settings) (*Handler, *recorder) {
	rec := &recorder{}
	return NewHandler(settings, rec.replyFunc, rec.sendFunc, nil), rec
}

func validSettings() Settings {
	return Settings{
		AccessToken:   "token",
		PhoneNumberID: "pn-1",
		VerifyToken:   "abc",
	}
}

func textPayload(from, body string) string {
	return `{"entry":[{"changes":[{"value":{"messages":[{"from":"` + from + `","type":"text","text":{"body":"` + body + `"}}]}}]}]}`
}

// --- Verification ---

func TestVerify_Subscribe(t *testing.T) {
	h, _ := newTestHandler(validSettings())
	req := httptest.NewRequest("GET", "/webhook?mode=subscribe&verify_token=abc&hub.challenge=999", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "999", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestVerify_HubPrefixedParams(t *testing.T) {
	h, _ := newTestHandler(validSettings())
	req := httptest.NewRequest("GET", "/webhook?hub.mode=subscribe&hub.verify_token=abc&hub.challenge=ch-1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "ch-1", w.Body.String())
}

func TestVerify_EmptyAliasFallsThrough(t *testing.T) {
	h, _ := newTestHandler(validSettings())
	// Present-but-empty hub.* params must not shadow the bare ones.
	req := httptest.NewRequest("GET", "/webhook?hub.mode=&mode=subscribe&hub.verify_token=&verify_token=abc&hub.challenge=777", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "777", w.Body.String())
}

func TestVerify_TokenMismatch(t *testing.T) {
	h, _ := newTestHandler(validSettings())
	req := httptest.NewRequest("GET", "/webhook?mode=subscribe&verify_token=wrong&hub.challenge=999", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, 403, w.Code)
	assert.Equal(t, "Forbidden", w.Body.String())
}

func TestVerify_Forbidden(t *testing.T) {
	cases := map[string]struct {
		settings Settings
		query    string
	}{
		"wrong mode":          {validSettings(), "mode=unsubscribe&verify_token=abc&hub.challenge=1"},
		"missing challenge":   {validSettings(), "mode=subscribe&verify_token=abc"},
		"no configured token": {Settings{AccessToken: "t", PhoneNumberID: "p"}, "mode=subscribe&verify_token=&hub.challenge=1"},
		"empty query":         {validSettings(), ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h, _ := newTestHandler(tc.settings)
			req := httptest.NewRequest("GET", "/webhook?"+tc.query, nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, 403, w.Code)
			assert.Equal(t, "Forbidden", w.Body.String())
		})
	}
}

func TestVerify_EmptyChallengeStillEchoed(t *testing.T) {
	h, _ := newTestHandler(validSettings())
	req := httptest.NewRequest("GET", "/webhook?mode=subscribe&verify_token=abc&hub.challenge=", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	// The parameter is present, so the (empty) challenge is echoed.
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "", w.Body.String())
}

// --- Method handling ---

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(validSettings())
	for _, method := range []string{"PUT", "DELETE", "PATCH"} {
		req := httptest.NewRequest(method, "/webhook", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, 405, w.Code, method)
	}
}

// --- Pipeline ---

func TestWebhook_BadJSON(t *testing.T) {
	h, rec := newTestHandler(validSettings())
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Bad Request", w.Body.String())
	assert.Empty(t, rec.sent)
	assert.Empty(t, rec.replies)
}

func TestWebhook_NoEntry(t *testing.T) {
	h, rec := newTestHandler(validSettings())
	for _, body := range []string{`{}`, `{"object":"whatsapp_business_account"}`} {
		req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code, body)
		assert.Equal(t, "ok", w.Body.String(), body)
	}
	assert.Empty(t, rec.sent, "no side effects without entry")
	assert.Empty(t, rec.replies)
}

func TestWebhook_NonObjectJSONAcknowledged(t *testing.T) {
	h, rec := newTestHandler(validSettings())
	// Valid JSON that is not an object is irrelevant, not malformed:
	// rejecting it would trigger Meta's retry storm.
	for _, body := range []string{`[1,2]`, `true`, `"hello"`, `42`, `null`, `[]`} {
		req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code, body)
		assert.Equal(t, "ok", w.Body.String(), body)
	}
	assert.Empty(t, rec.sent)
	assert.Empty(t, rec.replies)
}

func TestWebhook_EchoWithoutApp(t *testing.T) {
	// No app configured: reply capability must never be consulted.
	rec := &recorder{}
	h := NewHandler(validSettings(), nil, rec.sendFunc, nil)

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(textPayload("1555", "hi")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	require.Len(t, rec.sent, 1)
	assert.Equal(t, "1555", rec.sent[0].To)
	assert.Equal(t, "hi", rec.sent[0].Body)
}

func TestWebhook_AppReply(t *testing.T) {
	settings := validSettings()
	settings.AppID = "app-1"
	h, rec := newTestHandler(settings)
	rec.reply, rec.replyOK = "backend says hi", true

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(textPayload("1555", "hello")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	require.Len(t, rec.replies, 1)
	assert.Equal(t, "hello", rec.replies[0])
	assert.Equal(t, []string{"whatsapp:pn-1:1555"}, rec.keys)
	require.Len(t, rec.sent, 1)
	assert.Equal(t, sentMessage{To: "1555", Body: "backend says hi"}, rec.sent[0])
}

func TestWebhook_EchoFallbackOnAppFailure(t *testing.T) {
	settings := validSettings()
	settings.AppID = "app-1"
	h, rec := newTestHandler(settings)
	rec.replyOK = false

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(textPayload("1555", "original text")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	require.Len(t, rec.sent, 1)
	assert.Equal(t, "original text", rec.sent[0].Body, "fallback echoes inbound text exactly")
}

func TestWebhook_NonTextSkipped(t *testing.T) {
	settings := validSettings()
	settings.AppID = "app-1"
	h, rec := newTestHandler(settings)

	body := `{"entry":[{"changes":[{"value":{"messages":[
		{"from":"1555","type":"image"},
		{"from":"1555","type":"audio"},
		{"type":"text","text":{"body":"no sender"}}
	]}}]}]}`
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Empty(t, rec.sent)
	assert.Empty(t, rec.replies, "non-text and sender-less messages touch nothing")
}

func TestWebhook_MissingCredentialsDisablesReplies(t *testing.T) {
	h, rec := newTestHandler(Settings{VerifyToken: "abc"})

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(textPayload("1555", "hi")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	// Still acknowledged; just no reply attempted.
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Empty(t, rec.sent)
}

func TestWebhook_MultipleMessages(t *testing.T) {
	h, rec := newTestHandler(validSettings())

	body := `{"entry":[
		{"changes":[{"value":{"messages":[
			{"from":"1555","type":"text","text":{"body":"one"}},
			{"from":"1666","type":"text","text":{"body":"two"}}
		]}}]},
		{"changes":[{"value":{"messages":[
			{"from":"1777","type":"text","text":{"body":"three"}}
		]}}]}
	]}`
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	require.Len(t, rec.sent, 3)
	assert.Equal(t, "one", rec.sent[0].Body)
	assert.Equal(t, "two", rec.sent[1].Body)
	assert.Equal(t, "three", rec.sent[2].Body)
}

func TestWebhook_MalformedEntryShapeStillAcknowledged(t *testing.T) {
	h, rec := newTestHandler(validSettings())

	// entry is present but has the wrong shape; never a retry-triggering error.
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(`{"entry": "garbage"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Empty(t, rec.sent)
}

func TestWebhook_EmptyReplyFallsBackToEcho(t *testing.T) {
	settings := validSettings()
	settings.AppID = "app-1"
	h, rec := newTestHandler(settings)
	rec.reply, rec.replyOK = "", true

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(textPayload("1555", "ping")))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Len(t, rec.sent, 1)
	assert.Equal(t, "ping", rec.sent[0].Body)
}
