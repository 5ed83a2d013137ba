package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPayloadExactJSON(t *testing.T) {
	got, err := FormatPayload("hello")
	require.NoError(t, err)

	want := `{"username":"Doorbell","avatar_url":"https://i.imgur.com/6YSCfLa.png","content":"hello"}`
	assert.Equal(t, want, string(got))
}

type capturedRequest struct {
	method      string
	contentType string
	body        []byte
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []capturedRequest
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, capturedRequest{
			method:      r.Method,
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(ts.Close)
	return ts, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), reqs...)
	}
}

func TestWebhookSend(t *testing.T) {
	ts, captured := newCaptureServer(t, http.StatusNoContent)
	w := NewWebhook(ts.URL, nil)

	require.NoError(t, w.Send(context.Background(), DefaultMessage))

	reqs := captured()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].method)
	assert.Equal(t, "application/json", reqs[0].contentType)

	var p Payload
	require.NoError(t, json.Unmarshal(reqs[0].body, &p))
	assert.Equal(t, Username, p.Username)
	assert.Equal(t, AvatarURL, p.AvatarURL)
	assert.Equal(t, DefaultMessage, p.Content)
}

func TestWebhookIgnoresStatusCode(t *testing.T) {
	ts, captured := newCaptureServer(t, http.StatusInternalServerError)
	w := NewWebhook(ts.URL, nil)

	assert.NoError(t, w.Send(context.Background(), "x"))
	assert.Len(t, captured(), 1, "no retry on a failed response")
}

func TestWebhookTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	w := NewWebhook(url, &http.Client{Timeout: time.Second})
	assert.Error(t, w.Send(context.Background(), "x"))
}

func TestWebhookBadURL(t *testing.T) {
	w := NewWebhook("://bad", nil)
	assert.Error(t, w.Send(context.Background(), "x"))
}

func TestFakeNotifier(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFakeNotifier(func() time.Time { return at })

	require.NoError(t, f.Send(context.Background(), "a"))
	f.SetError(errors.New("boom"))
	assert.Error(t, f.Send(context.Background(), "b"))

	sent := f.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "a", sent[0].Content)
	assert.Equal(t, "b", sent[1].Content)
	assert.Equal(t, at, sent[0].At)
	assert.Equal(t, 2, f.Count())
}
