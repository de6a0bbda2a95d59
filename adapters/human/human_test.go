package human

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu    sync.Mutex
	infos []string
}

func (l *recordingLogger) Debug(context.Context, string, ...any) {}
func (l *recordingLogger) Info(_ context.Context, msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}
func (l *recordingLogger) Warn(context.Context, string, ...any)  {}
func (l *recordingLogger) Error(context.Context, string, ...any) {}

func (l *recordingLogger) sawInfo(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.infos {
		if m == msg {
			return true
		}
	}
	return false
}

func TestTransfer_LogsAndPostsWebhook(t *testing.T) {
	received := make(chan webhookEvent, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt webhookEvent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&evt))
		received <- evt
	}))
	defer srv.Close()

	logger := &recordingLogger{}
	sinks := New(Options{WebhookURL: srv.URL, CallID: "call-1", Logger: logger, HTTPClient: srv.Client()})

	sinks.Transfer("caller asked for a person")

	require.True(t, logger.sawInfo("transferring call to human agent"))
	evt := <-received
	require.Equal(t, "call-1", evt.CallID)
	require.Equal(t, "transfer", evt.Kind)
	require.Equal(t, "caller asked for a person", evt.Text)
}

func TestHangup_LogsAndPostsWebhook(t *testing.T) {
	received := make(chan webhookEvent, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt webhookEvent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&evt))
		received <- evt
	}))
	defer srv.Close()

	logger := &recordingLogger{}
	sinks := New(Options{WebhookURL: srv.URL, CallID: "call-2", Logger: logger, HTTPClient: srv.Client()})

	sinks.Hangup("thanks, goodbye")

	require.True(t, logger.sawInfo("ending call"))
	evt := <-received
	require.Equal(t, "hangup", evt.Kind)
}

func TestTransfer_NoWebhookURLSkipsNotify(t *testing.T) {
	logger := &recordingLogger{}
	sinks := New(Options{CallID: "call-3", Logger: logger})

	sinks.Transfer("no reason")

	require.True(t, logger.sawInfo("transferring call to human agent"))
}

func TestHangup_WebhookFailureIsSwallowed(t *testing.T) {
	logger := &recordingLogger{}
	sinks := New(Options{WebhookURL: "http://127.0.0.1:0", CallID: "call-4", Logger: logger})

	require.NotPanics(t, func() {
		sinks.Hangup("bye")
	})
}
