package chat_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marketpaper/quote-api/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifier_SendQuote(t *testing.T) {
	var got chat.Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	n := chat.NewNotifier(srv.URL, 2*time.Second, zap.NewNop())
	err := n.SendQuote(context.Background(), "+541122334455", "https://files.example.com/q.pdf", "42")
	require.NoError(t, err)

	assert.Equal(t, "+541122334455", got.Phone)
	assert.Equal(t, "https://files.example.com/q.pdf", got.PdfURL)
	assert.Equal(t, "42", got.DealID)
	_, perr := time.Parse(time.RFC3339, got.Timestamp)
	assert.NoError(t, perr)
}

func TestNotifier_NotConfigured(t *testing.T) {
	n := chat.NewNotifier("", time.Second, zap.NewNop())
	err := n.SendQuote(context.Background(), "541122334455", "https://x/q.pdf", "42")
	assert.ErrorIs(t, err, chat.ErrNotConfigured)
}

func TestNotifier_DeliveryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte("subscriber not found"))
	}))
	t.Cleanup(srv.Close)

	n := chat.NewNotifier(srv.URL, 2*time.Second, zap.NewNop())
	err := n.SendQuote(context.Background(), "541122334455", "https://x/q.pdf", "42")

	var delivery *chat.DeliveryError
	require.ErrorAs(t, err, &delivery)
	assert.Equal(t, http.StatusUnprocessableEntity, delivery.StatusCode)
	assert.Contains(t, delivery.Body, "subscriber not found")
}

func TestNotifier_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	n := chat.NewNotifier(srv.URL, 50*time.Millisecond, zap.NewNop())
	err := n.SendQuote(context.Background(), "541122334455", "https://x/q.pdf", "42")
	assert.ErrorIs(t, err, chat.ErrTimeout)
}
