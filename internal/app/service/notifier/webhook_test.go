package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPWebhookSender_Send(t *testing.T) {
	var got WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := &HTTPWebhookSender{client: &http.Client{Timeout: time.Second}}
	payload := payloadFromSnapshot(testSnapshot())
	require.NoError(t, s.Send(context.Background(), srv.URL, payload))

	require.Equal(t, payload.Temperature, got.Temperature)
	require.Equal(t, "Kyiv", got.City.Name)
	require.Equal(t, "Ukraine", got.City.CountryName)
}

func TestHTTPWebhookSender_NonTwoHundredIsFailure(t *testing.T) {
	for _, status := range []int{http.StatusMovedPermanently, http.StatusBadRequest, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		s := &HTTPWebhookSender{client: &http.Client{Timeout: time.Second}}
		err := s.Send(context.Background(), srv.URL, WebhookPayload{})
		require.Error(t, err, "status %d", status)
		srv.Close()
	}
}
