package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeReturnsIntentID(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/intents", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"id": "pi_123", "status": "requires_capture"})
	}))
	defer srv.Close()

	c := New(srv.URL, "sk_test", 7)
	id, err := c.Authorize(context.Background(), 16000, map[string]string{"reservation_code": "GS-AB12CD34"})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", id)
	assert.Equal(t, "Bearer sk_test", gotAuth)
	assert.Equal(t, float64(16000), gotBody["amount_cents"])
	assert.Equal(t, false, gotBody["capture"])
	assert.Equal(t, float64(7), gotBody["auth_hold_days"], "configured hold window rides along on the authorization")
}

func TestProviderErrorSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]string{"message": "card declined"})
	}))
	defer srv.Close()

	c := New(srv.URL, "sk_test", 7)
	_, err := c.Authorize(context.Background(), 100, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card declined")
}

func TestLifecycleCallsHitIntentEndpoints(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"id": "pi_9", "status": "canceled"})
	}))
	defer srv.Close()

	c := New(srv.URL, "sk_test", 7)
	ctx := context.Background()
	require.NoError(t, c.Capture(ctx, "pi_9"))
	require.NoError(t, c.CancelIntent(ctx, "pi_9"))
	require.NoError(t, c.ChargeDeposit(ctx, "pi_9", 5000))
	status, err := c.RetrieveStatus(ctx, "pi_9")
	require.NoError(t, err)
	assert.Equal(t, "canceled", status)

	assert.Equal(t, []string{
		"POST /v1/intents/pi_9/capture",
		"POST /v1/intents/pi_9/cancel",
		"POST /v1/intents/pi_9/charge",
		"GET /v1/intents/pi_9",
	}, paths)
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "sk_test", 7)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, _ = c.Authorize(ctx, 100, nil)
	}
	// Once open, calls fail fast without reaching the server.
	before := hits
	_, err := c.Authorize(ctx, 100, nil)
	require.Error(t, err)
	assert.Equal(t, before, hits)
}
