package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btrade/btrade-backend/internal/pkg/apperrors"
)

func TestCreateSession(t *testing.T) {
	var gotAuth string
	var gotReq createSessionRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(Session{
			ID:     "cs_test_123",
			URL:    "https://pay.example.com/cs_test_123",
			Status: SessionStatusOpen,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_abc")
	session, err := client.CreateSession(context.Background(), CreateSessionParams{
		Amount:      249900,
		Currency:    "usd",
		ProductName: "Advanced Futures Trading",
		Reference:   "enr-42",
		SuccessURL:  "https://app.example.com/success",
		CancelURL:   "https://app.example.com/cancel",
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", session.ID)
	assert.Equal(t, SessionStatusOpen, session.Status)
	assert.Equal(t, "Bearer sk_test_abc", gotAuth)
	require.Len(t, gotReq.LineItems, 1)
	assert.Equal(t, int64(249900), gotReq.LineItems[0].Amount)
	assert.Equal(t, 1, gotReq.LineItems[0].Quantity)
	assert.Equal(t, "enr-42", gotReq.Reference)
}

func TestGetSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/checkout/sessions/cs_test_123", r.URL.Path)
		json.NewEncoder(w).Encode(Session{ID: "cs_test_123", Status: SessionStatusPaid})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_abc")
	session, err := client.GetSession(context.Background(), "cs_test_123")

	require.NoError(t, err)
	assert.Equal(t, SessionStatusPaid, session.Status)
}

func TestGetSessionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_abc")
	_, err := client.GetSession(context.Background(), "cs_missing")

	assert.ErrorIs(t, err, apperrors.ErrPaymentNotFound)
}

func TestProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_abc")
	_, err := client.CreateSession(context.Background(), CreateSessionParams{})

	assert.True(t, errors.Is(err, apperrors.ErrPaymentProvider))
}
