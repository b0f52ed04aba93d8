package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastAttestationClient(baseURL string) *AttestationClient {
	return &AttestationClient{
		BaseURL:      baseURL,
		Client:       &http.Client{Timeout: time.Second},
		InitialWait:  time.Millisecond,
		PollInterval: time.Millisecond,
		MaxAttempts:  10,
	}
}

func TestFetchAttestation_CompleteOnThirdPoll(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/messages/6", r.URL.Path)
		assert.Equal(t, "0xburn", r.URL.Query().Get("transactionHash"))

		resp := AttestationResponse{}
		if polls.Add(1) >= 3 {
			resp.Messages = []CCTPMessage{{
				Attestation: "0xattested",
				Message:     "0xmessage",
				Status:      AttestationStatusComplete,
			}}
		} else {
			resp.Messages = []CCTPMessage{{Status: AttestationStatusPending}}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	message, err := fastAttestationClient(server.URL).FetchAttestation(context.Background(), 6, "0xburn")
	require.NoError(t, err)
	assert.Equal(t, "0xattested", message.Attestation)
	assert.Equal(t, "0xmessage", message.Message)
	assert.Equal(t, int32(3), polls.Load())
}

func TestFetchAttestation_TimeoutAfterBudget(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		json.NewEncoder(w).Encode(AttestationResponse{})
	}))
	defer server.Close()

	_, err := fastAttestationClient(server.URL).FetchAttestation(context.Background(), 6, "0xburn")
	assert.ErrorIs(t, err, ErrAttestationTimeout)
	assert.Equal(t, int32(10), polls.Load())
}

func TestFetchAttestation_NetworkErrorsConsumeAttempts(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 4 {
			// simulate upstream flakiness; must not abort polling
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(AttestationResponse{Messages: []CCTPMessage{{
			Attestation: "0xattested",
			Message:     "0xmessage",
			Status:      AttestationStatusComplete,
		}}})
	}))
	defer server.Close()

	message, err := fastAttestationClient(server.URL).FetchAttestation(context.Background(), 6, "0xburn")
	require.NoError(t, err)
	assert.Equal(t, "0xattested", message.Attestation)
}

func TestFetchAttestation_NotFoundMeansNotReady(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 2 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(AttestationResponse{Messages: []CCTPMessage{{
			Attestation: "0xattested",
			Message:     "0xmessage",
			Status:      AttestationStatusComplete,
		}}})
	}))
	defer server.Close()

	_, err := fastAttestationClient(server.URL).FetchAttestation(context.Background(), 6, "0xburn")
	require.NoError(t, err)
}

func TestFetchAttestation_PendingAttestationIsNotAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// complete status but empty attestation must not be accepted
		json.NewEncoder(w).Encode(AttestationResponse{Messages: []CCTPMessage{{
			Status: AttestationStatusComplete,
		}}})
	}))
	defer server.Close()

	client := fastAttestationClient(server.URL)
	client.MaxAttempts = 3
	_, err := client.FetchAttestation(context.Background(), 6, "0xburn")
	assert.ErrorIs(t, err, ErrAttestationTimeout)
}
