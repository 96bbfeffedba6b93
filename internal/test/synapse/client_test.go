package synapse_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"base0-backend/internal/synapse"
)

func TestPreflightUpload(t *testing.T) {
	var gotSize int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/preflight", r.URL.Path)

		var body struct {
			Size int64 `json:"size"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotSize = body.Size

		w.Write([]byte(`{
			"estimatedCost": {"perEpoch": "10", "perDay": "1000", "perMonth": "30000"},
			"allowanceCheck": {"sufficient": true}
		}`))
	}))
	defer server.Close()

	client := synapse.NewClient(server.URL)

	result, err := client.PreflightUpload(context.Background(), 4096)
	require.NoError(t, err)

	assert.Equal(t, int64(4096), gotSize)
	assert.True(t, result.AllowanceSufficient)
	assert.Equal(t, "10", result.EstimatedCost.PerEpoch.String())
	assert.Equal(t, "1000", result.EstimatedCost.PerDay.String())
	assert.Equal(t, "30000", result.EstimatedCost.PerMonth.String())
}

func TestPreflightUpload_InvalidCost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"estimatedCost": {"perEpoch": "ten", "perDay": "1000", "perMonth": "30000"}}`))
	}))
	defer server.Close()

	client := synapse.NewClient(server.URL)

	_, err := client.PreflightUpload(context.Background(), 4096)
	assert.ErrorContains(t, err, "invalid cost value")
}

func TestUpload(t *testing.T) {
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/piece", r.URL.Path)
		require.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"pieceCid": "baga6ea4seaqtest"}`))
	}))
	defer server.Close()

	client := synapse.NewClient(server.URL)

	cid, err := client.Upload(context.Background(), []byte("prompt data"))
	require.NoError(t, err)
	assert.Equal(t, "baga6ea4seaqtest", cid)
	assert.Equal(t, []byte("prompt data"), gotBody)
}

func TestUpload_EmptyCID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := synapse.NewClient(server.URL)

	_, err := client.Upload(context.Background(), []byte("data"))
	assert.ErrorContains(t, err, "pieceCid is empty")
}

func TestUpload_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := synapse.NewClient(server.URL)

	_, err := client.Upload(context.Background(), []byte("data"))
	assert.ErrorContains(t, err, "status 500")
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/piece/baga6ea4seaqtest", r.URL.Path)
		w.Write([]byte("stored bytes"))
	}))
	defer server.Close()

	client := synapse.NewClient(server.URL)

	data, err := client.Download(context.Background(), "baga6ea4seaqtest")
	require.NoError(t, err)
	assert.Equal(t, []byte("stored bytes"), data)
}

func TestPieceURL(t *testing.T) {
	client := synapse.NewClient("https://api.synapse.storage/")
	assert.Equal(t, "https://api.synapse.storage/piece/baga6ea4seaqtest", client.PieceURL("baga6ea4seaqtest"))
}
