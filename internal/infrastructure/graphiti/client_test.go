package graphiti

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
	"github.com/narrowsfm/podgraph/pkg/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(&config.GraphitiConfig{
		BaseURL: baseURL,
		GroupID: "test-group",
	})
}

func TestSubmitReturnsIngestionID(t *testing.T) {
	var got submitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ingest", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(submitResponse{IngestionID: "ing_42"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	id, err := c.Submit(context.Background(), "chunk text", entities.IngestMetadata{EpisodeID: "ep_1"})

	require.NoError(t, err)
	assert.Equal(t, "ing_42", id)
	assert.Equal(t, "test-group", got.GroupID)
	assert.Equal(t, "chunk text", got.Text)
	assert.Equal(t, "ep_1", got.Metadata.EpisodeID)
}

func TestSubmitRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(submitResponse{IngestionID: "ing_1"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	id, err := c.Submit(context.Background(), "chunk", entities.IngestMetadata{})

	require.NoError(t, err)
	assert.Equal(t, "ing_1", id)
	assert.Equal(t, 2, calls)
}

func TestSubmitDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Submit(context.Background(), "chunk", entities.IngestMetadata{})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestSubmitMissingIngestionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Submit(context.Background(), "chunk", entities.IngestMetadata{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingestion_id")
}
