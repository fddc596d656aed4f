package graphiti

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/narrowsfm/podgraph/internal/domain/entities"
	"github.com/narrowsfm/podgraph/pkg/config"
)

// Client submits text chunks to the Graphiti knowledge-graph ingestion
// endpoint.
type Client struct {
	baseURL string
	apiKey  string
	groupID string
	client  *http.Client
}

// NewClient creates a Graphiti client from config.
func NewClient(cfg *config.GraphitiConfig) *Client {
	timeout := 60 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		groupID: cfg.GroupID,
		client:  &http.Client{Timeout: timeout},
	}
}

// submitRequest is the wire shape for an ingestion call. Word-level items
// are already stripped from meta.Segments by the caller.
type submitRequest struct {
	GroupID  string                  `json:"group_id"`
	Text     string                  `json:"text"`
	Metadata entities.IngestMetadata `json:"metadata"`
}

type submitResponse struct {
	IngestionID string `json:"ingestion_id"`
}

// Submit sends one chunk for ingestion and returns the ingestion ID.
// Transient HTTP failures are retried with exponential backoff; the
// pipeline above treats any error here as a skippable per-chunk failure.
func (c *Client) Submit(ctx context.Context, text string, meta entities.IngestMetadata) (string, error) {
	body, err := json.Marshal(submitRequest{
		GroupID:  c.groupID,
		Text:     text,
		Metadata: meta,
	})
	if err != nil {
		return "", err
	}

	var ingestionID string
	submitFn := func() error {
		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/ingest", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("graphiti returned status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("graphiti rejected chunk with status %d", resp.StatusCode))
		}

		var sr submitResponse
		if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
			return backoff.Permanent(fmt.Errorf("malformed graphiti response: %w", err))
		}
		if sr.IngestionID == "" {
			return backoff.Permanent(fmt.Errorf("graphiti response missing ingestion_id"))
		}
		ingestionID = sr.IngestionID
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(submitFn, backoff.WithContext(bo, ctx)); err != nil {
		return "", err
	}
	return ingestionID, nil
}
