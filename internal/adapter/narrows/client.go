package narrows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	apperrors "github.com/narrowsfm/podgraph/errors"
	"github.com/narrowsfm/podgraph/internal/domain/entities"
	"github.com/narrowsfm/podgraph/pkg/config"
)

// Client talks to the Narrows metadata API. Reads return the domain
// not-found errors on 404 so the coordinator can distinguish missing
// upstream data from transport failures; writes retry transient failures.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a Narrows API client from config.
func NewClient(cfg *config.NarrowsConfig) *Client {
	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// GetEpisode fetches episode metadata.
func (c *Client) GetEpisode(ctx context.Context, id string) (*entities.Episode, error) {
	var ep entities.Episode
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/episodes/%s", id), &ep, entities.ErrEpisodeNotFound); err != nil {
		return nil, err
	}
	return &ep, nil
}

// GetSeries fetches series metadata.
func (c *Client) GetSeries(ctx context.Context, id string) (*entities.Series, error) {
	var sr entities.Series
	if err := c.getJSON(ctx, fmt.Sprintf("/v1/series/%s", id), &sr, entities.ErrSeriesNotFound); err != nil {
		return nil, err
	}
	return &sr, nil
}

// PutEpisodeSpeakers persists the resolved speaker map for an episode.
func (c *Client) PutEpisodeSpeakers(ctx context.Context, id string, speakers map[string]entities.SpeakerInfo) error {
	return c.putJSON(ctx, fmt.Sprintf("/v1/episodes/%s/speakers", id), speakers)
}

// PutChapter persists one chapter.
func (c *Client) PutChapter(ctx context.Context, ch *entities.Chapter) error {
	return c.putJSON(ctx, fmt.Sprintf("/v1/episodes/%s/chapters/%s", ch.EpisodeID, ch.ID), ch)
}

// PutSegment persists one segment.
func (c *Client) PutSegment(ctx context.Context, sg *entities.Segment) error {
	return c.putJSON(ctx, fmt.Sprintf("/v1/episodes/%s/segments/%s", sg.EpisodeID, sg.ID), sg)
}

// PutEpisodeStatus persists the terminal pipeline status for an episode.
func (c *Client) PutEpisodeStatus(ctx context.Context, id string, st entities.EpisodeStatus) error {
	return c.putJSON(ctx, fmt.Sprintf("/v1/episodes/%s/status", id), st)
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}, notFound error) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.ErrNarrowsFailed("GET "+path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return notFound
	}
	if resp.StatusCode >= 400 {
		return apperrors.ErrNarrowsFailed("GET "+path, fmt.Errorf("status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.ErrNarrowsFailed("GET "+path, fmt.Errorf("malformed response: %w", err))
	}
	return nil
}

func (c *Client) putJSON(ctx context.Context, path string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	putFn := func() error {
		req, err := http.NewRequestWithContext(ctx, "PUT", c.baseURL+path, bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		c.setHeaders(req)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("narrows PUT %s returned status %d", path, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("narrows PUT %s returned status %d", path, resp.StatusCode))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 20 * time.Second

	if err := backoff.Retry(putFn, backoff.WithContext(bo, ctx)); err != nil {
		return apperrors.ErrNarrowsFailed("PUT "+path, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}
