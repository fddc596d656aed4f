package narrows

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/narrowsfm/podgraph/errors"
	"github.com/narrowsfm/podgraph/internal/domain/entities"
	"github.com/narrowsfm/podgraph/pkg/config"
)

func TestGetEpisode_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/episodes/ep-1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(entities.Episode{ID: "ep-1", SeriesID: "sr-1", Title: "Pilot", AudioMediaID: "am-1"})
	}))
	defer ts.Close()

	client := NewClient(&config.NarrowsConfig{BaseURL: ts.URL})
	ep, err := client.GetEpisode(context.Background(), "ep-1")
	if err != nil {
		t.Fatalf("get episode failed: %v", err)
	}
	if ep.Title != "Pilot" || ep.AudioMediaID != "am-1" {
		t.Fatalf("unexpected episode %+v", ep)
	}
}

func TestGetEpisode_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	client := NewClient(&config.NarrowsConfig{BaseURL: ts.URL})
	if _, err := client.GetEpisode(context.Background(), "missing"); !errors.Is(err, entities.ErrEpisodeNotFound) {
		t.Fatalf("expected ErrEpisodeNotFound, got %v", err)
	}
}

func TestPutChapter_RetriesOn5xx(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewClient(&config.NarrowsConfig{BaseURL: ts.URL})
	ch := entities.NewChapter("ep-1", entities.ChapterTypeSection, "Main", "", 0, 120)
	if err := client.PutChapter(context.Background(), ch); err != nil {
		t.Fatalf("put chapter failed: %v", err)
	}
	if attempts < 2 {
		t.Fatalf("expected a retry, got %d attempts", attempts)
	}
}

func TestPutSegment_NoRetryOn4xx(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	client := NewClient(&config.NarrowsConfig{BaseURL: ts.URL})
	sg := entities.NewSegment("ep-1", entities.SegmentTypeAnalysis, 0, 30)
	if err := client.PutSegment(context.Background(), sg); err == nil {
		t.Fatalf("expected error on 422")
	}
	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", attempts)
	}
}

func TestGetSeries_ServerErrorWrapped(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(&config.NarrowsConfig{BaseURL: ts.URL})
	_, err := client.GetSeries(context.Background(), "sr-1")

	var appErr apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.ErrorCode_NARROWS_FAILED {
		t.Fatalf("expected NARROWS_FAILED, got %s", appErr.Code)
	}
}
