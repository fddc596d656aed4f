package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	apperrors "github.com/narrowsfm/podgraph/errors"
	"github.com/narrowsfm/podgraph/internal/domain/entities"
	"github.com/narrowsfm/podgraph/pkg/config"
)

// MinIOStore fetches processed transcript documents from object storage.
// Transcripts are produced upstream by the ASR pipeline and stored as JSON
// under transcripts/{audioMediaID}.json.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore creates an object storage client for transcript fetches.
func NewMinIOStore(cfg *config.StorageConfig) (*MinIOStore, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIOStore{
		client: minioClient,
		bucket: cfg.BucketName,
	}, nil
}

// transcriptKey maps an audio media ID to its transcript object name.
func transcriptKey(audioMediaID string) string {
	return fmt.Sprintf("transcripts/%s.json", audioMediaID)
}

// GetTranscript fetches and decodes the ASR transcript for an audio media
// ID. Returns entities.ErrTranscriptNotFound when the object does not exist.
func (m *MinIOStore) GetTranscript(ctx context.Context, audioMediaID string) (*entities.TranscriptResult, error) {
	key := transcriptKey(audioMediaID)

	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, apperrors.ErrStorageFailed(fmt.Sprintf("open transcript %s", key), err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, entities.ErrTranscriptNotFound
		}
		return nil, apperrors.ErrStorageFailed(fmt.Sprintf("read transcript %s", key), err)
	}

	var result entities.TranscriptResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, apperrors.ErrStorageFailed(fmt.Sprintf("decode transcript %s", key), err)
	}
	if len(result.Results.AudioSegments) == 0 {
		return nil, entities.ErrTranscriptNotFound
	}
	return &result, nil
}

// ListTranscripts lists the transcript objects currently in the bucket,
// returning their audio media IDs.
func (m *MinIOStore) ListTranscripts(ctx context.Context) ([]string, error) {
	var ids []string

	objectCh := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    "transcripts/",
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			return nil, apperrors.ErrStorageFailed("list transcripts", object.Err)
		}
		name := strings.TrimPrefix(object.Key, "transcripts/")
		name = strings.TrimSuffix(name, ".json")
		if name != "" {
			ids = append(ids, name)
		}
	}

	return ids, nil
}
