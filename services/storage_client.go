package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hireflow/backend/apperrors"
)

// ObjectStorage is the durable object store contract. The store is the single
// source of truth for resume and report artifacts; nothing is cached beyond
// the lifetime of one request.
type ObjectStorage interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	SignedURL(ctx context.Context, bucket, key string, ttlSeconds int) (string, error)
}

type StorageClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewStorageClient(apiKey, baseURL string) *StorageClient {
	return &StorageClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (s *StorageClient) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	url := fmt.Sprintf("%s/object/%s/%s", s.baseURL, bucket, key)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.KindStorage, "object storage unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return apperrors.Wrap(apperrors.KindStorage, "object storage write failed",
			fmt.Errorf("storage API error: %d - %s", resp.StatusCode, string(body)))
	}

	slog.Info("Object stored", "bucket", bucket, "key", key, "size", len(data))
	return nil
}

func (s *StorageClient) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	url := fmt.Sprintf("%s/object/%s/%s", s.baseURL, bucket, key)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStorage, "object storage unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperrors.Wrap(apperrors.KindStorage, "object storage read failed",
			fmt.Errorf("storage API error: %d - %s", resp.StatusCode, string(body)))
	}

	return io.ReadAll(resp.Body)
}

func (s *StorageClient) SignedURL(ctx context.Context, bucket, key string, ttlSeconds int) (string, error) {
	url := fmt.Sprintf("%s/object/sign/%s/%s", s.baseURL, bucket, key)
	body, err := json.Marshal(map[string]int{"expires_in": ttlSeconds})
	if err != nil {
		return "", fmt.Errorf("failed to marshal sign request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindStorage, "object storage unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", apperrors.Wrap(apperrors.KindStorage, "object storage sign failed",
			fmt.Errorf("storage API error: %d - %s", resp.StatusCode, string(respBody)))
	}

	var signResp struct {
		SignedURL string `json:"signed_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&signResp); err != nil {
		return "", apperrors.Wrap(apperrors.KindStorage, "object storage returned malformed signed url", err)
	}
	return signResp.SignedURL, nil
}
