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

// PDFRenderer is the fire-and-poll rendering contract the report assembler
// consumes: submit a template payload, then poll the job until it settles.
type PDFRenderer interface {
	Submit(ctx context.Context, payload ReportPayload) (string, error)
	Poll(ctx context.Context, jobID string) (*RenderStatus, error)
}

type RenderStatus struct {
	Status      string `json:"status"` // pending | success | failure
	DownloadURL string `json:"download_url,omitempty"`
}

type PDFClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewPDFClient(apiKey, baseURL string) *PDFClient {
	return &PDFClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (p *PDFClient) Submit(ctx context.Context, payload ReportPayload) (string, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal render payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/v1/render", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindUpstream, "pdf renderer unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return "", apperrors.Wrap(apperrors.KindUpstream, "pdf renderer rejected job",
			fmt.Errorf("renderer API error: %d - %s", resp.StatusCode, string(body)))
	}

	var submitResp struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", apperrors.Wrap(apperrors.KindUpstream, "pdf renderer returned malformed job", err)
	}
	if submitResp.JobID == "" {
		return "", apperrors.New(apperrors.KindUpstream, "pdf renderer returned empty job id")
	}

	slog.Info("PDF render job submitted", "job_id", submitResp.JobID)
	return submitResp.JobID, nil
}

func (p *PDFClient) Poll(ctx context.Context, jobID string) (*RenderStatus, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/v1/render/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "pdf renderer unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperrors.Wrap(apperrors.KindUpstream, "pdf renderer poll failed",
			fmt.Errorf("renderer API error: %d - %s", resp.StatusCode, string(body)))
	}

	var status RenderStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "pdf renderer returned malformed status", err)
	}
	return &status, nil
}
