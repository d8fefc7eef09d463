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
	"github.com/hireflow/backend/models"
)

// VideoVendor is the slice of the conversational-video vendor API the
// scheduler needs. Recording-ready events arrive asynchronously on the
// configured webhook callback URL.
type VideoVendor interface {
	CreateSession(ctx context.Context, req VideoSessionRequest) (*VideoSession, error)
}

type VideoSessionRequest struct {
	CandidateID   string              `json:"candidate_id"`
	CandidateName string              `json:"candidate_name"`
	RoleTitle     string              `json:"role_title"`
	Rubric        []models.RubricItem `json:"rubric,omitempty"`
	CallbackURL   string              `json:"callback_url"`
}

type VideoSession struct {
	SessionID  string `json:"session_id"`
	SessionURL string `json:"session_url"`
}

type VideoClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewVideoClient(apiKey, baseURL string) *VideoClient {
	return &VideoClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (v *VideoClient) CreateSession(ctx context.Context, req VideoSessionRequest) (*VideoSession, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", v.baseURL+"/v1/sessions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", v.apiKey)

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "video vendor unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperrors.Wrap(apperrors.KindUpstream, "video vendor rejected session",
			fmt.Errorf("vendor API error: %d - %s", resp.StatusCode, string(body)))
	}

	var session VideoSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "video vendor returned malformed session", err)
	}
	if session.SessionID == "" {
		return nil, apperrors.New(apperrors.KindUpstream, "video vendor returned empty session id")
	}

	slog.Info("Video interview session created", "session_id", session.SessionID, "candidate_id", req.CandidateID)
	return &session, nil
}
