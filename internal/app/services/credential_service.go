package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkaya/coursebuilder/internal/pkg/helpers"
	"github.com/mkaya/coursebuilder/internal/pkg/logger"
)

// CredentialRequest describes one credential to issue after a learner
// completes a course.
type CredentialRequest struct {
	LearnerID    string    `json:"learner_id"`
	LearnerEmail string    `json:"learner_email"`
	CourseID     int64     `json:"course_id"`
	CourseName   string    `json:"course_name"`
	Score        int       `json:"score"`
	CompletedAt  time.Time `json:"completed_at"`
}

// CredentialService calls the external credential-issuance endpoint.
type CredentialService struct {
	client  *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewCredentialService creates the adapter. An empty base URL disables
// issuance; Issue then succeeds as a logged no-op.
func NewCredentialService(baseURL string, timeout string) *CredentialService {
	return &CredentialService{
		client:  &http.Client{Timeout: helpers.ParseDuration(timeout, 10*time.Second)},
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.With("credential_service"),
	}
}

// Issue sends the credential request. Errors bubble up so the job queue
// can apply its retry policy.
func (s *CredentialService) Issue(ctx context.Context, req CredentialRequest) error {
	if s.baseURL == "" {
		s.log.Info().
			Str("learnerId", req.LearnerID).
			Int64("courseId", req.CourseID).
			Msg("Credential endpoint not configured, skipping issuance")
		return nil
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode credential request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/credentials", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build credential request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("credential service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("credential service returned status %d", resp.StatusCode)
	}

	s.log.Info().
		Str("learnerId", req.LearnerID).
		Int64("courseId", req.CourseID).
		Int("score", req.Score).
		Msg("Credential issued")
	return nil
}
