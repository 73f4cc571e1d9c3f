package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Outcome is the record handed to the external scoring backend for one
// player of a finished match.
type Outcome struct {
	PlayerID      string `json:"uid"`
	ChallengeType string `json:"challengeType"`
	Points        int    `json:"points"`
	Level         int    `json:"level"`
	IsReplay      bool   `json:"isReplay"`
}

// Reporter persists final scores. The backend is not assumed idempotent;
// the arena calls ReportOutcome at most once per terminal event per player.
type Reporter interface {
	ReportOutcome(ctx context.Context, outcome Outcome) error
}

// HTTPReporter posts outcomes to the scoring backend's
// update-challenge-score endpoint.
type HTTPReporter struct {
	url        string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewHTTPReporter(url string, timeout time.Duration, logger zerolog.Logger) *HTTPReporter {
	return &HTTPReporter{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "scoring").Logger(),
	}
}

func (r *HTTPReporter) ReportOutcome(ctx context.Context, outcome Outcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build scoring request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("scoring call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scoring backend returned status %d", resp.StatusCode)
	}

	r.logger.Info().
		Str("playerId", outcome.PlayerID).
		Str("challengeType", outcome.ChallengeType).
		Int("points", outcome.Points).
		Msg("Outcome reported")

	return nil
}

// NopReporter discards outcomes. Used when no scoring backend is configured.
type NopReporter struct{}

func (NopReporter) ReportOutcome(context.Context, Outcome) error { return nil }
