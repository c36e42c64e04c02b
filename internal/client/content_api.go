package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepdesk/session-backend/internal/model"
)

// ErrTestUnavailable marks a terminal load failure: missing test id,
// unreachable backend, or a non-success reply. No retry; sessions are
// never started against a test the backend would not serve.
var ErrTestUnavailable = errors.New("test unavailable from content API")

// ContentAPI talks to the upstream platform backend that owns test
// definitions and collects submitted results.
type ContentAPI struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewContentAPI creates a client with the given base URL and timeout.
func NewContentAPI(baseURL string, timeout time.Duration, log zerolog.Logger) *ContentAPI {
	return &ContentAPI{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "content_api").Logger(),
	}
}

type testEnvelope struct {
	Success bool        `json:"success"`
	Test    *model.Test `json:"test"`
}

// FetchTest loads a test definition. Any transport error, non-2xx
// status or success:false envelope is collapsed into ErrTestUnavailable.
func (c *ContentAPI) FetchTest(ctx context.Context, testID string) (*model.Test, error) {
	u := fmt.Sprintf("%s/tests/%s", c.baseURL, url.PathEscape(testID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("test_id", testID).Msg("Test fetch failed")
		return nil, ErrTestUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn().Int("status", resp.StatusCode).Str("test_id", testID).Msg("Test fetch rejected")
		return nil, ErrTestUnavailable
	}

	var env testEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode test: %w", err)
	}
	if !env.Success || env.Test == nil {
		return nil, ErrTestUnavailable
	}
	return env.Test, nil
}

// resultPayload is the upstream wire shape for a submitted result.
type resultPayload struct {
	TestID      string  `json:"testId"`
	UserID      string  `json:"userId"`
	Score       float64 `json:"score"`
	TotalMarks  float64 `json:"totalMarks"`
	Correct     int     `json:"correct"`
	Incorrect   int     `json:"incorrect"`
	Unattempted int     `json:"unattempted"`
	TimeTaken   int     `json:"timeTaken"`
	UserAnswers []int   `json:"userAnswers"`
}

// PostResult pushes a result upstream. The response body is ignored for
// control flow; a non-2xx status is returned as an error so the sync
// worker can requeue.
func (c *ContentAPI) PostResult(ctx context.Context, res *model.Result) error {
	body, err := json.Marshal(resultPayload{
		TestID:      res.TestID,
		UserID:      res.OwnerID,
		Score:       res.Score,
		TotalMarks:  res.TotalMarks,
		Correct:     res.Correct,
		Incorrect:   res.Incorrect,
		Unattempted: res.Unattempted,
		TimeTaken:   res.TimeTaken,
		UserAnswers: res.Answers,
	})
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/results", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post result: upstream status %d", resp.StatusCode)
	}
	return nil
}
