// Package scoring is the HTTP client for the external lead-scoring
// engine. One call per ingestion run, no internal retries: transient
// failures surface as ScoringUnavailableError and the run fails.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/asah-capstone-a25/leadscore-backend/internal/apperrors"
	"github.com/asah-capstone-a25/leadscore-backend/internal/model"
)

// Prediction is one scored row. Predictions are ordered over the rows
// the engine accepted; rows it rejected appear in InvalidRows instead.
type Prediction struct {
	Probability float64            `json:"probability"`
	Prediction  int                `json:"prediction"`
	ReasonCodes []model.ReasonCode `json:"reason_codes"`
}

type Summary struct {
	Processed      int     `json:"processed"`
	AvgProbability float64 `json:"avg_probability"`
}

// InvalidRow marks a row the engine itself rejected. RowIndex is
// 0-based into the submitted batch.
type InvalidRow struct {
	RowIndex int    `json:"row_index"`
	Reason   string `json:"reason"`
}

type BatchResult struct {
	Predictions []Prediction `json:"predictions"`
	Summary     Summary      `json:"summary"`
	InvalidRows []InvalidRow `json:"invalid_rows"`
}

type batchRequest struct {
	Rows []model.LeadInput `json:"rows"`
}

// Scorer is what the orchestrator depends on; Client is the real engine.
type Scorer interface {
	ScoreBatch(ctx context.Context, rows []model.LeadInput) (*BatchResult, error)
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *Client) ScoreBatch(ctx context.Context, rows []model.LeadInput) (*BatchResult, error) {
	body, err := json.Marshal(batchRequest{Rows: rows})
	if err != nil {
		return nil, &apperrors.ScoringResponseError{Reason: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score/batch", bytes.NewReader(body))
	if err != nil {
		return nil, &apperrors.ScoringUnavailableError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Info("calling scoring engine", zap.Int("rows", len(rows)))
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		// Covers refused connections, DNS failures, and client/context
		// timeouts alike.
		return nil, &apperrors.ScoringUnavailableError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return nil, &apperrors.ScoringUnavailableError{
			Cause: fmt.Errorf("engine returned status %d", resp.StatusCode),
		}
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &apperrors.ScoringResponseError{
			Reason: fmt.Sprintf("engine returned status %d", resp.StatusCode),
		}
	}

	var result BatchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &apperrors.ScoringResponseError{Reason: fmt.Sprintf("decode response: %v", err)}
	}
	if err := checkContract(&result, len(rows)); err != nil {
		return nil, err
	}

	c.log.Info("scoring engine responded",
		zap.Int("predictions", len(result.Predictions)),
		zap.Int("invalid_rows", len(result.InvalidRows)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &result, nil
}

// checkContract rejects responses that are well-formed JSON but violate
// the engine contract. Cross-checking against the input row count is the
// reconciler's job; this only validates the response against itself.
func checkContract(res *BatchResult, sent int) error {
	if res.Summary.Processed != len(res.Predictions) {
		return &apperrors.ScoringResponseError{
			Reason: fmt.Sprintf("summary.processed=%d but %d predictions returned",
				res.Summary.Processed, len(res.Predictions)),
		}
	}
	for i, p := range res.Predictions {
		if p.Probability < 0 || p.Probability > 1 {
			return &apperrors.ScoringResponseError{
				Reason: fmt.Sprintf("prediction %d: probability %v out of [0,1]", i, p.Probability),
			}
		}
	}
	for _, iv := range res.InvalidRows {
		if iv.RowIndex < 0 || iv.RowIndex >= sent {
			return &apperrors.ScoringResponseError{
				Reason: fmt.Sprintf("invalid_rows references row %d outside the %d-row batch", iv.RowIndex, sent),
			}
		}
	}
	return nil
}

var _ Scorer = (*Client)(nil)
