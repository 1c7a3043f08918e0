package scoring_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asah-capstone-a25/leadscore-backend/internal/apperrors"
	"github.com/asah-capstone-a25/leadscore-backend/internal/model"
	"github.com/asah-capstone-a25/leadscore-backend/internal/scoring"
)

func sampleRows(n int) []model.LeadInput {
	rows := make([]model.LeadInput, n)
	for i := range rows {
		rows[i] = model.LeadInput{
			Age: 30 + i, Job: "technician", Marital: "married", Education: "tertiary",
			CreditDefault: "no", Balance: 1500, Housing: "yes", Loan: "no",
			Contact: "cellular", Day: 15, Month: "may", CampaignContacts: 2,
			PDays: -1, Previous: 0, POutcome: "unknown",
		}
	}
	return rows
}

func engineResponse(n int) scoring.BatchResult {
	preds := make([]scoring.Prediction, n)
	for i := range preds {
		preds[i] = scoring.Prediction{
			Probability: 0.25,
			Prediction:  0,
			ReasonCodes: []model.ReasonCode{
				{Feature: "poutcome", Direction: "positive", ShapValue: 0.3},
				{Feature: "balance", Direction: "negative", ShapValue: -0.1},
			},
		}
	}
	return scoring.BatchResult{
		Predictions: preds,
		Summary:     scoring.Summary{Processed: n, AvgProbability: 0.25},
	}
}

func TestScoreBatchSuccess(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody struct {
		Rows []model.LeadInput `json:"rows"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(engineResponse(len(gotBody.Rows)))
	}))
	defer srv.Close()

	c := scoring.NewClient(srv.URL, 5*time.Second, zap.NewNop())
	res, err := c.ScoreBatch(context.Background(), sampleRows(3))
	require.NoError(t, err)

	assert.Equal(t, "/score/batch", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	require.Len(t, gotBody.Rows, 3)
	assert.Equal(t, "technician", gotBody.Rows[0].Job)

	require.Len(t, res.Predictions, 3)
	assert.Equal(t, 3, res.Summary.Processed)
	// Significance order as sent by the engine.
	require.Len(t, res.Predictions[0].ReasonCodes, 2)
	assert.Equal(t, "poutcome", res.Predictions[0].ReasonCodes[0].Feature)
}

func TestScoreBatchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens here anymore

	c := scoring.NewClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.ScoreBatch(context.Background(), sampleRows(1))

	var uerr *apperrors.ScoringUnavailableError
	require.ErrorAs(t, err, &uerr)
}

func TestScoreBatchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := scoring.NewClient(srv.URL, 50*time.Millisecond, zap.NewNop())
	_, err := c.ScoreBatch(context.Background(), sampleRows(1))

	var uerr *apperrors.ScoringUnavailableError
	require.ErrorAs(t, err, &uerr)
}

func TestScoreBatchServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := scoring.NewClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.ScoreBatch(context.Background(), sampleRows(1))

	var uerr *apperrors.ScoringUnavailableError
	require.ErrorAs(t, err, &uerr)
}

func TestScoreBatchClientErrorIsContractViolation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unprocessable", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := scoring.NewClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.ScoreBatch(context.Background(), sampleRows(1))

	var rerr *apperrors.ScoringResponseError
	require.ErrorAs(t, err, &rerr)
}

func TestScoreBatchMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := scoring.NewClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.ScoreBatch(context.Background(), sampleRows(1))

	var rerr *apperrors.ScoringResponseError
	require.ErrorAs(t, err, &rerr)
}

func TestScoreBatchSummaryCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := engineResponse(2)
		res.Summary.Processed = 5
		json.NewEncoder(w).Encode(res)
	}))
	defer srv.Close()

	c := scoring.NewClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.ScoreBatch(context.Background(), sampleRows(2))

	var rerr *apperrors.ScoringResponseError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, err.Error(), "summary.processed")
}

func TestScoreBatchProbabilityOutOfRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := engineResponse(1)
		res.Predictions[0].Probability = 1.2
		json.NewEncoder(w).Encode(res)
	}))
	defer srv.Close()

	c := scoring.NewClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.ScoreBatch(context.Background(), sampleRows(1))

	var rerr *apperrors.ScoringResponseError
	require.ErrorAs(t, err, &rerr)
}

func TestScoreBatchInvalidRowIndexOutOfRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := engineResponse(1)
		res.Summary.Processed = 1
		res.InvalidRows = []scoring.InvalidRow{{RowIndex: 7, Reason: "bad"}}
		json.NewEncoder(w).Encode(res)
	}))
	defer srv.Close()

	c := scoring.NewClient(srv.URL, time.Second, zap.NewNop())
	_, err := c.ScoreBatch(context.Background(), sampleRows(2))

	var rerr *apperrors.ScoringResponseError
	require.ErrorAs(t, err, &rerr)
	assert.Contains(t, err.Error(), "invalid_rows")
}
