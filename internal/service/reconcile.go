package service

import (
	"fmt"

	"github.com/asah-capstone-a25/leadscore-backend/internal/apperrors"
	"github.com/asah-capstone-a25/leadscore-backend/internal/model"
	"github.com/asah-capstone-a25/leadscore-backend/internal/scoring"
)

// RiskThresholds partitions [0,1] into the three tiers. Boundaries are
// closed on the lower end, so a probability exactly at a cut point
// always lands in the higher tier.
type RiskThresholds struct {
	MediumMin float64
	HighMin   float64
}

func (t RiskThresholds) Classify(probability float64) string {
	switch {
	case probability >= t.HighMin:
		return model.RiskHigh
	case probability >= t.MediumMin:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// Reconciler maps engine predictions back onto the validated input rows
// and derives the per-lead fields the engine does not own.
type Reconciler struct {
	Thresholds RiskThresholds
}

// ReconcileResult carries the insertable leads plus the incrementally
// derived summary. The summary must match what the aggregator later
// recomputes by full scan.
type ReconcileResult struct {
	Leads          []model.Lead
	Dropped        []scoring.InvalidRow
	High           int
	Medium         int
	Low            int
	AvgProbability *float64
}

// Reconcile pairs rows with predictions in order, skipping rows the
// engine marked invalid. Any mismatch between what was sent and what
// came back is a contract violation, never silently tolerated.
func (r *Reconciler) Reconcile(campaignID int, rows []model.LeadInput, res *scoring.BatchResult) (*ReconcileResult, error) {
	if len(res.Predictions)+len(res.InvalidRows) != len(rows) {
		return nil, &apperrors.ReconciliationError{
			Reason: fmt.Sprintf("engine returned %d predictions and %d invalid rows for %d input rows",
				len(res.Predictions), len(res.InvalidRows), len(rows)),
		}
	}

	invalid := make(map[int]string, len(res.InvalidRows))
	for _, iv := range res.InvalidRows {
		if _, dup := invalid[iv.RowIndex]; dup {
			return nil, &apperrors.ReconciliationError{
				Reason: fmt.Sprintf("engine marked row %d invalid twice", iv.RowIndex),
			}
		}
		invalid[iv.RowIndex] = iv.Reason
	}

	out := &ReconcileResult{Dropped: res.InvalidRows}
	var sum float64
	next := 0

	for i, row := range rows {
		if _, skip := invalid[i]; skip {
			continue
		}
		p := res.Predictions[next]
		next++

		label, err := predictionLabel(p.Prediction)
		if err != nil {
			return nil, err
		}
		tier := r.Thresholds.Classify(p.Probability)
		switch tier {
		case model.RiskHigh:
			out.High++
		case model.RiskMedium:
			out.Medium++
		default:
			out.Low++
		}
		sum += p.Probability

		out.Leads = append(out.Leads, model.Lead{
			CampaignRunID:   campaignID,
			RowIndex:        i,
			LeadInput:       row,
			Probability:     p.Probability,
			Prediction:      p.Prediction,
			PredictionLabel: label,
			RiskLevel:       tier,
			// Engine significance order, preserved verbatim.
			ReasonCodes: model.ReasonCodeList(p.ReasonCodes),
		})
	}

	if n := len(out.Leads); n > 0 {
		avg := sum / float64(n)
		out.AvgProbability = &avg
	}
	return out, nil
}

func predictionLabel(prediction int) (string, error) {
	switch prediction {
	case 1:
		return "yes", nil
	case 0:
		return "no", nil
	default:
		return "", &apperrors.ReconciliationError{
			Reason: fmt.Sprintf("engine returned prediction %d, expected 0 or 1", prediction),
		}
	}
}
