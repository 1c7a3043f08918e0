package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Risk tiers derived from prediction probability.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// LeadInput is one validated row from the uploaded batch file. The json
// tags match the scoring engine's feature names, so the same struct is
// serialized into the batch scoring request.
type LeadInput struct {
	Age           int    `db:"age" json:"age" validate:"gte=18,lte=100"`
	Job           string `db:"job" json:"job" validate:"required,oneof=admin. blue-collar entrepreneur housemaid management retired self-employed services student technician unemployed unknown"`
	Marital       string `db:"marital" json:"marital" validate:"required,oneof=divorced married single"`
	Education     string `db:"education" json:"education" validate:"required,oneof=primary secondary tertiary unknown"`
	CreditDefault string `db:"credit_default" json:"default" validate:"required,oneof=no yes"`
	Balance       int    `db:"balance" json:"balance"`
	Housing       string `db:"housing" json:"housing" validate:"required,oneof=no yes"`
	Loan          string `db:"loan" json:"loan" validate:"required,oneof=no yes"`
	Contact       string `db:"contact" json:"contact" validate:"required,oneof=cellular telephone unknown"`
	Day           int    `db:"day" json:"day" validate:"gte=1,lte=31"`
	Month         string `db:"month" json:"month" validate:"required,oneof=jan feb mar apr may jun jul aug sep oct nov dec"`
	// Number of contacts performed during this campaign. The source
	// column is named "campaign"; renamed here to avoid clashing with
	// the Campaign entity.
	CampaignContacts int    `db:"campaign_contacts" json:"campaign" validate:"gte=1"`
	PDays            int    `db:"pdays" json:"pdays" validate:"gte=-1"`
	Previous         int    `db:"previous" json:"previous" validate:"gte=0"`
	POutcome         string `db:"poutcome" json:"poutcome" validate:"required,oneof=failure other success unknown"`
}

// ReasonCode is one explanation term for a prediction: which feature
// pushed the score, in which direction, and by how much.
type ReasonCode struct {
	Feature   string  `json:"feature"`
	Direction string  `json:"direction"`
	ShapValue float64 `json:"shap_value"`
}

// ReasonCodeList is stored as a JSONB column. The engine returns reason
// codes in significance order and that order is preserved verbatim.
type ReasonCodeList []ReasonCode

func (l ReasonCodeList) Value() (driver.Value, error) {
	if l == nil {
		l = ReasonCodeList{}
	}
	return json.Marshal(l)
}

func (l *ReasonCodeList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = ReasonCodeList{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ReasonCodeList", src)
	}
}

// Lead is one scored input row. Owned by its campaign and cascade-deleted
// with it; RowIndex is the position in the source file, unique per campaign.
type Lead struct {
	ID            int `db:"id" json:"id"`
	CampaignRunID int `db:"campaign_run_id" json:"campaign_run_id"`
	RowIndex      int `db:"row_index" json:"row_index"`
	LeadInput
	Probability     float64        `db:"probability" json:"probability"`
	Prediction      int            `db:"prediction" json:"prediction"`
	PredictionLabel string         `db:"prediction_label" json:"prediction_label"`
	RiskLevel       string         `db:"risk_level" json:"risk_level"`
	ReasonCodes     ReasonCodeList `db:"reason_codes" json:"reason_codes"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}
