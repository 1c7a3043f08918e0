package model

import "time"

// Campaign statuses. Transitions are monotonic: processing moves to
// completed or failed exactly once; terminal states never change.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Campaign is one ingestion run over one uploaded batch file.
type Campaign struct {
	ID               int        `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	SourceFile       string     `db:"source_file" json:"source_file"`
	TotalRows        int        `db:"total_rows" json:"total_rows"`
	ProcessedRows    int        `db:"processed_rows" json:"processed_rows"`
	DroppedRows      int        `db:"dropped_rows" json:"dropped_rows"`
	AvgProbability   *float64   `db:"avg_probability" json:"avg_probability,omitempty"`
	ConversionHigh   int        `db:"conversion_high" json:"conversion_high"`
	ConversionMedium int        `db:"conversion_medium" json:"conversion_medium"`
	ConversionLow    int        `db:"conversion_low" json:"conversion_low"`
	Status           string     `db:"status" json:"status"`
	ErrorMessage     *string    `db:"error_message" json:"error_message,omitempty"`
	CreatedBy        *int       `db:"created_by" json:"created_by,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// CampaignStats is the rollup over a campaign's persisted leads.
// AvgProbability is nil when the campaign has no leads.
type CampaignStats struct {
	TotalLeads       int      `json:"total_leads"`
	ConversionHigh   int      `json:"conversion_high"`
	ConversionMedium int      `json:"conversion_medium"`
	ConversionLow    int      `json:"conversion_low"`
	AvgProbability   *float64 `json:"avg_probability"`
}
