package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/asah-capstone-a25/leadscore-backend/internal/apperrors"
	"github.com/asah-capstone-a25/leadscore-backend/internal/model"
)

// LeadFilter narrows and orders a lead listing. Zero values mean "no
// filter". SortBy must be one of the whitelisted keys; the service layer
// validates it before the query is built.
type LeadFilter struct {
	RiskLevel      string
	MinProbability *float64
	MaxProbability *float64
	Job            string
	Education      string
	SortBy         string // probability | age | balance | created_at
	Order          string // asc | desc
	Offset         int
	Limit          int
}

type LeadRepositoryInterface interface {
	// BulkInsert writes all leads in a single transaction. Used by the
	// batch writer with one call per chunk: a failing chunk leaves
	// earlier chunks committed.
	BulkInsert(leads []model.Lead) error
	ListByCampaign(campaignID int, f LeadFilter) ([]model.Lead, int, error)
	GetByID(id int) (*model.Lead, error)
	// Aggregate recomputes the campaign rollup by full scan.
	Aggregate(campaignID int) (*model.CampaignStats, error)
}

type LeadRepository struct {
	DB *sql.DB
}

const leadColumns = `id, campaign_run_id, row_index, age, job, marital, education, credit_default,
       balance, housing, loan, contact, day, month, campaign_contacts, pdays, previous, poutcome,
       probability, prediction, prediction_label, risk_level, reason_codes, created_at`

// leadInsertColumns matches the VALUES built in BulkInsert.
const leadInsertColumns = `campaign_run_id, row_index, age, job, marital, education, credit_default,
       balance, housing, loan, contact, day, month, campaign_contacts, pdays, previous, poutcome,
       probability, prediction, prediction_label, risk_level, reason_codes, created_at`

const leadFieldCount = 23

func (r *LeadRepository) BulkInsert(leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	now := time.Now()
	placeholders := make([]string, 0, len(leads))
	args := make([]interface{}, 0, len(leads)*leadFieldCount)

	for i, l := range leads {
		base := i * leadFieldCount
		group := make([]string, leadFieldCount)
		for j := range group {
			group[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(group, ", ")+")")

		args = append(args,
			l.CampaignRunID, l.RowIndex, l.Age, l.Job, l.Marital, l.Education, l.CreditDefault,
			l.Balance, l.Housing, l.Loan, l.Contact, l.Day, l.Month, l.CampaignContacts,
			l.PDays, l.Previous, l.POutcome,
			l.Probability, l.Prediction, l.PredictionLabel, l.RiskLevel, l.ReasonCodes, now,
		)
	}

	query := `INSERT INTO leads (` + leadInsertColumns + `) VALUES ` + strings.Join(placeholders, ", ")

	tx, err := r.DB.Begin()
	if err != nil {
		return eris.Wrap(err, "lead repository: begin bulk insert")
	}
	if _, err := tx.Exec(query, args...); err != nil {
		tx.Rollback()
		return eris.Wrap(err, "lead repository: bulk insert")
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "lead repository: commit bulk insert")
	}
	return nil
}

func scanLead(row interface{ Scan(...interface{}) error }) (*model.Lead, error) {
	var l model.Lead
	err := row.Scan(
		&l.ID, &l.CampaignRunID, &l.RowIndex, &l.Age, &l.Job, &l.Marital, &l.Education,
		&l.CreditDefault, &l.Balance, &l.Housing, &l.Loan, &l.Contact, &l.Day, &l.Month,
		&l.CampaignContacts, &l.PDays, &l.Previous, &l.POutcome,
		&l.Probability, &l.Prediction, &l.PredictionLabel, &l.RiskLevel, &l.ReasonCodes, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// sortColumns whitelists ORDER BY targets; anything else falls back to
// row order within the file.
var sortColumns = map[string]string{
	"probability": "probability",
	"age":         "age",
	"balance":     "balance",
	"created_at":  "created_at",
}

func (r *LeadRepository) ListByCampaign(campaignID int, f LeadFilter) ([]model.Lead, int, error) {
	where := "WHERE campaign_run_id=$1"
	args := []interface{}{campaignID}
	argPos := 2

	if f.RiskLevel != "" {
		where += fmt.Sprintf(" AND risk_level=$%d", argPos)
		args = append(args, f.RiskLevel)
		argPos++
	}
	if f.MinProbability != nil {
		where += fmt.Sprintf(" AND probability >= $%d", argPos)
		args = append(args, *f.MinProbability)
		argPos++
	}
	if f.MaxProbability != nil {
		where += fmt.Sprintf(" AND probability <= $%d", argPos)
		args = append(args, *f.MaxProbability)
		argPos++
	}
	if f.Job != "" {
		where += fmt.Sprintf(" AND job=$%d", argPos)
		args = append(args, f.Job)
		argPos++
	}
	if f.Education != "" {
		where += fmt.Sprintf(" AND education=$%d", argPos)
		args = append(args, f.Education)
		argPos++
	}

	orderBy := "row_index ASC"
	if col, ok := sortColumns[f.SortBy]; ok {
		dir := "ASC"
		if strings.EqualFold(f.Order, "desc") {
			dir = "DESC"
		}
		orderBy = col + " " + dir
	}

	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		leadColumns, where, orderBy, argPos, argPos+1)
	queryArgs := append(append([]interface{}{}, args...), f.Limit, f.Offset)

	rows, err := r.DB.Query(query, queryArgs...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "lead repository: list")
	}
	defer rows.Close()

	leads := []model.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, eris.Wrap(err, "lead repository: list scan")
		}
		leads = append(leads, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, eris.Wrap(err, "lead repository: list rows")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM leads ` + where
	if err := r.DB.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "lead repository: count")
	}

	return leads, total, nil
}

func (r *LeadRepository) GetByID(id int) (*model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id=$1`
	l, err := scanLead(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewLeadNotFound(id)
		}
		return nil, eris.Wrap(err, "lead repository: get by id")
	}
	return l, nil
}

func (r *LeadRepository) Aggregate(campaignID int) (*model.CampaignStats, error) {
	query := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE risk_level = 'High'),
               COUNT(*) FILTER (WHERE risk_level = 'Medium'),
               COUNT(*) FILTER (WHERE risk_level = 'Low'),
               AVG(probability)
        FROM leads
        WHERE campaign_run_id = $1
    `
	var stats model.CampaignStats
	err := r.DB.QueryRow(query, campaignID).Scan(
		&stats.TotalLeads, &stats.ConversionHigh, &stats.ConversionMedium,
		&stats.ConversionLow, &stats.AvgProbability,
	)
	if err != nil {
		return nil, eris.Wrap(err, "lead repository: aggregate")
	}
	return &stats, nil
}

var _ LeadRepositoryInterface = (*LeadRepository)(nil)
