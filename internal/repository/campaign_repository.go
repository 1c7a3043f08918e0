package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/asah-capstone-a25/leadscore-backend/internal/apperrors"
	"github.com/asah-capstone-a25/leadscore-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	// List returns a page of campaigns, newest first, optionally
	// filtered by creator (createdBy 0 = all), plus the total count.
	List(offset, limit, createdBy int) ([]*model.Campaign, int, error)
	// MarkCompleted and MarkFailed are the only status transitions.
	// Both refuse to touch a campaign that is no longer processing.
	MarkCompleted(id, processed, dropped int, avg *float64, high, medium, low int) error
	MarkFailed(id int, errMsg string, processed, dropped int) error
	Delete(id int) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, source_file, total_rows, processed_rows, dropped_rows,
       avg_probability, conversion_high, conversion_medium, conversion_low,
       status, error_message, created_by, created_at, updated_at`

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.StatusProcessing
	}
	query := `
        INSERT INTO campaigns (name, source_file, total_rows, status, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	err := r.DB.QueryRow(query, c.Name, c.SourceFile, c.TotalRows, c.Status, c.CreatedBy, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		return eris.Wrap(err, "campaign repository: create")
	}
	return nil
}

func scanCampaign(row interface{ Scan(...interface{}) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.Name, &c.SourceFile, &c.TotalRows, &c.ProcessedRows, &c.DroppedRows,
		&c.AvgProbability, &c.ConversionHigh, &c.ConversionMedium, &c.ConversionLow,
		&c.Status, &c.ErrorMessage, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewCampaignNotFound(id)
		}
		return nil, eris.Wrap(err, "campaign repository: get by id")
	}
	return c, nil
}

func (r *CampaignRepository) List(offset, limit, createdBy int) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if createdBy > 0 {
		query += fmt.Sprintf(" AND created_by=$%d", argPos)
		args = append(args, createdBy)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "campaign repository: list")
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, eris.Wrap(err, "campaign repository: list scan")
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, eris.Wrap(err, "campaign repository: list rows")
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	countArgs := []interface{}{}
	if createdBy > 0 {
		countQuery += " AND created_by=$1"
		countArgs = append(countArgs, createdBy)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "campaign repository: count")
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) MarkCompleted(id, processed, dropped int, avg *float64, high, medium, low int) error {
	query := `
        UPDATE campaigns
        SET status=$1, processed_rows=$2, dropped_rows=$3, avg_probability=$4,
            conversion_high=$5, conversion_medium=$6, conversion_low=$7, updated_at=NOW()
        WHERE id=$8 AND status=$9
    `
	res, err := r.DB.Exec(query, model.StatusCompleted, processed, dropped, avg, high, medium, low, id, model.StatusProcessing)
	if err != nil {
		return eris.Wrap(err, "campaign repository: mark completed")
	}
	return requireTransition(res, id)
}

func (r *CampaignRepository) MarkFailed(id int, errMsg string, processed, dropped int) error {
	query := `
        UPDATE campaigns
        SET status=$1, error_message=$2, processed_rows=$3, dropped_rows=$4, updated_at=NOW()
        WHERE id=$5 AND status=$6
    `
	res, err := r.DB.Exec(query, model.StatusFailed, errMsg, processed, dropped, id, model.StatusProcessing)
	if err != nil {
		return eris.Wrap(err, "campaign repository: mark failed")
	}
	return requireTransition(res, id)
}

// requireTransition enforces the monotonic status machine: the guarded
// UPDATE matches zero rows when the campaign is missing or already
// terminal, and terminal states must stay immutable.
func requireTransition(res sql.Result, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "campaign repository: rows affected")
	}
	if n == 0 {
		return eris.Errorf("campaign %d is not in processing state", id)
	}
	return nil
}

func (r *CampaignRepository) Delete(id int) error {
	// Leads go with it via ON DELETE CASCADE.
	res, err := r.DB.Exec(`DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return eris.Wrap(err, "campaign repository: delete")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "campaign repository: delete rows affected")
	}
	if n == 0 {
		return apperrors.NewCampaignNotFound(id)
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
