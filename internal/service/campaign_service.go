package service

import (
	"github.com/asah-capstone-a25/leadscore-backend/internal/apperrors"
	"github.com/asah-capstone-a25/leadscore-backend/internal/model"
	"github.com/asah-capstone-a25/leadscore-backend/internal/repository"
)

// CampaignService covers the read side: campaign lookups, lead listing
// with filters, and on-demand statistics. Reads are stateless and safe
// to run concurrently with ingestion; a campaign still in processing is
// simply not authoritative yet.
type CampaignService struct {
	Campaigns  repository.CampaignRepositoryInterface
	Leads      repository.LeadRepositoryInterface
	Aggregator *Aggregator
}

// LeadQuery is the transport-agnostic lead listing request.
type LeadQuery struct {
	RiskLevel      string
	MinProbability *float64
	MaxProbability *float64
	Job            string
	Education      string
	SortBy         string
	Order          string
	Page           int
	PageSize       int
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func pagination(page, pageSize, total int) map[string]int {
	totalPages := (total + pageSize - 1) / pageSize
	return map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}
}

func (s *CampaignService) GetCampaign(id int) (*model.Campaign, error) {
	return s.Campaigns.GetByID(id)
}

// ListCampaigns fetches campaigns with pagination, newest first,
// optionally restricted to one creator.
func (s *CampaignService) ListCampaigns(page, pageSize, createdBy int) ([]model.Campaign, map[string]int, error) {
	page, pageSize = clampPage(page, pageSize)
	offset := (page - 1) * pageSize

	ptrs, total, err := s.Campaigns.List(offset, pageSize, createdBy)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}
	return campaigns, pagination(page, pageSize, total), nil
}

// CampaignStats recomputes the rollup by full scan. The campaign must
// exist; an empty campaign yields zero counts and a nil average.
func (s *CampaignService) CampaignStats(id int) (*model.CampaignStats, error) {
	if _, err := s.Campaigns.GetByID(id); err != nil {
		return nil, err
	}
	return s.Aggregator.CampaignStats(id)
}

var validRiskLevels = map[string]bool{
	model.RiskLow: true, model.RiskMedium: true, model.RiskHigh: true,
}

var validSortKeys = map[string]bool{
	"": true, "probability": true, "age": true, "balance": true, "created_at": true,
}

// ListLeads returns one page of a campaign's leads with the supported
// filters applied: risk tier, probability range, job, education.
func (s *CampaignService) ListLeads(campaignID int, q LeadQuery) ([]model.Lead, map[string]int, error) {
	if _, err := s.Campaigns.GetByID(campaignID); err != nil {
		return nil, nil, err
	}
	if q.RiskLevel != "" && !validRiskLevels[q.RiskLevel] {
		return nil, nil, apperrors.NewFileValidationError("risk_level must be Low, Medium or High")
	}
	if !validSortKeys[q.SortBy] {
		return nil, nil, apperrors.NewFileValidationError("sort_by must be probability, age, balance or created_at")
	}

	page, pageSize := clampPage(q.Page, q.PageSize)
	offset := (page - 1) * pageSize

	leads, total, err := s.Leads.ListByCampaign(campaignID, repository.LeadFilter{
		RiskLevel:      q.RiskLevel,
		MinProbability: q.MinProbability,
		MaxProbability: q.MaxProbability,
		Job:            q.Job,
		Education:      q.Education,
		SortBy:         q.SortBy,
		Order:          q.Order,
		Offset:         offset,
		Limit:          pageSize,
	})
	if err != nil {
		return nil, nil, err
	}
	return leads, pagination(page, pageSize, total), nil
}

func (s *CampaignService) GetLead(id int) (*model.Lead, error) {
	return s.Leads.GetByID(id)
}

// DeleteCampaign removes a campaign and, via cascade, all its leads.
// Admin only.
func (s *CampaignService) DeleteCampaign(caller *model.User, id int) error {
	if !caller.IsAdmin() {
		return &apperrors.UnauthorizedError{Reason: "only admins may delete campaigns"}
	}
	return s.Campaigns.Delete(id)
}
