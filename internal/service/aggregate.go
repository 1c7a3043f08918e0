package service

import (
	"github.com/asah-capstone-a25/leadscore-backend/internal/model"
	"github.com/asah-capstone-a25/leadscore-backend/internal/repository"
)

// Aggregator recomputes a campaign's rollup by full scan of its leads.
// Read-only; running it twice on an unchanged campaign yields identical
// results, and its output must equal the summary derived incrementally
// during ingestion.
type Aggregator struct {
	Leads repository.LeadRepositoryInterface
}

func (a *Aggregator) CampaignStats(campaignID int) (*model.CampaignStats, error) {
	return a.Leads.Aggregate(campaignID)
}
