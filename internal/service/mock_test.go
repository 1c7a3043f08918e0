package service_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/asah-capstone-a25/leadscore-backend/internal/apperrors"
	"github.com/asah-capstone-a25/leadscore-backend/internal/model"
	"github.com/asah-capstone-a25/leadscore-backend/internal/queue"
	"github.com/asah-capstone-a25/leadscore-backend/internal/repository"
	"github.com/asah-capstone-a25/leadscore-backend/internal/scoring"
)

// --- Fake campaign repository ---

type fakeCampaignRepo struct {
	mu        sync.Mutex
	nextID    int
	campaigns map[int]*model.Campaign
}

func newFakeCampaignRepo() *fakeCampaignRepo {
	return &fakeCampaignRepo{campaigns: map[int]*model.Campaign{}}
}

func (f *fakeCampaignRepo) Create(c *model.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	stored := *c
	f.campaigns[c.ID] = &stored
	return nil
}

func (f *fakeCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return nil, apperrors.NewCampaignNotFound(id)
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCampaignRepo) List(offset, limit, createdBy int) ([]*model.Campaign, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := []*model.Campaign{}
	for _, c := range f.campaigns {
		if createdBy > 0 && (c.CreatedBy == nil || *c.CreatedBy != createdBy) {
			continue
		}
		copied := *c
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := len(all)
	if offset >= total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (f *fakeCampaignRepo) MarkCompleted(id, processed, dropped int, avg *float64, high, medium, low int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok || c.Status != model.StatusProcessing {
		return fmt.Errorf("campaign %d is not in processing state", id)
	}
	c.Status = model.StatusCompleted
	c.ProcessedRows = processed
	c.DroppedRows = dropped
	c.AvgProbability = avg
	c.ConversionHigh = high
	c.ConversionMedium = medium
	c.ConversionLow = low
	return nil
}

func (f *fakeCampaignRepo) MarkFailed(id int, errMsg string, processed, dropped int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok || c.Status != model.StatusProcessing {
		return fmt.Errorf("campaign %d is not in processing state", id)
	}
	c.Status = model.StatusFailed
	c.ErrorMessage = &errMsg
	c.ProcessedRows = processed
	c.DroppedRows = dropped
	return nil
}

func (f *fakeCampaignRepo) Delete(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.campaigns[id]; !ok {
		return apperrors.NewCampaignNotFound(id)
	}
	delete(f.campaigns, id)
	return nil
}

var _ repository.CampaignRepositoryInterface = (*fakeCampaignRepo)(nil)

// --- Fake lead repository ---

type fakeLeadRepo struct {
	mu          sync.Mutex
	nextID      int
	leads       []model.Lead
	chunkSizes  []int
	failOnChunk int // 1-based insert call that fails; 0 = never
}

func (f *fakeLeadRepo) BulkInsert(leads []model.Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunkSizes = append(f.chunkSizes, len(leads))
	if f.failOnChunk > 0 && len(f.chunkSizes) == f.failOnChunk {
		return fmt.Errorf("storage write refused")
	}
	for _, l := range leads {
		f.nextID++
		l.ID = f.nextID
		l.CreatedAt = time.Now()
		f.leads = append(f.leads, l)
	}
	return nil
}

func (f *fakeLeadRepo) ListByCampaign(campaignID int, filter repository.LeadFilter) ([]model.Lead, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []model.Lead{}
	for _, l := range f.leads {
		if l.CampaignRunID != campaignID {
			continue
		}
		if filter.RiskLevel != "" && l.RiskLevel != filter.RiskLevel {
			continue
		}
		if filter.MinProbability != nil && l.Probability < *filter.MinProbability {
			continue
		}
		if filter.MaxProbability != nil && l.Probability > *filter.MaxProbability {
			continue
		}
		if filter.Job != "" && l.Job != filter.Job {
			continue
		}
		if filter.Education != "" && l.Education != filter.Education {
			continue
		}
		matched = append(matched, l)
	}

	desc := strings.EqualFold(filter.Order, "desc")
	less := func(i, j int) bool { return matched[i].RowIndex < matched[j].RowIndex }
	switch filter.SortBy {
	case "probability":
		less = func(i, j int) bool { return matched[i].Probability < matched[j].Probability }
	case "age":
		less = func(i, j int) bool { return matched[i].Age < matched[j].Age }
	case "balance":
		less = func(i, j int) bool { return matched[i].Balance < matched[j].Balance }
	}
	if desc {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(matched, less)

	total := len(matched)
	if filter.Offset >= total {
		return []model.Lead{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}

func (f *fakeLeadRepo) GetByID(id int) (*model.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.leads {
		if l.ID == id {
			copied := l
			return &copied, nil
		}
	}
	return nil, apperrors.NewLeadNotFound(id)
}

func (f *fakeLeadRepo) Aggregate(campaignID int) (*model.CampaignStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &model.CampaignStats{}
	var sum float64
	for _, l := range f.leads {
		if l.CampaignRunID != campaignID {
			continue
		}
		stats.TotalLeads++
		sum += l.Probability
		switch l.RiskLevel {
		case model.RiskHigh:
			stats.ConversionHigh++
		case model.RiskMedium:
			stats.ConversionMedium++
		case model.RiskLow:
			stats.ConversionLow++
		}
	}
	if stats.TotalLeads > 0 {
		avg := sum / float64(stats.TotalLeads)
		stats.AvgProbability = &avg
	}
	return stats, nil
}

var _ repository.LeadRepositoryInterface = (*fakeLeadRepo)(nil)

// --- Fake scorer and publisher ---

type fakeScorer struct {
	result *scoring.BatchResult
	err    error
}

func (f *fakeScorer) ScoreBatch(ctx context.Context, rows []model.LeadInput) (*scoring.BatchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.CampaignEvent
}

func (f *fakePublisher) PublishCampaignEvent(ev queue.CampaignEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

// --- Row and fixture helpers ---

func sampleRow() model.LeadInput {
	return model.LeadInput{
		Age: 35, Job: "technician", Marital: "married", Education: "tertiary",
		CreditDefault: "no", Balance: 1500, Housing: "yes", Loan: "no",
		Contact: "cellular", Day: 15, Month: "may", CampaignContacts: 2,
		PDays: -1, Previous: 0, POutcome: "unknown",
	}
}

func makeRows(n int) []model.LeadInput {
	rows := make([]model.LeadInput, n)
	for i := range rows {
		rows[i] = sampleRow()
		rows[i].Age = 20 + i%60
		rows[i].Balance = 100 * i
	}
	return rows
}

// makePredictions spreads probabilities over [0,1) deterministically.
func makePredictions(n int) []scoring.Prediction {
	preds := make([]scoring.Prediction, n)
	for i := range preds {
		p := float64(i%100) / 100.0
		pred := 0
		if p >= 0.5 {
			pred = 1
		}
		preds[i] = scoring.Prediction{
			Probability: p,
			Prediction:  pred,
			ReasonCodes: []model.ReasonCode{
				{Feature: "contact", Direction: "positive", ShapValue: 0.27},
				{Feature: "housing", Direction: "negative", ShapValue: -0.22},
			},
		}
	}
	return preds
}

func batchResultFor(preds []scoring.Prediction, invalid []scoring.InvalidRow) *scoring.BatchResult {
	var sum float64
	for _, p := range preds {
		sum += p.Probability
	}
	avg := 0.0
	if len(preds) > 0 {
		avg = sum / float64(len(preds))
	}
	return &scoring.BatchResult{
		Predictions: preds,
		Summary:     scoring.Summary{Processed: len(preds), AvgProbability: avg},
		InvalidRows: invalid,
	}
}

// csvFromRows renders rows back into the upload format.
func csvFromRows(rows []model.LeadInput) string {
	var b strings.Builder
	b.WriteString("age,job,marital,education,default,balance,housing,loan,contact,day,month,campaign,pdays,previous,poutcome\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%d,%s,%s,%s,%s,%d,%s,%s,%s,%d,%s,%d,%d,%d,%s\n",
			r.Age, r.Job, r.Marital, r.Education, r.CreditDefault, r.Balance,
			r.Housing, r.Loan, r.Contact, r.Day, r.Month, r.CampaignContacts,
			r.PDays, r.Previous, r.POutcome)
	}
	return b.String()
}
