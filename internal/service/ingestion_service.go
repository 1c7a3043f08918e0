package service

import (
	"context"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asah-capstone-a25/leadscore-backend/internal/batch"
	"github.com/asah-capstone-a25/leadscore-backend/internal/model"
	"github.com/asah-capstone-a25/leadscore-backend/internal/queue"
	"github.com/asah-capstone-a25/leadscore-backend/internal/repository"
	"github.com/asah-capstone-a25/leadscore-backend/internal/scoring"
)

// Pipeline stages. Process-local only: the persisted campaign status
// stays processing until the run reaches completed or failed.
type stage string

const (
	stageCreated    stage = "created"
	stageValidating stage = "validating"
	stageScoring    stage = "scoring"
	stagePersisting stage = "persisting"
	stageCompleted  stage = "completed"
	stageFailed     stage = "failed"
)

// Upload is the raw file handed in by the transport layer.
type Upload struct {
	Name        string // display name; falls back to the file name
	FileName    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// IngestResult is returned to the caller on success: the final campaign
// record, the engine's raw summary, and the rows the engine rejected.
type IngestResult struct {
	Campaign    *model.Campaign      `json:"campaign"`
	Summary     scoring.Summary      `json:"summary"`
	InvalidRows []scoring.InvalidRow `json:"invalid_rows"`
}

// IngestionService sequences one ingestion run: validate, create the
// campaign record, score, reconcile, persist in chunks, finalize status.
type IngestionService struct {
	Campaigns  repository.CampaignRepositoryInterface
	Validator  *batch.Validator
	Scorer     scoring.Scorer
	Reconciler *Reconciler
	Writer     *BatchWriter
	Events     queue.Publisher
	Log        *zap.Logger
}

// Ingest runs the whole pipeline for one uploaded batch. Validation
// failures return before any campaign row exists; every later failure
// marks the already-created campaign failed with the row counts that
// actually hold. The caller identity is passed in explicitly.
func (s *IngestionService) Ingest(ctx context.Context, caller *model.User, up Upload) (*IngestResult, error) {
	runID := uuid.NewString()
	log := s.Log.With(zap.String("run_id", runID), zap.String("file", up.FileName))
	log.Info("ingestion run started", zap.String("stage", string(stageCreated)))

	// Validation runs strictly first: a malformed file must never leave
	// an orphaned processing campaign behind.
	log.Info("stage transition", zap.String("stage", string(stageValidating)))
	table, err := s.Validator.Validate(up.Data, up.FileName, up.ContentType, up.Size)
	if err != nil {
		log.Warn("validation rejected upload", zap.Error(err))
		return nil, err
	}

	name := up.Name
	if name == "" {
		name = up.FileName
	}
	campaign := &model.Campaign{
		Name:       name,
		SourceFile: up.FileName,
		TotalRows:  len(table.Rows),
		Status:     model.StatusProcessing,
	}
	if caller != nil {
		id := caller.ID
		campaign.CreatedBy = &id
	}
	if err := s.Campaigns.Create(campaign); err != nil {
		return nil, err
	}
	log = log.With(zap.Int("campaign_id", campaign.ID))

	log.Info("stage transition", zap.String("stage", string(stageScoring)), zap.Int("rows", len(table.Rows)))
	result, err := s.Scorer.ScoreBatch(ctx, table.Rows)
	if err != nil {
		return nil, s.fail(log, runID, campaign, err, 0)
	}

	rec, err := s.Reconciler.Reconcile(campaign.ID, table.Rows, result)
	if err != nil {
		return nil, s.fail(log, runID, campaign, err, 0)
	}
	for _, iv := range rec.Dropped {
		log.Warn("engine rejected row", zap.Int("row_index", iv.RowIndex), zap.String("reason", iv.Reason))
	}

	log.Info("stage transition", zap.String("stage", string(stagePersisting)), zap.Int("leads", len(rec.Leads)))
	committed, err := s.Writer.WriteAll(rec.Leads)
	if err != nil {
		return nil, s.fail(log, runID, campaign, err, committed)
	}

	dropped := campaign.TotalRows - committed
	if err := s.Campaigns.MarkCompleted(campaign.ID, committed, dropped,
		rec.AvgProbability, rec.High, rec.Medium, rec.Low); err != nil {
		return nil, s.fail(log, runID, campaign, err, committed)
	}
	campaign.Status = model.StatusCompleted
	campaign.ProcessedRows = committed
	campaign.DroppedRows = dropped
	campaign.AvgProbability = rec.AvgProbability
	campaign.ConversionHigh = rec.High
	campaign.ConversionMedium = rec.Medium
	campaign.ConversionLow = rec.Low

	log.Info("ingestion run completed",
		zap.String("stage", string(stageCompleted)),
		zap.Int("processed_rows", committed),
		zap.Int("dropped_rows", dropped),
	)
	s.publish(log, queue.CampaignEvent{
		RunID:         runID,
		CampaignID:    campaign.ID,
		Status:        model.StatusCompleted,
		ProcessedRows: committed,
		DroppedRows:   dropped,
	})

	return &IngestResult{
		Campaign:    campaign,
		Summary:     result.Summary,
		InvalidRows: result.InvalidRows,
	}, nil
}

// fail moves the campaign to its terminal failed state. committed is the
// number of rows durably persisted before the failure; every row not
// persisted counts as dropped. Returns the original pipeline error.
func (s *IngestionService) fail(log *zap.Logger, runID string, campaign *model.Campaign, cause error, committed int) error {
	dropped := campaign.TotalRows - committed
	log.Error("ingestion run failed",
		zap.String("stage", string(stageFailed)),
		zap.Int("processed_rows", committed),
		zap.Int("dropped_rows", dropped),
		zap.Error(cause),
	)

	if err := s.Campaigns.MarkFailed(campaign.ID, cause.Error(), committed, dropped); err != nil {
		// The campaign may be stuck in processing; nothing more we can
		// do here beyond making the operator aware.
		log.Error("could not mark campaign failed", zap.Error(err))
	}

	s.publish(log, queue.CampaignEvent{
		RunID:         runID,
		CampaignID:    campaign.ID,
		Status:        model.StatusFailed,
		ProcessedRows: committed,
		DroppedRows:   dropped,
		ErrorMessage:  cause.Error(),
	})
	return cause
}

func (s *IngestionService) publish(log *zap.Logger, ev queue.CampaignEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishCampaignEvent(ev); err != nil {
		log.Warn("could not publish campaign event", zap.Error(err))
	}
}
