package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/asah-capstone-a25/leadscore-backend/internal/config"
	"github.com/asah-capstone-a25/leadscore-backend/internal/db"
	"github.com/asah-capstone-a25/leadscore-backend/internal/queue"
	"github.com/asah-capstone-a25/leadscore-backend/internal/repository"
)

const maxRetries = 3

// Notifier turns campaign lifecycle events into webhook notifications.
type Notifier struct {
	Campaigns  repository.CampaignRepositoryInterface
	WebhookURL string
	HTTP       *http.Client
	Log        *zap.Logger
}

// Notify enriches the event with the persisted campaign record and
// forwards it to the webhook, if one is configured.
func (n *Notifier) Notify(ev queue.CampaignEvent) error {
	campaign, err := n.Campaigns.GetByID(ev.CampaignID)
	if err != nil {
		return err
	}

	n.Log.Info("campaign reached terminal status",
		zap.String("run_id", ev.RunID),
		zap.Int("campaign_id", ev.CampaignID),
		zap.String("status", ev.Status),
		zap.Int("processed_rows", ev.ProcessedRows),
		zap.Int("dropped_rows", ev.DroppedRows),
	)

	if n.WebhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"event":    "campaign." + ev.Status,
		"run_id":   ev.RunID,
		"campaign": campaign,
		"error":    ev.ErrorMessage,
	})
	if err != nil {
		return err
	}

	resp, err := n.HTTP.Post(n.WebhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// retryCount reads the x-retry-count header from a delivery.
func retryCount(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch v := headers["x-retry-count"].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

// shouldRequeue decides the nack/ack outcome for a failed delivery:
// requeue until the retry cap, then drop.
func shouldRequeue(headers amqp.Table) bool {
	return retryCount(headers) < maxRetries
}

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	conn, err := db.Open(cfg.DSN())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	notifier := &Notifier{
		Campaigns:  &repository.CampaignRepository{DB: conn},
		WebhookURL: cfg.WebhookURL,
		HTTP:       &http.Client{Timeout: 10 * time.Second},
		Log:        log,
	}

	mq, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mq.Close()

	ch, err := mq.Channel()
	if err != nil {
		log.Fatal("failed to open a channel", zap.Error(err))
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		queue.CampaignEventsQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		log.Fatal("failed to declare queue", zap.Error(err))
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // manual ack for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("failed to register consumer", zap.Error(err))
	}

	log.Info("worker running, waiting for campaign events")
	for d := range msgs {
		var ev queue.CampaignEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			log.Warn("dropping malformed event", zap.Error(err))
			d.Ack(false)
			continue
		}

		if err := notifier.Notify(ev); err != nil {
			log.Warn("failed to process campaign event",
				zap.Int("campaign_id", ev.CampaignID), zap.Error(err))
			d.Nack(false, shouldRequeue(d.Headers))
			continue
		}
		d.Ack(false)
	}
}
