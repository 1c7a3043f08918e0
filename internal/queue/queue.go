// Package queue publishes campaign lifecycle events to RabbitMQ. The
// events feed the notification worker; publishing is best-effort and an
// ingestion run never fails because the broker is down.
package queue

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/streadway/amqp"
)

// CampaignEventsQueue is the durable queue both the publisher and the
// worker declare.
const CampaignEventsQueue = "campaign_events"

// CampaignEvent announces a campaign reaching a terminal status.
type CampaignEvent struct {
	RunID         string `json:"run_id"`
	CampaignID    int    `json:"campaign_id"`
	Status        string `json:"status"`
	ProcessedRows int    `json:"processed_rows"`
	DroppedRows   int    `json:"dropped_rows"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

type Publisher interface {
	PublishCampaignEvent(ev CampaignEvent) error
}

type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, eris.Wrap(err, "queue: dial")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, eris.Wrap(err, "queue: open channel")
	}
	_, err = ch.QueueDeclare(
		CampaignEventsQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, eris.Wrap(err, "queue: declare")
	}
	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

func (p *AMQPPublisher) PublishCampaignEvent(ev CampaignEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "queue: encode event")
	}
	err = p.ch.Publish(
		"",                  // default exchange
		CampaignEventsQueue, // routing key
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return eris.Wrap(err, "queue: publish")
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.ch.Close()
	return p.conn.Close()
}

var _ Publisher = (*AMQPPublisher)(nil)
