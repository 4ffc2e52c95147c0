package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	appoutbox "premises/internal/app/outbox"
)

var ErrPublisherNotConfigured = errors.New("outbox: publisher missing producer")

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// PublishingOutbox buffers domain event records and ships them to the broker
// as CloudEvents-formatted JSON when flushed. Flush happens after each
// successful command, so events never precede the state change they describe.
type PublishingOutbox struct {
	Producer    Producer
	TopicPrefix string
	Source      string
	Logger      *slog.Logger

	mu      sync.Mutex
	pending []appoutbox.EventRecord
}

func (o *PublishingOutbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, record)
	return nil
}

// Flush publishes every buffered record. A publish failure keeps the failed
// record and its successors buffered for the next flush.
func (o *PublishingOutbox) Flush(ctx context.Context) error {
	if o.Producer == nil {
		return ErrPublisherNotConfigured
	}
	o.mu.Lock()
	pending := o.pending
	o.pending = nil
	o.mu.Unlock()

	for i, record := range pending {
		payload, headers, err := formatCloudEvent(record, o.source())
		if err != nil {
			if o.Logger != nil {
				o.Logger.Error("outbox event unserializable, dropping", "event", record.Name, "error", err)
			}
			continue
		}
		if err := o.Producer.Publish(ctx, o.topicFor(record.Name), record.Aggregate, payload, headers); err != nil {
			o.mu.Lock()
			o.pending = append(pending[i:], o.pending...)
			o.mu.Unlock()
			return err
		}
	}
	return nil
}

func formatCloudEvent(record appoutbox.EventRecord, source string) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if len(record.Payload) > 0 {
		if err := json.Unmarshal(record.Payload, &data); err != nil {
			return nil, nil, err
		}
	}
	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}
	occurred := record.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              id,
		"type":            record.Name + ".v1",
		"source":          source,
		"time":            occurred,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := record.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{"content-type": "application/cloudevents+json"}
	for k, v := range record.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

func (o *PublishingOutbox) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	topic := base + ".events.v1"
	if o.TopicPrefix != "" {
		topic = o.TopicPrefix + topic
	}
	return topic
}

func (o *PublishingOutbox) source() string {
	if o.Source != "" {
		return o.Source
	}
	return "app://premises"
}

var _ appoutbox.Outbox = (*PublishingOutbox)(nil)
