package consumer

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/lumenwell/lumen-backend/pkg/enums"
	"github.com/lumenwell/lumen-backend/pkg/logger"
	"github.com/lumenwell/lumen-backend/pkg/outbox"
	"github.com/lumenwell/lumen-backend/pkg/outbox/payloads"
	"github.com/lumenwell/lumen-backend/pkg/outbox/registry"
)

const consumerName = "photo-cleanup"

type processedGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, bucket, object string) error
}

// CleanupConsumer watches the domain event stream and deletes the GCS photo
// behind every removed journal entry. Entry rows are soft-deleted, so the
// object is the only thing left to reclaim.
type CleanupConsumer struct {
	gcs          objectDeleter
	bucket       string
	decoders     *registry.DecoderRegistry
	subscription *pubsub.Subscriber
	guard        processedGuard
	logg         *logger.Logger
}

// NewCleanupConsumer wires the photo cleanup pipeline. The guard is optional;
// without it redelivered events fall through to the delete call, which is
// harmless because object deletion is idempotent.
func NewCleanupConsumer(gcs objectDeleter, bucket string, subscription *pubsub.Subscriber, guard processedGuard, logg *logger.Logger) (*CleanupConsumer, error) {
	if gcs == nil {
		return nil, errors.New("gcs client is required")
	}
	if bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}
	if subscription == nil {
		return nil, errors.New("domain subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventEntryDeleted, 1, func(payload json.RawMessage) (interface{}, error) {
		var event payloads.EntryDeletedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return &event, nil
	})

	return &CleanupConsumer{
		gcs:          gcs,
		bucket:       bucket,
		decoders:     decoders,
		subscription: subscription,
		guard:        guard,
		logg:         logg,
	}, nil
}

// Run processes messages until the context is canceled.
func (c *CleanupConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *CleanupConsumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventEntryDeleted) {
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode event envelope", err)
		return processResult{ack: true}
	}

	if c.guard != nil {
		eventID, parseErr := uuid.Parse(envelope.EventID)
		if parseErr != nil {
			c.logg.Error(logCtx, "malformed event id", parseErr)
			return processResult{ack: true}
		}
		alreadyProcessed, guardErr := c.guard.CheckAndMarkProcessed(ctx, consumerName, eventID)
		if guardErr != nil {
			c.logg.Error(logCtx, "idempotency check failed", guardErr)
			return processResult{nack: true}
		}
		if alreadyProcessed {
			return processResult{ack: true}
		}
	}

	decoded, err := c.decoders.Decode(enums.EventEntryDeleted, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode entry deleted payload", err)
		return processResult{ack: true}
	}
	event, ok := decoded.(*payloads.EntryDeletedEvent)
	if !ok {
		c.logg.Error(logCtx, "unexpected payload type", errors.New("decoder returned wrong type"))
		return processResult{ack: true}
	}

	if event.PhotoPath == nil || *event.PhotoPath == "" {
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"entry_id":   event.EntryID.String(),
		"photo_path": *event.PhotoPath,
	})
	if err := c.gcs.DeleteObject(ctx, c.bucket, *event.PhotoPath); err != nil {
		c.logg.Error(logCtx, "failed to delete photo object", err)
		if c.guard != nil {
			if eventID, parseErr := uuid.Parse(envelope.EventID); parseErr == nil {
				_ = c.guard.Delete(ctx, consumerName, eventID)
			}
		}
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "deleted orphaned photo")
	return processResult{ack: true}
}
