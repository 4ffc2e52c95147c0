package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/IBM/sarama"

	domainfavorites "premises/internal/domain/favorites"
)

const deletedEventType = "premises.premise_deleted.v1"

// LifecycleHandler reacts to listing lifecycle events on the events topic.
// Currently it only prunes favorites counters for deleted listings; counters
// for a listing nobody can open again are just noise in the top list.
type LifecycleHandler struct {
	Favorites domainfavorites.Store
	Logger    *slog.Logger
}

type lifecycleEnvelope struct {
	Type string `json:"type"`
	Data struct {
		PremiseID string `json:"PremiseID"`
	} `json:"data"`
}

func (h LifecycleHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	if h.Favorites == nil || msg == nil {
		return nil
	}
	var evt lifecycleEnvelope
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("unreadable lifecycle event, skipping", "topic", msg.Topic, "error", err)
		}
		return nil
	}
	if evt.Type != deletedEventType {
		return nil
	}
	// The producer keys messages by aggregate id; the payload carries it too.
	premiseID := string(msg.Key)
	if premiseID == "" {
		premiseID = evt.Data.PremiseID
	}
	if premiseID == "" {
		return nil
	}
	if err := h.Favorites.Forget(ctx, premiseID); err != nil {
		if h.Logger != nil {
			h.Logger.Error("favorites prune failed", "premise_id", premiseID, "error", err)
		}
		return err
	}
	if h.Logger != nil {
		h.Logger.Debug("favorites pruned for deleted listing", "premise_id", premiseID)
	}
	return nil
}

var _ MessageHandler = LifecycleHandler{}
