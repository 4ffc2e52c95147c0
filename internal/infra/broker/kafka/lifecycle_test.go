package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainfavorites "premises/internal/domain/favorites"
)

type recordingFavorites struct {
	forgotten []string
}

func (r *recordingFavorites) Increment(ctx context.Context, device domainfavorites.DeviceID, premiseID string) (int64, error) {
	return 0, nil
}

func (r *recordingFavorites) Counts(ctx context.Context, device domainfavorites.DeviceID) (map[string]int64, error) {
	return nil, nil
}

func (r *recordingFavorites) Reset(ctx context.Context, device domainfavorites.DeviceID) error {
	return nil
}

func (r *recordingFavorites) Forget(ctx context.Context, premiseID string) error {
	r.forgotten = append(r.forgotten, premiseID)
	return nil
}

func TestLifecycleHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("deleted event prunes by the message key", func(t *testing.T) {
		store := &recordingFavorites{}
		h := LifecycleHandler{Favorites: store}
		err := h.Handle(ctx, &sarama.ConsumerMessage{
			Key:   []byte("p-1"),
			Value: []byte(`{"type":"premises.premise_deleted.v1","data":{"PremiseID":"p-1"}}`),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"p-1"}, store.forgotten)
	})

	t.Run("missing key falls back to the payload", func(t *testing.T) {
		store := &recordingFavorites{}
		h := LifecycleHandler{Favorites: store}
		err := h.Handle(ctx, &sarama.ConsumerMessage{
			Value: []byte(`{"type":"premises.premise_deleted.v1","data":{"PremiseID":"p-2"}}`),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"p-2"}, store.forgotten)
	})

	t.Run("other event types are ignored", func(t *testing.T) {
		store := &recordingFavorites{}
		h := LifecycleHandler{Favorites: store}
		err := h.Handle(ctx, &sarama.ConsumerMessage{
			Key:   []byte("p-3"),
			Value: []byte(`{"type":"premises.premise_created.v1"}`),
		})
		require.NoError(t, err)
		assert.Empty(t, store.forgotten)
	})

	t.Run("garbage payloads are skipped, not retried", func(t *testing.T) {
		store := &recordingFavorites{}
		h := LifecycleHandler{Favorites: store}
		err := h.Handle(ctx, &sarama.ConsumerMessage{Value: []byte("{broken")})
		require.NoError(t, err)
		assert.Empty(t, store.forgotten)
	})
}
