package premises

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"premises/internal/app/dto"
	"premises/internal/app/urlstate"
	domainpremises "premises/internal/domain/premises"
	"premises/internal/infra/storage/memory"
)

func seededPremiseFactory(t *testing.T, n int) memory.Factory {
	t.Helper()
	repo := memory.NewPremiseRepository()
	for i := 0; i < n; i++ {
		p, err := domainpremises.New(domainpremises.CreateParams{
			ID:           domainpremises.PremiseID(fmt.Sprintf("p-%02d", i)),
			OwnerID:      "u-1",
			Title:        fmt.Sprintf("Mặt bằng số %d", i),
			Price:        int64(10_000_000 + i*1_000_000),
			AreaM2:       float64(40 + i*5),
			BusinessType: "retail",
			Latitude:     21.0285,
			Longitude:    105.8048,
			Owner:        domainpremises.Owner{Email: "chu@example.com"},
		})
		require.NoError(t, err)
		p.ClearEvents()
		require.NoError(t, repo.Save(context.Background(), p))
	}
	return memory.Factory{
		PremisesRepo:  repo,
		UsersRepo:     memory.NewUserRepository(),
		FavoritesRepo: memory.NewFavoritesStore(),
	}
}

func TestSearchPremisesHandler(t *testing.T) {
	ctx := context.Background()
	h := &SearchPremisesHandler{UoWFactory: seededPremiseFactory(t, 10)}

	t.Run("first page is newest first and sized to the page", func(t *testing.T) {
		page, err := h.Handle(ctx, SearchPremisesQuery{State: urlstate.Default()})
		require.NoError(t, err)
		assert.Equal(t, 10, page.Total)
		require.Len(t, page.Items, urlstate.PageSize)
		assert.Equal(t, "p-09", page.Items[0].ID)
		assert.Equal(t, 1, page.Page)
	})

	t.Run("second page holds the remainder", func(t *testing.T) {
		page, err := h.Handle(ctx, SearchPremisesQuery{State: urlstate.State{Page: 2, Sort: domainpremises.SortNewest}})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "p-01", page.Items[0].ID)
		assert.Equal(t, "p-00", page.Items[1].ID)
	})

	t.Run("page past the end is empty but keeps the total", func(t *testing.T) {
		page, err := h.Handle(ctx, SearchPremisesQuery{State: urlstate.State{Page: 9, Sort: domainpremises.SortNewest}})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, 10, page.Total)
	})

	t.Run("invalid state falls back to defaults", func(t *testing.T) {
		page, err := h.Handle(ctx, SearchPremisesQuery{})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
	})

	t.Run("filters narrow the total before paging", func(t *testing.T) {
		min := 17_000_000.0
		page, err := h.Handle(ctx, SearchPremisesQuery{
			Filter: dto.FilterPayload{MinPrice: &min},
			State:  urlstate.Default(),
		})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, "p-09", page.Items[0].ID)
	})

	t.Run("map view covers the whole filtered set", func(t *testing.T) {
		page, err := h.Handle(ctx, SearchPremisesQuery{State: urlstate.Default()})
		require.NoError(t, err)
		assert.True(t, page.Map.Fit)
		assert.Len(t, page.Map.Markers, 10, "markers are not paged")

		keyword := dto.FilterPayload{Keyword: "không khớp gì cả"}
		empty, err := h.Handle(ctx, SearchPremisesQuery{Filter: keyword, State: urlstate.Default()})
		require.NoError(t, err)
		require.NotNil(t, empty.Map.Center)
		assert.Equal(t, 21.028511, empty.Map.Center.Lat)
		assert.False(t, empty.Map.Fit)
	})

	t.Run("sort is applied over the filtered set", func(t *testing.T) {
		page, err := h.Handle(ctx, SearchPremisesQuery{State: urlstate.State{Page: 1, Sort: domainpremises.SortPriceDesc}})
		require.NoError(t, err)
		assert.Equal(t, "p-09", page.Items[0].ID)
		assert.Equal(t, string(domainpremises.SortPriceDesc), page.Sort)
	})
}

func TestGetPremiseHandler(t *testing.T) {
	ctx := context.Background()
	h := &GetPremiseHandler{UoWFactory: seededPremiseFactory(t, 5)}

	t.Run("loads the detail view", func(t *testing.T) {
		got, err := h.Handle(ctx, GetPremiseQuery{PremiseID: "p-02"})
		require.NoError(t, err)
		assert.Equal(t, "p-02", got.Premise.ID)
		assert.Empty(t, got.Similar)
	})

	t.Run("enriches with similar listings on request", func(t *testing.T) {
		got, err := h.Handle(ctx, GetPremiseQuery{PremiseID: "p-02", WithSimilar: true, SimilarLimit: 2})
		require.NoError(t, err)
		require.Len(t, got.Similar, 2)
		for _, s := range got.Similar {
			assert.NotEqual(t, "p-02", s.ID)
		}
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := h.Handle(ctx, GetPremiseQuery{PremiseID: "ghost"})
		assert.ErrorIs(t, err, domainpremises.ErrNotFound)
	})
}
