package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainfavorites "premises/internal/domain/favorites"
	domainpremises "premises/internal/domain/premises"
)

func storedPremise(t *testing.T, id string, mutate func(*domainpremises.CreateParams)) *domainpremises.Premise {
	t.Helper()
	params := domainpremises.CreateParams{
		ID:           domainpremises.PremiseID(id),
		OwnerID:      "u-1",
		Title:        "Mặt bằng " + id,
		Price:        20_000_000,
		AreaM2:       50,
		BusinessType: "retail",
		Latitude:     21.0285,
		Longitude:    105.8048,
		Owner:        domainpremises.Owner{Email: "chu@example.com"},
	}
	if mutate != nil {
		mutate(&params)
	}
	p, err := domainpremises.New(params)
	require.NoError(t, err)
	p.ClearEvents()
	return p
}

func TestPremiseRepositorySave(t *testing.T) {
	ctx := context.Background()
	repo := NewPremiseRepository()

	t.Run("new listings join the head of the order", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, storedPremise(t, "p-old", nil)))
		require.NoError(t, repo.Save(ctx, storedPremise(t, "p-new", nil)))

		all, err := repo.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, domainpremises.PremiseID("p-new"), all[0].ID)
		assert.Equal(t, domainpremises.PremiseID("p-old"), all[1].ID)
	})

	t.Run("updates keep their position and bump the version", func(t *testing.T) {
		updated := storedPremise(t, "p-old", func(p *domainpremises.CreateParams) { p.Title = "Đã sửa" })
		require.NoError(t, repo.Save(ctx, updated))

		all, err := repo.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, domainpremises.PremiseID("p-old"), all[1].ID)
		assert.Equal(t, "Đã sửa", all[1].Title)

		got, err := repo.ByID(ctx, "p-old")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Version)
	})
}

func TestPremiseRepositoryByIDAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewPremiseRepository()
	require.NoError(t, repo.Save(ctx, storedPremise(t, "p-1", nil)))

	got, err := repo.ByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, domainpremises.PremiseID("p-1"), got.ID)

	_, err = repo.ByID(ctx, "ghost")
	assert.ErrorIs(t, err, domainpremises.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "p-1"))
	assert.ErrorIs(t, repo.Delete(ctx, "p-1"), domainpremises.ErrNotFound)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPremiseRepositorySearch(t *testing.T) {
	ctx := context.Background()
	repo := NewPremiseRepository()
	require.NoError(t, repo.Save(ctx, storedPremise(t, "p-hanoi-retail", nil)))
	require.NoError(t, repo.Save(ctx, storedPremise(t, "p-hcm-fnb", func(p *domainpremises.CreateParams) {
		p.BusinessType = "fnb"
		p.Price = 60_000_000
		p.Latitude, p.Longitude = 10.7769, 106.7009
	})))
	require.NoError(t, repo.Save(ctx, storedPremise(t, "p-hanoi-office", func(p *domainpremises.CreateParams) {
		p.BusinessType = "office"
		p.Price = 45_000_000
		p.AreaM2 = 120
	})))

	t.Run("unbounded criteria return everything newest first", func(t *testing.T) {
		got, err := repo.Search(ctx, domainpremises.UnboundedCriteria(), domainpremises.SortNewest)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, domainpremises.PremiseID("p-hanoi-office"), got[0].ID)
	})

	t.Run("filters combine as a conjunction", func(t *testing.T) {
		criteria := domainpremises.UnboundedCriteria()
		criteria.City = "ha-noi"
		criteria.MaxPrice = 30_000_000
		got, err := repo.Search(ctx, criteria, domainpremises.SortNewest)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, domainpremises.PremiseID("p-hanoi-retail"), got[0].ID)
	})

	t.Run("sorting applies after filtering", func(t *testing.T) {
		got, err := repo.Search(ctx, domainpremises.UnboundedCriteria(), domainpremises.SortPriceAsc)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, domainpremises.PremiseID("p-hanoi-retail"), got[0].ID)
		assert.Equal(t, domainpremises.PremiseID("p-hcm-fnb"), got[2].ID)
	})

	t.Run("cancelled context aborts the scan", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := repo.Search(cancelled, domainpremises.UnboundedCriteria(), domainpremises.SortNewest)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPremiseRepositorySimilar(t *testing.T) {
	ctx := context.Background()
	repo := NewPremiseRepository()
	anchor := storedPremise(t, "p-anchor", func(p *domainpremises.CreateParams) {
		p.Price = 30_000_000
		p.AreaM2 = 100
	})
	require.NoError(t, repo.Save(ctx, anchor))
	require.NoError(t, repo.Save(ctx, storedPremise(t, "p-close", func(p *domainpremises.CreateParams) {
		p.Price = 31_000_000
		p.AreaM2 = 95
	})))
	require.NoError(t, repo.Save(ctx, storedPremise(t, "p-far", func(p *domainpremises.CreateParams) {
		p.Price = 90_000_000
		p.AreaM2 = 400
	})))
	require.NoError(t, repo.Save(ctx, storedPremise(t, "p-other-type", func(p *domainpremises.CreateParams) {
		p.BusinessType = "warehouse"
		p.Price = 30_000_000
		p.AreaM2 = 100
	})))

	t.Run("ranks same-type listings by relative distance", func(t *testing.T) {
		got, err := repo.Similar(ctx, "p-anchor", 0)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, domainpremises.PremiseID("p-close"), got[0].ID)
		assert.Equal(t, domainpremises.PremiseID("p-far"), got[1].ID)
	})

	t.Run("limit truncates the result", func(t *testing.T) {
		got, err := repo.Similar(ctx, "p-anchor", 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, domainpremises.PremiseID("p-close"), got[0].ID)
	})

	t.Run("unknown anchor is not found", func(t *testing.T) {
		_, err := repo.Similar(ctx, "ghost", 0)
		assert.ErrorIs(t, err, domainpremises.ErrNotFound)
	})
}

func TestFavoritesStore(t *testing.T) {
	ctx := context.Background()

	t.Run("increment counts per device", func(t *testing.T) {
		store := NewFavoritesStore()
		count, err := store.Increment(ctx, "dev-a", "p-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		count, err = store.Increment(ctx, "dev-a", "p-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		count, err = store.Increment(ctx, "dev-b", "p-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "devices do not share counters")
	})

	t.Run("rejects blank keys", func(t *testing.T) {
		store := NewFavoritesStore()
		_, err := store.Increment(ctx, " ", "p-1")
		assert.Error(t, err)
	})

	t.Run("counts returns a copy", func(t *testing.T) {
		store := NewFavoritesStore()
		_, err := store.Increment(ctx, "dev-a", "p-1")
		require.NoError(t, err)

		counts, err := store.Counts(ctx, "dev-a")
		require.NoError(t, err)
		counts["p-1"] = 99

		again, err := store.Counts(ctx, "dev-a")
		require.NoError(t, err)
		assert.Equal(t, int64(1), again["p-1"])
	})

	t.Run("forget drops one listing across devices", func(t *testing.T) {
		store := NewFavoritesStore()
		for _, device := range []string{"dev-a", "dev-b"} {
			_, err := store.Increment(ctx, domainfavorites.DeviceID(device), "p-gone")
			require.NoError(t, err)
		}
		_, err := store.Increment(ctx, "dev-a", "p-kept")
		require.NoError(t, err)

		require.NoError(t, store.Forget(ctx, "p-gone"))

		counts, err := store.Counts(ctx, "dev-a")
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"p-kept": 1}, counts)

		counts, err = store.Counts(ctx, "dev-b")
		require.NoError(t, err)
		assert.Empty(t, counts)

		assert.Error(t, store.Forget(ctx, "  "))
	})

	t.Run("reset drops the device ledger", func(t *testing.T) {
		store := NewFavoritesStore()
		_, err := store.Increment(ctx, "dev-a", "p-1")
		require.NoError(t, err)
		require.NoError(t, store.Reset(ctx, "dev-a"))

		counts, err := store.Counts(ctx, "dev-a")
		require.NoError(t, err)
		assert.Empty(t, counts)
	})
}
