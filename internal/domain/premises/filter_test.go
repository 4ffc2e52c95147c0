package premises

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listing(id string, price int64, area float64, kind BusinessType, title, location string, lat, lng float64) *Premise {
	return &Premise{
		ID:           PremiseID(id),
		OwnerID:      "owner-1",
		Title:        title,
		Price:        price,
		AreaM2:       area,
		BusinessType: kind,
		LocationText: location,
		Latitude:     lat,
		Longitude:    lng,
		Owner:        Owner{Email: "owner@example.com"},
		CreatedAt:    time.Now().UTC(),
	}
}

func unmapped(id string, price int64, area float64, kind BusinessType) *Premise {
	return listing(id, price, area, kind, "title "+id, "somewhere", math.NaN(), math.NaN())
}

func TestNormalized(t *testing.T) {
	t.Run("swaps inverted price range", func(t *testing.T) {
		c := FilterCriteria{MinPrice: 500, MaxPrice: 100, MinArea: math.NaN(), MaxArea: math.NaN()}
		n := c.Normalized()
		assert.Equal(t, 100.0, n.MinPrice)
		assert.Equal(t, 500.0, n.MaxPrice)
	})

	t.Run("swaps inverted area range", func(t *testing.T) {
		c := FilterCriteria{MinArea: 90, MaxArea: 30, MinPrice: math.NaN(), MaxPrice: math.NaN()}
		n := c.Normalized()
		assert.Equal(t, 30.0, n.MinArea)
		assert.Equal(t, 90.0, n.MaxArea)
	})

	t.Run("does not swap when one side is unset", func(t *testing.T) {
		c := FilterCriteria{MinPrice: 500, MaxPrice: math.NaN(), MinArea: math.NaN(), MaxArea: math.NaN()}
		n := c.Normalized()
		assert.Equal(t, 500.0, n.MinPrice)
		assert.True(t, math.IsNaN(n.MaxPrice))
	})

	t.Run("zero bounds mean unset", func(t *testing.T) {
		c := FilterCriteria{Keyword: "quán"}
		n := c.Normalized()
		assert.True(t, math.IsNaN(n.MinPrice))
		assert.True(t, math.IsNaN(n.MaxPrice))
		assert.True(t, math.IsNaN(n.MinArea))
		assert.True(t, math.IsNaN(n.MaxArea))
	})

	t.Run("maps infinities to unset", func(t *testing.T) {
		c := FilterCriteria{MinPrice: math.Inf(-1), MaxPrice: math.Inf(1)}
		n := c.Normalized()
		assert.True(t, math.IsNaN(n.MinPrice))
		assert.True(t, math.IsNaN(n.MaxPrice))
	})

	t.Run("trims and lowercases text fields", func(t *testing.T) {
		c := FilterCriteria{Keyword: "  quán cà phê  ", Type: " FNB ", City: " HA-NOI "}
		n := c.Normalized()
		assert.Equal(t, "quán cà phê", n.Keyword)
		assert.Equal(t, "fnb", n.Type)
		assert.Equal(t, "ha-noi", n.City)
	})
}

func TestMatches(t *testing.T) {
	hanoi := listing("p1", 45_000_000, 55, TypeRetail, "Mặt bằng Hàng Bông", "Hoàn Kiếm, Hà Nội", 21.03, 105.85)

	t.Run("keyword matches title, location or type label", func(t *testing.T) {
		byTitle := FilterCriteria{Keyword: "hàng bông"}.Normalized()
		byLocation := FilterCriteria{Keyword: "hoàn kiếm"}.Normalized()
		byLabel := FilterCriteria{Keyword: "bán lẻ"}.Normalized()
		miss := FilterCriteria{Keyword: "kho xưởng"}.Normalized()

		assert.True(t, byTitle.Matches(hanoi))
		assert.True(t, byLocation.Matches(hanoi))
		assert.True(t, byLabel.Matches(hanoi))
		assert.False(t, miss.Matches(hanoi))
	})

	t.Run("type and city must both hold", func(t *testing.T) {
		c := FilterCriteria{Type: "retail", City: "ha-noi"}.Normalized()
		assert.True(t, c.Matches(hanoi))

		wrongCity := FilterCriteria{Type: "retail", City: "hcm"}.Normalized()
		assert.False(t, wrongCity.Matches(hanoi))
	})

	t.Run("unmapped listing only matches the khac city bucket", func(t *testing.T) {
		p := unmapped("p2", 10, 10, TypeOther)
		assert.True(t, FilterCriteria{City: "khac"}.Normalized().Matches(p))
		assert.False(t, FilterCriteria{City: "ha-noi"}.Normalized().Matches(p))
	})

	t.Run("keyword-only criteria do not price out listings", func(t *testing.T) {
		c := FilterCriteria{Keyword: "hàng bông"}.Normalized()
		assert.True(t, c.Matches(hanoi))
	})

	t.Run("price bounds are inclusive", func(t *testing.T) {
		exact := FilterCriteria{MinPrice: 45_000_000, MaxPrice: 45_000_000, MinArea: math.NaN(), MaxArea: math.NaN()}.Normalized()
		assert.True(t, exact.Matches(hanoi))

		above := FilterCriteria{MinPrice: 45_000_001, MaxPrice: math.NaN(), MinArea: math.NaN(), MaxArea: math.NaN()}.Normalized()
		assert.False(t, above.Matches(hanoi))
	})
}

func TestApply(t *testing.T) {
	items := []*Premise{
		unmapped("a", 100, 20, TypeFnB),
		unmapped("b", 200, 40, TypeRetail),
		unmapped("c", 300, 60, TypeFnB),
	}

	t.Run("predicates combine as a conjunction", func(t *testing.T) {
		got := FilterCriteria{Type: "fnb", MinPrice: 150, MaxPrice: math.NaN(), MinArea: math.NaN(), MaxArea: math.NaN()}.Apply(items)
		require.Len(t, got, 1)
		assert.Equal(t, PremiseID("c"), got[0].ID)
	})

	t.Run("keeps source order and never mutates input", func(t *testing.T) {
		got := UnboundedCriteria().Apply(items)
		require.Len(t, got, 3)
		assert.Equal(t, PremiseID("a"), got[0].ID)
		assert.Equal(t, PremiseID("c"), got[2].ID)
	})

	t.Run("keyword-only literal keeps priced listings", func(t *testing.T) {
		got := FilterCriteria{Keyword: "title"}.Apply(items)
		assert.Len(t, got, 3)
	})

	t.Run("empty result is not an error", func(t *testing.T) {
		got := FilterCriteria{Keyword: "không tồn tại"}.Apply(items)
		assert.Empty(t, got)
	})
}

func TestSortPremises(t *testing.T) {
	build := func() []*Premise {
		return []*Premise{
			unmapped("new", 300, 50, TypeFnB),
			unmapped("mid", 100, 90, TypeFnB),
			unmapped("old", 300, 20, TypeFnB),
		}
	}

	t.Run("newest keeps source order", func(t *testing.T) {
		items := build()
		SortPremises(items, SortNewest)
		assert.Equal(t, PremiseID("new"), items[0].ID)
		assert.Equal(t, PremiseID("old"), items[2].ID)
	})

	t.Run("price ascending", func(t *testing.T) {
		items := build()
		SortPremises(items, SortPriceAsc)
		assert.Equal(t, PremiseID("mid"), items[0].ID)
	})

	t.Run("equal prices keep source order", func(t *testing.T) {
		items := build()
		SortPremises(items, SortPriceDesc)
		require.Equal(t, PremiseID("new"), items[0].ID)
		assert.Equal(t, PremiseID("old"), items[1].ID)
		assert.Equal(t, PremiseID("mid"), items[2].ID)
	})

	t.Run("area descending", func(t *testing.T) {
		items := build()
		SortPremises(items, SortAreaDesc)
		assert.Equal(t, PremiseID("mid"), items[0].ID)
		assert.Equal(t, PremiseID("old"), items[2].ID)
	})
}

func TestNormalizeSort(t *testing.T) {
	assert.Equal(t, SortPriceAsc, NormalizeSort(" PRICE_ASC "))
	assert.Equal(t, SortNewest, NormalizeSort("rating"))
	assert.Equal(t, SortNewest, NormalizeSort(""))
}
