package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripDiacritics(t *testing.T) {
	assert.Equal(t, "Ha Noi", StripDiacritics("Hà Nội"))
	assert.Equal(t, "Da Nang", StripDiacritics("Đà Nẵng"))
	assert.Equal(t, "duong Nguyen Trai", StripDiacritics("đường Nguyễn Trãi"))
	assert.Equal(t, "plain ascii", StripDiacritics("plain ascii"))
}

func TestQueryVariants(t *testing.T) {
	t.Run("empty input yields nothing", func(t *testing.T) {
		assert.Nil(t, QueryVariants("   "))
	})

	t.Run("appends the country when missing", func(t *testing.T) {
		got := QueryVariants("Hồ Gươm")
		require.NotEmpty(t, got)
		assert.Equal(t, "Hồ Gươm, Việt Nam", got[0])
	})

	t.Run("keeps the raw input when the country is already present", func(t *testing.T) {
		got := QueryVariants("Hồ Gươm, Việt Nam")
		assert.Equal(t, "Hồ Gươm, Việt Nam", got[0])

		ascii := QueryVariants("Hoan Kiem, Vietnam")
		assert.Equal(t, "Hoan Kiem, Vietnam", ascii[0])
	})

	t.Run("expands comma tokens in both orders plus tail fragments", func(t *testing.T) {
		got := QueryVariants("12 Hàng Bông, Hoàn Kiếm, Hà Nội")
		assert.Contains(t, got, "12 Hàng Bông, Hoàn Kiếm, Hà Nội")
		assert.Contains(t, got, "Hà Nội, Hoàn Kiếm, 12 Hàng Bông")
		assert.Contains(t, got, "Hoàn Kiếm, Hà Nội")
	})

	t.Run("tail fragments also carry the country suffix", func(t *testing.T) {
		got := QueryVariants("12 Hàng Bông, Hoàn Kiếm, Hà Nội")
		suffixed, bare := -1, -1
		for i, v := range got {
			switch v {
			case "Hoàn Kiếm, Hà Nội, Việt Nam":
				suffixed = i
			case "Hoàn Kiếm, Hà Nội":
				bare = i
			}
		}
		require.GreaterOrEqual(t, suffixed, 0)
		require.GreaterOrEqual(t, bare, 0)
		assert.Less(t, suffixed, bare, "suffixed tail is tried before the bare one")

		already := QueryVariants("Hoàn Kiếm, Hà Nội, Việt Nam")
		assert.NotContains(t, already, "Hà Nội, Việt Nam, Việt Nam")
	})

	t.Run("adds diacritics-stripped duplicates after the accented set", func(t *testing.T) {
		got := QueryVariants("Đà Nẵng")
		require.NotEmpty(t, got)
		idxAccented, idxStripped := -1, -1
		for i, v := range got {
			switch v {
			case "Đà Nẵng, Việt Nam":
				idxAccented = i
			case "Da Nang, Viet Nam":
				idxStripped = i
			}
		}
		require.GreaterOrEqual(t, idxAccented, 0)
		require.GreaterOrEqual(t, idxStripped, 0)
		assert.Less(t, idxAccented, idxStripped)
	})

	t.Run("deduplicates preserving first occurrence", func(t *testing.T) {
		got := QueryVariants("Hanoi, Vietnam")
		seen := make(map[string]int)
		for _, v := range got {
			seen[v]++
		}
		for v, n := range seen {
			assert.Equal(t, 1, n, "variant %q appears %d times", v, n)
		}
	})
}
