package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNominatim struct {
	t *testing.T
	// responses maps the raw q parameter to the candidates returned for it.
	// Unknown queries return an empty list.
	responses map[string][]candidate
	status    map[string]int
	requests  atomic.Int64
}

func (f *fakeNominatim) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	q := r.URL.Query().Get("q")
	assert.Equal(f.t, "json", r.URL.Query().Get("format"))
	assert.Equal(f.t, "1", r.URL.Query().Get("addressdetails"))
	assert.NotEmpty(f.t, r.URL.Query().Get("viewbox"))
	assert.NotEmpty(f.t, r.Header.Get("User-Agent"))

	if code, ok := f.status[q]; ok {
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(f.responses[q])
}

func vnCandidate(lat, lon, name string) candidate {
	c := candidate{Lat: lat, Lon: lon, DisplayName: name}
	c.Address.CountryCode = "vn"
	return c
}

func TestGeocode(t *testing.T) {
	t.Run("falls through empty variants until one resolves", func(t *testing.T) {
		fake := &fakeNominatim{t: t, responses: map[string][]candidate{
			"Hoàn Kiếm, Hà Nội": {vnCandidate("21.0285", "105.8048", "Hoàn Kiếm, Hà Nội, Việt Nam")},
		}}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		got, err := c.Geocode(context.Background(), "Số nhà lạ, Hoàn Kiếm, Hà Nội")
		require.NoError(t, err)
		assert.Equal(t, 21.0285, got.Lat)
		assert.Equal(t, 105.8048, got.Lng)
		assert.Greater(t, fake.requests.Load(), int64(1))
	})

	t.Run("prefers boundary and place candidates inside vietnam", func(t *testing.T) {
		road := candidate{Lat: "1", Lon: "1", Class: "highway", DisplayName: "road"}
		abroad := candidate{Lat: "2", Lon: "2", Class: "place", DisplayName: "abroad"}
		city := vnCandidate("16.0544", "108.2022", "Đà Nẵng, Việt Nam")
		city.Class = "place"

		fake := &fakeNominatim{t: t, responses: map[string][]candidate{
			"Đà Nẵng, Việt Nam": {road, abroad, city},
		}}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		got, err := c.Geocode(context.Background(), "Đà Nẵng")
		require.NoError(t, err)
		assert.Equal(t, "Đà Nẵng, Việt Nam", got.DisplayName)
	})

	t.Run("ties keep the upstream order", func(t *testing.T) {
		first := vnCandidate("21.0", "105.8", "first")
		first.Class = "place"
		second := vnCandidate("21.1", "105.9", "second")
		second.Class = "boundary"

		fake := &fakeNominatim{t: t, responses: map[string][]candidate{
			"Hà Nội, Việt Nam": {first, second},
		}}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		got, err := c.Geocode(context.Background(), "Hà Nội")
		require.NoError(t, err)
		assert.Equal(t, "first", got.DisplayName)
	})

	t.Run("repeating the last query skips the network", func(t *testing.T) {
		fake := &fakeNominatim{t: t, responses: map[string][]candidate{
			"Hồ Gươm, Việt Nam": {vnCandidate("21.0287", "105.8524", "Hồ Gươm")},
		}}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		first, err := c.Geocode(context.Background(), "Hồ Gươm")
		require.NoError(t, err)
		after := fake.requests.Load()

		second, err := c.Geocode(context.Background(), "  Hồ Gươm ")
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, after, fake.requests.Load())

		// A different query goes back to the network.
		_, err = c.Geocode(context.Background(), "Chợ Bến Thành")
		assert.ErrorIs(t, err, ErrLocationNotFound)
		assert.Greater(t, fake.requests.Load(), after)
	})

	t.Run("a failing variant does not abort the chain", func(t *testing.T) {
		fake := &fakeNominatim{
			t:      t,
			status: map[string]int{"Huế, Việt Nam": http.StatusTooManyRequests},
			responses: map[string][]candidate{
				"Hue, Viet Nam": {vnCandidate("16.4637", "107.5909", "Huế, Việt Nam")},
			},
		}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		got, err := c.Geocode(context.Background(), "Huế")
		require.NoError(t, err)
		assert.Equal(t, "Huế, Việt Nam", got.DisplayName)
	})

	t.Run("exhausted variants report not found", func(t *testing.T) {
		fake := &fakeNominatim{t: t}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		c := NewClient(srv.URL, srv.Client(), nil)
		_, err := c.Geocode(context.Background(), "một địa chỉ không tồn tại")
		assert.ErrorIs(t, err, ErrLocationNotFound)

		_, err = c.Geocode(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrLocationNotFound)
	})

	t.Run("cancelled context stops immediately", func(t *testing.T) {
		fake := &fakeNominatim{t: t}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := NewClient(srv.URL, srv.Client(), nil)
		_, err := c.Geocode(ctx, "Hà Nội")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, fake.requests.Load())
	})
}
