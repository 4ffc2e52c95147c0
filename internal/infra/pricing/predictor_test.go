package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainpremises "premises/internal/domain/premises"
)

func hanoiPremise() *domainpremises.Premise {
	return &domainpremises.Premise{
		ID:           "p-1",
		Price:        30_000_000,
		AreaM2:       80,
		BusinessType: domainpremises.TypeRetail,
		Latitude:     21.0285,
		Longitude:    105.8048,
	}
}

func TestSuggest(t *testing.T) {
	ctx := context.Background()

	t.Run("maps listing features and returns the estimate", func(t *testing.T) {
		var gotBody predictRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			_ = json.NewEncoder(w).Encode(predictResponse{
				PredictedPrice: 28_000_000,
				LowerP90:       22_000_000,
				UpperP90:       35_000_000,
				ModelInfo:      "gbr-v3",
			})
		}))
		defer srv.Close()

		p := &Predictor{Endpoint: srv.URL, Client: srv.Client()}
		got, err := p.Suggest(ctx, hanoiPremise())
		require.NoError(t, err)
		assert.Equal(t, 28_000_000.0, got.PredictedPrice)
		assert.Equal(t, 22_000_000.0, got.LowerP90)
		assert.Equal(t, "gbr-v3", got.ModelInfo)

		assert.Equal(t, "p-1", gotBody.PremiseID)
		assert.Equal(t, "ha-noi", gotBody.City)
		assert.Equal(t, "retail", gotBody.BusinessType)
		assert.Equal(t, 80.0, gotBody.AreaM2)
		assert.Equal(t, 30_000_000.0, gotBody.CurrentPrice)
	})

	t.Run("clamps estimates outside the city bounds", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(predictResponse{PredictedPrice: 9_000_000_000})
		}))
		defer srv.Close()

		p := &Predictor{Endpoint: srv.URL, Client: srv.Client()}
		got, err := p.Suggest(ctx, hanoiPremise())
		require.NoError(t, err)
		assert.Equal(t, 1_500_000_000.0, got.PredictedPrice, "hanoi upper bound applies")
	})

	t.Run("custom clamps override the defaults", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(predictResponse{PredictedPrice: 500_000})
		}))
		defer srv.Close()

		p := &Predictor{
			Endpoint: srv.URL,
			Client:   srv.Client(),
			Clamps: ClampConfig{
				Defaults: ClampRange{MinVND: 1_000_000},
				Cities:   map[domainpremises.CityKey]ClampRange{domainpremises.CityHanoi: {MinVND: 3_000_000}},
			},
		}
		got, err := p.Suggest(ctx, hanoiPremise())
		require.NoError(t, err)
		assert.Equal(t, 3_000_000.0, got.PredictedPrice)
	})

	t.Run("error status maps to the upstream sentinel", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model cold start", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		p := &Predictor{Endpoint: srv.URL, Client: srv.Client()}
		_, err := p.Suggest(ctx, hanoiPremise())
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("garbage body maps to the upstream sentinel", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer srv.Close()

		p := &Predictor{Endpoint: srv.URL, Client: srv.Client()}
		_, err := p.Suggest(ctx, hanoiPremise())
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("missing configuration", func(t *testing.T) {
		_, err := (&Predictor{}).Suggest(ctx, hanoiPremise())
		assert.ErrorIs(t, err, ErrNotConfigured)

		var nilPredictor *Predictor
		_, err = nilPredictor.Suggest(ctx, hanoiPremise())
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("nil premise is not found", func(t *testing.T) {
		p := &Predictor{Endpoint: "http://localhost:1", Client: http.DefaultClient}
		_, err := p.Suggest(ctx, nil)
		assert.ErrorIs(t, err, domainpremises.ErrNotFound)
	})
}

func TestLoadClampConfig(t *testing.T) {
	t.Run("blank input uses defaults", func(t *testing.T) {
		assert.Equal(t, DefaultClampConfig(), LoadClampConfig("  ", nil))
	})

	t.Run("malformed JSON uses defaults", func(t *testing.T) {
		assert.Equal(t, DefaultClampConfig(), LoadClampConfig("{broken", nil))
	})

	t.Run("partial config keeps default bounds", func(t *testing.T) {
		cfg := LoadClampConfig(`{"cities":{"ha-noi":{"min_vnd":5000000}}}`, nil)
		assert.Equal(t, DefaultClampConfig().Defaults, cfg.Defaults)
		assert.Equal(t, 5_000_000.0, cfg.Cities[domainpremises.CityHanoi].MinVND)
	})
}
