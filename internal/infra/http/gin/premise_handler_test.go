package ginserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"premises/internal/app/uow"
	domainfavorites "premises/internal/domain/favorites"
	domainpremises "premises/internal/domain/premises"
	domainuser "premises/internal/domain/user"
	"premises/internal/infra/pricing"
	"premises/internal/infra/storage/memory"
)

type releasingUnit struct {
	repo      domainpremises.Repository
	rollbacks *int
}

func (u releasingUnit) Premises() domainpremises.Repository { return u.repo }
func (u releasingUnit) Users() domainuser.Repository        { return nil }
func (u releasingUnit) Favorites() domainfavorites.Store    { return nil }
func (u releasingUnit) Commit(ctx context.Context) error    { return nil }

func (u releasingUnit) Rollback(ctx context.Context) error {
	*u.rollbacks++
	return nil
}

type releasingFactory struct {
	repo      domainpremises.Repository
	begun     int
	rollbacks int
}

func (f *releasingFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	f.begun++
	return releasingUnit{repo: f.repo, rollbacks: &f.rollbacks}, nil
}

func seededPremiseRepo(t *testing.T, id string) domainpremises.Repository {
	t.Helper()
	repo := memory.NewPremiseRepository()
	p, err := domainpremises.New(domainpremises.CreateParams{
		ID:           domainpremises.PremiseID(id),
		OwnerID:      "u-1",
		Title:        "Mặt bằng phố cổ",
		Price:        30_000_000,
		AreaM2:       80,
		BusinessType: "retail",
		Latitude:     21.0285,
		Longitude:    105.8048,
		Owner:        domainpremises.Owner{Email: "chu@example.com"},
	})
	require.NoError(t, err)
	p.ClearEvents()
	require.NoError(t, repo.Save(context.Background(), p))
	return repo
}

func priceSuggestionRouter(h PremiseHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/premises/:id/price-suggestion", h.PriceSuggestion)
	return r
}

func TestPriceSuggestion(t *testing.T) {
	t.Run("releases the unit of work after answering", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"predicted_price":28000000,"lower_p90":22000000,"upper_p90":35000000,"model_info":"gbr-v3"}`))
		}))
		defer upstream.Close()

		factory := &releasingFactory{repo: seededPremiseRepo(t, "p-1")}
		h := PremiseHandler{
			UoWFactory: factory,
			Predictor:  &pricing.Predictor{Endpoint: upstream.URL, Client: upstream.Client()},
		}
		rec := httptest.NewRecorder()
		priceSuggestionRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/premises/p-1/price-suggestion", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, factory.begun)
		assert.Equal(t, 1, factory.rollbacks, "read-only unit is rolled back once")
	})

	t.Run("releases the unit of work on upstream failure too", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "cold start", http.StatusServiceUnavailable)
		}))
		defer upstream.Close()

		factory := &releasingFactory{repo: seededPremiseRepo(t, "p-1")}
		h := PremiseHandler{
			UoWFactory: factory,
			Predictor:  &pricing.Predictor{Endpoint: upstream.URL, Client: upstream.Client()},
		}
		rec := httptest.NewRecorder()
		priceSuggestionRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/premises/p-1/price-suggestion", nil))

		require.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, 1, factory.rollbacks)
	})

	t.Run("unknown listing is not found and still releases", func(t *testing.T) {
		factory := &releasingFactory{repo: seededPremiseRepo(t, "p-1")}
		h := PremiseHandler{
			UoWFactory: factory,
			Predictor:  &pricing.Predictor{Endpoint: "http://localhost:1", Client: http.DefaultClient},
		}
		rec := httptest.NewRecorder()
		priceSuggestionRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/premises/ghost/price-suggestion", nil))

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, 1, factory.rollbacks)
	})
}
