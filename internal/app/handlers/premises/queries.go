package premises

import (
	"context"
	"log/slog"

	"premises/internal/app/dto"
	"premises/internal/app/handlers/support"
	"premises/internal/app/queries"
	"premises/internal/app/uow"
	"premises/internal/app/urlstate"
	domainpremises "premises/internal/domain/premises"
)

const (
	searchPremisesKey = "premises.search"
	getPremiseKey     = "premises.get"
)

// SearchPremisesQuery runs the filter pipeline and returns one page.
type SearchPremisesQuery struct {
	Filter dto.FilterPayload
	State  urlstate.State
}

func (q SearchPremisesQuery) Key() string { return searchPremisesKey }

type SearchPremisesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SearchPremisesHandler) Handle(ctx context.Context, q SearchPremisesQuery) (dto.PremisePage, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PremisePage{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	state := q.State
	if state.Page < 1 {
		state = urlstate.Default()
	}

	matches, err := unit.Premises().Search(ctx, q.Filter.ToCriteria(), state.Sort)
	if err != nil {
		return dto.PremisePage{}, err
	}
	from, to := state.Slice(len(matches))
	page := dto.MapPremisePage(matches[from:to], len(matches), state.Page, urlstate.PageSize, state.Sort)
	page.Map = dto.MapViewOf(matches)
	return page, nil
}

// GetPremiseQuery loads the detail view, optionally enriched with similar
// listings.
type GetPremiseQuery struct {
	PremiseID    string
	WithSimilar  bool
	SimilarLimit int
}

func (q GetPremiseQuery) Key() string { return getPremiseKey }

// PremiseWithSimilar is the detail payload; Similar stays empty when
// enrichment fails so the detail view itself never breaks.
type PremiseWithSimilar struct {
	Premise dto.PremiseDetail    `json:"premise"`
	Similar []dto.PremiseSummary `json:"similar,omitempty"`
}

type GetPremiseHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *GetPremiseHandler) Handle(ctx context.Context, q GetPremiseQuery) (PremiseWithSimilar, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return PremiseWithSimilar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	premise, err := unit.Premises().ByID(ctx, domainpremises.PremiseID(q.PremiseID))
	if err != nil {
		return PremiseWithSimilar{}, err
	}
	result := PremiseWithSimilar{Premise: dto.MapPremiseDetail(premise)}
	if q.WithSimilar {
		similar, err := unit.Premises().Similar(ctx, premise.ID, q.SimilarLimit)
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("similar listings unavailable", "premise_id", premise.ID, "error", err)
			}
		} else {
			for _, s := range similar {
				result.Similar = append(result.Similar, dto.MapPremiseSummary(s))
			}
		}
	}
	return result, nil
}

var (
	_ queries.Handler[SearchPremisesQuery, dto.PremisePage] = (*SearchPremisesHandler)(nil)
	_ queries.Handler[GetPremiseQuery, PremiseWithSimilar]  = (*GetPremiseHandler)(nil)
)
