package stats

import (
	"context"
	"sort"
	"time"

	"premises/internal/app/dto"
	"premises/internal/app/handlers/support"
	"premises/internal/app/queries"
	"premises/internal/app/uow"
	domainpremises "premises/internal/domain/premises"
)

const (
	overviewKey        = "stats.overview"
	avgPriceByTypeKey  = "stats.avg_price_by_type"
	countByTypeKey     = "stats.count_by_type"
	avgPriceByDayKey   = "stats.avg_price_by_day"
	countByDayKey      = "stats.count_by_day"
	topUsersByTypeKey  = "stats.top_users_by_type"
	areaRangeByTypeKey = "stats.area_range_by_type"
)

const defaultDayWindow = 14

// typeOrder fixes chart bucket order across all by-type endpoints.
var typeOrder = []domainpremises.BusinessType{
	domainpremises.TypeFnB,
	domainpremises.TypeRetail,
	domainpremises.TypeOffice,
	domainpremises.TypeWarehouse,
	domainpremises.TypeOther,
}

func allPremises(ctx context.Context, factory uow.UoWFactory) ([]*domainpremises.Premise, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, factory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	return unit.Premises().Search(ctx, domainpremises.UnboundedCriteria(), domainpremises.SortNewest)
}

type OverviewQuery struct{}

func (OverviewQuery) Key() string { return overviewKey }

type OverviewHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *OverviewHandler) Handle(ctx context.Context, _ OverviewQuery) (dto.StatsOverview, error) {
	items, err := allPremises(ctx, h.UoWFactory)
	if err != nil {
		return dto.StatsOverview{}, err
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	today := now().UTC().Truncate(24 * time.Hour)

	overview := dto.StatsOverview{TotalPosts: len(items)}
	var priceSum float64
	for _, p := range items {
		priceSum += float64(p.Price)
		if !p.CreatedAt.Before(today) {
			overview.PostsToday++
		}
	}
	if len(items) > 0 {
		overview.AvgPrice = priceSum / float64(len(items))
	}
	return overview, nil
}

type AvgPriceByTypeQuery struct{}

func (AvgPriceByTypeQuery) Key() string { return avgPriceByTypeKey }

type AvgPriceByTypeHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *AvgPriceByTypeHandler) Handle(ctx context.Context, _ AvgPriceByTypeQuery) ([]dto.LabelValue, error) {
	items, err := allPremises(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	sums := make(map[domainpremises.BusinessType]float64)
	counts := make(map[domainpremises.BusinessType]int)
	for _, p := range items {
		sums[p.BusinessType] += float64(p.Price)
		counts[p.BusinessType]++
	}
	out := make([]dto.LabelValue, 0, len(typeOrder))
	for _, t := range typeOrder {
		if counts[t] == 0 {
			continue
		}
		out = append(out, dto.LabelValue{Label: t.Label(), Value: sums[t] / float64(counts[t])})
	}
	return out, nil
}

type CountByTypeQuery struct{}

func (CountByTypeQuery) Key() string { return countByTypeKey }

type CountByTypeHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CountByTypeHandler) Handle(ctx context.Context, _ CountByTypeQuery) ([]dto.LabelCount, error) {
	items, err := allPremises(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	counts := make(map[domainpremises.BusinessType]int)
	for _, p := range items {
		counts[p.BusinessType]++
	}
	out := make([]dto.LabelCount, 0, len(typeOrder))
	for _, t := range typeOrder {
		if counts[t] == 0 {
			continue
		}
		out = append(out, dto.LabelCount{Label: t.Label(), Count: counts[t]})
	}
	return out, nil
}

type AvgPriceByDayQuery struct {
	Days int
}

func (AvgPriceByDayQuery) Key() string { return avgPriceByDayKey }

type AvgPriceByDayHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *AvgPriceByDayHandler) Handle(ctx context.Context, q AvgPriceByDayQuery) ([]dto.DayValue, error) {
	items, err := allPremises(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	days := dayWindow(q.Days, h.Now)
	sums := make(map[string]float64, len(days))
	counts := make(map[string]int, len(days))
	for _, p := range items {
		day := p.CreatedAt.UTC().Format(time.DateOnly)
		sums[day] += float64(p.Price)
		counts[day]++
	}
	out := make([]dto.DayValue, 0, len(days))
	for _, day := range days {
		var avg float64
		if counts[day] > 0 {
			avg = sums[day] / float64(counts[day])
		}
		out = append(out, dto.DayValue{Day: day, Value: avg})
	}
	return out, nil
}

type CountByDayQuery struct {
	Days int
}

func (CountByDayQuery) Key() string { return countByDayKey }

type CountByDayHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *CountByDayHandler) Handle(ctx context.Context, q CountByDayQuery) ([]dto.DayCount, error) {
	items, err := allPremises(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	days := dayWindow(q.Days, h.Now)
	counts := make(map[string]int, len(days))
	for _, p := range items {
		counts[p.CreatedAt.UTC().Format(time.DateOnly)]++
	}
	out := make([]dto.DayCount, 0, len(days))
	for _, day := range days {
		out = append(out, dto.DayCount{Day: day, Count: counts[day]})
	}
	return out, nil
}

type TopUsersByTypeQuery struct {
	Limit int
}

func (TopUsersByTypeQuery) Key() string { return topUsersByTypeKey }

type TopUsersByTypeHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *TopUsersByTypeHandler) Handle(ctx context.Context, q TopUsersByTypeQuery) ([]dto.UserTypeCount, error) {
	items, err := allPremises(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	type bucket struct {
		user string
		kind domainpremises.BusinessType
	}
	counts := make(map[bucket]int)
	for _, p := range items {
		who := p.Owner.Email
		if who == "" {
			who = p.OwnerID
		}
		counts[bucket{user: who, kind: p.BusinessType}]++
	}
	out := make([]dto.UserTypeCount, 0, len(counts))
	for b, count := range counts {
		out = append(out, dto.UserTypeCount{User: b.user, Type: b.kind.Label(), Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].User != out[j].User {
			return out[i].User < out[j].User
		}
		return out[i].Type < out[j].Type
	})
	limit := q.Limit
	if limit <= 0 {
		limit = 5
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type AreaRangeByTypeQuery struct{}

func (AreaRangeByTypeQuery) Key() string { return areaRangeByTypeKey }

type AreaRangeByTypeHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *AreaRangeByTypeHandler) Handle(ctx context.Context, _ AreaRangeByTypeQuery) ([]dto.AreaRange, error) {
	items, err := allPremises(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	mins := make(map[domainpremises.BusinessType]float64)
	maxs := make(map[domainpremises.BusinessType]float64)
	seen := make(map[domainpremises.BusinessType]bool)
	for _, p := range items {
		if !seen[p.BusinessType] {
			mins[p.BusinessType], maxs[p.BusinessType] = p.AreaM2, p.AreaM2
			seen[p.BusinessType] = true
			continue
		}
		if p.AreaM2 < mins[p.BusinessType] {
			mins[p.BusinessType] = p.AreaM2
		}
		if p.AreaM2 > maxs[p.BusinessType] {
			maxs[p.BusinessType] = p.AreaM2
		}
	}
	out := make([]dto.AreaRange, 0, len(typeOrder))
	for _, t := range typeOrder {
		if !seen[t] {
			continue
		}
		out = append(out, dto.AreaRange{Label: t.Label(), Min: mins[t], Max: maxs[t]})
	}
	return out, nil
}

// dayWindow returns the last n ISO days ending today, oldest first.
func dayWindow(n int, nowFn func() time.Time) []string {
	if n <= 0 {
		n = defaultDayWindow
	}
	now := time.Now
	if nowFn != nil {
		now = nowFn
	}
	today := now().UTC().Truncate(24 * time.Hour)
	days := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		days = append(days, today.AddDate(0, 0, -i).Format(time.DateOnly))
	}
	return days
}

var (
	_ queries.Handler[OverviewQuery, dto.StatsOverview]         = (*OverviewHandler)(nil)
	_ queries.Handler[AvgPriceByTypeQuery, []dto.LabelValue]    = (*AvgPriceByTypeHandler)(nil)
	_ queries.Handler[CountByTypeQuery, []dto.LabelCount]       = (*CountByTypeHandler)(nil)
	_ queries.Handler[AvgPriceByDayQuery, []dto.DayValue]       = (*AvgPriceByDayHandler)(nil)
	_ queries.Handler[CountByDayQuery, []dto.DayCount]          = (*CountByDayHandler)(nil)
	_ queries.Handler[TopUsersByTypeQuery, []dto.UserTypeCount] = (*TopUsersByTypeHandler)(nil)
	_ queries.Handler[AreaRangeByTypeQuery, []dto.AreaRange]    = (*AreaRangeByTypeHandler)(nil)
)
