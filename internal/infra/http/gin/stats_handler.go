package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"premises/internal/app/dto"
	statsapp "premises/internal/app/handlers/stats"
	"premises/internal/app/queries"
)

// StatsHTTP exposes the admin dashboard aggregates.
type StatsHTTP interface {
	Overview(c *gin.Context)
	AvgPriceByType(c *gin.Context)
	CountByType(c *gin.Context)
	AvgPriceByDay(c *gin.Context)
	CountByDay(c *gin.Context)
	TopUsersByType(c *gin.Context)
	AreaRangeByType(c *gin.Context)
}

type StatsHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h StatsHandler) Overview(c *gin.Context) {
	ask(h, c, statsapp.OverviewQuery{}, func(r dto.StatsOverview) any { return r })
}

func (h StatsHandler) AvgPriceByType(c *gin.Context) {
	ask(h, c, statsapp.AvgPriceByTypeQuery{}, emptyToList[dto.LabelValue])
}

func (h StatsHandler) CountByType(c *gin.Context) {
	ask(h, c, statsapp.CountByTypeQuery{}, emptyToList[dto.LabelCount])
}

func (h StatsHandler) AvgPriceByDay(c *gin.Context) {
	query := statsapp.AvgPriceByDayQuery{Days: parseIntWithDefault(c.Query("days"), 0)}
	ask(h, c, query, emptyToList[dto.DayValue])
}

func (h StatsHandler) CountByDay(c *gin.Context) {
	query := statsapp.CountByDayQuery{Days: parseIntWithDefault(c.Query("days"), 0)}
	ask(h, c, query, emptyToList[dto.DayCount])
}

func (h StatsHandler) TopUsersByType(c *gin.Context) {
	query := statsapp.TopUsersByTypeQuery{Limit: parseIntWithDefault(c.Query("limit"), 0)}
	ask(h, c, query, emptyToList[dto.UserTypeCount])
}

func (h StatsHandler) AreaRangeByType(c *gin.Context) {
	ask(h, c, statsapp.AreaRangeByTypeQuery{}, emptyToList[dto.AreaRange])
}

// ask runs one aggregate query for an admin caller and writes the shaped
// result. Every stats endpoint follows the same contour.
func ask[Q queries.Query, R any](h StatsHandler, c *gin.Context, query Q, shape func(R) any) {
	if _, ok := requireRole(c, "admin"); !ok {
		return
	}
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stats unavailable"})
		return
	}
	result, err := queries.Ask[Q, R](c.Request.Context(), h.Queries, query)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("stats query failed", "query", query.Key(), "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, shape(result))
}

// emptyToList keeps empty aggregates serialising as [] instead of null.
func emptyToList[T any](items []T) any {
	if items == nil {
		return []T{}
	}
	return items
}

var _ StatsHTTP = StatsHandler{}
