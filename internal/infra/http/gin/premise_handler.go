package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"premises/internal/app/commands"
	"premises/internal/app/dto"
	premiseapp "premises/internal/app/handlers/premises"
	"premises/internal/app/handlers/support"
	"premises/internal/app/queries"
	"premises/internal/app/uow"
	"premises/internal/app/urlstate"
	domainpremises "premises/internal/domain/premises"
	domainuser "premises/internal/domain/user"
	"premises/internal/infra/pricing"
)

type PremiseHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Similar(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	PriceSuggestion(c *gin.Context)
}

// PremiseHandler wires the listing pipeline to HTTP.
type PremiseHandler struct {
	Commands   commands.Bus
	Queries    queries.Bus
	UoWFactory uow.UoWFactory
	Predictor  *pricing.Predictor
	Logger     *slog.Logger
}

// List runs the filter/sort/paginate pipeline over the listing store.
func (h PremiseHandler) List(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "premise handler unavailable"})
		return
	}
	query := premiseapp.SearchPremisesQuery{
		Filter: dto.FilterPayload{
			Keyword:  c.Query("keyword"),
			Type:     c.Query("type"),
			City:     c.Query("city"),
			MinPrice: parseFloatPtr(c.Query("min_price")),
			MaxPrice: parseFloatPtr(c.Query("max_price")),
			MinArea:  parseFloatPtr(c.Query("min_area")),
			MaxArea:  parseFloatPtr(c.Query("max_area")),
		},
		State: urlstate.Parse(c.Request.URL.Query()),
	}
	result, err := queries.Ask[premiseapp.SearchPremisesQuery, dto.PremisePage](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PremiseHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "premise handler unavailable"})
		return
	}
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "premise id is required"})
		return
	}
	query := premiseapp.GetPremiseQuery{PremiseID: id}
	result, err := queries.Ask[premiseapp.GetPremiseQuery, premiseapp.PremiseWithSimilar](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result.Premise)
}

// Similar returns listings of the same business type closest by area and
// price. Enrichment only; failures surface as an empty list, never a 500.
func (h PremiseHandler) Similar(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "premise handler unavailable"})
		return
	}
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "premise id is required"})
		return
	}
	query := premiseapp.GetPremiseQuery{
		PremiseID:    id,
		WithSimilar:  true,
		SimilarLimit: parseIntWithDefault(c.Query("limit"), 4),
	}
	result, err := queries.Ask[premiseapp.GetPremiseQuery, premiseapp.PremiseWithSimilar](c.Request.Context(), h.Queries, query)
	if err != nil {
		if errors.Is(err, domainpremises.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "premise not found"})
			return
		}
		if h.Logger != nil {
			h.Logger.Warn("similar lookup failed", "premise_id", id, "error", err)
		}
		c.JSON(http.StatusOK, []dto.PremiseSummary{})
		return
	}
	similar := result.Similar
	if similar == nil {
		similar = []dto.PremiseSummary{}
	}
	c.JSON(http.StatusOK, similar)
}

func (h PremiseHandler) Create(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "premise handler unavailable"})
		return
	}
	principal, ok := requireRole(c, "")
	if !ok {
		return
	}
	var payload domainpremises.RawRecord
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := premiseapp.CreatePremiseCommand{
		Actor:      actorFromPrincipal(principal),
		Payload:    payload,
		RequestKey: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[premiseapp.CreatePremiseCommand, *dto.PremiseDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h PremiseHandler) Update(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "premise handler unavailable"})
		return
	}
	principal, ok := requireRole(c, "")
	if !ok {
		return
	}
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "premise id is required"})
		return
	}
	var payload domainpremises.RawRecord
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	cmd := premiseapp.UpdatePremiseCommand{
		Actor:     actorFromPrincipal(principal),
		PremiseID: id,
		Payload:   payload,
	}
	result, err := commands.Dispatch[premiseapp.UpdatePremiseCommand, *dto.PremiseDetail](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PremiseHandler) Delete(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "premise handler unavailable"})
		return
	}
	principal, ok := requireRole(c, "")
	if !ok {
		return
	}
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "premise id is required"})
		return
	}
	cmd := premiseapp.DeletePremiseCommand{
		Actor:     actorFromPrincipal(principal),
		PremiseID: id,
	}
	if _, err := commands.Dispatch[premiseapp.DeletePremiseCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PriceSuggestion asks the external predictor for a rent estimate. Upstream
// failure becomes a 502 with a readable message; the detail view stays up.
func (h PremiseHandler) PriceSuggestion(c *gin.Context) {
	if h.Predictor == nil || h.UoWFactory == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "price suggestion unavailable"})
		return
	}
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "premise id is required"})
		return
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(c.Request.Context(), h.UoWFactory)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if cleanup != nil {
		defer cleanup()
	}
	premise, err := unit.Premises().ByID(ctx, domainpremises.PremiseID(id))
	if err != nil {
		h.respondError(c, err)
		return
	}
	suggestion, err := h.Predictor.Suggest(ctx, premise)
	if err != nil {
		if errors.Is(err, pricing.ErrUpstream) || errors.Is(err, pricing.ErrNotConfigured) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "price suggestion service is unavailable, try again later"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

func (h PremiseHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainpremises.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "premise not found"})
	case errors.Is(err, premiseapp.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	case errors.Is(err, premiseapp.ErrActorRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
	case errors.Is(err, premiseapp.ErrPayloadRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload is required"})
	case errors.Is(err, domainpremises.ErrTitleRequired),
		errors.Is(err, domainpremises.ErrPriceNegative),
		errors.Is(err, domainpremises.ErrAreaNotPositive),
		errors.Is(err, domainpremises.ErrTooManyImages),
		errors.Is(err, domainpremises.ErrOwnerRequired),
		errors.Is(err, domainpremises.ErrIDRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if h.Logger != nil {
			h.Logger.Error("premise operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func actorFromPrincipal(p principal) premiseapp.Actor {
	role := domainuser.RoleUser
	if p.HasRole(string(domainuser.RoleAdmin)) {
		role = domainuser.RoleAdmin
	}
	return premiseapp.Actor{UserID: p.ID, Role: role}
}

func parseFloatPtr(raw string) *float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil
	}
	return &value
}

func parseIntWithDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

var _ PremiseHTTP = PremiseHandler{}
