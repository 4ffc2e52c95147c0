package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"premises/internal/infra/geocode"
)

// GeocodeHTTP resolves free-text addresses to coordinates.
type GeocodeHTTP interface {
	Lookup(c *gin.Context)
}

type GeocodeHandler struct {
	Geocoder *geocode.Client
	Logger   *slog.Logger
}

func (h GeocodeHandler) Lookup(c *gin.Context) {
	if h.Geocoder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "geocoding unavailable"})
		return
	}
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	result, err := h.Geocoder.Geocode(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, geocode.ErrLocationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
			return
		}
		if h.Logger != nil {
			h.Logger.Error("geocode lookup failed", "query", query, "error", err)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "geocoding service is unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lat":         result.Lat,
		"lng":         result.Lng,
		"displayName": result.DisplayName,
	})
}

var _ GeocodeHTTP = GeocodeHandler{}
