package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	domainfavorites "premises/internal/domain/favorites"
)

// deviceHeader carries the anonymous device id favorites are scoped to.
const deviceHeader = "X-Device-Id"

// FavoritesHTTP exposes the per-device favorite counters.
type FavoritesHTTP interface {
	Increment(c *gin.Context)
	Top(c *gin.Context)
	Reset(c *gin.Context)
}

type FavoritesHandler struct {
	Store  domainfavorites.Store
	Logger *slog.Logger
}

// Increment bumps the counter for one listing on this device and returns the
// new count. Counts only go up; Reset is the only way back to zero.
func (h FavoritesHandler) Increment(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "favorites unavailable"})
		return
	}
	device := deviceFromRequest(c)
	premiseID := c.Param("id")
	if err := domainfavorites.ValidateKeys(device, premiseID); err != nil {
		h.respondFavoritesError(c, err)
		return
	}
	count, err := h.Store.Increment(c.Request.Context(), device, premiseID)
	if err != nil {
		h.respondFavoritesError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"premiseId": premiseID, "count": count})
}

// Top returns this device's favorites ordered by count, capped by ?limit.
func (h FavoritesHandler) Top(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "favorites unavailable"})
		return
	}
	device := deviceFromRequest(c)
	if strings.TrimSpace(string(device)) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device id is required"})
		return
	}
	counts, err := h.Store.Counts(c.Request.Context(), device)
	if err != nil {
		h.respondFavoritesError(c, err)
		return
	}
	entries := domainfavorites.Top(counts, parseIntWithDefault(c.Query("limit"), 0))
	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, gin.H{"premiseId": entry.PremiseID, "count": entry.Count})
	}
	c.JSON(http.StatusOK, items)
}

// Reset clears every counter on this device.
func (h FavoritesHandler) Reset(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "favorites unavailable"})
		return
	}
	device := deviceFromRequest(c)
	if strings.TrimSpace(string(device)) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device id is required"})
		return
	}
	if err := h.Store.Reset(c.Request.Context(), device); err != nil {
		h.respondFavoritesError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h FavoritesHandler) respondFavoritesError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainfavorites.ErrDeviceRequired),
		errors.Is(err, domainfavorites.ErrPremiseRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if h.Logger != nil {
			h.Logger.Error("favorites operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func deviceFromRequest(c *gin.Context) domainfavorites.DeviceID {
	return domainfavorites.DeviceID(strings.TrimSpace(c.GetHeader(deviceHeader)))
}

var _ FavoritesHTTP = FavoritesHandler{}
