package ginserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"premises/internal/app/dto"
	chatsvc "premises/internal/app/services/chat"
)

// ChatHTTP exposes the rental assistant endpoints.
type ChatHTTP interface {
	Reply(c *gin.Context)
	Stream(c *gin.Context)
}

type ChatHandler struct {
	Service *chatsvc.Service
	Logger  *slog.Logger
}

// Reply answers a single chat message with the full response body.
func (h ChatHandler) Reply(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chat unavailable"})
		return
	}
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	reply, err := h.Service.Reply(c.Request.Context(), req)
	if err != nil {
		h.respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// Stream answers over SSE, one data event per model delta, closed by a
// [DONE] sentinel. Errors after the stream started are logged only; the
// response status is already committed.
func (h ChatHandler) Stream(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chat unavailable"})
		return
	}
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	err := h.Service.StreamReply(c.Request.Context(), req, func(delta string) error {
		payload, err := json.Marshal(gin.H{"delta": delta})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("chat stream failed", "error", err)
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", `{"error":"chat unavailable"}`)
	}
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	flusher.Flush()
}

func (h ChatHandler) respondChatError(c *gin.Context, err error) {
	if errors.Is(err, chatsvc.ErrMessageRequired) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	if h.Logger != nil {
		h.Logger.Error("chat reply failed", "error", err)
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "chat service is unavailable, try again later"})
}

var _ ChatHTTP = ChatHandler{}
