package api

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/invalidate"
	"github.com/lalith-99/minicrm/internal/middleware"
	"go.uber.org/zap"
)

type Subscriber interface {
	Subscribe(ctx context.Context, userID uuid.UUID) (*invalidate.Subscription, error)
}

// EventsHandler streams the caller's invalidation events so that open
// views can refresh after a write made elsewhere.
type EventsHandler struct {
	subscriber Subscriber
	keepAlive  time.Duration
	logger     *zap.Logger

	done      chan struct{}
	closeOnce sync.Once
}

func NewEventsHandler(subscriber Subscriber, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		subscriber: subscriber,
		keepAlive:  25 * time.Second,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Shutdown ends every open stream. http.Server.Shutdown waits for
// handlers to return, so it is registered with RegisterOnShutdown.
func (h *EventsHandler) Shutdown() {
	h.closeOnce.Do(func() { close(h.done) })
}

func (h *EventsHandler) Register(g *gin.RouterGroup) {
	g.GET("/events", h.Stream)
}

// Stream handles GET /v1/events as server-sent events.
func (h *EventsHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	sub, err := h.subscriber.Subscribe(ctx, middleware.GetUserID(c))
	if err != nil {
		readFailed(c, h.logger, "failed to subscribe to events", err)
		return
	}
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(io.Writer) bool {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent("invalidate", ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		case <-ctx.Done():
			return false
		case <-h.done:
			return false
		}
	})
}
