package v1

import (
	"time"

	"github.com/gin-gonic/gin"
)

// @Summary Subscribe to live incident updates
// @Description Open a server-sent-event stream. The first frame is a "connected" acknowledgement; subsequent frames are incident-created, incident-updated, incident-deleted, message-created and heartbeat events.
// @Tags Incidents
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Router /incidents/stream [get]
func (h *Handler) streamEvents(c *gin.Context) {
	log := h.logger.WithField("method", "streamEvents")

	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	log.WithField("active", h.hub.ActiveCount()).Debug("Stream opened")

	// A subscription ends on client disconnect, hub eviction, or the
	// fixed lifetime cap, whichever comes first.
	lifetime := time.NewTimer(h.cfg.StreamTimeout)
	defer lifetime.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			log.Debug("Stream client disconnected")
			return
		case <-sub.Done():
			log.Debug("Stream subscriber evicted by hub")
			return
		case <-lifetime.C:
			log.Debug("Stream lifetime reached")
			return
		case ev := <-sub.C():
			// Data is pre-serialized JSON; the SSE encoder writes it as-is.
			c.SSEvent(ev.Name, ev.Data)
			c.Writer.Flush()
		}
	}
}
