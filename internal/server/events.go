package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/alkime/breathewise/internal/breath"
	"github.com/gin-gonic/gin"
)

// eventBuffer holds phase events while the client catches up; events for a
// full buffer are dropped by the session broadcaster.
const eventBuffer = 64

// sseEventName is the SSE event type of every session event.
const sseEventName = "state"

// handleSessionEvents mounts the session for the lifetime of the request
// and streams its state changes. Closing the stream unmounts the session.
func (s *Server) handleSessionEvents(c *gin.Context) {
	id := c.Param("id")
	events := make(chan breath.Event, eventBuffer)

	done, err := s.sessions.Mount(c.Request.Context(), id, events)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, err)
		return
	case errors.Is(err, ErrSessionMounted):
		abortWithError(c, http.StatusConflict, err)
		return
	case err != nil:
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev := <-events:
			c.SSEvent(sseEventName, ev)
			return !ev.Stopped
		case <-done:
			// deliver whatever the session published before it stopped
			for {
				select {
				case ev := <-events:
					c.SSEvent(sseEventName, ev)
				default:
					return false
				}
			}
		}
	})
}
