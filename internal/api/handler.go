package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/votewatch/election-alerts/internal/engine"
	"github.com/votewatch/election-alerts/internal/stream"
)

type Handler struct {
	engine      *engine.Engine
	broadcaster *stream.Broadcaster
}

func NewHandler(eng *engine.Engine, broadcaster *stream.Broadcaster) *Handler {
	return &Handler{
		engine:      eng,
		broadcaster: broadcaster,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.POST("/alerts", h.createAlert)
	api.POST("/alerts/:id/acknowledge", h.acknowledgeAlert)
	api.POST("/alerts/:id/resolve", h.resolveAlert)
	api.GET("/alerts/active", h.activeAlerts)
	api.GET("/alerts", h.allAlerts)
	api.GET("/alerts/geojson", h.alertsGeoJSON)
	api.GET("/alerts/stream", h.streamAlerts)
	api.GET("/stats", h.stats)
	api.GET("/config/channels", h.channels)
	api.GET("/config/escalation-rules", h.escalationRules)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) createAlert(c *gin.Context) {
	var input engine.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	alert, err := h.engine.Create(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

type acknowledgeRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
}

func (h *Handler) acknowledgeAlert(c *gin.Context) {
	var req acknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "actor_id is required"})
		return
	}

	if err := h.engine.Acknowledge(c.Request.Context(), c.Param("id"), req.ActorID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type resolveRequest struct {
	ActorID    string `json:"actor_id" binding:"required"`
	Resolution string `json:"resolution"`
}

func (h *Handler) resolveAlert(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "actor_id is required"})
		return
	}

	if err := h.engine.Resolve(c.Request.Context(), c.Param("id"), req.ActorID, req.Resolution); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) activeAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": h.engine.ActiveAlerts()})
}

func (h *Handler) allAlerts(c *gin.Context) {
	alerts, err := h.engine.AllAlerts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (h *Handler) alertsGeoJSON(c *gin.Context) {
	fc := toGeoJSON(h.engine.ActiveAlerts())
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.engine.Statistics(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) channels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"channels": h.engine.Channels()})
}

func (h *Handler) escalationRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": h.engine.EscalationRules()})
}

// streamAlerts pushes alert lifecycle events to the client as SSE until the
// client disconnects or the broadcaster shuts down.
func (h *Handler) streamAlerts(c *gin.Context) {
	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func writeError(c *gin.Context, err error) {
	var verr *engine.ValidationError
	var nerr *engine.NotFoundError
	var serr *engine.InvalidStateError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.As(err, &nerr):
		c.JSON(http.StatusNotFound, gin.H{"error": nerr.Error()})
	case errors.As(err, &serr):
		c.JSON(http.StatusConflict, gin.H{"error": serr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
