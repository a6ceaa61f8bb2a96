package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parking-monitor/internal/service"
)

type Handler struct {
	monitorService *service.MonitorService
	log            zerolog.Logger
}

func NewHandler(monitorService *service.MonitorService, log zerolog.Logger) *Handler {
	return &Handler{
		monitorService: monitorService,
		log:            log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Public endpoints
	public := r.Group("/api/v1")
	{
		public.GET("/status", h.getStatus)
		public.GET("/spots", h.listSpots)
		public.GET("/sessions/active", h.listActiveSessions)
		public.GET("/sessions", h.listSessions)
		public.GET("/stats", h.getStats)
	}

	// Protected endpoints
	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/monitor/start", h.startMonitoring)
		protected.POST("/monitor/stop", h.stopMonitoring)
		protected.GET("/sessions/export", h.exportSessions)
	}
}

func (h *Handler) getStatus(c *gin.Context) {
	status, err := h.monitorService.Status(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(status))
}

func (h *Handler) listSpots(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(h.monitorService.Spots()))
}

func (h *Handler) listActiveSessions(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse(h.monitorService.ActiveSessions()))
}

func (h *Handler) listSessions(c *gin.Context) {
	var spotID *string
	if spot := strings.TrimSpace(c.Query("spot")); spot != "" {
		spotID = &spot
	}

	var from, to *string
	if f := strings.TrimSpace(c.Query("from")); f != "" {
		from = &f
	}
	if t := strings.TrimSpace(c.Query("to")); t != "" {
		to = &t
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	offset := 0
	if o := c.Query("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	sessions, err := h.monitorService.SessionHistory(c.Request.Context(), spotID, from, to, limit, offset)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(sessions))
}

func (h *Handler) getStats(c *gin.Context) {
	days := 0
	if d := c.Query("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse("days must be a positive integer"))
			return
		}
		days = parsed
	}

	stats, err := h.monitorService.Stats(c.Request.Context(), days)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(stats))
}

func (h *Handler) startMonitoring(c *gin.Context) {
	if started := h.monitorService.StartMonitoring(); !started {
		c.JSON(http.StatusConflict, errorResponse("monitoring already running"))
		return
	}

	h.log.Info().Str("client_ip", c.ClientIP()).Msg("monitoring started via API")
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"running": true,
	})
}

func (h *Handler) stopMonitoring(c *gin.Context) {
	if stopped := h.monitorService.StopMonitoring(); !stopped {
		c.JSON(http.StatusConflict, errorResponse("monitoring not running"))
		return
	}

	h.log.Info().Str("client_ip", c.ClientIP()).Msg("monitoring stopped via API")
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"running": false,
	})
}

func (h *Handler) exportSessions(c *gin.Context) {
	var spotID *string
	if spot := strings.TrimSpace(c.Query("spot")); spot != "" {
		spotID = &spot
	}

	var from, to *string
	if f := strings.TrimSpace(c.Query("from")); f != "" {
		from = &f
	}
	if t := strings.TrimSpace(c.Query("to")); t != "" {
		to = &t
	}

	file, err := h.monitorService.ExportSessions(c.Request.Context(), spotID, from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}

	filename := "parking-sessions-" + time.Now().Format("2006-01-02") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := file.Write(c.Writer); err != nil {
		h.log.Error().Err(err).Msg("failed to stream sessions export")
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
