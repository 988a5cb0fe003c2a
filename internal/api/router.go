package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes attaches all HTTP endpoints to the engine.
func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", h.healthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/meetings", h.startMeeting)
		v1.GET("/meetings", h.listMeetings)
		v1.GET("/meetings/:meeting_id", h.getMeeting)
		v1.POST("/meetings/:meeting_id/stop", h.stopMeeting)
		v1.POST("/meetings/:meeting_id/process", h.processMeeting)
		v1.GET("/meetings/:meeting_id/report", h.getReport)

		v1.POST("/translate", h.translateText)
		v1.POST("/translate/audio", h.translateAudio)

		v1.POST("/templates", h.uploadTemplate)
		v1.GET("/templates/current", h.currentTemplate)

		v1.GET("/keys", h.keyStats)
	}
}
