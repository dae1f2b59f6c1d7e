package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanjshine99/care-app-backend/internal/authn"
	"github.com/sanjshine99/care-app-backend/internal/metrics"
)

// NewRouter wires the scheduling HTTP surface onto a gin.Engine: auth
// middleware on every /schedule route, plus unauthenticated /healthz and
// /metrics so infra endpoints stay outside the authenticated group.
func NewRouter(h *Handler, authCfg authn.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	sched := r.Group("/schedule")
	sched.Use(authn.Middleware(authCfg))

	sched.POST("/generate", h.GenerateSchedule)
	sched.GET("/appointments", h.ListAppointments)
	sched.GET("/care-receivers/:id/appointments", h.CareReceiverAppointments)
	sched.GET("/unscheduled", h.Unscheduled)
	sched.POST("/analyze-unscheduled", h.AnalyzeUnscheduled)
	sched.POST("/validate", h.Validate)
	sched.POST("/find-available", h.FindAvailable)
	sched.POST("/appointments/manual", h.CreateManualAppointment)
	sched.PATCH("/appointments/:id/status", h.UpdateAppointmentStatus)
	sched.DELETE("/appointments/:id", h.DeleteAppointment)
	sched.GET("/stats", h.Stats)

	return r
}
