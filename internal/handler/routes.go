package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers bundles the gateway's HTTP handlers for route registration.
type Handlers struct {
	Auth       *AuthHandler
	Attendance *AttendanceHandler
	Report     *ReportHandler
	Export     *ExportHandler
	Teaching   *TeachingHandler
}

// Register mounts the API routes on the prefix group. Everything except login
// and artifact download sits behind the session middleware; downloads are
// authorized by their signed token instead.
func Register(api *gin.RouterGroup, h Handlers, sessionRequired gin.HandlerFunc) {
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/exports/:token", h.Export.Download)

	authed := api.Group("")
	authed.Use(sessionRequired)

	authed.POST("/auth/logout", h.Auth.Logout)
	authed.GET("/auth/me", h.Auth.Me)

	authed.GET("/students/:nationalID", h.Attendance.Student)
	authed.POST("/attendance", h.Attendance.Submit)

	authed.GET("/reports/daily", h.Report.Daily)
	authed.GET("/reports/monthly", h.Report.Monthly)
	authed.GET("/reports/whatsapp-link", h.Report.WhatsAppLink)
	authed.POST("/reports/export", h.Export.Create)
	authed.GET("/reports/export/:id", h.Export.Status)

	authed.GET("/teaching/trainers", h.Teaching.Trainers)
	authed.POST("/teaching", h.Teaching.Submit)
	authed.GET("/teaching/report", h.Teaching.Report)
}
