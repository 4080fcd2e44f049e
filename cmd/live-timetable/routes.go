package main

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/live-timetable-api/internal/handler"
	"github.com/noah-isme/live-timetable-api/internal/middleware"
	"github.com/noah-isme/live-timetable-api/internal/models"
	"github.com/noah-isme/live-timetable-api/internal/service"
)

type routeDeps struct {
	tokens       *service.TokenVerifier
	timetable    *handler.TimetableHandler
	overrides    *handler.OverrideHandler
	absences     *handler.AbsenceHandler
	makeups      *handler.MakeupHandler
	events       *handler.SpecialEventHandler
	enableExport bool
}

func registerRoutes(api *gin.RouterGroup, deps routeDeps) {
	secured := api.Group("/timetable")
	secured.Use(middleware.JWT(deps.tokens), middleware.WithResponseMeta())

	admin := middleware.AdminOnly()
	faculty := middleware.RequireRoles(models.RoleTeacher)

	secured.GET("/bundle", deps.timetable.Bundle)
	secured.GET("/effective", deps.timetable.Effective)
	secured.GET("/live", deps.timetable.Live)
	secured.GET("/changes", deps.timetable.Changes)
	if deps.enableExport {
		secured.GET("/export.pdf", admin, deps.timetable.Export)
	}

	secured.POST("/moves/propose", admin, deps.overrides.ProposeMove)
	secured.POST("/moves/commit", admin, deps.overrides.CommitMove)
	secured.PUT("/overrides", admin, deps.overrides.Save)
	secured.DELETE("/overrides", admin, deps.overrides.ResetWeek)
	secured.DELETE("/overrides/:id", admin, deps.overrides.Remove)

	secured.GET("/absences", deps.absences.List)
	secured.POST("/absences", admin, deps.absences.Mark)
	secured.POST("/absences/self", faculty, deps.absences.ReportSelf)
	secured.PATCH("/absences/:id", admin, deps.absences.Review)
	secured.DELETE("/absences/:id", admin, deps.absences.Delete)

	secured.GET("/makeups", deps.makeups.List)
	secured.POST("/makeups", admin, deps.makeups.Request)
	secured.POST("/makeups/self", faculty, deps.makeups.RequestSelf)
	secured.PATCH("/makeups/:id", admin, deps.makeups.Review)

	secured.GET("/special-events", deps.events.List)
	secured.POST("/special-events", admin, deps.events.Create)
	secured.DELETE("/special-events/:id", admin, deps.events.Cancel)
}
