package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/services"
	"github.com/yigit/unitime/internal/middleware"
	"github.com/yigit/unitime/internal/pkg/websocket"
)

// TimetableController serves role-scoped timetables and their live feed
type TimetableController struct {
	timetableService services.TimetableService
	ws               *websocket.Handler
}

// NewTimetableController creates a new TimetableController
func NewTimetableController(timetableService services.TimetableService, ws *websocket.Handler) *TimetableController {
	return &TimetableController{
		timetableService: timetableService,
		ws:               ws,
	}
}

func optionalTimeQuery(ctx *gin.Context, key string) (*time.Time, error) {
	if ctx.Query(key) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, ctx.Query(key))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTimetable returns the caller's timetable
// @Summary Timetable
// @Description Teachers see their own sessions and students their program's. Admins see everything and may filter. Defaults to the current week.
// @Tags timetable
// @Produce json
// @Security BearerAuth
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Param programId query int false "Program ID"
// @Param teacherId query int false "Teacher ID (admin only)"
// @Param roomId query int false "Room ID (admin only)"
// @Success 200 {object} dto.APIResponse{data=dto.TimetableResponse} "Timetable"
// @Failure 400 {object} dto.ErrorResponse "Invalid window or missing program"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /timetable [get]
func (c *TimetableController) GetTimetable(ctx *gin.Context) {
	viewer, ok := viewerOrAbort(ctx)
	if !ok {
		return
	}

	var q services.TimetableQuery
	var err error
	if q.From, err = optionalTimeQuery(ctx, "from"); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "from must be an RFC3339 timestamp").WithField("from")))
		return
	}
	if q.To, err = optionalTimeQuery(ctx, "to"); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "to must be an RFC3339 timestamp").WithField("to")))
		return
	}
	if q.ProgramID, ok = optionalIDQuery(ctx, "programId"); !ok {
		return
	}
	if q.TeacherID, ok = optionalIDQuery(ctx, "teacherId"); !ok {
		return
	}
	if q.RoomID, ok = optionalIDQuery(ctx, "roomId"); !ok {
		return
	}

	timetable, err := c.timetableService.GetTimetable(ctx.Request.Context(), viewer, q)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.TimetableResponse{
		From:     timetable.Window.Start,
		To:       timetable.Window.End,
		Sessions: make([]dto.CourseResponse, 0, len(timetable.Sessions)),
	}
	for _, s := range timetable.Sessions {
		resp.Sessions = append(resp.Sessions, dto.NewCourseDetailsResponse(s))
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// Subscribe upgrades to the session event stream
func (c *TimetableController) Subscribe(ctx *gin.Context) {
	c.ws.Subscribe(ctx)
}
