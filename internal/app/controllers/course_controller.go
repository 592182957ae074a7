package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/services"
	"github.com/yigit/unitime/internal/middleware"
	"github.com/yigit/unitime/internal/pkg/helpers"
)

// CourseController handles scheduled course sessions
type CourseController struct {
	sessionService services.SessionService
	logger         zerolog.Logger
}

// NewCourseController creates a new CourseController
func NewCourseController(sessionService services.SessionService, logger zerolog.Logger) *CourseController {
	return &CourseController{
		sessionService: sessionService,
		logger:         logger,
	}
}

func courseList(sessions []*models.SessionDetails, total int64, page helpers.Page) dto.CourseListResponse {
	resp := dto.CourseListResponse{
		Courses:    make([]dto.CourseResponse, 0, len(sessions)),
		Pagination: helpers.NewPaginationInfo(total, page.Number, page.Size),
	}
	for _, s := range sessions {
		resp.Courses = append(resp.Courses, dto.NewCourseDetailsResponse(s))
	}
	return resp
}

// ListCourses lists sessions
// @Summary List course sessions
// @Description Filters combine with AND. from/to select sessions overlapping [from, to).
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param programId query int false "Program ID"
// @Param teacherId query int false "Teacher ID"
// @Param roomId query int false "Room ID"
// @Param subjectId query int false "Subject ID"
// @Param status query string false "Status" Enums(planned, confirmed, cancelled)
// @Param sessionType query string false "Session type" Enums(lecture, tutorial, lab, exam)
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.CourseListResponse} "Sessions retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	var filter dto.CourseFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}
	page := helpers.ParsePaginationParams(ctx)

	sessions, total, err := c.sessionService.ListSessions(ctx.Request.Context(), &filter, page)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(courseList(sessions, total, page)))
}

// SearchCourses searches sessions by name
// @Summary Search course sessions
// @Description Matches subject name or code, teacher name and room name
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search text"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.CourseListResponse} "Sessions found"
// @Failure 400 {object} dto.ErrorResponse "Missing search text"
// @Router /courses/search [get]
func (c *CourseController) SearchCourses(ctx *gin.Context) {
	q := strings.TrimSpace(ctx.Query("q"))
	if q == "" {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Search text is required").WithField("q")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}
	page := helpers.ParsePaginationParams(ctx)

	sessions, total, err := c.sessionService.SearchSessions(ctx.Request.Context(), q, page)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(courseList(sessions, total, page)))
}

// GetCourse retrieves a session
// @Summary Get course session
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.CourseResponse} "Session retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	session, err := c.sessionService.GetSession(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewCourseDetailsResponse(session)))
}

// CreateCourse schedules a session
// @Summary Schedule a course session
// @Description Validates room, teacher and unavailability conflicts under schedule locks and persists the session. A conflict is rejected with 400 and the conflict report as details.
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCourseRequest true "Session"
// @Success 201 {object} dto.APIResponse{data=dto.CourseResponse} "Session scheduled"
// @Failure 400 {object} dto.ErrorResponse "Invalid request, invalid interval or scheduling conflict"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Admin only"
// @Failure 404 {object} dto.ErrorResponse "Subject, teacher, room or program not found"
// @Failure 409 {object} dto.ErrorResponse "Teacher is inactive"
// @Failure 503 {object} dto.ErrorResponse "Schedule busy, retry"
// @Router /courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var req dto.CreateCourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	createdBy, _ := middleware.GetUserID(ctx)

	session, err := c.sessionService.CreateSession(ctx.Request.Context(), createdBy, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("sessionID", session.ID).Int64("createdBy", createdBy).Msg("Course session scheduled")
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.NewCourseDetailsResponse(session)))
}

// UpdateCourse reschedules or edits a session
// @Summary Update a course session
// @Description Same validation as creation, excluding the session itself. Cancelled sessions cannot be edited.
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID" Format(int64) minimum(1)
// @Param request body dto.UpdateCourseRequest true "Changed fields"
// @Success 200 {object} dto.APIResponse{data=dto.CourseResponse} "Session updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request, invalid interval or scheduling conflict"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Session is cancelled"
// @Failure 503 {object} dto.ErrorResponse "Schedule busy, retry"
// @Router /courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	session, err := c.sessionService.UpdateSession(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewCourseDetailsResponse(session)))
}

// CheckConflicts runs the conflict validator without writing
// @Summary Dry-run conflict check
// @Description Returns the conflict report for a prospective booking. Always 200 when the request is valid, whether or not a conflict is found.
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ConflictCheckRequest true "Prospective booking"
// @Success 200 {object} dto.APIResponse{data=scheduling.ConflictReport} "Report computed"
// @Failure 400 {object} dto.ErrorResponse "Invalid request or interval"
// @Router /courses/check-conflicts [post]
func (c *CourseController) CheckConflicts(ctx *gin.Context) {
	var req dto.ConflictCheckRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	report, err := c.sessionService.CheckConflicts(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(report))
}

// UpdateCourseStatus moves a session through its lifecycle
// @Summary Change session status
// @Description planned to confirmed, planned or confirmed to cancelled. Cancelling requires a reason.
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID" Format(int64) minimum(1)
// @Param request body dto.UpdateStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=dto.CourseResponse} "Status changed"
// @Failure 400 {object} dto.ErrorResponse "Invalid status or missing reason"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Transition not allowed"
// @Router /courses/{id}/status [patch]
func (c *CourseController) UpdateCourseStatus(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	session, err := c.sessionService.UpdateStatus(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewCourseDetailsResponse(session)))
}

// DeleteCourse cancels a session
// @Summary Delete a course session
// @Description Sessions are never removed. The session is cancelled with the reason "deleted by admin".
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.CourseResponse} "Session cancelled"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Session already cancelled"
// @Router /courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	session, err := c.sessionService.CancelSession(ctx.Request.Context(), id, services.DeletedByAdminReason)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewCourseDetailsResponse(session)))
}
