package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/services"
	"github.com/yigit/unitime/internal/middleware"
)

// TeacherController handles teachers and their unavailability windows
type TeacherController struct {
	teacherService        services.TeacherService
	unavailabilityService services.UnavailabilityService
}

// NewTeacherController creates a new TeacherController
func NewTeacherController(teacherService services.TeacherService, unavailabilityService services.UnavailabilityService) *TeacherController {
	return &TeacherController{
		teacherService:        teacherService,
		unavailabilityService: unavailabilityService,
	}
}

func viewerOrAbort(ctx *gin.Context) (services.Viewer, bool) {
	viewer, ok := middleware.GetViewer(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "User information not found")))
	}
	return viewer, ok
}

// ListTeachers lists teachers
// @Summary List teachers
// @Tags teachers
// @Produce json
// @Security BearerAuth
// @Param departmentId query int false "Department ID"
// @Param active query bool false "Active flag"
// @Success 200 {object} dto.APIResponse{data=[]dto.TeacherResponse} "Teachers retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /teachers [get]
func (c *TeacherController) ListTeachers(ctx *gin.Context) {
	var filter dto.TeacherFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}

	teachers, err := c.teacherService.ListTeachers(ctx, &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := make([]dto.TeacherResponse, 0, len(teachers))
	for _, t := range teachers {
		resp = append(resp, dto.NewTeacherResponse(t))
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// GetTeacher retrieves a teacher
// @Summary Get teacher details
// @Tags teachers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Teacher ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.TeacherResponse} "Teacher retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Teacher not found"
// @Router /teachers/{id} [get]
func (c *TeacherController) GetTeacher(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	teacher, err := c.teacherService.GetTeacher(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewTeacherResponse(teacher)))
}

// GetWorkload aggregates a teacher's hours
// @Summary Teacher workload
// @Description Hours of non-cancelled sessions in a window, in total and by session type. Defaults to the current week.
// @Tags teachers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Teacher ID" Format(int64) minimum(1)
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Success 200 {object} dto.APIResponse{data=dto.WorkloadResponse} "Workload computed"
// @Failure 400 {object} dto.ErrorResponse "Invalid window"
// @Failure 404 {object} dto.ErrorResponse "Teacher not found"
// @Router /teachers/{id}/workload [get]
func (c *TeacherController) GetWorkload(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	window, ok := queryWindow(ctx)
	if !ok {
		return
	}

	resp, err := c.teacherService.GetWorkload(ctx, id, window)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// ListUnavailabilities lists a teacher's windows
// @Summary List unavailability windows
// @Description Admins see any teacher's windows, teachers only their own
// @Tags unavailability
// @Produce json
// @Security BearerAuth
// @Param id path int true "Teacher ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=[]models.Unavailability} "Windows retrieved"
// @Failure 403 {object} dto.ErrorResponse "Not your teacher profile"
// @Failure 404 {object} dto.ErrorResponse "Teacher not found"
// @Router /teachers/{id}/unavailability [get]
func (c *TeacherController) ListUnavailabilities(ctx *gin.Context) {
	teacherID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	viewer, ok := viewerOrAbort(ctx)
	if !ok {
		return
	}

	windows, err := c.unavailabilityService.ListForTeacher(ctx, viewer, teacherID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(windows))
}

// DeclareUnavailability declares a window
// @Summary Declare unavailability
// @Description Teachers declare pending windows for themselves. Windows declared by an admin are approved immediately and must not overlap existing sessions.
// @Tags unavailability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Teacher ID" Format(int64) minimum(1)
// @Param request body dto.UnavailabilityRequest true "Window"
// @Success 201 {object} dto.APIResponse{data=models.Unavailability} "Window declared"
// @Failure 400 {object} dto.ErrorResponse "Invalid window"
// @Failure 403 {object} dto.ErrorResponse "Not your teacher profile"
// @Failure 409 {object} dto.ErrorResponse "Window overlaps scheduled sessions"
// @Router /teachers/{id}/unavailability [post]
func (c *TeacherController) DeclareUnavailability(ctx *gin.Context) {
	teacherID, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	viewer, ok := viewerOrAbort(ctx)
	if !ok {
		return
	}

	var req dto.UnavailabilityRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	window, err := c.unavailabilityService.Declare(ctx, viewer, teacherID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(window))
}

// ReviewUnavailability approves or rejects a window
// @Summary Review unavailability
// @Description Approving is refused while the teacher has sessions inside the window
// @Tags unavailability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Unavailability ID" Format(int64) minimum(1)
// @Param request body dto.ApprovalRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=models.Unavailability} "Window reviewed"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Admin only"
// @Failure 404 {object} dto.ErrorResponse "Window not found"
// @Failure 409 {object} dto.ErrorResponse "Window overlaps scheduled sessions"
// @Router /unavailability/{id}/approval [patch]
func (c *TeacherController) ReviewUnavailability(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	viewer, ok := viewerOrAbort(ctx)
	if !ok {
		return
	}

	var req dto.ApprovalRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	window, err := c.unavailabilityService.Review(ctx, viewer, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(window))
}

// DeleteUnavailability removes a window
// @Summary Delete unavailability
// @Tags unavailability
// @Security BearerAuth
// @Param id path int true "Unavailability ID" Format(int64) minimum(1)
// @Success 204 "Window deleted"
// @Failure 403 {object} dto.ErrorResponse "Not your window"
// @Failure 404 {object} dto.ErrorResponse "Window not found"
// @Router /unavailability/{id} [delete]
func (c *TeacherController) DeleteUnavailability(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	viewer, ok := viewerOrAbort(ctx)
	if !ok {
		return
	}

	if err := c.unavailabilityService.Delete(ctx, viewer, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
