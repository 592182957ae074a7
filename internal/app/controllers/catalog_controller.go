package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/services"
	"github.com/yigit/unitime/internal/middleware"
	"github.com/yigit/unitime/internal/pkg/helpers"
)

// CatalogController serves programs and subjects
type CatalogController struct {
	catalogService services.CatalogService
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(catalogService services.CatalogService) *CatalogController {
	return &CatalogController{catalogService: catalogService}
}

func optionalIDQuery(ctx *gin.Context, name string) (*int64, bool) {
	id, err := helpers.ParseOptionalIDQuery(ctx, name)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+name).WithField(name)))
		return nil, false
	}
	return id, true
}

// ListPrograms lists programs
// @Summary List programs
// @Tags programs
// @Produce json
// @Param departmentId query int false "Department ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Program} "Programs retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid department ID"
// @Router /programs [get]
func (c *CatalogController) ListPrograms(ctx *gin.Context) {
	departmentID, ok := optionalIDQuery(ctx, "departmentId")
	if !ok {
		return
	}

	programs, err := c.catalogService.ListPrograms(ctx, departmentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(programs))
}

// GetProgram retrieves a program
// @Summary Get program details
// @Tags programs
// @Produce json
// @Param id path int true "Program ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Program} "Program retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Program not found"
// @Router /programs/{id} [get]
func (c *CatalogController) GetProgram(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	program, err := c.catalogService.GetProgram(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(program))
}

// CreateProgram creates a program
// @Summary Create a program
// @Tags programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateProgramRequest true "Program"
// @Success 201 {object} dto.APIResponse{data=models.Program} "Program created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.ErrorResponse "Department not found"
// @Failure 409 {object} dto.ErrorResponse "Program already exists"
// @Router /programs [post]
func (c *CatalogController) CreateProgram(ctx *gin.Context) {
	var req dto.CreateProgramRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	program, err := c.catalogService.CreateProgram(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(program))
}

// ListSubjects lists subjects
// @Summary List subjects
// @Tags subjects
// @Produce json
// @Param programId query int false "Program ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Subject} "Subjects retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid program ID"
// @Router /subjects [get]
func (c *CatalogController) ListSubjects(ctx *gin.Context) {
	programID, ok := optionalIDQuery(ctx, "programId")
	if !ok {
		return
	}

	subjects, err := c.catalogService.ListSubjects(ctx, programID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(subjects))
}

// GetSubject retrieves a subject
// @Summary Get subject details
// @Tags subjects
// @Produce json
// @Param id path int true "Subject ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Subject} "Subject retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Subject not found"
// @Router /subjects/{id} [get]
func (c *CatalogController) GetSubject(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	subject, err := c.catalogService.GetSubject(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(subject))
}

// CreateSubject creates a subject
// @Summary Create a subject
// @Tags subjects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSubjectRequest true "Subject"
// @Success 201 {object} dto.APIResponse{data=models.Subject} "Subject created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.ErrorResponse "Program not found"
// @Failure 409 {object} dto.ErrorResponse "Subject already exists"
// @Router /subjects [post]
func (c *CatalogController) CreateSubject(ctx *gin.Context) {
	var req dto.CreateSubjectRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	subject, err := c.catalogService.CreateSubject(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(subject))
}
