package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/services"
	"github.com/yigit/unitime/internal/middleware"
	"github.com/yigit/unitime/internal/pkg/helpers"
)

// UserController handles user-related operations
type UserController struct {
	userService services.UserService
}

// NewUserController creates a new user controller
func NewUserController(userService services.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// GetUserByID retrieves user information by ID
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "User retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid user ID format"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Admin only"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (c *UserController) GetUserByID(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	user, err := c.userService.GetUserByID(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewUserResponse(user)))
}

// GetUsers lists users
// @Summary List users
// @Description Lists users filtered by role, activity and a name or email search, one page at a time
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role" Enums(ADMIN, TEACHER, STUDENT)
// @Param search query string false "Name or email fragment"
// @Param active query bool false "Active flag"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.UserListResponse} "Users retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Admin only"
// @Router /users [get]
func (c *UserController) GetUsers(ctx *gin.Context) {
	var filter dto.UserFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}
	page := helpers.ParsePaginationParams(ctx)

	users, total, err := c.userService.GetUsersByFilter(ctx.Request.Context(), &filter, page)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp := dto.UserListResponse{
		Users:      make([]dto.UserResponse, 0, len(users)),
		Pagination: helpers.NewPaginationInfo(total, page.Number, page.Size),
	}
	for _, u := range users {
		resp.Users = append(resp.Users, dto.NewUserResponse(u))
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// CreateUser creates an account
// @Summary Create a user
// @Description Creates an admin, teacher or student account. Teachers get their teacher profile in the same transaction.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "Account"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse} "User created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - Admin only"
// @Failure 404 {object} dto.ErrorResponse "Program or department not found"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req dto.CreateUserRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.CreateUser(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.NewUserResponse(user)))
}

// DeactivateUser disables an account
// @Summary Deactivate a user
// @Description Disables the account, its teacher profile and revokes its refresh tokens
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID" Format(int64) minimum(1)
// @Success 204 "User deactivated"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id}/deactivate [post]
func (c *UserController) DeactivateUser(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	actorID, _ := middleware.GetUserID(ctx)

	if err := c.userService.DeactivateUser(ctx.Request.Context(), actorID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
