package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/app/services"
	"github.com/yigit/unitime/internal/middleware"
	"github.com/yigit/unitime/internal/pkg/helpers"
)

// RoomController handles buildings and rooms
type RoomController struct {
	roomService services.RoomService
}

// NewRoomController creates a new RoomController
func NewRoomController(roomService services.RoomService) *RoomController {
	return &RoomController{roomService: roomService}
}

// queryWindow reads ?from and ?to, defaulting to the current week.
func queryWindow(ctx *gin.Context) (scheduling.Interval, bool) {
	weekStart := helpers.StartOfWeek(time.Now().UTC())
	start, err := helpers.ParseTimeQuery(ctx, "from", weekStart)
	if err == nil {
		var end time.Time
		end, err = helpers.ParseTimeQuery(ctx, "to", start.AddDate(0, 0, 7))
		if err == nil {
			return scheduling.Interval{Start: start, End: end}, true
		}
	}
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid time window").WithDetails(err.Error())))
	return scheduling.Interval{}, false
}

// ListBuildings lists buildings
// @Summary List buildings
// @Tags buildings
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Building} "Buildings retrieved successfully"
// @Router /buildings [get]
func (c *RoomController) ListBuildings(ctx *gin.Context) {
	buildings, err := c.roomService.ListBuildings(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(buildings))
}

// CreateBuilding creates a building
// @Summary Create a building
// @Tags buildings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateBuildingRequest true "Building"
// @Success 201 {object} dto.APIResponse{data=models.Building} "Building created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 409 {object} dto.ErrorResponse "Building code already used"
// @Router /buildings [post]
func (c *RoomController) CreateBuilding(ctx *gin.Context) {
	var req dto.CreateBuildingRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	building, err := c.roomService.CreateBuilding(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(building))
}

// ListRooms lists rooms
// @Summary List rooms
// @Tags rooms
// @Produce json
// @Param buildingId query int false "Building ID"
// @Param roomType query string false "Room type" Enums(lecture_hall, classroom, lab, computer_lab)
// @Param minCapacity query int false "Minimum capacity"
// @Success 200 {object} dto.APIResponse{data=[]models.Room} "Rooms retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /rooms [get]
func (c *RoomController) ListRooms(ctx *gin.Context) {
	var filter dto.RoomFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}

	rooms, err := c.roomService.ListRooms(ctx, &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(rooms))
}

// GetRoom retrieves a room
// @Summary Get room details
// @Tags rooms
// @Produce json
// @Param id path int true "Room ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Room} "Room retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Room not found"
// @Router /rooms/{id} [get]
func (c *RoomController) GetRoom(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	room, err := c.roomService.GetRoom(ctx, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(room))
}

// CreateRoom creates a room
// @Summary Create a room
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RoomRequest true "Room"
// @Success 201 {object} dto.APIResponse{data=models.Room} "Room created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.ErrorResponse "Building not found"
// @Failure 409 {object} dto.ErrorResponse "Room already exists in the building"
// @Router /rooms [post]
func (c *RoomController) CreateRoom(ctx *gin.Context) {
	var req dto.RoomRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	room, err := c.roomService.CreateRoom(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(room))
}

// UpdateRoom updates a room
// @Summary Update a room
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Room ID" Format(int64) minimum(1)
// @Param request body dto.RoomRequest true "Room"
// @Success 200 {object} dto.APIResponse{data=models.Room} "Room updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.ErrorResponse "Room or building not found"
// @Router /rooms/{id} [put]
func (c *RoomController) UpdateRoom(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.RoomRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	room, err := c.roomService.UpdateRoom(ctx, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(room))
}

// DeleteRoom deletes a room
// @Summary Delete a room
// @Description Deletes a room that has no upcoming sessions
// @Tags rooms
// @Security BearerAuth
// @Param id path int true "Room ID" Format(int64) minimum(1)
// @Success 204 "Room deleted"
// @Failure 404 {object} dto.ErrorResponse "Room not found"
// @Failure 409 {object} dto.ErrorResponse "Room has upcoming sessions"
// @Router /rooms/{id} [delete]
func (c *RoomController) DeleteRoom(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.roomService.DeleteRoom(ctx, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// CheckAvailability reports whether a room is free
// @Summary Room availability
// @Description Reports whether the room has no non-cancelled session overlapping [start, end)
// @Tags rooms
// @Produce json
// @Param id path int true "Room ID" Format(int64) minimum(1)
// @Param start query string true "Window start (RFC3339)"
// @Param end query string true "Window end (RFC3339)"
// @Success 200 {object} dto.APIResponse{data=dto.RoomAvailabilityResponse} "Availability computed"
// @Failure 400 {object} dto.ErrorResponse "Invalid window"
// @Failure 404 {object} dto.ErrorResponse "Room not found"
// @Router /rooms/{id}/availability [get]
func (c *RoomController) CheckAvailability(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}

	var q dto.TimeWindowQuery
	if !middleware.BindQuery(ctx, &q) {
		return
	}

	resp, err := c.roomService.CheckAvailability(ctx, id, scheduling.Interval{Start: q.Start, End: q.End})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}

// GetOccupancy summarises room usage
// @Summary Room occupancy
// @Description Booked minutes and occupancy ratio of a room over a window. Defaults to the current week.
// @Tags rooms
// @Produce json
// @Param id path int true "Room ID" Format(int64) minimum(1)
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Success 200 {object} dto.APIResponse{data=dto.RoomOccupancyResponse} "Occupancy computed"
// @Failure 400 {object} dto.ErrorResponse "Invalid window"
// @Failure 404 {object} dto.ErrorResponse "Room not found"
// @Router /rooms/{id}/occupancy [get]
func (c *RoomController) GetOccupancy(ctx *gin.Context) {
	id, ok := middleware.PathID(ctx, "id")
	if !ok {
		return
	}
	window, ok := queryWindow(ctx)
	if !ok {
		return
	}

	resp, err := c.roomService.GetOccupancy(ctx, id, window)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(resp))
}
