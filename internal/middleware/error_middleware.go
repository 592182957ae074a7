package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/auth"
	"github.com/yigit/unitime/internal/pkg/logger"
)

type errorMapping struct {
	targets []error
	status  int
	code    dto.ErrorCode
}

// errorMappings is checked in order; the first matching entry wins.
var errorMappings = []errorMapping{
	{[]error{scheduling.ErrInvalidInterval}, http.StatusBadRequest, dto.ErrorCodeInvalidInterval},
	{[]error{apperrors.ErrValidationFailed, apperrors.ErrBadRequest}, http.StatusBadRequest, dto.ErrorCodeValidationFailed},

	{[]error{apperrors.ErrInvalidCredentials}, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
	{[]error{apperrors.ErrTokenExpired, auth.ErrExpiredToken}, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
	{[]error{apperrors.ErrTokenInvalid, apperrors.ErrTokenRevoked, apperrors.ErrInvalidFormat, auth.ErrInvalidToken, auth.ErrInvalidFormat}, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{[]error{apperrors.ErrTokenNotFound}, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound},
	{[]error{apperrors.ErrAccountDisabled}, http.StatusForbidden, dto.ErrorCodeAccountDisabled},
	{[]error{apperrors.ErrPermissionDenied}, http.StatusForbidden, dto.ErrorCodeForbidden},

	{[]error{
		apperrors.ErrResourceNotFound, apperrors.ErrUserNotFound,
		apperrors.ErrFacultyNotFound, apperrors.ErrDepartmentNotFound, apperrors.ErrProgramNotFound, apperrors.ErrSubjectNotFound,
		apperrors.ErrBuildingNotFound, apperrors.ErrRoomNotFound,
		apperrors.ErrTeacherNotFound, apperrors.ErrSessionNotFound, apperrors.ErrUnavailabilityNotFound,
	}, http.StatusNotFound, dto.ErrorCodeResourceNotFound},

	{[]error{
		apperrors.ErrResourceAlreadyExists, apperrors.ErrEmailAlreadyExists,
		apperrors.ErrFacultyAlreadyExists, apperrors.ErrDepartmentAlreadyExists, apperrors.ErrProgramAlreadyExists,
		apperrors.ErrSubjectAlreadyExists, apperrors.ErrBuildingAlreadyExists, apperrors.ErrRoomAlreadyExists,
	}, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{[]error{
		apperrors.ErrConflict, apperrors.ErrFacultyHasRelations, apperrors.ErrDepartmentHasRelations,
		apperrors.ErrRoomInUse, apperrors.ErrSessionCancelled, apperrors.ErrInvalidStatusTransition,
		apperrors.ErrTeacherInactive, apperrors.ErrUnavailabilityOverlaps,
	}, http.StatusConflict, dto.ErrorCodeConflict},

	{[]error{apperrors.ErrScheduleBusy}, http.StatusServiceUnavailable, dto.ErrorCodeScheduleBusy},
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	// A rejected session write carries its report as details
	var conflict *scheduling.ConflictError
	if errors.As(err, &conflict) {
		detail := dto.NewErrorDetail(dto.ErrorCodeSchedulingConflict, conflict.Report.Message()).
			WithDetails(conflict.Report)
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	for _, m := range errorMappings {
		if !apperrors.Is(err, m.targets[0], m.targets[1:]...) {
			continue
		}
		detail := dto.NewErrorDetail(m.code, err.Error())
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && custom.Details != nil {
			detail.WithDetails(custom.Details)
		}
		c.JSON(m.status, dto.NewErrorResponse(detail))
		return
	}

	logger.Ctx(c.Request.Context()).Error().Err(err).
		Str("path", c.Request.URL.Path).
		Msg("Unhandled error")
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
	))
}
