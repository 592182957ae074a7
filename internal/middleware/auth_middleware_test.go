package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type accounts map[int64]*models.User

func (a accounts) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := a[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func newJWT() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "middleware-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: time.Hour,
		TokenIssuer:     "unitime.test",
	})
}

func tokenFor(t *testing.T, jwt *auth.JWTService, u *models.User) string {
	t.Helper()
	pair, err := jwt.GenerateTokenPair(u)
	require.NoError(t, err)
	return pair.AccessToken
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestJWTAuth(t *testing.T) {
	jwt := newJWT()
	programID := int64(3)
	student := &models.User{ID: 7, Email: "etu@unitime.app", RoleType: models.RoleStudent, ProgramID: &programID, IsActive: true}
	m := NewAuthMiddleware(jwt, accounts{7: student})

	r := gin.New()
	r.GET("/me", m.JWTAuth(), func(c *gin.Context) {
		viewer, ok := GetViewer(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"userId": viewer.UserID, "role": viewer.Role, "programId": *viewer.ProgramID})
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, string(dto.ErrorCodeUnauthorized), errorCode(t, w))
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, jwt, student))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"userId":7,"role":"STUDENT","programId":3}`, w.Body.String())
	})

	t.Run("query token for websocket", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me?token=Bearer%20"+tokenFor(t, jwt, student), nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("foreign signature", func(t *testing.T) {
		other := auth.NewJWTService(auth.JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, RefreshTokenExp: time.Hour, TokenIssuer: "unitime.test"})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, other, student))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, string(dto.ErrorCodeInvalidToken), errorCode(t, w))
	})
}

func TestRoleAndActiveAccount(t *testing.T) {
	jwt := newJWT()
	admin := &models.User{ID: 1, Email: "admin@unitime.app", RoleType: models.RoleAdmin, IsActive: true}
	teacher := &models.User{ID: 2, Email: "prof@unitime.app", RoleType: models.RoleTeacher, IsActive: true}
	disabled := &models.User{ID: 3, Email: "old@unitime.app", RoleType: models.RoleAdmin, IsActive: false}
	m := NewAuthMiddleware(jwt, accounts{1: admin, 2: teacher, 3: disabled})

	r := gin.New()
	r.GET("/stats", m.JWTAuth(), m.ActiveAccountRequired(), m.RoleRequired(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		user   *models.User
		status int
		code   dto.ErrorCode
	}{
		{"admin passes", admin, http.StatusNoContent, ""},
		{"teacher is forbidden", teacher, http.StatusForbidden, dto.ErrorCodeForbidden},
		{"disabled account", disabled, http.StatusForbidden, dto.ErrorCodeAccountDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			req.Header.Set("Authorization", "Bearer "+tokenFor(t, jwt, tt.user))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Equal(t, string(tt.code), errorCode(t, w))
			}
		})
	}
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"wrapped validation", fmt.Errorf("%w: name is required", apperrors.ErrValidationFailed), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"not found", fmt.Errorf("room 4: %w", apperrors.ErrRoomNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"duplicate", apperrors.ErrSubjectAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{"room in use", apperrors.ErrRoomInUse, http.StatusConflict, dto.ErrorCodeConflict},
		{"forbidden", apperrors.NewForbiddenError("not your window"), http.StatusForbidden, dto.ErrorCodeForbidden},
		{"busy", apperrors.ErrScheduleBusy, http.StatusServiceUnavailable, dto.ErrorCodeScheduleBusy},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, string(tt.code), errorCode(t, w))
		})
	}
}

func TestHandleAPIErrorKeepsDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPatch, "/", nil)

	err := apperrors.NewCustomError(apperrors.ErrUnavailabilityOverlaps, "teacher has sessions in the window").
		WithDetails(map[string]interface{}{"sessionIds": []int64{4, 8}})
	HandleAPIError(c, err)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"sessionIds":[4,8]`)
}
