package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unitime/internal/app/models"
	"github.com/yigit/unitime/internal/app/models/dto"
	"github.com/yigit/unitime/internal/app/scheduling"
	"github.com/yigit/unitime/internal/app/services"
	"github.com/yigit/unitime/internal/middleware"
	"github.com/yigit/unitime/internal/pkg/apperrors"
	"github.com/yigit/unitime/internal/pkg/helpers"
	"github.com/yigit/unitime/internal/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validation.RegisterRules(); err != nil {
		panic(err)
	}
}

type stubSessions struct {
	createErr    error
	report       *scheduling.ConflictReport
	cancelReason string
	listFilter   *dto.CourseFilterRequest
	listPage     helpers.Page
}

func (s *stubSessions) CheckConflicts(context.Context, *dto.ConflictCheckRequest) (*scheduling.ConflictReport, error) {
	return s.report, nil
}

func (s *stubSessions) CreateSession(_ context.Context, createdBy int64, req *dto.CreateCourseRequest) (*models.SessionDetails, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &models.SessionDetails{Session: models.Session{
		ID:          42,
		SubjectID:   req.SubjectID,
		TeacherID:   req.TeacherID,
		RoomID:      req.RoomID,
		ProgramID:   req.ProgramID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		SessionType: models.SessionType(req.SessionType),
		Status:      models.StatusPlanned,
		CreatedBy:   &createdBy,
	}}, nil
}

func (s *stubSessions) UpdateSession(context.Context, int64, *dto.UpdateCourseRequest) (*models.SessionDetails, error) {
	return nil, apperrors.ErrSessionCancelled
}

func (s *stubSessions) UpdateStatus(context.Context, int64, *dto.UpdateStatusRequest) (*models.SessionDetails, error) {
	return nil, apperrors.ErrInvalidStatusTransition
}

func (s *stubSessions) CancelSession(_ context.Context, id int64, reason string) (*models.SessionDetails, error) {
	s.cancelReason = reason
	return &models.SessionDetails{Session: models.Session{ID: id, Status: models.StatusCancelled, CancellationReason: &reason}}, nil
}

func (s *stubSessions) GetSession(_ context.Context, id int64) (*models.SessionDetails, error) {
	return nil, apperrors.ErrSessionNotFound
}

func (s *stubSessions) ListSessions(_ context.Context, filter *dto.CourseFilterRequest, page helpers.Page) ([]*models.SessionDetails, int64, error) {
	s.listFilter = filter
	s.listPage = page
	return []*models.SessionDetails{{Session: models.Session{ID: 1}}}, 31, nil
}

func (s *stubSessions) SearchSessions(context.Context, string, helpers.Page) ([]*models.SessionDetails, int64, error) {
	return nil, 0, nil
}

// asUser stands in for JWTAuth.
func asUser(userID int64, role models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRoleType, string(role))
		c.Next()
	}
}

func newCourseRouter(svc *stubSessions) *gin.Engine {
	r := gin.New()
	ctl := NewCourseController(svc, zerolog.Nop())
	g := r.Group("/courses", asUser(1, models.RoleAdmin))
	g.GET("", ctl.ListCourses)
	g.GET("/search", ctl.SearchCourses)
	g.GET("/:id", ctl.GetCourse)
	g.POST("", ctl.CreateCourse)
	g.PUT("/:id", ctl.UpdateCourse)
	g.POST("/check-conflicts", ctl.CheckConflicts)
	g.PATCH("/:id/status", ctl.UpdateCourseStatus)
	g.DELETE("/:id", ctl.DeleteCourse)
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorEnvelope struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

var validCourse = map[string]interface{}{
	"subjectId":   3,
	"teacherId":   5,
	"roomId":      1,
	"programId":   2,
	"startTime":   "2024-03-04T09:00:00Z",
	"endTime":     "2024-03-04T10:30:00Z",
	"sessionType": "lecture",
}

func TestCreateCourse(t *testing.T) {
	r := newCourseRouter(&stubSessions{})

	w := doJSON(r, http.MethodPost, "/courses", validCourse)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data dto.CourseResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.Data.ID)
	assert.Equal(t, "planned", resp.Data.Status)
	assert.True(t, resp.Data.StartTime.Equal(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)))
}

func TestCreateCourseConflictIsBadRequest(t *testing.T) {
	report := &scheduling.ConflictReport{RoomConflict: true, RoomSessionIDs: []int64{7}, TeacherSessionIDs: []int64{}, UnavailabilityIDs: []int64{}}
	r := newCourseRouter(&stubSessions{createErr: scheduling.NewConflictError(report)})

	w := doJSON(r, http.MethodPost, "/courses", validCourse)
	require.Equal(t, http.StatusBadRequest, w.Code)

	env := decodeError(t, w)
	assert.Equal(t, string(dto.ErrorCodeSchedulingConflict), env.Error.Code)
	assert.Equal(t, "room conflict", env.Error.Message)

	var details scheduling.ConflictReport
	require.NoError(t, json.Unmarshal(env.Error.Details, &details))
	assert.Equal(t, []int64{7}, details.RoomSessionIDs)
}

func TestCreateCourseConflictNamesEveryKind(t *testing.T) {
	report := &scheduling.ConflictReport{RoomConflict: true, TeacherConflict: true, RoomSessionIDs: []int64{7}, TeacherSessionIDs: []int64{8}, UnavailabilityIDs: []int64{}}
	r := newCourseRouter(&stubSessions{createErr: scheduling.NewConflictError(report)})

	w := doJSON(r, http.MethodPost, "/courses", validCourse)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "room, teacher conflict", decodeError(t, w).Error.Message)
}

func TestCreateCourseExpectsCamelCaseFields(t *testing.T) {
	body := map[string]interface{}{
		"subject_id":   3,
		"teacher_id":   5,
		"room_id":      1,
		"program_id":   2,
		"start_time":   "2024-03-04T09:00:00Z",
		"end_time":     "2024-03-04T10:30:00Z",
		"session_type": "lecture",
	}

	w := doJSON(newCourseRouter(&stubSessions{}), http.MethodPost, "/courses", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(dto.ErrorCodeValidationFailed), decodeError(t, w).Error.Code)
}

func TestCreateCourseRejectsUnknownSessionType(t *testing.T) {
	body := map[string]interface{}{}
	for k, v := range validCourse {
		body[k] = v
	}
	body["sessionType"] = "seminar"

	w := doJSON(newCourseRouter(&stubSessions{}), http.MethodPost, "/courses", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(dto.ErrorCodeValidationFailed), decodeError(t, w).Error.Code)
}

func TestCreateCourseInvalidInterval(t *testing.T) {
	r := newCourseRouter(&stubSessions{createErr: scheduling.ErrInvalidInterval})

	w := doJSON(r, http.MethodPost, "/courses", validCourse)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(dto.ErrorCodeInvalidInterval), decodeError(t, w).Error.Code)
}

func TestCreateCourseBusySchedule(t *testing.T) {
	r := newCourseRouter(&stubSessions{createErr: apperrors.ErrScheduleBusy})

	w := doJSON(r, http.MethodPost, "/courses", validCourse)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCheckConflictsReturnsReport(t *testing.T) {
	report := &scheduling.ConflictReport{TeacherUnavailable: true, UnavailabilityIDs: []int64{9}, RoomSessionIDs: []int64{}, TeacherSessionIDs: []int64{}}
	r := newCourseRouter(&stubSessions{report: report})

	w := doJSON(r, http.MethodPost, "/courses/check-conflicts", map[string]interface{}{
		"roomId":    1,
		"teacherId": 5,
		"startTime": "2024-03-01T09:00:00Z",
		"endTime":   "2024-03-01T10:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data scheduling.ConflictReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.TeacherUnavailable)
	assert.Equal(t, []int64{9}, resp.Data.UnavailabilityIDs)
}

func TestDeleteCourseCancels(t *testing.T) {
	svc := &stubSessions{}
	w := doJSON(newCourseRouter(svc), http.MethodDelete, "/courses/12", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.DeletedByAdminReason, svc.cancelReason)
	assert.Equal(t, "deleted by admin", svc.cancelReason)
}

func TestCourseErrorMapping(t *testing.T) {
	r := newCourseRouter(&stubSessions{})

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"bad id", http.MethodGet, "/courses/abc", nil, http.StatusBadRequest},
		{"not found", http.MethodGet, "/courses/99", nil, http.StatusNotFound},
		{"cancelled is immutable", http.MethodPut, "/courses/3", map[string]interface{}{"roomId": 2}, http.StatusConflict},
		{"bad transition", http.MethodPatch, "/courses/3/status", map[string]interface{}{"status": "planned"}, http.StatusConflict},
		{"unknown status", http.MethodPatch, "/courses/3/status", map[string]interface{}{"status": "done"}, http.StatusBadRequest},
		{"empty search", http.MethodGet, "/courses/search?q=%20", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestListCoursesPaginates(t *testing.T) {
	svc := &stubSessions{}
	w := doJSON(newCourseRouter(svc), http.MethodGet, "/courses?teacherId=5&status=confirmed&page=2&size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, svc.listFilter.TeacherID)
	assert.Equal(t, int64(5), *svc.listFilter.TeacherID)
	assert.Equal(t, "confirmed", svc.listFilter.Status)
	assert.Equal(t, helpers.Page{Number: 2, Size: 10}, svc.listPage)

	var resp struct {
		Data dto.CourseListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Courses, 1)
	assert.Equal(t, 4, resp.Data.Pagination.TotalPages)
	assert.Equal(t, int64(31), resp.Data.Pagination.TotalItems)
}
