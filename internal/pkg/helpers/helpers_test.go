package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestParsePaginationParams(t *testing.T) {
	p := ParsePaginationParams(testContext("/x?page=3&size=5"))
	assert.Equal(t, Page{Number: 3, Size: 5}, p)
	assert.Equal(t, uint64(10), p.Offset())
	assert.Equal(t, uint64(5), p.Limit())

	p = ParsePaginationParams(testContext("/x?page=-1&size=1000"))
	assert.Equal(t, Page{Number: DefaultPage, Size: DefaultPageSize}, p)
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(45, 2, 20)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, int64(45), info.TotalItems)

	empty := NewPaginationInfo(0, 1, 20)
	assert.Equal(t, 1, empty.TotalPages)

	clamped := NewPaginationInfo(5, 9, 20)
	assert.Equal(t, 1, clamped.CurrentPage)
}

func TestParseTimeQuery(t *testing.T) {
	fallback := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	got, err := ParseTimeQuery(testContext("/x"), "from", fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)

	got, err = ParseTimeQuery(testContext("/x?from=2024-03-01T08:00:00Z"), "from", fallback)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Hour())

	_, err = ParseTimeQuery(testContext("/x?from=yesterday"), "from", fallback)
	assert.Error(t, err)
}

func TestStartOfWeek(t *testing.T) {
	friday := time.Date(2024, 3, 8, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), StartOfWeek(friday))

	sunday := time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), StartOfWeek(sunday))
}

func TestParseIDParam(t *testing.T) {
	c := testContext("/rooms/7")
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	id, err := ParseIDParam(c, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	c.Params = gin.Params{{Key: "id", Value: "0"}}
	_, err = ParseIDParam(c, "id")
	assert.Error(t, err)
}
