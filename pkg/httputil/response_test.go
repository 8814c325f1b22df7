package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/pkg/errors"
)

func testContext(t *testing.T, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRespondWithSuccess(t *testing.T) {
	c, w := testContext(t, "/api/v1/clinics")
	RespondWithSuccess(c, http.StatusCreated, "clinic created", gin.H{"name": "Smile"})

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "clinic created", resp.Message)
	assert.Nil(t, resp.Error)
}

func TestRespondWithAppError(t *testing.T) {
	c, w := testContext(t, "/api/v1/patients/xyz")
	RespondWithError(c, errors.NotFound("patient"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Code)
	assert.Equal(t, "patient not found", resp.Error.Message)
}

func TestRespondWithValidationError(t *testing.T) {
	c, w := testContext(t, "/api/v1/auth/register")
	RespondWithError(c, errors.Validation("email", "Email already registered."))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "validation_error", resp.Error.Code)
	assert.Equal(t, "Email already registered.", resp.Error.Details["email"])
}

func TestRespondWithUnknownErrorIsOpaque(t *testing.T) {
	c, w := testContext(t, "/api/v1/clinics")
	RespondWithError(c, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "internal_error", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, assert.AnError.Error())
}

func TestRespondWithPagination(t *testing.T) {
	c, w := testContext(t, "/api/v1/patients?page=2&page_size=10")
	RespondWithPagination(c, "", []string{"a"}, 2, 10, 35)

	resp := decode(t, w)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 35, resp.Pagination.Count)
	assert.Equal(t, 4, resp.Pagination.TotalPages)
	require.NotNil(t, resp.Pagination.Next)
	assert.Contains(t, *resp.Pagination.Next, "page=3")
	require.NotNil(t, resp.Pagination.Previous)
	assert.Contains(t, *resp.Pagination.Previous, "page=1")
}

func TestRespondWithPaginationEdges(t *testing.T) {
	c, w := testContext(t, "/api/v1/patients")
	RespondWithPagination(c, "", []string{}, 1, 20, 5)

	resp := decode(t, w)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 1, resp.Pagination.TotalPages)
	assert.Nil(t, resp.Pagination.Next)
	assert.Nil(t, resp.Pagination.Previous)
}
