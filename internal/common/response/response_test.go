// Package response 统一响应格式单元测试
package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTest() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSuccess(t *testing.T) {
	c, w := setupTest()

	Success(c, map[string]interface{}{"id": 1})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(t, w)
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "success", resp.Message)
	assert.NotNil(t, resp.Data)
}

func TestSuccessPage(t *testing.T) {
	c, w := setupTest()

	SuccessPage(c, []string{"a", "b"}, 12, 2, 5)

	var raw struct {
		Data PageData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, int64(12), raw.Data.Total)
	assert.Equal(t, 2, raw.Data.Page)
	assert.Equal(t, 5, raw.Data.PageSize)
}

func TestError_KeepsHTTP200(t *testing.T) {
	c, w := setupTest()

	Error(c, 3005, "Selected bed is not available")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseResponse(t, w)
	assert.Equal(t, 3005, resp.Code)
	assert.Equal(t, "Selected bed is not available", resp.Message)
	assert.Nil(t, resp.Data)
}

func TestHTTPErrors(t *testing.T) {
	tests := []struct {
		name       string
		fn         func(*gin.Context, string)
		message    string
		wantStatus int
		wantMsg    string
	}{
		{"BadRequest", BadRequest, "bad input", http.StatusBadRequest, "bad input"},
		{"Unauthorized default", Unauthorized, "", http.StatusUnauthorized, "unauthorized"},
		{"Forbidden default", Forbidden, "", http.StatusForbidden, "forbidden"},
		{"NotFound custom", NotFound, "bill not found", http.StatusNotFound, "bill not found"},
		{"InternalError default", InternalError, "", http.StatusInternalServerError, "internal server error"},
		{"TooManyRequests default", TooManyRequests, "", http.StatusTooManyRequests, "too many requests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := setupTest()
			tt.fn(c, tt.message)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := parseResponse(t, w)
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, tt.wantMsg, resp.Message)
		})
	}
}
