package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIP(t *testing.T) {
	a := HashIP("10.0.0.1")
	assert.Len(t, a, 16)
	assert.Equal(t, a, HashIP("10.0.0.1"))
	assert.NotEqual(t, a, HashIP("10.0.0.2"))
}

func TestResponseEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		write   func(c *gin.Context)
		code    int
		message string
		success bool
	}{
		{"success", func(c *gin.Context) { Success(c, gin.H{"a": 1}) }, http.StatusOK, "success", true},
		{"bad request", func(c *gin.Context) { BadRequest(c, "bad") }, http.StatusBadRequest, "bad", false},
		{"not found default", func(c *gin.Context) { NotFound(c, "") }, http.StatusNotFound, "资源不存在", false},
		{"status text default", func(c *gin.Context) { Error(c, http.StatusBadGateway, "") }, http.StatusBadGateway, "Bad Gateway", false},
		{"internal default", func(c *gin.Context) { InternalServerError(c, "") }, http.StatusInternalServerError, "服务器内部错误", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.write(c)

			assert.Equal(t, tt.code, w.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.message, resp.Message)
			assert.Equal(t, tt.success, resp.Success)
		})
	}
}
