package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutMiddlewareWritesGatewayTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(timeoutMiddleware(5 * time.Millisecond))
	router.GET("/slow", func(c *gin.Context) {
		// overruns the deadline without writing anything
		<-c.Request.Context().Done()
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))

	require.Equal(t, http.StatusGatewayTimeout, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "REQUEST_TIMEOUT", resp["code"])
}

func TestTimeoutMiddlewareKeepsCommittedResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(timeoutMiddleware(5 * time.Millisecond))
	router.GET("/late", func(c *gin.Context) {
		// the handler responds, then overruns the deadline
		c.JSON(http.StatusOK, gin.H{"status": "done"})
		<-c.Request.Context().Done()
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/late", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"done"}`, w.Body.String())
}
