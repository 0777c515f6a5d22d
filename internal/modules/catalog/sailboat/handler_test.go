package sailboat

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSVEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, svc := setup(t)

	_, _, err := svc.Create(&CreateSailboatDTO{Name: "Oceanis 35", Make: "Beneteau"})
	require.NoError(t, err)

	router := gin.New()
	passthrough := func(c *gin.Context) { c.Next() }
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"), passthrough)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sailboats/export", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sailboats.csv")
	body := w.Body.String()
	assert.Contains(t, body, "make,name,designers")
	assert.Contains(t, body, "beneteau,oceanis 35")
}
