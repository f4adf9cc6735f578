package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func serve(header string) (w *httptest.ResponseRecorder, seen, fromCtx string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		fromCtx = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(HeaderKey, header)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen, fromCtx
}

func TestMiddlewareGeneratesID(t *testing.T) {
	w, seen, fromCtx := serve("")
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(HeaderKey))
	assert.Equal(t, seen, fromCtx)
}

func TestMiddlewareKeepsCallerID(t *testing.T) {
	_, seen, _ := serve("trace-123")
	assert.Equal(t, "trace-123", seen)
}

func TestMiddlewareReplacesUnusableIDs(t *testing.T) {
	for _, id := range []string{strings.Repeat("x", 500), "has space", "tab\there"} {
		_, seen, _ := serve(id)
		assert.Len(t, seen, 36, id)
	}
}

func TestFromContextWithoutID(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))
	assert.Equal(t, "abc", FromContext(NewContext(context.Background(), "abc")))
}
