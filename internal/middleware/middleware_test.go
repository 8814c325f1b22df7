package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

func newTestEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(mw...)
	return engine
}

func doRequest(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRateLimitEnvelope(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	engine := newTestEngine(limiter.RateLimit())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, doRequest(engine, http.MethodGet, "/ping").Code)

	w := doRequest(engine, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "rate_limit_exceeded", resp.Error.Code)
}

func TestRecoveryEnvelopeIsOpaque(t *testing.T) {
	engine := newTestEngine(Recovery())
	engine.GET("/boom", func(c *gin.Context) { panic("db password leaked") })

	w := doRequest(engine, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "internal_error", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "leaked")
}

func TestTimeoutEnvelope(t *testing.T) {
	engine := newTestEngine(Timeout(TimeoutConfig{Duration: time.Millisecond}))
	engine.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})

	w := doRequest(engine, http.MethodGet, "/slow")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "request_timeout", resp.Error.Code)
}

func TestTimeoutPassesFastRequests(t *testing.T) {
	engine := newTestEngine(Timeout(DefaultTimeoutConfig()))
	engine.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, doRequest(engine, http.MethodGet, "/fast").Code)
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	engine := newTestEngine(RequestID())
	engine.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFrom(c))
	})

	w := doRequest(engine, http.MethodGet, "/ping")
	generated := w.Header().Get(HeaderXRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderXRequestID, "trace-42")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, "trace-42", w.Header().Get(HeaderXRequestID))
	assert.Equal(t, "trace-42", w.Body.String())
}

// A handler that records an error without writing still yields the standard
// envelope with the error's own status.
func TestErrorHandlerFallbackEnvelope(t *testing.T) {
	engine := newTestEngine(ErrorHandler())
	engine.GET("/missing", func(c *gin.Context) {
		_ = c.Error(errors.NotFound("clinic"))
	})

	w := doRequest(engine, http.MethodGet, "/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeEnvelope(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Code)
}
