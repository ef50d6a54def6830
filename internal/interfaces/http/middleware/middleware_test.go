package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/pkg/auth"
	"github.com/your-org/storefront/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"session_id": GetSessionID(c),
			"request_id": GetRequestID(c),
		})
	})
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSession(t *testing.T) {
	r := newEngine(Session(3600, false))

	t.Run("no cookie: new session", func(t *testing.T) {
		w := do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, SessionCookie, cookies[0].Name)
		assert.NoError(t, uuid.Validate(cookies[0].Value))
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, 3600, cookies[0].MaxAge)
	})

	t.Run("valid cookie: reused", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})

		w := do(r, req)
		assert.Contains(t, w.Body.String(), id)
		assert.Equal(t, id, w.Result().Cookies()[0].Value)
	})

	t.Run("malformed cookie: replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "../../etc"})

		w := do(r, req)
		assert.NotEqual(t, "../../etc", w.Result().Cookies()[0].Value)
	})
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	w := do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(requestIDHeader)
	assert.NoError(t, uuid.Validate(generated))
	assert.Contains(t, w.Body.String(), generated)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, id)
	assert.Equal(t, id, do(r, req).Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "not a uuid")
	assert.NotEqual(t, "not a uuid", do(r, req).Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	r := newEngine(CORS(config.SecurityConfig{
		CORSAllowedOrigins: []string{"https://shop.example", "*.example.org"},
		CORSAllowedMethods: []string{"GET", "POST"},
		CORSAllowedHeaders: []string{"Content-Type"},
	}))

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{name: "exact origin: ok", origin: "https://shop.example", allowed: true},
		{name: "wildcard subdomain: ok", origin: "https://admin.example.org", allowed: true},
		{name: "suffix lookalike: error", origin: "https://evilexample.org"},
		{name: "unknown origin: error", origin: "https://other.example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("Origin", tt.origin)
			w := do(r, req)

			if tt.allowed {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
				return
			}
			assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}

	t.Run("preflight: no content", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set("Origin", "https://shop.example")
		w := do(r, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
	})
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	r := newEngine(RateLimit(2, client, logger.Discard()))

	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	w := do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	mr.FastForward(time.Minute)
	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)

	t.Run("redis down: allowed", func(t *testing.T) {
		mr.Close()
		assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
	})

	t.Run("no client: allowed", func(t *testing.T) {
		r := newEngine(RateLimit(1, nil, logger.Discard()))
		for range 3 {
			assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
		}
	})
}

func TestRequestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimit(8))
	r.POST("/echo", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := do(r, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("short")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewReader(make([]byte, 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(20 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	r.GET("/fast", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusGatewayTimeout, do(r, httptest.NewRequest(http.MethodGet, "/slow", nil)).Code)
	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/fast", nil)).Code)
}

func TestSellerAuth(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Name: "Storefront"},
		JWT: config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", AccessTokenExpiry: time.Hour},
	}
	tokens := auth.NewJWTManager(cfg)
	token, _, err := tokens.GenerateAccessToken("seller@example.com")
	require.NoError(t, err)

	r := gin.New()
	r.Use(SellerAuth(tokens))
	r.GET("/me", func(c *gin.Context) {
		email, _ := GetSellerEmailFromContext(c)
		c.String(http.StatusOK, email)
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid token: ok", header: "Bearer " + token, status: http.StatusOK},
		{name: "missing header: error", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme: error", header: "Token " + token, status: http.StatusUnauthorized},
		{name: "bad token: error", header: "Bearer nope", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := do(r, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "seller@example.com", w.Body.String())
			}
		})
	}
}

func TestValidationDetails(t *testing.T) {
	require.NoError(t, SetupValidator())

	type request struct {
		Status string `json:"status" binding:"required,order_status"`
		Code   string `json:"code" binding:"required,min=3"`
	}

	r := gin.New()
	r.POST("/v", func(c *gin.Context) {
		var req request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"details": ValidationDetails(err)})
			return
		}
		c.Status(http.StatusOK)
	})

	w := do(r, httptest.NewRequest(http.MethodPost, "/v", strings.NewReader(`{"status":"lost","code":"ab"}`)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Unknown order status"`)
	assert.Contains(t, w.Body.String(), `"code":"Must be at least 3 characters"`)

	w = do(r, httptest.NewRequest(http.MethodPost, "/v", strings.NewReader(`{"status":"shipping","code":"abc"}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Nil(t, ValidationDetails(assert.AnError))
}
