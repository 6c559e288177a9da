package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/config"
	"github.com/sangkips/repairshop-api/internal/domain/enum"
	"github.com/sangkips/repairshop-api/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(RateLimiterConfig{Requests: 2, Window: time.Hour})
	defer rl.Stop()

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2"))
	assert.Equal(t, 2, rl.ActiveClients())
}

func TestLimitsFromConfig(t *testing.T) {
	cfg := LimitsFromConfig(config.RateLimitConfig{Requests: 30, Duration: 60})
	assert.Equal(t, 30, cfg.Requests)
	assert.Equal(t, time.Minute, cfg.Window)

	def := LimitsFromConfig(config.RateLimitConfig{})
	assert.Equal(t, 100, def.Requests)
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(role *enum.Role) int {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set(ContextUserID, uuid.New())
			if role != nil {
				c.Set(ContextUserRole, *role)
			}
		})
		r.GET("/", RequireRole(enum.RoleAdmin, enum.RoleTechnician), func(c *gin.Context) { c.Status(http.StatusOK) })
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		return w.Code
	}

	tech, customer := enum.RoleTechnician, enum.RoleCustomer
	assert.Equal(t, http.StatusOK, run(&tech))
	assert.Equal(t, http.StatusForbidden, run(&customer))
	assert.Equal(t, http.StatusForbidden, run(nil))
}

func TestCORSWildcardOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware(&config.CORSConfig{AllowedOrigins: []string{"*"}}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://storefront.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", IdempotencyKeyHeader)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), IdempotencyKeyHeader)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := utils.NewJWTManager("secret", time.Hour)
	id := uuid.New()

	r := gin.New()
	r.GET("/", AuthMiddleware(m), func(c *gin.Context) {
		role, _ := c.Get(ContextUserRole)
		assert.Equal(t, enum.RoleTechnician, role)
		assert.Equal(t, id, c.MustGet(ContextUserID))
		c.Status(http.StatusOK)
	})
	call := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	token, err := m.GenerateAccessToken(utils.Subject{ID: id, Email: "t@shop.test", Name: "Tech", Role: "technician"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, call("Bearer "+token))
	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("Token "+token))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer nope"))

	odd, err := m.GenerateAccessToken(utils.Subject{ID: id, Role: "owner"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+odd))
}
