package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/facturacion/backend/internal/infrastructure/auth"
	"github.com/facturacion/backend/internal/infrastructure/config"
	"github.com/facturacion/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, maxBody int64) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "engine-test-secret-at-least-32-characters",
		Issuer:                "fiscal-backend",
		AccessTokenExpiration: time.Minute,
	})
	engine, err := NewEngine(EngineConfig{
		JWTService: jwtService,
		HTTP:       config.HTTPConfig{MaxBodySize: maxBody},
		Handlers: Handlers{
			System:     handler.NewSystemHandler("fiscal-backend", "test", nil),
			Channel:    handler.NewChannelHandler(nil),
			Membership: handler.NewMembershipHandler(nil),
			Branch:     handler.NewBranchHandler(nil),
			Ledger:     handler.NewLedgerHandler(nil),
			Catalog:    handler.NewCatalogHandler(nil),
		},
	})
	require.NoError(t, err)
	return engine, jwtService
}

func TestNewEngine_HealthRoutes(t *testing.T) {
	engine, _ := newTestEngine(t, 0)

	for _, path := range []string{"/health", "/api/v1/health", "/api/v1/system/ping"} {
		w := serve(engine, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), path)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"), path)
	}
}

func TestNewEngine_RequiresToken(t *testing.T) {
	engine, jwtService := newTestEngine(t, 0)

	w := serve(engine, http.MethodPost, "/api/v1/registers/"+uuid.NewString()+"/sequences/01/next")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")

	token, _, err := jwtService.GenerateAccessToken(uuid.New(), uuid.Nil)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/info", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewEngine_BodyLimit(t *testing.T) {
	engine, _ := newTestEngine(t, 16)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/catalog/overrides/1234", bytes.NewBufferString(`{"category":"`+strings.Repeat("x", 64)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_REQUEST_TOO_LARGE")
}
