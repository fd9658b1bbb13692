package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/interfaces/http/dto"
	"github.com/facturacion/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var (
	testUserID    = uuid.MustParse("8d4c3a2e-1f0b-4e6a-9c7d-5b2a1e0f9d01")
	testChannelID = uuid.MustParse("3e9f7b1c-6a2d-4c8e-b5f0-7d1a9c3e2b02")
	testActor     = access.Actor{UserID: testUserID, ChannelID: testChannelID}
)

// withIdentity simulates what the JWT middleware leaves on the context
func withIdentity(userID, channelID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(middleware.JWTUserIDKey, userID.String())
		}
		if channelID != uuid.Nil {
			c.Set(middleware.JWTChannelIDKey, channelID.String())
		}
		c.Set(middleware.RequestIDContextKey, "req-test")
		c.Next()
	}
}

func newEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(withIdentity(testUserID, testChannelID))
	return engine
}

// doJSON sends body as JSON. A string body is sent verbatim.
func doJSON(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, w.Code)
	resp := decode(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, code, resp.Error.Code)
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context",
			setup: func(c *gin.Context) {
				c.Set(middleware.RequestIDContextKey, "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(middleware.RequestIDKey, "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestActor(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(middleware.JWTUserIDKey, testUserID.String())
	assert.Equal(t, access.Actor{UserID: testUserID}, actor(c))

	c.Set(middleware.JWTChannelIDKey, testChannelID.String())
	assert.Equal(t, testActor, actor(c))
}

func TestBaseHandlerResponses(t *testing.T) {
	h := &BaseHandler{}

	t.Run("success", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		h.Success(c, map[string]string{"value": "1"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode(t, w).Success)
	})

	t.Run("success with meta", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		h.SuccessWithMeta(c, []string{"001", "002"}, 101, 1, 50)

		resp := decode(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(101), resp.Meta.Total)
		assert.Equal(t, 3, resp.Meta.TotalPages)
	})

	t.Run("created", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		h.Created(c, map[string]string{"id": "1"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("no content", func(t *testing.T) {
		engine := gin.New()
		engine.DELETE("/registers/1", func(c *gin.Context) { h.NoContent(c) })

		w := doJSON(engine, http.MethodDelete, "/registers/1", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.Bytes())
	})
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:   "validation",
			err:    shared.ErrInvalidCode,
			status: http.StatusBadRequest,
			code:   "ERR_INVALID_CODE",
		},
		{
			name:   "not found",
			err:    shared.ErrRegisterNotFound,
			status: http.StatusNotFound,
			code:   "ERR_REGISTER_NOT_FOUND",
		},
		{
			name:   "conflict",
			err:    shared.ErrHasDependents,
			status: http.StatusConflict,
			code:   "ERR_HAS_DEPENDENTS",
		},
		{
			name:   "authorization",
			err:    shared.ErrForbidden,
			status: http.StatusForbidden,
			code:   "ERR_FORBIDDEN",
		},
		{
			name:    "storage hides the driver error",
			err:     shared.NewStorageError("find register", errors.New("pq: connection refused")),
			status:  http.StatusServiceUnavailable,
			code:    dto.ErrCodeStorageUnavailable,
			message: "Storage is temporarily unavailable, please retry",
		},
		{
			name:   "overflow",
			err:    shared.ErrSequenceOverflow,
			status: http.StatusInternalServerError,
			code:   dto.ErrCodeSequenceOverflow,
		},
		{
			name:    "unknown error",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			code:    dto.ErrCodeInternal,
			message: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			engine := newEngine()
			engine.GET("/fail", func(c *gin.Context) { h.HandleError(c, tt.err) })

			w := doJSON(engine, http.MethodGet, "/fail", nil)
			assertError(t, w, tt.status, tt.code)

			resp := decode(t, w)
			assert.Equal(t, "req-test", resp.Error.RequestID)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Error.Message)
			}
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}

	t.Run("nil error writes nothing", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		(&BaseHandler{}).HandleError(c, nil)
		assert.Empty(t, w.Body.Bytes())
	})
}

func TestBaseHandlerUUIDParam(t *testing.T) {
	h := &BaseHandler{}
	engine := newEngine()
	engine.GET("/registers/:id", func(c *gin.Context) {
		if id, ok := h.uuidParam(c, "id"); ok {
			h.Success(c, id.String())
		}
	})

	w := doJSON(engine, http.MethodGet, "/registers/not-a-uuid", nil)
	assertError(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)

	id := uuid.New()
	w = doJSON(engine, http.MethodGet, "/registers/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), decode(t, w).Data)
}

func TestBaseHandlerRequireUser(t *testing.T) {
	h := &BaseHandler{}
	engine := gin.New()
	engine.Use(withIdentity(uuid.Nil, uuid.Nil))
	engine.POST("/channels", func(c *gin.Context) {
		if _, ok := h.requireUser(c); ok {
			h.Success(c, nil)
		}
	})

	w := doJSON(engine, http.MethodPost, "/channels", nil)
	assertError(t, w, http.StatusUnauthorized, dto.ErrCodeUnauthorized)
}
