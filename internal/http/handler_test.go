package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/itops-hk/itpm-service/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleError_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"permission denied", fmt.Errorf("%w", service.ErrPermissionDenied), http.StatusForbidden},
		{"not found", fmt.Errorf("%w", service.ErrNotFound), http.StatusNotFound},
		{"invalid input", fmt.Errorf("%w", service.ErrInvalidInput), http.StatusBadRequest},
		{"invalid transition", fmt.Errorf("%w", service.ErrInvalidTransition), http.StatusBadRequest},
		{"insufficient budget", fmt.Errorf("%w", service.ErrInsufficientBudget), http.StatusBadRequest},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}

	h := &Handler{log: zerolog.Nop()}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.handleError(c, tc.err)

			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestHandleError_InternalErrorHidesDetail(t *testing.T) {
	h := &Handler{log: zerolog.Nop()}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.handleError(c, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	assert.Contains(t, w.Body.String(), "internal error")
}

func TestParseIDParam(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	_, ok := parseIDParam(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "b3c47e0e-9f67-4e58-a34d-0f4e9a6a7d21"}}

	id, ok := parseIDParam(c)
	assert.True(t, ok)
	assert.Equal(t, "b3c47e0e-9f67-4e58-a34d-0f4e9a6a7d21", id.String())
}

func TestParseOptionalUUID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	id, ok := parseOptionalUUID(c, nil, "vendor_id")
	assert.True(t, ok)
	assert.Nil(t, id)

	raw := "b3c47e0e-9f67-4e58-a34d-0f4e9a6a7d21"
	id, ok = parseOptionalUUID(c, &raw, "vendor_id")
	assert.True(t, ok)
	assert.Equal(t, raw, id.String())

	bad := "not-a-uuid"
	_, ok = parseOptionalUUID(c, &bad, "vendor_id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseDate(t *testing.T) {
	parsed, err := parseDate("2026-08-01")
	assert.NoError(t, err)
	assert.Equal(t, 2026, parsed.Year())

	_, err = parseDate("01/08/2026")
	assert.Error(t, err)
}
