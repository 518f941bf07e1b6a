// internal/utils/utils_test.go
package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodcare/prodcare-backend/internal/i18n"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNormalizeString(t *testing.T) {
	assert.Equal(t, "thieuserial", NormalizeString("Thiếu  Serial"))
	assert.Equal(t, "dongco", NormalizeString("Động cơ"))
	assert.True(t, IsMissingSerial("thieu serial"))
	assert.True(t, IsMissingSerial(MissingSerial))
	assert.False(t, IsMissingSerial("SN-001"))
}

func TestPageParams(t *testing.T) {
	newCtx := func(query string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+query, nil)
		return c
	}

	p := GetPageParams(newCtx("page=2&limit=10"))
	assert.True(t, p.Paginate)
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, 21, p.OrderNumber(0))
	start, end := p.Window(25)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	p = GetPageParams(newCtx("page=1"))
	assert.False(t, p.Paginate)
	assert.Equal(t, 1, p.OrderNumber(0))
	start, end = p.Window(7)
	assert.Equal(t, 0, start)
	assert.Equal(t, 7, end)

	p = GetPageParams(newCtx("page=5&limit=10"))
	start, end = p.Window(3)
	assert.Equal(t, start, end)
}

func TestHandleError(t *testing.T) {
	require.NoError(t, i18n.Initialize())

	cases := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{"validation", NewValidationError(i18n.KeyInvalidStopFightingDay), http.StatusBadRequest, "Invalid number of stop-fighting days"},
		{"not found", NewNotFoundError(i18n.KeyIssueNotExisted), http.StatusNotFound, "Issue does not exist"},
		{"wrapped", errors.Join(errors.New("ctx"), NewConflictError(i18n.KeyComponentExisted)), http.StatusConflict, "Component already exists"},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set("lang", "en")

			HandleError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, ResultFailed, body.Result)
			assert.Equal(t, tc.reason, body.Reason)
		})
	}
}

func TestAppErrorIs(t *testing.T) {
	err := NewValidationError(i18n.KeyEmptyCompletionTime)
	assert.True(t, errors.Is(err, NewValidationError(i18n.KeyEmptyCompletionTime)))
	assert.False(t, errors.Is(err, NewValidationError(i18n.KeyInvalidStopFightingDay)))
}

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	token, err := GenerateJWT("pm@example.com", "USER", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "pm@example.com", claims.Email)
	assert.Equal(t, "USER", claims.Role)

	expired, err := GenerateJWT("pm@example.com", "USER", -1)
	require.NoError(t, err)
	_, err = ValidateJWT(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
