package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("weight must be positive", "weight=-1")
	require.NotNil(t, err)

	assert.Equal(t, "[VALIDATION_ERROR] weight must be positive", err.Error())
	assert.Equal(t, CategoryValidation, err.Category)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Equal(t, errbuilder.CodeInvalidArgument, err.ErrCode())
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name       string
		suggestion string
		expected   string
	}{
		{
			name:     "without suggestion",
			expected: `[NOT_FOUND] signal "warp" not found`,
		},
		{
			name:       "with suggestion",
			suggestion: "cost",
			expected:   `[NOT_FOUND] signal "cots" not found, did you mean "cost"?`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := "warp"
			if tt.suggestion != "" {
				name = "cots"
			}
			err := NewNotFoundError("signal", name, tt.suggestion)
			assert.Equal(t, tt.expected, err.Error())
			assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
			assert.True(t, Is(err, CategoryNotFound))
		})
	}
}

func TestMissingCapabilityError(t *testing.T) {
	err := NewMissingCapabilityError("formatters.money", "calculations.sumScore")

	assert.Equal(t, "[MISSING_CAPABILITY] missing capability: calculations.sumScore, formatters.money", err.Error())
	assert.Equal(t, CategoryMissingCapability, err.Category)
	assert.Len(t, err.Details.Errors, 2)
}

func TestToAppError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, ToAppError(nil))
	})

	t.Run("app errors pass through wrapping", func(t *testing.T) {
		original := NewValidationError("bad")
		wrapped := fmt.Errorf("context: %w", original)
		assert.Same(t, original, ToAppError(wrapped))
	})

	t.Run("context errors become timeouts", func(t *testing.T) {
		assert.Equal(t, CategoryTimeout, ToAppError(context.Canceled).Category)
		assert.Equal(t, CategoryTimeout, ToAppError(context.DeadlineExceeded).Category)
	})

	t.Run("unknown errors become internal", func(t *testing.T) {
		appErr := ToAppError(fmt.Errorf("boom"))
		assert.Equal(t, CategoryInternal, appErr.Category)
		assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
	})
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "ignored"))

	base := fmt.Errorf("disk full")
	err := WrapError(base, "saving snapshot %s", "abc")
	assert.EqualError(t, err, "saving snapshot abc: disk full")
	assert.ErrorIs(t, err, base)
}

func TestAppErrorJSON(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantCode    string
		wantDetails map[string]string
		wantCause   string
	}{
		{
			name:        "validation without cause",
			err:         NewValidationError("limit must be an integer", "many"),
			wantCode:    "invalid_argument",
			wantDetails: map[string]string{"validation_details": "many"},
		},
		{
			name:        "not found without cause",
			err:         NewNotFoundError("widget", "nope", ""),
			wantCode:    "not_found",
			wantDetails: map[string]string{"widget": "nope"},
		},
		{
			name:        "rate limit without cause",
			err:         NewRateLimitError("30s"),
			wantCode:    "resource_exhausted",
			wantDetails: map[string]string{"retry_after": "30s"},
		},
		{
			name:        "unauthorized with reason",
			err:         NewUnauthorizedError("invalid admin token", "token is expired"),
			wantCode:    "unauthenticated",
			wantDetails: map[string]string{"auth_details": "token is expired"},
		},
		{
			name:      "timeout with cause",
			err:       NewTimeoutError("Request deadline exceeded", context.DeadlineExceeded),
			wantCode:  "deadline_exceeded",
			wantCause: context.DeadlineExceeded.Error(),
		},
	}

	gin.SetMode(gin.TestMode)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.err)
			require.NoError(t, err)

			var body struct {
				Code       string            `json:"code"`
				Message    string            `json:"message"`
				Details    map[string]string `json:"details"`
				Cause      string            `json:"cause"`
				Category   string            `json:"category"`
				HTTPStatus int               `json:"http_status"`
			}
			require.NoError(t, json.Unmarshal(data, &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.err.Msg, body.Message)
			assert.Equal(t, string(tt.err.Category), body.Category)
			assert.Equal(t, tt.err.HTTPStatus, body.HTTPStatus)
			assert.Equal(t, tt.wantCause, body.Cause)
			if tt.wantDetails != nil {
				assert.Equal(t, tt.wantDetails, body.Details)
			}
		})
	}
}

func TestAppErrorJSONHidesCauseInRelease(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	t.Cleanup(func() { gin.SetMode(gin.TestMode) })

	data, err := json.Marshal(NewConfigurationError("bad port", errors.New("secret path /etc/kratu")))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret path")
	assert.Contains(t, string(data), `"category":"configuration"`)
}

func TestAbortWritesStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad limit"), http.StatusBadRequest},
		{"not found", NewNotFoundError("widget", "nope", ""), http.StatusNotFound},
		{"rate limit", NewRateLimitError("1s"), http.StatusTooManyRequests},
		{"unauthorized", NewUnauthorizedError("admin token required"), http.StatusUnauthorized},
		{"missing capability", NewMissingCapabilityError("formatters.money"), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(RecoveryHandler())
			router.GET("/", func(c *gin.Context) { Abort(c, tt.err) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.want, w.Code)
			assert.NotContains(t, w.Body.String(), "nil pointer")
			assert.True(t, json.Valid(w.Body.Bytes()), w.Body.String())
		})
	}
}
