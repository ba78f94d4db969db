package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/biz-directory/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigitsOnly(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0314-2552851", "03142552851"},
		{"+92 (42) 3575-1234", "924235751234"},
		{"call me", ""},
		{"٠٣١٤", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DigitsOnly(tt.in), tt.in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "owner@shop.pk", NormalizeEmail("  Owner@Shop.PK "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short text", Truncate("short   text", 160))

	long := strings.Repeat("word ", 60)
	got := Truncate(long, 50)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 50)
	assert.True(t, strings.HasSuffix(got, "word…"), got)

	assert.Equal(t, "…", Truncate("more than one rune", 1))
	assert.Equal(t, "", Truncate("more than one rune", 0))
	assert.Equal(t, "", Truncate("more than one rune", -3))
	assert.Equal(t, "", Truncate("", 0))
}

type sample struct {
	Name   string `json:"name" validate:"required,max=5"`
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(&sample{Name: "ok", Rating: 3}))

	err := Validate(&sample{Name: "toolong", Rating: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Contains(t, err.Error(), "name must be at most 5 characters")
	assert.Contains(t, err.Error(), "rating must be greater than or equal to 1")
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, IsValidStatus("approved"))
	assert.False(t, IsValidStatus("Approved"))
	assert.False(t, IsValidStatus(""))
}

func TestSendAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err     error
		status  int
		message string
	}{
		{apperrors.NotFound("business", "x"), http.StatusNotFound, ""},
		{apperrors.Conflict("slug taken"), http.StatusConflict, "slug taken"},
		{errors.New("pq: connection reset"), http.StatusInternalServerError, "an internal error occurred"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		SendAppError(c, "failed", tt.err)

		assert.Equal(t, tt.status, w.Code)
		var resp APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.NotContains(t, resp.Error, "pq:")
		if tt.message != "" {
			assert.Equal(t, tt.message, resp.Error)
		}
	}
}
