package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeAlreadyExists, NormalizeErrorCode("DUPLICATE_TRANSACTION"))
	assert.Equal(t, ErrCodeInvalidInput, NormalizeErrorCode("INVALID_SCHEDULE_TIME"))

	// Already-normalized and unknown codes pass through unchanged.
	assert.Equal(t, ErrCodeConflict, NormalizeErrorCode(ErrCodeConflict))
	assert.Equal(t, "SOMETHING_ELSE", NormalizeErrorCode("SOMETHING_ELSE"))
}

func TestGetHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(ErrCodeNotFound))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(ErrCodeAlreadyExists))
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(ErrCodeInvalidInput))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(ErrCodeInvalidState))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("NOT_A_KNOWN_CODE"))
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2, 3}, 7, 1, 3)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(7), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}
