package apperr

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sanjshine99/care-app-backend/internal/domain"
)

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(domain.ErrMissingDates))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(domain.ErrInvalidDateRange))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(domain.ErrCareReceiverNotFound))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(domain.ErrCareGiverNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(domain.ErrDuplicate))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(domain.ErrValidation))
}

func TestAsExtractsAppError(t *testing.T) {
	err := CareGiverNotFound("cg1")
	var asErr error = err
	got := As(asErr)
	assert.NotNil(t, got)
	assert.Equal(t, domain.ErrCareGiverNotFound, got.Code)

	assert.Nil(t, As(assert.AnError))
}
