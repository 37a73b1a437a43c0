package application

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haulmarket/billing-service/internal/domain"
	sharedErrors "github.com/haulmarket/billing-service/pkg/errors"
)

func TestMapDomainErrorNumberingRaceIsInternal(t *testing.T) {
	appErr := mapDomainError(fmt.Errorf("failed to update billing: %w", domain.ErrNumberingRace))

	require.NotNil(t, appErr)
	assert.Equal(t, sharedErrors.CodeInternalError, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
}

func TestMapDomainErrorConcurrencyConflict(t *testing.T) {
	appErr := mapDomainError(domain.ErrConcurrencyConflict)

	require.NotNil(t, appErr)
	assert.Equal(t, sharedErrors.CodeConflict, appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
}

func TestIsNumberingRaceMatchesWrappedChain(t *testing.T) {
	assert.True(t, isNumberingRace(fmt.Errorf("outer: %w", domain.ErrNumberingRace)))
	assert.False(t, isNumberingRace(domain.ErrConcurrencyConflict))
	assert.False(t, isNumberingRace(nil))
}
