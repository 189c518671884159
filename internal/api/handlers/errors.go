package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/retailops/replenish/internal/domain"
	"github.com/retailops/replenish/internal/service"
)

// respondError maps domain errors onto HTTP statuses: bad inputs are 400,
// missing models 404, budget conflicts 409, unconfigured collaborators 503,
// training timeouts 504, and anything unclassified 500.
func respondError(c *gin.Context, err error) {
	var (
		validationErr   *domain.ValidationError
		insufficientErr *domain.InsufficientDataError
		horizonErr      *domain.InsufficientHorizonError
		notFoundErr     *domain.ModelNotFoundError
		budgetErr       *domain.BudgetInfeasibleError
		timeoutErr      *domain.TrainTimeoutError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &insufficientErr),
		errors.As(err, &horizonErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &budgetErr):
		status = http.StatusConflict
	case errors.Is(err, service.ErrStorageNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.As(err, &timeoutErr):
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
