package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salesorder-api/internal/domain"
)

type errorBody struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func validationFailed(c *gin.Context, msgs ...string) {
	c.JSON(http.StatusBadRequest, errorBody{Message: "Validation failed", Errors: msgs})
}

// writeError maps a service error onto a status code and body. Unknown
// errors are logged and reported as a generic 500.
func writeError(c *gin.Context, logger *zap.Logger, err error, notFound string) {
	_ = c.Error(err)

	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		validationFailed(c, vErr.Errors...)
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody{Message: notFound})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, errorBody{
			Message: "Version conflict",
			Errors:  []string{"the sales order was modified by another request; reload and retry"},
		})
	case errors.Is(err, domain.ErrCustomerInUse):
		c.JSON(http.StatusConflict, errorBody{Message: err.Error()})
	default:
		logger.Error("request failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, errorBody{Message: "internal error"})
	}
}
