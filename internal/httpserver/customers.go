package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const customerNotFound = "Customer not found"

type customerHandler struct {
	svc    customerService
	logger *zap.Logger
}

func (h *customerHandler) list(c *gin.Context) {
	customers, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err, customerNotFound)
		return
	}
	out := make([]customerResponse, 0, len(customers))
	for _, cust := range customers {
		out = append(out, toCustomerResponse(cust))
	}
	c.JSON(http.StatusOK, out)
}

func (h *customerHandler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cust, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err, customerNotFound)
		return
	}
	c.JSON(http.StatusOK, toCustomerResponse(*cust))
}
