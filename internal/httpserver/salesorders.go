package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const salesOrderNotFound = "Sales order not found"

type salesOrderHandler struct {
	svc    salesOrderService
	logger *zap.Logger
}

func (h *salesOrderHandler) list(c *gin.Context) {
	orders, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err, salesOrderNotFound)
		return
	}
	out := make([]salesOrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toSalesOrderResponse(o))
	}
	c.JSON(http.StatusOK, out)
}

func (h *salesOrderHandler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err, salesOrderNotFound)
		return
	}
	setETag(c, order.Version)
	c.JSON(http.StatusOK, toSalesOrderResponse(*order))
}

func (h *salesOrderHandler) create(c *gin.Context) {
	var req salesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	order, err := req.toDomain()
	if err != nil {
		writeError(c, h.logger, err, salesOrderNotFound)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), order)
	if err != nil {
		writeError(c, h.logger, err, salesOrderNotFound)
		return
	}
	c.Header("Location", "/api/salesorders/"+strconv.FormatInt(created.ID, 10))
	setETag(c, created.Version)
	c.JSON(http.StatusCreated, toSalesOrderResponse(*created))
}

func (h *salesOrderHandler) update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req salesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	if req.SalesOrderID != id {
		validationFailed(c, "salesOrderId must match the id in the path")
		return
	}

	expected := req.Version
	if header := c.GetHeader("If-Match"); header != "" {
		v, ok := parseETag(header)
		if !ok {
			validationFailed(c, "If-Match must carry a version ETag")
			return
		}
		expected = &v
	}

	order, err := req.toDomain()
	if err != nil {
		writeError(c, h.logger, err, salesOrderNotFound)
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), id, order, expected)
	if err != nil {
		writeError(c, h.logger, err, salesOrderNotFound)
		return
	}
	setETag(c, updated.Version)
	c.JSON(http.StatusOK, toSalesOrderResponse(*updated))
}

func (h *salesOrderHandler) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err, salesOrderNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// pathID reads the :id segment and answers 400 itself when it is not a
// positive integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		validationFailed(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func invalidBody(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, errorBody{Message: "Invalid request body", Errors: []string{err.Error()}})
}

func setETag(c *gin.Context, version int) {
	c.Header("ETag", `"`+strconv.Itoa(version)+`"`)
}

// parseETag accepts `"3"`, `W/"3"` and a bare `3`.
func parseETag(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

