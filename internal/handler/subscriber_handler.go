package handler

import (
	"errors"
	"net/http"

	"letterdrop/internal/services"
	"letterdrop/internal/transport/httpdto"
	letterdrop_errors "letterdrop/pkg/errors"

	"github.com/gin-gonic/gin"
)

type SubscriberHandler struct {
	service *services.SubscriberService
}

func NewSubscriberHandler(service *services.SubscriberService) *SubscriberHandler {
	return &SubscriberHandler{service: service}
}

func (h *SubscriberHandler) Subscribe(c *gin.Context) {
	var req httpdto.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	sub, err := h.service.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewSubscriberResponse(sub)))
}

func (h *SubscriberHandler) Confirm(c *gin.Context) {
	sub, err := h.service.Confirm(c.Request.Context(), c.Query("token"))
	if err != nil {
		switch {
		case errors.Is(err, letterdrop_errors.ErrNotFound), errors.Is(err, letterdrop_errors.ErrInvalidTransition):
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("invalid or expired token", "NOT_FOUND"))
		default:
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		}
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewSubscriberResponse(sub)))
}

func (h *SubscriberHandler) Unsubscribe(c *gin.Context) {
	var req httpdto.UnsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	if err := h.service.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, letterdrop_errors.ErrNotFound) {
			// No such address; nothing to reveal about the list.
			c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
			return
		}
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *SubscriberHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 50)

	subs, total, err := h.service.List(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}

	out := make([]httpdto.SubscriberResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, httpdto.NewSubscriberResponse(s))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"subscribers": out, "total": total}))
}
