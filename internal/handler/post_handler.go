package handler

import (
	"errors"
	"net/http"
	"strconv"

	"letterdrop/internal/services"
	"letterdrop/internal/transport/httpdto"
	letterdrop_errors "letterdrop/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PostHandler struct {
	service *services.PostService
}

func NewPostHandler(service *services.PostService) *PostHandler {
	return &PostHandler{service: service}
}

func (h *PostHandler) Create(c *gin.Context) {
	var req httpdto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	p, err := h.service.Create(c.Request.Context(), services.CreatePostInput{
		Slug:        req.Slug,
		Title:       req.Title,
		Markdown:    req.Markdown,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		if errors.Is(err, letterdrop_errors.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, httpdto.NewErrorResponse("slug already in use", "CONFLICT"))
			return
		}
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.NewPostResponse(p)))
}

func (h *PostHandler) Publish(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid post id", "INVALID_REQUEST"))
		return
	}

	p, err := h.service.Publish(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, letterdrop_errors.ErrInvalidTransition):
			c.JSON(http.StatusConflict, httpdto.NewErrorResponse("post cannot be published", "INVALID_TRANSITION"))
		case errors.Is(err, letterdrop_errors.ErrNotFound):
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("post not found", "NOT_FOUND"))
		default:
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		}
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewPostResponse(p)))
}

func (h *PostHandler) GetBySlug(c *gin.Context) {
	p, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("post not found", "NOT_FOUND"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewPostResponse(p)))
}

func (h *PostHandler) ListPublished(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	posts, total, err := h.service.ListPublished(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}

	resp := httpdto.PostListResponse{Total: total, Page: page, Limit: limit}
	for _, p := range posts {
		resp.Posts = append(resp.Posts, httpdto.NewPostResponse(p))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

func (h *PostHandler) ListAll(c *gin.Context) {
	posts, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}

	out := make([]httpdto.PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, httpdto.NewPostResponse(p))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}

func (h *PostHandler) Deliveries(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid post id", "INVALID_REQUEST"))
		return
	}

	report, err := h.service.Deliveries(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, letterdrop_errors.ErrNotFound) {
			c.JSON(http.StatusNotFound, httpdto.NewErrorResponse("post not found", "NOT_FOUND"))
			return
		}
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(report))
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}
