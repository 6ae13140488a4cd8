package handler

import (
	"net/http"

	"github.com/buildtalk/forum/internal/middleware"
	"github.com/buildtalk/forum/internal/service"
	"github.com/buildtalk/forum/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,notblank,max=10000"`
}

type UpdateCommentRequest struct {
	Content *string `json:"content" validate:"omitnil,notblank,max=10000"`
}

type CommentHandler struct {
	comments *service.CommentService
	fallback uuid.UUID
}

func NewCommentHandler(comments *service.CommentService, fallback uuid.UUID) *CommentHandler {
	return &CommentHandler{comments: comments, fallback: fallback}
}

func (h *CommentHandler) ListByThread(c *gin.Context) {
	threadID, ok := pathID(c, "id")
	if !ok {
		return
	}

	comments, err := h.comments.ListByThread(c.Request.Context(), threadID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *CommentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	comment, err := h.comments.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Create(c *gin.Context) {
	authorID, ok := authorOrFallback(c, h.fallback)
	if !ok {
		unauthorized(c)
		return
	}
	threadID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := validation.Decode(c.Request.Body, &req); err != nil {
		respondError(c, err)
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), authorID, threadID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) Update(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateCommentRequest
	if err := validation.Decode(c.Request.Body, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := validation.RequireAny(&req); err != nil {
		respondError(c, err)
		return
	}

	comment, err := h.comments.Update(c.Request.Context(), identity.ID, id, *req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) SetUpvotes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req SetUpvotesRequest
	if err := validation.Decode(c.Request.Body, &req); err != nil {
		respondError(c, err)
		return
	}

	comment, err := h.comments.SetUpvotes(c.Request.Context(), id, *req.Upvotes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.comments.Delete(c.Request.Context(), identity.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
