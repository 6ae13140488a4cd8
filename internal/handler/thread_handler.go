package handler

import (
	"net/http"

	"github.com/buildtalk/forum/internal/middleware"
	"github.com/buildtalk/forum/internal/models"
	"github.com/buildtalk/forum/internal/service"
	"github.com/buildtalk/forum/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateThreadRequest struct {
	Title    string `json:"title" validate:"required,notblank,max=200"`
	Content  string `json:"content" validate:"required,notblank,max=20000"`
	Category string `json:"category" validate:"required,oneof=construction furniture services"`
}

type UpdateThreadRequest struct {
	Title    *string `json:"title" validate:"omitnil,notblank,max=200"`
	Content  *string `json:"content" validate:"omitnil,notblank,max=20000"`
	Category *string `json:"category" validate:"omitnil,oneof=construction furniture services"`
}

type SetUpvotesRequest struct {
	Upvotes *int `json:"upvotes" validate:"required,min=0"`
}

type ThreadHandler struct {
	threads  *service.ThreadService
	fallback uuid.UUID
}

// NewThreadHandler builds the thread endpoints. A non-nil fallback author is
// used for anonymous thread creation.
func NewThreadHandler(threads *service.ThreadService, fallback uuid.UUID) *ThreadHandler {
	return &ThreadHandler{threads: threads, fallback: fallback}
}

func (h *ThreadHandler) List(c *gin.Context) {
	var filter models.ThreadFilter

	if category := c.Query("category"); category != "" {
		filter.Category = models.Category(category)
		if !filter.Category.Valid() {
			respondError(c, &validation.Error{Fields: []validation.FieldError{
				{Field: "category", Reason: "must be one of: construction, furniture, services"},
			}})
			return
		}
	}
	if author := c.Query("authorId"); author != "" {
		id, err := uuid.Parse(author)
		if err != nil {
			respondError(c, &validation.Error{Fields: []validation.FieldError{
				{Field: "authorId", Reason: "must be a valid UUID"},
			}})
			return
		}
		filter.AuthorID = id
	}

	threads, err := h.threads.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, threads)
}

func (h *ThreadHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	thread, err := h.threads.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *ThreadHandler) Create(c *gin.Context) {
	authorID, ok := authorOrFallback(c, h.fallback)
	if !ok {
		unauthorized(c)
		return
	}

	var req CreateThreadRequest
	if err := validation.Decode(c.Request.Body, &req); err != nil {
		respondError(c, err)
		return
	}

	thread, err := h.threads.Create(c.Request.Context(), authorID, service.CreateThreadInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: models.Category(req.Category),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, thread)
}

func (h *ThreadHandler) Update(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateThreadRequest
	if err := validation.Decode(c.Request.Body, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := validation.RequireAny(&req); err != nil {
		respondError(c, err)
		return
	}

	update := models.ThreadUpdate{Title: req.Title, Content: req.Content}
	if req.Category != nil {
		category := models.Category(*req.Category)
		update.Category = &category
	}

	thread, err := h.threads.Update(c.Request.Context(), identity.ID, id, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *ThreadHandler) SetUpvotes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req SetUpvotesRequest
	if err := validation.Decode(c.Request.Body, &req); err != nil {
		respondError(c, err)
		return
	}

	thread, err := h.threads.SetUpvotes(c.Request.Context(), id, *req.Upvotes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *ThreadHandler) Delete(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.threads.Delete(c.Request.Context(), identity.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// authorOrFallback returns the session user, or the development fallback
// author when one is configured.
func authorOrFallback(c *gin.Context, fallback uuid.UUID) (uuid.UUID, bool) {
	if identity, ok := middleware.CurrentIdentity(c); ok {
		return identity.ID, true
	}
	if fallback != uuid.Nil {
		return fallback, true
	}
	return uuid.Nil, false
}
