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

type ToggleBookmarkRequest struct {
	TargetType string `json:"targetType" validate:"required,oneof=thread comment"`
	TargetID   string `json:"targetId" validate:"required,uuid"`
}

type BookmarkHandler struct {
	bookmarks *service.BookmarkService
}

func NewBookmarkHandler(bookmarks *service.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks}
}

func (h *BookmarkHandler) Toggle(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	var req ToggleBookmarkRequest
	if err := validation.Decode(c.Request.Body, &req); err != nil {
		respondError(c, err)
		return
	}

	bookmark, added, err := h.bookmarks.Toggle(
		c.Request.Context(),
		identity.ID,
		models.TargetType(req.TargetType),
		uuid.MustParse(req.TargetID),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	if !added {
		c.JSON(http.StatusOK, gin.H{"message": "Bookmark removed"})
		return
	}
	c.JSON(http.StatusCreated, bookmark)
}

func (h *BookmarkHandler) List(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	bookmarks, err := h.bookmarks.List(c.Request.Context(), identity.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookmarks)
}
