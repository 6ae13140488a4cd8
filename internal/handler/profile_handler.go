package handler

import (
	"net/http"

	"github.com/buildtalk/forum/internal/middleware"
	"github.com/buildtalk/forum/internal/models"
	"github.com/buildtalk/forum/internal/service"
	"github.com/buildtalk/forum/internal/validation"
	"github.com/gin-gonic/gin"
)

type UpdateProfileRequest struct {
	FirstName       *string `json:"firstName" validate:"omitnil,max=100"`
	LastName        *string `json:"lastName" validate:"omitnil,max=100"`
	Bio             *string `json:"bio" validate:"omitnil,max=1000"`
	Role            *string `json:"role" validate:"omitnil,oneof=contractor homeowner supplier architect diy"`
	IsProfilePublic *bool   `json:"isProfilePublic"`
	ProfileImageURL *string `json:"profileImageUrl" validate:"omitnil,url,max=2048"`
}

type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	profile, err := h.profiles.Get(c.Request.Context(), identity.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) Update(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	var req UpdateProfileRequest
	if err := validation.Decode(c.Request.Body, &req); err != nil {
		respondError(c, err)
		return
	}
	if err := validation.RequireAny(&req); err != nil {
		respondError(c, err)
		return
	}

	update := models.ProfileUpdate{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Bio:             req.Bio,
		IsProfilePublic: req.IsProfilePublic,
		ProfileImageURL: req.ProfileImageURL,
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		update.Role = &role
	}

	profile, err := h.profiles.Update(c.Request.Context(), identity.ID, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
