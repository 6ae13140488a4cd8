package handler

import (
	"net/http"

	"github.com/buildtalk/forum/internal/service"
	"github.com/gin-gonic/gin"
)

type AchievementHandler struct {
	achievements *service.AchievementService
}

func NewAchievementHandler(achievements *service.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievements: achievements}
}

// List returns the achievement ladder.
func (h *AchievementHandler) List(c *gin.Context) {
	achievements, err := h.achievements.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, achievements)
}
