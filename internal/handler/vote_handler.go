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

type CastVoteRequest struct {
	TargetType string `json:"targetType" validate:"required,oneof=thread comment"`
	TargetID   string `json:"targetId" validate:"required,uuid"`
	VoteType   string `json:"voteType" validate:"required,oneof=up down"`
}

type voteResponse struct {
	*models.Vote
	Counts models.VoteCounts `json:"counts"`
}

type VoteHandler struct {
	votes *service.VoteService
}

func NewVoteHandler(votes *service.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

func (h *VoteHandler) Cast(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	var req CastVoteRequest
	if err := validation.Decode(c.Request.Body, &req); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.votes.Cast(c.Request.Context(), identity.ID, service.CastVoteInput{
		TargetType: models.TargetType(req.TargetType),
		TargetID:   uuid.MustParse(req.TargetID),
		VoteType:   models.VoteType(req.VoteType),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	middleware.RecordVote(string(result.Action))

	if result.Vote == nil {
		c.JSON(http.StatusOK, gin.H{
			"message": "Vote removed",
			"counts":  result.Counts,
		})
		return
	}
	c.JSON(http.StatusCreated, voteResponse{Vote: result.Vote, Counts: result.Counts})
}

// Counts returns the aggregate for a target, plus the caller's own vote when
// a session is present.
func (h *VoteHandler) Counts(c *gin.Context) {
	targetType := models.TargetType(c.Param("targetType"))
	if !targetType.Valid() {
		respondError(c, &validation.Error{Fields: []validation.FieldError{
			{Field: "targetType", Reason: "must be one of: thread, comment"},
		}})
		return
	}
	targetID, ok := pathID(c, "targetId")
	if !ok {
		return
	}

	counts, err := h.votes.Counts(c.Request.Context(), targetType, targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"upvotes": counts.Upvotes, "downvotes": counts.Downvotes}
	if identity, ok := middleware.CurrentIdentity(c); ok {
		vote, err := h.votes.Current(c.Request.Context(), identity.ID, targetType, targetID)
		if err != nil {
			respondError(c, err)
			return
		}
		if vote != nil {
			body["userVote"] = vote.VoteType
		} else {
			body["userVote"] = nil
		}
	}
	c.JSON(http.StatusOK, body)
}
