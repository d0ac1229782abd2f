package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bounty-board/internal/domain"
)

func (h *Handler) createBounty(c *gin.Context) {
	var req bountyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	bounty, err := h.bounties.Create(c.Request.Context(), currentUser(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, bountyToResponse(*bounty))
}

func (h *Handler) updateBounty(c *gin.Context) {
	var req bountyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if req.Status != nil {
		respondBadRequest(c, "status cannot be updated directly")
		return
	}

	bounty, err := h.bounties.Update(c.Request.Context(), c.Param("id"), req.patch())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bountyToResponse(*bounty))
}

func (h *Handler) listBounties(c *gin.Context) {
	filter := domain.BountyFilter{
		Title:     strings.TrimSpace(c.Query("title")),
		Status:    domain.BountyStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		CreatedBy: strings.TrimSpace(c.Query("createdBy")),
	}
	if raw := strings.TrimSpace(c.Query("minReward")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondBadRequest(c, "minReward must be a number")
			return
		}
		filter.MinReward = &v
	}

	bounties, err := h.bounties.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]BountyResponse, len(bounties))
	for i := range bounties {
		resp[i] = bountyToResponse(bounties[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getBounty(c *gin.Context) {
	bounty, err := h.bounties.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bountyToResponse(*bounty))
}

func (h *Handler) completeBounty(c *gin.Context) {
	bounty, err := h.bounties.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bountyToResponse(*bounty))
}

func (h *Handler) submitAnswer(c *gin.Context) {
	var req submissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	res, err := h.bounties.SubmitAnswer(c.Request.Context(), c.Param("id"), domain.SubmissionInput{
		Solution: req.Solution,
		Wallet:   req.Wallet,
		UserIDs:  req.UserIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    res.Message,
		"submission": submissionToResponse(*res.Submission),
	})
}

func (h *Handler) submissionArchive(c *gin.Context) {
	url, err := h.bounties.ArchiveURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
