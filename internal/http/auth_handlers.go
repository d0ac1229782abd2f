package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bounty-board/internal/service"
)

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"user": userToResponse(*user)}
	res, err := h.verifications.Issue(c.Request.Context(), user.ID)
	if err != nil {
		// the account exists; the client can request another link
		h.logger.WithError(err).WithFields(logrus.Fields{"user_id": user.ID}).Warn("signup verification")
		resp["warning"] = err.Error()
	} else {
		resp["message"] = res.Message
		if res.Token != "" {
			resp["token"] = res.Token
		}
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	token, expires, err := h.tokens.Issue(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken": token,
		"expiresAt":   expires.UTC().Format(time.RFC3339),
		"user":        userToResponse(*user),
	})
}

func (h *Handler) sendVerification(c *gin.Context) {
	res, err := h.verifications.Issue(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"message": res.Message}
	if res.Token != "" {
		resp["token"] = res.Token
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) verifyEmail(c *gin.Context) {
	if err := h.verifications.Redeem(c.Request.Context(), c.Param("userId"), c.Query("token")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}
