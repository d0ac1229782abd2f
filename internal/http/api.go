package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bounty-board/internal/metrics"
	"bounty-board/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users         service.UserService
	verifications service.VerificationService
	bounties      service.BountyService
	tokens        *TokenIssuer
	metrics       *metrics.Metrics
	logger        *logrus.Logger
}

func NewHandler(users service.UserService, verifications service.VerificationService, bounties service.BountyService, tokens *TokenIssuer, m *metrics.Metrics, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:         users,
		verifications: verifications,
		bounties:      bounties,
		tokens:        tokens,
		metrics:       m,
		logger:        logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), accessLog(h.logger, h.metrics))

	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/signup", RequireUniqueEmail(h.users), h.signup)
		auth.POST("/login", h.login)
		auth.POST("/verification/:userId", h.sendVerification)
		auth.GET("/verify-email/:userId", h.verifyEmail)

		api.GET("/bounties", h.listBounties)
		api.GET("/bounties/:id", h.getBounty)

		protected := api.Group("", RequireAuth(h.tokens))
		protected.POST("/bounties", h.createBounty)
		protected.PATCH("/bounties/:id", h.updateBounty)
		protected.POST("/bounties/:id/complete", h.completeBounty)
		protected.POST("/bounties/:id/submissions", h.submitAnswer)
		protected.GET("/submissions/:id/archive", h.submissionArchive)

		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
