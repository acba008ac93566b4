package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sellervault-backend-go/internal/middleware"
)

// SetupRoutes registers the intake API under /api/v1/intake and the public
// health check. Global middleware is applied by the caller.
func SetupRoutes(router *gin.Engine, authMW *middleware.AuthMiddleware, intake *IntakeHandler, logger *zap.Logger) {
	apiV1 := router.Group("/api/v1")
	{
		intakeGroup := apiV1.Group("/intake", authMW.VerifyToken())
		{
			intakeGroup.POST("/session", intake.OpenSession)

			intakeGroup.POST("/card", intake.SubmitCard)
			intakeGroup.PUT("/card", intake.UpdateCard)
			intakeGroup.POST("/card/change", intake.ChangeCard)
			intakeGroup.POST("/card/cancel", intake.CancelCardUpdate)

			intakeGroup.POST("/bank", intake.SubmitBank)
			intakeGroup.PUT("/bank", intake.UpdateBank)
			intakeGroup.POST("/bank/change", intake.ChangeBank)
			intakeGroup.POST("/bank/cancel", intake.CancelBankUpdate)

			intakeGroup.POST("/approval/check", intake.CheckApproval)
			intakeGroup.POST("/vault/:vaultId/finalize", intake.FinalizeVault)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Seller vault backend is healthy."})
	})

	logger.Info("API routes configured under /api/v1/intake and /health")
}
