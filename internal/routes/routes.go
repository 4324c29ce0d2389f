package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"centavo/internal/handlers"
	"centavo/internal/middleware"
)

func SetupRoutes(r *gin.Engine, jwtSecret []byte, billing *handlers.BillingHandler, statement *handlers.StatementHandler) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/")
	api.Use(middleware.AuthMiddleware(jwtSecret))
	{
		api.POST("/billing/activation", billing.Activation)
		api.GET("/users/:phone/statement", statement.Statement)
	}
}
