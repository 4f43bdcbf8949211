package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/dishshot-intake/config"
	"github.com/ikkim/dishshot-intake/internal/app/controller"
	"github.com/ikkim/dishshot-intake/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	wizardController *controller.WizardController
	dishController   *controller.DishController
	clientController *controller.ClientController
	authMiddleware   *middleware.AuthMiddleware
	config           *config.Config
}

func NewRouter(
	wizardController *controller.WizardController,
	dishController *controller.DishController,
	clientController *controller.ClientController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		wizardController: wizardController,
		dishController:   dishController,
		clientController: clientController,
		authMiddleware:   authMiddleware,
		config:           cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))
	router.MaxMultipartMemory = r.config.Upload.MaxFileSize

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Dish photo intake API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		// Login is optional. A valid token makes its user the owner.
		sessions := v1.Group("/sessions")
		sessions.Use(r.authMiddleware.OptionalAuthenticate())
		{
			sessions.POST("", r.wizardController.StartSession)
			sessions.GET("/:id", r.wizardController.GetSession)
			sessions.DELETE("/:id", r.wizardController.DeleteSession)
			sessions.PATCH("/:id/form", r.wizardController.UpdateForm)
			sessions.PUT("/:id/business-status", r.wizardController.SetBusinessStatus)
			sessions.POST("/:id/reset", r.wizardController.ResetForm)

			// navigation
			sessions.POST("/:id/next", r.wizardController.Next)
			sessions.POST("/:id/previous", r.wizardController.Previous)
			sessions.POST("/:id/goto/:step", r.wizardController.Goto)
			sessions.GET("/:id/validate", r.wizardController.Validate)
			sessions.POST("/:id/submit", r.wizardController.Submit)

			// dishes
			sessions.POST("/:id/dishes", r.dishController.AddDish)
			sessions.GET("/:id/dishes/:dishId", r.dishController.GetDish)
			sessions.PATCH("/:id/dishes/:dishId", r.dishController.UpdateDish)
			sessions.DELETE("/:id/dishes/:dishId", r.dishController.RemoveDish)
			sessions.PUT("/:id/dishes/:dishId/item-type", r.dishController.SelectItemType)
			sessions.POST("/:id/dishes/:dishId/files/:kind", r.dishController.AttachDishFiles)
			sessions.DELETE("/:id/dishes/:dishId/files/:kind/:index", r.dishController.DetachDishFile)

			// single-item files
			sessions.POST("/:id/files/:kind", r.dishController.AttachFiles)
			sessions.DELETE("/:id/files/:kind/:index", r.dishController.DetachFile)
		}

		clients := v1.Group("/clients")
		clients.Use(r.authMiddleware.Authenticate())
		{
			clients.GET("/me", r.clientController.GetMyClient)
			clients.GET("/:id", r.clientController.GetClient)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
