package route

import (
	"jojarts/controller"
	mw "jojarts/middlewares"
	"jojarts/models"

	"github.com/gin-gonic/gin"
)

// Register mounts every /api route on router. loginLimiter may be nil.
func Register(router *gin.Engine, h *controller.Handler, tokens mw.TokenVerifier, loginLimiter *mw.RateLimiter) {
	api := router.Group("/api")
	Unprotected(api, h, loginLimiter)
	Protected(api, h, tokens)
}

func Unprotected(api *gin.RouterGroup, h *controller.Handler, loginLimiter *mw.RateLimiter) {
	api.GET("/health", controller.Health)

	login := []gin.HandlerFunc{h.Login}
	if loginLimiter != nil {
		login = append([]gin.HandlerFunc{loginLimiter.Middleware()}, login...)
	}
	api.POST("/auth/login", login...)

	api.GET("/images", h.ListImages)
}

func Protected(api *gin.RouterGroup, h *controller.Handler, tokens mw.TokenVerifier) {
	protected := api.Group("/")
	protected.Use(mw.JWT(tokens))
	protected.GET("/auth/me", h.Me)

	admin := protected.Group("/")
	admin.Use(mw.RequireRole(models.RoleAdmin))
	admin.POST("/images", h.CreateImage)
	admin.PUT("/images/:id", h.UpdateImage)
	admin.DELETE("/images/:id", h.DeleteImage)
	admin.POST("/uploads", h.UploadFile)
}
