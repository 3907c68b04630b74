package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	clipsAPI "github.com/clipforge/clipper-api/api/clips"
	"github.com/clipforge/clipper-api/api/health"
	projectsAPI "github.com/clipforge/clipper-api/api/projects"
	"github.com/clipforge/clipper-api/api/types"
	"github.com/clipforge/clipper-api/api/version"
	_ "github.com/clipforge/clipper-api/docs/swagger"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, limits *RateLimitRegistry) error {
	if deps == nil {
		return fmt.Errorf("handler dependencies are required")
	}

	// Public routes, no rate limiting
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, deps)

	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(301, "/docs/index.html")
	})
	docsGroup := engine.Group("/docs")
	docsGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	engine.NoRoute(NotFoundHandler())

	v1 := engine.Group("/api/v1")

	projectGroup := v1.Group("/projects")
	if limits != nil {
		projectGroup.Use(limits.Limit(10, 20))
	}
	projectsAPI.RegisterRoutes(projectGroup, deps)

	clipGroup := v1.Group("/clips")
	if limits != nil {
		clipGroup.Use(limits.Limit(10, 20))
	}
	clipsAPI.RegisterRoutes(clipGroup, deps)

	return nil
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(404, gin.H{
			"status":  "error",
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}
