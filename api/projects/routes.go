package projects

import (
	"github.com/gin-gonic/gin"

	"github.com/clipforge/clipper-api/api/types"
)

// RegisterRoutes registers project routes on the given group
func RegisterRoutes(group *gin.RouterGroup, deps *types.Dependencies) {
	group.POST("", CreateProject(deps))
	group.GET("", ListProjects(deps))
	group.GET("/:uuid", GetProject(deps))
	group.DELETE("/:uuid", DeleteProject(deps))
	group.POST("/:uuid/retry", RetryProject(deps))
	group.GET("/:uuid/job", GetProjectJob(deps))
	group.GET("/:uuid/progress", StreamProgress(deps))
	group.GET("/:uuid/clips", ListProjectClips(deps))
}
