package clips

import (
	"github.com/gin-gonic/gin"

	"github.com/clipforge/clipper-api/api/types"
)

// RegisterRoutes registers clip routes on the given group
func RegisterRoutes(group *gin.RouterGroup, deps *types.Dependencies) {
	group.GET("/:uuid", GetClip(deps))
	group.DELETE("/:uuid", DeleteClip(deps))
	group.POST("/:uuid/regenerate", RegenerateClip(deps))
	group.GET("/:uuid/job", GetClipJob(deps))
}
