package types

import (
	"github.com/clipforge/clipper-api/internal/database"
	"github.com/clipforge/clipper-api/internal/services/clips"
	"github.com/clipforge/clipper-api/internal/services/jobs"
	"github.com/clipforge/clipper-api/internal/services/pipeline"
	"github.com/clipforge/clipper-api/internal/services/projects"
	"github.com/clipforge/clipper-api/internal/services/workers"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB             *database.DB
	ProjectService projects.ProjectService
	ClipService    clips.ClipService
	JobService     jobs.Service
	WorkerPool     *workers.WorkerPool
	Progress       *pipeline.Broadcaster
}
