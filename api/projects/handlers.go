package projects

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clipforge/clipper-api/api/types"
	"github.com/clipforge/clipper-api/internal/models"
	"github.com/clipforge/clipper-api/internal/services/jobs"
	projectsService "github.com/clipforge/clipper-api/internal/services/projects"
)

// CreateProject starts a new clip-generation project
// @Summary Submit a source video for clip generation
// @Description Create a project from a public video URL. The pipeline runs asynchronously:
// @Description download, transcription, highlight detection, then per-clip rendering and upload.
// @Description Poll GET /api/v1/projects/{uuid} or stream /api/v1/projects/{uuid}/progress to follow it.
// @Tags projects
// @Accept json
// @Produce json
// @Param request body CreateProjectRequest true "Source URL and generation options"
// @Success 202 {object} ProjectResponse "Project accepted and pipeline run queued"
// @Failure 400 {object} types.ErrorResponse "Invalid URL, clip count, or subtitle style"
// @Failure 500 {object} types.ErrorResponse "Internal server error during project creation"
// @Router /api/v1/projects [post]
func CreateProject(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateProjectRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		project, err := deps.ProjectService.CreateProject(
			c.Request.Context(),
			req.SourceURL,
			req.ClipCount,
			models.SubtitleStyle(req.SubtitleStyle),
		)
		if err != nil {
			if isValidationError(err) {
				types.SendBadRequest(c, err.Error())
			} else {
				log.Printf("[ERROR] Failed to create project for %s: %v", req.SourceURL, err)
				types.SendError(c, err)
			}
			return
		}

		c.JSON(http.StatusAccepted, ToProjectResponse(c.Request.Context(), project, deps.ClipService))
	}
}

// ListProjects returns a paginated project list
// @Summary List projects
// @Description Retrieve projects ordered by creation time (newest first). Clips are not
// @Description included in list responses; fetch a single project for its clips.
// @Tags projects
// @Produce json
// @Param limit query int false "Maximum number of projects to return (1-100)" default(20)
// @Param offset query int false "Number of projects to skip for pagination" default(0)
// @Success 200 {object} ProjectsResponse
// @Failure 500 {object} types.ErrorResponse "Internal server error"
// @Router /api/v1/projects [get]
func ListProjects(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := types.ParseIntQuery(c, "limit", 20)
		if limit < 1 || limit > 100 {
			limit = 20
		}
		offset := types.ParseIntQuery(c, "offset", 0)
		if offset < 0 {
			offset = 0
		}

		projects, total, err := deps.ProjectService.ListProjects(c.Request.Context(), limit, offset)
		if err != nil {
			log.Printf("[ERROR] Failed to list projects: %v", err)
			types.SendInternalError(c, "Failed to list projects")
			return
		}

		response := ProjectsResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Projects:     make([]ProjectResponse, 0, len(projects)),
			Count:        len(projects),
			Total:        total,
			Offset:       offset,
		}
		for _, project := range projects {
			response.Projects = append(response.Projects, ToProjectResponse(c.Request.Context(), project, nil))
		}

		c.JSON(http.StatusOK, response)
	}
}

// GetProject returns one project with its clips
// @Summary Get project details by UUID
// @Description Retrieve a project including pipeline stage, progress, and all generated clips.
// @Description Clips that are ready carry signed playback and thumbnail URLs.
// @Tags projects
// @Produce json
// @Param uuid path string true "Project identifier (UUID format)"
// @Success 200 {object} ProjectResponse
// @Failure 404 {object} types.ErrorResponse "Project not found"
// @Failure 500 {object} types.ErrorResponse "Internal server error"
// @Router /api/v1/projects/{uuid} [get]
func GetProject(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := c.Param("uuid")

		project, err := deps.ProjectService.GetProject(c.Request.Context(), uuid)
		if err != nil {
			if errors.Is(err, projectsService.ErrProjectNotFound) {
				types.SendNotFound(c, "Project not found")
			} else {
				log.Printf("[ERROR] Failed to fetch project %s: %v", uuid, err)
				types.SendInternalError(c, "Failed to fetch project")
			}
			return
		}

		c.JSON(http.StatusOK, ToProjectResponse(c.Request.Context(), project, deps.ClipService))
	}
}

// DeleteProject deletes a project, its clips, and their stored artifacts
// @Summary Delete a project
// @Description Permanently delete a project along with its clips and uploaded artifacts.
// @Description Projects with a pipeline run in progress cannot be deleted.
// @Tags projects
// @Param uuid path string true "Project identifier (UUID format)"
// @Success 204 "Project deleted"
// @Failure 404 {object} types.ErrorResponse "Project not found"
// @Failure 409 {object} types.ErrorResponse "A pipeline run is in progress"
// @Failure 500 {object} types.ErrorResponse "Internal server error during deletion"
// @Router /api/v1/projects/{uuid} [delete]
func DeleteProject(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := c.Param("uuid")

		if err := deps.ProjectService.DeleteProject(c.Request.Context(), uuid); err != nil {
			switch {
			case errors.Is(err, projectsService.ErrProjectNotFound):
				types.SendNotFound(c, "Project not found")
			case strings.Contains(err.Error(), "run in progress"):
				types.SendConflict(c, err.Error())
			default:
				log.Printf("[ERROR] Failed to delete project %s: %v", uuid, err)
				types.SendInternalError(c, "Failed to delete project")
			}
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// RetryProject re-queues a failed project
// @Summary Retry a failed project
// @Description Reset a failed project to pending and queue a fresh pipeline run.
// @Description Only projects in the failed stage can be retried.
// @Tags projects
// @Produce json
// @Param uuid path string true "Project identifier (UUID format)"
// @Success 202 {object} ProjectResponse "Retry queued"
// @Failure 404 {object} types.ErrorResponse "Project not found"
// @Failure 409 {object} types.ErrorResponse "Project is not in the failed stage"
// @Failure 500 {object} types.ErrorResponse "Internal server error"
// @Router /api/v1/projects/{uuid}/retry [post]
func RetryProject(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := c.Param("uuid")

		project, err := deps.ProjectService.RetryProject(c.Request.Context(), uuid)
		if err != nil {
			switch {
			case errors.Is(err, projectsService.ErrProjectNotFound):
				types.SendNotFound(c, "Project not found")
			case strings.Contains(err.Error(), "can be retried"):
				types.SendConflict(c, err.Error())
			default:
				log.Printf("[ERROR] Failed to retry project %s: %v", uuid, err)
				types.SendInternalError(c, "Failed to retry project")
			}
			return
		}

		c.JSON(http.StatusAccepted, ToProjectResponse(c.Request.Context(), project, nil))
	}
}

// GetProjectJob reports the queue state of the project's pipeline job
// @Summary Get the queue status of a project's pipeline run
// @Description Inspect the background job driving the project, including retry count
// @Description and the last error classification. Useful when a project sits in pending.
// @Tags projects
// @Produce json
// @Param uuid path string true "Project identifier (UUID format)"
// @Success 200 {object} types.JobStatusResponse
// @Failure 404 {object} types.ErrorResponse "Project or job not found"
// @Failure 500 {object} types.ErrorResponse "Internal server error"
// @Router /api/v1/projects/{uuid}/job [get]
func GetProjectJob(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := c.Param("uuid")

		project, err := deps.ProjectService.GetProject(c.Request.Context(), uuid)
		if err != nil {
			if errors.Is(err, projectsService.ErrProjectNotFound) {
				types.SendNotFound(c, "Project not found")
			} else {
				types.SendInternalError(c, "Failed to fetch project")
			}
			return
		}

		job, err := deps.JobService.GetJobForProject(c.Request.Context(), project.ID)
		if err != nil {
			if errors.Is(err, jobs.ErrJobNotFound) {
				types.SendNotFound(c, "No pipeline job found for project")
			} else {
				log.Printf("[ERROR] Failed to fetch job for project %s: %v", uuid, err)
				types.SendInternalError(c, "Failed to fetch job")
			}
			return
		}

		c.JSON(http.StatusOK, types.JobStatusResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			JobID:        job.ID,
			JobStatus:    string(job.Status),
			RetryCount:   job.RetryCount,
			ErrorType:    job.ErrorType,
			LastError:    job.Error,
		})
	}
}

// ListProjectClips returns the clips generated for a project
// @Summary List a project's clips
// @Description Retrieve every clip generated for a project in timeline order.
// @Description Ready clips carry signed playback and thumbnail URLs.
// @Tags projects
// @Produce json
// @Param uuid path string true "Project identifier (UUID format)"
// @Success 200 {array} ClipResponse
// @Failure 404 {object} types.ErrorResponse "Project not found"
// @Failure 500 {object} types.ErrorResponse "Internal server error"
// @Router /api/v1/projects/{uuid}/clips [get]
func ListProjectClips(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := c.Param("uuid")

		project, err := deps.ProjectService.GetProject(c.Request.Context(), uuid)
		if err != nil {
			if errors.Is(err, projectsService.ErrProjectNotFound) {
				types.SendNotFound(c, "Project not found")
			} else {
				types.SendInternalError(c, "Failed to fetch project")
			}
			return
		}

		clips, err := deps.ClipService.ListClips(c.Request.Context(), project.ID)
		if err != nil {
			log.Printf("[ERROR] Failed to list clips for project %s: %v", uuid, err)
			types.SendInternalError(c, "Failed to list clips")
			return
		}

		response := make([]ClipResponse, 0, len(clips))
		for _, clip := range clips {
			response = append(response, ToClipResponse(c.Request.Context(), clip, deps.ClipService))
		}
		c.JSON(http.StatusOK, response)
	}
}

// StreamProgress streams pipeline progress over Server-Sent Events
// @Summary Stream project progress
// @Description Subscribe to live pipeline progress for a project as Server-Sent Events.
// @Description The first event carries the current state; subsequent events follow the run.
// @Description The stream ends when the project reaches a terminal stage.
// @Tags projects
// @Produce text/event-stream
// @Param uuid path string true "Project identifier (UUID format)"
// @Success 200 {string} string "SSE stream of progress events"
// @Failure 404 {object} types.ErrorResponse "Project not found"
// @Router /api/v1/projects/{uuid}/progress [get]
func StreamProgress(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := c.Param("uuid")

		// Subscribe before reading the snapshot so a transition between the
		// two is delivered on the channel instead of lost
		updates, cancel := deps.Progress.Subscribe(uuid)
		defer cancel()

		project, err := deps.ProjectService.GetProject(c.Request.Context(), uuid)
		if err != nil {
			if errors.Is(err, projectsService.ErrProjectNotFound) {
				types.SendNotFound(c, "Project not found")
			} else {
				types.SendInternalError(c, "Failed to fetch project")
			}
			return
		}

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		// Send the current state first so late subscribers are not blind
		// until the next pipeline transition.
		snapshot := progressEvent(project)
		if project.IsTerminal() {
			c.SSEvent("progress", snapshot)
			c.Writer.Flush()
			return
		}

		first := true
		c.Stream(func(w io.Writer) bool {
			if first {
				first = false
				c.SSEvent("progress", snapshot)
				return true
			}
			select {
			case update, ok := <-updates:
				if !ok {
					return false
				}
				c.SSEvent("progress", update)
				return update.Stage != models.StageDone && update.Stage != models.StageFailed
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}

func progressEvent(project *models.Project) interface{} {
	return gin.H{
		"project_uuid": project.UUID,
		"stage":        string(project.Stage),
		"progress":     project.Progress,
		"error":        project.ErrorMessage,
	}
}

// isValidationError reports whether a create failure was caused by bad input
// rather than an internal fault
func isValidationError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "source URL") ||
		strings.Contains(msg, "clip count") ||
		strings.Contains(msg, "subtitle style")
}
