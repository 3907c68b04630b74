package clips

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	projectsAPI "github.com/clipforge/clipper-api/api/projects"
	"github.com/clipforge/clipper-api/api/types"
	"github.com/clipforge/clipper-api/internal/models"
	clipsService "github.com/clipforge/clipper-api/internal/services/clips"
	"github.com/clipforge/clipper-api/internal/services/jobs"
)

// RegenerateClipRequest represents the request to re-render a clip
// @Description Request body for regenerating a clip, optionally with a new subtitle style
type RegenerateClipRequest struct {
	SubtitleStyle string `json:"subtitle_style" example:"karaoke" description:"New subtitle style; omit to keep the current one"`
}

// GetClip retrieves a specific clip
// @Summary Get clip details by UUID
// @Description Retrieve a single clip including its processing status and, once ready,
// @Description signed playback and thumbnail URLs.
// @Tags clips
// @Produce json
// @Param uuid path string true "Clip identifier (UUID format)"
// @Success 200 {object} projects.ClipResponse
// @Failure 404 {object} types.ErrorResponse "Clip not found"
// @Failure 500 {object} types.ErrorResponse "Internal server error"
// @Router /api/v1/clips/{uuid} [get]
func GetClip(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := c.Param("uuid")

		clip, err := deps.ClipService.GetClip(c.Request.Context(), uuid)
		if err != nil {
			if errors.Is(err, clipsService.ErrClipNotFound) {
				types.SendNotFound(c, "Clip not found")
			} else {
				log.Printf("[ERROR] Failed to fetch clip %s: %v", uuid, err)
				types.SendInternalError(c, "Failed to fetch clip")
			}
			return
		}

		c.JSON(http.StatusOK, projectsAPI.ToClipResponse(c.Request.Context(), clip, deps.ClipService))
	}
}

// DeleteClip deletes a clip and its stored artifacts
// @Summary Delete a clip
// @Description Permanently delete a clip and remove its rendered video and thumbnail
// @Description from storage. Clips that are currently being generated cannot be deleted.
// @Tags clips
// @Param uuid path string true "Clip identifier (UUID format)"
// @Success 204 "Clip deleted"
// @Failure 404 {object} types.ErrorResponse "Clip not found"
// @Failure 409 {object} types.ErrorResponse "Clip is currently being generated"
// @Failure 500 {object} types.ErrorResponse "Internal server error during deletion"
// @Router /api/v1/clips/{uuid} [delete]
func DeleteClip(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := c.Param("uuid")

		if err := deps.ClipService.DeleteClip(c.Request.Context(), uuid); err != nil {
			switch {
			case errors.Is(err, clipsService.ErrClipNotFound):
				types.SendNotFound(c, "Clip not found")
			case strings.Contains(err.Error(), "cannot be deleted"):
				types.SendConflict(c, err.Error())
			default:
				log.Printf("[ERROR] Failed to delete clip %s: %v", uuid, err)
				types.SendInternalError(c, "Failed to delete clip")
			}
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// RegenerateClip re-renders a clip, optionally with a new subtitle style
// @Summary Regenerate a clip
// @Description Queue a fresh render of the clip from the original source segment.
// @Description Pass subtitle_style to change how burned-in subtitles look.
// @Description Regeneration is asynchronous; the clip returns to pending until it completes.
// @Tags clips
// @Accept json
// @Produce json
// @Param uuid path string true "Clip identifier (UUID format)"
// @Param request body RegenerateClipRequest false "Regeneration options"
// @Success 202 {object} projects.ClipResponse "Regeneration queued"
// @Failure 400 {object} types.ErrorResponse "Unknown subtitle style"
// @Failure 404 {object} types.ErrorResponse "Clip not found"
// @Failure 409 {object} types.ErrorResponse "Clip is already being generated"
// @Failure 500 {object} types.ErrorResponse "Internal server error"
// @Router /api/v1/clips/{uuid}/regenerate [post]
func RegenerateClip(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := c.Param("uuid")

		var req RegenerateClipRequest
		if c.Request.ContentLength > 0 {
			if !types.BindJSONOrError(c, &req) {
				return
			}
		}

		clip, err := deps.ClipService.RegenerateClip(c.Request.Context(), uuid, models.SubtitleStyle(req.SubtitleStyle))
		if err != nil {
			switch {
			case errors.Is(err, clipsService.ErrClipNotFound):
				types.SendNotFound(c, "Clip not found")
			case strings.Contains(err.Error(), "already being generated"):
				types.SendConflict(c, err.Error())
			case strings.Contains(err.Error(), "subtitle style"):
				types.SendBadRequest(c, err.Error())
			default:
				log.Printf("[ERROR] Failed to regenerate clip %s: %v", uuid, err)
				types.SendInternalError(c, "Failed to regenerate clip")
			}
			return
		}

		c.JSON(http.StatusAccepted, projectsAPI.ToClipResponse(c.Request.Context(), clip, nil))
	}
}

// GetClipJob reports the queue state of the clip's regeneration job
// @Summary Get the queue status of a clip's regeneration
// @Description Inspect the background job for the most recent regeneration of this clip.
// @Tags clips
// @Produce json
// @Param uuid path string true "Clip identifier (UUID format)"
// @Success 200 {object} types.JobStatusResponse
// @Failure 404 {object} types.ErrorResponse "Clip or job not found"
// @Failure 500 {object} types.ErrorResponse "Internal server error"
// @Router /api/v1/clips/{uuid}/job [get]
func GetClipJob(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		uuid := c.Param("uuid")

		clip, err := deps.ClipService.GetClip(c.Request.Context(), uuid)
		if err != nil {
			if errors.Is(err, clipsService.ErrClipNotFound) {
				types.SendNotFound(c, "Clip not found")
			} else {
				types.SendInternalError(c, "Failed to fetch clip")
			}
			return
		}

		job, err := deps.JobService.GetJobForClip(c.Request.Context(), clip.ID)
		if err != nil {
			if errors.Is(err, jobs.ErrJobNotFound) {
				types.SendNotFound(c, "No regeneration job found for clip")
			} else {
				log.Printf("[ERROR] Failed to fetch job for clip %s: %v", uuid, err)
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
