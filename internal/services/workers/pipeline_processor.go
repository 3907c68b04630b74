package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/clipforge/clipper-api/internal/models"
	"github.com/clipforge/clipper-api/internal/services/pipeline"
)

// PipelineRunner is the part of the pipeline service the processors use
type PipelineRunner interface {
	Run(ctx context.Context, projectID uint) error
	RegenerateClip(ctx context.Context, clipID uint) error
}

// PipelineProcessor handles pipeline_run jobs
type PipelineProcessor struct {
	runner PipelineRunner
}

// NewPipelineProcessor creates a processor that runs the full pipeline
func NewPipelineProcessor(runner PipelineRunner) *PipelineProcessor {
	return &PipelineProcessor{runner: runner}
}

// CanProcess returns true for pipeline_run jobs
func (p *PipelineProcessor) CanProcess(jobType models.JobType) bool {
	return jobType == models.JobTypePipelineRun
}

// ProcessJob runs the pipeline for the project in the job payload
func (p *PipelineProcessor) ProcessJob(ctx context.Context, job *models.Job) error {
	projectID, ok := job.GetPayloadUint("project_id")
	if !ok {
		return models.NewSystemError("invalid_payload", "pipeline job missing project_id", fmt.Sprintf("payload: %v", job.Payload), nil)
	}

	err := p.runner.Run(ctx, projectID)
	if err == nil {
		return nil
	}

	// Another worker already has this project; treat as a no-op
	if errors.Is(err, pipeline.ErrRunActive) {
		return nil
	}

	return classifyRunError(projectID, err)
}

// classifyRunError maps pipeline failures onto structured job errors so the
// queue applies the right retry policy
func classifyRunError(projectID uint, err error) *models.StructuredJobError {
	detail := fmt.Sprintf("project_id: %d", projectID)

	var quotaErr *pipeline.QuotaError
	if errors.As(err, &quotaErr) {
		return models.NewQuotaError(quotaErr.Limit, err.Error(), detail, err)
	}

	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		if stageErr.Stage == models.StageDownloading {
			return models.NewDownloadError(stageErr.Code, err.Error(), detail, err)
		}
		return models.NewProcessingError(stageErr.Code, err.Error(), detail, err)
	}

	return models.NewSystemError("pipeline_error", err.Error(), detail, err)
}

// RegenerateProcessor handles clip_regenerate jobs
type RegenerateProcessor struct {
	runner PipelineRunner
}

// NewRegenerateProcessor creates a processor that re-renders single clips
func NewRegenerateProcessor(runner PipelineRunner) *RegenerateProcessor {
	return &RegenerateProcessor{runner: runner}
}

// CanProcess returns true for clip_regenerate jobs
func (p *RegenerateProcessor) CanProcess(jobType models.JobType) bool {
	return jobType == models.JobTypeClipRegenerate
}

// ProcessJob re-renders the clip in the job payload
func (p *RegenerateProcessor) ProcessJob(ctx context.Context, job *models.Job) error {
	clipID, ok := job.GetPayloadUint("clip_id")
	if !ok {
		return models.NewSystemError("invalid_payload", "regenerate job missing clip_id", fmt.Sprintf("payload: %v", job.Payload), nil)
	}

	if err := p.runner.RegenerateClip(ctx, clipID); err != nil {
		var clipErr *pipeline.ClipError
		if errors.As(err, &clipErr) {
			return models.NewProcessingError(clipErr.Step, err.Error(), fmt.Sprintf("clip_id: %d", clipID), err)
		}
		return models.NewSystemError("regenerate_error", err.Error(), fmt.Sprintf("clip_id: %d", clipID), err)
	}
	return nil
}
