package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_BeforeCreate(t *testing.T) {
	project := Project{SourceURL: "https://example.com/watch?v=abc"}

	err := project.BeforeCreate(nil)
	require.NoError(t, err)

	assert.NotEmpty(t, project.UUID)
	assert.Equal(t, StagePending, project.Stage)
}

func TestProject_StageHelpers(t *testing.T) {
	tests := []struct {
		stage        ProjectStage
		wantTerminal bool
		wantRunning  bool
	}{
		{StagePending, false, false},
		{StageDownloading, false, true},
		{StageTranscribing, false, true},
		{StageAnalyzing, false, true},
		{StageProcessing, false, true},
		{StageDone, true, false},
		{StageFailed, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			p := Project{Stage: tt.stage}
			assert.Equal(t, tt.wantTerminal, p.IsTerminal())
			assert.Equal(t, tt.wantRunning, p.IsRunning())
		})
	}
}

func TestValidStage(t *testing.T) {
	for _, s := range []ProjectStage{
		StagePending, StageDownloading, StageTranscribing,
		StageAnalyzing, StageProcessing, StageDone, StageFailed,
	} {
		assert.True(t, ValidStage(s), "stage %s should be valid", s)
	}
	assert.False(t, ValidStage("uploading"))
	assert.False(t, ValidStage(""))
}
