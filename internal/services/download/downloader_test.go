package download

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clipforge/clipper-api/internal/services/pipeline"
	"github.com/clipforge/clipper-api/pkg/media"
)

func TestNew_Defaults(t *testing.T) {
	svc := New(Config{}, media.New(media.DefaultOptions()))
	assert.Equal(t, "yt-dlp", svc.cfg.YtdlpPath)
	assert.Equal(t, 10*time.Minute, svc.cfg.Timeout)
}

func TestCheckDuration(t *testing.T) {
	svc := New(Config{MaxSourceSeconds: 7200}, media.New(media.DefaultOptions()))

	assert.NoError(t, svc.checkDuration(7200))

	err := svc.checkDuration(9000)
	assert.True(t, pipeline.IsQuotaError(err))

	var quotaErr *pipeline.QuotaError
	assert.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, "max_source_seconds", quotaErr.Limit)
	assert.Equal(t, 9000.0, quotaErr.Actual)
}

func TestCheckDuration_Disabled(t *testing.T) {
	svc := New(Config{}, media.New(media.DefaultOptions()))
	assert.NoError(t, svc.checkDuration(999999))
}

func TestClassifyError(t *testing.T) {
	cause := errors.New("exit status 1")

	tests := []struct {
		name   string
		stderr string
		want   string
	}{
		{
			name:   "video unavailable",
			stderr: "ERROR: [youtube] abc: Video unavailable",
			want:   "video not found",
		},
		{
			name:   "not found",
			stderr: "ERROR: HTTP Error 404: Not Found",
			want:   "video not found",
		},
		{
			name:   "private video",
			stderr: "ERROR: Private video. Sign in if you've been granted access",
			want:   "not publicly accessible",
		},
		{
			name:   "unsupported url",
			stderr: "ERROR: Unsupported URL: ftp://nope",
			want:   "unsupported video URL",
		},
		{
			name:   "generic failure",
			stderr: "ERROR: unable to download video data",
			want:   "yt-dlp failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyError("https://example.com/v", cause, tt.stderr)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestClassifyError_TruncatesStderr(t *testing.T) {
	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}

	err := classifyError("https://example.com/v", errors.New("exit status 1"), string(long))
	assert.Less(t, len(err.Error()), 600)
}
