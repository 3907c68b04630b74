package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
	"results": {
		"channels": [{
			"alternatives": [{
				"transcript": "hello there world",
				"confidence": 0.98,
				"words": [
					{"word": "hello", "start": 0.1, "end": 0.5, "confidence": 0.99},
					{"word": "there", "start": 0.5, "end": 0.9, "confidence": 0.97},
					{"word": "world", "start": 0.9, "end": 1.4, "confidence": 0.98}
				]
			}]
		}]
	}
}`

func writeTestMedia(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.mp4")
	require.NoError(t, os.WriteFile(path, []byte("fake video bytes"), 0644))
	return path
}

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "video/mp4", r.Header.Get("Content-Type"))
		assert.Equal(t, "nova-2", r.URL.Query().Get("model"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))
		assert.Equal(t, "true", r.URL.Query().Get("punctuate"))

		w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	svc := New(Config{APIURL: server.URL, APIKey: "test-key", Model: "nova-2", Language: "en"})

	transcript, err := svc.Transcribe(context.Background(), writeTestMedia(t))
	require.NoError(t, err)

	assert.Equal(t, "hello there world", transcript.Text)
	assert.Equal(t, "en", transcript.Language)
	require.Len(t, transcript.Words, 3)
	assert.Equal(t, "hello", transcript.Words[0].Text)
	assert.Equal(t, 0.1, transcript.Words[0].Start)
	assert.Equal(t, 0.99, transcript.Words[0].Confidence)
}

func TestTranscribe_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"err_code": "INVALID_AUDIO", "err_msg": "unsupported format"}`))
	}))
	defer server.Close()

	svc := New(Config{APIURL: server.URL, APIKey: "k", Model: "nova-2", Language: "en"})

	_, err := svc.Transcribe(context.Background(), writeTestMedia(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestTranscribe_EmbeddedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"err_code": "TIMEOUT", "err_msg": "processing took too long"}`))
	}))
	defer server.Close()

	svc := New(Config{APIURL: server.URL, APIKey: "k", Model: "nova-2", Language: "en"})

	_, err := svc.Transcribe(context.Background(), writeTestMedia(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIMEOUT")
}

func TestTranscribe_NoAlternatives(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": {"channels": []}}`))
	}))
	defer server.Close()

	svc := New(Config{APIURL: server.URL, APIKey: "k", Model: "nova-2", Language: "en"})

	_, err := svc.Transcribe(context.Background(), writeTestMedia(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no alternatives")
}

func TestTranscribe_MissingFile(t *testing.T) {
	svc := New(Config{APIURL: "http://localhost:1", APIKey: "k", Model: "nova-2", Language: "en"})

	_, err := svc.Transcribe(context.Background(), "/does/not/exist.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening media file")
}
