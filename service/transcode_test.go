package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscodeJobStartsProbing(t *testing.T) {
	job := NewTranscodeJob("/media/clip.avi")
	assert.Equal(t, StateProbing, job.State())
}

func TestTranscodeJobFailsWithoutProber(t *testing.T) {
	viper.Set("ffmpeg.ffprobe_path", "/nonexistent/ffprobe-binary")
	viper.Set("media.probe_timeout", "2s")

	job := NewTranscodeJob("/media/clip.avi")

	var out bytes.Buffer
	err := job.Run(context.Background(), &out)

	assert.Error(t, err)
	assert.Equal(t, StateFailed, job.State())
	assert.Zero(t, out.Len(), "a failed probe must not emit any bytes")
}

// Drives Run through its full pipeline with stand-in binaries: echo plays
// the prober (prints something, so the codec looks exotic) and true plays
// the encoder. Run with -race this pins the stderr drain happening before
// the buffer is read.
func TestTranscodeJobRunsToCompletion(t *testing.T) {
	viper.Set("ffmpeg.ffprobe_path", "/bin/echo")
	viper.Set("ffmpeg.path", "/bin/true")
	viper.Set("media.probe_timeout", "5s")

	job := NewTranscodeJob("/media/clip.avi")

	var out bytes.Buffer
	require.NoError(t, job.Run(context.Background(), &out))
	assert.Equal(t, StateReady, job.State())
	assert.NotEmpty(t, job.Codec)
}
