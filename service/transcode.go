package service

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ErrTranscoderUnavailable means no ffmpeg binary is installed, so a
// compat stream can't be produced for this deployment.
var ErrTranscoderUnavailable = errors.New("transcoder unavailable")

// ErrTranscodeRejected means the source already plays natively and the
// coordinator declined to re-encode it.
var ErrTranscodeRejected = errors.New("source needs no transcode")

type TranscodeState string

const (
	StateProbing     TranscodeState = "probing"
	StateTranscoding TranscodeState = "transcoding"
	StateRejected    TranscodeState = "rejected"
	StateReady       TranscodeState = "ready"
	StateFailed      TranscodeState = "failed"
)

// TranscodeJob is the per-request compatibility stream. It lives exactly
// as long as one HTTP response: the caller passes the request context and
// a cancelled context kills the ffmpeg process.
type TranscodeJob struct {
	Source string
	Codec  string

	mu    sync.Mutex
	state TranscodeState
}

func NewTranscodeJob(source string) *TranscodeJob {
	return &TranscodeJob{
		Source: source,
		state:  StateProbing,
	}
}

func (j *TranscodeJob) State() TranscodeState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *TranscodeJob) setState(s TranscodeState) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

// Run probes the source and, if needed, streams a transcoded fragmented
// mp4 into w as bytes become available. Output starts before the encode
// finishes; nothing is buffered beyond the pipe.
func (j *TranscodeJob) Run(ctx context.Context, w io.Writer) error {
	codec, err := ProbeCodec(ctx, j.Source)
	if err != nil {
		j.setState(StateFailed)
		return fmt.Errorf("probe failed, %w", err)
	}
	j.Codec = codec

	if !NeedsTranscode(codec) {
		j.setState(StateRejected)
		return ErrTranscodeRejected
	}

	if !FFmpegAvailable() {
		j.setState(StateFailed)
		return ErrTranscoderUnavailable
	}

	// Fragmented mp4 so the container is valid before the encode ends
	cmd := exec.CommandContext(ctx, viper.GetString("ffmpeg.path"),
		"-i", j.Source,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "frag_keyframe+empty_moov",
		"-loglevel", "error",
		"-f", "mp4",
		"pipe:1",
	)

	zap.L().Debug("Running FFmpeg command", zap.String("cmd", cmd.String()))

	stderrPipe, _ := cmd.StderrPipe()
	stderrBuf := &bytes.Buffer{}
	stderrDone := make(chan struct{})

	go func() {
		defer close(stderrDone)
		scanner := bufio.NewScanner(io.TeeReader(stderrPipe, stderrBuf))
		for scanner.Scan() {
		}
	}()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		j.setState(StateFailed)
		return fmt.Errorf("failed to create stdout pipe, %w", err)
	}

	if err := cmd.Start(); err != nil {
		j.setState(StateFailed)
		return fmt.Errorf("failed to start ffmpeg, %w", err)
	}

	j.setState(StateTranscoding)

	_, copyErr := io.Copy(w, stdout)
	waitErr := cmd.Wait()

	// Wait closed the stderr pipe; the scanner must drain before the
	// buffer can be read safely
	<-stderrDone

	if copyErr != nil {
		// Client went away mid-stream; CommandContext already reaped the
		// process via the request context
		j.setState(StateFailed)
		return fmt.Errorf("streaming error, %w", copyErr)
	}

	if waitErr != nil {
		j.setState(StateFailed)
		zap.L().Error("FFmpeg failed", zap.Error(waitErr), zap.String("stderr", stderrBuf.String()))
		return fmt.Errorf("ffmpeg failed, %w", waitErr)
	}

	j.setState(StateReady)
	return nil
}
