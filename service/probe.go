package service

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Codecs modern browsers decode natively. Anything else gets the
// transcoded compat stream.
var browserSafeCodecs = map[string]struct{}{
	"h264": {},
	"vp8":  {},
	"vp9":  {},
	"av1":  {},
}

// FFmpegAvailable reports whether the configured ffmpeg binary can be
// found, which decides if the compat stream can be offered at all.
func FFmpegAvailable() bool {
	_, err := exec.LookPath(viper.GetString("ffmpeg.path"))
	return err == nil
}

// ProberAvailable reports whether the configured ffprobe binary can be
// found. Without it codecs can't be identified at all.
func ProberAvailable() bool {
	_, err := exec.LookPath(viper.GetString("ffmpeg.ffprobe_path"))
	return err == nil
}

// ProbeCodec returns the codec name of the first video stream without
// decoding the file.
func ProbeCodec(ctx context.Context, p string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, viper.GetDuration("media.probe_timeout"))
	defer cancel()

	zap.L().Debug("Running FFprobe to determine video codec")

	cmd := exec.CommandContext(ctx, viper.GetString("ffmpeg.ffprobe_path"),
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_name",
		"-of", "default=noprint_wrappers=1:nokey=1",
		"-i", p,
	)

	var stdOut, stdErr bytes.Buffer
	cmd.Stdout = &stdOut
	cmd.Stderr = &stdErr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffprobe failed, %w (%s)", err, stdErr.String())
	}

	codec := strings.TrimSpace(stdOut.String())
	if codec == "" {
		return "", fmt.Errorf("ffprobe returned no video stream (%s)", stdErr.String())
	}

	return codec, nil
}

// NeedsTranscode reports whether a codec falls outside the browser-safe
// allowlist.
func NeedsTranscode(codec string) bool {
	_, ok := browserSafeCodecs[strings.ToLower(codec)]
	return !ok
}
