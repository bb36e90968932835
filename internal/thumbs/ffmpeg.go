package thumbs

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrGeneratorUnavailable indicates the frame generator is not configured.
var ErrGeneratorUnavailable = errors.New("thumbnail generator unavailable")

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// FFmpegGenerator extracts a single preview frame by shelling out to ffmpeg.
// ffmpeg reads the source directly, so both local paths and public object
// URLs work as input.
type FFmpegGenerator struct {
	Binary  string
	Run     CommandRunner
	Timeout time.Duration
}

// NewFFmpegGenerator constructs a generator that shells out to ffmpeg.
func NewFFmpegGenerator(binary string, timeout time.Duration) *FFmpegGenerator {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFmpegGenerator{
		Binary:  binary,
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

// Generate grabs a frame two seconds into the source and returns it as JPEG bytes.
func (g *FFmpegGenerator) Generate(ctx context.Context, source string) ([]byte, error) {
	if g == nil {
		return nil, ErrGeneratorUnavailable
	}
	if g.Run == nil {
		g.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-ss", "2",
		"-i", source,
		"-frames:v", "1",
		"-vf", "scale=640:360",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"pipe:1",
	}

	out, err := g.Run(execCtx, g.Binary, args...)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg frame grab: %w", err)
	}

	if len(out) == 0 {
		return nil, errors.New("ffmpeg produced no frame")
	}

	return out, nil
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}
