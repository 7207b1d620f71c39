package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vodforge/vodforge/internal/logger"
	"github.com/vodforge/vodforge/internal/media"
)

var (
	ErrFFmpegNotFound = errors.New("transcode: ffmpeg binary not found")
	ErrEncodeFailed   = errors.New("transcode: encoder failed")
)

// Encoder converts the source file at inputPath into an HLS rendition
// (one manifest plus numbered segments) inside outputDir.
type Encoder interface {
	Encode(ctx context.Context, inputPath, outputDir string) error
}

type FFmpegConfig struct {
	Path           string
	SegmentSeconds int
	Timeout        time.Duration
}

func DefaultFFmpegConfig() *FFmpegConfig {
	return &FFmpegConfig{
		Path:           "ffmpeg",
		SegmentSeconds: 10,
		Timeout:        45 * time.Minute,
	}
}

// FFmpegEncoder runs ffmpeg as a blocking subprocess producing a single
// fixed-quality H.264/AAC rendition with VOD playlist semantics.
type FFmpegEncoder struct {
	config *FFmpegConfig
}

var _ Encoder = (*FFmpegEncoder)(nil)

func NewFFmpegEncoder(cfg *FFmpegConfig) (*FFmpegEncoder, error) {
	if cfg == nil {
		cfg = DefaultFFmpegConfig()
	}

	if _, err := exec.LookPath(cfg.Path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}

	return &FFmpegEncoder{config: cfg}, nil
}

func (e *FFmpegEncoder) Encode(ctx context.Context, inputPath, outputDir string) error {
	log := logger.FromContext(ctx)

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	args := e.buildArgs(inputPath, outputDir)
	log.Debug("invoking encoder", "path", e.config.Path, "args", strings.Join(args, " "))

	// One writer for both streams keeps the pipes continuously drained;
	// exec serializes writes when Stdout and Stderr are the same value.
	out := &lineWriter{log: log.With("component", "ffmpeg")}
	cmd := exec.CommandContext(ctx, e.config.Path, args...)
	cmd.Stdout = out
	cmd.Stderr = out

	start := time.Now()
	err := cmd.Run()
	out.flush()

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: killed after %s", ErrEncodeFailed, e.config.Timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: exit code %d", ErrEncodeFailed, exitErr.ExitCode())
		}
		return fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}

	log.Debug("encoder finished", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (e *FFmpegEncoder) buildArgs(inputPath, outputDir string) []string {
	return []string{
		"-i", inputPath,
		"-codec:v", "libx264",
		"-codec:a", "aac",
		"-hls_time", strconv.Itoa(e.config.SegmentSeconds),
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", filepath.Join(outputDir, "segment_%03d.ts"),
		"-y",
		filepath.Join(outputDir, media.ManifestName),
	}
}

// lineWriter forwards subprocess output to the logger one line at a time.
type lineWriter struct {
	log *slog.Logger
	buf bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Partial line, keep it buffered for the next write.
			w.buf.WriteString(line)
			break
		}
		w.log.Debug("encoder output", "line", strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	if w.buf.Len() > 0 {
		w.log.Debug("encoder output", "line", w.buf.String())
		w.buf.Reset()
	}
}
