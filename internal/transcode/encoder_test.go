package transcode

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/vodforge/vodforge/internal/logger"
)

func TestBuildArgs(t *testing.T) {
	enc := &FFmpegEncoder{config: &FFmpegConfig{Path: "ffmpeg", SegmentSeconds: 6}}

	args := enc.buildArgs("/work/input", "/work")

	want := []string{
		"-i", "/work/input",
		"-codec:v", "libx264",
		"-codec:a", "aac",
		"-hls_time", "6",
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", filepath.Join("/work", "segment_%03d.ts"),
		"-y",
		filepath.Join("/work", "master.m3u8"),
	}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

// fakeEncoderScript writes a shell script standing in for the ffmpeg
// binary; it ignores its arguments and runs body.
func fakeEncoderScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script encoder stub requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "encoder.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestEncodeKillsSubprocessOnTimeout(t *testing.T) {
	script := fakeEncoderScript(t, "sleep 10")
	enc, err := NewFFmpegEncoder(&FFmpegConfig{
		Path:           script,
		SegmentSeconds: 10,
		Timeout:        50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewFFmpegEncoder: %v", err)
	}

	start := time.Now()
	err = enc.Encode(testContext(), filepath.Join(t.TempDir(), "input"), t.TempDir())
	if err == nil {
		t.Fatal("expected error from timed-out encode")
	}
	if !errors.Is(err, ErrEncodeFailed) {
		t.Errorf("error = %v, want ErrEncodeFailed", err)
	}
	if !strings.Contains(err.Error(), "killed after") {
		t.Errorf("error = %v, want timeout kill message", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("encode ran %s, subprocess was not killed at the deadline", elapsed)
	}
}

func TestEncodeReportsNonzeroExit(t *testing.T) {
	script := fakeEncoderScript(t, "exit 3")
	enc, err := NewFFmpegEncoder(&FFmpegConfig{
		Path:           script,
		SegmentSeconds: 10,
		Timeout:        time.Minute,
	})
	if err != nil {
		t.Fatalf("NewFFmpegEncoder: %v", err)
	}

	err = enc.Encode(testContext(), "input", t.TempDir())
	if !errors.Is(err, ErrEncodeFailed) {
		t.Fatalf("error = %v, want ErrEncodeFailed", err)
	}
	if !strings.Contains(err.Error(), "exit code 3") {
		t.Errorf("error = %v, want exit code in message", err)
	}
}

func TestLineWriterBuffersPartialLines(t *testing.T) {
	w := &lineWriter{log: logger.NewTestLogger()}

	if _, err := w.Write([]byte("frame=  10 fps=")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if w.buf.Len() == 0 {
		t.Error("partial line was not buffered")
	}

	if _, err := w.Write([]byte("24\nframe=  20\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if w.buf.Len() != 0 {
		t.Errorf("completed lines left in buffer: %q", w.buf.String())
	}

	w.flush()
	if w.buf.Len() != 0 {
		t.Error("flush did not clear buffer")
	}
}
