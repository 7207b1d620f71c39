package media

import (
	"errors"
	"testing"
	"time"
)

func TestStatusCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusUploaded, StatusProcessing, true},
		{StatusProcessing, StatusReady, true},
		{StatusProcessing, StatusFailed, true},
		{StatusUploaded, StatusReady, false},
		{StatusUploaded, StatusFailed, false},
		{StatusReady, StatusProcessing, false},
		{StatusReady, StatusUploaded, false},
		{StatusFailed, StatusProcessing, false},
		{StatusFailed, StatusUploaded, false},
		{StatusProcessing, StatusUploaded, false},
		{StatusReady, StatusFailed, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestItemTransition(t *testing.T) {
	item := Item{Status: StatusUploaded}

	if err := item.Transition(StatusProcessing); err != nil {
		t.Fatalf("Transition to PROCESSING: %v", err)
	}
	if item.Status != StatusProcessing {
		t.Fatalf("status = %s, want PROCESSING", item.Status)
	}

	err := item.Transition(StatusUploaded)
	if err == nil {
		t.Fatal("expected error for PROCESSING -> UPLOADED")
	}
	var invalidErr *InvalidTransitionError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("error type = %T, want *InvalidTransitionError", err)
	}
	if item.Status != StatusProcessing {
		t.Fatalf("status mutated on failed transition: %s", item.Status)
	}

	if err := item.Transition(StatusReady); err != nil {
		t.Fatalf("Transition to READY: %v", err)
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusUploaded, StatusProcessing, StatusReady, StatusFailed} {
		if !s.Valid() {
			t.Errorf("Valid(%s) = false", s)
		}
	}
	if Status("DONE").Valid() {
		t.Error("Valid(DONE) = true, want false")
	}
	if Status("").Valid() {
		t.Error("Valid(empty) = true, want false")
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		fileName string
		want     string
	}{
		{"master.m3u8", ContentTypePlaylist},
		{"MASTER.M3U8", ContentTypePlaylist},
		{"segment_000.ts", ContentTypeSegment},
		{"segment_123.TS", ContentTypeSegment},
		{"poster.jpg", ContentTypeBinary},
		{"noextension", ContentTypeBinary},
		{"", ContentTypeBinary},
	}

	for _, tt := range tests {
		if got := ContentTypeFor(tt.fileName); got != tt.want {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", tt.fileName, got, tt.want)
		}
	}
}

func TestRawKey(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	got := RawKey(now, "clip.mp4")
	want := "1700000000000_clip.mp4"
	if got != want {
		t.Errorf("RawKey = %q, want %q", got, want)
	}
}

func TestArtifactKey(t *testing.T) {
	got := ArtifactKey("abc-123", "master.m3u8")
	want := "processed/abc-123/master.m3u8"
	if got != want {
		t.Errorf("ArtifactKey = %q, want %q", got, want)
	}
}
